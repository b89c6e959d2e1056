package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// PlaybackState describes what the tracked user's player is doing right now.
type PlaybackState string

const (
	StatePlaying PlaybackState = "playing"
	StatePaused  PlaybackState = "paused"
	StateStopped PlaybackState = "stopped"
)

// NowPlaying is one snapshot of the tracked user's current track. It is both
// the result of a poll against the scrobbler and the event shape pushed to
// subscribers.
type NowPlaying struct {
	ID         string `json:"id"`
	Artist     string `json:"artist"`
	Track      string `json:"track"`
	Album      string `json:"album,omitempty"`
	AlbumArt   string `json:"albumArt,omitempty"`
	NowPlaying bool   `json:"nowPlaying"`
	DurationMs int64  `json:"durationMs,omitempty"` // 0 when the metadata lookup failed
	Timestamp  int64  `json:"timestamp,omitempty"`  // upstream scrobble time (unix), diagnostic only
}

// Progress is the per-connection position heartbeat.
type Progress struct {
	Playing    bool  `json:"playing"`
	PositionMs int64 `json:"positionMs"`
	DurationMs int64 `json:"durationMs"`
}

// TrackID derives the stable identity key for a track from its artist and
// title. Case and runs of whitespace are ignored so that metadata flicker
// between polls never looks like a track change.
func TrackID(artist, title string) string {
	norm := normalize(artist) + "\x00" + normalize(title)
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:8])
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Equal reports value equality of two events. Publishing is deduplicated on
// this, not on pointer identity.
func (np *NowPlaying) Equal(other *NowPlaying) bool {
	if np == nil || other == nil {
		return np == other
	}
	return *np == *other
}

// Clone returns a copy safe to mutate without affecting the session state.
func (np *NowPlaying) Clone() *NowPlaying {
	if np == nil {
		return nil
	}
	c := *np
	return &c
}
