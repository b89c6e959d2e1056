package session

import (
	"time"

	"NowFM/model"
)

// FinishGraceMs is the tolerance after a track's nominal runtime during
// which a vanished snapshot still counts as natural completion. It absorbs
// polling jitter around track boundaries.
const FinishGraceMs = 5000

// CacheOp tells the poller how to update the durable mirror after a poll.
type CacheOp int

const (
	CacheNone CacheOp = iota
	CacheSet
	CacheClear
)

// Outcome is what one poll decided: an event to broadcast (nil for none)
// and how to update the durable mirror.
type Outcome struct {
	Event   *model.NowPlaying
	CacheOp CacheOp
}

// Advance feeds one poll result into the session and returns what to do.
// A nil snap means the upstream reported nothing live; fetch errors must be
// handled by the caller and never reach here. now is injected so replaying
// the same snapshot sequence is deterministic.
func Advance(s *Session, snap *model.NowPlaying, now time.Time, publishStopped bool) Outcome {
	if snap == nil {
		return advanceGone(s, now, publishStopped)
	}
	return advanceLive(s, snap, now)
}

func advanceLive(s *Session, snap *model.NowPlaying, now time.Time) Outcome {
	same := s.Current != nil && s.Current.ID == snap.ID

	// keep a previously resolved duration when this cycle's lookup failed
	if same && snap.DurationMs == 0 {
		snap.DurationMs = s.Current.DurationMs
	}

	switch {
	case s.Playback == model.StatePlaying && same:
		// same track still playing: refresh metadata only. publish drops
		// the event again unless something visible actually changed.
		s.Current = snap
		return s.publish(snap)

	case s.Playback == model.StatePaused && same:
		// resume: re-anchor so the position estimate picks up where the
		// track froze
		s.Playback = model.StatePlaying
		s.StartedAt = now.Add(-time.Duration(s.FrozenPositionMs) * time.Millisecond)
		s.FrozenPositionMs = 0
		s.Current = snap
		return s.publish(snap)

	default:
		// stopped, or a different track superseding whatever was before
		s.start(snap, now)
		return s.publish(snap)
	}
}

func advanceGone(s *Session, now time.Time, publishStopped bool) Outcome {
	if s.Playback != model.StatePlaying {
		// paused or stopped already; a quiet upstream changes nothing
		return Outcome{}
	}

	if s.Current == nil || s.StartedAt.IsZero() {
		// playing without an anchor should not happen; reset quietly
		s.reset()
		s.lastPublished = nil
		return Outcome{CacheOp: CacheClear}
	}

	elapsed := now.Sub(s.StartedAt).Milliseconds()
	dur := s.Current.DurationMs

	if dur > 0 && elapsed+FinishGraceMs >= dur {
		// the track ran its course: natural finish, nothing resumable
		ended := s.Current
		s.reset()
		if publishStopped {
			return s.publish(ended)
		}
		// clear the dedupe memory so an immediate replay of the same
		// track publishes again
		s.lastPublished = nil
		return Outcome{CacheOp: CacheClear}
	}

	// vanished mid-track: treat as a pause and freeze the position
	s.Playback = model.StatePaused
	s.StartedAt = time.Time{}
	s.FrozenPositionMs = elapsed
	return s.publish(s.Current)
}

// publish prepares the outgoing event for the current state and deduplicates
// it against the last published one by value.
func (s *Session) publish(ev *model.NowPlaying) Outcome {
	out := ev.Clone()
	out.NowPlaying = s.Playback == model.StatePlaying

	if out.Equal(s.lastPublished) {
		return Outcome{}
	}
	s.lastPublished = out

	op := CacheSet
	if s.Playback == model.StateStopped {
		op = CacheClear
	}
	return Outcome{Event: out, CacheOp: op}
}
