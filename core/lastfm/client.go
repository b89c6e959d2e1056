package lastfm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"NowFM/logger"
	"NowFM/model"

	"github.com/shkh/lastfm-go/lastfm"
)

// placeholderArtSig 是Last.fm默认"无封面"占位图的签名，出现时按无封面处理
const placeholderArtSig = "2a96cbd8b46e442fc41c2b86b821562f"

// Client Last.fm API客户端，轮询指定用户的实时播放状态
type Client struct {
	api  *lastfm.Api
	user string
}

// NewClient 创建客户端。secret仅签名接口需要，可以为空。
func NewClient(apiKey, apiSecret, user string) *Client {
	return &Client{
		api:  lastfm.New(apiKey, apiSecret),
		user: user,
	}
}

// FetchNowPlaying returns the track the user is playing right now, or nil
// when nothing is flagged live. The most recent scrobble without the
// nowplaying attribute is history, not a live signal.
func (c *Client) FetchNowPlaying(ctx context.Context) (*model.NowPlaying, error) {
	result, err := c.api.User.GetRecentTracks(lastfm.P{
		"user":  c.user,
		"limit": 1,
	})
	if err != nil {
		return nil, fmt.Errorf("get recent tracks: %w", err)
	}
	if len(result.Tracks) == 0 {
		return nil, nil
	}

	track := result.Tracks[0]
	if track.NowPlaying != "true" {
		return nil, nil
	}

	urls := make([]string, 0, len(track.Images))
	for _, img := range track.Images {
		urls = append(urls, img.Url)
	}

	np := &model.NowPlaying{
		ID:         model.TrackID(track.Artist.Name, track.Name),
		Artist:     track.Artist.Name,
		Track:      track.Name,
		Album:      track.Album.Name,
		AlbumArt:   pickAlbumArt(urls),
		NowPlaying: true,
	}

	if uts, err := strconv.ParseInt(track.Date.Uts, 10, 64); err == nil {
		np.Timestamp = uts
	}

	// 时长通过track.getInfo二次查询；失败只是时长未知，不影响本次轮询
	np.DurationMs = c.lookupDuration(track.Artist.Name, track.Name)

	return np, nil
}

// lookupDuration resolves the track length in milliseconds, 0 when unknown.
func (c *Client) lookupDuration(artist, title string) int64 {
	info, err := c.api.Track.GetInfo(lastfm.P{
		"artist": artist,
		"track":  title,
	})
	if err != nil {
		logger.Debug("track info lookup failed",
			logger.ErrorField(err),
			logger.String("artist", artist),
			logger.String("track", title))
		return 0
	}

	ms, err := strconv.ParseInt(info.Duration, 10, 64)
	if err != nil || ms < 0 {
		return 0
	}
	return ms
}

// pickAlbumArt selects the largest artwork URL (Last.fm lists images small
// to large) and suppresses the stock placeholder.
func pickAlbumArt(urls []string) string {
	art := ""
	for _, u := range urls {
		if u != "" {
			art = u
		}
	}
	if strings.Contains(art, placeholderArtSig) {
		return ""
	}
	return art
}
