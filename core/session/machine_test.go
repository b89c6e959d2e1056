package session

import (
	"testing"
	"time"

	"NowFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(ms int64) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func snap(artist, title string, durMs int64) *model.NowPlaying {
	return &model.NowPlaying{
		ID:         model.TrackID(artist, title),
		Artist:     artist,
		Track:      title,
		DurationMs: durMs,
		NowPlaying: true,
	}
}

// anchor must exist exactly while playing
func checkAnchorInvariant(t *testing.T, s *Session) {
	t.Helper()
	if s.Playback == model.StatePlaying {
		assert.False(t, s.StartedAt.IsZero(), "playing session must have a start anchor")
	} else {
		assert.True(t, s.StartedAt.IsZero(), "non-playing session must not have a start anchor")
	}
}

func TestStartFromStopped(t *testing.T) {
	s := NewSession()

	out := Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)

	require.NotNil(t, out.Event)
	assert.True(t, out.Event.NowPlaying)
	assert.Equal(t, "Muse", out.Event.Artist)
	assert.Equal(t, CacheSet, out.CacheOp)

	assert.Equal(t, model.StatePlaying, s.Playback)
	assert.Equal(t, at(0), s.StartedAt)
	assert.Equal(t, int64(0), s.FrozenPositionMs)
	checkAnchorInvariant(t, s)
}

func TestSameTrackRefreshNoRepublish(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)

	out := Advance(s, snap("Muse", "Hysteria", 200000), at(2000), false)

	assert.Nil(t, out.Event, "value-equal refresh must not republish")
	assert.Equal(t, CacheNone, out.CacheOp)
	assert.Equal(t, at(0), s.StartedAt, "refresh must not move the anchor")
}

func TestRefreshRepublishesMaterialChange(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)

	richer := snap("Muse", "Hysteria", 200000)
	richer.AlbumArt = "https://lastfm.freetls.fastly.net/i/u/300x300/abc.jpg"
	out := Advance(s, richer, at(2000), false)

	require.NotNil(t, out.Event, "late-resolved artwork is a material change")
	assert.Equal(t, richer.AlbumArt, out.Event.AlbumArt)
}

func TestRefreshKeepsResolvedDuration(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)

	// this cycle's metadata lookup failed
	Advance(s, snap("Muse", "Hysteria", 0), at(2000), false)

	assert.Equal(t, int64(200000), s.Current.DurationMs)
}

func TestNewTrackWhilePlaying(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)

	out := Advance(s, snap("Muse", "Bliss", 240000), at(60000), false)

	require.NotNil(t, out.Event)
	assert.Equal(t, "Bliss", out.Event.Track)
	assert.True(t, out.Event.NowPlaying)
	assert.Equal(t, at(60000), s.StartedAt)
	assert.Equal(t, int64(0), s.FrozenPositionMs)
}

func TestVanishNearEndFinishes(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)

	// elapsed 195500ms, within the 5000ms grace of the 200000ms runtime
	out := Advance(s, nil, at(195500), false)

	assert.Nil(t, out.Event)
	assert.Equal(t, CacheClear, out.CacheOp)
	assert.Equal(t, model.StateStopped, s.Playback)
	assert.Nil(t, s.Current, "finished track must not be resumable")
	assert.Equal(t, int64(0), s.FrozenPositionMs)
	checkAnchorInvariant(t, s)
}

func TestVanishEarlyPauses(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)

	out := Advance(s, nil, at(150000), false)

	require.NotNil(t, out.Event)
	assert.False(t, out.Event.NowPlaying)
	assert.Equal(t, "Hysteria", out.Event.Track)
	assert.Equal(t, CacheSet, out.CacheOp)

	assert.Equal(t, model.StatePaused, s.Playback)
	assert.Equal(t, int64(150000), s.FrozenPositionMs)
	checkAnchorInvariant(t, s)
}

func TestVanishUnknownDurationPauses(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 0), at(0), false)

	// without a known runtime there is no finish classification
	out := Advance(s, nil, at(400000), false)

	require.NotNil(t, out.Event)
	assert.Equal(t, model.StatePaused, s.Playback)
	assert.Equal(t, int64(400000), s.FrozenPositionMs)
}

func TestResumeAnchoring(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)
	Advance(s, nil, at(30000), false) // paused at 30000ms

	resumeAt := at(34000)
	out := Advance(s, snap("Muse", "Hysteria", 200000), resumeAt, false)

	require.NotNil(t, out.Event)
	assert.True(t, out.Event.NowPlaying)
	assert.Equal(t, model.StatePlaying, s.Playback)

	// immediate position query must land back on the frozen position
	pos := resumeAt.Sub(s.StartedAt).Milliseconds()
	assert.InDelta(t, 30000, pos, 1)
	assert.Equal(t, int64(0), s.FrozenPositionMs)
	checkAnchorInvariant(t, s)
}

func TestNewTrackSupersedesPause(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)
	Advance(s, nil, at(150000), false) // paused with frozen position

	now := at(160000)
	out := Advance(s, snap("Muse", "Bliss", 240000), now, false)

	require.NotNil(t, out.Event)
	assert.Equal(t, "Bliss", out.Event.Track)
	assert.Equal(t, model.StatePlaying, s.Playback)
	assert.Equal(t, now, s.StartedAt, "frozen position of the old track must not leak into the new one")
	assert.Equal(t, int64(0), s.FrozenPositionMs)
}

func TestPausedQuietUpstreamIsNoop(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)
	Advance(s, nil, at(150000), false)

	out := Advance(s, nil, at(152000), false)

	assert.Nil(t, out.Event)
	assert.Equal(t, CacheNone, out.CacheOp)
	assert.Equal(t, model.StatePaused, s.Playback)
	assert.Equal(t, int64(150000), s.FrozenPositionMs)
}

func TestStoppedQuietUpstreamIsNoop(t *testing.T) {
	s := NewSession()

	out := Advance(s, nil, at(0), false)

	assert.Nil(t, out.Event)
	assert.Equal(t, CacheNone, out.CacheOp)
	assert.Equal(t, model.StateStopped, s.Playback)
}

func TestPublishStoppedPolicy(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), true)

	out := Advance(s, nil, at(199000), true)

	require.NotNil(t, out.Event, "terminal event expected with the policy enabled")
	assert.False(t, out.Event.NowPlaying)
	assert.Equal(t, "Hysteria", out.Event.Track)
	assert.Equal(t, CacheClear, out.CacheOp)
	assert.Equal(t, model.StateStopped, s.Playback)
}

func TestReplayAfterFinishPublishesAgain(t *testing.T) {
	s := NewSession()
	Advance(s, snap("Muse", "Hysteria", 200000), at(0), false)
	Advance(s, nil, at(199000), false) // natural finish, silent

	out := Advance(s, snap("Muse", "Hysteria", 200000), at(210000), false)

	require.NotNil(t, out.Event, "replaying the same track after a finish must publish")
	assert.True(t, out.Event.NowPlaying)
}

func TestReplayDeterminism(t *testing.T) {
	type step struct {
		np *model.NowPlaying
		ms int64
	}
	steps := []step{
		{nil, 0},
		{snap("Muse", "Hysteria", 200000), 2000},
		{snap("Muse", "Hysteria", 200000), 4000},
		{nil, 6000},
		{snap("Muse", "Hysteria", 200000), 10000},
		{snap("Muse", "Bliss", 240000), 12000},
		{nil, 14000},
	}

	run := func() []model.NowPlaying {
		s := NewSession()
		var events []model.NowPlaying
		for _, st := range steps {
			var np *model.NowPlaying
			if st.np != nil {
				np = st.np.Clone()
			}
			if out := Advance(s, np, at(st.ms), false); out.Event != nil {
				events = append(events, *out.Event)
			}
		}
		return events
	}

	first := run()
	second := run()
	assert.Equal(t, first, second, "replaying the same snapshot sequence must yield the same events")
}

// The end-to-end sequence from a 2s poll cadence: track appears at t+2s,
// vanishes at t+6s well before its runtime, stays gone.
func TestPollSequenceScenario(t *testing.T) {
	s := NewSession()
	var events []model.NowPlaying

	record := func(out Outcome) {
		checkAnchorInvariant(t, s)
		if out.Event != nil {
			events = append(events, *out.Event)
		}
	}

	record(Advance(s, nil, at(0), false))
	record(Advance(s, snap("Muse", "Hysteria", 200000), at(2000), false))
	record(Advance(s, snap("Muse", "Hysteria", 200000), at(4000), false))
	record(Advance(s, nil, at(6000), false))
	record(Advance(s, nil, at(8000), false))

	require.Len(t, events, 2)

	assert.True(t, events[0].NowPlaying)
	assert.Equal(t, "Hysteria", events[0].Track)

	assert.False(t, events[1].NowPlaying)
	assert.Equal(t, "Hysteria", events[1].Track)
	assert.Equal(t, int64(4000), s.FrozenPositionMs, "pause froze the elapsed 4s")
	assert.Equal(t, model.StatePaused, s.Playback)
}
