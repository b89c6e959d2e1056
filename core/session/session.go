package session

import (
	"sync"
	"time"

	"NowFM/model"
)

// Session is the playback state derived from successive polls. There is one
// per process, owned by the Store; only Advance mutates it.
//
// StartedAt is non-zero exactly while Playback is StatePlaying, and
// FrozenPositionMs is meaningful only while it is not.
type Session struct {
	Playback         model.PlaybackState
	Current          *model.NowPlaying // last live track; survives a pause, cleared on stop
	StartedAt        time.Time         // wall-clock anchor for the position estimate
	FrozenPositionMs int64

	lastPublished *model.NowPlaying
}

// NewSession returns a stopped session with no track.
func NewSession() *Session {
	return &Session{Playback: model.StateStopped}
}

func (s *Session) start(snap *model.NowPlaying, now time.Time) {
	s.Playback = model.StatePlaying
	s.Current = snap
	s.StartedAt = now
	s.FrozenPositionMs = 0
}

func (s *Session) reset() {
	s.Playback = model.StateStopped
	s.Current = nil
	s.StartedAt = time.Time{}
	s.FrozenPositionMs = 0
}

// Store guards the process-wide Session behind a single lock. The poller is
// the only writer; subscriber connections and the REST handlers read.
type Store struct {
	mu sync.RWMutex
	s  *Session
}

func NewStore() *Store {
	return &Store{s: NewSession()}
}

// Apply runs the state machine for one poll result. The lock is held only
// for the decision itself, never across I/O.
func (st *Store) Apply(snap *model.NowPlaying, now time.Time, publishStopped bool) Outcome {
	st.mu.Lock()
	defer st.mu.Unlock()
	return Advance(st.s, snap, now, publishStopped)
}

// Playback returns the current playback state.
func (st *Store) Playback() model.PlaybackState {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Playback
}

// CurrentEvent returns a copy of the most recently published event, or nil
// when nothing has been published since the last stop.
func (st *Store) CurrentEvent() *model.NowPlaying {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.lastPublished.Clone()
}

// Progress estimates the playback position at the given instant. While
// playing the position is wall-clock elapsed since the anchor; otherwise it
// is the frozen position. The estimate is clamped to [0, duration] when the
// duration is known.
func (st *Store) Progress(now time.Time) model.Progress {
	st.mu.RLock()
	defer st.mu.RUnlock()

	playing := st.s.Playback == model.StatePlaying

	var pos int64
	if playing && !st.s.StartedAt.IsZero() {
		pos = now.Sub(st.s.StartedAt).Milliseconds()
	} else {
		pos = st.s.FrozenPositionMs
	}

	var dur int64
	if st.s.Current != nil {
		dur = st.s.Current.DurationMs
	}

	if pos < 0 {
		pos = 0
	}
	if dur > 0 && pos > dur {
		pos = dur
	}

	return model.Progress{Playing: playing, PositionMs: pos, DurationMs: dur}
}
