package session

import (
	"context"
	"time"

	"NowFM/core/bus"
	"NowFM/logger"
	"NowFM/model"
)

// Fetcher is the upstream poll contract. A nil snapshot with a nil error
// means nothing is flagged as playing right now. An error means the cycle
// must be skipped without touching state: a failed fetch is not evidence
// that playback stopped.
type Fetcher interface {
	FetchNowPlaying(ctx context.Context) (*model.NowPlaying, error)
}

// EventCache mirrors the last published event into durable storage for
// warm starts. It is best-effort and never authoritative.
type EventCache interface {
	Set(ctx context.Context, np *model.NowPlaying) error
	Get(ctx context.Context) (*model.NowPlaying, error)
	Clear(ctx context.Context) error
}

// Poller drives the whole pipeline: fetch a snapshot, run it through the
// state machine, broadcast the resulting event and update the mirror.
type Poller struct {
	fetcher        Fetcher
	store          *Store
	bus            *bus.Bus
	cache          EventCache // nil when no cache is configured
	interval       time.Duration
	publishStopped bool
}

func NewPoller(fetcher Fetcher, store *Store, b *bus.Bus, cache EventCache, interval time.Duration, publishStopped bool) *Poller {
	return &Poller{
		fetcher:        fetcher,
		store:          store,
		bus:            b,
		cache:          cache,
		interval:       interval,
		publishStopped: publishStopped,
	}
}

// Run polls until ctx is cancelled. The first poll happens immediately so
// subscribers do not wait a full interval after startup.
func (p *Poller) Run(ctx context.Context) {
	logger.Info("poller started", logger.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("poller stopped")
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce runs a single fetch-decide-publish cycle.
func (p *Poller) PollOnce(ctx context.Context) {
	snap, err := p.fetcher.FetchNowPlaying(ctx)
	if err != nil {
		// transient upstream failure: skip the cycle, state untouched,
		// the next tick is the retry
		logger.Warn("now playing poll failed", logger.ErrorField(err))
		return
	}

	out := p.store.Apply(snap, time.Now(), p.publishStopped)

	if out.Event != nil {
		logger.Info("playback transition",
			logger.String("state", string(p.store.Playback())),
			logger.String("artist", out.Event.Artist),
			logger.String("track", out.Event.Track),
			logger.Bool("nowPlaying", out.Event.NowPlaying))
		p.bus.Publish(*out.Event)
	}

	if p.cache == nil {
		return
	}
	switch out.CacheOp {
	case CacheSet:
		if err := p.cache.Set(ctx, out.Event); err != nil {
			logger.Warn("now playing cache set failed", logger.ErrorField(err))
		}
	case CacheClear:
		if err := p.cache.Clear(ctx); err != nil {
			logger.Warn("now playing cache clear failed", logger.ErrorField(err))
		}
	}
}
