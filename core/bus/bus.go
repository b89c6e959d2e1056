package bus

import (
	"sync"

	"NowFM/model"

	"github.com/google/uuid"
)

// subscriberBuffer bounds how many undelivered events a slow subscriber may
// hold before the oldest get dropped.
const subscriberBuffer = 32

// Subscriber receives published events on C in publish order. Once the
// buffer fills, delivery is lossy oldest-first; consumers that need the
// current state must read it from the store, not reconstruct it from
// history.
type Subscriber struct {
	ID string
	C  chan model.NowPlaying
}

// Bus is a single-writer, multi-reader broadcast channel for now-playing
// events. Publishing with no subscribers drops the event silently.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]*Subscriber
}

func New() *Bus {
	return &Bus{subs: make(map[string]*Subscriber)}
}

// Subscribe registers a new subscriber. Late subscribers miss history and
// only see future events.
func (b *Bus) Subscribe() *Subscriber {
	sub := &Subscriber{
		ID: uuid.NewString(),
		C:  make(chan model.NowPlaying, subscriberBuffer),
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// more than once.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub.ID]; !ok {
		return
	}
	delete(b.subs, sub.ID)
	close(sub.C)
}

// Publish fans an event out to every subscriber without blocking. A full
// buffer loses its oldest event to make room. The read lock excludes
// Unsubscribe, so a send never races a close.
func (b *Bus) Publish(np model.NowPlaying) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, sub := range b.subs {
		select {
		case sub.C <- np:
		default:
			select {
			case <-sub.C:
			default:
			}
			select {
			case sub.C <- np:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
