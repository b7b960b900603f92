package events

import (
	"sync"

	"github.com/jscyril/hsm/api"
)

// Bus fans snapshots out to subscribers. Each subscriber gets its own
// unbounded queue, so Publish never waits on a slow reader.
type Bus struct {
	subscribers map[*Subscription]struct{}
	last        *api.Snapshot
	closed      bool
	mu          sync.Mutex
}

// NewBus creates a new snapshot bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[*Subscription]struct{}),
	}
}

// Subscription is one observer's view of the bus
type Subscription struct {
	bus *Bus
	box *Mailbox[api.Snapshot]
}

// C delivers snapshots in publication order. It is closed when the bus
// closes or the subscription is cancelled.
func (s *Subscription) C() <-chan api.Snapshot {
	return s.box.Out()
}

// Close cancels the subscription and drops anything undelivered
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
	s.box.Close()
}

// Subscribe returns a new subscription. The latest published snapshot, if
// any, is delivered first.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{bus: b, box: NewMailbox[api.Snapshot]()}
	if b.last != nil {
		sub.box.Push(b.last.Clone())
	}
	if b.closed {
		sub.box.Finish()
		return sub
	}
	b.subscribers[sub] = struct{}{}
	return sub
}

// Publish broadcasts a snapshot to all subscribers
func (b *Bus) Publish(s api.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	last := s.Clone()
	b.last = &last
	for sub := range b.subscribers {
		sub.box.Push(s.Clone())
	}
}

func (b *Bus) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, s)
}

// Close ends every subscription once its backlog is delivered
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subscribers {
		sub.box.Finish()
	}
	b.subscribers = make(map[*Subscription]struct{})
}
