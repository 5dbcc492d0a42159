package events

import (
	"sync"
	"time"
)

// Kind names what part of the local cache changed
type Kind string

const (
	KindStudents Kind = "students"
	KindRewards  Kind = "rewards"
	KindLedger   Kind = "ledger"
)

// ChangeEvent tells subscribers that cached state changed. StudentID is
// empty for whole-cache changes such as a reconciliation pass.
type ChangeEvent struct {
	Kind      Kind
	StudentID string
	At        time.Time
}

// Bus is an in-process publish/subscribe channel for change events. The
// store owns a Bus instance; nothing here is global.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(ChangeEvent)
}

// NewBus creates an empty bus
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(ChangeEvent))}
}

// Subscribe registers a callback for every published event and returns a
// cancel function that removes the subscription.
func (b *Bus) Subscribe(fn func(ChangeEvent)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish delivers the event to every current subscriber. Callbacks run on
// the publisher's goroutine and must not block.
func (b *Bus) Publish(ev ChangeEvent) {
	b.mu.Lock()
	fns := make([]func(ChangeEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
