package unread

import "sync"

// Signal announces that userID has marked conversationID fully read.
type Signal struct {
	ConversationID string
	UserID         string
}

// Bridge is the constructed in-process channel between the read-state
// reconciler and the aggregators. It replaces ambient global event dispatch:
// the wiring in cmd owns its lifetime and hands it to both sides, so either
// can be tested alone.
type Bridge struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Signal)
}

func NewBridge() *Bridge {
	return &Bridge{subs: make(map[int]func(Signal))}
}

// Subscribe registers fn and returns its disposer.
func (b *Bridge) Subscribe(fn func(Signal)) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers s to every subscriber. Callbacks run outside the lock so a
// subscriber may resubscribe or dispose from within its handler.
func (b *Bridge) Publish(s Signal) {
	b.mu.Lock()
	callbacks := make([]func(Signal), 0, len(b.subs))
	for _, fn := range b.subs {
		callbacks = append(callbacks, fn)
	}
	b.mu.Unlock()

	for _, fn := range callbacks {
		fn(s)
	}
}
