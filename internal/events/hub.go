package events

import (
	"context"
	"log/slog"
	"sync"
)

const subscriberBuffer = 16

type subscription struct {
	ch   chan Change
	once sync.Once
}

// Hub fans changes out to in-process subscribers, keyed by owner.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*subscription]struct{})}
}

// Subscribe returns a channel of the owner's changes and a func that ends the
// subscription and closes the channel. The func is safe to call more than once.
func (h *Hub) Subscribe(ownerID string) (<-chan Change, func()) {
	sub := &subscription{ch: make(chan Change, subscriberBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.subs[ownerID] == nil {
		h.subs[ownerID] = make(map[*subscription]struct{})
	}
	h.subs[ownerID][sub] = struct{}{}
	h.mu.Unlock()

	// once only ever runs under h.mu, so Close and unsubscribe cannot race
	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()

		sub.once.Do(func() {
			delete(h.subs[ownerID], sub)
			if len(h.subs[ownerID]) == 0 {
				delete(h.subs, ownerID)
			}
			close(sub.ch)
		})
	}

	return sub.ch, unsubscribe
}

// Publish never blocks: a subscriber whose buffer is full misses the change,
// which is harmless since any pending change already triggers a re-fetch.
func (h *Hub) Publish(_ context.Context, change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[change.OwnerID] {
		select {
		case sub.ch <- change:
		default:
			slog.Debug("dropped change for slow subscriber", "owner_id", change.OwnerID, "key", change.RoutingKey())
		}
	}
}

// subscribers counts the owner's live subscriptions.
func (h *Hub) subscribers(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[ownerID])
}

// Close ends every subscription, which lets open event streams finish during
// shutdown. Later subscriptions get an already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for ownerID, subs := range h.subs {
		for sub := range subs {
			sub.once.Do(func() { close(sub.ch) })
		}
		delete(h.subs, ownerID)
	}
}
