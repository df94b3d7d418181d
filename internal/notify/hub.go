package notify

import (
	"context"
	"sync"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	"github.com/oshokin/room-allotment/internal/logger"
)

// AllRecipients subscribes to every event regardless of its recipient.
const AllRecipients = "*"

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 32

// subscription is one registered listener.
type subscription struct {
	recipient string
	ch        chan domain.Event
}

// Hub fans events out to subscribers keyed by recipient.
type Hub struct {
	// subs maps recipient keys to their subscriptions.
	subs map[string]map[*subscription]struct{}
	// bufferSize is the capacity of every subscriber channel.
	bufferSize int
	// closed is set once Close ran; later subscriptions get a closed channel.
	closed bool
	// mu protects subs and closed.
	mu sync.RWMutex
}

// NewHub creates a hub with the given per-subscriber buffer size.
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	return &Hub{
		subs:       make(map[string]map[*subscription]struct{}),
		bufferSize: bufferSize,
	}
}

// Subscribe registers a listener for recipient. An empty recipient receives
// only broadcasts; AllRecipients receives everything. The returned function
// unsubscribes and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(recipient string) (<-chan domain.Event, func()) {
	sub := &subscription{
		recipient: recipient,
		ch:        make(chan domain.Event, h.bufferSize),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(sub.ch)

		return sub.ch, func() {}
	}

	if h.subs[recipient] == nil {
		h.subs[recipient] = make(map[*subscription]struct{})
	}

	h.subs[recipient][sub] = struct{}{}

	var once sync.Once

	return sub.ch, func() {
		once.Do(func() { h.remove(sub) })
	}
}

// Publish delivers event to the subscribers of recipient and to AllRecipients.
func (h *Hub) Publish(ctx context.Context, recipient string, event domain.Event) {
	event.Recipient = recipient

	h.mu.RLock()
	defer h.mu.RUnlock()

	h.deliver(ctx, h.subs[recipient], event)

	if recipient != AllRecipients {
		h.deliver(ctx, h.subs[AllRecipients], event)
	}
}

// Broadcast delivers event to every subscriber.
func (h *Hub) Broadcast(ctx context.Context, event domain.Event) {
	event.Recipient = ""

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, subs := range h.subs {
		h.deliver(ctx, subs, event)
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var n int
	for _, subs := range h.subs {
		n += len(subs)
	}

	return n
}

// Close closes every subscriber channel. Later publishes are no-ops.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for recipient, subs := range h.subs {
		for sub := range subs {
			close(sub.ch)
		}

		delete(h.subs, recipient)
	}

	h.closed = true
}

// deliver sends without blocking; the caller holds at least the read lock.
func (h *Hub) deliver(ctx context.Context, subs map[*subscription]struct{}, event domain.Event) {
	for sub := range subs {
		select {
		case sub.ch <- event:
		default:
			logger.DebugKV(ctx, "Dropped event for slow subscriber",
				"event", event.Type,
				"recipient", sub.recipient,
			)
		}
	}
}

func (h *Hub) remove(sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subs[sub.recipient]
	if !ok {
		return
	}

	if _, ok = subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	close(sub.ch)

	if len(subs) == 0 {
		delete(h.subs, sub.recipient)
	}
}
