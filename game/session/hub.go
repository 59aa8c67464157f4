package session

import (
	"sync"

	"go.uber.org/zap"
)

// Hub fans snapshots out to observers. Callbacks run synchronously on the
// publisher's goroutine; channel subscribers that fall behind are dropped and
// their channel closed.
type Hub struct {
	mu        sync.Mutex
	next      int
	observers map[int]func(Snapshot)
	subs      map[int]chan Snapshot
	closed    bool
	logger    *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		observers: make(map[int]func(Snapshot)),
		subs:      make(map[int]chan Snapshot),
		logger:    logger,
	}
}

// Observe registers fn and returns a function removing it
func (h *Hub) Observe(fn func(Snapshot)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return func() {}
	}
	id := h.next
	h.next++
	h.observers[id] = fn

	return func() {
		h.mu.Lock()
		delete(h.observers, id)
		h.mu.Unlock()
	}
}

// Subscribe returns a channel receiving every published snapshot. The
// channel is closed when the subscriber is dropped, cancelled or the hub closes.
func (h *Hub) Subscribe(buffer int) (<-chan Snapshot, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Snapshot, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		h.unsubscribe(id)
		h.mu.Unlock()
	}
}

// Broadcast delivers a private copy of snap to every observer and subscriber
func (h *Hub) Broadcast(snap *Snapshot) {
	h.mu.Lock()
	observers := make([]func(Snapshot), 0, len(h.observers))
	for _, fn := range h.observers {
		observers = append(observers, fn)
	}
	for id, ch := range h.subs {
		select {
		case ch <- snap.clone():
		default:
			// Subscriber's buffer is full, drop it
			h.logger.Warn("dropping slow subscriber",
				zap.String("session_id", snap.SessionID),
				zap.Int("subscriber", id))
			h.unsubscribe(id)
		}
	}
	h.mu.Unlock()

	for _, fn := range observers {
		fn(snap.clone())
	}
}

// Count returns the number of observers and subscribers
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers) + len(h.subs)
}

// Close removes everyone and closes subscriber channels
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id := range h.subs {
		h.unsubscribe(id)
	}
	h.observers = make(map[int]func(Snapshot))
}

// unsubscribe must be called with mu held
func (h *Hub) unsubscribe(id int) {
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}
