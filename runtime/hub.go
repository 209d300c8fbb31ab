package runtime

import (
	"sync"
	"sync/atomic"

	"github.com/Tropical8818/iProTalk/domain"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of undelivered events kept per consumer.
const DefaultCapacity = 100

// Hub fans published events out to every registered Consumer.
//
// Publish is best effort and never blocks: a consumer whose queue is full loses
// its oldest events and is told so on its next read. There is no backlog, a
// consumer only sees events published after it subscribed.
//
// Hub is safe for concurrent use by multiple goroutines.
type Hub struct {
	capacity int

	mu        sync.RWMutex
	consumers map[uuid.UUID]*Consumer
	closed    bool

	// publishMu serializes producers so all consumers observe one order.
	publishMu sync.Mutex

	published atomic.Uint64
	lagged    atomic.Uint64
}

// Option defines a functional configuration type for the Hub.
type Option func(*Hub)

// WithCapacity sets the per-consumer queue size. Non-positive values are ignored.
func WithCapacity(capacity int) Option {
	return func(h *Hub) {
		if capacity > 0 {
			h.capacity = capacity
		}
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		capacity:  DefaultCapacity,
		consumers: make(map[uuid.UUID]*Consumer),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new consumer. It receives every event published from now on.
// After Close the returned consumer is already closed.
func (h *Hub) Subscribe() *Consumer {
	c := newConsumer(h.capacity)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		c.close()
		return c
	}
	h.consumers[c.id] = c
	return c
}

// Unsubscribe deregisters and closes c. Calling it more than once is harmless.
func (h *Hub) Unsubscribe(c *Consumer) {
	if c == nil {
		return
	}
	h.mu.Lock()
	delete(h.consumers, c.id)
	h.mu.Unlock()
	c.close()
}

// Publish delivers evt to every consumer registered at the time of the call.
// With no consumers the event is dropped. Callers never get a failure signal.
func (h *Hub) Publish(evt domain.Event) {
	h.publishMu.Lock()
	defer h.publishMu.Unlock()

	h.published.Add(1)
	for _, c := range h.snapshot() {
		if c.push(evt) {
			h.lagged.Add(1)
		}
	}
}

func (h *Hub) snapshot() []*Consumer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	consumers := make([]*Consumer, 0, len(h.consumers))
	for _, c := range h.consumers {
		consumers = append(consumers, c)
	}
	return consumers
}

// HubStats is a point-in-time view used by logs and the debug inspector.
type HubStats struct {
	Consumers int    `json:"consumers"`
	Published uint64 `json:"published"`
	Lagged    uint64 `json:"lagged"`
	Capacity  int    `json:"capacity"`
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	consumers := len(h.consumers)
	h.mu.RUnlock()
	return HubStats{
		Consumers: consumers,
		Published: h.published.Load(),
		Lagged:    h.lagged.Load(),
		Capacity:  h.capacity,
	}
}

// Close unsubscribes every consumer. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	consumers := h.consumers
	h.consumers = make(map[uuid.UUID]*Consumer)
	h.closed = true
	h.mu.Unlock()
	for _, c := range consumers {
		c.close()
	}
}
