package runtime

import (
	"context"
	"sync"

	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/errors"

	"github.com/google/uuid"
)

// Delivery is one item read from a Consumer: either an Event or, when the
// consumer fell behind, the number of events that were discarded.
type Delivery struct {
	Event  domain.Event
	Lagged uint64
}

func (d Delivery) IsLagged() bool { return d.Lagged > 0 }

// Consumer is a single subscriber's view of the Hub.
// Its queue is a fixed-size ring: when full, the oldest event is evicted and
// counted as lagged so the producer never waits on a slow reader.
type Consumer struct {
	id uuid.UUID

	mu     sync.Mutex
	buf    []domain.Event
	head   int
	size   int
	lagged uint64

	// ready holds at most one wake-up token; pushes never block on it.
	ready     chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

func newConsumer(capacity int) *Consumer {
	return &Consumer{
		id:    uuid.New(),
		buf:   make([]domain.Event, capacity),
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

func (c *Consumer) ID() uuid.UUID { return c.id }

// Ready is signalled after at least one push since the last wake-up.
// It may fire spuriously: always drain with TryNext.
func (c *Consumer) Ready() <-chan struct{} { return c.ready }

// Done is closed once the consumer has been unsubscribed.
func (c *Consumer) Done() <-chan struct{} { return c.done }

// push enqueues evt and returns true when an older event had to be evicted.
func (c *Consumer) push(evt domain.Event) bool {
	evicted := false
	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		return false
	default:
	}
	capacity := len(c.buf)
	if c.size == capacity {
		c.buf[c.head] = domain.Event{}
		c.head = (c.head + 1) % capacity
		c.size--
		c.lagged++
		evicted = true
	}
	c.buf[(c.head+c.size)%capacity] = evt
	c.size++
	c.mu.Unlock()

	select {
	case c.ready <- struct{}{}:
	default:
	}
	return evicted
}

// TryNext returns the next delivery without blocking.
// A pending lag notice is always returned before the events queued after it.
func (c *Consumer) TryNext() (Delivery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lagged > 0 {
		n := c.lagged
		c.lagged = 0
		return Delivery{Lagged: n}, true
	}
	if c.size == 0 {
		return Delivery{}, false
	}
	evt := c.buf[c.head]
	c.buf[c.head] = domain.Event{}
	c.head = (c.head + 1) % len(c.buf)
	c.size--
	return Delivery{Event: evt}, true
}

// Next blocks until a delivery is available, ctx is done or the consumer is closed.
// Events already queued are still returned after close; ErrConsumerClosed
// follows once the queue is empty.
func (c *Consumer) Next(ctx context.Context) (Delivery, error) {
	for {
		if d, ok := c.TryNext(); ok {
			return d, nil
		}
		select {
		case <-c.ready:
		case <-c.done:
			if d, ok := c.TryNext(); ok {
				return d, nil
			}
			return Delivery{}, errors.ErrConsumerClosed
		case <-ctx.Done():
			return Delivery{}, ctx.Err()
		}
	}
}

// Len reports how many events are waiting.
func (c *Consumer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Consumer) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.done)
		c.mu.Unlock()
	})
}
