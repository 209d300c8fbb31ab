package runtime

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/errors"

	"github.com/stretchr/testify/require"
)

func event(id string) domain.Event {
	return domain.NewMessageEvent(domain.NewMessage(id, domain.Payload{
		EncryptedBlob: "QQ==",
		Nonce:         "Zm9v",
		SenderID:      "u1",
	}), time.Now())
}

func next(t *testing.T, c *Consumer) Delivery {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	d, err := c.Next(ctx)
	require.NoError(t, err)
	return d
}

func TestHub_Publish_Without_Consumers(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	// When publishing with nobody listening
	hub.Publish(event("m1"))

	// Then the event is silently dropped
	req.Equal(HubStats{Consumers: 0, Published: 1, Lagged: 0, Capacity: DefaultCapacity}, hub.Stats())
}

func TestHub_Delivers_To_All_Consumers_In_Order(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c1 := hub.Subscribe()
	c2 := hub.Subscribe()

	// When A then B are published
	hub.Publish(event("A"))
	hub.Publish(event("B"))

	// Then every consumer sees A before B
	for _, c := range []*Consumer{c1, c2} {
		req.Equal("A", next(t, c).Event.MessageID)
		req.Equal("B", next(t, c).Event.MessageID)
		_, ok := c.TryNext()
		req.False(ok)
	}
}

func TestHub_No_Retroactive_Delivery(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	early := hub.Subscribe()

	// Given m2 is published before the late consumer subscribes
	hub.Publish(event("m2"))
	late := hub.Subscribe()

	// When m3 is published afterwards
	hub.Publish(event("m3"))

	// Then the late consumer only sees m3
	req.Equal("m3", next(t, late).Event.MessageID)
	_, ok := late.TryNext()
	req.False(ok)

	req.Equal("m2", next(t, early).Event.MessageID)
	req.Equal("m3", next(t, early).Event.MessageID)
}

func TestHub_Overflow_Surfaces_Lag_Before_Resuming(t *testing.T) {
	req := require.New(t)
	hub := NewHub(WithCapacity(3))
	c := hub.Subscribe()

	// Given a consumer that reads nothing while 5 events are published
	for i := 1; i <= 5; i++ {
		hub.Publish(event(fmt.Sprintf("m%d", i)))
	}

	// Then its next read is the lag marker for the 2 oldest events
	d := next(t, c)
	req.True(d.IsLagged())
	req.Equal(uint64(2), d.Lagged)

	// And delivery resumes with the most recent events, in order
	req.Equal("m3", next(t, c).Event.MessageID)
	req.Equal("m4", next(t, c).Event.MessageID)
	req.Equal("m5", next(t, c).Event.MessageID)
	req.Equal(uint64(2), hub.Stats().Lagged)
}

func TestHub_Slow_Consumer_Does_Not_Affect_Others(t *testing.T) {
	req := require.New(t)
	hub := NewHub(WithCapacity(2))
	slow := hub.Subscribe()
	fast := hub.Subscribe()

	for i := 1; i <= 4; i++ {
		hub.Publish(event(fmt.Sprintf("m%d", i)))
		req.Equal(fmt.Sprintf("m%d", i), next(t, fast).Event.MessageID)
	}

	req.True(next(t, slow).IsLagged())
	req.Equal("m3", next(t, slow).Event.MessageID)
}

func TestHub_Unsubscribe_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c := hub.Subscribe()
	req.Equal(1, hub.Stats().Consumers)

	hub.Unsubscribe(c)
	hub.Unsubscribe(c)
	hub.Unsubscribe(nil)

	// Then later publishes ignore it
	hub.Publish(event("m1"))
	req.Equal(0, hub.Stats().Consumers)
	req.Equal(0, c.Len())

	_, err := c.Next(context.Background())
	req.ErrorIs(err, errors.ErrConsumerClosed)

	select {
	case <-c.Done():
	default:
		req.Fail("consumer should be closed")
	}
}

func TestHub_Next_Wakes_On_Publish(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c := hub.Subscribe()

	got := make(chan Delivery, 1)
	go func() {
		d, err := c.Next(context.Background())
		if err == nil {
			got <- d
		}
	}()

	time.Sleep(20 * time.Millisecond)
	hub.Publish(event("m1"))

	select {
	case d := <-got:
		req.Equal("m1", d.Event.MessageID)
	case <-time.After(time.Second):
		req.Fail("Next did not wake up")
	}
}

func TestHub_Next_Honours_Context(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c := hub.Subscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Next(ctx)
	req.ErrorIs(err, context.DeadlineExceeded)
}

func TestHub_Concurrent_Publishers_Keep_One_Order(t *testing.T) {
	req := require.New(t)
	const publishers, perPublisher = 4, 50
	hub := NewHub(WithCapacity(publishers * perPublisher))
	c1 := hub.Subscribe()
	c2 := hub.Subscribe()

	var wg sync.WaitGroup
	for p := 0; p < publishers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPublisher; i++ {
				hub.Publish(event(fmt.Sprintf("p%d-%d", p, i)))
			}
		}(p)
	}
	wg.Wait()

	// Then both consumers observed the exact same sequence
	var seq1, seq2 []string
	for {
		d, ok := c1.TryNext()
		if !ok {
			break
		}
		seq1 = append(seq1, d.Event.MessageID)
	}
	for {
		d, ok := c2.TryNext()
		if !ok {
			break
		}
		seq2 = append(seq2, d.Event.MessageID)
	}
	req.Len(seq1, publishers*perPublisher)
	req.Equal(seq1, seq2)
}

func TestHub_Close_Releases_Consumers(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	c := hub.Subscribe()

	hub.Close()

	req.Equal(0, hub.Stats().Consumers)
	_, err := c.Next(context.Background())
	req.ErrorIs(err, errors.ErrConsumerClosed)
}

func TestHub_Subscribe_After_Close(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	hub.Close()

	c := hub.Subscribe()

	req.Equal(0, hub.Stats().Consumers)
	select {
	case <-c.Done():
	default:
		req.Fail("consumer should be closed")
	}
}
