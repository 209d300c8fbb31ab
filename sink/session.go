package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tropical8818/iProTalk/contract"
	"github.com/Tropical8818/iProTalk/errors"
	"github.com/Tropical8818/iProTalk/runtime"
)

// DefaultKeepAlive is how often an idle stream receives a keep-alive frame.
const DefaultKeepAlive = 10 * time.Second

// Transport is the client-facing side of a Session.
// Begin is called once before the first frame, Send is never called concurrently.
type Transport interface {
	Begin() error
	Send(frame Frame) error
}

// Session adapts one Hub consumer into a push stream for one client.
type Session struct {
	log       *slog.Logger
	hub       contract.IHub
	consumer  *runtime.Consumer
	transport Transport
	keepAlive time.Duration
}

// Open subscribes to the hub right away, so the client is registered before
// its response is started. The caller must eventually call Run or Close.
func Open(log *slog.Logger, hub contract.IHub, transport Transport, keepAlive time.Duration) *Session {
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	consumer := hub.Subscribe()
	return &Session{
		log:       log.With("consumer_id", consumer.ID().String()),
		hub:       hub,
		consumer:  consumer,
		transport: transport,
		keepAlive: keepAlive,
	}
}

func (s *Session) Consumer() *runtime.Consumer { return s.consumer }

// Run pushes frames until ctx is cancelled, the hub closes the consumer or a
// write fails. A client going away is not an error and returns nil.
// The consumer is always released on return.
func (s *Session) Run(ctx context.Context) error {
	defer s.Close()

	if err := s.transport.Begin(); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransportClosed, err)
	}
	s.log.Debug("Session opened")

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		for {
			if ctx.Err() != nil {
				break
			}
			delivery, ok := s.consumer.TryNext()
			if !ok {
				break
			}
			if err := s.deliver(delivery); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			s.log.Debug("Client disconnected")
			return nil
		case <-s.consumer.Done():
			s.log.Debug("Consumer closed by hub")
			return nil
		case <-s.consumer.Ready():
		case <-ticker.C:
			if err := s.transport.Send(Frame{Kind: FrameKeepAlive}); err != nil {
				return s.writeFailed(FrameKeepAlive, err)
			}
		}
	}
}

func (s *Session) deliver(delivery runtime.Delivery) error {
	if delivery.IsLagged() {
		s.log.Warn("Subscriber lagged, events dropped", "dropped", delivery.Lagged)
		data, err := MarshalLagMarker(delivery.Lagged)
		if err != nil {
			return err
		}
		if err := s.transport.Send(Frame{Kind: FrameLagged, Data: data}); err != nil {
			return s.writeFailed(FrameLagged, err)
		}
		return nil
	}

	data, err := MarshalEvent(delivery.Event)
	if err != nil {
		s.log.Error("Failed to marshal event", "message_id", delivery.Event.MessageID, "error", err)
		return nil
	}
	if err := s.transport.Send(Frame{Kind: FrameEvent, Data: data}); err != nil {
		return s.writeFailed(FrameEvent, err)
	}
	return nil
}

func (s *Session) writeFailed(kind FrameKind, err error) error {
	s.log.Warn("Failed to push frame", "frame", kind.String(), "error", err)
	return fmt.Errorf("%w: %v", errors.ErrTransportClosed, err)
}

// Close releases the hub consumer. Safe to call more than once.
func (s *Session) Close() {
	s.hub.Unsubscribe(s.consumer)
}
