//go:generate go run go.uber.org/mock/mockgen -source=relay_service.go -destination=../mocks/mock_relay_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Tropical8818/iProTalk/auth"
	"github.com/Tropical8818/iProTalk/contract"
	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/errors"
	"github.com/Tropical8818/iProTalk/repositories"
	"github.com/Tropical8818/iProTalk/sink"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Authenticator validates a bearer credential (signature and expiry) and
// returns the identity behind it, or an error wrapping errors.ErrUnauthorized.
type Authenticator interface {
	ValidateCredential(token string) (auth.Principal, error)
}

type IRelayService interface {
	Submit(ctx context.Context, credential string, payload domain.Payload) (string, error)
	Subscribe(ctx context.Context, credential string, transport sink.Transport) (*sink.Session, error)
	GetMessage(ctx context.Context, credential, id string) (domain.Message, error)
}

// RelayService is the single entry point for submitting and streaming messages.
// It owns nothing global: the hub and the log are injected.
type RelayService struct {
	log        *slog.Logger
	auth       Authenticator
	repository repositories.IMessageRepository
	hub        contract.IHub
	validate   *validator.Validate
	keepAlive  time.Duration
	now        func() time.Time
}

func NewRelayService(log *slog.Logger, authenticator Authenticator,
	repository repositories.IMessageRepository, hub contract.IHub, keepAlive time.Duration) *RelayService {
	return &RelayService{
		log:        log,
		auth:       authenticator,
		repository: repository,
		hub:        hub,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		keepAlive:  keepAlive,
		now:        time.Now,
	}
}

// Submit records a message and announces it to live subscribers.
// Order matters: nothing is stored for an unauthenticated or malformed request,
// and nothing is published unless the append succeeded. Once the append
// succeeded the call succeeds, whatever happens to the broadcast.
func (s *RelayService) Submit(_ context.Context, credential string, payload domain.Payload) (string, error) {
	principal, err := s.auth.ValidateCredential(credential)
	if err != nil {
		return "", err
	}
	if err := s.validate.Struct(payload); err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err)
	}
	if principal.UserID != payload.SenderID {
		// sender_id is informational, authenticity is the client's concern
		s.log.Debug("Sender differs from authenticated user", "user_id", principal.UserID, "sender_id", payload.SenderID)
	}

	message := domain.NewMessage(uuid.NewString(), payload)
	if err := s.repository.Append(message); err != nil {
		s.log.Error("Failed to append message", "message_id", message.ID, "error", err)
		return "", err
	}

	s.hub.Publish(domain.NewMessageEvent(message, s.now()))
	s.log.Debug("Message relayed", "message_id", message.ID, "sender_id", payload.SenderID)
	return message.ID, nil
}

// Subscribe authenticates the caller and opens a live session on transport.
// The returned session is already registered on the hub; the caller runs it.
func (s *RelayService) Subscribe(_ context.Context, credential string, transport sink.Transport) (*sink.Session, error) {
	principal, err := s.auth.ValidateCredential(credential)
	if err != nil {
		return nil, err
	}
	session := sink.Open(s.log.With("user_id", principal.UserID), s.hub, transport, s.keepAlive)
	return session, nil
}

// GetMessage is an authenticated point lookup in the durable log.
func (s *RelayService) GetMessage(_ context.Context, credential, id string) (domain.Message, error) {
	if _, err := s.auth.ValidateCredential(credential); err != nil {
		return domain.Message{}, err
	}
	return s.repository.Get(id)
}
