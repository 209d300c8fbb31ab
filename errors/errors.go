package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Relay
	ErrUnauthorized    = fmt.Errorf("unauthorized")
	ErrStorage         = fmt.Errorf("storage error")
	ErrInvalidPayload  = fmt.Errorf("invalid message payload")
	ErrMessageNotFound = fmt.Errorf("message not found")
	ErrOverflow        = fmt.Errorf("subscriber lagged behind")
	ErrTransportClosed = fmt.Errorf("transport closed")
	ErrConsumerClosed  = fmt.Errorf("consumer closed")

	// Accounts
	ErrUserAlreadyExists  = fmt.Errorf("email already exists")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity requirements")
	ErrInvalidRequest     = fmt.Errorf("invalid request")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")

	// Key directory
	ErrKeysNotFound = fmt.Errorf("keys not found for user")
)

// HTTPStatus maps a domain error to the status code returned to HTTP clients.
// Unknown errors are reported as internal errors so storage details never leak as 4xx.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrUnauthorized), stderrors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case stderrors.Is(err, ErrInvalidPayload),
		stderrors.Is(err, ErrInvalidPassword),
		stderrors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrMessageNotFound), stderrors.Is(err, ErrKeysNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrUserAlreadyExists):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show to a client for err.
func PublicMessage(err error) string {
	if HTTPStatus(err) == http.StatusInternalServerError {
		return "internal server error"
	}
	return err.Error()
}
