package sink

import (
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const sseWriteTimeout = 10 * time.Second

// SSETransport writes frames as a text/event-stream response.
type SSETransport struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func NewSSETransport(w http.ResponseWriter) *SSETransport {
	return &SSETransport{w: w, rc: http.NewResponseController(w)}
}

// Begin sends the stream headers so the client sees the connection as open.
func (t *SSETransport) Begin() error {
	header := t.w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	t.w.WriteHeader(http.StatusOK)
	return t.flush()
}

func (t *SSETransport) Send(frame Frame) error {
	if err := t.rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil && !stderrors.Is(err, http.ErrNotSupported) {
		return err
	}
	var err error
	switch frame.Kind {
	case FrameKeepAlive:
		_, err = io.WriteString(t.w, ": keep-alive\n\n")
	default:
		_, err = fmt.Fprintf(t.w, "data: %s\n\n", frame.Data)
	}
	if err != nil {
		return err
	}
	return t.flush()
}

func (t *SSETransport) flush() error {
	if err := t.rc.Flush(); err != nil && !stderrors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}
