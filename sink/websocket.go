package sink

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

// WebSocketTransport upgrades the request lazily in Begin, once the session's
// consumer is registered. Event and lag frames are text messages, keep-alives
// are ping control frames.
type WebSocketTransport struct {
	upgrader *websocket.Upgrader
	w        http.ResponseWriter
	r        *http.Request
	conn     *websocket.Conn
	// onClose is invoked when the read pump sees the peer go away.
	onClose context.CancelFunc
}

func NewWebSocketTransport(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, onClose context.CancelFunc) *WebSocketTransport {
	return &WebSocketTransport{upgrader: upgrader, w: w, r: r, onClose: onClose}
}

func (t *WebSocketTransport) Begin() error {
	conn, err := t.upgrader.Upgrade(t.w, t.r, nil)
	if err != nil {
		return err
	}
	t.conn = conn
	go t.readPump()
	return nil
}

// readPump discards client messages. Reading is required to process close
// and pong control frames; any read error means the client is gone.
func (t *WebSocketTransport) readPump() {
	for {
		if _, _, err := t.conn.ReadMessage(); err != nil {
			if t.onClose != nil {
				t.onClose()
			}
			return
		}
	}
}

func (t *WebSocketTransport) Send(frame Frame) error {
	deadline := time.Now().Add(wsWriteTimeout)
	if frame.Kind == FrameKeepAlive {
		return t.conn.WriteControl(websocket.PingMessage, nil, deadline)
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, frame.Data)
}

// Close sends a normal closure and releases the connection.
func (t *WebSocketTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return t.conn.Close()
}
