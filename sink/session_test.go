package sink

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Tropical8818/iProTalk/domain"
	"github.com/Tropical8818/iProTalk/errors"
	"github.com/Tropical8818/iProTalk/runtime"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type recordingTransport struct {
	mu       sync.Mutex
	sent     chan Frame
	beginErr error
	failOn   *FrameKind
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{sent: make(chan Frame, 64)}
}

func (r *recordingTransport) Begin() error { return r.beginErr }

func (r *recordingTransport) Send(frame Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOn != nil && *r.failOn == frame.Kind {
		return stderrors.New("broken pipe")
	}
	r.sent <- frame
	return nil
}

func (r *recordingTransport) next(t *testing.T) Frame {
	t.Helper()
	select {
	case f := <-r.sent:
		return f
	case <-time.After(time.Second):
		require.FailNow(t, "no frame received")
		return Frame{}
	}
}

func testEvent(id string, at time.Time) domain.Event {
	return domain.NewMessageEvent(domain.NewMessage(id, domain.Payload{
		EncryptedBlob: "QQ==",
		Nonce:         "Zm9v",
		SenderID:      "u1",
	}), at)
}

func runSession(session *Session) (context.CancelFunc, <-chan error) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()
	return cancel, done
}

func TestSession_Pushes_Serialized_Events(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := runtime.NewHub()
	transport := newRecordingTransport()

	// Given an open session
	session := Open(log, hub, transport, time.Minute)
	req.Equal(1, hub.Stats().Consumers)
	cancel, done := runSession(session)

	// When an event is published
	at := time.Now()
	hub.Publish(testEvent("m2", at))

	// Then the client receives it as a JSON event frame
	frame := transport.next(t)
	req.Equal(FrameEvent, frame.Kind)
	var wire WireEvent
	req.NoError(json.Unmarshal(frame.Data, &wire))
	req.Equal(domain.EventNewMessage, wire.EventType)
	req.Equal("m2", wire.MessageID)
	req.Equal("QQ==", wire.Payload.EncryptedBlob)
	req.Equal("Zm9v", wire.Payload.Nonce)
	req.Equal("u1", wire.Payload.SenderID)
	req.Equal(at.Unix(), wire.Timestamp)

	// When the client goes away
	cancel()

	// Then the session ends cleanly and frees its consumer
	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("session did not stop")
	}
	req.Equal(0, hub.Stats().Consumers)
}

func TestSession_Lag_Marker_Then_Resume(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := runtime.NewHub(runtime.WithCapacity(2))
	transport := newRecordingTransport()

	// Given a session whose consumer overflowed before it started reading
	session := Open(log, hub, transport, time.Minute)
	for _, id := range []string{"m1", "m2", "m3", "m4"} {
		hub.Publish(testEvent(id, time.Now()))
	}
	cancel, done := runSession(session)
	defer cancel()

	// Then the first frame is the lag marker
	frame := transport.next(t)
	req.Equal(FrameLagged, frame.Kind)
	var marker LagMarker
	req.NoError(json.Unmarshal(frame.Data, &marker))
	req.True(IsLagMarker(marker))
	req.Equal(uint64(2), marker.Dropped)

	// And the session keeps going with the retained events
	for _, id := range []string{"m3", "m4"} {
		frame = transport.next(t)
		req.Equal(FrameEvent, frame.Kind)
		var wire WireEvent
		req.NoError(json.Unmarshal(frame.Data, &wire))
		req.Equal(id, wire.MessageID)
	}

	cancel()
	req.NoError(<-done)
}

func TestSession_Keep_Alive_When_Idle(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := runtime.NewHub()
	transport := newRecordingTransport()

	session := Open(log, hub, transport, 10*time.Millisecond)
	cancel, done := runSession(session)

	// Then keep-alive frames flow without any traffic
	req.Equal(FrameKeepAlive, transport.next(t).Kind)
	req.Equal(FrameKeepAlive, transport.next(t).Kind)

	cancel()
	req.NoError(<-done)
}

func TestSession_Write_Error_Ends_Session(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := runtime.NewHub()
	transport := newRecordingTransport()
	kind := FrameEvent
	transport.failOn = &kind

	session := Open(log, hub, transport, time.Minute)
	_, done := runSession(session)

	// When pushing an event fails
	hub.Publish(testEvent("m1", time.Now()))

	// Then the session reports a closed transport and releases its consumer
	select {
	case err := <-done:
		req.ErrorIs(err, errors.ErrTransportClosed)
	case <-time.After(time.Second):
		req.Fail("session did not stop")
	}
	req.Equal(0, hub.Stats().Consumers)
}

func TestSession_Begin_Error_Releases_Consumer(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := runtime.NewHub()
	transport := newRecordingTransport()
	transport.beginErr = stderrors.New("upgrade refused")

	session := Open(log, hub, transport, time.Minute)
	err := session.Run(context.Background())

	req.ErrorIs(err, errors.ErrTransportClosed)
	req.Equal(0, hub.Stats().Consumers)
}

func TestSession_Ends_When_Hub_Closes(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	hub := runtime.NewHub()
	transport := newRecordingTransport()

	session := Open(log, hub, transport, time.Minute)
	cancel, done := runSession(session)
	defer cancel()

	hub.Close()

	select {
	case err := <-done:
		req.NoError(err)
	case <-time.After(time.Second):
		req.Fail("session did not stop")
	}
}

func TestSSETransport_Frames(t *testing.T) {
	req := require.New(t)
	recorder := httptest.NewRecorder()
	transport := NewSSETransport(recorder)

	req.NoError(transport.Begin())
	req.NoError(transport.Send(Frame{Kind: FrameEvent, Data: []byte(`{"event_type":"new_message"}`)}))
	req.NoError(transport.Send(Frame{Kind: FrameKeepAlive}))
	req.NoError(transport.Send(Frame{Kind: FrameLagged, Data: []byte(`{"error":"lagged","dropped":3}`)}))

	req.Equal("text/event-stream", recorder.Header().Get("Content-Type"))
	req.Equal("no-cache", recorder.Header().Get("Cache-Control"))
	req.True(recorder.Flushed)
	req.Equal(
		"data: {\"event_type\":\"new_message\"}\n\n"+
			": keep-alive\n\n"+
			"data: {\"error\":\"lagged\",\"dropped\":3}\n\n",
		recorder.Body.String())
}
