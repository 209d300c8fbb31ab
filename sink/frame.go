package sink

import (
	"encoding/json"

	"github.com/Tropical8818/iProTalk/domain"
)

type FrameKind int

const (
	FrameEvent FrameKind = iota
	FrameLagged
	FrameKeepAlive
)

func (k FrameKind) String() string {
	switch k {
	case FrameEvent:
		return "event"
	case FrameLagged:
		return "lagged"
	case FrameKeepAlive:
		return "keep-alive"
	default:
		return "unknown"
	}
}

// Frame is one unit pushed to a client. Keep-alive frames carry no data.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// WireEvent is the JSON shape of an event frame.
type WireEvent struct {
	EventType domain.EventType `json:"event_type"`
	MessageID string           `json:"message_id"`
	Payload   domain.Payload   `json:"payload"`
	Timestamp int64            `json:"timestamp"`
}

// LagMarker is the JSON shape of the overflow frame.
type LagMarker struct {
	Error   string `json:"error"`
	Dropped uint64 `json:"dropped"`
}

const lagMarkerError = "lagged"

func IsLagMarker(m LagMarker) bool { return m.Error == lagMarkerError }

func MarshalEvent(evt domain.Event) ([]byte, error) {
	return json.Marshal(WireEvent{
		EventType: evt.Type,
		MessageID: evt.MessageID,
		Payload:   evt.Payload,
		Timestamp: evt.At.Unix(),
	})
}

func MarshalLagMarker(dropped uint64) ([]byte, error) {
	return json.Marshal(LagMarker{Error: lagMarkerError, Dropped: dropped})
}
