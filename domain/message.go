// Package domain contains core concepts of the relay.
// Messages are opaque ciphertext envelopes: the relay stores and forwards them
// but never looks inside EncryptedBlob or Nonce.
package domain

import (
	"time"
)

// EventType discriminates the events pushed on the live stream.
type EventType string

const EventNewMessage EventType = "new_message"

// Payload is what a client submits. Blob and nonce are base64 text.
type Payload struct {
	EncryptedBlob string  `json:"encrypted_blob" validate:"required,base64"`
	Nonce         string  `json:"nonce" validate:"required,base64"`
	SenderID      string  `json:"sender_id" validate:"required,max=128"`
	GroupID       *string `json:"group_id" validate:"omitempty,max=128"`
	RecipientID   *string `json:"recipient_id" validate:"omitempty,max=128"`
}

// Message represents an immutable, durably recorded payload.
type Message struct {
	ID string `json:"id"`
	Payload
}

// NewMessage binds a payload to its relay-assigned id.
func NewMessage(id string, payload Payload) Message {
	return Message{ID: id, Payload: payload}
}

// Event is the transient, in-memory notification derived from a Message.
// It is never persisted: the Message is the durable record.
type Event struct {
	Type      EventType
	MessageID string
	Payload   Payload
	At        time.Time
}

// NewMessageEvent builds the event published after msg has been appended.
func NewMessageEvent(msg Message, at time.Time) Event {
	return Event{
		Type:      EventNewMessage,
		MessageID: msg.ID,
		Payload:   msg.Payload,
		At:        at,
	}
}
