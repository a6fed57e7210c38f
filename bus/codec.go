// Package bus implements the room-addressed fan-out mechanism.
//
// Two backends exist behind the same contract: an in-process one for
// single-process deployments and tests, and a NATS one for deployments
// where sessions are spread across several gateway processes. Receivers
// must tolerate duplicates; the message log is the durable source of truth.
package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"pairchat/domain/event"
)

const (
	kindMessage  = "message"
	kindTyping   = "typing"
	kindPresence = "presence"
)

// envelope is the wire form shared by backends that cross a process
// boundary. The type discriminator selects the payload shape.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type messagePayload struct {
	ID         uint64    `json:"id"`
	Room       int       `json:"room"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name,omitempty"`
	Content    string    `json:"content"`
	At         time.Time `json:"at"`
}

type typingPayload struct {
	Room     int    `json:"room"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type presencePayload struct {
	Room   int    `json:"room"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

// Encode serializes a domain event into the broker envelope.
func Encode(evt event.DomainEvent) ([]byte, error) {
	var kind string
	var payload any
	switch e := evt.(type) {
	case event.MessagePosted:
		kind = kindMessage
		payload = messagePayload{
			ID: e.ID, Room: e.Room, SenderID: e.SenderID,
			SenderName: e.SenderName, Content: e.Content, At: e.At,
		}
	case event.TypingSignaled:
		kind = kindTyping
		payload = typingPayload{Room: e.Room, UserID: e.UserID, IsTyping: e.IsTyping}
	case event.PresenceChanged:
		kind = kindPresence
		payload = presencePayload{Room: e.Room, UserID: e.UserID, Status: e.Status}
	default:
		return nil, fmt.Errorf("unknown event type %T", evt)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: kind, Payload: raw})
}

// Decode turns a broker envelope back into a domain event.
func Decode(data []byte) (event.DomainEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}

	switch env.Kind {
	case kindMessage:
		var p messagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.MessagePosted{
			ID: p.ID, Room: p.Room, SenderID: p.SenderID,
			SenderName: p.SenderName, Content: p.Content, At: p.At,
		}, nil
	case kindTyping:
		var p typingPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.TypingSignaled{Room: p.Room, UserID: p.UserID, IsTyping: p.IsTyping}, nil
	case kindPresence:
		var p presencePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, err
		}
		return event.PresenceChanged{Room: p.Room, UserID: p.UserID, Status: p.Status}, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}
}
