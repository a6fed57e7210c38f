package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"pairchat/domain/event"
	apperrors "pairchat/errors"
)

var validate = validator.New()

// inboundFrame is the client-to-server wire shape, discriminated by type.
// Parsing is tolerant: anything that does not validate is dropped by the
// session, it never closes the connection.
type inboundFrame struct {
	Type     string `json:"type" validate:"required,oneof=message typing"`
	Content  string `json:"content" validate:"required_if=Type message"`
	IsTyping *bool  `json:"is_typing" validate:"required_if=Type typing"`
}

func parseInbound(data []byte, maxContentLength int) (inboundFrame, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return inboundFrame{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedFrame, err)
	}
	if err := validate.Struct(frame); err != nil {
		return inboundFrame{}, fmt.Errorf("%w: %v", apperrors.ErrMalformedFrame, err)
	}
	if frame.Type == frameTypeMessage && len(frame.Content) > maxContentLength {
		return inboundFrame{}, fmt.Errorf("%w: content exceeds %d bytes",
			apperrors.ErrMalformedFrame, maxContentLength)
	}
	return frame, nil
}

const (
	frameTypeMessage  = "message"
	frameTypeTyping   = "typing"
	frameTypePresence = "presence"
	frameTypeError    = "error"
)

// messageFrame is the broadcast shape of a persisted message. It carries
// no type discriminator: clients recognize it by the numeric id field.
type messageFrame struct {
	ID         uint64 `json:"id"`
	Room       int    `json:"room"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name,omitempty"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
}

type typingFrame struct {
	Type     string `json:"type"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type presenceFrame struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// serializeEvent renders a bus event into its outbound wire form.
func serializeEvent(evt event.DomainEvent) ([]byte, error) {
	switch e := evt.(type) {
	case event.MessagePosted:
		return json.Marshal(messageFrame{
			ID:         e.ID,
			Room:       e.Room,
			SenderID:   e.SenderID,
			SenderName: e.SenderName,
			Content:    e.Content,
			Timestamp:  e.At.Format(time.RFC3339Nano),
		})
	case event.TypingSignaled:
		return json.Marshal(typingFrame{
			Type:     frameTypeTyping,
			UserID:   e.UserID,
			IsTyping: e.IsTyping,
		})
	case event.PresenceChanged:
		return json.Marshal(presenceFrame{
			Type:   frameTypePresence,
			UserID: e.UserID,
			Status: e.Status,
		})
	default:
		return nil, fmt.Errorf("unknown event type %T", evt)
	}
}
