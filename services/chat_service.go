//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/moderation"
)

type IChatService interface {
	PostMessage(ctx context.Context, room domain.RoomID, sender domain.Identity, content string) (domain.Message, error)
	SignalTyping(ctx context.Context, room domain.RoomID, userID string, isTyping bool) error
	PublishPresence(ctx context.Context, room domain.RoomID, userID, status string) error
	History(room domain.RoomID, cursor *string) ([]domain.Message, *string, error)
}

// ChatService sits between sessions and the storage/broadcast layers.
// It owns the one ordering rule that matters: a message event is only
// ever published after the message is durably appended.
type ChatService struct {
	log                *slog.Logger
	messages           contract.IMessageLog
	bus                contract.IBus
	filter             *moderation.Filter
	includeDisplayName bool

	publishRetries int
	publishBackoff time.Duration
}

func NewChatService(log *slog.Logger, messages contract.IMessageLog, bus contract.IBus,
	filter *moderation.Filter, includeDisplayName bool,
	publishRetries int, publishBackoff time.Duration) *ChatService {
	return &ChatService{
		log:                log,
		messages:           messages,
		bus:                bus,
		filter:             filter,
		includeDisplayName: includeDisplayName,
		publishRetries:     publishRetries,
		publishBackoff:     publishBackoff,
	}
}

// PostMessage moderates, persists and broadcasts a chat message.
// If the append fails, nothing is published: participants must never see
// a message that is not in the log. The persisted record is returned so
// the caller can report the assigned id.
func (s *ChatService) PostMessage(ctx context.Context, room domain.RoomID,
	sender domain.Identity, content string) (domain.Message, error) {
	if s.filter != nil {
		content = s.filter.Mask(content)
	}

	message, err := s.messages.Append(room, sender.UserID, content)
	if err != nil {
		return domain.Message{}, err
	}

	evt := event.MessagePosted{
		ID:       message.ID,
		Room:     int(message.Room),
		SenderID: message.SenderID,
		Content:  message.Content,
		At:       message.CreatedAt,
	}
	if s.includeDisplayName {
		evt.SenderName = sender.DisplayName
	}

	if err = s.publishWithRetry(ctx, room, evt); err != nil {
		// The message is durable, only real-time delivery failed. Readers
		// will see it through history.
		s.log.Error("Persisted message could not be broadcast",
			"room", int(room), "message_id", message.ID, "error", err)
	}
	return message, nil
}

// SignalTyping relays an ephemeral typing flag. It is never persisted.
func (s *ChatService) SignalTyping(ctx context.Context, room domain.RoomID,
	userID string, isTyping bool) error {
	return s.publishWithRetry(ctx, room, event.TypingSignaled{
		Room:     int(room),
		UserID:   userID,
		IsTyping: isTyping,
	})
}

// PublishPresence broadcasts a 0->1 or 1->0 connection-count edge.
func (s *ChatService) PublishPresence(ctx context.Context, room domain.RoomID,
	userID, status string) error {
	return s.publishWithRetry(ctx, room, event.PresenceChanged{
		Room:   int(room),
		UserID: userID,
		Status: status,
	})
}

func (s *ChatService) History(room domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	return s.messages.History(room, cursor)
}

// publishWithRetry retries transient broker failures a bounded number of
// times with a linearly growing backoff, then gives up.
func (s *ChatService) publishWithRetry(ctx context.Context, room domain.RoomID,
	evt event.DomainEvent) error {
	var err error
	for attempt := 0; attempt <= s.publishRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * s.publishBackoff):
			}
		}
		if err = s.bus.Publish(ctx, room, evt); err == nil {
			return nil
		}
	}
	return fmt.Errorf("publish after %d attempts: %w", s.publishRetries+1, err)
}
