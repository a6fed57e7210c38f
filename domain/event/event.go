package event

import (
	"time"

	"pairchat/domain"
)

type DomainEvent interface {
	RoomID() domain.RoomID
}

// MessagePosted carries a message that has already been persisted.
// It is only ever published after a successful append to the log.
type MessagePosted struct {
	ID         uint64
	Room       int
	SenderID   string
	SenderName string
	Content    string
	At         time.Time
}

func (m MessagePosted) RoomID() domain.RoomID {
	return domain.RoomID(m.Room)
}

// TypingSignaled is ephemeral: relayed to subscribers, never stored.
type TypingSignaled struct {
	Room     int
	UserID   string
	IsTyping bool
}

func (t TypingSignaled) RoomID() domain.RoomID {
	return domain.RoomID(t.Room)
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// PresenceChanged marks a 0->1 or 1->0 edge of an identity's open
// connection count in a room.
type PresenceChanged struct {
	Room   int
	UserID string
	Status string
}

func (p PresenceChanged) RoomID() domain.RoomID {
	return domain.RoomID(p.Room)
}
