// Package domain contains core concepts of the chat gateway.
// This file defines Message records and related rules.
// Messages are immutable once persisted.
package domain

import "time"

// Message represents an immutable, durably recorded chat event.
// ID is system-wide monotonic and CreatedAt is assigned by the log at
// persistence time, never taken from the client.
type Message struct {
	ID        uint64
	Room      RoomID
	SenderID  string
	Content   string
	CreatedAt time.Time
}
