// Package domain contains core concepts of the chat gateway.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"fmt"
	"time"
)

type RoomID int

// Room is a two-party conversation context. Membership is fixed at creation
// and a room is uniquely identified by its unordered participant pair.
type Room struct {
	ID           RoomID
	ParticipantA string
	ParticipantB string
	CreatedAt    time.Time
}

func NewRoom(id RoomID, a, b string, createdAt time.Time) (Room, error) {
	if a == "" || b == "" || a == b {
		return Room{}, fmt.Errorf("room requires two distinct participants, got %q and %q", a, b)
	}
	return Room{ID: id, ParticipantA: a, ParticipantB: b, CreatedAt: createdAt}, nil
}

// Has reports whether identity is one of the two participants.
func (r Room) Has(identity string) bool {
	return identity == r.ParticipantA || identity == r.ParticipantB
}

// Peer returns the other participant of the pair.
func (r Room) Peer(identity string) string {
	if identity == r.ParticipantA {
		return r.ParticipantB
	}
	return r.ParticipantA
}

// PairKey returns the order-independent key of a participant pair,
// used by the store to deduplicate room creation.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}
