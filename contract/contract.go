//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"pairchat/domain"
	"pairchat/domain/event"
)

// ITokenVerifier validates an opaque bearer credential and extracts the
// authenticated identity. Verification is pure: no side effects.
type ITokenVerifier interface {
	Verify(credential string) (domain.Identity, error)
}

// IRoomStore answers membership questions. Membership is immutable for an
// existing room, so one check at admission is authoritative for the whole
// life of a connection.
type IRoomStore interface {
	GetRoom(id domain.RoomID) (domain.Room, error)
	IsParticipant(id domain.RoomID, identity string) (bool, error)
}

// IMessageLog is the durable, append-only, room-scoped record of chat
// messages. Append assigns the id and the server timestamp.
type IMessageLog interface {
	Append(room domain.RoomID, senderID, content string) (domain.Message, error)
	History(room domain.RoomID, cursor *string) ([]domain.Message, *string, error)
}

// ISubscription is a live attachment to one room topic of the bus.
type ISubscription interface {
	// Events delivers bus events in publish order for a single publisher.
	// The channel is closed by Close.
	Events() <-chan event.DomainEvent
	Close() error
}

// IBus is the cross-process fan-out mechanism, one topic per room.
// Safe for concurrent publish/subscribe from independent sessions.
type IBus interface {
	Publish(ctx context.Context, room domain.RoomID, evt event.DomainEvent) error
	Subscribe(ctx context.Context, room domain.RoomID) (ISubscription, error)
}

// IPresence tracks open-connection counts per (room, identity).
// Join and Leave are atomic with respect to the counter so that the
// online/offline edges are emitted exactly once.
type IPresence interface {
	Join(room domain.RoomID, identity string) int
	Leave(room domain.RoomID, identity string) int
	Online(room domain.RoomID) []string
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
