package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
)

// MemoryBus is the in-process backend. Delivery is per-subscriber
// buffered; a subscriber that cannot keep up loses events rather than
// blocking publishers, which matches the broker's at-least-once,
// best-effort contract.
type MemoryBus struct {
	mu          sync.RWMutex
	log         *slog.Logger
	bufferSize  int
	subscribers map[domain.RoomID]map[*memorySubscription]struct{}
}

func NewMemoryBus(log *slog.Logger, bufferSize int) *MemoryBus {
	return &MemoryBus{
		log:         log,
		bufferSize:  bufferSize,
		subscribers: make(map[domain.RoomID]map[*memorySubscription]struct{}),
	}
}

type memorySubscription struct {
	bus    *MemoryBus
	room   domain.RoomID
	events chan event.DomainEvent
	once   sync.Once
}

func (s *memorySubscription) Events() <-chan event.DomainEvent {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		s.bus.detach(s)
		close(s.events)
	})
	return nil
}

func (b *MemoryBus) Publish(_ context.Context, room domain.RoomID, evt event.DomainEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers[room] {
		select {
		case sub.events <- evt:
		default:
			b.log.Warn("Subscriber too slow, dropping event",
				"room", int(room), "event", fmt.Sprintf("%T", evt))
		}
	}
	return nil
}

func (b *MemoryBus) Subscribe(_ context.Context, room domain.RoomID) (contract.ISubscription, error) {
	sub := &memorySubscription{
		bus:    b,
		room:   room,
		events: make(chan event.DomainEvent, b.bufferSize),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[room]; !ok {
		b.subscribers[room] = make(map[*memorySubscription]struct{})
	}
	b.subscribers[room][sub] = struct{}{}
	return sub, nil
}

// detach removes a subscription and prunes empty topic entries so that
// abandoned rooms do not accumulate.
func (b *MemoryBus) detach(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[sub.room]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subscribers, sub.room)
		}
	}
}
