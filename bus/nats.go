package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
	apperrors "pairchat/errors"
)

// NatsBus is the cross-process backend. One subject per room keeps the
// per-topic single-publisher ordering guarantee: NATS delivers messages
// from one connection to one subject in publish order.
type NatsBus struct {
	nc         *nats.Conn
	log        *slog.Logger
	bufferSize int
}

// Connect dials the broker with bounded reconnection. A connection loss
// shorter than maxReconnects*reconnectWait heals transparently; past
// that the closed handler fires and sessions fail closed.
func Connect(url, name string, maxReconnects int, reconnectWait time.Duration) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrBrokerUnavailable, err)
	}
	return nc, nil
}

func NewNatsBus(nc *nats.Conn, log *slog.Logger, bufferSize int) *NatsBus {
	return &NatsBus{nc: nc, log: log, bufferSize: bufferSize}
}

func subjectForRoom(room domain.RoomID) string {
	return fmt.Sprintf("room.%d.events", room)
}

func (b *NatsBus) Publish(_ context.Context, room domain.RoomID, evt event.DomainEvent) error {
	data, err := Encode(evt)
	if err != nil {
		return err
	}
	if err = b.nc.Publish(subjectForRoom(room), data); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrBrokerUnavailable, err)
	}
	return nil
}

type natsSubscription struct {
	sub    *nats.Subscription
	log    *slog.Logger
	mu     sync.Mutex
	closed bool
	events chan event.DomainEvent
}

func (s *natsSubscription) Events() <-chan event.DomainEvent {
	return s.events
}

// deliver hands the event to the session channel. The closed flag is
// checked under the same lock Close takes, so a handler invocation that
// races teardown can never send on a closed channel.
func (s *natsSubscription) deliver(subject string, evt event.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- evt:
	default:
		s.log.Warn("Subscriber too slow, dropping event", "subject", subject)
	}
}

func (s *natsSubscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.events)
	s.mu.Unlock()
	return s.sub.Unsubscribe()
}

// Subscribe attaches to the room subject. A session that receives
// ErrBrokerUnavailable here must reject the connection attempt rather
// than fall back to process-local delivery, which would split the room.
func (b *NatsBus) Subscribe(_ context.Context, room domain.RoomID) (contract.ISubscription, error) {
	out := &natsSubscription{
		log:    b.log,
		events: make(chan event.DomainEvent, b.bufferSize),
	}

	sub, err := b.nc.Subscribe(subjectForRoom(room), func(msg *nats.Msg) {
		evt, err := Decode(msg.Data)
		if err != nil {
			b.log.Warn("Dropping undecodable broker payload",
				"subject", msg.Subject, "error", err)
			return
		}
		out.deliver(msg.Subject, evt)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrBrokerUnavailable, err)
	}

	out.sub = sub
	return out, nil
}
