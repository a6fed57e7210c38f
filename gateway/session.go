package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pairchat/contract"
	"pairchat/domain"
	"pairchat/domain/event"
	"pairchat/services"
)

// State is the lifecycle position of a connection session.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticating
	StateAuthorizing
	StateSubscribed
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthorizing:
		return "authorizing"
	case StateSubscribed:
		return "subscribed"
	case StateClosing:
		return "closing"
	default:
		return "closed"
	}
}

// SessionConfig groups the per-connection tunables.
type SessionConfig struct {
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	ReadLimit        int64
	MaxContentLength int
}

// Session owns a single client connection: inbound decoding, outbound
// delivery, presence registration and teardown. Two goroutines run per
// session, one per direction; teardown runs exactly once no matter which
// direction fails first.
type Session struct {
	id       string
	identity domain.Identity
	room     domain.RoomID

	conn     *websocket.Conn
	sub      contract.ISubscription
	chat     services.IChatService
	presence contract.IPresence
	log      *slog.Logger
	cfg      SessionConfig

	state     atomic.Int32
	closeOnce sync.Once
	done      chan struct{}
	writeMu   sync.Mutex
	onClose   func(*Session)

	// presenceMu pairs the Join in run with the closing flag: a teardown
	// that wins the race marks closing before run joins, so the counter
	// never moves for a session that is already going away.
	presenceMu sync.Mutex
	joined     bool
	closing    bool
}

func newSession(id string, identity domain.Identity, room domain.RoomID,
	conn *websocket.Conn, sub contract.ISubscription, chat services.IChatService,
	presence contract.IPresence, log *slog.Logger, cfg SessionConfig,
	onClose func(*Session)) *Session {
	s := &Session{
		id:       id,
		identity: identity,
		room:     room,
		conn:     conn,
		sub:      sub,
		chat:     chat,
		presence: presence,
		cfg:      cfg,
		done:     make(chan struct{}),
		onClose:  onClose,
		log: log.With("session_id", id, "user_id", identity.UserID,
			"room", int(room)),
	}
	s.state.Store(int32(StateSubscribed))
	return s
}

// State returns the current lifecycle position.
func (s *Session) State() State {
	return State(s.state.Load())
}

// run registers presence, publishes the online edge if this is the
// identity's first connection to the room, then drives both pumps. It
// blocks until the session is closed. If teardown already started, it
// returns without joining or pumping.
func (s *Session) run() {
	if !s.joinPresence() {
		return
	}

	go s.writePump()
	s.readPump()
}

// joinPresence registers the identity unless the session is already
// closing. The dispatcher tracks the session before run starts, so a
// shutdown can reach Shutdown first; joining after that would leak a
// presence count with nothing left to undo it.
func (s *Session) joinPresence() bool {
	s.presenceMu.Lock()
	defer s.presenceMu.Unlock()
	if s.closing {
		return false
	}
	s.joined = true
	if count := s.presence.Join(s.room, s.identity.UserID); count == 1 {
		s.publishPresence(event.StatusOnline)
	}
	return true
}

// readPump processes inbound frames strictly in receipt order. A frame
// that does not parse is dropped with a warning; the best-effort channel
// stays open. The pump exits on transport close or error.
func (s *Session) readPump() {
	defer s.close("inbound flow ended")

	s.conn.SetReadLimit(s.cfg.ReadLimit)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.readWait()))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.readWait()))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("Transport read failed", "error", err)
			}
			return
		}
		s.handleFrame(data)
	}
}

func (s *Session) handleFrame(data []byte) {
	frame, err := parseInbound(data, s.cfg.MaxContentLength)
	if err != nil {
		s.log.Warn("Dropping malformed frame", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	switch frame.Type {
	case frameTypeMessage:
		if _, err := s.chat.PostMessage(ctx, s.room, s.identity, frame.Content); err != nil {
			s.log.Error("Message rejected by the log", "error", err)
			s.sendErrorFrame("message_not_saved")
		}
	case frameTypeTyping:
		if err := s.chat.SignalTyping(ctx, s.room, s.identity.UserID, *frame.IsTyping); err != nil {
			s.log.Warn("Typing signal lost", "error", err)
		}
	}
}

// writePump serializes every bus-delivered event to the client, including
// events this session published itself. It also owns the keepalive pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	defer s.close("outbound flow ended")

	for {
		select {
		case <-s.done:
			return
		case evt, ok := <-s.sub.Events():
			if !ok {
				// Subscription released, nothing more will arrive.
				return
			}
			data, err := serializeEvent(evt)
			if err != nil {
				s.log.Warn("Dropping unserializable event", "error", err)
				continue
			}
			if err = s.write(websocket.TextMessage, data); err != nil {
				s.log.Warn("Transport write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// write is the single funnel to the socket. gorilla/websocket allows one
// concurrent writer only, and the inbound pump also writes error frames.
func (s *Session) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	return s.conn.WriteMessage(messageType, data)
}

// sendErrorFrame informs the sender that its message was not saved.
// Best effort: a failure here is already a dying transport.
func (s *Session) sendErrorFrame(reason string) {
	data, err := json.Marshal(errorFrame{Type: frameTypeError, Error: reason})
	if err != nil {
		return
	}
	_ = s.write(websocket.TextMessage, data)
}

// Shutdown closes the session from the server side, sending a proper
// close frame first so well-behaved clients do not retry immediately.
func (s *Session) Shutdown(reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	_ = s.write(websocket.CloseMessage, msg)
	s.close(fmt.Sprintf("server shutdown: %s", reason))
}

// close runs the teardown sequence exactly once: presence leave (with the
// offline edge published on 1->0), subscription release, then transport
// release. Both pumps funnel here, whichever direction failed first.
func (s *Session) close(reason string) {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosing))
		close(s.done)

		s.presenceMu.Lock()
		s.closing = true
		if s.joined {
			if count := s.presence.Leave(s.room, s.identity.UserID); count == 0 {
				s.publishPresence(event.StatusOffline)
			}
		}
		s.presenceMu.Unlock()
		if err := s.sub.Close(); err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("Subscription release failed", "error", err)
		}
		_ = s.conn.Close()

		s.state.Store(int32(StateClosed))
		s.log.Info("Session closed", "reason", reason)
		if s.onClose != nil {
			s.onClose(s)
		}
	})
}

func (s *Session) publishPresence(status string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()
	if err := s.chat.PublishPresence(ctx, s.room, s.identity.UserID, status); err != nil {
		s.log.Warn("Presence edge lost", "status", status, "error", err)
	}
}

// readWait is how long the peer may stay silent before the connection is
// considered dead. Pings go out every PingInterval, so twice that leaves
// one full missed pong of slack.
func (s *Session) readWait() time.Duration {
	return 2 * s.cfg.PingInterval
}
