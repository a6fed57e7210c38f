package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"pairchat/auth"
	"pairchat/contract"
	"pairchat/domain"
	apperrors "pairchat/errors"
	"pairchat/services"
)

// DispatcherConfig groups the gateway-level tunables.
type DispatcherConfig struct {
	Addr        string
	MaxSessions int
	AuthTimeout time.Duration
	Session     SessionConfig
}

// Dispatcher accepts connection attempts, walks them through
// authentication and authorization, and hands admitted ones to a Session.
// It enforces the concurrent-session ceiling before anything else: past
// the limit an attempt fails fast instead of queuing.
type Dispatcher struct {
	log      *slog.Logger
	verifier contract.ITokenVerifier
	rooms    contract.IRoomStore
	chat     services.IChatService
	presence contract.IPresence
	bus      contract.IBus
	cfg      DispatcherConfig

	upgrader websocket.Upgrader

	sessionCount atomic.Int64
	mu           sync.Mutex
	sessions     map[*Session]struct{}
}

func NewDispatcher(log *slog.Logger, verifier contract.ITokenVerifier,
	rooms contract.IRoomStore, chat services.IChatService,
	presence contract.IPresence, bus contract.IBus, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		log:      log,
		verifier: verifier,
		rooms:    rooms,
		chat:     chat,
		presence: presence,
		bus:      bus,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: cfg.AuthTimeout,
			CheckOrigin:      func(r *http.Request) bool { return true },
		},
		sessions: make(map[*Session]struct{}),
	}
}

// Handler exposes the gateway routes.
func (d *Dispatcher) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/rooms/{room}", d.handleConnect)
	mux.HandleFunc("GET /rooms/{room}/messages", d.handleHistory)
	return mux
}

// Run serves HTTP until the context is canceled. It satisfies
// contract.Worker so the supervisor owns the server lifecycle.
func (d *Dispatcher) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              d.cfg.Addr,
		Handler:           d.Handler(),
		ReadHeaderTimeout: d.cfg.AuthTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		d.log.Info("Gateway listening", "addr", d.cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("gateway server: %w", err)
	case <-ctx.Done():
	}

	d.CloseAllSessions("gateway shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// SessionCount reports how many sessions are currently open.
func (d *Dispatcher) SessionCount() int {
	return int(d.sessionCount.Load())
}

// CloseAllSessions drives every live session to Closed. Used on shutdown
// and by the bus watcher when the broker is gone past the recovery window.
func (d *Dispatcher) CloseAllSessions(reason string) {
	d.mu.Lock()
	open := make([]*Session, 0, len(d.sessions))
	for sess := range d.sessions {
		open = append(open, sess)
	}
	d.mu.Unlock()

	for _, sess := range open {
		sess.Shutdown(reason)
	}
}

// handleConnect is the admission path: capacity, credential, membership,
// subscription, upgrade, in that order. Failing early keeps rejected
// attempts from ever touching room-scoped resources.
func (d *Dispatcher) handleConnect(w http.ResponseWriter, r *http.Request) {
	if n := d.sessionCount.Add(1); n > int64(d.cfg.MaxSessions) {
		d.sessionCount.Add(-1)
		d.log.Warn("Session ceiling reached, rejecting attempt", "limit", d.cfg.MaxSessions)
		d.reject(w, apperrors.ErrServiceUnavailable)
		return
	}
	admitted := false
	defer func() {
		if !admitted {
			d.sessionCount.Add(-1)
		}
	}()

	roomID, err := roomIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid room identifier", http.StatusBadRequest)
		return
	}

	// Credential first: a missing or bad token is rejected before any
	// room lookup happens.
	identity, err := d.authenticate(r)
	if err != nil {
		d.log.Warn("Connection attempt rejected", "room", int(roomID), "error", err)
		d.reject(w, err)
		return
	}

	room, err := d.rooms.GetRoom(roomID)
	if err != nil {
		d.log.Warn("Connection attempt rejected", "room", int(roomID),
			"user_id", identity.UserID, "error", err)
		d.reject(w, err)
		return
	}
	if !room.Has(identity.UserID) {
		d.log.Warn("Connection attempt rejected", "room", int(roomID),
			"user_id", identity.UserID, "error", apperrors.ErrForbidden)
		d.reject(w, apperrors.ErrForbidden)
		return
	}

	// Fail closed: without a bus subscription this process would split
	// the room, delivering to some participants and not others.
	sub, err := d.bus.Subscribe(r.Context(), roomID)
	if err != nil {
		d.log.Error("Bus subscription failed", "room", int(roomID), "error", err)
		d.reject(w, apperrors.ErrBrokerUnavailable)
		return
	}

	conn, err := d.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote its own response.
		_ = sub.Close()
		d.log.Warn("Transport handshake failed", "room", int(roomID), "error", err)
		return
	}

	sess := newSession(uuid.NewString(), identity, roomID, conn, sub,
		d.chat, d.presence, d.log, d.cfg.Session, d.untrack)

	d.mu.Lock()
	d.sessions[sess] = struct{}{}
	d.mu.Unlock()
	admitted = true

	go sess.run()
}

func (d *Dispatcher) authenticate(r *http.Request) (domain.Identity, error) {
	credential, err := auth.ExtractCredential(r)
	if err != nil {
		return domain.Identity{}, err
	}
	return d.verifier.Verify(credential)
}

func (d *Dispatcher) untrack(sess *Session) {
	d.mu.Lock()
	delete(d.sessions, sess)
	d.mu.Unlock()
	d.sessionCount.Add(-1)
}

func (d *Dispatcher) reject(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), apperrors.MapToHTTPStatus(err))
}

func roomIDFromPath(r *http.Request) (domain.RoomID, error) {
	id, err := strconv.Atoi(r.PathValue("room"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("room identifier %q is not a positive integer", r.PathValue("room"))
	}
	return domain.RoomID(id), nil
}

type historyResponse struct {
	Messages []messageFrame `json:"messages"`
	Cursor   *string        `json:"cursor,omitempty"`
}

// handleHistory serves paginated message history to room participants.
// Same credential rules as the socket: header first, then query parameter.
func (d *Dispatcher) handleHistory(w http.ResponseWriter, r *http.Request) {
	roomID, err := roomIDFromPath(r)
	if err != nil {
		http.Error(w, "invalid room identifier", http.StatusBadRequest)
		return
	}

	identity, err := d.authenticate(r)
	if err != nil {
		d.reject(w, err)
		return
	}

	ok, err := d.rooms.IsParticipant(roomID, identity.UserID)
	if err != nil {
		d.reject(w, err)
		return
	}
	if !ok {
		d.reject(w, apperrors.ErrForbidden)
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	messages, next, err := d.chat.History(roomID, cursor)
	if err != nil {
		d.log.Error("History read failed", "room", int(roomID), "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	response := historyResponse{
		Cursor: next,
		Messages: lo.Map(messages, func(m domain.Message, _ int) messageFrame {
			return messageFrame{
				ID:        m.ID,
				Room:      int(m.Room),
				SenderID:  m.SenderID,
				Content:   m.Content,
				Timestamp: m.CreatedAt.Format(time.RFC3339Nano),
			}
		}),
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(response); err != nil {
		d.log.Warn("History response write failed", "error", err)
	}
}
