package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pairchat/auth"
	"pairchat/bus"
	"pairchat/contract"
	"pairchat/domain"
	"pairchat/mocks"
	"pairchat/presence"
	"pairchat/repositories"
	"pairchat/services"
)

const (
	testSecret = "my_strong_and_long_secret_key_2026"
	testIssuer = "pairchat"
)

type harness struct {
	server   *httptest.Server
	registry *presence.Registry
	messages *repositories.MessageLog
	room     domain.Room
}

// newHarness wires a gateway with real storage and the in-process bus,
// seeded with one room for participants "1" and "2".
func newHarness(t *testing.T, maxSessions int, rooms contract.IRoomStore) *harness {
	t.Helper()
	log := slog.Default()

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var room domain.Room
	if rooms == nil {
		store, err := repositories.NewRoomStore(db)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		room, err = store.CreateRoom("1", "2")
		require.NoError(t, err)
		rooms = store
	}

	messages, err := repositories.NewMessageLog(db, log, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = messages.Close() })

	fanout := bus.NewMemoryBus(log, 32)
	chat := services.NewChatService(log, messages, fanout, nil, false, 1, time.Millisecond)
	registry := presence.NewRegistry()

	dispatcher := NewDispatcher(log, auth.NewVerifier(testSecret, testIssuer),
		rooms, chat, registry, fanout, DispatcherConfig{
			MaxSessions: maxSessions,
			AuthTimeout: 5 * time.Second,
			Session: SessionConfig{
				WriteTimeout:     5 * time.Second,
				PingInterval:     10 * time.Second,
				ReadLimit:        1 << 16,
				MaxContentLength: 1024,
			},
		})

	server := httptest.NewServer(dispatcher.Handler())
	t.Cleanup(server.Close)

	return &harness{server: server, registry: registry, messages: messages, room: room}
}

func (h *harness) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, testIssuer, userID, "", time.Hour)
	require.NoError(t, err)
	return token
}

// dial opens a socket to room 1 with the credential in the query parameter.
func (h *harness) dial(t *testing.T, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") +
		"/ws/rooms/1?token=" + h.token(t, userID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func (h *harness) dialExpectingStatus(t *testing.T, url string, header http.Header, want int) {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.Nil(t, conn)
	require.Equal(t, want, resp.StatusCode)
	_ = resp.Body.Close()
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func sendFrame(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func TestMessageRoundTripReachesEverySubscriberIncludingSender(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, 16, nil)

	alice := h.dial(t, "1")
	frame := readFrame(t, alice) // own online edge
	req.Equal("presence", frame["type"])

	bob := h.dial(t, "2")
	frame = readFrame(t, alice) // bob going online
	req.Equal("2", frame["user_id"])
	req.Equal("online", frame["status"])
	frame = readFrame(t, bob) // own online edge
	req.Equal("presence", frame["type"])

	sendFrame(t, alice, `{"type":"message","content":"Hello from A"}`)

	for _, conn := range []*websocket.Conn{alice, bob} {
		frame = readFrame(t, conn)
		req.EqualValues(1, frame["id"])
		req.EqualValues(1, frame["room"])
		req.Equal("1", frame["sender_id"])
		req.Equal("Hello from A", frame["content"])
		req.NotEmpty(frame["timestamp"])
	}

	// Exactly one record in the log, in arrival order.
	stored, _, err := h.messages.History(1, nil)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal("Hello from A", stored[0].Content)
}

func TestPresenceOfflineEmittedOnDisconnect(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, 16, nil)

	bob := h.dial(t, "2")
	frame := readFrame(t, bob) // own online edge
	req.Equal("presence", frame["type"])
	req.Equal("2", frame["user_id"])
	req.Equal("online", frame["status"])

	alice := h.dial(t, "1")
	frame = readFrame(t, bob)
	req.Equal("presence", frame["type"])
	req.Equal("1", frame["user_id"])
	req.Equal("online", frame["status"])

	req.NoError(alice.Close())

	frame = readFrame(t, bob)
	req.Equal("presence", frame["type"])
	req.Equal("1", frame["user_id"])
	req.Equal("offline", frame["status"])
}

func TestSecondConnectionDoesNotFlapPresence(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, 16, nil)

	bob := h.dial(t, "2")
	_ = readFrame(t, bob) // own online edge

	first := h.dial(t, "1")
	frame := readFrame(t, bob)
	req.Equal("online", frame["status"])

	// Same identity again: the counter moves 1->2, no edge, no event.
	second := h.dial(t, "1")
	req.NoError(first.Close())

	// Bob must see nothing until the LAST connection of "1" goes away.
	req.NoError(second.Close())
	frame = readFrame(t, bob)
	req.Equal("offline", frame["status"])
	req.Equal("1", frame["user_id"])
}

func TestNonParticipantIsRejectedWithoutSideEffects(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, 16, nil)

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") +
		"/ws/rooms/1?token=" + h.token(t, "3")
	h.dialExpectingStatus(t, url, nil, http.StatusForbidden)

	req.Empty(h.registry.Online(1))
}

func TestMissingCredentialRejectedBeforeAnyRoomLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// A room store with zero expectations: any call fails the test.
	roomStore := mocks.NewMockIRoomStore(ctrl)
	h := newHarness(t, 16, roomStore)

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") + "/ws/rooms/1"
	h.dialExpectingStatus(t, url, nil, http.StatusUnauthorized)
}

func TestHeaderCredentialTakesPrecedenceOverQuery(t *testing.T) {
	h := newHarness(t, 16, nil)

	// Valid token in the query, garbage in the header: header wins, 401.
	url := "ws" + strings.TrimPrefix(h.server.URL, "http") +
		"/ws/rooms/1?token=" + h.token(t, "1")
	header := http.Header{"Authorization": []string{"Bearer garbage"}}
	h.dialExpectingStatus(t, url, header, http.StatusUnauthorized)
}

func TestMalformedFrameIsDroppedAndSessionSurvives(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, 16, nil)

	alice := h.dial(t, "1")
	_ = readFrame(t, alice) // own online edge

	sendFrame(t, alice, `{"foo":"bar"}`)
	sendFrame(t, alice, `not even json`)
	sendFrame(t, alice, `{"type":"message","content":"still here"}`)

	frame := readFrame(t, alice)
	req.Equal("still here", frame["content"])

	stored, _, err := h.messages.History(1, nil)
	req.NoError(err)
	req.Len(stored, 1)
}

func TestTypingIsRelayedButNeverLogged(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, 16, nil)

	alice := h.dial(t, "1")
	_ = readFrame(t, alice)
	bob := h.dial(t, "2")
	_ = readFrame(t, alice) // bob online
	_ = readFrame(t, bob)   // own online edge

	sendFrame(t, alice, `{"type":"typing","is_typing":true}`)

	frame := readFrame(t, bob)
	req.Equal("typing", frame["type"])
	req.Equal("1", frame["user_id"])
	req.Equal(true, frame["is_typing"])

	stored, _, err := h.messages.History(1, nil)
	req.NoError(err)
	req.Empty(stored)
}

func TestCapacityCeilingFailsFast(t *testing.T) {
	h := newHarness(t, 1, nil)

	alice := h.dial(t, "1")
	_ = readFrame(t, alice)

	url := "ws" + strings.TrimPrefix(h.server.URL, "http") +
		"/ws/rooms/1?token=" + h.token(t, "2")
	h.dialExpectingStatus(t, url, nil, http.StatusServiceUnavailable)
}

func TestHistoryEndpoint(t *testing.T) {
	req := require.New(t)
	h := newHarness(t, 16, nil)

	alice := h.dial(t, "1")
	_ = readFrame(t, alice)
	sendFrame(t, alice, `{"type":"message","content":"one"}`)
	_ = readFrame(t, alice) // echo confirms persistence happened

	resp, err := http.Get(h.server.URL + "/rooms/1/messages?token=" + h.token(t, "2"))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	var page struct {
		Messages []map[string]any `json:"messages"`
	}
	req.NoError(json.Unmarshal(body, &page))
	req.Len(page.Messages, 1)
	req.Equal("one", page.Messages[0]["content"])

	// Non-participants get the same treatment as on the socket.
	resp, err = http.Get(h.server.URL + "/rooms/1/messages?token=" + h.token(t, "3"))
	req.NoError(err)
	defer resp.Body.Close()
	req.Equal(http.StatusForbidden, resp.StatusCode)
}
