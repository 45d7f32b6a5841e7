package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/quizattack/internal/auth"
	"github.com/abrezinsky/quizattack/internal/engine"
	"github.com/abrezinsky/quizattack/internal/logger"
	"github.com/abrezinsky/quizattack/internal/models"
	"github.com/abrezinsky/quizattack/internal/services"
)

// fakePlay records the commands the hub forwards
type fakePlay struct {
	services.PlayServicer

	mu       sync.Mutex
	running  bool
	answers  []int
	pauses   []string
	cards    []string
	answerFn func() error
}

func (f *fakePlay) State(ctx context.Context, code string) (engine.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.running {
		return engine.Snapshot{}, services.ErrNoGame
	}
	return engine.Snapshot{RoomCode: code, QuestionCount: 3}, nil
}

func (f *fakePlay) Answer(ctx context.Context, code, playerID string, answer int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answer)
	if f.answerFn != nil {
		return f.answerFn()
	}
	return nil
}

func (f *fakePlay) TogglePause(ctx context.Context, code, playerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses = append(f.pauses, playerID)
	return nil
}

func (f *fakePlay) UseCard(ctx context.Context, code, playerID, uniqueID string) (models.CardUsage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cards = append(f.cards, uniqueID)
	return models.CardUsage{}, nil
}

func (f *fakePlay) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.answers), len(f.pauses), len(f.cards)
}

func newTestHub(t *testing.T, play *fakePlay) (*Hub, *auth.Auth, *httptest.Server) {
	t.Helper()
	tokens := auth.New("test-secret")
	hub := New(logger.Discard(), play, tokens)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub.Start(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(server.Close)
	return hub, tokens, server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?" + query
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) map[string]interface{} {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg map[string]interface{}
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	return msg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNew_CreatesHubWithDependencies(t *testing.T) {
	hub := New(logger.Discard(), &fakePlay{}, auth.New("x"))

	if hub.play == nil {
		t.Error("expected play service to be set")
	}
	if hub.rooms == nil {
		t.Error("expected rooms map to be initialized")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil || hub.direct == nil {
		t.Error("expected channels to be initialized")
	}
}

func TestHub_BroadcastRoom_NoClients(t *testing.T) {
	hub, _, _ := newTestHub(t, &fakePlay{})

	done := make(chan bool)
	go func() {
		hub.BroadcastRoom("ABC234", "tick", map[string]int{"time_left": 3})
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Error("BroadcastRoom blocked with no clients")
	}
}

func TestHub_ImplementsBroadcaster(t *testing.T) {
	var _ services.Broadcaster = (*Hub)(nil)
}

func TestServeWs_RequiresRoom(t *testing.T) {
	_, _, server := newTestHub(t, &fakePlay{})

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestServeWs_RoomScopedBroadcast(t *testing.T) {
	hub, _, server := newTestHub(t, &fakePlay{})

	inRoom := dial(t, server, "room=abc234")
	elsewhere := dial(t, server, "room=XYZ789")
	waitFor(t, "clients to register", func() bool {
		return hub.ClientCount("ABC234") == 1 && hub.ClientCount("XYZ789") == 1
	})

	hub.BroadcastRoom("ABC234", "tick", map[string]int{"time_left": 7})

	msg := readMessage(t, inRoom)
	if msg["type"] != "tick" {
		t.Errorf("expected tick, got %v", msg["type"])
	}
	payload, _ := msg["payload"].(map[string]interface{})
	if payload["time_left"] != float64(7) {
		t.Errorf("expected time_left 7, got %v", payload["time_left"])
	}

	elsewhere.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, _, err := elsewhere.ReadMessage(); err == nil {
		t.Error("client in another room should not receive the message")
	}
}

func TestServeWs_SendsStateOnConnect(t *testing.T) {
	_, _, server := newTestHub(t, &fakePlay{running: true})

	ws := dial(t, server, "room=ABC234")
	msg := readMessage(t, ws)
	if msg["type"] != MsgState {
		t.Fatalf("expected state message, got %v", msg["type"])
	}
	payload, _ := msg["payload"].(map[string]interface{})
	if payload["room_code"] != "ABC234" {
		t.Errorf("expected room_code ABC234, got %v", payload["room_code"])
	}
}

func TestServeWs_Unregister(t *testing.T) {
	hub, _, server := newTestHub(t, &fakePlay{})

	ws := dial(t, server, "room=ABC234")
	waitFor(t, "client to register", func() bool { return hub.ClientCount("ABC234") == 1 })

	ws.Close()
	waitFor(t, "client to unregister", func() bool { return hub.ClientCount("ABC234") == 0 })
}

func TestServeWs_CommandsRequireToken(t *testing.T) {
	play := &fakePlay{}
	_, _, server := newTestHub(t, play)

	ws := dial(t, server, "room=ABC234")
	if err := ws.WriteJSON(map[string]interface{}{"type": MsgAnswer, "payload": map[string]int{"answer": 1}}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	msg := readMessage(t, ws)
	if msg["type"] != MsgError {
		t.Errorf("expected error message, got %v", msg["type"])
	}
	if a, _, _ := play.counts(); a != 0 {
		t.Errorf("expected no answers forwarded, got %d", a)
	}
}

func TestServeWs_TokenForOtherRoomIsIgnored(t *testing.T) {
	play := &fakePlay{}
	_, tokens, server := newTestHub(t, play)

	token, _ := tokens.Issue(auth.Identity{RoomCode: "OTHER2", PlayerID: "p1"})
	ws := dial(t, server, "room=ABC234&token="+token)
	ws.WriteJSON(map[string]interface{}{"type": MsgPause})

	msg := readMessage(t, ws)
	if msg["type"] != MsgError {
		t.Errorf("expected error message, got %v", msg["type"])
	}
}

func TestServeWs_RoutesCommands(t *testing.T) {
	play := &fakePlay{}
	_, tokens, server := newTestHub(t, play)

	token, err := tokens.Issue(auth.Identity{RoomCode: "ABC234", PlayerID: "p1", IsHost: true})
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	ws := dial(t, server, "room=ABC234&token="+token)

	ws.WriteJSON(map[string]interface{}{"type": MsgAnswer, "payload": map[string]int{"answer": 2}})
	ws.WriteJSON(map[string]interface{}{"type": MsgPause})
	ws.WriteJSON(map[string]interface{}{"type": MsgUseCard, "payload": map[string]string{"unique_id": "card-1"}})
	ws.WriteJSON(map[string]interface{}{"type": "dance"})

	waitFor(t, "commands to be forwarded", func() bool {
		a, p, c := play.counts()
		return a == 1 && p == 1 && c == 1
	})

	play.mu.Lock()
	defer play.mu.Unlock()
	if play.answers[0] != 2 {
		t.Errorf("expected answer 2, got %d", play.answers[0])
	}
	if play.pauses[0] != "p1" {
		t.Errorf("expected pause from p1, got %s", play.pauses[0])
	}
	if play.cards[0] != "card-1" {
		t.Errorf("expected card-1, got %s", play.cards[0])
	}
}

func TestServeWs_RejectedCommandRepliesError(t *testing.T) {
	play := &fakePlay{answerFn: func() error { return services.ErrNoGame }}
	_, tokens, server := newTestHub(t, play)

	token, _ := tokens.Issue(auth.Identity{RoomCode: "ABC234", PlayerID: "p1"})
	ws := dial(t, server, "room=ABC234&token="+token)
	ws.WriteJSON(map[string]interface{}{"type": MsgAnswer, "payload": map[string]int{"answer": 0}})

	msg := readMessage(t, ws)
	if msg["type"] != MsgError {
		t.Fatalf("expected error message, got %v", msg["type"])
	}
	payload, _ := msg["payload"].(map[string]interface{})
	if payload["type"] != MsgAnswer {
		t.Errorf("expected error for answer, got %v", payload["type"])
	}
}

func TestServeWs_MissingAnswer(t *testing.T) {
	play := &fakePlay{}
	_, tokens, server := newTestHub(t, play)

	token, _ := tokens.Issue(auth.Identity{RoomCode: "ABC234", PlayerID: "p1"})
	ws := dial(t, server, "room=ABC234&token="+token)
	ws.WriteJSON(map[string]interface{}{"type": MsgAnswer, "payload": map[string]int{}})

	msg := readMessage(t, ws)
	if msg["type"] != MsgError {
		t.Errorf("expected error message, got %v", msg["type"])
	}
	if a, _, _ := play.counts(); a != 0 {
		t.Errorf("expected no answers forwarded, got %d", a)
	}
}

func TestServeWs_InvalidJSON(t *testing.T) {
	_, _, server := newTestHub(t, &fakePlay{})

	ws := dial(t, server, "room=ABC234")
	ws.WriteMessage(websocket.TextMessage, []byte("{not json"))

	msg := readMessage(t, ws)
	if msg["type"] != MsgError {
		t.Errorf("expected error message, got %v", msg["type"])
	}
}

func TestHub_ContextCancelClosesClients(t *testing.T) {
	hub := New(logger.Discard(), &fakePlay{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	hub.Start(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	ws := dial(t, server, "room=ABC234")
	waitFor(t, "client to register", func() bool { return hub.ClientCount("ABC234") == 1 })

	cancel()
	waitFor(t, "rooms to be cleared", func() bool { return hub.ClientCount("ABC234") == 0 })

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Error("expected connection to be closed")
	}
}
