package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/thindery/pantry-pal/internal/voice"
)

// fakeVoiceController records control calls for assertions
type fakeVoiceController struct {
	mu       sync.Mutex
	starts   int
	stops    int
	active   bool
	startErr error
	stopErr  error
}

func (f *fakeVoiceController) Start(_ context.Context) (*voice.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	if f.startErr != nil {
		return nil, f.startErr
	}
	f.active = true
	return nil, nil
}

func (f *fakeVoiceController) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	if f.stopErr != nil {
		return f.stopErr
	}
	f.active = false
	return nil
}

func (f *fakeVoiceController) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeVoiceController) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts
}

func (f *fakeVoiceController) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

func setupTestHub(t testing.TB) (*Hub, *fakeVoiceController) {
	t.Helper()
	controller := &fakeVoiceController{}
	hub := NewHub(controller, zap.NewNop())
	go hub.Run()
	return hub, controller
}

// dialTestClient spins up an echo server around the hub and connects one
// websocket client to it.
func dialTestClient(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	e := echo.New()
	e.GET("/ws", func(c echo.Context) error {
		return HandleWebSocketWithAuth(hub, c, "user-1", zap.NewNop())
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial test server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitCondition(t, "client registration", func() bool {
		return hub.ClientCount() == 1
	})
	return conn
}

func waitCondition(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestHub_NewHub(t *testing.T) {
	hub := NewHub(&fakeVoiceController{}, zap.NewNop())

	if hub.clients == nil {
		t.Error("Hub clients map not initialized")
	}
	if hub.register == nil {
		t.Error("Hub register channel not initialized")
	}
	if hub.unregister == nil {
		t.Error("Hub unregister channel not initialized")
	}
	if hub.broadcast == nil {
		t.Error("Hub broadcast channel not initialized")
	}
}

func TestHub_BroadcastUpdateReachesClient(t *testing.T) {
	hub, _ := setupTestHub(t)
	conn := dialTestClient(t, hub)

	hub.BroadcastUpdate(voice.Update{Kind: "transcript", Transcript: "You have 9 eggs."})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read broadcast: %v", err)
	}

	var msg UpdateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("broadcast payload is not an update message: %v", err)
	}
	if msg.Type != MessageTypeUpdate {
		t.Errorf("Type = %q, want %q", msg.Type, MessageTypeUpdate)
	}
	if msg.Update.Transcript != "You have 9 eggs." {
		t.Errorf("Transcript = %q", msg.Update.Transcript)
	}
	if msg.Timestamp == "" {
		t.Error("Timestamp is empty")
	}
}

func TestHub_VoiceStartControl(t *testing.T) {
	hub, controller := setupTestHub(t)
	conn := dialTestClient(t, hub)

	if err := conn.WriteJSON(map[string]string{"type": "voice_start"}); err != nil {
		t.Fatalf("failed to send control message: %v", err)
	}
	waitCondition(t, "controller start", func() bool {
		return controller.startCount() == 1
	})
}

func TestHub_VoiceStopErrorReturnsToClient(t *testing.T) {
	hub, controller := setupTestHub(t)
	controller.stopErr = errors.New("no active session")
	conn := dialTestClient(t, hub)

	if err := conn.WriteJSON(map[string]string{"type": "voice_stop"}); err != nil {
		t.Fatalf("failed to send control message: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read error reply: %v", err)
	}
	var msg ErrorMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("reply is not an error message: %v", err)
	}
	if msg.Type != MessageTypeError {
		t.Errorf("Type = %q, want %q", msg.Type, MessageTypeError)
	}
	if !strings.Contains(msg.Message, "no active session") {
		t.Errorf("Message = %q", msg.Message)
	}
	if got := controller.stopCount(); got != 1 {
		t.Errorf("stop count = %d, want 1", got)
	}
}

func TestHub_UnknownMessageRejected(t *testing.T) {
	hub, controller := setupTestHub(t)
	conn := dialTestClient(t, hub)

	if err := conn.WriteJSON(map[string]string{"type": "order_pizza"}); err != nil {
		t.Fatalf("failed to send message: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read rejection: %v", err)
	}
	var msg ErrorMessage
	if err := json.Unmarshal(payload, &msg); err != nil || msg.Type != MessageTypeError {
		t.Errorf("expected error reply, got %s", payload)
	}
	if controller.startCount() != 0 || controller.stopCount() != 0 {
		t.Error("unknown message reached the controller")
	}
}

func TestHub_ClientUnregistersOnDisconnect(t *testing.T) {
	hub, _ := setupTestHub(t)
	conn := dialTestClient(t, hub)

	conn.Close()
	waitCondition(t, "client unregistration", func() bool {
		return hub.ClientCount() == 0
	})
}

func TestIdleWatchdogStopsIdleSession(t *testing.T) {
	hub, controller := setupTestHub(t)
	controller.active = true
	w := NewIdleWatchdog(hub, 50*time.Millisecond, zap.NewNop())

	hub.activityMu.Lock()
	hub.lastActivity = time.Now().Add(-time.Minute)
	hub.activityMu.Unlock()

	w.check()
	if got := controller.stopCount(); got != 1 {
		t.Errorf("stop count = %d, want 1", got)
	}
}

func TestIdleWatchdogLeavesActiveSessionAlone(t *testing.T) {
	hub, controller := setupTestHub(t)
	controller.active = true
	w := NewIdleWatchdog(hub, time.Minute, zap.NewNop())

	hub.BroadcastUpdate(voice.Update{Kind: "transcript", Transcript: "talking"})
	w.check()
	if got := controller.stopCount(); got != 0 {
		t.Errorf("stop count = %d, want 0", got)
	}
}

func TestIdleWatchdogIgnoresInactiveSession(t *testing.T) {
	hub, controller := setupTestHub(t)
	w := NewIdleWatchdog(hub, 50*time.Millisecond, zap.NewNop())

	hub.activityMu.Lock()
	hub.lastActivity = time.Now().Add(-time.Minute)
	hub.activityMu.Unlock()

	w.check()
	if got := controller.stopCount(); got != 0 {
		t.Errorf("stop count = %d, want 0", got)
	}
}
