package streaming

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"guardian-shield/internal/domain/models"
	"guardian-shield/pkg/logger"
)

func readMessage(t *testing.T, conn *websocket.Conn) WebSocketMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WebSocketMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestWebSocketHubRelaysBusEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewWebSocketHub(logger.NewNop())
	bus := NewEventBus(nil, logger.NewNop())
	defer bus.Close()
	go hub.Run(ctx)
	go hub.Relay(ctx, bus)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWebSocket))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if hello := readMessage(t, conn); hello.Type != "connected" {
		t.Fatalf("first message type = %q, want connected", hello.Type)
	}
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", hub.ClientCount())
	}

	// Relay subscribes asynchronously
	deadline := time.Now().Add(2 * time.Second)
	for bus.SubscriberCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	event := NewAnalysisEvent(testRecord(models.ContentTypeLink, models.VerdictPhishing, 92))
	if err := bus.Publish(ctx, event); err != nil {
		t.Fatal(err)
	}

	msg := readMessage(t, conn)
	if msg.Type != string(EventTypeThreatDetected) {
		t.Fatalf("message type = %q", msg.Type)
	}
	var got AnalysisEvent
	if err := json.Unmarshal(msg.Payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != event.ID || got.Verdict != models.VerdictPhishing {
		t.Errorf("payload = %+v", got)
	}
}
