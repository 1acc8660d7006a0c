package realtime

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ryoevisu/kaishop-backend/pkg/auth"
	"github.com/ryoevisu/kaishop-backend/pkg/config"
	"github.com/ryoevisu/kaishop-backend/pkg/enums"
	"github.com/ryoevisu/kaishop-backend/pkg/logger"
)

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		SendBufferSize:  8,
		MaxMessageBytes: 4096,
		WriteTimeout:    time.Second,
		PongTimeout:     5 * time.Second,
	}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "realtime-test-secret",
		Issuer:            "kaishop-test",
		ExpirationMinutes: 60,
	}
}

func dialAndAuthenticate(t *testing.T, url, token string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	frame, err := json.Marshal(Envelope{Event: EventAuthenticate, Data: token})
	if err != nil {
		t.Fatalf("marshal authenticate: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("write authenticate: %v", err)
	}
	return ws
}

func waitForConnections(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ConnectionCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("connection count = %d, want %d", hub.ConnectionCount(), want)
}

func TestWebsocketAuthenticateAndReceive(t *testing.T) {
	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	hub := NewHub(logg, nil)
	handler := NewHandler(hub, logg, testJWTConfig(), testRealtimeConfig())

	server := httptest.NewServer(handler)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	identityID := uuid.New()
	token, err := auth.MintAccessToken(testJWTConfig(), time.Now(), auth.AccessTokenPayload{
		UserID:   identityID,
		Username: "kai",
		Role:     enums.RoleMember,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	ws := dialAndAuthenticate(t, wsURL, token)
	defer ws.Close()
	waitForConnections(t, hub, 1)

	hub.PushToIdentity(context.Background(), identityID, EventNotification, map[string]string{"title": "hi"})

	if err := ws.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	_, raw, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Event != EventNotification {
		t.Fatalf("event = %s, want %s", envelope.Event, EventNotification)
	}
}

func TestWebsocketRejectsBadToken(t *testing.T) {
	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	hub := NewHub(logg, nil)
	handler := NewHandler(hub, logg, testJWTConfig(), testRealtimeConfig())

	server := httptest.NewServer(handler)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	ws := dialAndAuthenticate(t, wsURL, "not-a-token")
	defer ws.Close()

	if err := ws.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	if _, _, err := ws.ReadMessage(); err == nil {
		t.Fatal("expected the server to close the connection")
	}
	if hub.ConnectionCount() != 0 {
		t.Fatalf("connection count = %d, want 0", hub.ConnectionCount())
	}
}

func TestWebsocketAdminReceivesNewOrderEvents(t *testing.T) {
	logg := logger.New(logger.Options{Level: zerolog.Disabled, Output: io.Discard})
	hub := NewHub(logg, nil)
	handler := NewHandler(hub, logg, testJWTConfig(), testRealtimeConfig())

	server := httptest.NewServer(handler)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	adminToken, err := auth.MintAccessToken(testJWTConfig(), time.Now(), auth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "admin",
		Role:     enums.RoleAdministrator,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	ws := dialAndAuthenticate(t, wsURL, adminToken)
	defer ws.Close()
	waitForConnections(t, hub, 1)

	hub.PushToAdministrators(context.Background(), EventNewOrder, map[string]string{"id": "x"})

	if err := ws.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	_, raw, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if envelope.Event != EventNewOrder {
		t.Fatalf("event = %s, want %s", envelope.Event, EventNewOrder)
	}
}
