package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/soundwave-fm/realtime-server/internal/auth"
	"github.com/soundwave-fm/realtime-server/internal/config"
	"github.com/soundwave-fm/realtime-server/internal/proto"
	"github.com/soundwave-fm/realtime-server/internal/realtime"
)

var testTokens = &auth.TokenConfig{
	Secret:   []byte("test-secret"),
	Issuer:   "soundwave",
	Audience: "soundwave-realtime",
	TTL:      time.Hour,
}

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.Nop()
	registry := realtime.NewRegistry()
	fanout := realtime.NewFanout(registry, nil, nil, &logger)
	router := realtime.NewRouter(registry, fanout, nil, &logger)

	server := NewServer(config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
	}, router, auth.NewVerifier(testTokens), nil, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func dialWS(t *testing.T, ctx context.Context, ts *httptest.Server, token string) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		wsURL += "?token=" + token
	}
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.SignToken(testTokens, userID, "user")
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s data: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

type outboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// mustReadEvent reads frames until one matches the wanted event name.
func mustReadEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, want string) outboundFrame {
	t.Helper()
	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read while waiting for %s: %v", want, err)
		}
		if frame.Event == want {
			return frame
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestStatsEndpoint(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	dialWS(t, ctx, ts, signToken(t, "42"))

	var stats struct {
		Clients int `json:"clients"`
		Users   int `json:"users"`
		Rooms   int `json:"rooms"`
	}
	// The handshake finishes asynchronously from the dial.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := ts.Client().Get(ts.URL + "/stats")
		if err != nil {
			t.Fatalf("stats request failed: %v", err)
		}
		err = json.NewDecoder(resp.Body).Decode(&stats)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if stats.Clients == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if stats.Clients != 1 || stats.Users != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCollabJoinAndChatFlow(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA := dialWS(t, ctx, ts, signToken(t, "1"))
	connB := dialWS(t, ctx, ts, signToken(t, "2"))

	sendInbound(t, ctx, connA, proto.InboundTypeJoinRoom, proto.RoomData{Room: "collab:playlist:7"})
	frame := mustReadEvent(t, ctx, connA, realtime.EventUserJoined)

	var joined struct {
		UserID string `json:"userId"`
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(frame.Data, &joined); err != nil {
		t.Fatalf("unmarshal user-joined: %v", err)
	}
	if joined.UserID != "1" || joined.RoomID != "collab:playlist:7" {
		t.Fatalf("unexpected user-joined payload: %+v", joined)
	}

	sendInbound(t, ctx, connB, proto.InboundTypeJoinRoom, proto.RoomData{Room: "collab:playlist:7"})
	mustReadEvent(t, ctx, connB, realtime.EventUserJoined)

	sendInbound(t, ctx, connA, proto.InboundTypeChatMessage, proto.ChatMessageData{
		Room:    "collab:playlist:7",
		Message: "new mix incoming",
	})

	for name, conn := range map[string]*websocket.Conn{"A": connA, "B": connB} {
		frame := mustReadEvent(t, ctx, conn, realtime.EventChatMessage)
		var chat struct {
			RoomID  string `json:"roomId"`
			UserID  string `json:"userId"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(frame.Data, &chat); err != nil {
			t.Fatalf("%s: unmarshal chat: %v", name, err)
		}
		if chat.UserID != "1" || chat.Message != "new mix incoming" {
			t.Fatalf("%s: unexpected chat payload: %+v", name, chat)
		}
	}
}

func TestAnonymousChatRejected(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts, "")
	sendInbound(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: "track:5"})
	sendInbound(t, ctx, conn, proto.InboundTypeChatMessage, proto.ChatMessageData{
		Room:    "track:5",
		Message: "hi",
	})

	frame := mustReadEvent(t, ctx, conn, realtime.EventError)
	var wsErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(frame.Data, &wsErr); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if wsErr.Code != realtime.ErrCodeAuthRequired {
		t.Fatalf("expected auth_required, got %q", wsErr.Code)
	}
}

func TestJoinForeignUserRoomDenied(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts, signToken(t, "7"))
	sendInbound(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: "user:42"})

	frame := mustReadEvent(t, ctx, conn, realtime.EventError)
	var wsErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(frame.Data, &wsErr); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if wsErr.Code != realtime.ErrCodeJoinDenied {
		t.Fatalf("expected join_denied, got %q", wsErr.Code)
	}
}

func TestInvalidTokenClosesConnection(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws?token=garbage"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		// Some close sequences surface as a dial error; that is fine too.
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	var frame outboundFrame
	readErr := wsjson.Read(ctx, conn, &frame)
	if readErr == nil {
		t.Fatal("expected the server to close an unauthenticated connection")
	}
	if status := websocket.CloseStatus(readErr); status != websocket.StatusPolicyViolation {
		t.Fatalf("expected policy violation close, got %v (%v)", status, readErr)
	}
}

func TestUnknownMessageTypeGetsError(t *testing.T) {
	ts := startTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := dialWS(t, ctx, ts, "")
	sendInbound(t, ctx, conn, "make-coffee", map[string]string{})

	frame := mustReadEvent(t, ctx, conn, realtime.EventError)
	var wsErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(frame.Data, &wsErr); err != nil {
		t.Fatalf("unmarshal error payload: %v", err)
	}
	if wsErr.Code != "invalid_message" {
		t.Fatalf("expected invalid_message, got %q", wsErr.Code)
	}
}
