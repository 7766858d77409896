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

	"github.com/vovakirdan/chatrelay-server/internal/config"
	"github.com/vovakirdan/chatrelay-server/internal/core"
	"github.com/vovakirdan/chatrelay-server/internal/proto"
)

func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := testLogger()
	hub := core.NewHub(nil, "test", logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := NewServer(hub, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

type outboundFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// readUntilType discards frames until one of the wanted type arrives.
func readUntilType(t *testing.T, ctx context.Context, conn *websocket.Conn, wantType string) json.RawMessage {
	t.Helper()

	for {
		var frame outboundFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			t.Fatalf("read frame waiting for %s: %v", wantType, err)
		}
		if frame.Type == wantType {
			return frame.Data
		}
	}
}

// readRegistrationReply waits for the full directory snapshot sent in
// reply to register, skipping incremental admin_data broadcasts.
func readRegistrationReply(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.AdminData {
	t.Helper()

	for {
		var admin proto.AdminData
		if err := json.Unmarshal(readUntilType(t, ctx, conn, proto.OutboundTypeAdminData), &admin); err != nil {
			t.Fatalf("unmarshal admin_data: %v", err)
		}
		if admin.ID != "" {
			return admin
		}
	}
}

func sendInbound(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()

	var raw json.RawMessage
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", msgType, err)
		}
		raw = payload
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	ts := startTestServer(t)

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketRegisterAndRoomMessage(t *testing.T) {
	ts := startTestServer(t)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close(websocket.StatusNormalClosure, "done")

	connB, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}
	defer connB.Close(websocket.StatusNormalClosure, "done")

	sendInbound(t, ctx, connA, proto.InboundTypeRegister, nil)

	adminA := readRegistrationReply(t, ctx, connA)
	if adminA.Name != "User1" {
		t.Fatalf("unexpected registration payload: %+v", adminA)
	}

	sendInbound(t, ctx, connB, proto.InboundTypeRegister, nil)
	adminB := readRegistrationReply(t, ctx, connB)
	if adminB.Name != "User2" {
		t.Fatalf("unexpected second registration payload: %+v", adminB)
	}

	// A hears about B joining the server.
	var notice proto.NoticeData
	if err := json.Unmarshal(readUntilType(t, ctx, connA, proto.OutboundTypeNotice), &notice); err != nil {
		t.Fatalf("unmarshal notice: %v", err)
	}
	if !strings.Contains(notice.Message, "User2") {
		t.Fatalf("notice should name the newcomer: %q", notice.Message)
	}

	sendInbound(t, ctx, connA, proto.InboundTypeCreateRoom, proto.CreateRoomData{
		Text:      "lobby",
		Arguments: []string{adminB.ID},
	})
	sendInbound(t, ctx, connA, proto.InboundTypeSendMessage, proto.SendMessageData{
		Room: "lobby",
		Text: "hi there",
	})

	var chat proto.ChatData
	if err := json.Unmarshal(readUntilType(t, ctx, connB, proto.OutboundTypeSendMessage), &chat); err != nil {
		t.Fatalf("unmarshal chat: %v", err)
	}
	if chat.User != "User1" || chat.Message != "hi there" {
		t.Fatalf("unexpected chat payload: %+v", chat)
	}
}

func TestWebSocketUnregisteredCommandRejected(t *testing.T) {
	ts := startTestServer(t)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	sendInbound(t, ctx, conn, proto.InboundTypeJoinRoom, proto.RoomData{Room: "lobby"})

	var errData proto.AdminErrorData
	if err := json.Unmarshal(readUntilType(t, ctx, conn, proto.OutboundTypeAdminError), &errData); err != nil {
		t.Fatalf("unmarshal admin_error: %v", err)
	}
	if errData.Code != core.ErrCodeNotRegistered {
		t.Fatalf("expected not_registered, got %+v", errData)
	}
}

func TestWebSocketDisconnectAnnounced(t *testing.T) {
	ts := startTestServer(t)
	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connA, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial A: %v", err)
	}
	defer connA.Close(websocket.StatusNormalClosure, "done")

	connB, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial B: %v", err)
	}

	sendInbound(t, ctx, connA, proto.InboundTypeRegister, nil)
	readRegistrationReply(t, ctx, connA)
	sendInbound(t, ctx, connB, proto.InboundTypeRegister, nil)
	readRegistrationReply(t, ctx, connB)

	connB.Close(websocket.StatusNormalClosure, "bye")

	for {
		var notice proto.NoticeData
		if err := json.Unmarshal(readUntilType(t, ctx, connA, proto.OutboundTypeNotice), &notice); err != nil {
			t.Fatalf("unmarshal notice: %v", err)
		}
		if strings.Contains(notice.Message, "disconnected") {
			if !strings.Contains(notice.Message, "User2") {
				t.Fatalf("notice should name the departed user: %q", notice.Message)
			}
			return
		}
	}
}
