package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/JoeShih716/go-blackjack-server/internal/app/blackjack"
	"github.com/JoeShih716/go-blackjack-server/internal/connector/protocol"
	"github.com/JoeShih716/go-blackjack-server/internal/connector/session"
	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/pkg/wss"
	mock_wss "github.com/JoeShih716/go-blackjack-server/test/mocks/pkg/wss"
)

func decodeResponse(t *testing.T, msg string) protocol.Response {
	t.Helper()
	var resp protocol.Response
	require.NoError(t, json.Unmarshal([]byte(msg), &resp))
	return resp
}

func TestWebsocketHandler_OnConnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWssClient := mock_wss.NewMockClient(ctrl)
	mgr := session.NewManager()
	s := newStack(t, nil, domain.RankTwo)
	handler := NewWebsocketHandler(mgr, s.dispatcher, time.Minute, slog.Default())

	mockWssClient.EXPECT().ID().Return("sess-1").AnyTimes()
	// Should set login timer
	mockWssClient.EXPECT().SetTag(tagLoginTimer, gomock.Any())

	handler.OnConnect(mockWssClient)

	assert.Equal(t, int64(1), mgr.Count())
	sess, ok := mgr.Get("sess-1")
	assert.True(t, ok)
	assert.Empty(t, sess.PlayerID())
}

func TestWebsocketHandler_LoginTimeoutKicks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWssClient := mock_wss.NewMockClient(ctrl)
	s := newStack(t, nil, domain.RankTwo)
	handler := NewWebsocketHandler(session.NewManager(), s.dispatcher, 10*time.Millisecond, slog.Default())

	kicked := make(chan string, 1)
	mockWssClient.EXPECT().ID().Return("sess-1").AnyTimes()
	mockWssClient.EXPECT().SetTag(tagLoginTimer, gomock.Any())
	mockWssClient.EXPECT().Kick(gomock.Any()).DoAndReturn(func(reason string) error {
		kicked <- reason
		return nil
	})

	handler.OnConnect(mockWssClient)

	select {
	case reason := <-kicked:
		assert.Equal(t, "Login Timeout", reason)
	case <-time.After(time.Second):
		t.Fatal("client was not kicked")
	}
}

func TestWebsocketHandler_OnDisconnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWssClient := mock_wss.NewMockClient(ctrl)
	mgr := session.NewManager()
	s := newStack(t, nil, domain.RankTwo)
	handler := NewWebsocketHandler(mgr, s.dispatcher, 0, slog.Default())

	mockWssClient.EXPECT().ID().Return("sess-1").AnyTimes()
	handler.OnConnect(mockWssClient)
	assert.Equal(t, int64(1), mgr.Count())

	// cleanup timers
	mockWssClient.EXPECT().GetTag(tagLoginTimer).Return(nil, false)

	handler.OnDisconnect(mockWssClient)
	assert.Equal(t, int64(0), mgr.Count())
}

func TestWebsocketHandler_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWssClient := mock_wss.NewMockClient(ctrl)
	mgr := session.NewManager()
	s := newStack(t, nil, domain.RankTwo)
	handler := NewWebsocketHandler(mgr, s.dispatcher, 0, slog.Default())

	mockWssClient.EXPECT().ID().Return("sess-1").AnyTimes()
	handler.OnConnect(mockWssClient)

	msg, _ := json.Marshal(protocol.Envelope{
		Action:  protocol.ActionLogin,
		Payload: json.RawMessage(`{"player_id":"alice"}`),
	})

	gomock.InOrder(
		mockWssClient.EXPECT().GetTag(tagPlayerID).Return(nil, false), // Check not logged in
		mockWssClient.EXPECT().GetTag(tagLoginTimer).Return(nil, false),
		mockWssClient.EXPECT().SetTag(tagPlayerID, "alice"),
		mockWssClient.EXPECT().SendMessage(gomock.Any()).DoAndReturn(func(msg string) error {
			resp := decodeResponse(t, msg)
			assert.Equal(t, protocol.ActionLogin, resp.Action)
			assert.Empty(t, resp.Error)
			assert.Contains(t, msg, `"balance":2000`)
			return nil
		}),
	)

	handler.OnMessage(mockWssClient, msg)

	sess, ok := mgr.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, "alice", sess.PlayerID())
}

func TestWebsocketHandler_LoginTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWssClient := mock_wss.NewMockClient(ctrl)
	s := newStack(t, nil, domain.RankTwo)
	handler := NewWebsocketHandler(session.NewManager(), s.dispatcher, 0, slog.Default())

	msg, _ := json.Marshal(protocol.Envelope{
		Action:  protocol.ActionLogin,
		Payload: json.RawMessage(`{"player_id":"bob"}`),
	})

	mockWssClient.EXPECT().ID().Return("sess-1").AnyTimes()
	mockWssClient.EXPECT().GetTag(tagPlayerID).Return("alice", true)
	mockWssClient.EXPECT().SendMessage(gomock.Any()).Do(func(msg string) {
		resp := decodeResponse(t, msg)
		assert.Equal(t, protocol.CodeBadRequest, resp.Code)
	})

	handler.OnMessage(mockWssClient, msg)
}

func TestWebsocketHandler_RequiresLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWssClient := mock_wss.NewMockClient(ctrl)
	s := newStack(t, nil, domain.RankTwo)
	handler := NewWebsocketHandler(session.NewManager(), s.dispatcher, 0, slog.Default())

	msg, _ := json.Marshal(protocol.Envelope{
		Action:  protocol.ActionStart,
		Payload: json.RawMessage(`{"bet":100}`),
	})

	mockWssClient.EXPECT().ID().Return("sess-1").AnyTimes()
	mockWssClient.EXPECT().GetTag(tagPlayerID).Return(nil, false)
	mockWssClient.EXPECT().SendMessage(gomock.Any()).Do(func(msg string) {
		resp := decodeResponse(t, msg)
		assert.Equal(t, protocol.ActionStart, resp.Action)
		assert.Equal(t, protocol.CodeUnauthorized, resp.Code)
	})

	handler.OnMessage(mockWssClient, msg)
	assert.Equal(t, 0, s.registry.Active())
}

func TestWebsocketHandler_InvalidJSON(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWssClient := mock_wss.NewMockClient(ctrl)
	s := newStack(t, nil, domain.RankTwo)
	handler := NewWebsocketHandler(session.NewManager(), s.dispatcher, 0, slog.Default())

	mockWssClient.EXPECT().ID().Return("sess-1").AnyTimes()
	mockWssClient.EXPECT().SendMessage(gomock.Any()).Do(func(msg string) {
		assert.Equal(t, protocol.CodeBadRequest, decodeResponse(t, msg).Code)
	})

	handler.OnMessage(mockWssClient, []byte("{not json"))
}

func TestWebsocketHandler_PushRoundFinished(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mgr := session.NewManager()
	s := newStack(t, nil, domain.RankTwo)
	handler := NewWebsocketHandler(mgr, s.dispatcher, 0, slog.Default())

	alice := mock_wss.NewMockClient(ctrl)
	alice.EXPECT().ID().Return("sess-a").AnyTimes()
	bob := mock_wss.NewMockClient(ctrl)
	bob.EXPECT().ID().Return("sess-b").AnyTimes()
	handler.OnConnect(alice)
	handler.OnConnect(bob)

	sess, _ := mgr.Get("sess-a")
	sess.Bind("alice")
	sess, _ = mgr.Get("sess-b")
	sess.Bind("bob")

	alice.EXPECT().SendMessage(gomock.Any()).Do(func(msg string) {
		resp := decodeResponse(t, msg)
		assert.Equal(t, protocol.PushRoundFinished, resp.Action)
		assert.Contains(t, msg, `"outcome":"abandoned"`)
	})

	err := handler.PublishRoundFinished(context.Background(), domain.RoundFinished{
		SessionID: "g-1",
		PlayerID:  "alice",
		Bet:       100,
		Outcome:   domain.OutcomeAbandoned,
	})
	assert.NoError(t, err)
}

// wsRoundTrip 送出一個封包並讀回一個回應
func wsRoundTrip(t *testing.T, conn *websocket.Conn, action protocol.ConnectorProtocol, payload string) protocol.Response {
	t.Helper()
	env := protocol.Envelope{Action: action}
	if payload != "" {
		env.Payload = json.RawMessage(payload)
	}
	require.NoError(t, conn.WriteJSON(env))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return decodeResponse(t, string(msg))
}

func TestWebsocket_EndToEnd(t *testing.T) {
	// 玩家 K 9 = 19；莊家 9 K = 19 平手
	s := newStack(t, nil, domain.RankKing, domain.RankNine, domain.RankNine, domain.RankKing)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsServer := wss.NewServer(ctx, &wss.Config{AllowedOrigins: []string{"*"}}, slog.Default())
	wsServer.Register(NewWebsocketHandler(session.NewManager(), s.dispatcher, time.Minute, slog.Default()))

	ts := httptest.NewServer(NewRouter(s.dispatcher, RouterConfig{WSPath: "/ws", WS: wsServer}, slog.Default()))
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	resp := wsRoundTrip(t, conn, protocol.ActionStart, `{"bet":100}`)
	assert.Equal(t, protocol.CodeUnauthorized, resp.Code)

	resp = wsRoundTrip(t, conn, protocol.ActionLogin, `{"player_id":"alice"}`)
	require.Empty(t, resp.Error)

	resp = wsRoundTrip(t, conn, protocol.ActionStart, `{"bet":0}`)
	assert.Equal(t, protocol.CodeInvalidBet, resp.Code)

	resp = wsRoundTrip(t, conn, protocol.ActionStart, `{"bet":100}`)
	require.Empty(t, resp.Error)

	resp = wsRoundTrip(t, conn, protocol.ActionStart, `{"bet":100}`)
	assert.Equal(t, protocol.CodeSessionActive, resp.Code)

	resp = wsRoundTrip(t, conn, protocol.ActionStand, "")
	require.Empty(t, resp.Error)
	view, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(domain.OutcomePush), view["outcome"])
	assert.Equal(t, float64(2000), view["balance"])

	resp = wsRoundTrip(t, conn, protocol.ActionHit, "")
	assert.Equal(t, protocol.CodeIllegalAction, resp.Code)
}

func TestWebsocket_AbandonedRoundIsPushed(t *testing.T) {
	var clockMu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	mgr := session.NewManager()

	// publisher 透過閉包延後取得 wsHandler
	var wsHandler *WebsocketHandler
	s := newStack(t, []blackjack.Option{
		blackjack.WithClock(clock),
		blackjack.WithPublisher(publisherFunc(func(ctx context.Context, ev domain.RoundFinished) error {
			return wsHandler.PublishRoundFinished(ctx, ev)
		})),
	}, domain.RankTwo, domain.RankThree, domain.RankFour)
	wsHandler = NewWebsocketHandler(mgr, s.dispatcher, 0, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wsServer := wss.NewServer(ctx, &wss.Config{}, slog.Default())
	wsServer.Register(wsHandler)
	ts := httptest.NewServer(wsServer)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Empty(t, wsRoundTrip(t, conn, protocol.ActionLogin, `{"player_id":"alice"}`).Error)
	require.Empty(t, wsRoundTrip(t, conn, protocol.ActionStart, `{"bet":50}`).Error)

	clockMu.Lock()
	now = now.Add(time.Hour)
	clockMu.Unlock()
	assert.Equal(t, 1, s.registry.ReapIdle(context.Background(), 3*time.Minute))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	resp := decodeResponse(t, string(msg))
	assert.Equal(t, protocol.PushRoundFinished, resp.Action)
	assert.Contains(t, string(msg), `"outcome":"abandoned"`)
}

type publisherFunc func(ctx context.Context, ev domain.RoundFinished) error

func (f publisherFunc) PublishRoundFinished(ctx context.Context, ev domain.RoundFinished) error {
	return f(ctx, ev)
}
