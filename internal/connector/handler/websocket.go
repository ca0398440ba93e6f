package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/JoeShih716/go-blackjack-server/internal/connector/protocol"
	"github.com/JoeShih716/go-blackjack-server/internal/connector/session"
	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
	"github.com/JoeShih716/go-blackjack-server/pkg/wss"
)

const (
	tagPlayerID   = "player_id"
	tagLoginTimer = "login_timer"

	requestTimeout = 5 * time.Second
)

var (
	_ wss.Subscriber       = (*WebsocketHandler)(nil)
	_ ports.EventPublisher = (*WebsocketHandler)(nil)
)

// WebsocketHandler 實作 wss.Subscriber 介面，處理 WebSocket 事件。
// 同時實作 ports.EventPublisher，把牌局結束通知推送給玩家的連線。
type WebsocketHandler struct {
	sessionMgr   *session.Manager
	dispatcher   *Dispatcher
	loginTimeout time.Duration
	logger       *slog.Logger
}

// NewWebsocketHandler 建立 WebSocket 事件處理器
//
// 參數:
//
//	mgr: *session.Manager - 連線會話管理器
//	dispatcher: *Dispatcher - 指令分派器
//	loginTimeout: time.Duration - 連線後必須在此時間內 login，0 表示不限制
//	logger: *slog.Logger - 日誌
func NewWebsocketHandler(mgr *session.Manager, dispatcher *Dispatcher, loginTimeout time.Duration, logger *slog.Logger) *WebsocketHandler {
	return &WebsocketHandler{
		sessionMgr:   mgr,
		dispatcher:   dispatcher,
		loginTimeout: loginTimeout,
		logger:       logger.With("component", "ws_handler"),
	}
}

// OnConnect 當新連線建立時觸發
func (h *WebsocketHandler) OnConnect(conn wss.Client) {
	h.sessionMgr.Add(session.NewSession(conn))
	h.logger.Info("Client connected", "id", conn.ID(), "online", h.sessionMgr.Count())

	if h.loginTimeout > 0 {
		loginTimer := time.AfterFunc(h.loginTimeout, func() {
			h.logger.Info("Login timeout, kicking client", "id", conn.ID())
			_ = conn.Kick("Login Timeout")
		})
		conn.SetTag(tagLoginTimer, loginTimer)
	}
}

// OnDisconnect 當連線斷開時觸發。進行中的牌局保留，交由閒置回收處理。
func (h *WebsocketHandler) OnDisconnect(conn wss.Client) {
	h.stopTimer(conn, tagLoginTimer)
	h.sessionMgr.Remove(conn.ID())
	h.logger.Info("Client disconnected", "id", conn.ID(), "online", h.sessionMgr.Count())
}

// OnMessage 當收到訊息時觸發
func (h *WebsocketHandler) OnMessage(conn wss.Client, msg []byte) {
	var envelope protocol.Envelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		h.logger.Warn("Invalid JSON envelope", "id", conn.ID(), "error", err)
		h.send(conn, errorResponse("unknown", ErrBadRequest))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if envelope.Action == protocol.ActionLogin {
		h.handleLogin(ctx, conn, envelope.Payload)
		return
	}

	data, err := h.dispatcher.Dispatch(ctx, h.getPlayerID(conn), envelope.Action, envelope.Payload)
	if err != nil {
		h.logger.Debug("Action failed", "id", conn.ID(), "action", envelope.Action, "error", err)
		h.send(conn, errorResponse(envelope.Action, err))
		return
	}
	h.send(conn, protocol.Response{Action: envelope.Action, Data: data})
}

// PublishRoundFinished 推送牌局結束通知給該玩家所有在線連線
func (h *WebsocketHandler) PublishRoundFinished(_ context.Context, event domain.RoundFinished) error {
	bytes, err := json.Marshal(protocol.Response{Action: protocol.PushRoundFinished, Data: event})
	if err != nil {
		return err
	}
	for _, sess := range h.sessionMgr.ByPlayer(event.PlayerID) {
		if err := sess.Send(string(bytes)); err != nil {
			h.logger.Debug("Push round finished failed", "id", sess.ID, "error", err)
		}
	}
	return nil
}

func (h *WebsocketHandler) handleLogin(ctx context.Context, conn wss.Client, payload []byte) {
	// 檢查是否重複登入
	if h.getPlayerID(conn) != "" {
		h.send(conn, protocol.Response{Action: protocol.ActionLogin, Error: "already logged in", Code: protocol.CodeBadRequest})
		return
	}

	var req protocol.LoginReq
	if err := json.Unmarshal(payload, &req); err != nil || req.PlayerID == "" {
		h.send(conn, protocol.Response{Action: protocol.ActionLogin, Error: "player_id is required", Code: protocol.CodeBadRequest})
		return
	}

	balance, err := h.dispatcher.Balance(ctx, req.PlayerID)
	if err != nil {
		h.logger.Error("Login balance lookup failed", "player_id", req.PlayerID, "error", err)
		h.send(conn, errorResponse(protocol.ActionLogin, err))
		return
	}

	h.stopTimer(conn, tagLoginTimer)
	conn.SetTag(tagPlayerID, req.PlayerID)
	if sess, ok := h.sessionMgr.Get(conn.ID()); ok {
		sess.Bind(req.PlayerID)
	}
	h.logger.Info("Player logged in", "id", conn.ID(), "player_id", req.PlayerID)

	h.send(conn, protocol.Response{Action: protocol.ActionLogin, Data: balance})
}

// -------------------------------------------------------------
// Helpers
// -------------------------------------------------------------

func (h *WebsocketHandler) stopTimer(conn wss.Client, tagKey string) {
	if v, ok := conn.GetTag(tagKey); ok {
		if t, ok := v.(*time.Timer); ok {
			t.Stop()
		}
	}
}

func (h *WebsocketHandler) getPlayerID(conn wss.Client) string {
	if v, ok := conn.GetTag(tagPlayerID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func (h *WebsocketHandler) send(conn wss.Client, resp protocol.Response) {
	bytes, _ := json.Marshal(resp)
	if err := conn.SendMessage(string(bytes)); err != nil {
		h.logger.Debug("Send failed", "id", conn.ID(), "error", err)
	}
}
