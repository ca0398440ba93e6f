package wss

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
)

// Server 是 websocket package 對外的主要門面 (Facade)，並實現了 http.Handler 介面。
type Server struct {
	hub      *hub
	cfg      *Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// 確保 Server 實現了 http.Handler 介面
var _ http.Handler = (*Server)(nil)

// NewServer 創建並設定一個完整的 WebSocket 伺服器。
//
// @param ctx - 用於控制伺服器生命週期的上下文，結束時關閉所有連線。
// @param cfg - WebSocket 伺服器的設定參數，未設定的欄位使用預設值。
// @param logger - 用於記錄日誌的 slog 實例。
// @return *Server - 一個初始化完成的 WebSocket 伺服器實例。
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) *Server {
	cfg.withDefaults()

	h := newHub(ctx, logger.With("component", "hub"))
	go h.run()

	s := &Server{
		hub:    h,
		cfg:    cfg,
		logger: logger.With("component", "wss_server"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Register 將一個業務邏輯處理器 (Subscriber) 註冊到 WebSocket 伺服器。
//
// @param subscriber - 實現了 Subscriber 介面的事件處理器。
func (s *Server) Register(subscriber Subscriber) {
	s.hub.registerSubscriber(subscriber)
}

// Count 目前的連線數
func (s *Server) Count() int {
	return s.hub.count()
}

// ServeHTTP 實現 http.Handler 介面，處理 WebSocket 的升級請求。
//
// @param w - http.ResponseWriter，用於寫入 HTTP 回應。
// @param r - *http.Request，收到的 HTTP 請求。
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := newConnection(s.hub, conn, r, s.cfg.SendBufferSize, s.logger.With("component", "client"))
	// OnConnect 完成後才開始讀取，保證訂閱者先看到連線建立
	s.hub.register(client)

	go client.writePump(s.cfg)
	go client.readPump(s.cfg)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	// 如果沒有 Origin 標頭，通常是非瀏覽器請求 (e.g. Server-to-Server)，允許
	if origin == "" {
		return true
	}
	// 若未設定 AllowedOrigins，拒絕所有跨域連線
	if len(s.cfg.AllowedOrigins) == 0 {
		return false
	}
	return slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin)
}
