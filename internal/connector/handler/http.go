package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JoeShih716/go-blackjack-server/internal/connector/protocol"
)

// HeaderPlayerID HTTP 請求以此標頭帶入已驗證的玩家 ID
const HeaderPlayerID = "X-Player-ID"

const maxBodyBytes = 4096

// RouterConfig HTTP 路由參數
type RouterConfig struct {
	AllowedOrigins []string     // CORS 允許的 Origin
	WSPath         string       // WebSocket 路徑，WS 為 nil 時忽略
	WS             http.Handler // WebSocket 升級處理器
}

// NewRouter 建立 HTTP 路由
//
//	GET  /healthz
//	POST /v1/blackjack/{action}   (start, hit, stand, session)
//	GET  /v1/wallet
//	GET  <WSPath>                 (WebSocket)
func NewRouter(d *Dispatcher, cfg RouterConfig, logger *slog.Logger) http.Handler {
	h := &httpHandler{dispatcher: d, logger: logger.With("component", "http_handler")}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", HeaderPlayerID},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(10 * time.Second))
		r.Post("/blackjack/{action}", h.handleAction)
		r.Get("/wallet", h.handleWallet)
	})

	if cfg.WS != nil {
		path := cfg.WSPath
		if path == "" {
			path = "/ws"
		}
		r.Handle(path, cfg.WS)
	}
	return r
}

type httpHandler struct {
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func (h *httpHandler) handleAction(w http.ResponseWriter, r *http.Request) {
	action := protocol.ConnectorProtocol(chi.URLParam(r, "action"))
	// login 只適用於 WebSocket，HTTP 以標頭帶身分
	if action == protocol.ActionLogin {
		h.fail(w, action, ErrBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, action, ErrBadRequest)
		return
	}

	data, err := h.dispatcher.Dispatch(r.Context(), r.Header.Get(HeaderPlayerID), action, json.RawMessage(body))
	if err != nil {
		h.fail(w, action, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.Response{Action: action, Data: data})
}

func (h *httpHandler) handleWallet(w http.ResponseWriter, r *http.Request) {
	data, err := h.dispatcher.Dispatch(r.Context(), r.Header.Get(HeaderPlayerID), protocol.ActionBalance, nil)
	if err != nil {
		h.fail(w, protocol.ActionBalance, err)
		return
	}
	writeJSON(w, http.StatusOK, protocol.Response{Action: protocol.ActionBalance, Data: data})
}

func (h *httpHandler) fail(w http.ResponseWriter, action protocol.ConnectorProtocol, err error) {
	resp := errorResponse(action, err)
	status := httpStatus(resp.Code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "action", action, "error", err)
	}
	writeJSON(w, status, resp)
}

func httpStatus(code string) int {
	switch code {
	case protocol.CodeInvalidBet, protocol.CodeBadRequest:
		return http.StatusBadRequest
	case protocol.CodeUnauthorized:
		return http.StatusUnauthorized
	case protocol.CodeNoSession:
		return http.StatusNotFound
	case protocol.CodeInsufficientFunds, protocol.CodeSessionActive, protocol.CodeIllegalAction:
		return http.StatusConflict
	case protocol.CodeLedgerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
