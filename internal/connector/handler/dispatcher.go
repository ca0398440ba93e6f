package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JoeShih716/go-blackjack-server/internal/connector/protocol"
	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
)

var (
	// ErrBadRequest 封包格式錯誤或未知指令
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized 尚未綁定玩家身分
	ErrUnauthorized = errors.New("unauthorized")
)

// Dispatcher 將指令轉成牌局/錢包操作，WebSocket 與 HTTP 共用
type Dispatcher struct {
	games  Blackjack
	wallet BalanceReader
	logger *slog.Logger
}

// NewDispatcher 建立指令分派器
func NewDispatcher(games Blackjack, wallet BalanceReader, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		games:  games,
		wallet: wallet,
		logger: logger.With("component", "dispatcher"),
	}
}

// Dispatch 執行指令
//
// 參數:
//
//	playerID: string - 已驗證的玩家 ID
//	action: protocol.ConnectorProtocol - 指令代碼 (login 不在此處理)
//	payload: json.RawMessage - 請求內容，可為空
//
// 回傳值:
//
//	any: 回應資料 (domain.GameView 或 protocol.BalanceResp)
//	error: domain 錯誤、ErrBadRequest 或 ErrUnauthorized
func (d *Dispatcher) Dispatch(ctx context.Context, playerID string, action protocol.ConnectorProtocol, payload json.RawMessage) (any, error) {
	if playerID == "" {
		return nil, ErrUnauthorized
	}

	switch action {
	case protocol.ActionStart:
		var req protocol.StartReq
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return d.games.Start(ctx, playerID, req.Bet)

	case protocol.ActionHit, protocol.ActionStand:
		var req protocol.ActReq
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return d.act(ctx, playerID, action, req.SessionID)

	case protocol.ActionBalance:
		balance, err := d.wallet.GetBalance(ctx, playerID)
		if err != nil {
			return nil, err
		}
		return protocol.BalanceResp{PlayerID: playerID, Balance: balance}, nil

	case protocol.ActionSession:
		return d.games.Session(playerID)
	}

	return nil, fmt.Errorf("%w: unknown action %q", ErrBadRequest, action)
}

func (d *Dispatcher) act(ctx context.Context, playerID string, action protocol.ConnectorProtocol, sessionID string) (domain.GameView, error) {
	hit := action == protocol.ActionHit
	switch {
	case sessionID != "" && hit:
		return d.games.HitSession(ctx, sessionID, playerID)
	case sessionID != "":
		return d.games.StandSession(ctx, sessionID, playerID)
	case hit:
		return d.games.Hit(ctx, playerID)
	default:
		return d.games.Stand(ctx, playerID)
	}
}

// Balance 查詢餘額
func (d *Dispatcher) Balance(ctx context.Context, playerID string) (protocol.BalanceResp, error) {
	data, err := d.Dispatch(ctx, playerID, protocol.ActionBalance, nil)
	if err != nil {
		return protocol.BalanceResp{}, err
	}
	return data.(protocol.BalanceResp), nil
}

func decode(payload json.RawMessage, dst any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// ErrorCode 將錯誤轉成對外的錯誤代碼
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidBet):
		return protocol.CodeInvalidBet
	case errors.Is(err, domain.ErrInsufficientFunds):
		return protocol.CodeInsufficientFunds
	case errors.Is(err, domain.ErrSessionAlreadyActive):
		return protocol.CodeSessionActive
	case errors.Is(err, domain.ErrNoActiveSession):
		return protocol.CodeNoSession
	case errors.Is(err, domain.ErrIllegalAction):
		return protocol.CodeIllegalAction
	case errors.Is(err, domain.ErrLedgerIO):
		return protocol.CodeLedgerUnavailable
	case errors.Is(err, ErrBadRequest):
		return protocol.CodeBadRequest
	case errors.Is(err, ErrUnauthorized):
		return protocol.CodeUnauthorized
	default:
		return protocol.CodeInternal
	}
}

// errorResponse 組成錯誤回應。內部錯誤不回傳細節。
func errorResponse(action protocol.ConnectorProtocol, err error) protocol.Response {
	code := ErrorCode(err)
	msg := err.Error()
	if code == protocol.CodeInternal {
		msg = "internal error"
	}
	return protocol.Response{Action: action, Error: msg, Code: code}
}
