package protocol

import "encoding/json"

// ConnectorProtocol 定義指令代碼 (使用 string 方便前端對接)
type ConnectorProtocol string

const (
	ActionLogin   ConnectorProtocol = "login"   // 綁定玩家身分 (僅 WebSocket)
	ActionStart   ConnectorProtocol = "start"   // 下注開局
	ActionHit     ConnectorProtocol = "hit"     // 要牌
	ActionStand   ConnectorProtocol = "stand"   // 停牌
	ActionBalance ConnectorProtocol = "balance" // 查詢餘額
	ActionSession ConnectorProtocol = "session" // 查詢進行中的牌局

	// PushRoundFinished 伺服器主動推送的牌局結束通知
	PushRoundFinished ConnectorProtocol = "round_finished"
)

// 錯誤代碼
const (
	CodeInvalidBet        = "invalid_bet"
	CodeInsufficientFunds = "insufficient_funds"
	CodeSessionActive     = "session_active"
	CodeNoSession         = "no_session"
	CodeIllegalAction     = "illegal_action"
	CodeLedgerUnavailable = "ledger_unavailable"
	CodeBadRequest        = "bad_request"
	CodeUnauthorized      = "unauthorized"
	CodeInternal          = "internal"
)

// Envelope 基礎封包結構 (所有請求的外層包裝)
type Envelope struct {
	Action  ConnectorProtocol `json:"action"`            // 指令代碼
	Payload json.RawMessage   `json:"payload,omitempty"` // 具體請求內容
}

// Response 通用回應結構 (所有回應的外層包裝)
type Response struct {
	Action ConnectorProtocol `json:"action"`          // 對應的指令代碼
	Data   any               `json:"data,omitempty"`  // 成功時的資料
	Error  string            `json:"error,omitempty"` // 失敗時的錯誤訊息
	Code   string            `json:"code,omitempty"`  // 失敗時的錯誤代碼
}

// LoginReq 登入請求。身分驗證由上游平台負責，這裡只綁定玩家 ID。
type LoginReq struct {
	PlayerID string `json:"player_id"`
}

// BalanceResp 餘額回應 (login / balance)
type BalanceResp struct {
	PlayerID string `json:"player_id"`
	Balance  int64  `json:"balance"`
}

// StartReq 開局請求
type StartReq struct {
	Bet int64 `json:"bet"`
}

// ActReq 要牌/停牌請求，帶 SessionID 時以牌局 ID 操作
type ActReq struct {
	SessionID string `json:"session_id,omitempty"`
}
