package domain

import "errors"

// 牌局與錢包的領域錯誤。
// 除 ErrLedgerIO 外皆為可復原的驗證錯誤，發生時不會變更任何狀態。
var (
	// ErrInvalidBet 下注金額小於 1
	ErrInvalidBet = errors.New("bet must be at least 1")

	// ErrInsufficientFunds 下注金額超過目前餘額
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSessionAlreadyActive 玩家已有進行中的牌局
	ErrSessionAlreadyActive = errors.New("session already active")

	// ErrNoActiveSession 玩家沒有進行中的牌局
	ErrNoActiveSession = errors.New("no active session")

	// ErrIllegalAction 牌局目前狀態不接受此操作
	ErrIllegalAction = errors.New("illegal action")

	// ErrLedgerIO 錢包儲存層讀寫失敗，當次操作中止
	ErrLedgerIO = errors.New("ledger io failure")
)
