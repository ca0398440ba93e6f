package domain

import "context"

// DefaultBalance 未曾出現過的玩家的初始餘額
const DefaultBalance int64 = 2000

// Wallet 定義了通用的錢包操作介面。
// 遵循依賴反轉原則 (DIP)，核心層只定義介面，具體實作 (JSON 檔案, Redis, MySQL) 由基礎設施層負責。
type Wallet interface {
	// GetBalance 查詢玩家當前餘額，未曾出現的玩家回傳預設餘額
	//
	// 參數:
	//
	//	ctx: context.Context - 上下文
	//	playerID: string - 玩家 ID
	//
	// 回傳值:
	//
	//	int64: 當前餘額
	//	error: 儲存層讀取失敗時回傳 (包裝 ErrLedgerIO)
	GetBalance(ctx context.Context, playerID string) (int64, error)

	// UpdateBalance 以 delta 調整餘額 (可為負)，同一玩家的讀-改-寫為原子操作
	//
	// 參數:
	//
	//	ctx: context.Context - 上下文
	//	playerID: string - 玩家 ID
	//	delta: int64 - 變動金額
	//	reason: string - 異動原因 (用於稽核，例如: "win:<session>")
	//
	// 回傳值:
	//
	//	int64: 異動後的最新餘額
	//	error: 儲存層寫入失敗時回傳 (包裝 ErrLedgerIO)，此時餘額視為未變更
	UpdateBalance(ctx context.Context, playerID string, delta int64, reason string) (int64, error)

	// Withdraw 檢查餘額足夠後扣款，檢查與扣款在同一把鎖內完成
	//
	// 參數:
	//
	//	ctx: context.Context - 上下文
	//	playerID: string - 玩家 ID
	//	amount: int64 - 扣款金額
	//	reason: string - 扣款原因 (例如: "bet:<session>")
	//
	// 回傳值:
	//
	//	int64: 扣款後的最新餘額
	//	error: 餘額不足回傳 ErrInsufficientFunds；儲存層失敗回傳 ErrLedgerIO
	Withdraw(ctx context.Context, playerID string, amount int64, reason string) (int64, error)
}
