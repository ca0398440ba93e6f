package ports

import "context"

// BalanceStore 定義錢包餘額的持久化介面 (玩家 ID -> 整數餘額)。
// 實作只負責讀寫，不負責鎖與預設值；原子性由 Ledger 透過 Locker 保證。
//
//go:generate mockgen -destination=../../../test/mocks/core/ports/mock_balance_store.go -package=mock_ports github.com/JoeShih716/go-blackjack-server/internal/core/ports BalanceStore
type BalanceStore interface {
	// Get 讀取餘額，found=false 表示此玩家尚無紀錄
	Get(ctx context.Context, playerID string) (balance int64, found bool, err error)

	// Put 寫入餘額，回傳 nil 代表已持久化
	Put(ctx context.Context, playerID string, balance int64) error
}
