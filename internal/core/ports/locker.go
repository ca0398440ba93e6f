package ports

import "context"

// Locker 提供以 key 為單位的互斥鎖
//
//go:generate mockgen -destination=../../../test/mocks/core/ports/mock_locker.go -package=mock_ports github.com/JoeShih716/go-blackjack-server/internal/core/ports Locker
type Locker interface {
	// Lock 取得 key 的鎖，直到取得或 ctx 結束為止。
	// 回傳的 unlock 必須被呼叫恰好一次。
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
