package handler

import (
	"context"

	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
)

// Blackjack 定義了 Gateway 需要的牌局操作
type Blackjack interface {
	Start(ctx context.Context, playerID string, bet int64) (domain.GameView, error)
	Hit(ctx context.Context, playerID string) (domain.GameView, error)
	Stand(ctx context.Context, playerID string) (domain.GameView, error)
	HitSession(ctx context.Context, sessionID, actorID string) (domain.GameView, error)
	StandSession(ctx context.Context, sessionID, actorID string) (domain.GameView, error)
	Session(playerID string) (domain.GameView, error)
}

// BalanceReader 定義了查詢餘額的介面
type BalanceReader interface {
	GetBalance(ctx context.Context, playerID string) (int64, error)
}
