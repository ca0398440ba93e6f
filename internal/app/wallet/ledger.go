package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
)

var _ domain.Wallet = (*Ledger)(nil)

// Ledger 是餘額的唯一權威。
// 同一玩家的讀-改-寫透過 Locker 互斥，不同玩家可並行。
// 只有 BalanceStore 寫入成功後才回報新餘額。
type Ledger struct {
	store          ports.BalanceStore
	locker         ports.Locker
	defaultBalance int64
	logger         *slog.Logger
}

// Option 調整 Ledger 參數
type Option func(*Ledger)

// WithDefaultBalance 覆蓋新玩家的初始餘額
func WithDefaultBalance(balance int64) Option {
	return func(l *Ledger) { l.defaultBalance = balance }
}

// NewLedger 建立錢包帳本
func NewLedger(store ports.BalanceStore, locker ports.Locker, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:          store,
		locker:         locker,
		defaultBalance: domain.DefaultBalance,
		logger:         logger.With("component", "ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func lockKey(playerID string) string {
	return "wallet:" + playerID
}

// GetBalance 查詢餘額，沒有紀錄時回傳預設餘額 (不寫入)
func (l *Ledger) GetBalance(ctx context.Context, playerID string) (int64, error) {
	return l.read(ctx, playerID)
}

func (l *Ledger) read(ctx context.Context, playerID string) (int64, error) {
	balance, found, err := l.store.Get(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s: %w", domain.ErrLedgerIO, playerID, err)
	}
	if !found {
		return l.defaultBalance, nil
	}
	return balance, nil
}

// UpdateBalance 以 delta 調整餘額並持久化
func (l *Ledger) UpdateBalance(ctx context.Context, playerID string, delta int64, reason string) (int64, error) {
	return l.mutate(ctx, playerID, reason, func(current int64) (int64, error) {
		return current + delta, nil
	})
}

// Withdraw 餘額足夠時扣款，否則回傳 domain.ErrInsufficientFunds 且不寫入
func (l *Ledger) Withdraw(ctx context.Context, playerID string, amount int64, reason string) (int64, error) {
	return l.mutate(ctx, playerID, reason, func(current int64) (int64, error) {
		if amount > current {
			return 0, domain.ErrInsufficientFunds
		}
		return current - amount, nil
	})
}

func (l *Ledger) mutate(ctx context.Context, playerID, reason string, apply func(current int64) (int64, error)) (int64, error) {
	unlock, err := l.locker.Lock(ctx, lockKey(playerID))
	if err != nil {
		return 0, fmt.Errorf("%w: lock %s: %w", domain.ErrLedgerIO, playerID, err)
	}
	defer unlock()

	current, err := l.read(ctx, playerID)
	if err != nil {
		return 0, err
	}
	next, err := apply(current)
	if err != nil {
		return current, err
	}
	if err := l.store.Put(ctx, playerID, next); err != nil {
		l.logger.ErrorContext(ctx, "Persist balance failed",
			"player_id", playerID, "reason", reason, "balance", current, "error", err)
		return current, fmt.Errorf("%w: write %s: %w", domain.ErrLedgerIO, playerID, err)
	}

	l.logger.InfoContext(ctx, "Balance updated",
		"player_id", playerID, "reason", reason, "delta", next-current, "balance", next)
	return next, nil
}
