package handler

import (
	"log/slog"
	"testing"

	"github.com/JoeShih716/go-blackjack-server/internal/app/blackjack"
	"github.com/JoeShih716/go-blackjack-server/internal/app/wallet"
	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/internal/infrastructure/lock/local"
	"github.com/JoeShih716/go-blackjack-server/internal/infrastructure/wallet/memory"
)

type stack struct {
	dispatcher *Dispatcher
	registry   *blackjack.Registry
	ledger     *wallet.Ledger
	store      *memory.Store
}

// newStack 以記憶體錢包與固定牌序組出完整的依賴
func newStack(t *testing.T, opts []blackjack.Option, ranks ...domain.Rank) *stack {
	t.Helper()
	store := memory.NewStore()
	ledger := wallet.NewLedger(store, local.NewLocker(), slog.Default())
	opts = append([]blackjack.Option{blackjack.WithShoe(domain.NewSequenceShoe(ranks...))}, opts...)
	registry := blackjack.NewRegistry(ledger, slog.Default(), opts...)
	return &stack{
		dispatcher: NewDispatcher(registry, ledger, slog.Default()),
		registry:   registry,
		ledger:     ledger,
		store:      store,
	}
}
