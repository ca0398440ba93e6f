package blackjack_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/JoeShih716/go-blackjack-server/internal/app/blackjack"
	"github.com/JoeShih716/go-blackjack-server/internal/app/wallet"
	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/internal/infrastructure/lock/local"
	"github.com/JoeShih716/go-blackjack-server/internal/infrastructure/wallet/memory"
	mock_ports "github.com/JoeShih716/go-blackjack-server/test/mocks/core/ports"
)

type fixture struct {
	registry *blackjack.Registry
	ledger   *wallet.Ledger
	store    *memory.Store
	shoe     *domain.SequenceShoe
}

func newFixture(t *testing.T, opts []blackjack.Option, ranks ...domain.Rank) *fixture {
	t.Helper()
	store := memory.NewStore()
	ledger := wallet.NewLedger(store, local.NewLocker(), slog.Default())
	shoe := domain.NewSequenceShoe(ranks...)
	opts = append([]blackjack.Option{blackjack.WithShoe(shoe)}, opts...)
	return &fixture{
		registry: blackjack.NewRegistry(ledger, slog.Default(), opts...),
		ledger:   ledger,
		store:    store,
		shoe:     shoe,
	}
}

func (f *fixture) balance(t *testing.T, playerID string) int64 {
	t.Helper()
	b, err := f.ledger.GetBalance(context.Background(), playerID)
	require.NoError(t, err)
	return b
}

func TestRegistry_Start_InvalidBet(t *testing.T) {
	f := newFixture(t, nil, domain.RankTwo)
	ctx := context.Background()

	for _, bet := range []int64{0, -5} {
		_, err := f.registry.Start(ctx, "alice", bet)
		assert.ErrorIs(t, err, domain.ErrInvalidBet)
	}
	assert.Equal(t, int64(2000), f.balance(t, "alice"))
	assert.Equal(t, 0, f.store.Puts())
	assert.Equal(t, 0, f.registry.Active())
}

func TestRegistry_Start_InsufficientFunds(t *testing.T) {
	f := newFixture(t, nil, domain.RankTwo)

	_, err := f.registry.Start(context.Background(), "alice", 2001)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.Equal(t, int64(2000), f.balance(t, "alice"))
	assert.Equal(t, 0, f.registry.Active())

	// 失敗後可以正常開局
	_, err = f.registry.Start(context.Background(), "alice", 2000)
	assert.NoError(t, err)
}

func TestRegistry_Start_DebitsBet(t *testing.T) {
	f := newFixture(t, nil, domain.RankKing, domain.RankSix, domain.RankNine)

	view, err := f.registry.Start(context.Background(), "alice", 100)
	require.NoError(t, err)

	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, "alice", view.PlayerID)
	assert.Equal(t, int64(100), view.Bet)
	assert.Equal(t, domain.StatusAwaitingAction, view.Status)
	assert.Len(t, view.PlayerCards, 2)
	assert.Len(t, view.DealerCards, 1)
	assert.Equal(t, int64(1900), view.Balance)
	assert.Equal(t, int64(1900), f.balance(t, "alice"))
}

func TestRegistry_Start_SessionAlreadyActive(t *testing.T) {
	f := newFixture(t, nil, domain.RankTwo, domain.RankThree, domain.RankFour)
	ctx := context.Background()

	_, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)

	_, err = f.registry.Start(ctx, "alice", 100)
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyActive)
	assert.Equal(t, int64(1900), f.balance(t, "alice"))

	// 其他玩家不受影響
	_, err = f.registry.Start(ctx, "bob", 100)
	assert.NoError(t, err)
	assert.Equal(t, 2, f.registry.Active())
}

func TestRegistry_HitBust(t *testing.T) {
	// 玩家 K Q = 20，莊家 5，要牌 K 爆牌
	f := newFixture(t, nil, domain.RankKing, domain.RankQueen, domain.RankFive, domain.RankKing)
	ctx := context.Background()

	_, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)

	view, err := f.registry.Hit(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPlayerBusted, view.Status)
	assert.Equal(t, domain.OutcomeBust, view.Outcome)
	assert.Equal(t, 30, view.PlayerTotal)
	assert.Equal(t, int64(0), view.Payout)
	assert.Equal(t, int64(1900), view.Balance)
	assert.Equal(t, int64(1900), f.balance(t, "alice"))

	// 終局後不再接受操作，也不算進行中
	_, err = f.registry.Hit(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalAction)
	_, err = f.registry.Stand(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalAction)
	_, err = f.registry.Session("alice")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.Equal(t, 0, f.registry.Active())
	assert.Equal(t, 4, f.shoe.Drawn())
	assert.Equal(t, int64(1900), f.balance(t, "alice"))
}

func TestRegistry_NoRoundStarted(t *testing.T) {
	f := newFixture(t, nil, domain.RankTwo)
	ctx := context.Background()

	_, err := f.registry.Hit(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = f.registry.Stand(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = f.registry.HitSession(ctx, "missing", "alice")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.Equal(t, 0, f.shoe.Drawn())
}

func TestRegistry_StandDealerBusts(t *testing.T) {
	// 玩家 K Q = 20；莊家 6，補 6 K = 22 爆牌
	f := newFixture(t, nil, domain.RankKing, domain.RankQueen, domain.RankSix, domain.RankSix, domain.RankKing)
	ctx := context.Background()

	_, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)

	view, err := f.registry.Stand(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, view.Status)
	assert.Equal(t, domain.OutcomeWin, view.Outcome)
	assert.Equal(t, 20, view.PlayerTotal)
	assert.Equal(t, 22, view.DealerTotal)
	assert.Equal(t, int64(200), view.Payout)
	assert.Equal(t, int64(2100), view.Balance)
	assert.Equal(t, int64(2100), f.balance(t, "alice"))
	assert.Equal(t, 0, f.registry.Active())
}

func TestRegistry_StandPush(t *testing.T) {
	// 玩家 K 9 = 19；莊家 9 K = 19
	f := newFixture(t, nil, domain.RankKing, domain.RankNine, domain.RankNine, domain.RankKing)
	ctx := context.Background()

	_, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1900), f.balance(t, "alice"))

	view, err := f.registry.Stand(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePush, view.Outcome)
	assert.Equal(t, int64(100), view.Payout)
	assert.Equal(t, int64(2000), view.Balance)
	assert.Equal(t, int64(2000), f.balance(t, "alice"))
}

func TestRegistry_StandDealerWins(t *testing.T) {
	// 玩家 K 7 = 17；莊家 10 9 = 19
	f := newFixture(t, nil, domain.RankKing, domain.RankSeven, domain.RankTen, domain.RankNine)
	ctx := context.Background()

	_, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)

	view, err := f.registry.Stand(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeLose, view.Outcome)
	assert.Equal(t, int64(0), view.Payout)
	assert.Equal(t, int64(1900), view.Balance)
	assert.Equal(t, int64(1900), f.balance(t, "alice"))
}

func TestRegistry_ButtonsOnFinishedRoundAreIllegal(t *testing.T) {
	// 爆牌後再按按鈕：玩家 K Q，莊家 5，要牌 K
	f := newFixture(t, nil,
		domain.RankKing, domain.RankQueen, domain.RankFive, domain.RankKing,
		// 第二局：玩家 K 9 = 19；莊家 10 9 = 19
		domain.RankKing, domain.RankNine, domain.RankTen, domain.RankNine,
	)
	ctx := context.Background()

	first, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)
	busted, err := f.registry.HitSession(ctx, first.SessionID, "alice")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPlayerBusted, busted.Status)

	_, err = f.registry.HitSession(ctx, first.SessionID, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalAction)
	_, err = f.registry.StandSession(ctx, first.SessionID, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalAction)
	assert.Equal(t, 4, f.shoe.Drawn())
	assert.Equal(t, int64(1900), f.balance(t, "alice"))

	// 終局的牌局不阻擋開新局
	second, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1800), f.balance(t, "alice"))

	// 舊牌局被取代後查不到
	_, err = f.registry.HitSession(ctx, first.SessionID, "alice")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	resolved, err := f.registry.StandSession(ctx, second.SessionID, "alice")
	require.NoError(t, err)
	require.Equal(t, domain.StatusResolved, resolved.Status)
	assert.Equal(t, int64(1900), f.balance(t, "alice"))

	view, err := f.registry.HitSession(ctx, second.SessionID, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalAction)
	assert.Empty(t, view.SessionID)
	_, err = f.registry.StandSession(ctx, second.SessionID, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalAction)
	assert.Equal(t, 8, f.shoe.Drawn())
	assert.Equal(t, int64(1900), f.balance(t, "alice"))

	// 非擁有者按鈕仍是 no-op
	view, err = f.registry.HitSession(ctx, second.SessionID, "mallory")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, view.Status)
}

func TestRegistry_ConcurrentDuplicateHits(t *testing.T) {
	// 玩家 K Q，莊家 5，第一次要牌即爆牌
	f := newFixture(t, nil, domain.RankKing, domain.RankQueen, domain.RankFive, domain.RankKing)
	ctx := context.Background()

	_, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)

	var mu sync.Mutex
	var applied []domain.GameView
	wg := sync.WaitGroup{}
	numGoroutines := 20
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			view, err := f.registry.Hit(ctx, "alice")
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrIllegalAction)
				return
			}
			mu.Lock()
			applied = append(applied, view)
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, applied, 1)
	assert.Len(t, applied[0].PlayerCards, 3)
	assert.Equal(t, 4, f.shoe.Drawn())
	assert.Equal(t, int64(1900), f.balance(t, "alice"))
}

func TestRegistry_ConcurrentStarts(t *testing.T) {
	f := newFixture(t, nil, domain.RankTwo, domain.RankThree, domain.RankFour)
	ctx := context.Background()

	var mu sync.Mutex
	started := 0
	wg := sync.WaitGroup{}
	wg.Add(20)
	for i := 0; i < 20; i++ {
		go func() {
			defer wg.Done()
			_, err := f.registry.Start(ctx, "alice", 100)
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrSessionAlreadyActive)
				return
			}
			mu.Lock()
			started++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, started)
	assert.Equal(t, int64(1900), f.balance(t, "alice"))
}

func TestRegistry_ConcurrentPlayersAreIsolated(t *testing.T) {
	f := newFixture(t, nil, domain.RankKing, domain.RankNine, domain.RankNine, domain.RankKing)
	ctx := context.Background()

	players := []string{"p1", "p2", "p3", "p4", "p5", "p6", "p7", "p8"}
	wg := sync.WaitGroup{}
	wg.Add(len(players))
	for _, p := range players {
		go func(playerID string) {
			defer wg.Done()
			_, err := f.registry.Start(ctx, playerID, 10)
			if !assert.NoError(t, err) {
				return
			}
			_, err = f.registry.Stand(ctx, playerID)
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	assert.Equal(t, 0, f.registry.Active())
	for _, p := range players {
		b := f.balance(t, p)
		// 依牌序不同可能勝、平或負，但一定是合法結果之一
		assert.Contains(t, []int64{1990, 2000, 2010}, b, "player %s", p)
	}
}

func TestRegistry_NonOwnerActionsIgnored(t *testing.T) {
	f := newFixture(t, nil, domain.RankTwo, domain.RankThree, domain.RankFour, domain.RankFive)
	ctx := context.Background()

	start, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)

	view, err := f.registry.HitSession(ctx, start.SessionID, "mallory")
	require.NoError(t, err)
	assert.Equal(t, start.PlayerCards, view.PlayerCards)

	view, err = f.registry.StandSession(ctx, start.SessionID, "mallory")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAwaitingAction, view.Status)
	assert.Equal(t, 3, f.shoe.Drawn())

	// 擁有者可透過牌局 ID 操作
	view, err = f.registry.HitSession(ctx, start.SessionID, "alice")
	require.NoError(t, err)
	assert.Len(t, view.PlayerCards, 3)
}

func TestRegistry_StartLedgerFailure(t *testing.T) {
	f := newFixture(t, nil, domain.RankTwo, domain.RankThree, domain.RankFour)
	ctx := context.Background()

	f.store.FailPuts(true)
	_, err := f.registry.Start(ctx, "alice", 100)
	assert.ErrorIs(t, err, domain.ErrLedgerIO)
	assert.Equal(t, 0, f.registry.Active())
	assert.Equal(t, 0, f.shoe.Drawn())

	f.store.FailPuts(false)
	assert.Equal(t, int64(2000), f.balance(t, "alice"))
	_, err = f.registry.Start(ctx, "alice", 100)
	assert.NoError(t, err)
}

func TestRegistry_SettlementFailureCanBeRetried(t *testing.T) {
	f := newFixture(t, nil, domain.RankKing, domain.RankQueen, domain.RankSix, domain.RankSix, domain.RankKing)
	ctx := context.Background()

	_, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)

	f.store.FailPuts(true)
	_, err = f.registry.Stand(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrLedgerIO)

	view, err := f.registry.Session("alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolving, view.Status)
	assert.Equal(t, 22, view.DealerTotal)

	// 結算中仍視為進行中
	_, err = f.registry.Start(ctx, "alice", 100)
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyActive)
	_, err = f.registry.Hit(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalAction)

	f.store.FailPuts(false)
	assert.Equal(t, int64(1900), f.balance(t, "alice"))

	view, err = f.registry.Stand(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusResolved, view.Status)
	assert.Equal(t, 22, view.DealerTotal)
	assert.Len(t, view.DealerCards, 3)
	assert.Equal(t, int64(2100), f.balance(t, "alice"))
	assert.Equal(t, 5, f.shoe.Drawn())
}

func TestRegistry_ReapIdle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		clockMu.Lock()
		defer clockMu.Unlock()
		now = now.Add(d)
	}

	publisher := mock_ports.NewMockEventPublisher(ctrl)
	f := newFixture(t, []blackjack.Option{
		blackjack.WithClock(clock),
		blackjack.WithPublisher(publisher),
	}, domain.RankTwo, domain.RankThree, domain.RankFour)
	ctx := context.Background()

	start, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)

	advance(time.Minute)
	assert.Equal(t, 0, f.registry.ReapIdle(ctx, 3*time.Minute))

	publisher.EXPECT().
		PublishRoundFinished(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev domain.RoundFinished) error {
			assert.Equal(t, start.SessionID, ev.SessionID)
			assert.Equal(t, domain.OutcomeAbandoned, ev.Outcome)
			assert.Equal(t, int64(0), ev.Payout)
			return nil
		}).
		Times(1)

	advance(3 * time.Minute)
	assert.Equal(t, 1, f.registry.ReapIdle(ctx, 3*time.Minute))
	assert.Equal(t, 0, f.registry.Active())
	assert.Equal(t, int64(1900), f.balance(t, "alice"))

	_, err = f.registry.Hit(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalAction)
	_, err = f.registry.HitSession(ctx, start.SessionID, "alice")
	assert.ErrorIs(t, err, domain.ErrIllegalAction)

	// 終局超過 ttl 後移除，不再發布事件
	advance(3 * time.Minute)
	assert.Equal(t, 0, f.registry.ReapIdle(ctx, 3*time.Minute))
	_, err = f.registry.Hit(ctx, "alice")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = f.registry.HitSession(ctx, start.SessionID, "alice")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	assert.Equal(t, 3, f.shoe.Drawn())
}

func TestRegistry_PublishesOnceAndIgnoresPublishErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	publisher := mock_ports.NewMockEventPublisher(ctrl)
	f := newFixture(t, []blackjack.Option{blackjack.WithPublisher(publisher)},
		domain.RankKing, domain.RankNine, domain.RankTen, domain.RankNine)
	ctx := context.Background()

	publisher.EXPECT().
		PublishRoundFinished(gomock.Any(), gomock.Any()).
		Return(errors.New("broker down")).
		Times(1)

	_, err := f.registry.Start(ctx, "alice", 100)
	require.NoError(t, err)

	view, err := f.registry.Stand(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomePush, view.Outcome)
	assert.Equal(t, int64(2000), f.balance(t, "alice"))
}

func TestRegistry_DefaultPublisherLogsRound(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	store := memory.NewStore()
	ledger := wallet.NewLedger(store, local.NewLocker(), logger)
	shoe := domain.NewSequenceShoe(domain.RankKing, domain.RankNine, domain.RankTen, domain.RankNine)
	registry := blackjack.NewRegistry(ledger, logger, blackjack.WithShoe(shoe))
	ctx := context.Background()

	_, err := registry.Start(ctx, "alice", 100)
	require.NoError(t, err)
	_, err = registry.Stand(ctx, "alice")
	require.NoError(t, err)

	var line string
	for _, l := range strings.Split(buf.String(), "\n") {
		if strings.Contains(l, `msg="Round finished"`) {
			line = l
		}
	}
	require.NotEmpty(t, line)
	assert.Equal(t, 1, strings.Count(line, "component="), line)
	assert.Contains(t, line, "component=round_events")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRegistry_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t, nil, domain.RankTwo)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.registry.Run(ctx, 10*time.Millisecond, time.Minute)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
}
