package blackjack

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
)

// DealerStandsOn 莊家補牌直到點數達到此值
const DealerStandsOn = 17

// Game 一位玩家的一局 21 點。
// 所有操作在 mu 內依序套用，終局後拒絕任何操作。
type Game struct {
	id       string
	playerID string
	bet      int64

	mu         sync.Mutex
	player     domain.Hand
	dealer     domain.Hand
	status     domain.Status
	outcome    domain.Outcome
	payout     int64
	balance    int64
	lastAction time.Time

	shoe   domain.Shoe
	wallet domain.Wallet
	now    func() time.Time
	logger *slog.Logger
}

// newGame 發牌：玩家兩張，莊家一張。賭注需已扣除。
func newGame(id, playerID string, bet, balance int64, shoe domain.Shoe, wallet domain.Wallet, now func() time.Time, logger *slog.Logger) *Game {
	g := &Game{
		id:       id,
		playerID: playerID,
		bet:      bet,
		status:   domain.StatusAwaitingAction,
		balance:  balance,
		shoe:     shoe,
		wallet:   wallet,
		now:      now,
		logger:   logger.With("session_id", id, "player_id", playerID),
	}
	g.player = domain.Hand{shoe.Draw(), shoe.Draw()}
	g.dealer = domain.Hand{shoe.Draw()}
	g.lastAction = now()
	return g
}

// ID 牌局 ID
func (g *Game) ID() string { return g.id }

// PlayerID 牌局擁有者
func (g *Game) PlayerID() string { return g.playerID }

// View 目前狀態的快照
func (g *Game) View() domain.GameView {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked()
}

// Hit 玩家要牌。
// 非擁有者的操作直接忽略並回傳目前快照。爆牌即終局，賭注已在開局扣除。
func (g *Game) Hit(ctx context.Context, actorID string) (domain.GameView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if actorID != g.playerID {
		g.logger.DebugContext(ctx, "Ignored hit from non-owner", "actor_id", actorID)
		return g.viewLocked(), nil
	}
	if g.status != domain.StatusAwaitingAction {
		return domain.GameView{}, fmt.Errorf("%w: hit while %s", domain.ErrIllegalAction, g.status)
	}

	g.player = append(g.player, g.shoe.Draw())
	g.lastAction = g.now()

	if g.player.IsBust() {
		g.status = domain.StatusPlayerBusted
		g.outcome = domain.OutcomeBust
		g.refreshBalance(ctx)
		g.logger.InfoContext(ctx, "Player busted", "hand", g.player.String(), "total", g.player.Value())
	}
	return g.viewLocked(), nil
}

// Stand 玩家停牌，莊家補牌到 DealerStandsOn 後結算。
// 派彩寫入失敗時停留在 Resolving 並回傳錯誤；再次 Stand 只重試派彩，不重新補牌。
func (g *Game) Stand(ctx context.Context, actorID string) (domain.GameView, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if actorID != g.playerID {
		g.logger.DebugContext(ctx, "Ignored stand from non-owner", "actor_id", actorID)
		return g.viewLocked(), nil
	}

	switch g.status {
	case domain.StatusAwaitingAction:
		g.status = domain.StatusResolving
		for g.dealer.Value() < DealerStandsOn {
			g.dealer = append(g.dealer, g.shoe.Draw())
		}
		g.outcome, g.payout = settle(g.player.Value(), g.dealer.Value(), g.bet)
	case domain.StatusResolving:
		g.logger.InfoContext(ctx, "Retrying settlement", "payout", g.payout)
	default:
		return domain.GameView{}, fmt.Errorf("%w: stand while %s", domain.ErrIllegalAction, g.status)
	}
	g.lastAction = g.now()

	if g.payout > 0 {
		balance, err := g.wallet.UpdateBalance(ctx, g.playerID, g.payout, fmt.Sprintf("%s:%s", g.outcome, g.id))
		if err != nil {
			g.logger.ErrorContext(ctx, "Settlement failed", "payout", g.payout, "error", err)
			return domain.GameView{}, err
		}
		g.balance = balance
	} else {
		g.refreshBalance(ctx)
	}
	g.status = domain.StatusResolved

	g.logger.InfoContext(ctx, "Round resolved",
		"outcome", g.outcome,
		"payout", g.payout,
		"player_total", g.player.Value(),
		"dealer_total", g.dealer.Value(),
		"balance", g.balance,
	)
	return g.viewLocked(), nil
}

// abandon 閒置超過 ttl 且仍在等待玩家操作時結束牌局，賭注沒收
func (g *Game) abandon(now time.Time, ttl time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.status != domain.StatusAwaitingAction || now.Sub(g.lastAction) < ttl {
		return false
	}
	g.status = domain.StatusAbandoned
	g.outcome = domain.OutcomeAbandoned
	g.logger.Info("Round abandoned", "idle", now.Sub(g.lastAction))
	return true
}

// roundFinished 終局事件
func (g *Game) roundFinished() domain.RoundFinished {
	g.mu.Lock()
	defer g.mu.Unlock()
	return domain.RoundFinished{
		SessionID:   g.id,
		PlayerID:    g.playerID,
		Bet:         g.bet,
		Outcome:     g.outcome,
		Payout:      g.payout,
		PlayerTotal: g.player.Value(),
		DealerTotal: g.dealer.Value(),
		FinishedAt:  g.now(),
	}
}

// refreshBalance 更新快照用的餘額，失敗時保留上一次的值
func (g *Game) refreshBalance(ctx context.Context) {
	balance, err := g.wallet.GetBalance(ctx, g.playerID)
	if err != nil {
		g.logger.WarnContext(ctx, "Refresh balance failed", "error", err)
		return
	}
	g.balance = balance
}

func (g *Game) viewLocked() domain.GameView {
	return domain.GameView{
		SessionID:   g.id,
		PlayerID:    g.playerID,
		Bet:         g.bet,
		PlayerCards: g.player.Clone(),
		DealerCards: g.dealer.Clone(),
		PlayerTotal: g.player.Value(),
		DealerTotal: g.dealer.Value(),
		Status:      g.status,
		Outcome:     g.outcome,
		Payout:      g.payout,
		Balance:     g.balance,
	}
}

// settle 比較點數決定結果與派彩 (派彩含本金)。
// 平手退回本金，莊家勝不派彩。
func settle(playerTotal, dealerTotal int, bet int64) (domain.Outcome, int64) {
	switch {
	case dealerTotal > 21 || playerTotal > dealerTotal:
		return domain.OutcomeWin, 2 * bet
	case playerTotal == dealerTotal:
		return domain.OutcomePush, bet
	default:
		return domain.OutcomeLose, 0
	}
}
