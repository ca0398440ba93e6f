package blackjack

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
	eventlog "github.com/JoeShih716/go-blackjack-server/internal/infrastructure/events/logger"
)

// Registry 負責管理所有進行中的牌局。
// 每位玩家同時最多一局。終局的牌局保留為 retired，直到玩家開新局或超過閒置時間才移除，
// 期間對它的操作回傳 ErrIllegalAction。
type Registry struct {
	mu       sync.Mutex
	byPlayer map[string]*entry // 每位玩家最近一局
	byID     map[string]*entry
	starting map[string]struct{} // 正在扣注、尚未建立牌局的玩家

	wallet    domain.Wallet
	shoe      domain.Shoe
	publisher ports.EventPublisher
	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
}

type entry struct {
	game      *Game
	retired   bool
	retiredAt time.Time
}

// Option 調整 Registry 參數
type Option func(*Registry)

// WithShoe 指定發牌器 (預設為無限牌靴)
func WithShoe(shoe domain.Shoe) Option {
	return func(r *Registry) { r.shoe = shoe }
}

// WithPublisher 指定終局事件的發布者
func WithPublisher(p ports.EventPublisher) Option {
	return func(r *Registry) { r.publisher = p }
}

// WithClock 指定時間來源
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator 指定牌局 ID 產生器
func WithIDGenerator(newID func() string) Option {
	return func(r *Registry) { r.newID = newID }
}

// NewRegistry 建立牌局管理器
func NewRegistry(wallet domain.Wallet, logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		byPlayer:  make(map[string]*entry),
		byID:      make(map[string]*entry),
		starting:  make(map[string]struct{}),
		wallet:    wallet,
		shoe:      domain.NewRandomShoe(),
		publisher: eventlog.NewPublisher(logger),
		now:       time.Now,
		newID:     uuid.NewString,
		logger:    logger.With("component", "blackjack"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 開局：驗證賭注、扣注、發牌。
// 失敗時不建立牌局，也不變動餘額。
func (r *Registry) Start(ctx context.Context, playerID string, bet int64) (domain.GameView, error) {
	if bet < 1 {
		return domain.GameView{}, domain.ErrInvalidBet
	}

	r.mu.Lock()
	cur, ok := r.byPlayer[playerID]
	active := ok && !cur.retired
	_, pending := r.starting[playerID]
	if active || pending {
		r.mu.Unlock()
		return domain.GameView{}, domain.ErrSessionAlreadyActive
	}
	r.starting[playerID] = struct{}{}
	r.mu.Unlock()

	id := r.newID()
	balance, err := r.wallet.Withdraw(ctx, playerID, bet, "bet:"+id)
	if err != nil {
		r.mu.Lock()
		delete(r.starting, playerID)
		r.mu.Unlock()
		r.logger.WarnContext(ctx, "Start rejected", "player_id", playerID, "bet", bet, "error", err)
		return domain.GameView{}, err
	}

	g := newGame(id, playerID, bet, balance, r.shoe, r.wallet, r.now, r.logger)

	e := &entry{game: g}
	r.mu.Lock()
	delete(r.starting, playerID)
	if prev, ok := r.byPlayer[playerID]; ok {
		delete(r.byID, prev.game.ID())
	}
	r.byPlayer[playerID] = e
	r.byID[id] = e
	r.mu.Unlock()

	view := g.View()
	r.logger.InfoContext(ctx, "Round started",
		"session_id", id,
		"player_id", playerID,
		"bet", bet,
		"balance", balance,
		"hand", view.PlayerCards.String(),
	)
	return view, nil
}

// Hit 玩家要牌
func (r *Registry) Hit(ctx context.Context, playerID string) (domain.GameView, error) {
	g, err := r.byPlayerID(playerID)
	if err != nil {
		return domain.GameView{}, err
	}
	return r.apply(ctx, g, playerID, (*Game).Hit)
}

// Stand 玩家停牌並結算
func (r *Registry) Stand(ctx context.Context, playerID string) (domain.GameView, error) {
	g, err := r.byPlayerID(playerID)
	if err != nil {
		return domain.GameView{}, err
	}
	return r.apply(ctx, g, playerID, (*Game).Stand)
}

// HitSession 以牌局 ID 要牌 (按鈕回呼)。actorID 不是擁有者時為 no-op。
func (r *Registry) HitSession(ctx context.Context, sessionID, actorID string) (domain.GameView, error) {
	g, err := r.bySessionID(sessionID)
	if err != nil {
		return domain.GameView{}, err
	}
	return r.apply(ctx, g, actorID, (*Game).Hit)
}

// StandSession 以牌局 ID 停牌 (按鈕回呼)。actorID 不是擁有者時為 no-op。
func (r *Registry) StandSession(ctx context.Context, sessionID, actorID string) (domain.GameView, error) {
	g, err := r.bySessionID(sessionID)
	if err != nil {
		return domain.GameView{}, err
	}
	return r.apply(ctx, g, actorID, (*Game).Stand)
}

// Session 查詢玩家目前進行中的牌局
func (r *Registry) Session(playerID string) (domain.GameView, error) {
	r.mu.Lock()
	e, ok := r.byPlayer[playerID]
	r.mu.Unlock()
	if !ok || e.retired {
		return domain.GameView{}, domain.ErrNoActiveSession
	}
	return e.game.View(), nil
}

// Active 進行中的牌局數
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.byPlayer {
		if !e.retired {
			n++
		}
	}
	return n
}

// ReapIdle 結束閒置超過 ttl 的牌局，回傳結束的數量。
// 已終局超過 ttl 的牌局一併移除。
func (r *Registry) ReapIdle(ctx context.Context, ttl time.Duration) int {
	now := r.now()

	r.mu.Lock()
	games := make([]*Game, 0, len(r.byPlayer))
	for playerID, e := range r.byPlayer {
		if !e.retired {
			games = append(games, e.game)
			continue
		}
		if now.Sub(e.retiredAt) >= ttl {
			delete(r.byPlayer, playerID)
			delete(r.byID, e.game.ID())
		}
	}
	r.mu.Unlock()

	reaped := 0
	for _, g := range games {
		if g.abandon(now, ttl) {
			r.retire(ctx, g)
			reaped++
		}
	}
	return reaped
}

// Run 定期回收閒置牌局，直到 ctx 結束
func (r *Registry) Run(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Idle reaper started", "interval", interval, "ttl", ttl)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Idle reaper stopped")
			return
		case <-ticker.C:
			if n := r.ReapIdle(ctx, ttl); n > 0 {
				r.logger.Info("Reaped idle rounds", "count", n)
			}
		}
	}
}

func (r *Registry) byPlayerID(playerID string) (*Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byPlayer[playerID]
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	return e.game, nil
}

func (r *Registry) bySessionID(sessionID string) (*Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: session %s", domain.ErrNoActiveSession, sessionID)
	}
	return e.game, nil
}

type action func(g *Game, ctx context.Context, actorID string) (domain.GameView, error)

func (r *Registry) apply(ctx context.Context, g *Game, actorID string, act action) (domain.GameView, error) {
	view, err := act(g, ctx, actorID)
	if err != nil {
		return domain.GameView{}, err
	}
	if view.Status.Terminal() {
		r.retire(ctx, g)
	}
	return view, nil
}

// retire 將終局牌局標記為 retired 並發布事件。只有第一個標記的呼叫者會發布。
func (r *Registry) retire(ctx context.Context, g *Game) {
	r.mu.Lock()
	e, ok := r.byID[g.ID()]
	first := ok && !e.retired
	if first {
		e.retired = true
		e.retiredAt = r.now()
	}
	r.mu.Unlock()

	if !first {
		return
	}
	if err := r.publisher.PublishRoundFinished(ctx, g.roundFinished()); err != nil {
		r.logger.WarnContext(ctx, "Publish round event failed", "session_id", g.ID(), "error", err)
	}
}
