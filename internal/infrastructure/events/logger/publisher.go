package logger

import (
	"context"
	"log/slog"

	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher 只把事件寫進 log，未設定 Redis 時使用
type Publisher struct {
	logger *slog.Logger
}

func NewPublisher(logger *slog.Logger) *Publisher {
	return &Publisher{logger: logger.With("component", "round_events")}
}

func (p *Publisher) PublishRoundFinished(ctx context.Context, event domain.RoundFinished) error {
	p.logger.InfoContext(ctx, "Round finished",
		"session_id", event.SessionID,
		"player_id", event.PlayerID,
		"bet", event.Bet,
		"outcome", event.Outcome,
		"payout", event.Payout,
		"player_total", event.PlayerTotal,
		"dealer_total", event.DealerTotal,
	)
	return nil
}
