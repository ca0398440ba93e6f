package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
	"github.com/JoeShih716/go-blackjack-server/pkg/redis"
)

// Subscriber 訂閱 Redis 上的牌局結束事件，解碼後轉交給下游 (例如稽核 log)
type Subscriber struct {
	rds     *redis.Client
	channel string
	logger  *slog.Logger
}

func NewSubscriber(client *redis.Client, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		rds:     client,
		channel: ChannelRounds,
		logger:  logger.With("component", "round_subscriber"),
	}
}

// Subscribe 開始訂閱，ctx 結束時停止。無法解碼的訊息記錄後略過。
func (s *Subscriber) Subscribe(ctx context.Context, sink ports.EventPublisher) error {
	err := s.rds.Subscribe(ctx, s.channel, func(payload string) {
		var event domain.RoundFinished
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			s.logger.WarnContext(ctx, "Drop malformed round event", "error", err)
			return
		}
		if err := sink.PublishRoundFinished(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "Forward round event failed", "session_id", event.SessionID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.logger.Info("Subscribed to round events", "channel", s.channel)
	return nil
}
