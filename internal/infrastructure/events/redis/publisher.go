package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
	"github.com/JoeShih716/go-blackjack-server/pkg/redis"
)

// ChannelRounds 牌局結束事件的頻道
const ChannelRounds = "blackjack:rounds"

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher 將事件以 JSON 發布到 Redis Pub/Sub
type Publisher struct {
	rds     *redis.Client
	channel string
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{rds: client, channel: ChannelRounds}
}

func (p *Publisher) PublishRoundFinished(ctx context.Context, event domain.RoundFinished) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal round event: %w", err)
	}
	return p.rds.Publish(ctx, p.channel, data)
}
