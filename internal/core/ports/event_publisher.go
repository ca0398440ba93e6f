package ports

import (
	"context"

	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
)

// EventPublisher 發布牌局事件給外部訂閱者 (排行榜、稽核等)
//
//go:generate mockgen -destination=../../../test/mocks/core/ports/mock_event_publisher.go -package=mock_ports github.com/JoeShih716/go-blackjack-server/internal/core/ports EventPublisher
type EventPublisher interface {
	PublishRoundFinished(ctx context.Context, event domain.RoundFinished) error
}
