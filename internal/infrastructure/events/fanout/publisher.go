package fanout

import (
	"context"
	"errors"

	"github.com/JoeShih716/go-blackjack-server/internal/core/domain"
	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher 將事件依序交給每個下游，單一下游失敗不影響其他下游
type Publisher struct {
	targets []ports.EventPublisher
}

func NewPublisher(targets ...ports.EventPublisher) *Publisher {
	return &Publisher{targets: targets}
}

// Add 加入下游 (僅在開始發布前呼叫)
func (p *Publisher) Add(target ports.EventPublisher) {
	p.targets = append(p.targets, target)
}

func (p *Publisher) PublishRoundFinished(ctx context.Context, event domain.RoundFinished) error {
	var errs []error
	for _, t := range p.targets {
		if err := t.PublishRoundFinished(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
