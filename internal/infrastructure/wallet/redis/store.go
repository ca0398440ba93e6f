package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
	"github.com/JoeShih716/go-blackjack-server/pkg/redis"
)

// KeyWallet 錢包餘額的 key 格式
const KeyWallet = "wallet:%s"

var _ ports.BalanceStore = (*Store)(nil)

// Store 以 Redis 字串保存餘額，可在多個實例間共用
type Store struct {
	rds *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{rds: client}
}

func (s *Store) Get(ctx context.Context, playerID string) (int64, bool, error) {
	val, err := s.rds.Get(ctx, fmt.Sprintf(KeyWallet, playerID))
	if err != nil {
		if redis.IsNil(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	balance, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt balance for %s: %w", playerID, err)
	}
	return balance, true, nil
}

func (s *Store) Put(ctx context.Context, playerID string, balance int64) error {
	return s.rds.Set(ctx, fmt.Sprintf(KeyWallet, playerID), balance, 0)
}
