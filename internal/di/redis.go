package di

import (
	"fmt"

	"github.com/JoeShih716/go-blackjack-server/internal/config"
	infraRedis "github.com/JoeShih716/go-blackjack-server/internal/infrastructure/redis"
	pkgRedis "github.com/JoeShih716/go-blackjack-server/pkg/redis"
)

// InitializeRedisProvider 依設定建立 Redis Provider。
// 沒有任何元件需要 Redis 時回傳 nil。
func InitializeRedisProvider(cfg *config.Config) (*infraRedis.Provider, error) {
	if !cfg.NeedsRedis() {
		return nil, nil
	}
	return infraRedis.NewProvider(cfg.Redis)
}

func redisClient(p *infraRedis.Provider, name infraRedis.DBName) (*pkgRedis.Client, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: %s (redis disabled)", errRedisDBMissing, name)
	}
	client := p.Get(name)
	if client == nil {
		return nil, fmt.Errorf("%w: %s", errRedisDBMissing, name)
	}
	return client, nil
}
