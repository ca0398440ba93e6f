package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JoeShih716/go-blackjack-server/internal/app/wallet"
	"github.com/JoeShih716/go-blackjack-server/internal/config"
	"github.com/JoeShih716/go-blackjack-server/internal/core/ports"
	"github.com/JoeShih716/go-blackjack-server/internal/infrastructure/events/fanout"
	eventlog "github.com/JoeShih716/go-blackjack-server/internal/infrastructure/events/logger"
	eventredis "github.com/JoeShih716/go-blackjack-server/internal/infrastructure/events/redis"
	"github.com/JoeShih716/go-blackjack-server/internal/infrastructure/lock/local"
	lockredis "github.com/JoeShih716/go-blackjack-server/internal/infrastructure/lock/redis"
	infraRedis "github.com/JoeShih716/go-blackjack-server/internal/infrastructure/redis"
	"github.com/JoeShih716/go-blackjack-server/internal/infrastructure/wallet/jsonfile"
	"github.com/JoeShih716/go-blackjack-server/internal/infrastructure/wallet/memory"
	walletmysql "github.com/JoeShih716/go-blackjack-server/internal/infrastructure/wallet/mysql"
	walletredis "github.com/JoeShih716/go-blackjack-server/internal/infrastructure/wallet/redis"
	mysqlpkg "github.com/JoeShih716/go-blackjack-server/pkg/mysql"
)

var errRedisDBMissing = errors.New("redis db not configured")

// ProvideBalanceStore 依 wallet.backend 建立餘額儲存。
// 回傳的 cleanup 需在關閉時呼叫。
func ProvideBalanceStore(cfg *config.Config, redisProvider *infraRedis.Provider) (ports.BalanceStore, func(), error) {
	noop := func() {}

	switch cfg.Wallet.Backend {
	case config.WalletBackendJSON:
		store, err := jsonfile.Open(cfg.Wallet.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.WalletBackendRedis:
		client, err := redisClient(redisProvider, infraRedis.DBNameWallet)
		if err != nil {
			return nil, noop, err
		}
		return walletredis.NewStore(client), noop, nil

	case config.WalletBackendMySQL:
		client, err := mysqlpkg.NewClient(mysqlpkg.Config{
			Host:     cfg.MySQL.Host,
			Port:     cfg.MySQL.Port,
			User:     cfg.MySQL.User,
			Password: cfg.MySQL.Password,
			DBName:   cfg.MySQL.DBName,
		})
		if err != nil {
			return nil, noop, err
		}
		store := walletmysql.NewStore(client)
		if err := store.Migrate(context.Background()); err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return store, func() { _ = client.Close() }, nil

	case config.WalletBackendMemory:
		slog.Warn("Using in-memory wallet, balances are lost on restart")
		return memory.NewStore(), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown wallet backend %q", cfg.Wallet.Backend)
}

// ProvideLocker 依 wallet.lock 建立鎖。多個程序共用同一份餘額時需使用 redis。
func ProvideLocker(cfg *config.Config, redisProvider *infraRedis.Provider, logger *slog.Logger) (ports.Locker, error) {
	if cfg.Wallet.Lock != config.LockRedis {
		return local.NewLocker(), nil
	}
	client, err := redisClient(redisProvider, infraRedis.DBNameWallet)
	if err != nil {
		return nil, err
	}
	return lockredis.NewLocker(client, logger), nil
}

// ProvideLedger 建立錢包帳本
func ProvideLedger(cfg *config.Config, store ports.BalanceStore, locker ports.Locker, logger *slog.Logger) *wallet.Ledger {
	return wallet.NewLedger(store, locker, logger, wallet.WithDefaultBalance(cfg.Wallet.DefaultBalance))
}

// ProvidePublisher 組合牌局事件的下游：一律寫 log，啟用時發布到 Redis
func ProvidePublisher(cfg *config.Config, redisProvider *infraRedis.Provider, logger *slog.Logger) (*fanout.Publisher, error) {
	publisher := fanout.NewPublisher(eventlog.NewPublisher(logger))
	if !cfg.Blackjack.PublishEvents {
		return publisher, nil
	}
	client, err := redisClient(redisProvider, infraRedis.DBNameEvents)
	if err != nil {
		return nil, err
	}
	publisher.Add(eventredis.NewPublisher(client))
	return publisher, nil
}

// StartRoundAudit 啟用 blackjack.audit_rounds 時訂閱 Redis 上的牌局事件並寫入稽核 log，ctx 結束時停止
func StartRoundAudit(ctx context.Context, cfg *config.Config, redisProvider *infraRedis.Provider, logger *slog.Logger) error {
	if !cfg.Blackjack.AuditRounds {
		return nil
	}
	client, err := redisClient(redisProvider, infraRedis.DBNameEvents)
	if err != nil {
		return err
	}
	audit := eventlog.NewPublisher(logger.With("source", eventredis.ChannelRounds))
	return eventredis.NewSubscriber(client, logger).Subscribe(ctx, audit)
}
