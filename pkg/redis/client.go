package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config 定義 Redis 連線配置
type Config struct {
	Addr     string // Redis 伺服器地址 (e.g., "localhost:6379")
	Password string // Redis 密碼 (若無則留空)
	DB       int    // 使用的資料庫編號
}

// Client 封裝 redis.Client 以提供更簡易的介面
type Client struct {
	rdb *redis.Client
}

// releaseScript 只有鎖的值相符時才刪除，確保不會釋放別人的鎖
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// NewClient 建立並回傳一個新的 Redis 客戶端實例
//
// 參數:
//
//	cfg: Config - Redis 連線配置資訊
//
// 回傳值:
//
//	*Client: 封裝後的 Redis 客戶端實例
//	error: 若連線失敗則回傳錯誤
func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連線
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close 關閉 Redis 連線
func (c *Client) Close() error {
	return c.rdb.Close()
}

// IsNil 判斷錯誤是否代表 key 不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Get 讀取字串值，key 不存在時回傳的錯誤可用 IsNil 判斷
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set 寫入字串值
//
// 參數:
//
//	ctx: context.Context - 上下文
//	key: string - Redis 鍵
//	value: any - 要儲存的值
//	expiration: time.Duration - 過期時間，0 代表不過期
func (c *Client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return c.rdb.Set(ctx, key, value, expiration).Err()
}

// AcquireLock 嘗試獲取分散式鎖 (使用 SETNX)
//
// 參數:
//
//	ctx: context.Context - 上下文
//	key: string - 鎖的鍵名
//	value: string - 鎖的持有者標識 (通常是 uuid，用於釋放時驗證)
//	expiration: time.Duration - 鎖的自動過期時間，避免持有者崩潰後永遠鎖死
//
// 回傳值:
//
//	bool: 是否成功獲取鎖
//	error: Redis 系統錯誤
func (c *Client) AcquireLock(ctx context.Context, key string, value string, expiration time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, expiration).Result()
}

// ReleaseLock 釋放分散式鎖
// 只有當鎖的值與傳入的 value 相符時才會刪除。
//
// 回傳值:
//
//	bool: 是否真的刪除了鎖 (false 代表鎖已過期或被他人持有)
//	error: Redis 系統錯誤
func (c *Client) ReleaseLock(ctx context.Context, key string, value string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.rdb, []string{key}, value).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
