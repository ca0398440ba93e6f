package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// 錢包儲存後端
const (
	WalletBackendJSON   = "json"
	WalletBackendRedis  = "redis"
	WalletBackendMySQL  = "mysql"
	WalletBackendMemory = "memory"
)

// 鎖的實作
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// Config 總配置結構
type Config struct {
	App       AppConfig       `yaml:"app"`
	Redis     RedisConfig     `yaml:"redis"`
	MySQL     MySQLConfig     `yaml:"mysql"`
	WSS       WSSConfig       `yaml:"wss"`
	Wallet    WalletConfig    `yaml:"wallet"`
	Blackjack BlackjackConfig `yaml:"blackjack"`
}

type AppConfig struct {
	Name     string   `yaml:"name"`
	Env      string   `yaml:"env"`
	Port     int      `yaml:"port"`
	GrpcPort int      `yaml:"grpc_port"` // gRPC health 服務 Port
	LogLevel string   `yaml:"log_level"`
	CORS     []string `yaml:"cors_allowed_origins"`
}

// RedisConfig 所有 DB 共用連線位址，Databases 以用途對應 DB index
type RedisConfig struct {
	Addr      string         `yaml:"addr"`
	Password  string         `yaml:"password"`
	Databases map[string]int `yaml:"databases"` // e.g. wallet: 0, events: 1
}

type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type WSSConfig struct {
	Path            string   `yaml:"path"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ReadBufferSize  int      `yaml:"read_buffer_size"`
	WriteBufferSize int      `yaml:"write_buffer_size"`
	WriteWaitSec    int      `yaml:"write_wait_sec"`
	PongWaitSec     int      `yaml:"pong_wait_sec"`
	MaxMessageSize  int64    `yaml:"max_message_size"`
}

type WalletConfig struct {
	Backend        string `yaml:"backend"` // json | redis | mysql | memory
	Path           string `yaml:"path"`    // json backend 的檔案路徑
	Lock           string `yaml:"lock"`    // local | redis
	DefaultBalance int64  `yaml:"default_balance"`
}

type BlackjackConfig struct {
	IdleTimeoutSec  int  `yaml:"idle_timeout_sec"`  // 閒置多久視為棄局
	ReapIntervalSec int  `yaml:"reap_interval_sec"` // 回收檢查頻率
	PublishEvents   bool `yaml:"publish_events"`    // 是否發布到 Redis
	AuditRounds     bool `yaml:"audit_rounds"`      // 是否訂閱 Redis 上的牌局事件並寫入稽核 log
}

// Default 回傳全部欄位都有預設值的設定
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:     "blackjack",
			Env:      "local",
			Port:     8080,
			GrpcPort: 9090,
			LogLevel: "info",
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			Databases: map[string]int{"wallet": 0, "events": 0},
		},
		MySQL: MySQLConfig{
			Host:   "localhost",
			Port:   3306,
			User:   "root",
			DBName: "blackjack",
		},
		WSS: WSSConfig{
			Path:            "/ws",
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			WriteWaitSec:    10,
			PongWaitSec:     60,
			MaxMessageSize:  4096,
		},
		Wallet: WalletConfig{
			Backend:        WalletBackendJSON,
			Path:           "wallets.json",
			Lock:           LockLocal,
			DefaultBalance: 2000,
		},
		Blackjack: BlackjackConfig{
			IdleTimeoutSec:  180,
			ReapIntervalSec: 30,
		},
	}
}

// Load 讀取設定檔
// 以 Default() 為底，讀取 <dir>/config.yaml 覆蓋，最後使用環境變數覆蓋。
// 設定檔不存在時只使用預設值與環境變數。
func Load(configPath ...string) (*Config, error) {
	dir := "./config"
	if len(configPath) > 0 && configPath[0] != "" {
		dir = configPath[0]
	}
	fullPath := filepath.Join(dir, "config.yaml")

	cfg := Default()

	data, err := os.ReadFile(fullPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml at %s: %w", fullPath, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// 純環境變數模式
	default:
		return nil, fmt.Errorf("failed to read config file at %s: %w", fullPath, err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 檢查列舉值與必要欄位
func (c *Config) Validate() error {
	switch c.Wallet.Backend {
	case WalletBackendJSON:
		if c.Wallet.Path == "" {
			return errors.New("wallet.path is required for json backend")
		}
	case WalletBackendRedis, WalletBackendMySQL, WalletBackendMemory:
	default:
		return fmt.Errorf("unknown wallet.backend %q", c.Wallet.Backend)
	}
	switch c.Wallet.Lock {
	case LockLocal, LockRedis:
	default:
		return fmt.Errorf("unknown wallet.lock %q", c.Wallet.Lock)
	}
	if c.Wallet.DefaultBalance < 0 {
		return errors.New("wallet.default_balance must not be negative")
	}
	if c.Blackjack.IdleTimeoutSec < 0 || c.Blackjack.ReapIntervalSec < 0 {
		return errors.New("blackjack timeouts must not be negative")
	}
	return nil
}

// NeedsRedis 是否有任何元件需要 Redis 連線
func (c *Config) NeedsRedis() bool {
	return c.Wallet.Backend == WalletBackendRedis || c.Wallet.Lock == LockRedis ||
		c.Blackjack.PublishEvents || c.Blackjack.AuditRounds
}

func overrideWithEnv(cfg *Config) {
	// App
	if env := os.Getenv(EnvAppEnv); env != "" {
		cfg.App.Env = env
	}
	setInt(EnvPort, &cfg.App.Port)
	setInt(EnvGrpcPort, &cfg.App.GrpcPort)
	setString(EnvLogLevel, &cfg.App.LogLevel)

	// Redis
	setString(EnvRedisAddr, &cfg.Redis.Addr)
	setString(EnvRedisPassword, &cfg.Redis.Password)

	// MySQL
	setString(EnvMySQLHost, &cfg.MySQL.Host)
	setString(EnvMySQLPassword, &cfg.MySQL.Password)
	setString(EnvMySQLUser, &cfg.MySQL.User)
	setString(EnvMySQLDB, &cfg.MySQL.DBName)
	setInt(EnvMySQLPort, &cfg.MySQL.Port)

	// Wallet
	if val := os.Getenv(EnvWalletBackend); val != "" {
		cfg.Wallet.Backend = strings.ToLower(val)
	}
	setString(EnvWalletPath, &cfg.Wallet.Path)
	if val := os.Getenv(EnvWalletLock); val != "" {
		cfg.Wallet.Lock = strings.ToLower(val)
	}
	if val := os.Getenv(EnvWalletDefaultBalance); val != "" {
		if v, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Wallet.DefaultBalance = v
		}
	}

	// Blackjack
	setInt(EnvBlackjackIdleTimeoutSec, &cfg.Blackjack.IdleTimeoutSec)
	if val := os.Getenv(EnvBlackjackAuditRounds); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			cfg.Blackjack.AuditRounds = v
		}
	}
}

func setString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setInt(key string, dst *int) {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			*dst = v
		}
	}
}
