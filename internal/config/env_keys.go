package config

// Environment Variable Keys
const (
	// EnvAppEnv 定義應用程式執行環境 (local, dev, prod)
	EnvAppEnv = "APP_ENV"

	// EnvPort 定義 HTTP/Websocket 服務 Port
	EnvPort = "PORT"

	// EnvGrpcPort 定義 gRPC health 服務 Port
	EnvGrpcPort = "GRPC_PORT"

	// EnvLogLevel 定義 log 等級 (debug, info, warn, error)
	EnvLogLevel = "LOG_LEVEL"

	// EnvRedisAddr 定義 Redis 服務地址 (host:port)
	EnvRedisAddr = "REDIS_ADDR"

	// EnvRedisPassword 定義 Redis 密碼
	EnvRedisPassword = "REDIS_PASSWORD"

	// EnvMySQLHost 定義 MySQL 主機
	EnvMySQLHost = "MYSQL_HOST"

	// EnvMySQLUser 定義 MySQL 使用者
	EnvMySQLUser = "MYSQL_USER"

	// EnvMySQLDB 定義 MySQL 資料庫名稱
	EnvMySQLDB = "MYSQL_DB"

	// EnvMySQLPort 定義 MySQL Port
	EnvMySQLPort = "MYSQL_PORT"

	// EnvMySQLPassword 定義 MySQL 密碼
	EnvMySQLPassword = "MYSQL_PASSWORD"

	// EnvWalletBackend 定義錢包儲存後端 (json, redis, mysql, memory)
	EnvWalletBackend = "WALLET_BACKEND"

	// EnvWalletPath 定義 json 錢包檔路徑
	EnvWalletPath = "WALLET_PATH"

	// EnvWalletLock 定義錢包鎖實作 (local, redis)
	EnvWalletLock = "WALLET_LOCK"

	// EnvWalletDefaultBalance 定義新玩家初始餘額
	EnvWalletDefaultBalance = "WALLET_DEFAULT_BALANCE"

	// EnvBlackjackIdleTimeoutSec 定義牌局閒置回收秒數
	EnvBlackjackIdleTimeoutSec = "BLACKJACK_IDLE_TIMEOUT_SEC"

	// EnvBlackjackAuditRounds 定義是否訂閱牌局事件寫入稽核 log (true/false)
	EnvBlackjackAuditRounds = "BLACKJACK_AUDIT_ROUNDS"
)
