package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JoeShih716/go-blackjack-server/internal/config"
)

// App 封裝了應用程式的基礎組件
type App struct {
	Name   string
	Config *config.Config
	Logger *slog.Logger
}

// NewApp 建立一個新的應用程式實例
//
// 1. 讀取 .env (若存在)
// 2. 載入 Config (config.yaml + Env Override)
// 3. 依環境與 log_level 建立 Logger
func NewApp(appName string) (*App, error) {
	// .env 不存在時忽略，其餘錯誤回報
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.App.Env, cfg.App.LogLevel)
	slog.SetDefault(logger)

	return &App{
		Name:   appName,
		Config: cfg,
		Logger: logger,
	}, nil
}

// NewLogger 根據環境建立 Logger
// Production -> JSON (Structured Logging)
// Others     -> Text (Readable)
func NewLogger(env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch env {
	case "production", "prod":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// ParseLevel 將 debug/info/warn/error 轉成 slog.Level，無法辨識時為 info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Run 啟動應用程式並等待停止信號
//
// startFunc: 啟動服務的邏輯 (Blocking operation like http.ListenAndServe or grpc.Serve)，
// ctx 在收到停止信號時取消
// cleanupFunc: 收到停止信號或 startFunc 失敗後的清理邏輯
func (a *App) Run(startFunc func(ctx context.Context) error, cleanupFunc func()) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	// 背景啟動服務
	go func() {
		a.Logger.Info("Starting service", "app", a.Name, "env", a.Config.App.Env)
		errCh <- startFunc(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Shutting down service...", "app", a.Name)
	case err := <-errCh:
		if err != nil {
			a.Logger.Error("Service stopped unexpectedly", "error", err)
			runErr = err
		}
	}
	stop()

	if cleanupFunc != nil {
		cleanupFunc()
	}
	a.Logger.Info("Service exited", "app", a.Name)
	return runErr
}
