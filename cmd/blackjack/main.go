package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/JoeShih716/go-blackjack-server/internal/app/blackjack"
	"github.com/JoeShih716/go-blackjack-server/internal/connector/handler"
	"github.com/JoeShih716/go-blackjack-server/internal/connector/session"
	"github.com/JoeShih716/go-blackjack-server/internal/di"
	"github.com/JoeShih716/go-blackjack-server/internal/kit/bootstrap"
	"github.com/JoeShih716/go-blackjack-server/internal/kit/grpcserver"
	"github.com/JoeShih716/go-blackjack-server/pkg/wss"
)

const loginTimeout = 10 * time.Second

func main() {
	// 1. 初始化 App (.env + Config + Logger)
	app, err := bootstrap.NewApp("blackjack")
	if err != nil {
		slog.Error("Failed to initialize app", "error", err)
		os.Exit(1)
	}
	cfg := app.Config
	logger := app.Logger

	// 2. 基礎設施
	redisProvider, err := di.InitializeRedisProvider(cfg)
	if err != nil {
		logger.Error("Failed to initialize Redis provider", "error", err)
		os.Exit(1)
	}
	closeRedis := func() {
		if redisProvider != nil {
			_ = redisProvider.Close()
		}
	}

	store, closeStore, err := di.ProvideBalanceStore(cfg, redisProvider)
	if err != nil {
		logger.Error("Failed to open wallet store", "backend", cfg.Wallet.Backend, "error", err)
		closeRedis()
		os.Exit(1)
	}
	locker, err := di.ProvideLocker(cfg, redisProvider, logger)
	if err != nil {
		logger.Error("Failed to create wallet lock", "error", err)
		closeStore()
		closeRedis()
		os.Exit(1)
	}
	publisher, err := di.ProvidePublisher(cfg, redisProvider, logger)
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		closeStore()
		closeRedis()
		os.Exit(1)
	}

	// 3. 業務元件
	ledger := di.ProvideLedger(cfg, store, locker, logger)
	registry := blackjack.NewRegistry(ledger, logger, blackjack.WithPublisher(publisher))
	dispatcher := handler.NewDispatcher(registry, ledger, logger)

	// 4. Gateway
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsServer := wss.NewServer(ctx, &wss.Config{
		AllowedOrigins:  cfg.WSS.AllowedOrigins,
		ReadBufferSize:  cfg.WSS.ReadBufferSize,
		WriteBufferSize: cfg.WSS.WriteBufferSize,
		WriteWait:       time.Duration(cfg.WSS.WriteWaitSec) * time.Second,
		PongWait:        time.Duration(cfg.WSS.PongWaitSec) * time.Second,
		MaxMessageSize:  cfg.WSS.MaxMessageSize,
	}, logger)
	wsHandler := handler.NewWebsocketHandler(session.NewManager(), dispatcher, loginTimeout, logger)
	wsServer.Register(wsHandler)
	publisher.Add(wsHandler)

	httpServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.App.Port),
		Handler: handler.NewRouter(dispatcher, handler.RouterConfig{
			AllowedOrigins: cfg.App.CORS,
			WSPath:         cfg.WSS.Path,
			WS:             wsServer,
		}, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer := grpcserver.New(logger, "blackjack")

	// 5. 執行
	runErr := app.Run(func(runCtx context.Context) error {
		go registry.Run(ctx,
			time.Duration(cfg.Blackjack.ReapIntervalSec)*time.Second,
			time.Duration(cfg.Blackjack.IdleTimeoutSec)*time.Second,
		)

		if err := di.StartRoundAudit(ctx, cfg, redisProvider, logger); err != nil {
			return fmt.Errorf("failed to start round audit: %w", err)
		}

		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.App.GrpcPort))
		if err != nil {
			return fmt.Errorf("failed to listen grpc: %w", err)
		}
		grpcErr := make(chan error, 1)
		go func() { grpcErr <- grpcServer.Serve(lis) }()

		httpErr := make(chan error, 1)
		go func() {
			logger.Info("HTTP gateway listening", "addr", httpServer.Addr, "ws_path", cfg.WSS.Path)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
				return
			}
			httpErr <- nil
		}()

		select {
		case <-runCtx.Done():
			return nil
		case err := <-httpErr:
			return err
		case err := <-grpcErr:
			return err
		}
	}, func() {
		// Cleanup：先摘除流量，再停止接受請求，最後釋放資源
		grpcServer.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", "error", err)
		}

		cancel()
		closeStore()
		closeRedis()
	})
	if runErr != nil {
		os.Exit(1)
	}
}
