package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/budgetshare/internal/auth"
	"github.com/mmynk/budgetshare/internal/cache"
	"github.com/mmynk/budgetshare/internal/config"
	"github.com/mmynk/budgetshare/internal/events"
	"github.com/mmynk/budgetshare/internal/httpapi"
	"github.com/mmynk/budgetshare/internal/metrics"
	"github.com/mmynk/budgetshare/internal/rpc"
	"github.com/mmynk/budgetshare/internal/service"
	"github.com/mmynk/budgetshare/internal/storage/backend"
	"github.com/mmynk/budgetshare/pkg/logging"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Setup()
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.SetupWith(logging.ParseLevel(cfg.LogLevel), logging.ParseFormat(cfg.LogFormat))

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	registry, m := metrics.NewRegistry()
	opts := []service.Option{
		service.WithMetrics(m),
		service.WithMatchOrder(cfg.MatchOrder()),
	}

	if cfg.BalanceCacheEnabled {
		balances, err := cache.New(cfg.BalanceCacheMaxCost)
		if err != nil {
			return fmt.Errorf("create balance cache: %w", err)
		}
		defer balances.Close()
		opts = append(opts, service.WithBalanceCache(balances))
		slog.Info("Balance cache enabled", "max_cost", cfg.BalanceCacheMaxCost)
	}

	if cfg.AMQPURL != "" {
		publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		defer publisher.Close()
		opts = append(opts, service.WithPublisher(publisher))
		slog.Info("Event publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		slog.Info("Event publishing disabled, AMQP_URL not set")
	}

	svc := service.NewLedgerService(store, opts...)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	rpcPath, rpcHandler := rpc.NewHandler(svc, jwtManager)
	router := httpapi.NewRouter(svc, httpapi.RouterConfig{
		JWTManager:         jwtManager,
		Metrics:            m,
		Gatherer:           registry,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RPCPath:            rpcPath,
		RPCHandler:         rpcHandler,
	})

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		// h2c serves HTTP/2 without TLS for Connect clients
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", srv.Addr, "backend", cfg.DataBackend, "rpc", rpcPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server stopped gracefully")
	return nil
}
