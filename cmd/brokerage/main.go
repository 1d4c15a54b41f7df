package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/OliverLengLLL/brokerage/internal/config"
	"github.com/OliverLengLLL/brokerage/internal/engine"
	"github.com/OliverLengLLL/brokerage/internal/handler"
	"github.com/OliverLengLLL/brokerage/internal/service"
	"github.com/OliverLengLLL/brokerage/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Instantiate stores.
	accountStore := store.NewAccountStore()
	portfolioStore := store.NewPortfolioStore()
	orderStore := store.NewOrderStore()
	stockStore := store.NewStockStore()
	transactionStore := store.NewTransactionStore()
	webhookStore := store.NewWebhookStore()

	// Engine.
	books := engine.NewBookManager()
	eng := engine.NewEngine(books, accountStore, portfolioStore, orderStore, stockStore, transactionStore)

	// Services (webhook first — needed by the expiry sweeper).
	webhookSvc := service.NewWebhookService(webhookStore, accountStore, cfg.WebhookTimeout)
	accountSvc := service.NewAccountService(accountStore, portfolioStore, transactionStore, webhookSvc)
	portfolioSvc := service.NewPortfolioService(portfolioStore, stockStore)
	marketSvc := service.NewMarketDataService(stockStore, eng, webhookSvc)

	// Expiry sweeper (depends on webhook service as dispatcher).
	sweeper := engine.NewExpirySweeper(cfg.ExpirySweepInterval, books, webhookSvc)

	orderSvc := service.NewOrderService(eng, sweeper, accountStore, portfolioStore, stockStore, orderStore, webhookSvc)

	// Router.
	router := handler.NewRouter(accountSvc, portfolioSvc, orderSvc, marketSvc, webhookSvc, logger)

	// Start expiry sweep goroutine with cancellable context.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sweeper.Start(ctx)

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start HTTP server in a goroutine.
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops the sweeper).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
