package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/api"
	"github.com/ayo6706/wallet-ledger/internal/api/middleware"
	"github.com/ayo6706/wallet-ledger/internal/config"
	"github.com/ayo6706/wallet-ledger/internal/db"
	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/fraud"
	"github.com/ayo6706/wallet-ledger/internal/gateway"
	"github.com/ayo6706/wallet-ledger/internal/notification"
	"github.com/ayo6706/wallet-ledger/internal/observability"
	mongostore "github.com/ayo6706/wallet-ledger/internal/repository/mongo"
	"github.com/ayo6706/wallet-ledger/internal/repository/postgres"
	"github.com/ayo6706/wallet-ledger/internal/service"
	"github.com/ayo6706/wallet-ledger/internal/worker"
)

// Run bootstraps the HTTP server and the debt workers, blocking until shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	mongoClient, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	defer mongoClient.Disconnect(context.Background())

	wallets := postgres.NewWalletStore(pool)
	debts := postgres.NewDebtStore(pool)
	revenue := postgres.NewRevenueStore(pool)
	schedules := postgres.NewFeeScheduleStore(pool)
	history := mongostore.NewHistoryStore(mongoClient.Database(cfg.MongoDatabase))

	users := directory.NewClient(cfg.UserServiceURL, cfg.LookupTimeout)
	blacklist := fraud.NewRedisBlacklist(redisClient)
	monitor := fraud.NewMonitor(history, users, blacklist)
	fees := service.NewFeeCalculator(schedules).WithRates(cfg.TransferFeeRate, cfg.MaintenanceRate)
	locker := service.NewWalletLocker()

	sink := notification.NewKafkaSink(cfg.KafkaBrokers)
	defer sink.Close()
	dispatcher := notification.NewDispatcher(sink, cfg.NotifyQueueSize)
	dispatcher.Start()
	defer dispatcher.Close()

	payouts := gateway.NewMock()

	engine := service.NewTransferEngine(
		wallets, history, revenue, users,
		monitor, fees, locker, dispatcher, payouts,
		cfg.LookupTimeout,
	)

	accrualSvc := service.NewDebtAccrualService(wallets, history, debts, fees, locker, cfg.AccrualWindow, cfg.AccrualPoolSize)
	collectionSvc := service.NewDebtCollectionService(wallets, debts, revenue, users, locker, dispatcher)

	stopAccrual := worker.NewAccrualWorker(accrualSvc).WithInterval(cfg.AccrualInterval).Run(ctx)
	stopCollection := worker.NewCollectionWorker(collectionSvc).WithInterval(cfg.CollectionInterval).Run(ctx)
	logger.Info("debt workers started",
		zap.Duration("accrual_interval", cfg.AccrualInterval),
		zap.Duration("collection_interval", cfg.CollectionInterval))

	router := api.NewRouter(
		engine, wallets, history, revenue, users, blacklist,
		pool, redisClient, mongoClient,
		cfg.PublicRateLimitRPS, cfg.AuthRateLimitRPS,
	)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping debt workers")
	stopAccrual()
	stopCollection()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
