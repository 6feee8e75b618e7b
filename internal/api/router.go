package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/api/handler"
	"github.com/ayo6706/wallet-ledger/internal/api/middleware"
	"github.com/ayo6706/wallet-ledger/internal/directory"
	"github.com/ayo6706/wallet-ledger/internal/fraud"
	"github.com/ayo6706/wallet-ledger/internal/repository"
	"github.com/ayo6706/wallet-ledger/internal/service"
)

// Router wires the HTTP edge. Handlers stay thin: they validate shape
// and hand off to the engine.
type Router struct {
	engine    *service.TransferEngine
	wallets   repository.WalletStore
	history   repository.HistoryStore
	revenue   repository.RevenueStore
	users     directory.Directory
	blacklist fraud.Blacklist

	db    *pgxpool.Pool
	redis redis.Cmdable
	mongo *mongo.Client

	publicRPS int
	authRPS   int
}

func NewRouter(
	engine *service.TransferEngine,
	wallets repository.WalletStore,
	history repository.HistoryStore,
	revenue repository.RevenueStore,
	users directory.Directory,
	blacklist fraud.Blacklist,
	db *pgxpool.Pool,
	redisClient redis.Cmdable,
	mongoClient *mongo.Client,
	publicRPS, authRPS int,
) *Router {
	return &Router{
		engine:    engine,
		wallets:   wallets,
		history:   history,
		revenue:   revenue,
		users:     users,
		blacklist: blacklist,
		db:        db,
		redis:     redisClient,
		mongo:     mongoClient,
		publicRPS: publicRPS,
		authRPS:   authRPS,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(zap.L()))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(zap.L()))

	healthHandler := handler.NewHealthHandler(api.db, api.redis, api.mongo)
	walletHandler := handler.NewWalletHandler(api.wallets, api.history, api.users)
	transferHandler := handler.NewTransferHandler(api.engine)
	adminHandler := handler.NewAdminHandler(api.blacklist, api.revenue)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.publicRPS))
		r.Get("/healthz", healthHandler.Live)
		r.Get("/readyz", healthHandler.Ready)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.authRPS))

		r.Post("/v1/wallets", walletHandler.CreateWallet)
		r.Get("/v1/wallets/balance", walletHandler.GetBalance)
		r.Get("/v1/wallets/statement", walletHandler.GetStatement)

		r.Post("/v1/transfers", transferHandler.Transfer)
		r.Post("/v1/transfers/external", transferHandler.TransferExternal)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))
			r.Post("/v1/deposits", transferHandler.Deposit)
			r.Post("/v1/trades/credit", transferHandler.CreditFromTrade)
			r.Put("/v1/admin/blacklist/{id}", adminHandler.BlacklistWallet)
			r.Delete("/v1/admin/blacklist/{id}", adminHandler.UnblacklistWallet)
			r.Get("/v1/admin/revenue", adminHandler.GetRevenue)
		})
	})

	return r
}
