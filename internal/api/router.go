package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/rahulj/bank-settlement/internal/api/handler"
	"github.com/rahulj/bank-settlement/internal/api/middleware"
	"github.com/rahulj/bank-settlement/internal/api/problem"
	"github.com/rahulj/bank-settlement/internal/api/spec"
	"github.com/rahulj/bank-settlement/internal/config"
	"github.com/rahulj/bank-settlement/internal/idempotency"
	"github.com/rahulj/bank-settlement/internal/repository"
	"github.com/rahulj/bank-settlement/internal/service"
)

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	store     *repository.Store
	idemStore *idempotency.Store
	redis     redis.Cmdable
}

func NewRouter(cfg *config.Config, logger *zap.Logger, db *pgxpool.Pool, store *repository.Store, idemStore *idempotency.Store, redis redis.Cmdable) *Router {
	return &Router{cfg: cfg, logger: logger, db: db, store: store, idemStore: idemStore, redis: redis}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		problem.Write(w, req, http.StatusNotFound, "about:blank", http.StatusText(http.StatusNotFound), "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		problem.Write(w, req, http.StatusMethodNotAllowed, "about:blank", http.StatusText(http.StatusMethodNotAllowed), "method not allowed")
	})

	// Services
	settlementSvc := service.NewSettlementService(api.store, api.cfg.RequireVerifiedPayee)
	accountSvc := service.NewAccountService(api.store)
	beneficiarySvc := service.NewBeneficiaryService(api.store)

	// Handlers
	authHandler := handler.NewAuthHandler(api.store)
	accountHandler := handler.NewAccountHandler(accountSvc)
	beneficiaryHandler := handler.NewBeneficiaryHandler(beneficiarySvc)
	transferHandler := handler.NewTransferHandler(settlementSvc, accountSvc)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))
		r.Post("/v1/auth/login", authHandler.Login)
		r.Get("/healthz", healthHandler.Live)
		r.Get("/readyz", healthHandler.Ready)
		r.Get("/v1/spec/openapi.yaml", spec.OpenAPIHandler())
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/v1/spec/openapi.yaml")))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		// Accounts
		r.Get("/v1/accounts", accountHandler.ListAccounts)
		r.Get("/v1/accounts/{id}/balance", accountHandler.GetBalance)
		r.Get("/v1/accounts/{id}/statement", accountHandler.GetStatement)
		r.Get("/v1/accounts/{id}/transactions", accountHandler.GetStatement)

		// Beneficiaries
		r.Post("/v1/beneficiaries", beneficiaryHandler.CreateBeneficiary)
		r.Get("/v1/beneficiaries", beneficiaryHandler.ListBeneficiaries)

		// Transfers
		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/transfers", transferHandler.CreateTransfer)
		r.Get("/v1/transfers/{id}", transferHandler.GetTransfer)

		// Admin
		r.With(middleware.RequireRole("admin")).
			Post("/v1/transfers/{id}/finalize", transferHandler.FinalizeTransfer)
	})

	return r
}
