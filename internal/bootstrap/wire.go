package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/admin-portal/internal/application/registration"
	"github.com/baechuer/admin-portal/internal/config"
	"github.com/baechuer/admin-portal/internal/infrastructure/db/postgres"
	"github.com/baechuer/admin-portal/internal/infrastructure/memory"
	"github.com/baechuer/admin-portal/internal/infrastructure/notify/logsender"
	"github.com/baechuer/admin-portal/internal/infrastructure/redis"
	"github.com/baechuer/admin-portal/internal/infrastructure/security"
	"github.com/baechuer/admin-portal/internal/logger"
	http_handlers "github.com/baechuer/admin-portal/internal/transport/http/handlers"
	"github.com/baechuer/admin-portal/internal/transport/http/middleware"
	"github.com/baechuer/admin-portal/internal/transport/http/response"
	"github.com/baechuer/admin-portal/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(addr string, debug bool) (*sql.DB, error)

	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) *redis.Client

	NewNotifier func(cfg *config.Config) (registration.Notifier, func(), error)

	NewRouter func(router.Deps) (http.Handler, error)
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	fail := func(err error) (*http.Server, func(), error) {
		runCleanup(cleanupFns)
		return nil, nil, err
	}
	checks := map[string]http_handlers.Pinger{}

	// 1) accounts: postgres, or memory in dev without DB_ADDR
	var accounts registration.AccountStore
	var devAccounts *memory.AccountStore
	if cfg.DBAddr != "" {
		db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
		if err != nil {
			return fail(fmt.Errorf("db: %w", err))
		}
		cleanupFns = append(cleanupFns, func() { _ = db.Close() })

		if cfg.DBMigrate && deps.Migrate != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := deps.Migrate(ctx, db)
			cancel()
			if err != nil {
				return fail(fmt.Errorf("migrate: %w", err))
			}
			logger.Logger.Info().Msg("migrations applied")
		}

		accounts = postgres.NewAccountStore(db)
		checks["db"] = db.PingContext
	} else {
		logger.Logger.Warn().Msg("DB_ADDR not set; admin accounts kept in memory")
		devAccounts = memory.NewAccountStore()
		accounts = devAccounts
	}

	// 2) redis (best-effort in dev)
	var redisCli *redis.Client
	if cfg.RedisAddr != "" && deps.NewRedis != nil {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.Ping(context.Background()); err != nil {
			_ = c.Close()
			if !cfg.IsDev() {
				return fail(fmt.Errorf("redis: %w", err))
			}
			logger.Logger.Warn().Err(err).Msg("redis unavailable; using in-memory workflow and session stores")
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			checks["redis"] = c.Ping
		}
	}

	// 3) workflow, lock and session stores
	var (
		workflows registration.WorkflowStore
		locks     registration.Locker
		sessions  registration.SessionStore
		limiter   middleware.RateLimiter
	)
	if redisCli != nil {
		workflows = redis.NewWorkflowStore(redisCli)
		locks = redis.NewLocker(redisCli)
		sessions = redis.NewSessionStore(redisCli)
		limiter = redis.NewFixedWindowLimiter(redisCli)
	} else {
		workflows = memory.NewWorkflowStore()
		locks = memory.NewLocker()
		sessions = memory.NewSessionStore()
	}

	// 4) notifier
	notifier, closeNotifier, err := deps.NewNotifier(cfg)
	if err != nil {
		if !cfg.IsDev() {
			return fail(fmt.Errorf("notifier %s: %w", cfg.Notifier, err))
		}
		logger.Logger.Warn().Err(err).Str("notifier", cfg.Notifier).Msg("notifier unavailable; codes will be logged")
		notifier = logsender.New(logger.Logger)
	} else if closeNotifier != nil {
		cleanupFns = append(cleanupFns, closeNotifier)
	}
	if missing := cfg.MissingRelaySettings(); len(missing) > 0 {
		logger.Logger.Warn().Strs("missing", missing).Str("notifier", cfg.Notifier).
			Msg("relay not configured; sends will fail with send_configuration_missing")
	}

	// 5) security
	hasher := security.NewBcryptHasher(cfg.BcryptCost)

	// seed (dev only)
	if cfg.IsDev() && devAccounts != nil {
		memory.SeedAdmin(context.Background(), devAccounts, hasher)
	}

	// 6) service
	regSvc := registration.NewService(
		accounts,
		notifier,
		workflows,
		locks,
		sessions,
		hasher,
		registration.Config{
			DeliveryPolicy: cfg.DeliveryPolicy,
			CodeTTL:        cfg.CodeTTL,
			WorkflowTTL:    cfg.WorkflowTTL,
			SessionTTL:     cfg.SessionTTL,
			LockTTL:        cfg.LockTTL,
		},
	)

	regSvc = regSvc.WithAudit(func(action string, fields map[string]string) {
		evt := logger.Logger.Info().
			Bool("audit", true).
			Str("action", action)
		for k, v := range fields {
			evt = evt.Str(k, v)
		}
		evt.Msg("audit")

		middleware.ObserveAudit(action, fields)
	})

	// 7) handlers + middleware
	secureCookies := !cfg.IsDev()

	regH := http_handlers.NewRegistrationHandler(regSvc, cfg.SessionTTL, secureCookies)
	sessH := http_handlers.NewSessionHandler(regSvc, secureCookies)
	cfgH := http_handlers.NewConfigCheckHandler(cfg)
	healthH := http_handlers.NewHealthHandler(checks)

	// redis-backed when available, per-instance httprate otherwise
	rl := func(key string, limit int, window time.Duration) func(http.Handler) http.Handler {
		return middleware.RateLimitFixedWindow(
			limiter,
			middleware.FixedWindowConfig{
				RouteKey: key,
				Limit:    limit,
				Window:   window,
			},
			response.WriteError,
		)
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		RequestIDMW:  middleware.RequestID,
		MetricsMW:    middleware.Metrics,
		Health:       healthH,
		Registration: regH,
		Session:      sessH,
		ConfigCheck:  cfgH,
		Metrics:      promhttp.Handler(),

		RLStart:  rl("registration.start", 20, time.Minute),
		RLSubmit: rl("registration.submit", 5, time.Minute),
		RLResend: rl("registration.resend", 3, 10*time.Minute),
		RLVerify: rl("registration.verify", 10, time.Minute),
	})
	if err != nil {
		return fail(err)
	}

	logger.Logger.Info().
		Str("env", cfg.Env).
		Str("notifier", cfg.Notifier).
		Str("delivery_policy", string(cfg.DeliveryPolicy)).
		Bool("redis", redisCli != nil).
		Bool("postgres", devAccounts == nil).
		Msg("admin portal wired")

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    postgres.Migrate,
		NewRedis:   redis.New,
		NewNotifier: func(cfg *config.Config) (registration.Notifier, func(), error) {
			return newNotifier(cfg, logger.Logger)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
