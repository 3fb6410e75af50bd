package main

import (
	"context"
	"fmt"
	"time"

	"officeflow-api/internal/auth"
	"officeflow-api/internal/config"
	"officeflow-api/internal/database"
	"officeflow-api/internal/kv"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/rbac"
	"officeflow-api/internal/repo"
	"officeflow-api/internal/service"
	"officeflow-api/internal/store"
	"officeflow-api/internal/telemetry"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds the long-lived dependencies shared by every command.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	pool     *pgxpool.Pool
	redis    *redis.Client
	backend  kv.Backend
	store    *store.Store
	registry *prometheus.Registry

	workspaces *service.WorkspaceService
	offices    *service.OfficeService
	rooms      *service.RoomService
	domains    *service.DomainService
	members    *service.MembershipService
	users      *service.UserService
	audit      *service.AuditService

	closers []func()
}

// openApp connects the configured backends, loads the store and builds
// the services. metrics may be nil.
func openApp(ctx context.Context, cfg *config.Config, log *logger.Logger, metrics *telemetry.Metrics) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if cfg.DatabaseURL != "" {
		log.Info(ctx, "running database migrations")
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		log.Info(ctx, "connecting to database")
		a.pool, err = database.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, a.pool.Close)
		log.Info(ctx, "database connected")
	}

	if cfg.RedisURL != "" {
		log.Info(ctx, "connecting to redis")
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		a.redis = redis.NewClient(redisOpts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			_ = a.redis.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		client := a.redis
		a.closers = append(a.closers, func() { _ = client.Close() })
		log.Info(ctx, "redis connected")
	}

	a.backend, err = openBackend(ctx, cfg, a.pool, a.redis)
	if err != nil {
		return nil, err
	}
	backend := a.backend
	a.closers = append(a.closers, func() {
		if err := backend.Close(); err != nil {
			log.Warn(context.Background(), "failed to close store backend", zap.Error(err))
		}
	})

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics, err := telemetry.NewStoreMetrics(a.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register store metrics: %w", err)
	}

	opts := cfg.StoreOptions()
	opts.Observer = storeMetrics
	opts.Logger = log
	a.store, err = store.New(a.backend, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	if err := a.store.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load store: %w", err)
	}
	log.Info(ctx, "store loaded",
		zap.String("backend", cfg.StoreBackend),
		zap.String("key_scheme", cfg.StoreKeyScheme),
	)

	roles, err := rbac.NewRoleTable(cfg.RoleCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create role table: %w", err)
	}

	deps := service.Deps{
		Store:   a.store,
		Engine:  rbac.NewEngine(roles),
		Hasher:  auth.NewBcryptHasher(cfg.BcryptCost),
		Log:     log,
		Metrics: metrics,
	}
	var reader service.AuditReader
	if a.pool != nil {
		auditRepo := repo.NewAuditRepo(a.pool)
		deps.Audit = auditRepo
		reader = auditRepo
	}

	a.workspaces = service.NewWorkspaceService(deps)
	a.offices = service.NewOfficeService(deps)
	a.rooms = service.NewRoomService(deps)
	a.domains = service.NewDomainService(deps)
	a.members = service.NewMembershipService(deps)
	a.users = service.NewUserService(deps)
	a.audit = service.NewAuditService(deps, reader)

	return a, nil
}

// openBackend picks the kv.Backend named by STORE_BACKEND.
func openBackend(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, client *redis.Client) (kv.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return kv.NewMemory(), nil
	case config.BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("redis backend requires REDIS_URL")
		}
		return kv.NewRedis(client), nil
	case config.BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		return kv.NewPostgres(pool), nil
	case config.BackendSQLite:
		b, err := kv.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// readyChecks lists the dependencies /ready pings.
func (a *app) readyChecks() []readyCheck {
	checks := []readyCheck{{
		Name: "store",
		Ping: func(ctx context.Context) error {
			keys := a.store.ManifestKeys()
			_, _, err := a.backend.Get(ctx, keys[0])
			return err
		},
	}}
	if a.pool != nil {
		checks = append(checks, readyCheck{Name: "database", Ping: a.pool.Ping})
	}
	if a.redis != nil {
		client := a.redis
		checks = append(checks, readyCheck{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
	return checks
}

// Close releases everything openApp acquired, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// bootTimeout bounds startup work done before the server listens.
const bootTimeout = 30 * time.Second
