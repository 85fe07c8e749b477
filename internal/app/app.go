package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"

	"github.com/utafrali/ToolCatalog/internal/auth"
	"github.com/utafrali/ToolCatalog/internal/config"
	"github.com/utafrali/ToolCatalog/internal/event"
	handler "github.com/utafrali/ToolCatalog/internal/handler/http"
	"github.com/utafrali/ToolCatalog/internal/repository"
	"github.com/utafrali/ToolCatalog/internal/repository/memory"
	"github.com/utafrali/ToolCatalog/internal/repository/postgres"
	rediscache "github.com/utafrali/ToolCatalog/internal/repository/redis"
	"github.com/utafrali/ToolCatalog/internal/service"
	"github.com/utafrali/ToolCatalog/migrations"
	"github.com/utafrali/ToolCatalog/pkg/database"
	"github.com/utafrali/ToolCatalog/pkg/health"
	pkgkafka "github.com/utafrali/ToolCatalog/pkg/kafka"
	"github.com/utafrali/ToolCatalog/pkg/middleware"
	"github.com/utafrali/ToolCatalog/pkg/tracing"
)

const (
	serviceName    = "toolcatalog"
	serviceVersion = "0.1.0"
	metricsNS      = "toolcatalog"
)

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *goredis.Client
	producer       *pkgkafka.Producer
	services       handler.Services
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// stores is the persistence backend selected by STORE_DRIVER.
type stores struct {
	users   repository.UserRepository
	tools   repository.ToolRepository
	reviews repository.ReviewRepository
	uow     repository.UnitOfWork
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(serviceName, serviceVersion))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	healthHandler := health.NewHandler()

	st, err := a.openStore(ctx, reg, healthHandler)
	if err != nil {
		a.closeBackends()
		return nil, err
	}

	var cache service.ToolCache
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
		if err != nil {
			a.closeBackends()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		cache = rediscache.NewToolCache(client, cfg.ToolCacheTTL)
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		logger.Info("tool cache enabled",
			slog.String("addr", cfg.RedisAddr),
			slog.Duration("ttl", cfg.ToolCacheTTL),
		)
	}

	var publisher pkgkafka.Publisher
	if cfg.KafkaEnabled {
		producer := pkgkafka.NewProducer(pkgkafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		}, logger)
		a.producer = producer
		publisher = producer
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		publisher = event.NewLogPublisher(logger)
	}

	eventProducer := event.NewProducer(publisher, logger)
	metrics := service.NewMetrics(reg, metricsNS)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTokenExpiry)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	access := service.NewAccessControl(tokens, st.users, logger)
	aggregator := service.NewRatingAggregator(st.uow, cache, eventProducer, metrics, logger)
	a.services = handler.Services{
		Auth:    service.NewAuthService(st.users, hasher, tokens, eventProducer, metrics, logger),
		Access:  access,
		Tools:   service.NewToolService(st.tools, cache, logger),
		Reviews: service.NewReviewService(st.reviews, st.tools, st.uow, access, aggregator, eventProducer, metrics, logger),
		Stats:   service.NewStatsService(st.tools, st.reviews),
	}

	if cfg.AdminEmail != "" {
		admin, err := a.services.Auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			a.closeBackends()
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
		logger.Info("admin account ready", slog.String("user_id", admin.ID))
	}

	router := handler.NewRouter(a.services, handler.RouterConfig{
		Logger:          logger,
		Health:          healthHandler,
		HTTPMetrics:     middleware.NewHTTPMetrics(reg, metricsNS),
		MetricsHandler:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		AuthRateLimiter: middleware.NewRateLimiter(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst, logger),
		CORS:            middleware.CORSConfig{AllowedOrigins: cfg.CORSAllowedOrigins},
		RequestTimeout:  cfg.RequestTimeout,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// openStore connects the configured persistence backend. The postgres
// driver also runs migrations and exports pool metrics.
func (a *App) openStore(ctx context.Context, reg prometheus.Registerer, hh *health.Handler) (*stores, error) {
	if a.cfg.StoreDriver == config.StoreDriverMemory {
		a.logger.Warn("using in-memory store, data is lost on restart")
		mem := memory.NewStore()
		return &stores{
			users:   mem.Users(),
			tools:   mem.Tools(),
			reviews: mem.Reviews(),
			uow:     mem.UnitOfWork(),
		}, nil
	}

	pool, err := database.NewPostgresPool(ctx, a.cfg.Postgres(), a.logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", a.cfg.PostgresHost),
		slog.Int("port", a.cfg.PostgresPort),
		slog.String("database", a.cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	reg.MustRegister(database.NewPoolCollector(pool, metricsNS))
	hh.RegisterCritical("postgres", pool.Ping)

	return &stores{
		users:   postgres.NewUserRepository(pool),
		tools:   postgres.NewToolRepository(pool),
		reviews: postgres.NewReviewRepository(pool),
		uow:     postgres.NewUnitOfWork(pool),
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Tools exposes the tool service for offline jobs such as seeding.
func (a *App) Tools() *service.ToolService {
	return a.services.Tools
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeBackends()
		return err
	}

	return a.Shutdown()
}

// Shutdown drains HTTP first, then flushes spans, then closes the backends.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	errs = append(errs, a.closeBackends())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeBackends releases everything except the HTTP server. Safe to call
// on a partially built App.
func (a *App) closeBackends() error {
	var errs []error

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.redis = nil
	}

	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}

	return errors.Join(errs...)
}
