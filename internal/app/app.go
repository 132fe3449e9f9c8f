package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/debjit15/angrybolly/internal/config"
	"github.com/debjit15/angrybolly/internal/event"
	handler "github.com/debjit15/angrybolly/internal/handler/http"
	redisrepo "github.com/debjit15/angrybolly/internal/repository/redis"
	"github.com/debjit15/angrybolly/internal/service"
	"github.com/debjit15/angrybolly/pkg/health"
	pkgkafka "github.com/debjit15/angrybolly/pkg/kafka"
	"github.com/debjit15/angrybolly/pkg/middleware"
	"github.com/debjit15/angrybolly/pkg/tracing"
)

// App wires together all dependencies and runs the reviews service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize tracing.
	traceCfg := tracing.Config{
		ServiceName:  "reviews-service",
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SampleRate:   cfg.TraceSampleRt,
		Enabled:      cfg.TracingEnabled,
	}
	tracerShutdown, err := tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize Redis client.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	retention := time.Duration(cfg.RetentionHrs) * time.Hour
	reviewRepo := redisrepo.NewReviewLogRepository(rdb)
	statsRepo := redisrepo.NewStatsRepository(rdb)
	limiterRepo := redisrepo.NewRateLimitRepository(rdb, retention)
	eventProducer := event.NewProducer(producer, logger)

	reviewService := service.NewReviewService(
		reviewRepo,
		statsRepo,
		eventProducer,
		logger,
		cfg.IdentityHashSecret,
		time.Duration(cfg.DedupWindowHrs)*time.Hour,
		cfg.PageSize,
		cfg.AutoApprove,
	)
	statsService := service.NewStatsService(
		statsRepo,
		limiterRepo,
		eventProducer,
		logger,
		cfg.IdentityHashSecret,
		time.Duration(cfg.CooldownMinutes)*time.Minute,
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.Register("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	routerCfg := handler.RouterConfig{
		AdminJWTSecret: cfg.AdminJWTSecret,
		WriteRPS:       cfg.WriteRPS,
		WriteBurst:     cfg.WriteBurst,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Correlation-ID"},
			MaxAge:         300,
			Environment:    cfg.Environment,
		},
	}
	router := handler.NewRouter(reviewService, statsService, healthHandler, logger, routerCfg)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		rdb:            rdb,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	// Close Redis client.
	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
	}

	// Flush pending spans.
	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
