package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	portssvc "github.com/ritsnep/HimalytixNew-sub007/internal/core/ports/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/schema"
	"github.com/ritsnep/HimalytixNew-sub007/internal/core/services"
	"github.com/ritsnep/HimalytixNew-sub007/internal/handlers"
	"github.com/ritsnep/HimalytixNew-sub007/internal/middleware"
	"github.com/ritsnep/HimalytixNew-sub007/internal/platform/config"
	"github.com/ritsnep/HimalytixNew-sub007/internal/platform/events"
	"github.com/ritsnep/HimalytixNew-sub007/internal/platform/locking"
	"github.com/ritsnep/HimalytixNew-sub007/internal/platform/queue"
	"github.com/ritsnep/HimalytixNew-sub007/internal/repositories/database/pgsql"
	"github.com/ritsnep/HimalytixNew-sub007/pkg/database"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
)

// @title Himalytix Posting API
// @version 1.0
// @description Schema-driven voucher entry and general-ledger posting.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	dbPool, err := database.NewPgxPool(sigCtx, cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	logger.Info("Running database migrations...")
	applied, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Error("Database migrations failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if applied {
		logger.Info("Database migrations applied successfully.")
	} else {
		logger.Info("No new migrations to apply.")
	}

	resolver, err := schema.NewResolver(os.DirFS(cfg.SchemaDir), cfg.SchemaCacheSize)
	if err != nil {
		logger.Error("Failed to create schema resolver", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)

	var postingOptions []services.PostingOption
	if cfg.RedisAddress != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		defer rdb.Close()
		if err := rdb.Ping(sigCtx).Err(); err != nil {
			logger.Error("Failed to connect to redis", slog.String("address", cfg.RedisAddress), slog.String("error", err.Error()))
			os.Exit(1)
		}
		taskQueue, err := queue.NewRedisTaskQueue(rdb, cfg.TaskQueueName)
		if err != nil {
			logger.Error("Failed to create task queue", slog.String("error", err.Error()))
			os.Exit(1)
		}
		postingOptions = append(postingOptions,
			services.WithTaskQueue(taskQueue),
			services.WithRequestLocker(locking.NewRedisLocker(rdb, cfg.IdempotencyLockTTL)),
		)
	}

	publisher, stopPublisher, err := newPublisher(sigCtx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create event publisher", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer stopPublisher()
	postingOptions = append(postingOptions, services.WithEventPublisher(publisher))

	serviceContainer := services.NewServiceContainer(repos, resolver, postingOptions...)

	relay := events.NewRelay(repos.UnitOfWork, publisher, logger,
		events.WithPollInterval(cfg.OutboxPollInterval),
		events.WithMaxAttempts(cfg.OutboxMaxAttempts),
	)
	go relay.Run(sigCtx)

	go reloadSchemasOnHangup(sigCtx, resolver, logger)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AddAllowHeaders("Authorization", middleware.IdempotencyKeyHeader)
	r.Use(cors.New(corsConfig))

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
	if err != nil {
		logger.Error("Invalid rate limit", slog.String("rate_limit", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}
	r.Use(middleware.RateLimit(limiter.New(limitermemory.NewStore(), rate)))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		serverErrCh <- srv.ListenAndServe()
	}()

	select {
	case <-sigCtx.Done():
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
		}
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
		}
	}
	logger.Info("Server exited")
}

// newPublisher returns the Pub/Sub publisher when a project is configured
// and the log publisher otherwise.
func newPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portssvc.EventPublisher, func(), error) {
	if cfg.PubSubProjectID == "" {
		logger.Warn("PUBSUB_PROJECT_ID not set. Integration events are written to the log.")
		return events.LogPublisher{}, func() {}, nil
	}
	client, err := events.NewPubSubClient(ctx, cfg.PubSubProjectID, cfg.PubSubCredentialsJSON)
	if err != nil {
		return nil, nil, err
	}
	pub, err := events.NewPubSubPublisher(client, cfg.PubSubTopic)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return pub, func() {
		pub.Stop()
		_ = client.Close()
	}, nil
}

// reloadSchemasOnHangup drops cached schemas on SIGHUP so edited YAML files
// are picked up without a restart.
func reloadSchemasOnHangup(ctx context.Context, resolver *schema.Resolver, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			resolver.Purge()
			logger.Info("Schema cache purged")
		}
	}
}

