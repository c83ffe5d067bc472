package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/ghuser/ghshop/pkg/app"
	"github.com/ghuser/ghshop/pkg/cache"
	"github.com/ghuser/ghshop/pkg/config"
	"github.com/ghuser/ghshop/pkg/database"
	"github.com/ghuser/ghshop/pkg/events"
	"github.com/ghuser/ghshop/pkg/logger"
	"github.com/ghuser/ghshop/pkg/telemetry"
	pkgworkflows "github.com/ghuser/ghshop/pkg/workflows"
	appsvcs "github.com/ghuser/ghshop/services/shop/application/services"
	"github.com/ghuser/ghshop/services/shop/application/subscribers"
	"github.com/ghuser/ghshop/services/shop/application/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg).With("process", "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.Options{
		MaxConns:  cfg.DatabaseMaxConns,
		SlowQuery: cfg.DatabaseSlowQuery,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer pool.Close() //nolint:errcheck

	eventBus, err := events.NewEventBus(cfg.DatabaseURL, events.Options{
		ConsumerGroup: cfg.ServiceName + "-worker",
	}, log)
	if err != nil {
		log.Error("failed to setup event bus", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	defer redisClient.Close() //nolint:errcheck

	a := &app.Application{
		Config:   cfg,
		Db:       pool,
		Logger:   log,
		EventBus: eventBus,
		Redis:    redisClient,
	}

	subs := &subscribers.OrderSubscribers{
		Cache: cache.NewItemCache(redisClient, cfg.ItemCacheTTL),
		Log:   log,
	}

	if cfg.TemporalEnabled {
		tc, err := pkgworkflows.NewTemporalClient(ctx, cfg.TemporalHostPort, cfg.TemporalNamespace, log)
		if err != nil {
			log.Error("failed to initialize temporal client", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer tc.Close()
		a.TemporalClient = tc

		w := tc.NewWorker(workflows.DeliveryTaskQueue)
		workflows.Register(w, &workflows.DeliveryActivities{
			Orders: appsvcs.New(a).Orders,
			Log:    log,
		})
		if err := w.Start(); err != nil {
			log.Error("failed to start temporal worker", "error", err)
			os.Exit(1) //nolint:gocritic
		}
		defer w.Stop()
		log.Info("temporal worker started", "task_queue", workflows.DeliveryTaskQueue)

		subs.Deliveries = func(ctx context.Context, orderID uuid.UUID) error {
			_, err := workflows.StartDelivery(ctx, tc.Client, orderID, cfg.DeliveryLeadTime)
			return err
		}
	}

	if err := subs.Register(ctx, eventBus); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	<-ctx.Done()
	log.Info("shutting down worker...")
	// Close waits for in-flight handlers, which still need redis and temporal.
	if err := eventBus.Close(); err != nil {
		log.Error("failed to close event bus", "error", err)
	}
}
