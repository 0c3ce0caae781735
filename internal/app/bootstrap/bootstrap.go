package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	epochrewards "meridian/contexts/finance-core/epoch-rewards-service"
	rewardspostgres "meridian/contexts/finance-core/epoch-rewards-service/adapters/postgres"
	rewardsworkers "meridian/contexts/finance-core/epoch-rewards-service/application/workers"
	adminregistry "meridian/contexts/identity-access/admin-registry"
	adminpostgres "meridian/contexts/identity-access/admin-registry/adapters/postgres"
	"meridian/internal/platform/config"
	"meridian/internal/platform/db"
	"meridian/internal/platform/httpserver"
	"meridian/internal/platform/messaging"
	"meridian/internal/platform/ratelimit"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const rewardsTopic = "rewards.events"

type APIApp struct {
	server       *httpserver.Server
	feed         *httpserver.EventsFeed
	bus          *messaging.Kafka
	outboxRelay  rewardsworkers.OutboxRelay
	postgres     *db.Postgres
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  rewardsworkers.OutboxRelay
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	adminRepo := adminpostgres.NewRepository(pg.DB, logger)
	if err := adminRepo.Migrate(ctx, cfg.RootAdminID); err != nil {
		_ = pg.Close()
		return nil, err
	}
	adminModule := adminregistry.NewModule(adminregistry.Dependencies{
		Repository: adminRepo,
		Clock:      rewardspostgres.SystemClock{},
		Logger:     logger,
	})

	rewardsRepo := rewardspostgres.NewRepository(pg.DB, logger)
	if err := rewardsRepo.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}
	treasury := rewardspostgres.NewTreasury(pg.DB, logger)
	if err := treasury.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, err
	}

	rewardsModule := epochrewards.NewModule(epochrewards.Dependencies{
		Repository:  rewardsRepo,
		Treasury:    treasury,
		Authorizer:  adminModule.Service,
		Outbox:      rewardsRepo,
		Clock:       rewardspostgres.SystemClock{},
		IDGenerator: rewardspostgres.UUIDGenerator{},
		Logger:      logger,
	})

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	var claimLimiter httpserver.Middleware
	if cfg.EnableClaimLimits {
		opts := ratelimit.Options{
			Store:     ratelimit.NewStore(cfg.ClaimRateRPS, cfg.ClaimRateBurst),
			KeyHeader: "X-User-Id",
		}
		if cfg.RedisAddr != "" {
			client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
			opts.Stats = ratelimit.NewRedisStats(client, 24*time.Hour, logger)
		}
		claimLimiter = httpserver.Middleware(ratelimit.Middleware(opts))
	}

	var feed *httpserver.EventsFeed
	if cfg.EnableEventsFeed {
		feed = httpserver.NewEventsFeed(logger)
	}

	server := httpserver.New(rewardsModule, adminModule, feed, claimLimiter, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server: server,
		feed:   feed,
		bus:    kafka,
		outboxRelay: rewardsworkers.OutboxRelay{
			Outbox:    rewardsRepo,
			Publisher: kafka,
			Clock:     rewardspostgres.SystemClock{},
			Topic:     rewardsTopic,
			BatchSize: 100,
			Logger:    logger,
		},
		postgres:     pg,
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	repo := rewardspostgres.NewRepository(pg.DB, logger)
	return &WorkerApp{
		postgres: pg,
		outboxRelay: rewardsworkers.OutboxRelay{
			Outbox:    repo,
			Publisher: kafka,
			Clock:     rewardspostgres.SystemClock{},
			Topic:     rewardsTopic,
			BatchSize: 100,
			Logger:    logger,
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

// Run starts the API process. The in-process bus only reaches subscribers in
// the same process, so the API also drains the outbox; the live events feed
// would otherwise never see a claim.
func (a *APIApp) Run(ctx context.Context) error {
	if a.feed != nil {
		if err := a.feed.Start(ctx, a.bus, rewardsTopic); err != nil {
			return err
		}
	}

	go func() {
		ticker := time.NewTicker(a.pollInterval)
		defer ticker.Stop()
		for {
			if err := a.outboxRelay.RunOnce(ctx); err != nil && a.logger != nil {
				a.logger.Error("outbox relay pass failed",
					"event", "bootstrap_relay_failed",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
