package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	contractsv1 "redpacket/contracts/gen/events/v1"
	redpacketservice "redpacket/contexts/escrow/red-packet-service"
	postgresadapter "redpacket/contexts/escrow/red-packet-service/adapters/postgres"
	workerapp "redpacket/contexts/escrow/red-packet-service/application/workers"
	"redpacket/contexts/escrow/red-packet-service/domain/services"
	"redpacket/contexts/escrow/red-packet-service/ports"
	"redpacket/internal/platform/config"
	"redpacket/internal/platform/db"
	"redpacket/internal/platform/httpserver"
	"redpacket/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	// events is set when the ledger lives in process memory; the API then
	// relays and projects its own outbox because no worker can reach it.
	events *eventPipeline
	logger *slog.Logger
}

type WorkerApp struct {
	postgres *db.Postgres
	events   *eventPipeline
	logger   *slog.Logger
}

type eventPipeline struct {
	relay        workerapp.OutboxRelay
	projector    *workerapp.PacketActivityProjector
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	policy := amountPolicy(cfg)

	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		logger.Warn("POSTGRES_DSN not set, using in-memory ledger",
			"event", "bootstrap_memory_ledger",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		module := redpacketservice.NewInMemoryModule(policy, logger)
		module.Handler.DefaultCount = cfg.DefaultPacketCount
		module.Handler.BaseUnitDecimals = cfg.BaseUnitDecimals
		module.Handler.CreatePacket.IdempotencyTTL = cfg.IdempotencyTTL

		kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
		if err != nil {
			return nil, err
		}
		return &APIApp{
			server: httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort)),
			events: newEventPipeline(cfg, module.Store, module.Store, module.Store, module.Store, kafka, logger),
			logger: logger,
		}, nil
	}

	pg, repo, err := connectLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	module := redpacketservice.NewModule(redpacketservice.Dependencies{
		Packets:          repo,
		Idempotency:      repo,
		Activity:         repo,
		Random:           postgresadapter.RuntimeRandom{},
		Clock:            postgresadapter.SystemClock{},
		IDGenerator:      postgresadapter.UUIDGenerator{},
		AmountPolicy:     policy,
		DefaultCount:     cfg.DefaultPacketCount,
		BaseUnitDecimals: cfg.BaseUnitDecimals,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		Logger:           logger,
	})

	return &APIApp{
		server:   httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort)),
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, repo, err := connectLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		events:   newEventPipeline(cfg, repo, repo, repo, postgresadapter.SystemClock{}, kafka, logger),
		logger:   logger,
	}, nil
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_workers", a.events != nil,
	)

	if a.events == nil {
		return a.server.Start(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eventsErr := make(chan error, 1)
	go func() {
		eventsErr <- a.events.run(ctx)
	}()

	serverErr := a.server.Start(ctx)
	cancel()
	if err := <-eventsErr; err != nil && serverErr == nil {
		return err
	}
	return serverErr
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.events.pollInterval.String(),
	)
	return w.events.run(ctx)
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func newEventPipeline(
	cfg config.Config,
	outbox ports.OutboxRepository,
	activity ports.ActivityStore,
	dedup ports.EventDedupStore,
	clock ports.Clock,
	kafka *messaging.Kafka,
	logger *slog.Logger,
) *eventPipeline {
	pipeline := &eventPipeline{
		relay: workerapp.OutboxRelay{
			Outbox:    outbox,
			Publisher: kafka,
			Clock:     clock,
			Topic:     contractsv1.RedPacketEventsTopic,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}
	if pipeline.pollInterval <= 0 {
		pipeline.pollInterval = 2 * time.Second
	}
	if cfg.EnableActivityFeed {
		pipeline.projector = &workerapp.PacketActivityProjector{
			Subscriber: kafka,
			Activity:   activity,
			Dedup:      dedup,
			Clock:      clock,
			Topic:      contractsv1.RedPacketEventsTopic,
			DedupTTL:   7 * 24 * time.Hour,
			Logger:     logger,
		}
	}
	return pipeline
}

// run subscribes the projector, then relays the outbox on every tick until
// ctx is done.
func (p *eventPipeline) run(ctx context.Context) error {
	if p.projector != nil {
		if err := p.projector.Start(ctx); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := p.relay.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func connectLedger(ctx context.Context, cfg config.Config, logger *slog.Logger) (*db.Postgres, *postgresadapter.Repository, error) {
	pg, err := db.Connect(ctx, cfg.PostgresDSN, db.Options{})
	if err != nil {
		return nil, nil, err
	}
	repo := postgresadapter.NewRepository(pg.DB, logger)
	if cfg.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
	}
	return pg, repo, nil
}

func amountPolicy(cfg config.Config) services.AmountPolicy {
	mode := services.AmountModeFixed
	if cfg.PacketMode == config.PacketModeGeneral {
		mode = services.AmountModeGeneral
	}
	return services.AmountPolicy{
		Mode:        mode,
		FixedAmount: cfg.FixedPacketAmount,
	}
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
