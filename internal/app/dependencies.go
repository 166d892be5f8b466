package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
	"github.com/vladislavdragonenkov/foodstand/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/foodstand/internal/service/events"
	"github.com/vladislavdragonenkov/foodstand/internal/storage/memory"
	"github.com/vladislavdragonenkov/foodstand/internal/storage/postgres"
)

const (
	publishMaxFailures  = 5
	publishResetTimeout = 30 * time.Second
)

// runtimeDependencies содержит зависимости, созданные для одного запуска Run.
type runtimeDependencies struct {
	repo      domain.OrderRepository
	publisher domain.EventPublisher
	// store не nil только для драйвера postgres.
	store    *postgres.Store
	producer *kafka.Producer
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	deps := &runtimeDependencies{publisher: domain.NoopPublisher{}}

	switch cfg.StorageDriver {
	case StorageDriverMemory:
		deps.repo = memory.NewOrderRepository()
		logger.Warn("using in-memory storage, orders are lost on restart")
	case StorageDriverPostgres:
		store, err := initPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		deps.store = store
		deps.repo = postgres.NewOrderRepository(store)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	// Kafka необязательна: без неё сервис работает, события просто не уходят.
	if producer, err := initKafkaProducer(cfg.KafkaBrokers, cfg.EventsTopic, logger); err == nil && producer != nil {
		deps.producer = producer
		deps.publisher = events.NewResilientPublisher(
			producer,
			events.DefaultRetryConfig(),
			events.NewCircuitBreaker(publishMaxFailures, publishResetTimeout, logger.WithField("component", "events-breaker")),
			logger.WithField("component", "events"),
		)
	}

	return deps, nil
}

func initPostgres(ctx context.Context, cfg Config, logger *log.Entry) (*postgres.Store, error) {
	if err := cfg.Postgres.Validate(); err != nil {
		return nil, err
	}

	if cfg.AutoMigrate && cfg.BootstrapUser != "" {
		if err := postgres.EnsureDatabase(ctx, cfg.Postgres, cfg.BootstrapUser, cfg.BootstrapPassword); err != nil {
			return nil, fmt.Errorf("bootstrap database: %w", err)
		}
	}

	store, err := postgres.NewStore(cfg.Postgres)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres schema is up to date")
	}

	logger.WithFields(log.Fields{
		"host":     cfg.Postgres.Host,
		"database": cfg.Postgres.Database,
		"sslmode":  cfg.Postgres.SSLMode,
	}).Info("postgres storage initialized")
	return store, nil
}

// healthTargets возвращает только реально созданные зависимости,
// чтобы nil-указатель не превратился в ненулевой интерфейс.
func (d *runtimeDependencies) healthTargets() (database, broker pinger) {
	if d.store != nil {
		database = d.store
	}
	if d.producer != nil {
		broker = d.producer
	}
	return database, broker
}

func (d *runtimeDependencies) close(logger *log.Entry) {
	if d == nil {
		return
	}
	closeKafka(d.producer, logger)
}
