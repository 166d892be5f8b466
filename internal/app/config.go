package app

import (
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/foodstand/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/foodstand/internal/storage/postgres"
)

const (
	// StorageDriverPostgres хранит заказы в PostgreSQL.
	StorageDriverPostgres = "postgres"
	// StorageDriverMemory держит заказы в памяти процесса, для локальной разработки.
	StorageDriverMemory = "memory"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr      string
	MetricsAddr   string
	StorageDriver string

	Postgres postgres.Config
	// BootstrapUser и BootstrapPassword используются только для создания базы.
	BootstrapUser     string
	BootstrapPassword string
	AutoMigrate       bool

	// KafkaBrokers: список брокеров через запятую; пустая строка отключает события.
	KafkaBrokers string
	EventsTopic  string
}

// DefaultConfig возвращает базовые адреса и PostgreSQL как хранилище.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:      ":8080",
		MetricsAddr:   ":9090",
		StorageDriver: StorageDriverPostgres,
		Postgres:      postgres.DefaultConfig(),
		AutoMigrate:   true,
		EventsTopic:   kafka.TopicOrderEvents,
	}
}

// Validate проверяет адреса и настройки выбранного хранилища.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPAddr == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if err := c.Postgres.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}
	return errors.Join(errs...)
}
