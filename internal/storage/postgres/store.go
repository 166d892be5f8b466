package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

const releaseTimeout = 5 * time.Second

// Connector выдаёт новое соединение на каждый вызов.
type Connector interface {
	Connect(ctx context.Context) (*pgx.Conn, error)
}

// Store: провайдер соединений с PostgreSQL без пула:
// каждый Connect открывает отдельное TLS-соединение, закрывает его вызывающий.
type Store struct {
	connConfig *pgx.ConnConfig
	database   string
}

// NewStore проверяет конфиг и готовит провайдер соединений. Сетевых вызовов не делает.
func NewStore(cfg Config) (*Store, error) {
	connCfg, err := cfg.pgxConfig()
	if err != nil {
		return nil, err
	}
	return &Store{connConfig: connCfg, database: cfg.Database}, nil
}

// Connect открывает одно соединение. Ошибки сети, аутентификации и TLS
// оборачиваются в domain.ErrConnection.
func (s *Store) Connect(ctx context.Context) (*pgx.Conn, error) {
	if s == nil || s.connConfig == nil {
		return nil, errors.New("postgres store is not initialized")
	}
	conn, err := pgx.ConnectConfig(ctx, s.connConfig.Copy())
	if err != nil {
		return nil, fmt.Errorf("%w: connect to %s: %w", domain.ErrConnection, s.database, err)
	}
	return conn, nil
}

// Ping открывает соединение, проверяет его и сразу закрывает.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.Connect(ctx)
	if err != nil {
		return err
	}
	defer release(conn)

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrConnection, err)
	}
	return nil
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// release закрывает соединение независимо от состояния контекста запроса.
func release(conn *pgx.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	_ = conn.Close(ctx)
}

var _ Connector = (*Store)(nil)
