package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// EnsureDatabase создаёт целевую базу cfg.Database, если её ещё нет.
// Подключается к служебной базе под bootstrap-учёткой (user/password).
func EnsureDatabase(ctx context.Context, cfg Config, user, password string) error {
	if user == "" {
		return errors.New("bootstrap user is required")
	}
	admin, err := NewStore(cfg.WithCredentials(user, password, maintenanceDatabase))
	if err != nil {
		return fmt.Errorf("bootstrap config: %w", err)
	}

	conn, err := admin.Connect(ctx)
	if err != nil {
		return err
	}
	defer release(conn)

	var exists bool
	if err := conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`,
		cfg.Database,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check database %s: %w", cfg.Database, err)
	}
	logger := log.WithFields(log.Fields{"component": "postgres-bootstrap", "database": cfg.Database})
	if exists {
		logger.Debug("database already exists")
		return nil
	}

	// CREATE DATABASE не поддерживает параметры и IF NOT EXISTS
	stmt := "CREATE DATABASE " + pgx.Identifier{cfg.Database}.Sanitize()
	if _, err := conn.Exec(ctx, stmt); err != nil {
		if isDuplicateDatabase(err) {
			return nil
		}
		return fmt.Errorf("create database %s: %w", cfg.Database, err)
	}
	logger.Info("database created")
	return nil
}
