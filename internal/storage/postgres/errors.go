package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/foodstand/internal/domain"
)

const codeDuplicateDatabase = "42P04"

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isDuplicateDatabase(err error) bool {
	return pgErrorCode(err) == codeDuplicateDatabase
}

// notFoundOr превращает pgx.ErrNoRows в domain.ErrOrderNotFound.
func notFoundOr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	return err
}
