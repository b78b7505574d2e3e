package database

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func IsDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}

	// sqlite reports unique violations through the error text only, the
	// driver error type is not imported here.
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}
