package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"progression-service/internal/app"
	"progression-service/internal/domain"
)

const dateLayout = "2006-01-02"

// Open connects bun to Postgres through pgdriver.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Store runs units of work as bun transactions.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

var _ app.UnitOfWork = (*Store)(nil)

// WithinTx commits when fn returns nil and rolls back on error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	err := s.db.RunInTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &pgTx{tx: tx})
	})
	return mapError(err)
}

type pgTx struct {
	tx bun.Tx
}

var _ app.Tx = (*pgTx)(nil)

// mapError leaves domain errors untouched and classifies driver errors.
func mapError(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		switch pgErr.Field('C') {
		case "23505":
			return fmt.Errorf("%w: %s", domain.ErrConflict, pgErr.Field('M'))
		case "23503":
			return domain.NotFound("Referenced row")
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreFailure, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrNotFound,
		domain.ErrNotEnrolled,
		domain.ErrAlreadyCompleted,
		domain.ErrAlreadyEnrolled,
		domain.ErrConflict,
		domain.ErrInvalidInput,
		domain.ErrStoreFailure,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func notFound(err error, resource string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFound(resource)
	}
	return err
}
