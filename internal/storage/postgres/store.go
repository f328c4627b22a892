// Package postgres implements the user and task repositories on pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/taskboard/internal/services"
)

//go:embed schema.sql
var schema string

// querier is implemented by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	logger zerolog.Logger
	pool   *pgxpool.Pool
}

var _ services.Store = (*Store)(nil)

func New(logger zerolog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{
		logger: logger,
		pool:   pool,
	}
}

// Migrate creates the tables if they don't exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to apply schema")
		return err
	}
	s.logger.Info().Msg("applied schema")
	return nil
}

func (s *Store) Users() services.UserRepository {
	return &userRepository{q: s.pool}
}

func (s *Store) Tasks() services.TaskRepository {
	return &taskRepository{q: s.pool}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx services.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = fn(&txStore{tx: tx})
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) Users() services.UserRepository {
	return &userRepository{q: t.tx}
}

func (t *txStore) Tasks() services.TaskRepository {
	return &taskRepository{q: t.tx}
}

// WithinTx on a transactional view joins the surrounding transaction.
func (t *txStore) WithinTx(_ context.Context, fn func(tx services.Store) error) error {
	return fn(t)
}

func (t *txStore) Ping(ctx context.Context) error {
	return t.tx.Conn().Ping(ctx)
}

// validID reports whether id can name a row. Ids that aren't UUIDs are
// rejected before they reach the server, where the cast would fail and
// poison the surrounding transaction.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
