package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ryanbastic/go-locator/internal/record"
)

// PostgresStore implements Store for one record kind backed by a single table.
type PostgresStore[T record.Model] struct {
	pool         *pgxpool.Pool
	kind         *record.Kind[T]
	queryTimeout time.Duration

	selectAll  string
	selectByID string
	insert     string
	update     string
	deleteByID string
	deleteAll  string
}

// NewPostgresStore creates a Store backed by kind's table.
// queryTimeout sets the per-query context deadline; zero means no timeout.
func NewPostgresStore[T record.Model](pool *pgxpool.Pool, kind *record.Kind[T], queryTimeout time.Duration) *PostgresStore[T] {
	table := pgx.Identifier{kind.Table}.Sanitize()
	names := kind.ColumnNames()

	cols := make([]string, len(names))
	placeholders := make([]string, len(names))
	assignments := make([]string, len(names))
	for i, name := range names {
		cols[i] = pgx.Identifier{name}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		assignments[i] = fmt.Sprintf("%s = $%d", cols[i], i+1)
	}
	returning := "id, " + strings.Join(cols, ", ")

	return &PostgresStore[T]{
		pool:         pool,
		kind:         kind,
		queryTimeout: queryTimeout,

		selectAll:  fmt.Sprintf(`SELECT %s FROM %s ORDER BY id ASC`, returning, table),
		selectByID: fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, returning, table),
		insert: fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) RETURNING %s`,
			table, strings.Join(cols, ", "), strings.Join(placeholders, ", "), returning),
		update: fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d RETURNING %s`,
			table, strings.Join(assignments, ", "), len(names)+1, returning),
		deleteByID: fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table),
		deleteAll:  fmt.Sprintf(`DELETE FROM %s`, table),
	}
}

// withTimeout derives a child context with the configured query timeout.
// If queryTimeout is zero, the parent context is returned unchanged.
func (s *PostgresStore[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout > 0 {
		return context.WithTimeout(ctx, s.queryTimeout)
	}
	return ctx, func() {}
}

// args returns rec's column values in declared column order.
func (s *PostgresStore[T]) args(rec T) []any {
	row := rec.ToRow()
	names := s.kind.ColumnNames()
	args := make([]any, len(names))
	for i, name := range names {
		args[i] = row[name]
	}
	return args
}

func (s *PostgresStore[T]) one(ctx context.Context, op, query string, args ...any) (T, error) {
	var zero T
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", op, s.kind.Name, err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zero, ErrNotFound
		}
		return zero, fmt.Errorf("%s %s: %w", op, s.kind.Name, err)
	}
	rec, err := s.kind.FromRow(record.Row(m))
	if err != nil {
		return zero, fmt.Errorf("%s %s: %w", op, s.kind.Name, err)
	}
	return rec, nil
}

func (s *PostgresStore[T]) All(ctx context.Context) ([]T, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, s.selectAll)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.kind.Table, err)
	}
	results, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("list %s scan: %w", s.kind.Table, err)
	}

	recs := make([]T, 0, len(results))
	for _, m := range results {
		rec, err := s.kind.FromRow(record.Row(m))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", s.kind.Table, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *PostgresStore[T]) Find(ctx context.Context, id int64) (T, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.one(ctx, "find", s.selectByID, id)
}

func (s *PostgresStore[T]) Insert(ctx context.Context, rec T) (T, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.one(ctx, "insert", s.insert, s.args(rec)...)
}

func (s *PostgresStore[T]) Update(ctx context.Context, rec T) (T, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	args := append(s.args(rec), rec.GetID())
	return s.one(ctx, "update", s.update, args...)
}

func (s *PostgresStore[T]) Delete(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, s.deleteByID, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.kind.Name, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore[T]) Clear(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.pool.Exec(ctx, s.deleteAll); err != nil {
		return fmt.Errorf("clear %s: %w", s.kind.Table, err)
	}
	return nil
}
