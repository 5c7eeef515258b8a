package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ryanbastic/go-locator/internal/record"
)

// Table is the storage layout of one record kind: a system-assigned id plus
// the kind's columns. No secondary indexes or foreign keys are created.
type Table struct {
	Name    string
	Columns []record.Column
}

// TableFor returns the table layout of kind.
func TableFor[T record.Model](kind *record.Kind[T]) Table {
	return Table{Name: kind.Table, Columns: kind.Columns}
}

// CreateTableSQL returns the forward DDL for t.
func CreateTableSQL(t Table) string {
	defs := make([]string, 0, len(t.Columns)+1)
	defs = append(defs, "id BIGSERIAL PRIMARY KEY")
	for _, c := range t.Columns {
		defs = append(defs, pgx.Identifier{c.Name}.Sanitize()+" "+c.Type)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		pgx.Identifier{t.Name}.Sanitize(), strings.Join(defs, ",\n\t"))
}

// DropTableSQL returns the backward DDL for t.
func DropTableSQL(t Table) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{t.Name}.Sanitize())
}

// RunMigrations creates every table that does not exist yet.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, tables ...Table) error {
	for _, t := range tables {
		if _, err := pool.Exec(ctx, CreateTableSQL(t)); err != nil {
			return fmt.Errorf("migrate %s: %w", t.Name, err)
		}
	}
	return nil
}

// RevertMigrations drops the given tables in reverse order.
func RevertMigrations(ctx context.Context, pool *pgxpool.Pool, tables ...Table) error {
	for i := len(tables) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, DropTableSQL(tables[i])); err != nil {
			return fmt.Errorf("revert %s: %w", tables[i].Name, err)
		}
	}
	return nil
}
