package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"schema-sync/internal/schema"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string { return "postgres" }

func (d *PostgresDialect) GetTablesQuery(schema string) string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = $1 AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *PostgresDialect) GetColumnsQuery(schema string) string {
	return `SELECT c.table_name, c.column_name, c.udt_name, c.is_nullable
FROM information_schema.columns c
WHERE c.table_schema = $1
ORDER BY c.table_name, c.ordinal_position`
}

func (d *PostgresDialect) GetIndexesQuery(schema string) string {
	return `SELECT tablename, indexname FROM pg_indexes WHERE schemaname = $1`
}

func (d *PostgresDialect) GetConstraintsQuery(schema string) string {
	return `SELECT table_name, constraint_name FROM information_schema.table_constraints WHERE table_schema = $1`
}

var postgresTypes = map[schema.LogicalType]string{
	schema.TypeShortText:   "VARCHAR",
	schema.TypeLongText:    "TEXT",
	schema.TypeInteger:     "INTEGER",
	schema.TypeFloat:       "DOUBLE PRECISION",
	schema.TypeBoolean:     "BOOLEAN",
	schema.TypeTimestamp:   "TIMESTAMP",
	schema.TypeTimestampTZ: "TIMESTAMPTZ",
	schema.TypeJSON:        "JSONB",
	schema.TypeUUID:        "UUID",
}

func (d *PostgresDialect) RenderType(t schema.LogicalType) string {
	return postgresTypes[t]
}

func (d *PostgresDialect) BooleanLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (d *PostgresDialect) CreateTableQuery(t *schema.Table) string {
	defs := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		defs = append(defs, RenderColumnDef(d, col))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(defs, ", "))
}

func (d *PostgresDialect) AddColumnQuery(table string, col *schema.Column) string {
	return RenderAddColumn(d, "COLUMN IF NOT EXISTS ", table, col)
}

func (d *PostgresDialect) CreateIndexQuery(idx *schema.Index) string {
	return RenderCreateIndex(idx, true)
}

func (d *PostgresDialect) AddConstraintQuery(c *schema.Constraint) string {
	return RenderAddConstraint(c)
}

// AcquireLock polls pg_try_advisory_lock until it wins or the timeout
// elapses. The lock is session-scoped: closing the connection releases it
// even after a crash mid-reconciliation.
func (d *PostgresDialect) AcquireLock(ctx context.Context, conn *sql.Conn, key int64, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		var got bool
		if err := conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&got); err != nil {
			return false, err
		}
		if got {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func (d *PostgresDialect) ReleaseLock(ctx context.Context, conn *sql.Conn, key int64) error {
	_, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, key)
	return err
}

// Duplicate-object SQLSTATEs: 42701 duplicate column, 42P07 duplicate
// table/index, 42710 duplicate object (constraints and the like).
func (d *PostgresDialect) IsDuplicateObject(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "42701", "42P07", "42710":
			return true
		}
		return false
	}
	return containsAny(err, "already exists")
}

func (d *PostgresDialect) GetSchemaName(input string) string {
	if input == "" {
		return "public"
	}
	return input
}
