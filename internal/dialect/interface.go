package dialect

import (
	"context"
	"database/sql"
	"time"

	"schema-sync/internal/schema"
)

// Dialect abstracts database-specific operations.
type Dialect interface {
	Name() string

	// Metadata Queries (Schema Introspection). Each takes the resolved
	// schema name as its single bind parameter. Column rows come back as
	// (table, column, data_type, is_nullable) with is_nullable normalized
	// to YES/NO; index and constraint rows as (table, name).
	GetTablesQuery(schema string) string
	GetColumnsQuery(schema string) string
	GetIndexesQuery(schema string) string
	GetConstraintsQuery(schema string) string

	// DDL Generation. Every statement is additive: nothing rendered here
	// drops, renames, or narrows an existing object.
	RenderType(t schema.LogicalType) string
	BooleanLiteral(v bool) string
	CreateTableQuery(t *schema.Table) string
	AddColumnQuery(table string, col *schema.Column) string
	CreateIndexQuery(idx *schema.Index) string
	AddConstraintQuery(c *schema.Constraint) string

	// Advisory locking on a dedicated session connection. AcquireLock
	// returns false when another session holds the lock and the timeout
	// elapsed. Locks are session-scoped so a dropped connection releases
	// them without cooperation.
	AcquireLock(ctx context.Context, conn *sql.Conn, key int64, timeout time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, conn *sql.Conn, key int64) error

	// IsDuplicateObject reports whether err is the database's flavor of
	// "object already exists", which the executor treats as success.
	IsDuplicateObject(err error) bool

	// Helpers
	GetSchemaName(input string) string
}
