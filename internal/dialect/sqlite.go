package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"schema-sync/internal/schema"
)

// SQLiteDialect targets modernc.org/sqlite. It is also what the integration
// tests run against, since it needs no server.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string { return "sqlite" }

// SQLite has no schemas; the dummy clause consumes the bind parameter
// standard callers pass, same trick as the Oracle dialect.
func (d *SQLiteDialect) GetTablesQuery(schema string) string {
	return `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND ? IS NOT NULL`
}

func (d *SQLiteDialect) GetColumnsQuery(schema string) string {
	return `SELECT m.name, p.name, p.type, CASE p."notnull" WHEN 0 THEN 'YES' ELSE 'NO' END
FROM sqlite_master m
JOIN pragma_table_info(m.name) p
WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite_%' AND ? IS NOT NULL
ORDER BY m.name, p.cid`
}

func (d *SQLiteDialect) GetIndexesQuery(schema string) string {
	return `SELECT tbl_name, name FROM sqlite_master WHERE type = 'index' AND ? IS NOT NULL`
}

// Named table constraints are not listed separately by SQLite; unique
// constraints render as unique indexes here, so the index listing doubles as
// the constraint listing and keeps re-runs idempotent.
func (d *SQLiteDialect) GetConstraintsQuery(schema string) string {
	return d.GetIndexesQuery(schema)
}

var sqliteTypes = map[schema.LogicalType]string{
	schema.TypeShortText:   "TEXT",
	schema.TypeLongText:    "TEXT",
	schema.TypeInteger:     "INTEGER",
	schema.TypeFloat:       "REAL",
	schema.TypeBoolean:     "BOOLEAN",
	schema.TypeTimestamp:   "TIMESTAMP",
	schema.TypeTimestampTZ: "TIMESTAMP",
	schema.TypeJSON:        "TEXT",
	schema.TypeUUID:        "TEXT",
}

func (d *SQLiteDialect) RenderType(t schema.LogicalType) string {
	return sqliteTypes[t]
}

func (d *SQLiteDialect) BooleanLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (d *SQLiteDialect) CreateTableQuery(t *schema.Table) string {
	defs := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		defs = append(defs, RenderColumnDef(d, col))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(defs, ", "))
}

func (d *SQLiteDialect) AddColumnQuery(table string, col *schema.Column) string {
	return RenderAddColumn(d, "COLUMN ", table, col)
}

func (d *SQLiteDialect) CreateIndexQuery(idx *schema.Index) string {
	return RenderCreateIndex(idx, true)
}

// ALTER TABLE ADD CONSTRAINT is not supported by SQLite. Unique constraints
// get an equivalent unique index; other kinds surface as a per-operation
// failure when executed.
func (d *SQLiteDialect) AddConstraintQuery(c *schema.Constraint) string {
	if c.Kind == schema.ConstraintUnique {
		cols := strings.TrimSpace(c.Definition)
		if strings.HasPrefix(strings.ToUpper(cols), "UNIQUE") {
			cols = strings.TrimSpace(cols[len("UNIQUE"):])
		}
		cols = strings.Trim(cols, "()")
		return fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s)", c.Name, c.Table, cols)
	}
	return RenderAddConstraint(c)
}

// A SQLite database is a single file; the file lock already serializes
// writers, so the advisory lock is a no-op that always succeeds.
func (d *SQLiteDialect) AcquireLock(ctx context.Context, conn *sql.Conn, key int64, timeout time.Duration) (bool, error) {
	return true, nil
}

func (d *SQLiteDialect) ReleaseLock(ctx context.Context, conn *sql.Conn, key int64) error {
	return nil
}

func (d *SQLiteDialect) IsDuplicateObject(err error) bool {
	return containsAny(err, "duplicate column name", "already exists")
}

func (d *SQLiteDialect) GetSchemaName(input string) string {
	if input == "" {
		return "main"
	}
	return input
}
