package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"schema-sync/internal/schema"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string { return "mysql" }

func (d *MysqlDialect) GetTablesQuery(schema string) string {
	return `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MysqlDialect) GetColumnsQuery(schema string) string {
	return `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME, ORDINAL_POSITION`
}

func (d *MysqlDialect) GetIndexesQuery(schema string) string {
	return `SELECT DISTINCT TABLE_NAME, INDEX_NAME FROM information_schema.STATISTICS WHERE TABLE_SCHEMA = ?`
}

func (d *MysqlDialect) GetConstraintsQuery(schema string) string {
	return `SELECT TABLE_NAME, CONSTRAINT_NAME FROM information_schema.TABLE_CONSTRAINTS WHERE TABLE_SCHEMA = ?`
}

var mysqlTypes = map[schema.LogicalType]string{
	schema.TypeShortText:   "VARCHAR(255)",
	schema.TypeLongText:    "TEXT",
	schema.TypeInteger:     "INT",
	schema.TypeFloat:       "DOUBLE",
	schema.TypeBoolean:     "TINYINT(1)",
	schema.TypeTimestamp:   "DATETIME",
	schema.TypeTimestampTZ: "TIMESTAMP",
	schema.TypeJSON:        "JSON",
	schema.TypeUUID:        "CHAR(36)",
}

func (d *MysqlDialect) RenderType(t schema.LogicalType) string {
	return mysqlTypes[t]
}

func (d *MysqlDialect) BooleanLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (d *MysqlDialect) CreateTableQuery(t *schema.Table) string {
	defs := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		defs = append(defs, RenderColumnDef(d, col))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.Name, strings.Join(defs, ", "))
}

// MySQL has no ADD COLUMN IF NOT EXISTS; the executor relies on error 1060
// classification instead.
func (d *MysqlDialect) AddColumnQuery(table string, col *schema.Column) string {
	return RenderAddColumn(d, "COLUMN ", table, col)
}

func (d *MysqlDialect) CreateIndexQuery(idx *schema.Index) string {
	return RenderCreateIndex(idx, false)
}

func (d *MysqlDialect) AddConstraintQuery(c *schema.Constraint) string {
	return RenderAddConstraint(c)
}

func (d *MysqlDialect) lockName(key int64) string {
	return fmt.Sprintf("schema_sync_%d", key)
}

// GET_LOCK blocks up to the timeout itself, so no polling loop is needed.
// The lock is released automatically when the session ends.
func (d *MysqlDialect) AcquireLock(ctx context.Context, conn *sql.Conn, key int64, timeout time.Duration) (bool, error) {
	secs := int64(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, d.lockName(key), secs).Scan(&got); err != nil {
		return false, err
	}
	return got.Valid && got.Int64 == 1, nil
}

func (d *MysqlDialect) ReleaseLock(ctx context.Context, conn *sql.Conn, key int64) error {
	_, err := conn.ExecContext(ctx, `SELECT RELEASE_LOCK(?)`, d.lockName(key))
	return err
}

// Duplicate-object error numbers: 1050 table, 1060 column, 1061 key name,
// 1826 foreign key, 3822 check constraint.
func (d *MysqlDialect) IsDuplicateObject(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1050, 1060, 1061, 1826, 3822:
			return true
		}
		return false
	}
	return containsAny(err, "duplicate column", "already exists")
}

func (d *MysqlDialect) GetSchemaName(input string) string {
	return DefaultGetSchemaName(input)
}
