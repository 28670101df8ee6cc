package dialect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	mssql "github.com/denisenkom/go-mssqldb"

	"schema-sync/internal/schema"
)

type MSSQLDialect struct{}

func (d *MSSQLDialect) Name() string { return "sqlserver" }

func (d *MSSQLDialect) GetTablesQuery(schema string) string {
	return `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'`
}

func (d *MSSQLDialect) GetColumnsQuery(schema string) string {
	return `SELECT TABLE_NAME, COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_SCHEMA = @p1 ORDER BY TABLE_NAME, ORDINAL_POSITION`
}

func (d *MSSQLDialect) GetIndexesQuery(schema string) string {
	return `SELECT t.name, idx.name
FROM sys.indexes idx
JOIN sys.tables t ON idx.object_id = t.object_id
JOIN sys.schemas s ON t.schema_id = s.schema_id
WHERE s.name = @p1 AND idx.name IS NOT NULL`
}

func (d *MSSQLDialect) GetConstraintsQuery(schema string) string {
	return `SELECT TABLE_NAME, CONSTRAINT_NAME FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS WHERE TABLE_SCHEMA = @p1`
}

var mssqlTypes = map[schema.LogicalType]string{
	schema.TypeShortText:   "NVARCHAR(255)",
	schema.TypeLongText:    "NVARCHAR(MAX)",
	schema.TypeInteger:     "INT",
	schema.TypeFloat:       "FLOAT",
	schema.TypeBoolean:     "BIT",
	schema.TypeTimestamp:   "DATETIME2",
	schema.TypeTimestampTZ: "DATETIMEOFFSET",
	schema.TypeJSON:        "NVARCHAR(MAX)",
	schema.TypeUUID:        "UNIQUEIDENTIFIER",
}

func (d *MSSQLDialect) RenderType(t schema.LogicalType) string {
	return mssqlTypes[t]
}

// BIT columns take 0/1, not FALSE/TRUE.
func (d *MSSQLDialect) BooleanLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (d *MSSQLDialect) CreateTableQuery(t *schema.Table) string {
	defs := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		defs = append(defs, RenderColumnDef(d, col))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(defs, ", "))
}

// T-SQL ADD takes no COLUMN keyword.
func (d *MSSQLDialect) AddColumnQuery(table string, col *schema.Column) string {
	return RenderAddColumn(d, "", table, col)
}

func (d *MSSQLDialect) CreateIndexQuery(idx *schema.Index) string {
	return RenderCreateIndex(idx, false)
}

func (d *MSSQLDialect) AddConstraintQuery(c *schema.Constraint) string {
	return RenderAddConstraint(c)
}

func (d *MSSQLDialect) lockName(key int64) string {
	return fmt.Sprintf("schema_sync_%d", key)
}

// sp_getapplock with @LockOwner='Session' ties the lock to the connection,
// so Close releases it even after an abrupt failure. Return values >= 0 mean
// the lock was granted; -1 is a timeout.
func (d *MSSQLDialect) AcquireLock(ctx context.Context, conn *sql.Conn, key int64, timeout time.Duration) (bool, error) {
	var result int64
	query := `DECLARE @r INT;
EXEC @r = sp_getapplock @Resource = @p1, @LockMode = 'Exclusive', @LockOwner = 'Session', @LockTimeout = @p2;
SELECT @r`
	if err := conn.QueryRowContext(ctx, query, d.lockName(key), int64(timeout/time.Millisecond)).Scan(&result); err != nil {
		return false, err
	}
	return result >= 0, nil
}

func (d *MSSQLDialect) ReleaseLock(ctx context.Context, conn *sql.Conn, key int64) error {
	_, err := conn.ExecContext(ctx, `EXEC sp_releaseapplock @Resource = @p1, @LockOwner = 'Session'`, d.lockName(key))
	return err
}

// Duplicate-object error numbers: 2705 column, 1913 index, 2714 object
// (tables and constraints).
func (d *MSSQLDialect) IsDuplicateObject(err error) bool {
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Number {
		case 2705, 1913, 2714:
			return true
		}
		return false
	}
	return containsAny(err, "already exists", "already an object")
}

func (d *MSSQLDialect) GetSchemaName(input string) string {
	if input == "" {
		return "dbo"
	}
	return input
}
