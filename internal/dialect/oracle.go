package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"schema-sync/internal/schema"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

// Oracle has no schema argument for current-user objects; the dummy clause
// consumes the bind parameter standard callers pass.
func (d *OracleDialect) GetTablesQuery(schema string) string {
	return `SELECT TABLE_NAME FROM USER_TABLES WHERE :1 IS NOT NULL`
}

func (d *OracleDialect) GetColumnsQuery(schema string) string {
	return `SELECT t.TABLE_NAME, t.COLUMN_NAME, t.DATA_TYPE,
    CASE t.NULLABLE WHEN 'Y' THEN 'YES' ELSE 'NO' END
FROM USER_TAB_COLUMNS t
WHERE :1 IS NOT NULL
ORDER BY t.TABLE_NAME, t.COLUMN_ID`
}

func (d *OracleDialect) GetIndexesQuery(schema string) string {
	return `SELECT TABLE_NAME, INDEX_NAME FROM USER_INDEXES WHERE :1 IS NOT NULL`
}

func (d *OracleDialect) GetConstraintsQuery(schema string) string {
	return `SELECT TABLE_NAME, CONSTRAINT_NAME FROM USER_CONSTRAINTS WHERE :1 IS NOT NULL`
}

var oracleTypes = map[schema.LogicalType]string{
	schema.TypeShortText:   "VARCHAR2(255)",
	schema.TypeLongText:    "CLOB",
	schema.TypeInteger:     "NUMBER(10)",
	schema.TypeFloat:       "BINARY_DOUBLE",
	schema.TypeBoolean:     "NUMBER(1)",
	schema.TypeTimestamp:   "TIMESTAMP",
	schema.TypeTimestampTZ: "TIMESTAMP WITH TIME ZONE",
	schema.TypeJSON:        "CLOB",
	schema.TypeUUID:        "RAW(16)",
}

func (d *OracleDialect) RenderType(t schema.LogicalType) string {
	return oracleTypes[t]
}

// Booleans are NUMBER(1) columns holding 0/1.
func (d *OracleDialect) BooleanLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (d *OracleDialect) CreateTableQuery(t *schema.Table) string {
	defs := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		defs = append(defs, RenderColumnDef(d, col))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(defs, ", "))
}

func (d *OracleDialect) AddColumnQuery(table string, col *schema.Column) string {
	return RenderAddColumn(d, "", table, col)
}

func (d *OracleDialect) CreateIndexQuery(idx *schema.Index) string {
	return RenderCreateIndex(idx, false)
}

func (d *OracleDialect) AddConstraintQuery(c *schema.Constraint) string {
	return RenderAddConstraint(c)
}

// DBMS_LOCK.REQUEST with a session-scoped handle: 0 is granted, 4 means this
// session already owns it, 1 is a timeout.
func (d *OracleDialect) AcquireLock(ctx context.Context, conn *sql.Conn, key int64, timeout time.Duration) (bool, error) {
	secs := int64(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	var result int64
	block := `DECLARE
  l_handle VARCHAR2(128);
BEGIN
  DBMS_LOCK.ALLOCATE_UNIQUE('SCHEMA_SYNC_' || TO_CHAR(:1), l_handle);
  :2 := DBMS_LOCK.REQUEST(l_handle, 6, :3, FALSE);
END;`
	if _, err := conn.ExecContext(ctx, block, key, sql.Out{Dest: &result}, secs); err != nil {
		return false, err
	}
	return result == 0 || result == 4, nil
}

func (d *OracleDialect) ReleaseLock(ctx context.Context, conn *sql.Conn, key int64) error {
	var result int64
	block := `DECLARE
  l_handle VARCHAR2(128);
BEGIN
  DBMS_LOCK.ALLOCATE_UNIQUE('SCHEMA_SYNC_' || TO_CHAR(:1), l_handle);
  :2 := DBMS_LOCK.RELEASE(l_handle);
END;`
	_, err := conn.ExecContext(ctx, block, key, sql.Out{Dest: &result})
	return err
}

// go-ora surfaces ORA- codes reliably only in the message text, so matching
// stays textual here: ORA-01430 column exists, ORA-00955 name in use,
// ORA-01408 column list already indexed, ORA-02264/02261 duplicate
// constraint.
func (d *OracleDialect) IsDuplicateObject(err error) bool {
	return containsAny(err, "ora-01430", "ora-00955", "ora-01408", "ora-02264", "ora-02261")
}

func (d *OracleDialect) GetSchemaName(input string) string {
	return input
}
