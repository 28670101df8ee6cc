package dialect_test

import (
	"errors"
	"testing"

	mssql "github.com/denisenkom/go-mssqldb"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"schema-sync/internal/dialect"
	"schema-sync/internal/schema"
)

func TestAddColumnQuery(t *testing.T) {
	active := &schema.Column{
		Name:    "active",
		Type:    schema.TypeBoolean,
		Default: schema.Default{Kind: schema.DefaultCanonical},
	}
	payload := &schema.Column{Name: "payload", Type: schema.TypeJSON, Nullable: true}
	count := &schema.Column{
		Name:    "seen_count",
		Type:    schema.TypeInteger,
		Default: schema.Default{Kind: schema.DefaultCanonical},
	}

	tests := []struct {
		name    string
		dialect dialect.Dialect
		col     *schema.Column
		want    string
	}{
		{
			// Boolean defaults always spell the literal out so existing rows
			// are backfilled instead of left NULL.
			name:    "postgres boolean default",
			dialect: &dialect.PostgresDialect{},
			col:     active,
			want:    "ALTER TABLE therapists ADD COLUMN IF NOT EXISTS active BOOLEAN DEFAULT FALSE NOT NULL",
		},
		{
			name:    "mysql boolean default",
			dialect: &dialect.MysqlDialect{},
			col:     active,
			want:    "ALTER TABLE therapists ADD COLUMN active TINYINT(1) DEFAULT FALSE NOT NULL",
		},
		{
			name:    "mssql bit renders 0",
			dialect: &dialect.MSSQLDialect{},
			col:     active,
			want:    "ALTER TABLE therapists ADD active BIT DEFAULT 0 NOT NULL",
		},
		{
			name:    "oracle number renders 0",
			dialect: &dialect.OracleDialect{},
			col:     active,
			want:    "ALTER TABLE therapists ADD active NUMBER(1) DEFAULT 0 NOT NULL",
		},
		{
			// json columns arrive nullable with no default.
			name:    "postgres json no default",
			dialect: &dialect.PostgresDialect{},
			col:     payload,
			want:    "ALTER TABLE therapists ADD COLUMN IF NOT EXISTS payload JSONB",
		},
		{
			name:    "postgres canonical integer",
			dialect: &dialect.PostgresDialect{},
			col:     count,
			want:    "ALTER TABLE therapists ADD COLUMN IF NOT EXISTS seen_count INTEGER DEFAULT 0 NOT NULL",
		},
		{
			name:    "sqlite boolean default",
			dialect: &dialect.SQLiteDialect{},
			col:     active,
			want:    "ALTER TABLE therapists ADD COLUMN active BOOLEAN DEFAULT FALSE NOT NULL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.AddColumnQuery("therapists", tt.col); got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestAddColumnQuery_LiteralBooleanNormalized(t *testing.T) {
	col := &schema.Column{
		Name:     "verified",
		Type:     schema.TypeBoolean,
		Nullable: true,
		Default:  schema.Default{Kind: schema.DefaultLiteral, Literal: "true"},
	}
	pg := &dialect.PostgresDialect{}
	if got, want := pg.AddColumnQuery("users", col), "ALTER TABLE users ADD COLUMN IF NOT EXISTS verified BOOLEAN DEFAULT TRUE"; got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
	ms := &dialect.MSSQLDialect{}
	if got, want := ms.AddColumnQuery("users", col), "ALTER TABLE users ADD verified BIT DEFAULT 1"; got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestCreateIndexQuery(t *testing.T) {
	idx := &schema.Index{Name: "ix_active", Table: "therapists", Columns: []string{"active", "name"}}

	pg := &dialect.PostgresDialect{}
	if got, want := pg.CreateIndexQuery(idx), "CREATE INDEX IF NOT EXISTS ix_active ON therapists (active, name)"; got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}

	// MySQL has no IF NOT EXISTS for indexes; duplicates are classified
	// from error 1061 instead.
	my := &dialect.MysqlDialect{}
	if got, want := my.CreateIndexQuery(idx), "CREATE INDEX ix_active ON therapists (active, name)"; got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}

	uq := &schema.Index{Name: "uq_email", Table: "users", Columns: []string{"email"}, Unique: true}
	if got, want := pg.CreateIndexQuery(uq), "CREATE UNIQUE INDEX IF NOT EXISTS uq_email ON users (email)"; got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestSQLiteConstraintFallsBackToUniqueIndex(t *testing.T) {
	d := &dialect.SQLiteDialect{}
	c := &schema.Constraint{
		Name:       "uq_users_email",
		Table:      "users",
		Kind:       schema.ConstraintUnique,
		Definition: "UNIQUE (email)",
	}
	want := "CREATE UNIQUE INDEX IF NOT EXISTS uq_users_email ON users (email)"
	if got := d.AddConstraintQuery(c); got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}

func TestIsDuplicateObject(t *testing.T) {
	tests := []struct {
		name    string
		dialect dialect.Dialect
		err     error
		want    bool
	}{
		{"pg duplicate column", &dialect.PostgresDialect{}, &pq.Error{Code: "42701"}, true},
		{"pg duplicate table", &dialect.PostgresDialect{}, &pq.Error{Code: "42P07"}, true},
		{"pg duplicate object", &dialect.PostgresDialect{}, &pq.Error{Code: "42710"}, true},
		{"pg syntax error not duplicate", &dialect.PostgresDialect{}, &pq.Error{Code: "42601", Message: "syntax error"}, false},
		{"pg wrapped", &dialect.PostgresDialect{}, errors.New("pq: column \"active\" of relation \"therapists\" already exists"), true},
		{"mysql duplicate column", &dialect.MysqlDialect{}, &mysql.MySQLError{Number: 1060}, true},
		{"mysql duplicate key name", &dialect.MysqlDialect{}, &mysql.MySQLError{Number: 1061}, true},
		{"mysql access denied not duplicate", &dialect.MysqlDialect{}, &mysql.MySQLError{Number: 1045}, false},
		{"mssql duplicate column", &dialect.MSSQLDialect{}, mssql.Error{Number: 2705}, true},
		{"mssql permission not duplicate", &dialect.MSSQLDialect{}, mssql.Error{Number: 229}, false},
		{"oracle column exists", &dialect.OracleDialect{}, errors.New("ORA-01430: column being added already exists in table"), true},
		{"oracle name in use", &dialect.OracleDialect{}, errors.New("ORA-00955: name is already used by an existing object"), true},
		{"oracle invalid identifier not duplicate", &dialect.OracleDialect{}, errors.New("ORA-00904: invalid identifier"), false},
		{"sqlite duplicate column", &dialect.SQLiteDialect{}, errors.New("duplicate column name: active"), true},
		{"nil error", &dialect.PostgresDialect{}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.IsDuplicateObject(tt.err); got != tt.want {
				t.Errorf("IsDuplicateObject(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestGetDialect(t *testing.T) {
	for driver, want := range map[string]string{
		"postgres":  "postgres",
		"mysql":     "mysql",
		"sqlserver": "sqlserver",
		"mssql":     "sqlserver",
		"oracle":    "oracle",
		"sqlite":    "sqlite",
	} {
		if d := dialect.GetDialect(driver); d.Name() != want {
			t.Errorf("GetDialect(%q).Name() = %q, want %q", driver, d.Name(), want)
		}
	}
}
