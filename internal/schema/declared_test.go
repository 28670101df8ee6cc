package schema_test

import (
	"strings"
	"testing"

	"github.com/spf13/viper"

	"schema-sync/internal/schema"
)

func loadYAML(t *testing.T, yml string) ([]*schema.Table, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(yml)); err != nil {
		t.Fatalf("fixture config did not parse: %v", err)
	}
	return schema.LoadDeclared(v)
}

func TestLoadDeclared(t *testing.T) {
	tables, err := loadYAML(t, `
schema:
  tables:
    - name: therapists
      columns:
        - name: id
          type: uuid
          nullable: false
        - name: name
          type: short-text
        - name: active
          type: boolean
          nullable: false
          canonical_default: true
        - name: profile
          type: json
      indexes:
        - name: ix_therapists_active
          columns: [active]
      constraints:
        - name: uq_therapists_name
          kind: unique
          definition: UNIQUE (name)
`)
	if err != nil {
		t.Fatalf("LoadDeclared: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}

	tbl := tables[0]
	if tbl.Name != "therapists" || len(tbl.Columns) != 4 {
		t.Fatalf("unexpected table shape: %s with %d columns", tbl.Name, len(tbl.Columns))
	}

	id := tbl.Column("id")
	if id.Nullable {
		t.Error("id declared nullable: false, got nullable")
	}
	if name := tbl.Column("name"); !name.Nullable {
		t.Error("name omitted nullable, expected nullable default")
	}
	active := tbl.Column("active")
	if active.Default.Kind != schema.DefaultCanonical {
		t.Errorf("active: expected canonical default, got %v", active.Default.Kind)
	}
	if profile := tbl.Column("profile"); profile.Default.Kind != schema.DefaultNone {
		t.Error("profile: expected no default")
	}

	if len(tbl.Indexes) != 1 || tbl.Indexes[0].Table != "therapists" {
		t.Fatalf("unexpected indexes: %+v", tbl.Indexes)
	}
	if len(tbl.Constraints) != 1 || tbl.Constraints[0].Kind != schema.ConstraintUnique {
		t.Fatalf("unexpected constraints: %+v", tbl.Constraints)
	}
}

func TestLoadDeclared_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yml     string
		wantErr string
	}{
		{
			name:    "nothing declared",
			yml:     `schema: {}`,
			wantErr: "no tables declared",
		},
		{
			name: "unknown column type",
			yml: `
schema:
  tables:
    - name: t
      columns:
        - {name: a, type: varchar}
`,
			wantErr: "unknown type",
		},
		{
			name: "duplicate column",
			yml: `
schema:
  tables:
    - name: t
      columns:
        - {name: a, type: integer}
        - {name: A, type: integer}
`,
			wantErr: "duplicate column",
		},
		{
			name: "duplicate table",
			yml: `
schema:
  tables:
    - name: t
      columns: [{name: a, type: integer}]
    - name: T
      columns: [{name: a, type: integer}]
`,
			wantErr: "duplicate table",
		},
		{
			name: "index on undeclared column",
			yml: `
schema:
  tables:
    - name: t
      columns: [{name: a, type: integer}]
      indexes:
        - {name: ix_b, columns: [b]}
`,
			wantErr: "undeclared column",
		},
		{
			name: "conflicting defaults",
			yml: `
schema:
  tables:
    - name: t
      columns:
        - {name: a, type: boolean, default: "true", canonical_default: true}
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "constraint without definition",
			yml: `
schema:
  tables:
    - name: t
      columns: [{name: a, type: integer}]
      constraints:
        - {name: uq_a, kind: unique}
`,
			wantErr: "name and definition",
		},
		{
			name: "unknown constraint kind",
			yml: `
schema:
  tables:
    - name: t
      columns: [{name: a, type: integer}]
      constraints:
        - {name: pk_a, kind: primary-key, definition: "PRIMARY KEY (a)"}
`,
			wantErr: "unknown kind",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadYAML(t, tt.yml)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}
