package diff_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"schema-sync/internal/diff"
	"schema-sync/internal/schema"
)

func liveTable(name string, cols ...string) *schema.LiveTable {
	t := &schema.LiveTable{
		Name:        name,
		Exists:      true,
		Indexes:     make(map[string]bool),
		Constraints: make(map[string]bool),
	}
	for _, c := range cols {
		t.Columns = append(t.Columns, &schema.LiveColumn{Name: c})
	}
	return t
}

func TestTable_EmptyLiveTable(t *testing.T) {
	declared := &schema.Table{
		Name: "therapists",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeUUID},
			{Name: "name", Type: schema.TypeShortText},
			{Name: "active", Type: schema.TypeBoolean, Default: schema.Default{Kind: schema.DefaultCanonical}},
		},
	}

	ops := diff.Table(declared, liveTable("therapists"))

	if len(ops) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(ops))
	}
	want := []string{"id", "name", "active"}
	for i, name := range want {
		if ops[i].Kind != diff.OpAddColumn {
			t.Errorf("op %d: expected add-column, got %s", i, ops[i].Kind)
		}
		if ops[i].Column.Name != name {
			t.Errorf("op %d: expected column %s, got %s (declaration order must be preserved)", i, name, ops[i].Column.Name)
		}
	}
}

func TestTable_ColumnThenIndex(t *testing.T) {
	declared := &schema.Table{
		Name: "therapists",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeUUID},
			{Name: "name", Type: schema.TypeShortText},
			{Name: "active", Type: schema.TypeBoolean},
		},
		Indexes: []*schema.Index{
			{Name: "ix_active", Table: "therapists", Columns: []string{"active"}},
		},
	}

	ops := diff.Table(declared, liveTable("therapists", "id", "name"))

	if len(ops) != 2 {
		t.Fatalf("expected 2 operations, got %d", len(ops))
	}
	if ops[0].Kind != diff.OpAddColumn || ops[0].Column.Name != "active" {
		t.Errorf("op 0: expected add-column active, got %s %s", ops[0].Kind, ops[0].Object())
	}
	if ops[1].Kind != diff.OpAddIndex || ops[1].Index.Name != "ix_active" {
		t.Errorf("op 1: expected add-index ix_active after the column, got %s %s", ops[1].Kind, ops[1].Object())
	}
}

func TestTable_UpToDateYieldsEmptyPlan(t *testing.T) {
	declared := &schema.Table{
		Name: "therapists",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeUUID},
			{Name: "active", Type: schema.TypeBoolean},
		},
		Indexes: []*schema.Index{
			{Name: "ix_active", Table: "therapists", Columns: []string{"active"}},
		},
	}
	live := liveTable("therapists", "id", "active")
	live.Indexes["IX_ACTIVE"] = true

	if ops := diff.Table(declared, live); len(ops) != 0 {
		t.Errorf("expected empty plan on converged schema, got %d ops", len(ops))
	}
}

func TestTable_AbsentTableShortCircuits(t *testing.T) {
	declared := &schema.Table{
		Name: "appointments",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeUUID},
			{Name: "start_at", Type: schema.TypeTimestampTZ},
		},
		Indexes: []*schema.Index{
			{Name: "ix_start", Table: "appointments", Columns: []string{"start_at"}},
		},
	}

	for _, live := range []*schema.LiveTable{nil, {Name: "appointments", Exists: false}} {
		ops := diff.Table(declared, live)
		if len(ops) != 2 {
			t.Fatalf("expected create-table + add-index, got %d ops", len(ops))
		}
		if ops[0].Kind != diff.OpCreateTable {
			t.Errorf("expected create-table first, got %s", ops[0].Kind)
		}
		if ops[1].Kind != diff.OpAddIndex {
			t.Errorf("expected add-index second, got %s", ops[1].Kind)
		}
	}
}

func TestTable_UndeclaredLiveObjectsUntouched(t *testing.T) {
	declared := &schema.Table{
		Name: "therapists",
		Columns: []*schema.Column{
			{Name: "id", Type: schema.TypeUUID},
		},
	}
	// Hand-added legacy columns and indexes coexist safely.
	live := liveTable("therapists", "id", "legacy_notes", "migrated_from")
	live.Indexes["IX_LEGACY"] = true

	if ops := diff.Table(declared, live); len(ops) != 0 {
		t.Errorf("live-only objects must never produce operations, got %d", len(ops))
	}
}

func TestTable_CaseInsensitiveColumnMatch(t *testing.T) {
	declared := &schema.Table{
		Name: "therapists",
		Columns: []*schema.Column{
			{Name: "email", Type: schema.TypeShortText},
		},
	}
	// Oracle reports identifiers upper-cased.
	if ops := diff.Table(declared, liveTable("therapists", "EMAIL")); len(ops) != 0 {
		t.Errorf("expected case-insensitive match, got %d ops", len(ops))
	}
}

func TestBuild_Deterministic(t *testing.T) {
	faker := gofakeit.New(42)
	types := []schema.LogicalType{
		schema.TypeShortText, schema.TypeLongText, schema.TypeInteger,
		schema.TypeFloat, schema.TypeBoolean, schema.TypeTimestamp,
		schema.TypeTimestampTZ, schema.TypeJSON, schema.TypeUUID,
	}

	var declared []*schema.Table
	live := make(map[string]*schema.LiveTable)
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("%s_%d", faker.Word(), i)
		tbl := &schema.Table{Name: name}
		lt := liveTable(name)
		for j := 0; j < faker.Number(1, 12); j++ {
			col := &schema.Column{
				Name: fmt.Sprintf("%s_%d", faker.Word(), j),
				Type: types[faker.Number(0, len(types)-1)],
			}
			tbl.Columns = append(tbl.Columns, col)
			// Roughly half the columns already exist live.
			if faker.Bool() {
				lt.Columns = append(lt.Columns, &schema.LiveColumn{Name: col.Name})
			}
		}
		declared = append(declared, tbl)
		live[strings.ToUpper(name)] = lt
	}

	first := diff.Build(declared, live)
	second := diff.Build(declared, live)

	if !reflect.DeepEqual(first, second) {
		t.Error("diff output must be identical across runs for identical inputs")
	}
	if first.Empty() {
		t.Error("generated fixture unexpectedly produced an empty plan")
	}
}
