package schema

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type tableSpec struct {
	Name        string           `mapstructure:"name"`
	Columns     []columnSpec     `mapstructure:"columns"`
	Indexes     []indexSpec      `mapstructure:"indexes"`
	Constraints []constraintSpec `mapstructure:"constraints"`
}

type columnSpec struct {
	Name             string  `mapstructure:"name"`
	Type             string  `mapstructure:"type"`
	Nullable         *bool   `mapstructure:"nullable"`
	Default          *string `mapstructure:"default"`
	CanonicalDefault bool    `mapstructure:"canonical_default"`
	Unique           bool    `mapstructure:"unique"`
}

type indexSpec struct {
	Name    string   `mapstructure:"name"`
	Columns []string `mapstructure:"columns"`
	Unique  bool     `mapstructure:"unique"`
}

type constraintSpec struct {
	Name       string `mapstructure:"name"`
	Kind       string `mapstructure:"kind"`
	Definition string `mapstructure:"definition"`
}

// LoadDeclared reads the declared schema snapshot from the "schema.tables"
// config section and validates it. The result is the immutable input for one
// reconciliation run; nothing in the engine mutates it.
func LoadDeclared(v *viper.Viper) ([]*Table, error) {
	var specs []tableSpec
	if err := v.UnmarshalKey("schema.tables", &specs); err != nil {
		return nil, fmt.Errorf("failed to parse schema.tables config: %w", err)
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("no tables declared under schema.tables")
	}

	seen := make(map[string]bool)
	tables := make([]*Table, 0, len(specs))
	for _, ts := range specs {
		t, err := buildTable(ts)
		if err != nil {
			return nil, err
		}
		key := strings.ToUpper(t.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate table declaration: %s", t.Name)
		}
		seen[key] = true
		tables = append(tables, t)
	}
	return tables, nil
}

func buildTable(ts tableSpec) (*Table, error) {
	if ts.Name == "" {
		return nil, fmt.Errorf("table declaration missing name")
	}
	if len(ts.Columns) == 0 {
		return nil, fmt.Errorf("table %s declares no columns", ts.Name)
	}

	t := &Table{Name: ts.Name}

	seenCols := make(map[string]bool)
	for _, cs := range ts.Columns {
		col, err := buildColumn(ts.Name, cs)
		if err != nil {
			return nil, err
		}
		key := strings.ToUpper(col.Name)
		if seenCols[key] {
			return nil, fmt.Errorf("duplicate column %s.%s", ts.Name, col.Name)
		}
		seenCols[key] = true
		t.Columns = append(t.Columns, col)
	}

	for _, is := range ts.Indexes {
		if is.Name == "" {
			return nil, fmt.Errorf("table %s: index missing name", ts.Name)
		}
		if len(is.Columns) == 0 {
			return nil, fmt.Errorf("index %s on %s lists no columns", is.Name, ts.Name)
		}
		for _, col := range is.Columns {
			if !seenCols[strings.ToUpper(col)] {
				return nil, fmt.Errorf("index %s references undeclared column %s.%s", is.Name, ts.Name, col)
			}
		}
		t.Indexes = append(t.Indexes, &Index{
			Name:    is.Name,
			Table:   ts.Name,
			Columns: is.Columns,
			Unique:  is.Unique,
		})
	}

	for _, cs := range ts.Constraints {
		kind := ConstraintKind(cs.Kind)
		switch kind {
		case ConstraintUnique, ConstraintCheck, ConstraintForeignKey:
		default:
			return nil, fmt.Errorf("constraint %s on %s: unknown kind %q", cs.Name, ts.Name, cs.Kind)
		}
		if cs.Name == "" || cs.Definition == "" {
			return nil, fmt.Errorf("table %s: constraint needs both name and definition", ts.Name)
		}
		t.Constraints = append(t.Constraints, &Constraint{
			Name:       cs.Name,
			Table:      ts.Name,
			Kind:       kind,
			Definition: cs.Definition,
		})
	}

	return t, nil
}

func buildColumn(table string, cs columnSpec) (*Column, error) {
	if cs.Name == "" {
		return nil, fmt.Errorf("table %s: column missing name", table)
	}
	lt := LogicalType(cs.Type)
	if !lt.Valid() {
		return nil, fmt.Errorf("column %s.%s: unknown type %q", table, cs.Name, cs.Type)
	}

	// Columns are nullable unless declared otherwise.
	nullable := true
	if cs.Nullable != nil {
		nullable = *cs.Nullable
	}

	def := Default{Kind: DefaultNone}
	switch {
	case cs.Default != nil && cs.CanonicalDefault:
		return nil, fmt.Errorf("column %s.%s: default and canonical_default are mutually exclusive", table, cs.Name)
	case cs.Default != nil:
		def = Default{Kind: DefaultLiteral, Literal: *cs.Default}
	case cs.CanonicalDefault:
		def = Default{Kind: DefaultCanonical}
	}

	return &Column{
		Name:     cs.Name,
		Type:     lt,
		Nullable: nullable,
		Default:  def,
		Unique:   cs.Unique,
	}, nil
}
