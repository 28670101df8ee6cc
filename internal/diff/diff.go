// Package diff computes the additive operation set that moves a live schema
// toward its declared shape. It never emits a drop, rename, or type change:
// columns present on both sides are left exactly as they are, and live
// objects absent from the declaration are ignored. The declaration describes
// a minimum required surface, not an exhaustive one.
package diff

import (
	"strings"

	"schema-sync/internal/schema"
)

type OpKind string

const (
	OpCreateTable   OpKind = "create-table"
	OpAddColumn     OpKind = "add-column"
	OpAddIndex      OpKind = "add-index"
	OpAddConstraint OpKind = "add-constraint"
)

// Operation is one additive change. Table is always set; exactly one of the
// spec fields is non-nil according to Kind.
type Operation struct {
	Kind       OpKind
	Table      string
	TableSpec  *schema.Table
	Column     *schema.Column
	Index      *schema.Index
	Constraint *schema.Constraint
}

// Object names the thing being added, for logs and reports.
func (o Operation) Object() string {
	switch o.Kind {
	case OpAddColumn:
		return o.Column.Name
	case OpAddIndex:
		return o.Index.Name
	case OpAddConstraint:
		return o.Constraint.Name
	default:
		return o.Table
	}
}

// Plan is the ordered operation set for one reconciliation run. Built once,
// applied once, discarded.
type Plan struct {
	Ops []Operation
}

func (p *Plan) Len() int    { return len(p.Ops) }
func (p *Plan) Empty() bool { return len(p.Ops) == 0 }

// Build diffs every declared table against the live snapshot (keyed by
// upper-cased name). Output order follows declaration order throughout, so
// identical inputs always produce identical plans; nothing here iterates a
// map.
func Build(declared []*schema.Table, live map[string]*schema.LiveTable) *Plan {
	p := &Plan{}
	for _, t := range declared {
		p.Ops = append(p.Ops, Table(t, live[strings.ToUpper(t.Name)])...)
	}
	return p
}

// Table computes the operations for one table. An absent live table
// short-circuits to a single create-table carrying the full declared column
// list; indexes and constraints still follow as separate operations so they
// get the same per-operation isolation as everything else.
func Table(declared *schema.Table, live *schema.LiveTable) []Operation {
	var ops []Operation

	if live == nil || !live.Exists {
		ops = append(ops, Operation{Kind: OpCreateTable, Table: declared.Name, TableSpec: declared})
		for _, idx := range declared.Indexes {
			ops = append(ops, Operation{Kind: OpAddIndex, Table: declared.Name, Index: idx})
		}
		for _, c := range declared.Constraints {
			ops = append(ops, Operation{Kind: OpAddConstraint, Table: declared.Name, Constraint: c})
		}
		return ops
	}

	// Missing columns first: an index cannot reference a column that does
	// not exist yet.
	for _, col := range declared.Columns {
		if !live.HasColumn(col.Name) {
			ops = append(ops, Operation{Kind: OpAddColumn, Table: declared.Name, Column: col})
		}
	}
	for _, idx := range declared.Indexes {
		if !live.HasIndex(idx.Name) {
			ops = append(ops, Operation{Kind: OpAddIndex, Table: declared.Name, Index: idx})
		}
	}
	for _, c := range declared.Constraints {
		if !live.HasConstraint(c.Name) {
			ops = append(ops, Operation{Kind: OpAddConstraint, Table: declared.Name, Constraint: c})
		}
	}
	return ops
}
