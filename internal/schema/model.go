package schema

import "strings"

// LogicalType is the closed set of column types the engine knows how to
// render per dialect. Anything outside this set is rejected at load time.
type LogicalType string

const (
	TypeShortText   LogicalType = "short-text"
	TypeLongText    LogicalType = "long-text"
	TypeInteger     LogicalType = "integer"
	TypeFloat       LogicalType = "floating-point"
	TypeBoolean     LogicalType = "boolean"
	TypeTimestamp   LogicalType = "timestamp"
	TypeTimestampTZ LogicalType = "timestamp-tz"
	TypeJSON        LogicalType = "json"
	TypeUUID        LogicalType = "uuid"
)

var logicalTypes = map[LogicalType]bool{
	TypeShortText:   true,
	TypeLongText:    true,
	TypeInteger:     true,
	TypeFloat:       true,
	TypeBoolean:     true,
	TypeTimestamp:   true,
	TypeTimestampTZ: true,
	TypeJSON:        true,
	TypeUUID:        true,
}

func (t LogicalType) Valid() bool {
	return logicalTypes[t]
}

// DefaultKind selects how a column default is rendered.
type DefaultKind int

const (
	// DefaultNone renders no DEFAULT clause.
	DefaultNone DefaultKind = iota
	// DefaultLiteral renders the declared literal verbatim.
	DefaultLiteral
	// DefaultCanonical renders the type's canonical default (FALSE for
	// boolean, 0 for numbers, '' for text). json and timestamp columns
	// stay nullable with no default.
	DefaultCanonical
)

type Default struct {
	Kind    DefaultKind
	Literal string
}

type Column struct {
	Name     string
	Type     LogicalType
	Nullable bool
	Default  Default
	Unique   bool
}

type Index struct {
	Name    string
	Table   string
	Columns []string
	Unique  bool
}

// ConstraintKind is the declared constraint flavor.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintForeignKey ConstraintKind = "foreign-key"
)

// Constraint carries an opaque body; the engine only matches by name and
// hands Definition to the dialect unchanged.
type Constraint struct {
	Name       string
	Table      string
	Kind       ConstraintKind
	Definition string
}

// Table is one declared table: an immutable snapshot owned by the caller
// for the duration of a single reconciliation run.
type Table struct {
	Name        string
	Columns     []*Column
	Indexes     []*Index
	Constraints []*Constraint
}

func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// LiveColumn mirrors one introspected column. Only the name participates in
// diffing; the rest is carried for logging.
type LiveColumn struct {
	Name       string
	DataType   string
	IsNullable bool
}

// LiveTable is the introspected state of one table. Exists is false when the
// table is not present at all, which is a supported first-startup path, not
// an error.
type LiveTable struct {
	Name        string
	Exists      bool
	Columns     []*LiveColumn
	Indexes     map[string]bool
	Constraints map[string]bool
}

// Keys are matched case-insensitively: Oracle reports identifiers upper-cased
// while declarations are usually lower-case.
func (t *LiveTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (t *LiveTable) HasIndex(name string) bool {
	return t.Indexes[strings.ToUpper(name)]
}

func (t *LiveTable) HasConstraint(name string) bool {
	return t.Constraints[strings.ToUpper(name)]
}
