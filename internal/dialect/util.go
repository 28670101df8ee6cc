package dialect

import (
	"fmt"
	"strings"

	"schema-sync/internal/schema"
)

// RenderDefault builds the DEFAULT clause (leading space included) for a
// column, or "" when the column gets none. Boolean defaults always render an
// explicit literal: some drivers otherwise leave existing rows NULL instead
// of the intended value. json and timestamp columns stay nullable with no
// default unless a fixed literal was declared.
func RenderDefault(d Dialect, col *schema.Column) string {
	switch col.Default.Kind {
	case schema.DefaultLiteral:
		lit := col.Default.Literal
		if col.Type == schema.TypeBoolean {
			lit = d.BooleanLiteral(isTruthy(lit))
		}
		return " DEFAULT " + lit
	case schema.DefaultCanonical:
		switch col.Type {
		case schema.TypeBoolean:
			return " DEFAULT " + d.BooleanLiteral(false)
		case schema.TypeInteger, schema.TypeFloat:
			return " DEFAULT 0"
		case schema.TypeShortText, schema.TypeLongText:
			return " DEFAULT ''"
		}
	}
	return ""
}

func isTruthy(lit string) bool {
	switch strings.ToLower(strings.TrimSpace(lit)) {
	case "true", "t", "1", "yes", "on":
		return true
	}
	return false
}

// RenderColumnDef builds the column portion of a CREATE TABLE statement.
func RenderColumnDef(d Dialect, col *schema.Column) string {
	var b strings.Builder
	b.WriteString(col.Name)
	b.WriteString(" ")
	b.WriteString(d.RenderType(col.Type))
	b.WriteString(RenderDefault(d, col))
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

// RenderAddColumn is the common ALTER TABLE ADD form. Dialects with an
// IF NOT EXISTS variant prepend their own guard. NOT NULL is rendered only
// alongside a default: adding a NOT NULL column without one fails on any
// table that already has rows.
func RenderAddColumn(d Dialect, keyword, table string, col *schema.Column) string {
	def := RenderDefault(d, col)
	stmt := fmt.Sprintf("ALTER TABLE %s ADD %s%s %s%s", table, keyword, col.Name, d.RenderType(col.Type), def)
	if !col.Nullable && def != "" {
		stmt += " NOT NULL"
	}
	return stmt
}

// RenderCreateIndex is the common CREATE [UNIQUE] INDEX form.
func RenderCreateIndex(idx *schema.Index, ifNotExists bool) string {
	unique := ""
	if idx.Unique {
		unique = "UNIQUE "
	}
	guard := ""
	if ifNotExists {
		guard = "IF NOT EXISTS "
	}
	return fmt.Sprintf("CREATE %sINDEX %s%s ON %s (%s)",
		unique, guard, idx.Name, idx.Table, strings.Join(idx.Columns, ", "))
}

// RenderAddConstraint hands the declared definition to the database
// unchanged; the engine never interprets constraint bodies.
func RenderAddConstraint(c *schema.Constraint) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s %s", c.Table, c.Name, c.Definition)
}

// DefaultGetSchemaName is a default implementation for Getting Schema Name (identity).
func DefaultGetSchemaName(input string) string {
	return input
}

// containsAny reports whether the lower-cased error text contains any marker.
// Message matching is the fallback for drivers without structured codes.
func containsAny(err error, markers ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range markers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
