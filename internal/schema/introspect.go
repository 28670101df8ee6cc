package schema

import (
	"database/sql"
	"fmt"
	"strings"
)

// MetadataQueries is the slice of the dialect the introspector needs.
// Column rows must come back as (table, column, data_type, is_nullable) with
// is_nullable normalized to YES/NO; index and constraint rows as (table, name).
type MetadataQueries interface {
	GetTablesQuery(schema string) string
	GetColumnsQuery(schema string) string
	GetIndexesQuery(schema string) string
	GetConstraintsQuery(schema string) string
}

// Introspect reads the live structure of every table in the schema and
// returns a snapshot keyed by upper-cased table name. Tables named in want
// that do not exist get an entry with Exists=false: first startup against an
// empty database is a supported path, not an error. Read-only; the snapshot
// is never cached across runs.
func Introspect(db *sql.DB, q MetadataQueries, schemaName string, want []string) (map[string]*LiveTable, error) {
	live := make(map[string]*LiveTable)

	// --- Step 1: Tables ---
	rows, err := db.Query(q.GetTablesQuery(schemaName), schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		live[strings.ToUpper(name)] = &LiveTable{
			Name:        name,
			Exists:      true,
			Indexes:     make(map[string]bool),
			Constraints: make(map[string]bool),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	// --- Step 2: Columns ---
	colRows, err := db.Query(q.GetColumnsQuery(schemaName), schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer colRows.Close()

	for colRows.Next() {
		var tName, cName, dType, isNull sql.NullString
		if err := colRows.Scan(&tName, &cName, &dType, &isNull); err != nil {
			return nil, fmt.Errorf("failed to scan column (table: %s): %w", tName.String, err)
		}
		if !tName.Valid || !cName.Valid {
			continue
		}
		if t, ok := live[strings.ToUpper(tName.String)]; ok {
			t.Columns = append(t.Columns, &LiveColumn{
				Name:       cName.String,
				DataType:   strings.ToLower(dType.String),
				IsNullable: isNull.String == "YES",
			})
		}
	}
	if err := colRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	// --- Step 3: Indexes ---
	if err := scanNamePairs(db, q.GetIndexesQuery(schemaName), schemaName, live, func(t *LiveTable, name string) {
		t.Indexes[strings.ToUpper(name)] = true
	}); err != nil {
		return nil, fmt.Errorf("failed to read indexes: %w", err)
	}

	// --- Step 4: Constraints ---
	if err := scanNamePairs(db, q.GetConstraintsQuery(schemaName), schemaName, live, func(t *LiveTable, name string) {
		t.Constraints[strings.ToUpper(name)] = true
	}); err != nil {
		return nil, fmt.Errorf("failed to read constraints: %w", err)
	}

	// Explicit absent markers for wanted tables the scan did not find.
	for _, name := range want {
		key := strings.ToUpper(name)
		if _, ok := live[key]; !ok {
			live[key] = &LiveTable{
				Name:        name,
				Indexes:     make(map[string]bool),
				Constraints: make(map[string]bool),
			}
		}
	}

	return live, nil
}

func scanNamePairs(db *sql.DB, query, schemaName string, live map[string]*LiveTable, add func(*LiveTable, string)) error {
	rows, err := db.Query(query, schemaName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tName, name sql.NullString
		if err := rows.Scan(&tName, &name); err != nil {
			return err
		}
		if !tName.Valid || !name.Valid {
			continue
		}
		if t, ok := live[strings.ToUpper(tName.String)]; ok {
			add(t, name.String)
		}
	}
	return rows.Err()
}
