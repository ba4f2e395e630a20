package schema

import (
	"github.com/leengari/atomdb/internal/domain/data"
	"github.com/leengari/atomdb/internal/domain/errors"
)

// Table represents a database table with its schema and data.
// Tables carry no lock of their own: every access happens while the
// engine guard is held.
type Table struct {
	Name    string
	Columns []string   // declared schema, kept verbatim (duplicates included)
	Rows    []data.Row // slice index is the row id
}

// NewTable creates an empty table with the given schema
func NewTable(name string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		Name:    name,
		Columns: cols,
		Rows:    make([]data.Row, 0),
	}
}

// RowCount returns the number of stored rows, which is also the next row id
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// InsertRow validates the row against the schema and appends a copy of it.
// The assigned row id is the row count at insertion time.
func (t *Table) InsertRow(row data.Row) (int, error) {
	if missing := row.MissingColumns(t.Columns); len(missing) > 0 {
		return -1, &errors.SchemaViolationError{
			Table:   t.Name,
			Missing: dedupe(missing),
		}
	}

	// Get new id BEFORE append
	rowID := len(t.Rows)
	t.Rows = append(t.Rows, row.Copy())
	return rowID, nil
}

// SelectAll returns every row in ascending row-id (insertion) order
func (t *Table) SelectAll() []data.Record {
	result := make([]data.Record, len(t.Rows))
	for id, row := range t.Rows {
		result[id] = data.Record{ID: id, Row: row.Copy()}
	}
	return result
}

// SelectWhere scans every row and returns those whose column equals value.
// There is no index: the cost is O(row count). Rows lacking the column never match.
func (t *Table) SelectWhere(column, value string) []data.Record {
	result := make([]data.Record, 0)
	for id, row := range t.Rows {
		if v, ok := row.Get(column); ok && v == value {
			result = append(result, data.Record{ID: id, Row: row.Copy()})
		}
	}
	return result
}

// Describe returns a copy of the declared column list
func (t *Table) Describe() []string {
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return cols
}

// Equal compares name, schema and every row
func (t *Table) Equal(other *Table) bool {
	if t.Name != other.Name || len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != other.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		if !t.Rows[i].Equal(other.Rows[i]) {
			return false
		}
	}
	return true
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
