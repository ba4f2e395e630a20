package executor

import (
	"sort"

	"github.com/leengari/atomdb/internal/domain/data"
	"github.com/leengari/atomdb/internal/domain/schema"
	"github.com/leengari/atomdb/internal/parser/ast"
)

// executeSelect scans the table with an optional equality filter
func executeSelect(stmt *ast.SelectStatement, db *schema.Database) (*Result, error) {
	name := stmt.TableName.Value

	cols, err := db.DescribeTable(name)
	if err != nil {
		return nil, err
	}

	var records []data.Record
	if stmt.Where == nil {
		records, err = db.SelectAll(name)
	} else {
		records, err = db.SelectWhere(name, stmt.Where.Column.Value, stmt.Where.Value)
	}
	if err != nil {
		return nil, err
	}

	return &Result{
		Table:   name,
		Columns: displayColumns(cols, records),
		Records: records,
	}, nil
}

// displayColumns is the schema order (duplicates collapsed) followed by
// any extra fields found in the records, sorted
func displayColumns(schemaCols []string, records []data.Record) []string {
	seen := make(map[string]bool, len(schemaCols))
	columns := make([]string, 0, len(schemaCols))
	for _, c := range schemaCols {
		if !seen[c] {
			seen[c] = true
			columns = append(columns, c)
		}
	}

	var extras []string
	for _, rec := range records {
		for _, c := range rec.Row.Columns() {
			if !seen[c] {
				seen[c] = true
				extras = append(extras, c)
			}
		}
	}
	sort.Strings(extras)
	return append(columns, extras...)
}
