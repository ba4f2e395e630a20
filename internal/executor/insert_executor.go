package executor

import (
	"fmt"

	"github.com/leengari/atomdb/internal/domain/data"
	"github.com/leengari/atomdb/internal/domain/schema"
	"github.com/leengari/atomdb/internal/parser/ast"
)

// executeInsert builds a row from the assignment list. A repeated column
// keeps its last value.
func executeInsert(stmt *ast.InsertStatement, db *schema.Database) (*Result, error) {
	name := stmt.TableName.Value

	row := data.NewRow(nil)
	for _, a := range stmt.Assignments {
		row.Set(a.Column.Value, a.Value)
	}

	id, err := db.InsertRow(name, row)
	if err != nil {
		return nil, err
	}

	return &Result{
		Table:   name,
		RowID:   id,
		Message: fmt.Sprintf("Row inserted with ID: %d", id),
	}, nil
}
