package executor

import (
	"fmt"

	"github.com/leengari/atomdb/internal/domain/schema"
	"github.com/leengari/atomdb/internal/parser/ast"
)

func executeCreate(stmt *ast.CreateTableStatement, db *schema.Database) (*Result, error) {
	name := stmt.TableName.Value
	if err := db.CreateTable(name, stmt.ColumnNames()); err != nil {
		return nil, err
	}
	return &Result{
		Table:   name,
		Message: fmt.Sprintf("Table '%s' created successfully", name),
	}, nil
}

func executeDrop(stmt *ast.DropTableStatement, db *schema.Database) (*Result, error) {
	name := stmt.TableName.Value
	if err := db.DropTable(name); err != nil {
		return nil, err
	}
	return &Result{
		Table:   name,
		Message: fmt.Sprintf("Table '%s' dropped successfully", name),
	}, nil
}

func executeDescribe(stmt *ast.DescribeStatement, db *schema.Database) (*Result, error) {
	name := stmt.TableName.Value
	cols, err := db.DescribeTable(name)
	if err != nil {
		return nil, err
	}
	return &Result{Table: name, Columns: cols}, nil
}

func executeShowTables(db *schema.Database) *Result {
	return &Result{Tables: db.ListTables()}
}
