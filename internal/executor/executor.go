package executor

import (
	"fmt"
	"strings"

	"github.com/leengari/atomdb/internal/domain/data"
	"github.com/leengari/atomdb/internal/domain/schema"
	"github.com/leengari/atomdb/internal/parser/ast"
)

// Kind identifies which command produced a Result
type Kind string

const (
	KindCreate   Kind = "create"
	KindInsert   Kind = "insert"
	KindSelect   Kind = "select"
	KindDescribe Kind = "describe"
	KindShow     Kind = "show"
	KindDrop     Kind = "drop"
)

// Result is the outcome of one successfully executed command.
// Only the fields relevant to Kind are set.
type Result struct {
	Kind    Kind
	Table   string
	Message string // confirmation for CREATE, INSERT and DROP

	RowID int // INSERT

	Columns []string      // SELECT display columns (without ID), DESCRIBE schema
	Records []data.Record // SELECT

	Tables []string // SHOW TABLES
}

// Execute applies a parsed statement to the database. It performs no
// locking and no persistence; callers own both.
func Execute(stmt ast.Statement, db *schema.Database) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch s := stmt.(type) {
	case *ast.CreateTableStatement:
		res, err = executeCreate(s, db)
	case *ast.InsertStatement:
		res, err = executeInsert(s, db)
	case *ast.SelectStatement:
		res, err = executeSelect(s, db)
	case *ast.DescribeStatement:
		res, err = executeDescribe(s, db)
	case *ast.ShowTablesStatement:
		res = executeShowTables(db)
	case *ast.DropTableStatement:
		res, err = executeDrop(s, db)
	default:
		return nil, fmt.Errorf("unsupported statement type: %T", stmt)
	}
	if err != nil {
		return nil, err
	}
	res.Kind = KindOf(stmt)
	return res, nil
}

// KindOf returns the command kind of a statement
func KindOf(stmt ast.Statement) Kind {
	switch stmt.(type) {
	case *ast.CreateTableStatement:
		return KindCreate
	case *ast.InsertStatement:
		return KindInsert
	case *ast.SelectStatement:
		return KindSelect
	case *ast.DescribeStatement:
		return KindDescribe
	case *ast.ShowTablesStatement:
		return KindShow
	case *ast.DropTableStatement:
		return KindDrop
	}
	return ""
}

// IsMutating classifies raw command text by its leading keyword
func IsMutating(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	switch strings.ToUpper(fields[0]) {
	case "CREATE", "INSERT", "DROP":
		return true
	}
	return false
}
