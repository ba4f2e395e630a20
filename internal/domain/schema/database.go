package schema

import (
	"sort"

	"github.com/leengari/atomdb/internal/domain/data"
	"github.com/leengari/atomdb/internal/domain/errors"
)

// Database owns the full set of tables for one store instance.
// Every method either applies its single effect completely or leaves
// the database untouched.
type Database struct {
	Tables map[string]*Table
}

// NewDatabase creates an empty database
func NewDatabase() *Database {
	return &Database{Tables: make(map[string]*Table)}
}

// CreateTable adds an empty table with the given schema
func (db *Database) CreateTable(name string, columns []string) error {
	if _, exists := db.Tables[name]; exists {
		return &errors.DuplicateTableError{Table: name}
	}
	db.Tables[name] = NewTable(name, columns)
	return nil
}

// InsertRow appends a row to the named table and returns its id
func (db *Database) InsertRow(tableName string, row data.Row) (int, error) {
	table, err := db.table(tableName)
	if err != nil {
		return -1, err
	}
	return table.InsertRow(row)
}

// SelectAll returns all rows of the named table in row-id order
func (db *Database) SelectAll(tableName string) ([]data.Record, error) {
	table, err := db.table(tableName)
	if err != nil {
		return nil, err
	}
	return table.SelectAll(), nil
}

// SelectWhere returns rows of the named table where column equals value
func (db *Database) SelectWhere(tableName, column, value string) ([]data.Record, error) {
	table, err := db.table(tableName)
	if err != nil {
		return nil, err
	}
	return table.SelectWhere(column, value), nil
}

// DescribeTable returns the declared columns of the named table
func (db *Database) DescribeTable(tableName string) ([]string, error) {
	table, err := db.table(tableName)
	if err != nil {
		return nil, err
	}
	return table.Describe(), nil
}

// ListTables returns the set of table names. The slice is sorted so
// output is stable; callers must not depend on any ordering.
func (db *Database) ListTables() []string {
	names := make([]string, 0, len(db.Tables))
	for name := range db.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DropTable removes the named table together with all of its rows
func (db *Database) DropTable(tableName string) error {
	if _, err := db.table(tableName); err != nil {
		return err
	}
	delete(db.Tables, tableName)
	return nil
}

// Equal reports whether both databases hold the same tables, schemas and rows
func (db *Database) Equal(other *Database) bool {
	if len(db.Tables) != len(other.Tables) {
		return false
	}
	for name, t := range db.Tables {
		o, ok := other.Tables[name]
		if !ok || !t.Equal(o) {
			return false
		}
	}
	return true
}

func (db *Database) table(name string) (*Table, error) {
	table, ok := db.Tables[name]
	if !ok {
		return nil, &errors.TableNotFoundError{Table: name}
	}
	return table, nil
}
