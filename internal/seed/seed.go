// Package seed populates a fresh database with demo rows.
package seed

import (
	"github.com/leengari/atomdb/internal/domain/data"
	"github.com/leengari/atomdb/internal/domain/schema"
)

// UsersTable is the table created by Demo
const UsersTable = "users"

var demoUsers = []map[string]string{
	{"id": "1", "name": "Alice", "email": "alice@example.com", "age": "25"},
	{"id": "2", "name": "Bob", "email": "bob@example.com", "age": "30"},
	{"id": "3", "name": "Charlie", "email": "charlie@example.com", "age": "28"},
}

// Demo creates users(id, name, email, age) with three rows.
// It fails with DuplicateTable if users already exists.
func Demo(db *schema.Database) error {
	if err := db.CreateTable(UsersTable, []string{"id", "name", "email", "age"}); err != nil {
		return err
	}
	for _, u := range demoUsers {
		if _, err := db.InsertRow(UsersTable, data.NewRow(u)); err != nil {
			return err
		}
	}
	return nil
}
