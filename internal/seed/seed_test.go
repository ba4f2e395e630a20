package seed

import (
	"errors"
	"testing"

	dberrors "github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/domain/schema"
	"gotest.tools/v3/assert"
)

func TestDemo(t *testing.T) {
	db := schema.NewDatabase()
	assert.NilError(t, Demo(db))

	cols, err := db.DescribeTable(UsersTable)
	assert.NilError(t, err)
	assert.DeepEqual(t, cols, []string{"id", "name", "email", "age"})

	recs, err := db.SelectWhere(UsersTable, "name", "Bob")
	assert.NilError(t, err)
	assert.Equal(t, len(recs), 1)
	assert.Equal(t, recs[0].ID, 1)

	all, err := db.SelectAll(UsersTable)
	assert.NilError(t, err)
	assert.Equal(t, len(all), 3)
}

func TestDemoTwiceFails(t *testing.T) {
	db := schema.NewDatabase()
	assert.NilError(t, Demo(db))

	var dup *dberrors.DuplicateTableError
	assert.Assert(t, errors.As(Demo(db), &dup))
}
