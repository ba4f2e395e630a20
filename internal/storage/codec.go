package storage

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/leengari/atomdb/internal/domain/data"
	"github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/domain/schema"
)

// Codec converts a whole database to and from snapshot bytes.
// Decode returns *errors.CorruptDataError for any input that does not
// describe a valid database.
type Codec interface {
	Name() string
	Encode(db *schema.Database) ([]byte, error)
	Decode(b []byte) (*schema.Database, error)
}

const (
	FormatJSON   = "json"
	FormatBinary = "binary"

	CompressionNone = "none"
	CompressionZstd = "zstd"
)

// NewCodec returns the codec for a configured format and compression
func NewCodec(format, compression string) (Codec, error) {
	if compression == "" {
		compression = CompressionNone
	}
	switch format {
	case FormatJSON:
		if compression != CompressionNone {
			return nil, fmt.Errorf("compression %q is not supported by the %s format", compression, format)
		}
		return JSONCodec{}, nil
	case FormatBinary:
		switch compression {
		case CompressionNone:
			return BinaryCodec{}, nil
		case CompressionZstd:
			return BinaryCodec{Compress: true}, nil
		}
		return nil, fmt.Errorf("unknown compression %q", compression)
	}
	return nil, fmt.Errorf("unknown snapshot format %q", format)
}

// Sniff picks the codec able to read b by looking at its first bytes
func Sniff(b []byte) Codec {
	if bytes.HasPrefix(b, Magic[:]) {
		return BinaryCodec{}
	}
	return JSONCodec{}
}

// tableData is the codec-neutral form of one decoded table
type tableData struct {
	name    string
	columns []string
	rows    []rowData
}

type rowData struct {
	id     int
	fields map[string]string
}

// build reconstructs a database, checking that table names are unique,
// row ids are exactly 0..n-1 and every row satisfies its schema
func build(tables []tableData) (*schema.Database, error) {
	db := schema.NewDatabase()
	for _, td := range tables {
		if _, exists := db.Tables[td.name]; exists {
			return nil, errors.Corrupt("duplicate table '%s'", td.name)
		}

		rows := make([]rowData, len(td.rows))
		copy(rows, td.rows)
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].id < rows[j].id })

		table := schema.NewTable(td.name, td.columns)
		for i, r := range rows {
			if r.id != i {
				return nil, errors.Corrupt("table '%s': row ids are not contiguous from 0 (found %d at position %d)", td.name, r.id, i)
			}
			if _, err := table.InsertRow(data.NewRow(r.fields)); err != nil {
				return nil, &errors.CorruptDataError{Reason: fmt.Sprintf("table '%s' row %d", td.name, r.id), Err: err}
			}
		}
		db.Tables[td.name] = table
	}
	return db, nil
}

// sortedTables returns the tables ordered by name
func sortedTables(db *schema.Database) []*schema.Table {
	names := db.ListTables()
	tables := make([]*schema.Table, len(names))
	for i, name := range names {
		tables[i] = db.Tables[name]
	}
	return tables
}
