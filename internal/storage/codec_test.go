package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/leengari/atomdb/internal/domain/data"
	dberrors "github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/domain/schema"
	"gotest.tools/v3/assert"
)

func sampleDB(t *testing.T) *schema.Database {
	t.Helper()
	db := schema.NewDatabase()
	assert.NilError(t, db.CreateTable("users", []string{"id", "name", "email", "age"}))
	assert.NilError(t, db.CreateTable("dups", []string{"a", "a", "b"}))
	assert.NilError(t, db.CreateTable("empty", nil))

	users := []map[string]string{
		{"id": "1", "name": "Alice", "email": "alice@example.com", "age": "30"},
		{"id": "2", "name": "Bob", "email": "bob@example.com", "age": "25", "nick": "bobby"},
		{"id": "3", "name": "O'Neil, C (jr)", "email": "", "age": "=35"},
	}
	for _, u := range users {
		_, err := db.InsertRow("users", data.NewRow(u))
		assert.NilError(t, err)
	}
	_, err := db.InsertRow("dups", data.NewRow(map[string]string{"a": "x", "b": "y"}))
	assert.NilError(t, err)
	return db
}

func allCodecs() []Codec {
	return []Codec{JSONCodec{}, BinaryCodec{}, BinaryCodec{Compress: true}}
}

func TestRoundTrip(t *testing.T) {
	for _, c := range allCodecs() {
		t.Run(c.Name(), func(t *testing.T) {
			db := sampleDB(t)

			b, err := c.Encode(db)
			assert.NilError(t, err)

			got, err := c.Decode(b)
			assert.NilError(t, err)
			assert.Assert(t, db.Equal(got), "decoded database differs")

			// schema order and duplicates survive verbatim
			assert.DeepEqual(t, got.Tables["dups"].Columns, []string{"a", "a", "b"})
			assert.DeepEqual(t, got.Tables["users"].Columns, []string{"id", "name", "email", "age"})
		})
	}
}

func TestRoundTripEmptyDatabase(t *testing.T) {
	for _, c := range allCodecs() {
		b, err := c.Encode(schema.NewDatabase())
		assert.NilError(t, err)
		got, err := c.Decode(b)
		assert.NilError(t, err)
		assert.Equal(t, len(got.Tables), 0, c.Name())
	}
}

func TestBinaryEncodingIsDeterministic(t *testing.T) {
	a, err := BinaryCodec{}.Encode(sampleDB(t))
	assert.NilError(t, err)
	b, err := BinaryCodec{}.Encode(sampleDB(t))
	assert.NilError(t, err)
	assert.Assert(t, bytes.Equal(a, b))
}

func TestBinaryHeader(t *testing.T) {
	plain, err := BinaryCodec{}.Encode(sampleDB(t))
	assert.NilError(t, err)
	assert.Assert(t, bytes.HasPrefix(plain, []byte("ATOM")))
	assert.Equal(t, plain[4], BinaryVersion)
	assert.Equal(t, plain[5], byte(0))

	packed, err := BinaryCodec{Compress: true}.Encode(sampleDB(t))
	assert.NilError(t, err)
	assert.Equal(t, packed[5], FlagZstd)

	// either variant decodes with the plain codec value
	_, err = BinaryCodec{}.Decode(packed)
	assert.NilError(t, err)
}

func TestJSONIsReadable(t *testing.T) {
	b, err := JSONCodec{}.Encode(sampleDB(t))
	assert.NilError(t, err)

	out := string(b)
	for _, want := range []string{`"format": "atomdb"`, `"version": 1`, `"users"`, `"name": "Alice"`, `"id": 0`} {
		assert.Assert(t, strings.Contains(out, want), "missing %s in %s", want, out)
	}
}

func assertCorrupt(t *testing.T, err error, msg string) {
	t.Helper()
	var cd *dberrors.CorruptDataError
	if !errors.As(err, &cd) {
		t.Errorf("%s: expected CorruptDataError, got %v", msg, err)
	}
}

func TestBinaryDecodeCorrupt(t *testing.T) {
	good, err := BinaryCodec{}.Encode(sampleDB(t))
	assert.NilError(t, err)

	flipped := append([]byte{}, good...)
	flipped[len(flipped)/2] ^= 0xff

	badMagic := append([]byte{}, good...)
	copy(badMagic, "NOPE")

	cases := map[string][]byte{
		"empty":     {},
		"short":     good[:8],
		"truncated": good[:len(good)-10],
		"flipped":   flipped,
		"bad magic": badMagic,
		"garbage":   []byte("not a snapshot at all"),
	}
	for name, b := range cases {
		_, err := BinaryCodec{}.Decode(b)
		assertCorrupt(t, err, name)
	}
}

func TestJSONDecodeCorrupt(t *testing.T) {
	cases := map[string]string{
		"malformed":      `{"format": "atomdb",`,
		"wrong format":   `{"format": "other", "version": 1, "tables": {}}`,
		"wrong version":  `{"format": "atomdb", "version": 9, "tables": {}}`,
		"tables array":   `{"format": "atomdb", "version": 1, "tables": []}`,
		"duplicate":      `{"format": "atomdb", "version": 1, "tables": {"t": {"columns": []}, "t": {"columns": []}}}`,
		"gap in ids":     `{"format": "atomdb", "version": 1, "tables": {"t": {"columns": ["a"], "rows": [{"id": 0, "data": {"a": "1"}}, {"id": 2, "data": {"a": "2"}}]}}}`,
		"repeated id":    `{"format": "atomdb", "version": 1, "tables": {"t": {"columns": ["a"], "rows": [{"id": 0, "data": {"a": "1"}}, {"id": 0, "data": {"a": "2"}}]}}}`,
		"not from zero":  `{"format": "atomdb", "version": 1, "tables": {"t": {"columns": ["a"], "rows": [{"id": 1, "data": {"a": "1"}}]}}}`,
		"schema":         `{"format": "atomdb", "version": 1, "tables": {"t": {"columns": ["a", "b"], "rows": [{"id": 0, "data": {"a": "1"}}]}}}`,
		"non-string val": `{"format": "atomdb", "version": 1, "tables": {"t": {"columns": ["a"], "rows": [{"id": 0, "data": {"a": 1}}]}}}`,
	}
	for name, doc := range cases {
		_, err := JSONCodec{}.Decode([]byte(doc))
		assertCorrupt(t, err, name)
	}
}

func TestJSONDecodeAcceptsUnorderedRows(t *testing.T) {
	doc := `{"format": "atomdb", "version": 1, "tables": {"t": {"columns": ["a"], "rows": [
		{"id": 1, "data": {"a": "second"}},
		{"id": 0, "data": {"a": "first"}}
	]}}}`
	db, err := JSONCodec{}.Decode([]byte(doc))
	assert.NilError(t, err)

	recs, err := db.SelectAll("t")
	assert.NilError(t, err)
	v, _ := recs[0].Row.Get("a")
	assert.Equal(t, v, "first")
}

func TestNewCodec(t *testing.T) {
	tests := []struct {
		format, compression string
		want                string
		wantErr             bool
	}{
		{"json", "", "json", false},
		{"json", "none", "json", false},
		{"binary", "none", "binary", false},
		{"binary", "zstd", "binary+zstd", false},
		{"json", "zstd", "", true},
		{"binary", "lz4", "", true},
		{"xml", "none", "", true},
	}
	for _, tt := range tests {
		c, err := NewCodec(tt.format, tt.compression)
		if tt.wantErr {
			assert.Assert(t, err != nil, "%s/%s", tt.format, tt.compression)
			continue
		}
		assert.NilError(t, err)
		assert.Equal(t, c.Name(), tt.want)
	}
}

func TestSniff(t *testing.T) {
	b, err := BinaryCodec{Compress: true}.Encode(sampleDB(t))
	assert.NilError(t, err)
	assert.Equal(t, Sniff(b).Name(), "binary")

	j, err := JSONCodec{}.Encode(sampleDB(t))
	assert.NilError(t, err)
	assert.Equal(t, Sniff(j).Name(), "json")
}

func TestRoundTripMultiByteText(t *testing.T) {
	db := schema.NewDatabase()
	assert.NilError(t, db.CreateTable("café", []string{"naïve", "日本"}))
	_, err := db.InsertRow("café", data.NewRow(map[string]string{"naïve": "☕ ok", "日本": "語"}))
	assert.NilError(t, err)

	for _, codec := range allCodecs() {
		b, err := codec.Encode(db)
		assert.NilError(t, err, codec.Name())
		got, err := codec.Decode(b)
		assert.NilError(t, err, codec.Name())
		assert.Assert(t, got.Equal(db), codec.Name())
	}
}

func TestInvalidUTF8(t *testing.T) {
	db := schema.NewDatabase()
	assert.NilError(t, db.CreateTable("t", []string{"a"}))
	_, err := db.InsertRow("t", data.NewRow(map[string]string{"a": "caf\xe9"}))
	assert.NilError(t, err)

	// JSON cannot carry the bytes, so it refuses instead of rewriting them
	_, err = JSONCodec{}.Encode(db)
	assert.ErrorContains(t, err, "not valid UTF-8")

	for _, codec := range []Codec{BinaryCodec{}, BinaryCodec{Compress: true}} {
		b, err := codec.Encode(db)
		assert.NilError(t, err)
		got, err := codec.Decode(b)
		assert.NilError(t, err)
		assert.Assert(t, got.Equal(db), codec.Name())
	}
}

func TestBinaryRowIDOutOfRange(t *testing.T) {
	// one table "t" with one column and a single row whose id equals the row count
	body := binary.AppendUvarint(nil, 1)
	body = appendString(body, "t")
	body = binary.AppendUvarint(body, 1)
	body = appendString(body, "a")
	body = binary.AppendUvarint(body, 1) // rows
	body = binary.AppendUvarint(body, 1) // id
	body = binary.AppendUvarint(body, 0) // fields

	_, err := decodeBody(body)
	assertCorrupt(t, err, "id == row count")
	assert.ErrorContains(t, err, "row id 1 out of range")
}
