package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/leengari/atomdb/internal/domain/errors"
	"github.com/leengari/atomdb/internal/domain/schema"
)

const (
	jsonFormatName = "atomdb"
	jsonVersion    = 1
)

// JSONCodec writes an indented, self-describing snapshot
type JSONCodec struct{}

func (JSONCodec) Name() string { return FormatJSON }

func (JSONCodec) Encode(db *schema.Database) ([]byte, error) {
	doc := SnapshotDoc{
		Format:  jsonFormatName,
		Version: jsonVersion,
		Tables:  make(map[string]TableDoc, len(db.Tables)),
	}
	for _, t := range sortedTables(db) {
		if err := checkUTF8(t); err != nil {
			return nil, err
		}
		td := TableDoc{
			Columns: append([]string{}, t.Columns...),
			Rows:    make([]RowDoc, len(t.Rows)),
		}
		for id, row := range t.Rows {
			td.Rows[id] = RowDoc{ID: id, Data: row.Copy().Data}
		}
		doc.Tables[t.Name] = td
	}
	return json.MarshalIndent(doc, "", "  ")
}

func (JSONCodec) Decode(b []byte) (*schema.Database, error) {
	var raw struct {
		Format  string          `json:"format"`
		Version int             `json:"version"`
		Tables  json.RawMessage `json:"tables"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, &errors.CorruptDataError{Reason: "malformed json", Err: err}
	}
	if raw.Format != jsonFormatName {
		return nil, errors.Corrupt("unexpected format %q", raw.Format)
	}
	if raw.Version != jsonVersion {
		return nil, errors.Corrupt("unsupported version %d", raw.Version)
	}

	// encoding/json keeps the last of repeated keys, so check names first
	names, err := objectKeys(raw.Tables)
	if err != nil {
		return nil, &errors.CorruptDataError{Reason: "malformed tables object", Err: err}
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return nil, errors.Corrupt("duplicate table '%s'", n)
		}
		seen[n] = true
	}

	var docs map[string]TableDoc
	if len(names) > 0 {
		if err := json.Unmarshal(raw.Tables, &docs); err != nil {
			return nil, &errors.CorruptDataError{Reason: "malformed tables object", Err: err}
		}
	}

	sort.Strings(names)
	tables := make([]tableData, 0, len(names))
	for _, name := range names {
		doc := docs[name]
		td := tableData{name: name, columns: doc.Columns, rows: make([]rowData, len(doc.Rows))}
		for i, r := range doc.Rows {
			td.rows[i] = rowData{id: r.ID, fields: r.Data}
		}
		tables = append(tables, td)
	}
	return build(tables)
}

// objectKeys lists the member names of a JSON object in document order.
// A missing or null value yields no keys.
func objectKeys(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.Corrupt("tables is not an object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		keys = append(keys, tok.(string))

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// checkUTF8 rejects text that encoding/json would silently rewrite to U+FFFD
func checkUTF8(t *schema.Table) error {
	if !utf8.ValidString(t.Name) {
		return fmt.Errorf("table name %q is not valid UTF-8", t.Name)
	}
	for _, c := range t.Columns {
		if !utf8.ValidString(c) {
			return fmt.Errorf("table '%s': column %q is not valid UTF-8", t.Name, c)
		}
	}
	for id, row := range t.Rows {
		for k, v := range row.Data {
			if !utf8.ValidString(k) || !utf8.ValidString(v) {
				return fmt.Errorf("table '%s' row %d: field %q is not valid UTF-8", t.Name, id, k)
			}
		}
	}
	return nil
}
