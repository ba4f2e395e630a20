package data

import (
	"encoding/json"
	"sort"
)

// Row represents a single table row
// Key = column name, Value = cell value (always a string)
type Row struct {
	Data map[string]string
}

// NewRow creates a new Row with the given data
func NewRow(data map[string]string) Row {
	if data == nil {
		data = make(map[string]string)
	}
	return Row{Data: data}
}

// Set upserts a field
func (r *Row) Set(column, value string) {
	if r.Data == nil {
		r.Data = make(map[string]string)
	}
	r.Data[column] = value
}

// Get returns the value stored under column and whether it exists
func (r Row) Get(column string) (string, bool) {
	v, ok := r.Data[column]
	return v, ok
}

// HasRequiredColumns reports whether every name in required is present.
// Extra fields are ignored.
func (r Row) HasRequiredColumns(required []string) bool {
	return len(r.MissingColumns(required)) == 0
}

// MissingColumns returns the required names absent from the row, in the order given
func (r Row) MissingColumns(required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := r.Data[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// Columns returns the row's field names sorted
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r.Data))
	for k := range r.Data {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Len returns the number of fields
func (r Row) Len() int {
	return len(r.Data)
}

// Equal reports full-map equality
func (r Row) Equal(other Row) bool {
	if len(r.Data) != len(other.Data) {
		return false
	}
	for k, v := range r.Data {
		ov, ok := other.Data[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Copy creates a deep copy of the row to prevent mutation
func (r Row) Copy() Row {
	copy := make(map[string]string, len(r.Data))
	for k, v := range r.Data {
		copy[k] = v
	}
	return Row{Data: copy}
}

// UnmarshalJSON implements json.Unmarshaler interface
// This allows Row to be unmarshaled from JSON as a map
func (r *Row) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		m = make(map[string]string)
	}
	r.Data = m
	return nil
}

// MarshalJSON implements json.Marshaler interface
// This allows Row to be marshaled to JSON as a map
func (r Row) MarshalJSON() ([]byte, error) {
	if r.Data == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Data)
}
