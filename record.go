package sqlqueue

import (
	"bytes"
	"encoding/json"
)

// Record is an object-like row - values addressable by column name, in column order
type Record struct {
	names  []string
	values []any
}

// Get returns the value of the named column (nil if there is no such column)
func (r *Record) Get(name string) any {
	v, _ := r.Lookup(name)
	return v
}

// Lookup returns the value of the named column and whether the column exists
func (r *Record) Lookup(name string) (any, bool) {
	for i, n := range r.names {
		if n == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Columns returns the column (or mapped property) names
func (r *Record) Columns() []string {
	return append([]string{}, r.names...)
}

// Values returns the values in column order
func (r *Record) Values() []any {
	return append([]any{}, r.values...)
}

// Map returns the record as a map keyed by column name
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.names))
	for i, n := range r.names {
		m[n] = r.values[i]
	}
	return m
}

// MarshalJSON encodes the record as a JSON object, preserving column order
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
