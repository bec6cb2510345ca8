package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a JSON object that remembers its field order. Values are kept
// as raw JSON so fields this package does not understand round-trip
// byte-for-byte (modulo whitespace).
type Record struct {
	keys   []string
	values map[string]json.RawMessage
}

// New returns an empty record.
func New() *Record {
	return &Record{values: make(map[string]json.RawMessage)}
}

// FromMap builds a record from Go values, in the order given by keys.
func FromMap(keys []string, m map[string]any) (*Record, error) {
	r := New()
	for _, k := range keys {
		if err := r.Set(k, m[k]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Keys returns the field names in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of fields.
func (r *Record) Len() int { return len(r.keys) }

// Has reports whether the field is present.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Get returns the raw JSON of a field.
func (r *Record) Get(name string) (json.RawMessage, bool) {
	raw, ok := r.values[name]
	return raw, ok
}

// Text returns the string value of a field, or "" when the field is
// absent or not a JSON string.
func (r *Record) Text(name string) string {
	s, _ := r.String(name)
	return s
}

// String returns the string value of a field and whether it was a string.
func (r *Record) String(name string) (string, bool) {
	raw, ok := r.values[name]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Set stores v under name, appending the name if it is new.
func (r *Record) Set(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("record field %s: %w", name, err)
	}
	r.SetRaw(name, raw)
	return nil
}

// SetRaw stores pre-encoded JSON under name.
func (r *Record) SetRaw(name string, raw json.RawMessage) {
	if r.values == nil {
		r.values = make(map[string]json.RawMessage)
	}
	if _, ok := r.values[name]; !ok {
		r.keys = append(r.keys, name)
	}
	r.values[name] = raw
}

// SetDefault stores v only when the field is absent.
func (r *Record) SetDefault(name string, v any) error {
	if r.Has(name) {
		return nil
	}
	return r.Set(name, v)
}

// Clone returns an independent copy.
func (r *Record) Clone() *Record {
	c := &Record{
		keys:   make([]string, len(r.keys)),
		values: make(map[string]json.RawMessage, len(r.values)),
	}
	copy(c.keys, r.keys)
	for k, v := range r.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON writes the fields in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(r.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, preserving field order. A repeated
// key keeps its first position and its last value.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	r.keys = nil
	r.values = make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("record field %s: %w", key, err)
		}
		r.SetRaw(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
