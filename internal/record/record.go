package record

import (
	"encoding/json"
	"fmt"
	"math"
)

// KeyID is the column and JSON key holding a record's identity.
const KeyID = "id"

// Row is the storage representation of a record: column name to scalar value.
type Row map[string]any

// Payload is the wire representation of a record: an untyped JSON object.
type Payload map[string]any

// Model is implemented by every persisted record type.
type Model interface {
	// GetID returns the store-assigned id, or zero for a record that was
	// never persisted.
	GetID() int64
	SetID(id int64)

	// ToRow returns every declared field keyed by column. The id is excluded;
	// the store manages it.
	ToRow() Row

	// ToJSON returns the id (when present) and every declared field.
	ToJSON() Payload
}

// IsNew reports whether m has not been persisted yet.
func IsNew(m Model) bool {
	return m.GetID() == 0
}

// DecodeError is returned when a row or payload is missing a required key or
// holds a value of the wrong type.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode field %q: %s", e.Field, e.Reason)
}

func missing(field string) error {
	return &DecodeError{Field: field, Reason: "required key is missing"}
}

func mistyped(field, want string, got any) error {
	return &DecodeError{Field: field, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}

// Column describes one persisted field. Type is the SQL column definition
// used by the storage layer when creating the table. JSON is the JSON Schema
// type of the field in request bodies, and Optional marks a field that a
// create or replace body may leave out.
type Column struct {
	Name     string
	Type     string
	JSON     string
	Optional bool
}

// JSON Schema types used by Column.JSON.
const (
	JSONString  = "string"
	JSONNumber  = "number"
	JSONStrings = "array"
)

// Setter assigns a single field of rec from an untyped value, failing with a
// *DecodeError when v has the wrong type.
type Setter[T any] func(rec T, v any) error

// Kind describes one record type: how it is stored, decoded and updated.
type Kind[T Model] struct {
	// Name is the singular name used in logs and API docs.
	Name string
	// Table is the storage table and the HTTP path segment.
	Table   string
	Columns []Column

	FromRow  func(Row) (T, error)
	FromJSON func(Payload) (T, error)

	// Updaters holds the keys a partial update may touch.
	Updaters map[string]Setter[T]

	// Replace copies every declared field, but not the id, from src onto dst.
	Replace func(dst, src T)
}

// ColumnNames returns the declared column names in order.
func (k *Kind[T]) ColumnNames() []string {
	names := make([]string, len(k.Columns))
	for i, c := range k.Columns {
		names[i] = c.Name
	}
	return names
}

// Apply runs the setter of every recognized key present in p against rec.
// Unknown keys are ignored. On error rec may be partially modified and should
// be discarded.
func (k *Kind[T]) Apply(rec T, p Payload) error {
	for key, v := range p {
		set, ok := k.Updaters[key]
		if !ok {
			continue
		}
		if err := set(rec, v); err != nil {
			return err
		}
	}
	return nil
}

// --- field readers shared by the row and payload decoders ---

func stringField(src map[string]any, key string) (string, error) {
	v, ok := src[key]
	if !ok {
		return "", missing(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", mistyped(key, "string", v)
	}
	return s, nil
}

func floatField(src map[string]any, key string) (float64, error) {
	v, ok := src[key]
	if !ok {
		return 0, missing(key)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, mistyped(key, "number", v)
	}
	return f, nil
}

func optionalFloatField(src map[string]any, key string, fallback float64) (float64, error) {
	if v, ok := src[key]; !ok || v == nil {
		return fallback, nil
	}
	return floatField(src, key)
}

func stringsField(src map[string]any, key string) ([]string, error) {
	v, ok := src[key]
	if !ok {
		return nil, missing(key)
	}
	ss, ok := toStrings(v)
	if !ok {
		return nil, mistyped(key, "array of strings", v)
	}
	return ss, nil
}

func idField(src map[string]any) (int64, error) {
	v, ok := src[KeyID]
	if !ok || v == nil {
		return 0, missing(KeyID)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		if n == math.Trunc(n) {
			return int64(n), nil
		}
	case json.Number:
		if id, err := n.Int64(); err == nil {
			return id, nil
		}
	}
	return 0, mistyped(KeyID, "integer", v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toStrings(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		out := make([]string, len(s))
		copy(out, s)
		return out, true
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			str, ok := e.(string)
			if !ok {
				return nil, false
			}
			out[i] = str
		}
		return out, true
	}
	return nil, false
}

// --- setter constructors ---

// StringSetter builds a Setter for a string field.
func StringSetter[T any](key string, assign func(T, string)) Setter[T] {
	return func(rec T, v any) error {
		s, err := stringField(map[string]any{key: v}, key)
		if err != nil {
			return err
		}
		assign(rec, s)
		return nil
	}
}

// FloatSetter builds a Setter for a float64 field.
func FloatSetter[T any](key string, assign func(T, float64)) Setter[T] {
	return func(rec T, v any) error {
		f, err := floatField(map[string]any{key: v}, key)
		if err != nil {
			return err
		}
		assign(rec, f)
		return nil
	}
}

// StringsSetter builds a Setter for a string sequence field.
func StringsSetter[T any](key string, assign func(T, []string)) Setter[T] {
	return func(rec T, v any) error {
		ss, err := stringsField(map[string]any{key: v}, key)
		if err != nil {
			return err
		}
		assign(rec, ss)
		return nil
	}
}
