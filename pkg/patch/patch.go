// Package patch provides tri-state fields for partial-update payloads.
//
// A JSON patch body distinguishes three states per field: the key is
// absent (leave the stored value unchanged), the key is present with a
// value (set it), or the key is present with an explicit null. Plain Go
// structs collapse the first two into the zero value; Field keeps them
// apart without resorting to pointer sentinels.
package patch

import "encoding/json"

// Field wraps a patchable value of type T and records whether the field
// appeared in the payload at all, and if so whether it was an explicit
// null.
type Field[T any] struct {
	value   T
	present bool
	null    bool
}

// Set returns a Field carrying the given value, as if it had been
// unmarshalled from a payload that included it.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, present: true}
}

// Null returns a Field representing an explicit JSON null.
func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// IsSet reports whether the field appeared in the payload with a
// non-null value.
func (f Field[T]) IsSet() bool {
	return f.present && !f.null
}

// IsNull reports whether the field appeared in the payload as an
// explicit null.
func (f Field[T]) IsNull() bool {
	return f.present && f.null
}

// Get returns the field value and whether it was set. The value is the
// zero value of T when the field was absent or null.
func (f Field[T]) Get() (T, bool) {
	if !f.IsSet() {
		var zero T
		return zero, false
	}
	return f.value, true
}

// Or returns the field value when set, and fallback otherwise.
func (f Field[T]) Or(fallback T) T {
	if v, ok := f.Get(); ok {
		return v
	}
	return fallback
}

// UnmarshalJSON records presence. It is only invoked by encoding/json
// when the key exists in the payload, so an untouched Field means the
// key was absent.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if string(data) == "null" {
		f.null = true
		return nil
	}
	return json.Unmarshal(data, &f.value)
}

// MarshalJSON renders the field as its value, or null when unset. It
// exists so Field round-trips in tests; patch structs are request-only.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.IsSet() {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
