// Package patch provides presence-aware fields for partial updates.
package patch

import "encoding/json"

// Optional holds a value together with whether it was provided.
// The zero value is unset.
type Optional[T any] struct {
	value T
	set   bool
}

// Set returns an Optional carrying v.
func Set[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Unset returns an empty Optional.
func Unset[T any]() Optional[T] {
	return Optional[T]{}
}

// IsSet reports whether a value was provided.
func (o Optional[T]) IsSet() bool { return o.set }

// Value returns the value and whether it was provided.
func (o Optional[T]) Value() (T, bool) { return o.value, o.set }

// Or returns the value if set, otherwise def.
func (o Optional[T]) Or(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// UnmarshalJSON marks the field as set whenever the key is present in the payload.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &o.value); err != nil {
		return err
	}
	o.set = true
	return nil
}

// MarshalJSON encodes the value, or null when unset.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}
