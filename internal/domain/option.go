package domain

import (
	"bytes"
	"encoding/json"
)

// Option is an explicit Some/None value. The zero value is None.
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Option[T] {
	return Option[T]{value: v, ok: true}
}

func None[T any]() Option[T] {
	return Option[T]{}
}

// OptionFromPtr converts a nil-able pointer into an Option.
func OptionFromPtr[T any](p *T) Option[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Option[T]) IsSome() bool { return o.ok }

func (o Option[T]) IsNone() bool { return !o.ok }

// OrElse returns the value or fallback when None.
func (o Option[T]) OrElse(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// Ptr returns a pointer to a copy of the value, or nil when None.
func (o Option[T]) Ptr() *T {
	if !o.ok {
		return nil
	}
	v := o.value
	return &v
}

func (o Option[T]) MarshalJSON() ([]byte, error) {
	if !o.ok {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Option[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = None[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
