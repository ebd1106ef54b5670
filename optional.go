package users

import (
	"fmt"
	"net/url"
)

type omitted struct{}

// Omitted marks a request field the caller did not supply. It is the only
// value of its type, so it never equals a string, a zero value or nil.
var Omitted = omitted{}

// Field is a named request body candidate.
type Field struct {
	Name  string
	Value any
}

// Body builds a request body from fields, dropping every field whose
// value is Omitted. Values are not validated.
func Body(fields ...Field) map[string]any {
	body := make(map[string]any, len(fields))
	for _, f := range fields {
		if _, skip := f.Value.(omitted); skip {
			continue
		}
		body[f.Name] = f.Value
	}

	return body
}

// form lowers a body to url-encoded form values.
func form(body map[string]any) url.Values {
	vals := make(url.Values, len(body))
	for k, v := range body {
		vals.Set(k, fmt.Sprint(v))
	}

	return vals
}

// Optional holds a request value that may not have been supplied.
// The zero Optional is unset.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was supplied.
func (o Optional[T]) IsSet() bool {
	return o.set
}

func (o Optional[T]) field(name string) Field {
	if !o.set {
		return Field{Name: name, Value: Omitted}
	}
	return Field{Name: name, Value: o.value}
}
