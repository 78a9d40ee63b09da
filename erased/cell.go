package erased

import (
	"errors"
	"fmt"
	"reflect"
)

var ErrTypeMismatch = errors.New("type mismatch")

// Cell boxes exactly one value together with the static type it was created
// with. Extraction and replacement are checked against that type.
type Cell struct {
	typ   reflect.Type
	value any
}

// Of boxes v under its static type T. Interface types are kept as the
// interface, so Of[error](err) only extracts as error.
func Of[T any](v T) Cell {
	return Cell{
		typ:   reflect.TypeFor[T](),
		value: v,
	}
}

func (c Cell) Type() reflect.Type {
	return c.typ
}

// Any returns the boxed value without a type check.
func (c Cell) Any() any {
	return c.value
}

// IsEmpty reports whether c is the zero Cell.
func (c Cell) IsEmpty() bool {
	return c.typ == nil
}

func (c Cell) String() string {
	if c.typ == nil {
		return "erased.Cell(<empty>)"
	}
	return fmt.Sprintf("erased.Cell(%s: %v)", c.typ, c.value)
}

// Holds reports whether c was created with static type T.
func Holds[T any](c Cell) bool {
	return c.typ == reflect.TypeFor[T]()
}

// As extracts the boxed value as T.
func As[T any](c Cell) (T, error) {
	var zero T
	want := reflect.TypeFor[T]()
	if c.typ != want {
		return zero, mismatch(want, c.typ)
	}
	if c.value == nil {
		// nil interface values box as a nil any
		return zero, nil
	}
	return c.value.(T), nil
}

// MustAs is As for callers that already checked the type.
func MustAs[T any](c Cell) T {
	v, err := As[T](c)
	if err != nil {
		panic(err)
	}
	return v
}

// Replace swaps the boxed value for v. The cell keeps its type; v must be
// of that same type.
func Replace[T any](c *Cell, v T) error {
	want := reflect.TypeFor[T]()
	if c.typ != want {
		return mismatch(c.typ, want)
	}
	c.value = v
	return nil
}

// Mismatch builds an ErrTypeMismatch error for callers that compare types
// themselves.
func Mismatch(want, got reflect.Type) error {
	return mismatch(want, got)
}

func mismatch(want, got reflect.Type) error {
	return fmt.Errorf("%w: want %s, got %s", ErrTypeMismatch, typeName(want), typeName(got))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<empty>"
	}
	return t.String()
}
