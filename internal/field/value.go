package field

import (
	"slices"
	"strings"
)

// Value is a scalar string or a list of strings. The zero Value is an empty
// scalar.
type Value struct {
	kind   ValueKind
	scalar string
	list   []string
}

// Scalar creates a single-string value
func Scalar(s string) Value {
	return Value{kind: ScalarKind, scalar: s}
}

// List creates a list value. The items are copied.
func List(items ...string) Value {
	return Value{kind: ListKind, list: slices.Clone(items)}
}

func (v Value) Kind() ValueKind { return v.kind }

// String returns the scalar, or the list items joined by spaces
func (v Value) String() string {
	if v.kind == ListKind {
		return strings.Join(v.list, " ")
	}
	return v.scalar
}

// Strings returns a copy of the list items. A scalar is returned as a one
// element list.
func (v Value) Strings() []string {
	if v.kind == ScalarKind {
		return []string{v.scalar}
	}
	return slices.Clone(v.list)
}

// Len is the number of list items, or 1 for a scalar
func (v Value) Len() int {
	if v.kind == ScalarKind {
		return 1
	}
	return len(v.list)
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == ScalarKind {
		return v.scalar == o.scalar
	}
	return slices.Equal(v.list, o.list)
}

// Check verifies that v has the shape declared by the field id
func Check(id ID, v Value) error {
	d, err := Describe(id)
	if err != nil {
		return err
	}
	if d.Kind != v.kind {
		return &KindError{Field: d.Name, Want: d.Kind, Got: v.kind}
	}
	return nil
}

// KindError is returned when a value's shape disagrees with its field
type KindError struct {
	Field string
	Want  ValueKind
	Got   ValueKind
}

func (e *KindError) Error() string {
	return "field " + e.Field + " is a " + e.Want.String() + ", got a " + e.Got.String()
}

func (e *KindError) Unwrap() error { return ErrFieldKindMismatch }
