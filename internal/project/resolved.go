package project

import (
	"github.com/qobs-build/qgen/internal/field"
)

// Resolved is the fully merged configuration of one (scope, target) pair.
// It keeps no reference to the scopes that produced it.
type Resolved struct {
	target Target
	values [field.Count]field.Value
	set    [field.Count]bool
}

// Target returns the target this configuration was resolved for
func (r *Resolved) Target() Target { return r.target }

// Value returns the merged value of a field, or false when no applicable
// block set it
func (r *Resolved) Value(id field.ID) (field.Value, bool) {
	if !id.Valid() || !r.set[id] {
		return field.Value{}, false
	}
	return r.values[id], true
}

func (r *Resolved) Has(id field.ID) bool {
	return id.Valid() && r.set[id]
}

// Scalar returns the scalar value of id, or "" when absent
func (r *Resolved) Scalar(id field.ID) string {
	if v, ok := r.Value(id); ok {
		return v.String()
	}
	return ""
}

// List returns the list value of id, or nil when absent
func (r *Resolved) List(id field.ID) []string {
	if v, ok := r.Value(id); ok {
		return v.Strings()
	}
	return nil
}

// Fields returns the ids present in r in registry order
func (r *Resolved) Fields() []field.ID {
	var ids []field.ID
	for i, ok := range r.set {
		if ok {
			ids = append(ids, field.ID(i))
		}
	}
	return ids
}

// Equal compares two configurations structurally, including their targets
func (r *Resolved) Equal(o *Resolved) bool {
	if r == nil || o == nil {
		return r == o
	}
	if !r.target.Equal(o.target) {
		return false
	}
	for i := range r.set {
		if r.set[i] != o.set[i] {
			return false
		}
		if r.set[i] && !r.values[i].Equal(o.values[i]) {
			return false
		}
	}
	return true
}
