package project

import (
	"errors"
	"fmt"
	"slices"

	"github.com/qobs-build/qgen/internal/field"
)

var ErrBlockOwned = errors.New("block already belongs to a scope")

// Block is a conditionally applicable fragment of configuration: raw field
// values plus the terms that decide which targets they apply to.
type Block struct {
	terms  []string
	values map[field.ID]field.Value
	owner  *Scope
}

// NewBlock creates a block that applies when any of terms matches. No terms
// means the block always applies.
func NewBlock(terms ...string) *Block {
	return &Block{
		terms:  slices.Clone(terms),
		values: make(map[field.ID]field.Value),
	}
}

func (b *Block) Terms() []string { return slices.Clone(b.terms) }

// Owner returns the scope the block was added to, if any
func (b *Block) Owner() *Scope { return b.owner }

// Applies reports whether the block contributes to target t
func (b *Block) Applies(t Target) bool {
	if len(b.terms) == 0 {
		return true
	}
	for _, term := range b.terms {
		if termMatches(term, t) {
			return true
		}
	}
	return false
}

// Get returns the block's own value for a field. It never merges.
func (b *Block) Get(id field.ID) (field.Value, bool) {
	v, ok := b.values[id]
	return v, ok
}

// Set declares or overwrites the block's value for a field
func (b *Block) Set(id field.ID, v field.Value) error {
	if err := field.Check(id, v); err != nil {
		return fmt.Errorf("set %s: %w", id, err)
	}
	b.values[id] = v
	return nil
}

// Fields returns the ids set on this block in registry order
func (b *Block) Fields() []field.ID {
	ids := make([]field.ID, 0, len(b.values))
	for id := range b.values {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// validate checks that every stored index is registered
func (b *Block) validate() error {
	for id := range b.values {
		if !id.Valid() {
			return fmt.Errorf("%w: block %v references index %d", field.ErrUnknownField, b.terms, int(id))
		}
	}
	return nil
}
