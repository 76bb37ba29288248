package project

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrCycleDetected = errors.New("scope cycle detected")
	ErrScopeAttached = errors.New("scope already has a parent")
)

// ScopeKind is the level of a scope in the project hierarchy
type ScopeKind int

const (
	GlobalScope ScopeKind = iota
	SolutionScope
	ProjectScope
)

func (k ScopeKind) String() string {
	switch k {
	case GlobalScope:
		return "global"
	case SolutionScope:
		return "solution"
	case ProjectScope:
		return "project"
	default:
		return fmt.Sprintf("ScopeKind(%d)", int(k))
	}
}

// Scope is a node in the project tree. It owns its blocks and children;
// the parent link is only used to walk up to the root.
type Scope struct {
	name     string
	kind     ScopeKind
	parent   *Scope
	blocks   []*Block
	children []*Scope
}

func NewScope(kind ScopeKind, name string) *Scope {
	return &Scope{name: name, kind: kind}
}

func (s *Scope) Name() string     { return s.name }
func (s *Scope) Kind() ScopeKind  { return s.kind }
func (s *Scope) Parent() *Scope   { return s.parent }
func (s *Scope) Blocks() []*Block { return slices.Clone(s.blocks) }

func (s *Scope) Children() []*Scope { return slices.Clone(s.children) }

// Child returns the direct child called name
func (s *Scope) Child(name string) (*Scope, bool) {
	for _, c := range s.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

// AddBlock appends b. Later blocks take priority over earlier ones.
func (s *Scope) AddBlock(b *Block) error {
	if b.owner != nil {
		return fmt.Errorf("%w: %q", ErrBlockOwned, b.owner.name)
	}
	b.owner = s
	s.blocks = append(s.blocks, b)
	return nil
}

// NewBlock creates a block with the given terms and appends it to s
func (s *Scope) NewBlock(terms ...string) *Block {
	b := NewBlock(terms...)
	b.owner = s
	s.blocks = append(s.blocks, b)
	return b
}

// AddChild attaches child below s
func (s *Scope) AddChild(child *Scope) error {
	for p := s; p != nil; p = p.parent {
		if p == child {
			return fmt.Errorf("%w: %q is an ancestor of %q", ErrCycleDetected, child.name, s.name)
		}
	}
	if child.parent != nil {
		return fmt.Errorf("%w: %q is under %q", ErrScopeAttached, child.name, child.parent.name)
	}
	child.parent = s
	s.children = append(s.children, child)
	return nil
}

// Chain returns the path from the root down to s, root first
func (s *Scope) Chain() []*Scope {
	var chain []*Scope
	for p := s; p != nil; p = p.parent {
		chain = append(chain, p)
	}
	slices.Reverse(chain)
	return chain
}

// Path renders the chain as `global/solution/project`
func (s *Scope) Path() string {
	chain := s.Chain()
	names := make([]string, len(chain))
	for i, sc := range chain {
		names[i] = sc.name
	}
	return strings.Join(names, "/")
}
