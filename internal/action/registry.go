// Package action maps action names (gmake, vs2005, ...) to the generators
// that render a resolved solution into project files.
package action

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrActionNotFound  = errors.New("action not found")
	ErrDuplicateAction = errors.New("action already registered")
)

// GenerateFunc renders a resolved solution through out
type GenerateFunc func(sln *Solution, out *Output) error

// Action is a registered generator
type Action struct {
	Name        string
	Description string
	Generate    GenerateFunc
}

// Registry is an append-only table of actions. It is meant to be filled
// once at startup and then only read.
type Registry struct {
	actions []*Action
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a new action
func (r *Registry) Register(name, description string, fn GenerateFunc) error {
	if name == "" {
		return errors.New("action name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("action %q has no generate function", name)
	}
	if _, err := r.Lookup(name); err == nil {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, name)
	}
	r.actions = append(r.actions, &Action{Name: name, Description: description, Generate: fn})
	return nil
}

// Lookup finds an action by name
func (r *Registry) Lookup(name string) (*Action, error) {
	for _, a := range r.actions {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrActionNotFound, name)
}

// All returns the actions in registration order
func (r *Registry) All() []*Action {
	return slices.Clone(r.actions)
}

// Names returns the action names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.actions))
	for i, a := range r.actions {
		names[i] = a.Name
	}
	return names
}
