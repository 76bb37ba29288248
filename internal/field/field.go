// Package field holds the registry of every configuration field qgen knows
// about: its name, the shape of its values and how values from several
// blocks are merged together.
package field

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownField      = errors.New("unknown field")
	ErrFieldKindMismatch = errors.New("field kind mismatch")
)

// ID is the dense index of a registered field
type ID int

const (
	Defines ID = iota
	ObjDir
	TargetDir
	TargetName
	Kind
	Language
	Files
	IncludeDirs
	LibDirs
	Links
	BuildOptions
	LinkOptions
	Flags

	Count int = iota
)

// ValueKind is the storage shape of a field
type ValueKind int

const (
	ScalarKind ValueKind = iota
	ListKind
)

func (k ValueKind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case ListKind:
		return "list"
	default:
		return fmt.Sprintf("ValueKind(%d)", int(k))
	}
}

// Policy decides how values set by several applicable blocks are combined
type Policy int

const (
	// Override keeps the value of the last applicable block
	Override Policy = iota
	// Accumulate concatenates values in chain order
	Accumulate
)

func (p Policy) String() string {
	switch p {
	case Override:
		return "override"
	case Accumulate:
		return "accumulate"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// Descriptor describes a single registered field
type Descriptor struct {
	ID     ID
	Name   string
	Kind   ValueKind
	Policy Policy
	// KeepDuplicates disables de-duplication for Accumulate fields whose
	// values are order-sensitive token streams (e.g. `-framework Cocoa`).
	KeepDuplicates bool
	Description    string
}

var registry = [Count]Descriptor{
	Defines:      {ID: Defines, Name: "defines", Kind: ListKind, Policy: Accumulate, Description: "Preprocessor symbols"},
	ObjDir:       {ID: ObjDir, Name: "objdir", Kind: ScalarKind, Policy: Override, Description: "Directory for intermediate object files"},
	TargetDir:    {ID: TargetDir, Name: "targetdir", Kind: ScalarKind, Policy: Override, Description: "Directory for the final build artifact"},
	TargetName:   {ID: TargetName, Name: "targetname", Kind: ScalarKind, Policy: Override, Description: "Base name of the build artifact"},
	Kind:         {ID: Kind, Name: "kind", Kind: ScalarKind, Policy: Override, Description: "ConsoleApp, WindowedApp, StaticLib or SharedLib"},
	Language:     {ID: Language, Name: "language", Kind: ScalarKind, Policy: Override, Description: "C or C++"},
	Files:        {ID: Files, Name: "files", Kind: ListKind, Policy: Accumulate, Description: "Source files"},
	IncludeDirs:  {ID: IncludeDirs, Name: "includedirs", Kind: ListKind, Policy: Accumulate, Description: "Include search paths"},
	LibDirs:      {ID: LibDirs, Name: "libdirs", Kind: ListKind, Policy: Accumulate, Description: "Library search paths"},
	Links:        {ID: Links, Name: "links", Kind: ListKind, Policy: Accumulate, Description: "Libraries and sibling projects to link"},
	BuildOptions: {ID: BuildOptions, Name: "buildoptions", Kind: ListKind, Policy: Accumulate, KeepDuplicates: true, Description: "Extra compiler options"},
	LinkOptions:  {ID: LinkOptions, Name: "linkoptions", Kind: ListKind, Policy: Accumulate, KeepDuplicates: true, Description: "Extra linker options"},
	Flags:        {ID: Flags, Name: "flags", Kind: ListKind, Policy: Accumulate, Description: "Symbols, Optimize, OptimizeSize, OptimizeSpeed, ExtraWarnings, FatalWarnings"},
}

var byName map[string]ID

func init() {
	if err := validate(registry[:]); err != nil {
		panic(err)
	}
	byName = make(map[string]ID, Count)
	for _, d := range registry {
		byName[d.Name] = d.ID
	}
}

// validate makes sure the table is contiguous and every name is unique
func validate(table []Descriptor) error {
	seen := make(map[string]bool, len(table))
	for i, d := range table {
		if d.Name == "" {
			return fmt.Errorf("field: registry entry %d is not declared", i)
		}
		if int(d.ID) != i {
			return fmt.Errorf("field: registry entry %q has id %d, stored at %d", d.Name, d.ID, i)
		}
		if seen[d.Name] {
			return fmt.Errorf("field: duplicate field name %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// Valid reports whether id is inside the registered range
func (id ID) Valid() bool { return id >= 0 && int(id) < Count }

func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("field(%d)", int(id))
	}
	return registry[id].Name
}

// Describe returns the descriptor of a registered field
func Describe(id ID) (Descriptor, error) {
	if !id.Valid() {
		return Descriptor{}, fmt.Errorf("%w: index %d outside 0..%d", ErrUnknownField, int(id), Count-1)
	}
	return registry[id], nil
}

// Lookup finds a field by its (case-insensitive) name
func Lookup(name string) (ID, error) {
	if id, ok := byName[strings.ToLower(name)]; ok {
		return id, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// All returns every descriptor in registry order
func All() []Descriptor {
	out := make([]Descriptor, Count)
	copy(out, registry[:])
	return out
}
