// Package manifest turns a qgen.toml, qgen.hcl or qgen.yaml description into
// a project scope tree.
package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qobs-build/qgen/internal/field"
	"github.com/qobs-build/qgen/internal/project"
)

// Format is the syntax of a manifest file
type Format string

const (
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
	FormatYAML Format = "yaml"
)

// Filenames are the manifest names Find looks for, in order
var Filenames = []string{"qgen.toml", "qgen.hcl", "qgen.yaml", "qgen.yml"}

var ErrNoManifest = errors.New("no manifest found")

// Manifest is a loaded build description
type Manifest struct {
	Path string
	// Dir is the directory paths inside the manifest are relative to
	Dir            string
	Global         *project.Scope
	Solution       *project.Scope
	Configurations []string
	Platforms      []string
	// Location is where generated files go, relative to Dir
	Location string
}

// Targets returns every configuration/platform combination, configuration
// major
func (m *Manifest) Targets() []project.Target {
	platforms := m.Platforms
	if len(platforms) == 0 {
		platforms = []string{""}
	}
	targets := make([]project.Target, 0, len(m.Configurations)*len(platforms))
	for _, cfg := range m.Configurations {
		for _, plat := range platforms {
			targets = append(targets, project.NewTarget(cfg, plat))
		}
	}
	return targets
}

// Projects returns the project scopes in declaration order
func (m *Manifest) Projects() []*project.Scope {
	return m.Solution.Children()
}

// OutputDir returns the absolute directory generated files are written to
func (m *Manifest) OutputDir() string {
	if m.Location == "" {
		return m.Dir
	}
	if filepath.IsAbs(m.Location) {
		return m.Location
	}
	return filepath.Join(m.Dir, m.Location)
}

// FormatFromPath guesses the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".hcl":
		return FormatHCL, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown manifest format for %q", path)
	}
}

// Find looks for a manifest in dir
func Find(dir string) (string, error) {
	for _, name := range Filenames {
		path := filepath.Join(dir, name)
		if stat, err := os.Stat(path); err == nil && !stat.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNoManifest, dir, strings.Join(Filenames, ", "))
}

// LoadFile parses the manifest at path
func LoadFile(path string, env ConfigEnv) (*Manifest, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Parse(bufio.NewReader(f), format, path, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse reads a manifest from rdr. path names the file for diagnostics and
// its directory anchors relative paths.
func Parse(rdr io.Reader, format Format, path string, env ConfigEnv) (*Manifest, error) {
	data, err := io.ReadAll(rdr)
	if err != nil {
		return nil, err
	}

	m := &Manifest{Path: path, Dir: filepath.Dir(path), Global: newGlobalScope()}
	switch format {
	case FormatTOML:
		err = parseTOML(data, m, env)
	case FormatYAML:
		err = parseYAML(data, m, env)
	case FormatHCL:
		err = parseHCL(data, m, env)
	default:
		err = fmt.Errorf("unsupported manifest format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) validate() error {
	if m.Solution == nil {
		return errors.New("manifest declares no solution")
	}
	if len(m.Configurations) == 0 {
		return fmt.Errorf("solution %q declares no configurations", m.Solution.Name())
	}
	return nil
}

// newGlobalScope holds the built-in defaults every solution inherits
func newGlobalScope() *project.Scope {
	global := project.NewScope(project.GlobalScope, "global")
	b := global.NewBlock()
	mustSet(b, field.ObjDir, field.Scalar("obj"))
	mustSet(b, field.Kind, field.Scalar("ConsoleApp"))
	mustSet(b, field.Language, field.Scalar("C++"))
	return global
}

func mustSet(b *project.Block, id field.ID, v field.Value) {
	if err := b.Set(id, v); err != nil {
		panic(err)
	}
}

// attachSolution creates the solution scope under the global scope
func (m *Manifest) attachSolution(name string) (*project.Scope, error) {
	if m.Solution != nil {
		return nil, fmt.Errorf("only one solution per manifest is supported (found %q and %q)", m.Solution.Name(), name)
	}
	if name == "" {
		return nil, errors.New("solution has no name")
	}
	sln := project.NewScope(project.SolutionScope, name)
	if err := m.Global.AddChild(sln); err != nil {
		return nil, err
	}
	m.Solution = sln
	return sln, nil
}

// attachProject creates a project scope under the solution
func (m *Manifest) attachProject(name string) (*project.Scope, error) {
	if name == "" {
		return nil, errors.New("project has no name")
	}
	if _, exists := m.Solution.Child(name); exists {
		return nil, fmt.Errorf("project %q is declared twice", name)
	}
	prj := project.NewScope(project.ProjectScope, name)
	if err := m.Solution.AddChild(prj); err != nil {
		return nil, err
	}
	return prj, nil
}

// setField stores v on b, expanding file globs first
func (m *Manifest) setField(b *project.Block, id field.ID, v field.Value) error {
	if id == field.Files && v.Kind() == field.ListKind {
		files, err := expandFiles(m.Dir, v.Strings())
		if err != nil {
			return err
		}
		v = field.List(files...)
	}
	return b.Set(id, v)
}
