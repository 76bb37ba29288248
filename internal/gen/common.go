package gen

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/qobs-build/qgen/internal/action"
	"github.com/qobs-build/qgen/internal/field"
	"github.com/qobs-build/qgen/internal/msg"
	"github.com/qobs-build/qgen/internal/project"
)

// Values of the `flags` field generators understand
const (
	flagSymbols       = "symbols"
	flagOptimize      = "optimize"
	flagOptimizeSize  = "optimizesize"
	flagOptimizeSpeed = "optimizespeed"
	flagExtraWarnings = "extrawarnings"
	flagFatalWarnings = "fatalwarnings"
)

type kind int

const (
	consoleApp kind = iota
	windowedApp
	staticLib
	sharedLib
)

func (k kind) isLib() bool { return k == staticLib || k == sharedLib }

// kindOf reads the `kind` field. Unknown kinds build as console apps.
func kindOf(prj string, cfg *project.Resolved) kind {
	switch k := cfg.Scalar(field.Kind); strings.ToLower(k) {
	case "", "consoleapp":
		return consoleApp
	case "windowedapp":
		return windowedApp
	case "staticlib":
		return staticLib
	case "sharedlib":
		return sharedLib
	default:
		msg.Warn("project %s (%s): unknown kind %q, building a ConsoleApp", prj, cfg.Target(), k)
		return consoleApp
	}
}

type flagSet map[string]bool

func flagsOf(cfg *project.Resolved) flagSet {
	fs := make(flagSet)
	for _, f := range cfg.List(field.Flags) {
		fs[strings.ToLower(f)] = true
	}
	return fs
}

func (fs flagSet) has(flag string) bool { return fs[flag] }

func (fs flagSet) optimized() bool {
	return fs[flagOptimize] || fs[flagOptimizeSize] || fs[flagOptimizeSpeed]
}

// gccFlags maps flags onto GCC/Clang compiler options
func gccFlags(fs flagSet) []string {
	var out []string
	if fs.has(flagSymbols) {
		out = append(out, "-g")
	}
	switch {
	case fs.has(flagOptimizeSpeed):
		out = append(out, "-O3")
	case fs.has(flagOptimizeSize):
		out = append(out, "-Os")
	case fs.has(flagOptimize):
		out = append(out, "-O2")
	}
	if fs.has(flagExtraWarnings) {
		out = append(out, "-Wall", "-Wextra")
	}
	if fs.has(flagFatalWarnings) {
		out = append(out, "-Werror")
	}
	return out
}

func isC(cfg *project.Resolved) bool {
	return strings.EqualFold(cfg.Scalar(field.Language), "C")
}

type sourceKind int

const (
	notSource sourceKind = iota
	cSource
	cxxSource
)

func sourceKindOf(file string) sourceKind {
	switch strings.ToLower(path.Ext(file)) {
	case ".c":
		return cSource
	case ".cc", ".cpp", ".cxx", ".c++":
		return cxxSource
	default:
		return notSource
	}
}

// objectName maps a source path onto a path below the object directory,
// without the extension
func objectName(src string) string {
	src = path.Clean(filepath.ToSlash(src))
	for strings.HasPrefix(src, "../") {
		src = src[len("../"):]
	}
	if vol := filepath.VolumeName(src); vol != "" {
		src = src[len(vol):]
	}
	src = strings.TrimPrefix(src, "/")
	return strings.TrimSuffix(src, path.Ext(src))
}

func osOf(cfg *project.Resolved) string {
	v, _ := cfg.Target().Get(project.DimOS)
	return strings.ToLower(v)
}

// outputName is the file name the linker or archiver produces
func outputName(prj string, cfg *project.Resolved, k kind, targetOS string) string {
	name := cfg.Scalar(field.TargetName)
	if name == "" {
		name = prj
	}
	windows := targetOS == "windows"
	switch k {
	case staticLib:
		if windows {
			return name + ".lib"
		}
		return "lib" + name + ".a"
	case sharedLib:
		switch targetOS {
		case "windows":
			return name + ".dll"
		case "darwin", "macosx":
			return "lib" + name + ".dylib"
		default:
			return "lib" + name + ".so"
		}
	default:
		if windows {
			return name + ".exe"
		}
		return name
	}
}

func targetDir(cfg *project.Resolved) string {
	if dir := cfg.Scalar(field.TargetDir); dir != "" {
		return dir
	}
	return "."
}

// configDir is the per-target directory below objdir
func configDir(t project.Target) string {
	if plat := t.Platform(); plat != "" {
		return path.Join(plat, t.Configuration())
	}
	return t.Configuration()
}

// configKey names a target in makefile conditionals and file names, e.g.
// "debug_x64"
func configKey(t project.Target) string {
	key := strings.ToLower(t.Configuration())
	if plat := t.Platform(); plat != "" {
		key += "_" + strings.ToLower(plat)
	}
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, key)
}

// relocator rewrites paths written relative to the base directory so they
// are relative to the output directory instead
type relocator struct {
	from, base string
}

func newRelocator(sln *action.Solution, out *action.Output) relocator {
	return relocator{from: out.Dir, base: sln.BaseDir}
}

func (r relocator) rel(p string) string {
	if p == "" {
		return ""
	}
	abs := filepath.FromSlash(p)
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(r.base, abs)
	}
	rel, err := filepath.Rel(r.from, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (r relocator) all(ps []string) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = r.rel(p)
	}
	return out
}

// linkedProject is a sibling project named in `links`
type linkedProject struct {
	name string
	cfg  *project.Resolved
}

// splitLinks separates the links of cfg that name other projects of the
// solution from plain system libraries. i is the target index.
func splitLinks(sln *action.Solution, i int, self string, cfg *project.Resolved) (deps []linkedProject, libs []string) {
	for _, l := range cfg.List(field.Links) {
		if l == self {
			continue
		}
		if sib, ok := sln.Project(l); ok {
			deps = append(deps, linkedProject{name: sib.Name, cfg: sib.Configs[i]})
			continue
		}
		libs = append(libs, l)
	}
	return deps, libs
}

// projectDeps lists the sibling projects prj links against under any
// target, in solution order
func projectDeps(sln *action.Solution, prj *action.Project) []string {
	linked := make(map[string]bool)
	for i, cfg := range prj.Configs {
		deps, _ := splitLinks(sln, i, prj.Name, cfg)
		for _, d := range deps {
			linked[d.name] = true
		}
	}
	var out []string
	for _, p := range sln.Projects {
		if linked[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}

// sourceUnion returns every file of prj across all targets, first seen
// first
func sourceUnion(prj *action.Project) []string {
	var out []string
	seen := make(map[string]bool)
	for _, cfg := range prj.Configs {
		for _, f := range cfg.List(field.Files) {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func prefixed(prefix string, items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = prefix + s
	}
	return out
}
