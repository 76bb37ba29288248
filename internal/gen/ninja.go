package gen

import (
	"path"
	"strings"

	"github.com/qobs-build/qgen/internal/action"
	"github.com/qobs-build/qgen/internal/field"
)

// sourceFile is a single source file and the object it compiles to
type sourceFile struct {
	src  string
	obj  string
	kind sourceKind
}

// ninjaTarget is one project under one target: a library or an executable
type ninjaTarget struct {
	name    string
	kind    kind
	out     string
	linker  string
	sources []sourceFile
	cflags  []string
	ldflags []string
	// deps are sibling library outputs; they are linked and ordered before
	deps []string
	libs []string
}

var ninjaPathEscaper = strings.NewReplacer("$", "$$", ":", "$:", " ", "$ ")

func quote(s string) string { return ninjaPathEscaper.Replace(s) }

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = quote(s)
	}
	return out
}

// generateNinja writes one build_<config>.ninja per target, so
// `ninja -f build_release_x64.ninja` builds that target
func generateNinja(sln *action.Solution, out *action.Output) error {
	r := newRelocator(sln, out)
	cc, cxx := findCompiler(false), findCompiler(true)

	for i, t := range sln.Targets {
		targets := make([]ninjaTarget, 0, len(sln.Projects))
		for _, prj := range sln.Projects {
			targets = append(targets, newNinjaTarget(sln, i, prj, r))
		}
		content := ninjaFile(t.String(), cc, cxx, targets)
		if err := out.WriteString("build_"+configKey(t)+".ninja", content); err != nil {
			return err
		}
	}
	return nil
}

func newNinjaTarget(sln *action.Solution, i int, prj *action.Project, r relocator) ninjaTarget {
	cfg := prj.Configs[i]
	k := kindOf(prj.Name, cfg)
	targetOS := osOf(cfg)
	objDir := path.Join(r.rel(cfg.Scalar(field.ObjDir)), configDir(sln.Targets[i]), prj.Name)

	nt := ninjaTarget{
		name:   prj.Name,
		kind:   k,
		out:    path.Join(r.rel(targetDir(cfg)), outputName(prj.Name, cfg, k, targetOS)),
		linker: "$cxx",
	}
	if isC(cfg) {
		nt.linker = "$cc"
	}

	for _, src := range cfg.List(field.Files) {
		sk := sourceKindOf(src)
		if sk == notSource {
			continue
		}
		nt.sources = append(nt.sources, sourceFile{
			src:  r.rel(src),
			obj:  path.Join(objDir, objectName(src)) + ".o",
			kind: sk,
		})
	}

	nt.cflags = append(nt.cflags, prefixed("-D", cfg.List(field.Defines))...)
	nt.cflags = append(nt.cflags, prefixed("-I", r.all(cfg.List(field.IncludeDirs)))...)
	nt.cflags = append(nt.cflags, gccFlags(flagsOf(cfg))...)
	nt.ldflags = prefixed("-L", r.all(cfg.List(field.LibDirs)))
	if k == sharedLib {
		if targetOS != "windows" {
			nt.cflags = append(nt.cflags, "-fPIC")
		}
		nt.ldflags = append(nt.ldflags, "-shared")
	}
	if k == windowedApp && targetOS == "windows" {
		nt.ldflags = append(nt.ldflags, "-mwindows")
	}
	nt.cflags = append(nt.cflags, cfg.List(field.BuildOptions)...)
	nt.ldflags = append(nt.ldflags, cfg.List(field.LinkOptions)...)

	deps, libs := splitLinks(sln, i, prj.Name, cfg)
	for _, d := range deps {
		dk := kindOf(d.name, d.cfg)
		if dk.isLib() {
			nt.deps = append(nt.deps, path.Join(r.rel(targetDir(d.cfg)), outputName(d.name, d.cfg, dk, osOf(d.cfg))))
		}
	}
	nt.libs = prefixed("-l", libs)
	return nt
}

func ninjaFile(label, cc, cxx string, targets []ninjaTarget) string {
	var sb strings.Builder

	writeln(&sb, "# ", label, " build file generated by qgen")
	writeln(&sb, "ninja_required_version = 1.3")
	writeln(&sb, "cc = ", cc)
	writeln(&sb, "cxx = ", cxx)
	writeln(&sb, "ar = ar")
	writeln(&sb)

	// gen rules
	write(&sb,
		`rule cc
  command = $cc -MMD -MF $out.d $cflags -c $in -o $out
  depfile = $out.d
  deps = gcc
  description = CC $out
`)
	write(&sb,
		`rule cxx
  command = $cxx -MMD -MF $out.d $cflags -c $in -o $out
  depfile = $out.d
  deps = gcc
  description = CXX $out
`)
	write(&sb,
		`rule link
  command = $ld -o $out $in $ldflags $libs
  description = LINK $out
`)
	write(&sb,
		`rule ar
  command = rm -f $out && $ar rcs $out $in
  description = AR $out
`)

	var defaults []string
	for _, target := range targets {
		writeln(&sb)
		writeln(&sb, "# ", target.name)

		// build object files
		cflags := strings.Join(target.cflags, " ")
		for _, source := range target.sources {
			rule := "cxx"
			if source.kind == cSource {
				rule = "cc"
			}
			writeln(&sb, "build ", quote(source.obj), ": ", rule, " ", quote(source.src))
			if cflags != "" {
				writeln(&sb, "  cflags = ", cflags)
			}
		}

		// ar/link
		write(&sb, "build ", quote(target.out), ": ")
		if target.kind == staticLib {
			write(&sb, "ar")
		} else {
			write(&sb, "link")
		}
		for _, source := range target.sources {
			write(&sb, " ", quote(source.obj))
		}
		if len(target.deps) > 0 && target.kind != staticLib {
			write(&sb, " | ", strings.Join(quoteAll(target.deps), " "))
		}
		writeln(&sb)
		if target.kind != staticLib {
			writeln(&sb, "  ld = ", target.linker)
			if len(target.ldflags) > 0 {
				writeln(&sb, "  ldflags = ", strings.Join(target.ldflags, " "))
			}
			if libs := append(quoteAll(target.deps), target.libs...); len(libs) > 0 {
				writeln(&sb, "  libs = ", strings.Join(libs, " "))
			}
		}

		if target.out != target.name {
			writeln(&sb, "build ", quote(target.name), ": phony ", quote(target.out))
		}
		defaults = append(defaults, quote(target.name))
	}

	if len(defaults) > 0 {
		writeln(&sb)
		writeln(&sb, "default ", strings.Join(defaults, " "))
	}
	return sb.String()
}
