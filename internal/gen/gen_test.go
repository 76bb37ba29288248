package gen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/qobs-build/qgen/internal/action"
	"github.com/qobs-build/qgen/internal/field"
	"github.com/qobs-build/qgen/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(t *testing.T, b *project.Block, id field.ID, v field.Value) {
	t.Helper()
	require.NoError(t, b.Set(id, v))
}

// helloTree is a solution with an app linking a static library. The app
// lists itself first so dependency order differs from declaration order.
func helloTree(t *testing.T) *project.Scope {
	t.Helper()
	global := project.NewScope(project.GlobalScope, "global")
	set(t, global.NewBlock(), field.ObjDir, field.Scalar("obj"))

	sln := project.NewScope(project.SolutionScope, "Hello")
	require.NoError(t, global.AddChild(sln))
	debug := sln.NewBlock("Debug")
	set(t, debug, field.Flags, field.List("Symbols"))
	set(t, debug, field.Defines, field.List("DEBUG"))
	release := sln.NewBlock("Release")
	set(t, release, field.Flags, field.List("Optimize"))
	set(t, release, field.Defines, field.List("NDEBUG"))

	app := project.NewScope(project.ProjectScope, "app")
	require.NoError(t, sln.AddChild(app))
	base := app.NewBlock()
	set(t, base, field.Kind, field.Scalar("ConsoleApp"))
	set(t, base, field.Language, field.Scalar("C++"))
	set(t, base, field.Files, field.List("src/main.cpp"))
	set(t, base, field.IncludeDirs, field.List("lib"))
	set(t, base, field.Links, field.List("hello", "m"))
	set(t, app.NewBlock("Debug"), field.Files, field.List("src/debug.cpp"))

	lib := project.NewScope(project.ProjectScope, "hello")
	require.NoError(t, sln.AddChild(lib))
	libBase := lib.NewBlock()
	set(t, libBase, field.Kind, field.Scalar("StaticLib"))
	set(t, libBase, field.Language, field.Scalar("C"))
	set(t, libBase, field.Files, field.List("lib/hello.c", "lib/hello.h"))
	return sln
}

// generate runs action name over helloTree with the output in <base>/build
// and returns the output directory
func generate(t *testing.T, name, targetOS string, targets ...project.Target) (*action.Output, string) {
	t.Helper()
	reg := action.NewRegistry()
	require.NoError(t, Register(reg))
	act, err := reg.Lookup(name)
	require.NoError(t, err)

	if len(targets) == 0 {
		targets = []project.Target{project.NewTarget("Debug", "x64"), project.NewTarget("Release", "x64")}
	}
	base := t.TempDir()
	sln, err := action.NewSolution(context.Background(), helloTree(t), targets, action.Options{
		Action:  name,
		OS:      targetOS,
		BaseDir: base,
	})
	require.NoError(t, err)

	out := action.NewOutput(filepath.Join(base, "build"), false)
	require.NoError(t, act.Generate(sln, out))

	// a second run must leave everything untouched
	again := action.NewOutput(out.Dir, true)
	require.NoError(t, act.Generate(sln, again))
	assert.Empty(t, again.Stale())
	assert.ElementsMatch(t, out.Written(), again.Unchanged())

	return out, out.Dir
}

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

// section returns the lines between the first line containing start and
// the next line equal to end
func section(t *testing.T, content, start, end string) string {
	t.Helper()
	i := strings.Index(content, start)
	require.GreaterOrEqual(t, i, 0, "missing %q", start)
	rest := content[i:]
	j := strings.Index(rest, "\n"+end+"\n")
	require.GreaterOrEqual(t, j, 0, "missing %q after %q", end, start)
	return rest[:j+1]
}

func TestRegister(t *testing.T) {
	reg := action.NewRegistry()
	require.NoError(t, Register(reg))

	assert.Equal(t, []string{"gmake", "vs2002", "vs2003", "vs2005", "ninja"}, reg.Names())

	descriptions := map[string]string{}
	for _, a := range reg.All() {
		descriptions[a.Name] = a.Description
	}
	assert.Equal(t, "GNU Makefiles for POSIX, MinGW, and Cygwin", descriptions["gmake"])
	assert.Equal(t, "Microsoft Visual Studio 2002", descriptions["vs2002"])
	assert.Equal(t, "Microsoft Visual Studio 2003", descriptions["vs2003"])
	assert.Equal(t, "Microsoft Visual Studio 2005 (includes Express editions)", descriptions["vs2005"])

	_, err := reg.Lookup("xcode")
	assert.ErrorIs(t, err, action.ErrActionNotFound)
	assert.ErrorIs(t, Register(reg), action.ErrDuplicateAction)
}

func TestObjectName(t *testing.T) {
	cases := map[string]string{
		"src/main.c":         "src/main",
		"./src/util/x.cpp":   "src/util/x",
		"../shared/common.c": "shared/common",
		"/abs/path/file.cc":  "abs/path/file",
		"noext":              "noext",
	}
	for in, want := range cases {
		assert.Equal(t, want, objectName(in), in)
	}
}

func TestConfigKey(t *testing.T) {
	assert.Equal(t, "debug_x64", configKey(project.NewTarget("Debug", "x64")))
	assert.Equal(t, "release", configKey(project.NewTarget("Release", "")))
	assert.Equal(t, "debug_fast_win32", configKey(project.NewTarget("Debug Fast", "Win32")))
}

func TestOutputName(t *testing.T) {
	res := func(kind, targetName string) *project.Resolved {
		sc := project.NewScope(project.ProjectScope, "p")
		b := sc.NewBlock()
		set(t, b, field.Kind, field.Scalar(kind))
		if targetName != "" {
			set(t, b, field.TargetName, field.Scalar(targetName))
		}
		r, err := project.Resolve(sc, project.NewTarget("Debug", ""))
		require.NoError(t, err)
		return r
	}

	cases := []struct {
		kind, targetName, os, want string
	}{
		{"ConsoleApp", "", "linux", "p"},
		{"ConsoleApp", "", "windows", "p.exe"},
		{"WindowedApp", "tool", "windows", "tool.exe"},
		{"StaticLib", "", "linux", "libp.a"},
		{"StaticLib", "", "windows", "p.lib"},
		{"SharedLib", "", "linux", "libp.so"},
		{"SharedLib", "", "darwin", "libp.dylib"},
		{"SharedLib", "core", "windows", "core.dll"},
	}
	for _, c := range cases {
		cfg := res(c.kind, c.targetName)
		assert.Equal(t, c.want, outputName("p", cfg, kindOf("p", cfg), c.os), "%+v", c)
	}
}

func TestKindOfUnknownFallsBack(t *testing.T) {
	sc := project.NewScope(project.ProjectScope, "p")
	set(t, sc.NewBlock(), field.Kind, field.Scalar("Bundle"))
	cfg, err := project.Resolve(sc, project.NewTarget("Debug", ""))
	require.NoError(t, err)
	assert.Equal(t, consoleApp, kindOf("p", cfg))
}

func TestGccFlags(t *testing.T) {
	fs := flagSet{flagSymbols: true, flagOptimizeSpeed: true, flagOptimize: true, flagFatalWarnings: true}
	assert.Equal(t, []string{"-g", "-O3", "-Werror"}, gccFlags(fs))
	assert.Equal(t, []string{"-Wall", "-Wextra"}, gccFlags(flagSet{flagExtraWarnings: true}))
	assert.Empty(t, gccFlags(flagSet{}))
}

func TestRelocator(t *testing.T) {
	r := relocator{from: filepath.FromSlash("/p/build"), base: filepath.FromSlash("/p")}
	assert.Equal(t, "../src/a.c", r.rel("src/a.c"))
	assert.Equal(t, "..", r.rel("."))
	assert.Equal(t, "x", r.rel("build/x"))
	assert.Equal(t, "", r.rel(""))
}
