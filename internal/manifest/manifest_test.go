package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/qobs-build/qgen/internal/field"
	"github.com/qobs-build/qgen/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(dir string) ConfigEnv {
	return ConfigEnv{
		TargetOS:   "linux",
		TargetArch: "amd64",
		Environ:    map[string]string{"QGEN_TEST_FLAVOR": "fast"},
		basedir:    dir,
	}
}

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

const tomlManifest = `
[solution]
name = "Hello"
configurations = ["Debug", "Release"]
platforms = ["x32", "x64"]
location = "build"
defines = ["HELLO_{{ upper(target_os) }}"]

[[solution.configuration]]
terms = ["Debug"]
flags = ["Symbols"]

[[solution.configuration]]
terms = ["Release"]
flags = ["Optimize"]

[[project]]
name = "app"
kind = "ConsoleApp"
files = ["src/**/*.c", "gen/version.c"]
links = ["hello"]

[[project.configuration]]
terms = ["Debug"]
defines = ["DEBUG"]

[[project.configuration]]
terms = ["Release"]
defines = ["NDEBUG"]

[[project.configuration]]
when = "target_os == 'windows'"
links = ["ws2_32"]

[[project]]
name = "hello"
kind = "StaticLib"
language = "C"
files = ["lib/*.c"]
targetdir = "lib/{{ environ.QGEN_TEST_FLAVOR }}"
`

var sources = map[string]string{
	"src/main.c":      "int main(void) { return 0; }\n",
	"src/util/util.c": "\n",
	"src/readme.txt":  "\n",
	"lib/hello.c":     "\n",
	"lib/hello.h":     "\n",
}

func withManifest(name, content string) map[string]string {
	files := map[string]string{name: content}
	for k, v := range sources {
		files[k] = v
	}
	return files
}

func resolve(t *testing.T, sc *project.Scope, cfg, plat string) *project.Resolved {
	t.Helper()
	res, err := project.Resolve(sc, project.NewTarget(cfg, plat))
	require.NoError(t, err)
	return res
}

func checkHelloManifest(t *testing.T, m *Manifest, dir string) {
	t.Helper()

	assert.Equal(t, "Hello", m.Solution.Name())
	assert.Equal(t, []string{"Debug", "Release"}, m.Configurations)
	assert.Equal(t, []string{"x32", "x64"}, m.Platforms)
	assert.Equal(t, filepath.Join(dir, "build"), m.OutputDir())
	assert.Same(t, m.Global, m.Solution.Parent())

	targets := m.Targets()
	require.Len(t, targets, 4)
	assert.Equal(t, "Debug|x32", targets[0].String())
	assert.Equal(t, "Debug|x64", targets[1].String())
	assert.Equal(t, "Release|x64", targets[3].String())

	prjs := m.Projects()
	require.Len(t, prjs, 2)
	app, lib := prjs[0], prjs[1]
	assert.Equal(t, "app", app.Name())
	assert.Equal(t, "hello", lib.Name())

	debug := resolve(t, app, "Debug", "x64")
	if diff := cmp.Diff([]string{"HELLO_LINUX", "DEBUG"}, debug.List(field.Defines)); diff != "" {
		t.Errorf("defines mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Symbols"}, debug.List(field.Flags))
	assert.Equal(t, []string{"hello"}, debug.List(field.Links), "the windows-only block is dropped on linux")
	assert.Equal(t, "obj", debug.Scalar(field.ObjDir), "inherited from the global defaults")
	assert.Equal(t, "C++", debug.Scalar(field.Language))
	assert.Equal(t, []string{"src/main.c", "src/util/util.c", "gen/version.c"}, debug.List(field.Files))

	release := resolve(t, app, "Release", "x32")
	assert.Equal(t, []string{"HELLO_LINUX", "NDEBUG"}, release.List(field.Defines))
	assert.Equal(t, []string{"Optimize"}, release.List(field.Flags))

	libCfg := resolve(t, lib, "Release", "x64")
	assert.Equal(t, "StaticLib", libCfg.Scalar(field.Kind))
	assert.Equal(t, "C", libCfg.Scalar(field.Language))
	assert.Equal(t, []string{"lib/hello.c"}, libCfg.List(field.Files))
	assert.Equal(t, "lib/fast", libCfg.Scalar(field.TargetDir))
}

func TestLoadTOML(t *testing.T) {
	dir := writeTree(t, withManifest("qgen.toml", tomlManifest))
	m, err := LoadFile(filepath.Join(dir, "qgen.toml"), testEnv(dir))
	require.NoError(t, err)
	checkHelloManifest(t, m, dir)
}

const yamlManifest = `
solution:
  name: Hello
  configurations: [Debug, Release]
  platforms: [x32, x64]
  location: build
  defines: ["HELLO_{{ upper(target_os) }}"]
  configuration:
    - terms: Debug
      flags: [Symbols]
    - terms: [Release]
      flags: [Optimize]
project:
  - name: app
    kind: ConsoleApp
    files: ["src/**/*.c", "gen/version.c"]
    links: [hello]
    configuration:
      - terms: [Debug]
        defines: [DEBUG]
      - terms: [Release]
        defines: [NDEBUG]
      - when: "target_os == 'windows'"
        links: [ws2_32]
  - name: hello
    kind: StaticLib
    language: C
    files: ["lib/*.c"]
    targetdir: "lib/{{ environ.QGEN_TEST_FLAVOR }}"
`

func TestLoadYAML(t *testing.T) {
	dir := writeTree(t, withManifest("qgen.yaml", yamlManifest))
	m, err := LoadFile(filepath.Join(dir, "qgen.yaml"), testEnv(dir))
	require.NoError(t, err)
	checkHelloManifest(t, m, dir)
}

const hclManifest = `
solution "Hello" {
  configurations = ["Debug", "Release"]
  platforms      = ["x32", "x64"]
  location       = "build"
  defines        = ["HELLO_${upper(target_os)}"]

  configuration {
    terms = ["Debug"]
    flags = ["Symbols"]
  }

  configuration {
    terms = ["Release"]
    flags = ["Optimize"]
  }

  project "app" {
    kind  = "ConsoleApp"
    files = ["src/**/*.c", "gen/version.c"]
    links = ["hello"]

    configuration {
      terms   = ["Debug"]
      defines = ["DEBUG"]
    }

    configuration {
      terms   = ["Release"]
      defines = ["NDEBUG"]
    }

    configuration {
      when  = target_os == "windows"
      links = ["ws2_32"]
    }
  }

  project "hello" {
    kind      = "StaticLib"
    language  = "C"
    files     = ["lib/*.c"]
    targetdir = "lib/${environ.QGEN_TEST_FLAVOR}"
  }
}
`

func TestLoadHCL(t *testing.T) {
	dir := writeTree(t, withManifest("qgen.hcl", hclManifest))
	m, err := LoadFile(filepath.Join(dir, "qgen.hcl"), testEnv(dir))
	require.NoError(t, err)
	checkHelloManifest(t, m, dir)
}

func TestLoad_KindMismatch(t *testing.T) {
	cases := map[string]string{
		"qgen.toml": "[solution]\nname = \"S\"\nconfigurations = [\"Debug\"]\nobjdir = [\"a\", \"b\"]\n",
		"qgen.yaml": "solution:\n  name: S\n  configurations: [Debug]\n  defines: DEBUG\n",
		"qgen.hcl":  "solution \"S\" {\n  configurations = [\"Debug\"]\n  objdir = [\"a\"]\n}\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := writeTree(t, map[string]string{name: content})
			_, err := LoadFile(filepath.Join(dir, name), testEnv(dir))
			assert.ErrorIs(t, err, field.ErrFieldKindMismatch)
		})
	}
}

func TestLoad_UnknownField(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"qgen.toml": "[solution]\nname = \"S\"\nconfigurations = [\"Debug\"]\nbogus = \"x\"\n",
	})
	_, err := LoadFile(filepath.Join(dir, "qgen.toml"), testEnv(dir))
	assert.ErrorIs(t, err, field.ErrUnknownField)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"no solution":       "[[project]]\nname = \"a\"\n",
		"no configurations": "[solution]\nname = \"S\"\n",
		"unnamed project":   "[solution]\nname = \"S\"\nconfigurations = [\"Debug\"]\n[[project]]\nkind = \"StaticLib\"\n",
		"duplicate project": "[solution]\nname = \"S\"\nconfigurations = [\"Debug\"]\n[[project]]\nname = \"a\"\n[[project]]\nname = \"a\"\n",
		"bad guard":         "[solution]\nname = \"S\"\nconfigurations = [\"Debug\"]\n[[solution.configuration]]\nwhen = \"1 + \"\n",
		"non-bool guard":    "[solution]\nname = \"S\"\nconfigurations = [\"Debug\"]\n[[solution.configuration]]\nwhen = \"target_os\"\n",
		"top-level key":     "name = \"x\"\n[solution]\nname = \"S\"\nconfigurations = [\"Debug\"]\n",
		"syntax":            "[solution\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			dir := writeTree(t, map[string]string{"qgen.toml": content})
			_, err := LoadFile(filepath.Join(dir, "qgen.toml"), testEnv(dir))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BlockOrderIsDeclarationOrder(t *testing.T) {
	dir := writeTree(t, map[string]string{"qgen.toml": `
[solution]
name = "S"
configurations = ["Debug"]

[[project]]
name = "app"
objdir = "base"

[[project.configuration]]
terms = ["Debug"]
objdir = "first"

[[project.configuration]]
terms = ["Deb*"]
objdir = "second"
`})
	m, err := LoadFile(filepath.Join(dir, "qgen.toml"), testEnv(dir))
	require.NoError(t, err)
	app, ok := m.Solution.Child("app")
	require.True(t, ok)
	assert.Len(t, app.Blocks(), 3)
	assert.Equal(t, "second", resolve(t, app, "Debug", "").Scalar(field.ObjDir))
}

func TestFind(t *testing.T) {
	dir := writeTree(t, map[string]string{"qgen.yaml": "x"})
	path, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "qgen.yaml"), path)

	_, err = Find(t.TempDir())
	assert.ErrorIs(t, err, ErrNoManifest)
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"qgen.toml": FormatTOML,
		"x/Q.HCL":   FormatHCL,
		"a.yml":     FormatYAML,
		"a.yaml":    FormatYAML,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := FormatFromPath("premake4.lua")
	assert.Error(t, err)
}

func TestExpandFiles(t *testing.T) {
	dir := writeTree(t, sources)
	files, err := expandFiles(dir, []string{"src/**/*.c", "lib/hello.h", "missing/*.c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/main.c", "src/util/util.c", "lib/hello.h"}, files)
}

func TestEvaluateString(t *testing.T) {
	env := testEnv(t.TempDir())
	got, err := evaluateString("os={{ target_os }} arch={{target_arch}}", env)
	require.NoError(t, err)
	assert.Equal(t, "os=linux arch=amd64", got)

	_, err = evaluateString("{{ nosuchvar }}", env)
	assert.Error(t, err)
}

func TestReadFileStaysInsideBasedir(t *testing.T) {
	dir := writeTree(t, map[string]string{"VERSION": "1.2.3\n"})
	env := testEnv(dir)

	got, err := evaluateString(`v{{ trim(ReadFile("VERSION")) }}`, env)
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", got)

	_, err = env.ReadFile("../outside")
	assert.Error(t, err)
}
