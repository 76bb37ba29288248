package gen

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/qobs-build/qgen/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readVCProject(t *testing.T, dir, name string) VCProject {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader([]byte(readOutput(t, dir, name))))
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	var vcp VCProject
	require.NoError(t, dec.Decode(&vcp))
	return vcp
}

func tool(t *testing.T, cfg VCConfiguration, name string) map[string]string {
	t.Helper()
	for _, tl := range cfg.Tools {
		if tl.Name == name {
			attrs := make(map[string]string, len(tl.Attrs))
			for _, a := range tl.Attrs {
				attrs[a.Name.Local] = a.Value
			}
			return attrs
		}
	}
	t.Fatalf("configuration %s has no %s", cfg.Name, name)
	return nil
}

func TestProjectGUIDIsStable(t *testing.T) {
	a := projectGUID("Hello", "app")
	assert.Equal(t, a, projectGUID("Hello", "app"))
	assert.NotEqual(t, a, projectGUID("Hello", "hello"))
	assert.NotEqual(t, a, projectGUID("Other", "app"))
	assert.Equal(t, strings.ToUpper(a), a)
}

func TestVsPlatform(t *testing.T) {
	assert.Equal(t, "Win32", vsPlatform(""))
	assert.Equal(t, "Win32", vsPlatform("x32"))
	assert.Equal(t, "x64", vsPlatform("X64"))
	assert.Equal(t, "x64", vsPlatform("amd64"))
}

func TestVS2005Solution(t *testing.T) {
	out, dir := generate(t, "vs2005", "windows")
	assert.ElementsMatch(t, []string{"Hello.sln", "app.vcproj", "hello.vcproj"}, out.Written())

	sln := readOutput(t, dir, "Hello.sln")
	assert.True(t, strings.HasPrefix(sln, "\ufeffMicrosoft Visual Studio Solution File, Format Version 9.00\r\n# Visual Studio 2005\r\n"))
	assert.NotContains(t, strings.ReplaceAll(sln, "\r\n", ""), "\n", "every line ends in CRLF")

	app, hello := projectGUID("Hello", "app"), projectGUID("Hello", "hello")
	assert.Contains(t, sln, `Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "app", "app.vcproj", "{`+app+`}"`+"\r\n"+
		"\tProjectSection(ProjectDependencies) = postProject\r\n"+
		"\t\t{"+hello+"} = {"+hello+"}\r\n"+
		"\tEndProjectSection\r\n")
	assert.Contains(t, sln, "\t\tDebug|x64 = Debug|x64\r\n\t\tRelease|x64 = Release|x64\r\n")
	assert.Contains(t, sln, "\t\t{"+hello+"}.Release|x64.Build.0 = Release|x64\r\n")
}

func TestVS2005Project(t *testing.T) {
	_, dir := generate(t, "vs2005", "windows")
	vcp := readVCProject(t, dir, "app.vcproj")

	assert.Equal(t, "8.00", vcp.Version)
	assert.Equal(t, "app", vcp.Name)
	assert.Equal(t, "app", vcp.RootNamespace)
	assert.Equal(t, "{"+projectGUID("Hello", "app")+"}", vcp.ProjectGUID)
	assert.Equal(t, []VCPlatform{{Name: "x64"}}, vcp.Platforms)
	require.Len(t, vcp.Configurations, 2)

	debug := vcp.Configurations[0]
	assert.Equal(t, "Debug|x64", debug.Name)
	assert.Equal(t, vcApplication, debug.ConfigurationType)
	assert.Equal(t, `..\obj\x64\Debug\app`, debug.IntermediateDirectory)
	assert.Equal(t, "..", debug.OutputDirectory)

	cl := tool(t, debug, "VCCLCompilerTool")
	assert.Equal(t, "DEBUG", cl["PreprocessorDefinitions"])
	assert.Equal(t, `..\lib`, cl["AdditionalIncludeDirectories"])
	assert.Equal(t, "0", cl["Optimization"])
	assert.Equal(t, "3", cl["RuntimeLibrary"])
	assert.Equal(t, "3", cl["DebugInformationFormat"], "x64 has no edit and continue")

	link := tool(t, debug, "VCLinkerTool")
	assert.Equal(t, "m.lib", link["AdditionalDependencies"], "sibling projects come in through dependencies")
	assert.Equal(t, `$(OutDir)\app.exe`, link["OutputFile"])
	assert.Equal(t, "true", link["GenerateDebugInformation"])
	assert.Equal(t, "17", link["TargetMachine"])

	release := vcp.Configurations[1]
	assert.Equal(t, "3", tool(t, release, "VCCLCompilerTool")["Optimization"])
	assert.Equal(t, "false", tool(t, release, "VCLinkerTool")["GenerateDebugInformation"])

	require.Len(t, vcp.Files, 2)
	assert.Equal(t, `..\src\main.cpp`, vcp.Files[0].RelativePath)
	assert.Empty(t, vcp.Files[0].FileConfigurations)
	assert.Equal(t, `..\src\debug.cpp`, vcp.Files[1].RelativePath)
	assert.Equal(t, []VCFileConfiguration{{Name: "Release|x64", ExcludedFromBuild: true}}, vcp.Files[1].FileConfigurations)

	lib := readVCProject(t, dir, "hello.vcproj")
	require.Len(t, lib.Configurations, 2)
	assert.Equal(t, vcStaticLib, lib.Configurations[0].ConfigurationType)
	assert.Equal(t, `$(OutDir)\hello.lib`, tool(t, lib.Configurations[0], "VCLibrarianTool")["OutputFile"])
	assert.Equal(t, "1", tool(t, lib.Configurations[0], "VCCLCompilerTool")["CompileAs"])
}

func TestVS2002CollapsesPlatforms(t *testing.T) {
	_, dir := generate(t, "vs2002", "windows",
		project.NewTarget("Debug", "x32"),
		project.NewTarget("Debug", "x64"),
		project.NewTarget("Release", "x32"),
		project.NewTarget("Release", "x64"),
	)

	sln := readOutput(t, dir, "Hello.sln")
	assert.True(t, strings.HasPrefix(sln, "Microsoft Visual Studio Solution File, Format Version 7.00\r\n"))
	assert.NotContains(t, sln, "ProjectSection")
	assert.Contains(t, sln, "\t\tConfigName.0 = Debug\r\n\t\tConfigName.1 = Release\r\n")
	app, hello := projectGUID("Hello", "app"), projectGUID("Hello", "hello")
	assert.Contains(t, sln, "\tGlobalSection(ProjectDependencies) = postSolution\r\n\t\t{"+app+"}.0 = {"+hello+"}\r\n")
	assert.Contains(t, sln, "\t\t{"+app+"}.Debug.ActiveCfg = Debug|Win32\r\n")

	vcp := readVCProject(t, dir, "app.vcproj")
	assert.Equal(t, "7.00", vcp.Version)
	assert.Empty(t, vcp.RootNamespace)
	assert.Equal(t, []VCPlatform{{Name: "Win32"}}, vcp.Platforms)
	require.Len(t, vcp.Configurations, 2)
	assert.Equal(t, "4", tool(t, vcp.Configurations[0], "VCCLCompilerTool")["DebugInformationFormat"])
	assert.Equal(t, "1", tool(t, vcp.Configurations[0], "VCLinkerTool")["TargetMachine"])
}

func TestVS2003ProjectSections(t *testing.T) {
	_, dir := generate(t, "vs2003", "windows")

	sln := readOutput(t, dir, "Hello.sln")
	assert.True(t, strings.HasPrefix(sln, "Microsoft Visual Studio Solution File, Format Version 8.00\r\n"))
	assert.Contains(t, sln, "\tProjectSection(ProjectDependencies) = postProject\r\n")
	assert.NotContains(t, sln, "GlobalSection(ProjectDependencies)")
	assert.Equal(t, "7.10", readVCProject(t, dir, "app.vcproj").Version)
}
