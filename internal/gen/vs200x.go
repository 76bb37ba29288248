package gen

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/qobs-build/qgen/internal/action"
	"github.com/qobs-build/qgen/internal/field"
	"github.com/qobs-build/qgen/internal/msg"
	"github.com/qobs-build/qgen/internal/project"
)

// vsVersion holds what differs between the Visual Studio releases
type vsVersion struct {
	action string
	// solutionFormat is the "Format Version" line of the .sln
	solutionFormat string
	// solutionComment follows the format line, if any
	solutionComment string
	projectVersion  string
	// platforms is false for releases that only know Win32
	platforms bool
	// projectSections puts dependencies in the Project entries instead of a
	// global section
	projectSections bool
}

var (
	vs2002 = vsVersion{action: "vs2002", solutionFormat: "7.00", projectVersion: "7.00"}
	vs2003 = vsVersion{action: "vs2003", solutionFormat: "8.00", projectVersion: "7.10", projectSections: true}
	vs2005 = vsVersion{
		action:          "vs2005",
		solutionFormat:  "9.00",
		solutionComment: "# Visual Studio 2005",
		projectVersion:  "8.00",
		platforms:       true,
		projectSections: true,
	}
)

// Windows (Visual C++) https://github.com/VISTALL/visual-studio-project-type-guids
const vcProjectType = "8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942"

var projectNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/qobs-build/qgen"))

// projectGUID is derived from the solution and project names, so
// regenerating keeps the GUIDs Visual Studio already knows
func projectGUID(sln, prj string) string {
	return strings.ToUpper(uuid.NewSHA1(projectNamespace, []byte(sln+"/"+prj)).String())
}

// vsPlatform maps a platform name onto the Visual Studio one
func vsPlatform(plat string) string {
	switch strings.ToLower(plat) {
	case "x64", "amd64", "x86_64":
		return "x64"
	default:
		return "Win32"
	}
}

// vsConfig is one solution configuration of a Visual Studio solution
type vsConfig struct {
	index    int // into Solution.Targets
	name     string
	platform string
}

func (c vsConfig) String() string { return c.name + "|" + c.platform }

// configs lists the solution configurations. Releases without platform
// support get one configuration per configuration name.
func (v vsVersion) configs(sln *action.Solution) []vsConfig {
	var out []vsConfig
	seen := make(map[string]bool)
	for i, t := range sln.Targets {
		c := vsConfig{index: i, name: t.Configuration(), platform: vsPlatform(t.Platform())}
		if !v.platforms {
			if seen[c.name] {
				continue
			}
			c.platform = "Win32"
		}
		if seen[c.String()] {
			continue
		}
		seen[c.String()] = true
		seen[c.name] = true
		out = append(out, c)
	}
	if !v.platforms && len(sln.Platforms()) > 1 {
		msg.Warn("%s only supports Win32; using the first platform of each configuration", v.action)
	}
	return out
}

func (v vsVersion) generate(sln *action.Solution, out *action.Output) error {
	configs := v.configs(sln)
	if err := out.WriteString(sln.Name+".sln", v.solutionFile(sln, configs)); err != nil {
		return err
	}
	r := newRelocator(sln, out)
	for _, prj := range sln.Projects {
		content, err := v.projectFile(sln, prj, configs, r)
		if err != nil {
			return fmt.Errorf("project %s: %w", prj.Name, err)
		}
		if err := out.WriteString(prj.Name+".vcproj", content); err != nil {
			return err
		}
	}
	return nil
}

func (v vsVersion) solutionFile(sln *action.Solution, configs []vsConfig) string {
	var sb strings.Builder

	// 2005 and later write a UTF-8 BOM
	if v.platforms {
		write(&sb, "\ufeff")
	}
	writeln(&sb, "Microsoft Visual Studio Solution File, Format Version ", v.solutionFormat)
	if v.solutionComment != "" {
		writeln(&sb, v.solutionComment)
	}

	for _, prj := range sln.Projects {
		guid := projectGUID(sln.Name, prj.Name)
		writeln(&sb,
			`Project("{`, vcProjectType, `}") = "`, prj.Name, `", "`, prj.Name, `.vcproj", "{`, guid, `}"`,
		)
		if v.projectSections {
			writeln(&sb, "\tProjectSection(ProjectDependencies) = postProject")
			for _, dep := range projectDeps(sln, prj) {
				depGUID := projectGUID(sln.Name, dep)
				writeln(&sb, "\t\t{", depGUID, "} = {", depGUID, "}")
			}
			writeln(&sb, "\tEndProjectSection")
		}
		writeln(&sb, "EndProject")
	}

	writeln(&sb, "Global")
	if v.platforms {
		writeln(&sb, "\tGlobalSection(SolutionConfigurationPlatforms) = preSolution")
		for _, c := range configs {
			writeln(&sb, "\t\t", c.String(), " = ", c.String())
		}
		writeln(&sb, "\tEndGlobalSection")
		writeln(&sb, "\tGlobalSection(ProjectConfigurationPlatforms) = postSolution")
		for _, prj := range sln.Projects {
			guid := projectGUID(sln.Name, prj.Name)
			for _, c := range configs {
				writeln(&sb, "\t\t{", guid, "}.", c.String(), ".ActiveCfg = ", c.String())
				writeln(&sb, "\t\t{", guid, "}.", c.String(), ".Build.0 = ", c.String())
			}
		}
		writeln(&sb, "\tEndGlobalSection")
		writeln(&sb, "\tGlobalSection(SolutionProperties) = preSolution")
		writeln(&sb, "\t\tHideSolutionNode = FALSE")
		writeln(&sb, "\tEndGlobalSection")
	} else {
		writeln(&sb, "\tGlobalSection(SolutionConfiguration) = preSolution")
		for i, c := range configs {
			writef(&sb, "\t\tConfigName.%d = %s\n", i, c.name)
		}
		writeln(&sb, "\tEndGlobalSection")
		if !v.projectSections {
			writeln(&sb, "\tGlobalSection(ProjectDependencies) = postSolution")
			for _, prj := range sln.Projects {
				guid := projectGUID(sln.Name, prj.Name)
				for i, dep := range projectDeps(sln, prj) {
					writef(&sb, "\t\t{%s}.%d = {%s}\n", guid, i, projectGUID(sln.Name, dep))
				}
			}
			writeln(&sb, "\tEndGlobalSection")
		}
		writeln(&sb, "\tGlobalSection(ProjectConfiguration) = postSolution")
		for _, prj := range sln.Projects {
			guid := projectGUID(sln.Name, prj.Name)
			for _, c := range configs {
				writeln(&sb, "\t\t{", guid, "}.", c.name, ".ActiveCfg = ", c.String())
				writeln(&sb, "\t\t{", guid, "}.", c.name, ".Build.0 = ", c.String())
			}
		}
		writeln(&sb, "\tEndGlobalSection")
		writeln(&sb, "\tGlobalSection(ExtensibilityGlobals) = postSolution")
		writeln(&sb, "\tEndGlobalSection")
		writeln(&sb, "\tGlobalSection(ExtensibilityAddIns) = postSolution")
		writeln(&sb, "\tEndGlobalSection")
	}
	writeln(&sb, "EndGlobal")

	return strings.ReplaceAll(sb.String(), "\n", "\r\n")
}

//
// structures for .vcproj
//

type VCProject struct {
	XMLName        xml.Name          `xml:"VisualStudioProject"`
	ProjectType    string            `xml:"ProjectType,attr"`
	Version        string            `xml:"Version,attr"`
	Name           string            `xml:"Name,attr"`
	ProjectGUID    string            `xml:"ProjectGUID,attr"`
	RootNamespace  string            `xml:"RootNamespace,attr,omitempty"`
	Keyword        string            `xml:"Keyword,attr"`
	Platforms      []VCPlatform      `xml:"Platforms>Platform"`
	ToolFiles      *struct{}         `xml:"ToolFiles"`
	Configurations []VCConfiguration `xml:"Configurations>Configuration"`
	References     struct{}          `xml:"References"`
	Files          []VCFile          `xml:"Files>File"`
	Globals        struct{}          `xml:"Globals"`
}

type VCPlatform struct {
	Name string `xml:"Name,attr"`
}

type VCConfiguration struct {
	Name                  string   `xml:"Name,attr"`
	OutputDirectory       string   `xml:"OutputDirectory,attr"`
	IntermediateDirectory string   `xml:"IntermediateDirectory,attr"`
	ConfigurationType     int      `xml:"ConfigurationType,attr"`
	CharacterSet          int      `xml:"CharacterSet,attr"`
	Tools                 []VCTool `xml:"Tool"`
}

// VCTool is a <Tool> element. Its attributes depend on the tool, so they
// are kept in order as written.
type VCTool struct {
	Name  string     `xml:"Name,attr"`
	Attrs []xml.Attr `xml:",any,attr"`
}

func (t *VCTool) set(name, value string) {
	t.Attrs = append(t.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (t *VCTool) setNonEmpty(name, value string) {
	if value != "" {
		t.set(name, value)
	}
}

type VCFile struct {
	RelativePath       string                `xml:"RelativePath,attr"`
	FileConfigurations []VCFileConfiguration `xml:"FileConfiguration,omitempty"`
}

type VCFileConfiguration struct {
	Name              string `xml:"Name,attr"`
	ExcludedFromBuild bool   `xml:"ExcludedFromBuild,attr"`
}

// enumerated .vcproj attribute values
const (
	vcApplication   = 1
	vcDynamicLib    = 2
	vcStaticLib     = 4
	vcCharSetMBCS   = 2
	vcSubSystemCon  = 1
	vcSubSystemWin  = 2
	vcMachineX86    = 1
	vcMachineX64    = 17
	vcRuntimeMD     = 2
	vcRuntimeMDd    = 3
	vcWarningLevel3 = 3
	vcWarningLevel4 = 4
)

func winPath(p string) string { return strings.ReplaceAll(p, "/", `\`) }

func (v vsVersion) projectFile(sln *action.Solution, prj *action.Project, configs []vsConfig, r relocator) (string, error) {
	vcp := VCProject{
		ProjectType: "Visual C++",
		Version:     v.projectVersion,
		Name:        prj.Name,
		ProjectGUID: "{" + projectGUID(sln.Name, prj.Name) + "}",
		Keyword:     "Win32Proj",
	}
	if v.platforms {
		vcp.RootNamespace = prj.Name
		vcp.ToolFiles = &struct{}{}
	}

	seenPlatform := make(map[string]bool)
	for _, c := range configs {
		if !seenPlatform[c.platform] {
			seenPlatform[c.platform] = true
			vcp.Platforms = append(vcp.Platforms, VCPlatform{Name: c.platform})
		}
		vcp.Configurations = append(vcp.Configurations, v.configuration(sln, prj, c, r))
	}

	for _, src := range sourceUnion(prj) {
		file := VCFile{RelativePath: winPath(r.rel(src))}
		for _, c := range configs {
			if !containsFile(prj.Configs[c.index], src) {
				file.FileConfigurations = append(file.FileConfigurations,
					VCFileConfiguration{Name: c.String(), ExcludedFromBuild: true})
			}
		}
		vcp.Files = append(vcp.Files, file)
	}

	output, err := xml.MarshalIndent(vcp, "", "\t")
	if err != nil {
		return "", err
	}
	content := `<?xml version="1.0" encoding="Windows-1252"?>` + "\n" + string(output) + "\n"
	return strings.ReplaceAll(content, "\n", "\r\n"), nil
}

func containsFile(cfg *project.Resolved, file string) bool {
	for _, f := range cfg.List(field.Files) {
		if f == file {
			return true
		}
	}
	return false
}

func (v vsVersion) configuration(sln *action.Solution, prj *action.Project, c vsConfig, r relocator) VCConfiguration {
	cfg := prj.Configs[c.index]
	k := kindOf(prj.Name, cfg)
	fs := flagsOf(cfg)
	debug := fs.has(flagSymbols) && !fs.optimized()

	vc := VCConfiguration{
		Name:                  c.String(),
		OutputDirectory:       winPath(r.rel(targetDir(cfg))),
		IntermediateDirectory: winPath(path.Join(r.rel(cfg.Scalar(field.ObjDir)), configDir(sln.Targets[c.index]), prj.Name)),
		CharacterSet:          vcCharSetMBCS,
	}
	switch k {
	case staticLib:
		vc.ConfigurationType = vcStaticLib
	case sharedLib:
		vc.ConfigurationType = vcDynamicLib
	default:
		vc.ConfigurationType = vcApplication
	}

	cl := VCTool{Name: "VCCLCompilerTool"}
	cl.setNonEmpty("AdditionalOptions", strings.Join(cfg.List(field.BuildOptions), " "))
	switch {
	case fs.has(flagOptimizeSpeed):
		cl.set("Optimization", "2")
	case fs.has(flagOptimizeSize):
		cl.set("Optimization", "1")
	case fs.has(flagOptimize):
		cl.set("Optimization", "3")
	default:
		cl.set("Optimization", "0")
	}
	cl.setNonEmpty("AdditionalIncludeDirectories", winPathList(r.all(cfg.List(field.IncludeDirs))))
	cl.setNonEmpty("PreprocessorDefinitions", strings.Join(cfg.List(field.Defines), ";"))
	if debug {
		cl.set("MinimalRebuild", "true")
		cl.set("BasicRuntimeChecks", "3")
		cl.set("RuntimeLibrary", fmt.Sprint(vcRuntimeMDd))
	} else {
		cl.set("StringPooling", "true")
		cl.set("RuntimeLibrary", fmt.Sprint(vcRuntimeMD))
		cl.set("EnableFunctionLevelLinking", "true")
	}
	cl.set("UsePrecompiledHeader", "0")
	if fs.has(flagExtraWarnings) {
		cl.set("WarningLevel", fmt.Sprint(vcWarningLevel4))
	} else {
		cl.set("WarningLevel", fmt.Sprint(vcWarningLevel3))
	}
	if fs.has(flagFatalWarnings) {
		cl.set("WarnAsError", "true")
	}
	switch {
	case !fs.has(flagSymbols):
		cl.set("DebugInformationFormat", "0")
	case debug && c.platform != "x64":
		// edit and continue
		cl.set("DebugInformationFormat", "4")
	default:
		cl.set("DebugInformationFormat", "3")
	}
	if isC(cfg) {
		cl.set("CompileAs", "1")
	}

	_, libs := splitLinks(sln, c.index, prj.Name, cfg)
	out := "$(OutDir)\\" + outputName(prj.Name, cfg, k, "windows")

	var link VCTool
	if k == staticLib {
		link = VCTool{Name: "VCLibrarianTool"}
		link.setNonEmpty("AdditionalOptions", strings.Join(cfg.List(field.LinkOptions), " "))
		link.set("OutputFile", out)
	} else {
		link = VCTool{Name: "VCLinkerTool"}
		link.setNonEmpty("AdditionalOptions", strings.Join(cfg.List(field.LinkOptions), " "))
		link.setNonEmpty("AdditionalDependencies", strings.Join(vcLibs(libs), " "))
		link.set("OutputFile", out)
		if debug {
			link.set("LinkIncremental", "2")
		} else {
			link.set("LinkIncremental", "1")
		}
		link.setNonEmpty("AdditionalLibraryDirectories", winPathList(r.all(cfg.List(field.LibDirs))))
		link.set("GenerateDebugInformation", fmt.Sprint(fs.has(flagSymbols)))
		if fs.has(flagSymbols) {
			link.set("ProgramDatabaseFile", "$(OutDir)\\"+prj.Name+".pdb")
		}
		if k == windowedApp {
			link.set("SubSystem", fmt.Sprint(vcSubSystemWin))
		} else {
			link.set("SubSystem", fmt.Sprint(vcSubSystemCon))
		}
		if !debug {
			link.set("OptimizeReferences", "2")
			link.set("EnableCOMDATFolding", "2")
		}
		if k == sharedLib {
			link.set("ImportLibrary", "$(OutDir)\\"+outputName(prj.Name, cfg, staticLib, "windows"))
		}
		if c.platform == "x64" {
			link.set("TargetMachine", fmt.Sprint(vcMachineX64))
		} else {
			link.set("TargetMachine", fmt.Sprint(vcMachineX86))
		}
	}

	vc.Tools = []VCTool{
		{Name: "VCPreBuildEventTool"},
		{Name: "VCCustomBuildTool"},
		cl,
		{Name: "VCResourceCompilerTool"},
		{Name: "VCPreLinkEventTool"},
		link,
		{Name: "VCPostBuildEventTool"},
	}
	return vc
}

func winPathList(ps []string) string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = winPath(p)
	}
	return strings.Join(out, ";")
}

// vcLibs names system libraries the way the MS linker wants them
func vcLibs(libs []string) []string {
	out := make([]string, len(libs))
	for i, l := range libs {
		if strings.HasSuffix(strings.ToLower(l), ".lib") {
			out[i] = l
		} else {
			out[i] = l + ".lib"
		}
	}
	return out
}
