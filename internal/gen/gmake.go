package gen

import (
	"path"
	"slices"
	"strings"

	"github.com/qobs-build/qgen/internal/action"
	"github.com/qobs-build/qgen/internal/field"
	"github.com/qobs-build/qgen/internal/project"
)

// generateGmake writes a solution Makefile that drives one <project>.make
// per project. `make config=release_x64` picks the target.
func generateGmake(sln *action.Solution, out *action.Output) error {
	if err := out.WriteString("Makefile", gmakeSolution(sln)); err != nil {
		return err
	}
	r := newRelocator(sln, out)
	for _, prj := range sln.Projects {
		if err := out.WriteString(prj.Name+".make", gmakeProject(sln, prj, r)); err != nil {
			return err
		}
	}
	return nil
}

func gmakeDefaultConfig(sb *strings.Builder, sln *action.Solution) {
	writeln(sb, "ifndef config")
	writeln(sb, "  config=", configKey(sln.Targets[0]))
	writeln(sb, "endif")
}

func gmakeSolution(sln *action.Solution) string {
	var sb strings.Builder

	writeln(&sb, "# GNU Make solution makefile generated by qgen")
	writeln(&sb, `# Type "make help" for usage help`)
	writeln(&sb)
	gmakeDefaultConfig(&sb, sln)
	writeln(&sb, "export config")
	writeln(&sb)

	names := make([]string, len(sln.Projects))
	for i, prj := range sln.Projects {
		names[i] = prj.Name
	}
	writeln(&sb, "PROJECTS := ", strings.Join(names, " "))
	writeln(&sb)
	writeln(&sb, ".PHONY: all clean help $(PROJECTS)")
	writeln(&sb)
	writeln(&sb, "all: $(PROJECTS)")
	writeln(&sb)

	for _, prj := range sln.Projects {
		write(&sb, prj.Name, ":")
		for _, dep := range projectDeps(sln, prj) {
			write(&sb, " ", dep)
		}
		writeln(&sb)
		writeln(&sb, `	@echo "==== Building `, prj.Name, ` ($(config)) ===="`)
		writeln(&sb, "	@${MAKE} --no-print-directory -f ", prj.Name, ".make")
		writeln(&sb)
	}

	writeln(&sb, "clean:")
	for _, prj := range sln.Projects {
		writeln(&sb, "	@${MAKE} --no-print-directory -f ", prj.Name, ".make clean")
	}
	writeln(&sb)

	writeln(&sb, "help:")
	writeln(&sb, `	@echo "Usage: make [config=name] [target]"`)
	writeln(&sb, `	@echo ""`)
	writeln(&sb, `	@echo "CONFIGURATIONS:"`)
	for _, t := range sln.Targets {
		writeln(&sb, `	@echo "   `, configKey(t), `"`)
	}
	writeln(&sb, `	@echo ""`)
	writeln(&sb, `	@echo "TARGETS:"`)
	writeln(&sb, `	@echo "   all (default)"`)
	writeln(&sb, `	@echo "   clean"`)
	for _, prj := range sln.Projects {
		writeln(&sb, `	@echo "   `, prj.Name, `"`)
	}
	return sb.String()
}

func gmakeProject(sln *action.Solution, prj *action.Project, r relocator) string {
	var sb strings.Builder

	writeln(&sb, "# GNU Make project makefile generated by qgen")
	writeln(&sb)
	gmakeDefaultConfig(&sb, sln)
	writeln(&sb)
	writeln(&sb, "ifndef verbose")
	writeln(&sb, "  SILENT = @")
	writeln(&sb, "endif")
	writeln(&sb)

	for i, cfg := range prj.Configs {
		gmakeConfig(&sb, sln, i, prj.Name, cfg, r)
	}

	writeln(&sb, ".PHONY: clean")
	writeln(&sb)
	writeln(&sb, "all: $(TARGET)")
	writeln(&sb, "	@:")
	writeln(&sb)
	writeln(&sb, "$(TARGET): $(OBJECTS) $(LDDEPS)")
	writeln(&sb, "	@echo Linking ", prj.Name)
	writeln(&sb, "	@mkdir -p $(TARGETDIR)")
	writeln(&sb, "	$(SILENT) $(LINKCMD)")
	writeln(&sb)
	writeln(&sb, "clean:")
	writeln(&sb, "	@echo Cleaning ", prj.Name)
	writeln(&sb, "	$(SILENT) rm -f $(TARGET)")
	writeln(&sb, "	$(SILENT) rm -rf $(OBJDIR)")
	writeln(&sb)
	writeln(&sb, "-include $(OBJECTS:%.o=%.d)")

	for _, src := range sourceUnion(prj) {
		sk := sourceKindOf(src)
		if sk == notSource {
			continue
		}
		writeln(&sb)
		writeln(&sb, "$(OBJDIR)/", objectName(src), ".o: ", r.rel(src))
		writeln(&sb, "	@echo $(notdir $<)")
		writeln(&sb, "	@mkdir -p $(@D)")
		if sk == cSource {
			writeln(&sb, `	$(SILENT) $(CC) $(CFLAGS) -o "$@" -MF $(@:%.o=%.d) -c "$<"`)
		} else {
			writeln(&sb, `	$(SILENT) $(CXX) $(CXXFLAGS) -o "$@" -MF $(@:%.o=%.d) -c "$<"`)
		}
	}
	return sb.String()
}

func gmakeConfig(sb *strings.Builder, sln *action.Solution, i int, name string, cfg *project.Resolved, r relocator) {
	t := sln.Targets[i]
	k := kindOf(name, cfg)
	targetOS := osOf(cfg)
	fs := flagsOf(cfg)

	cflags := gccFlags(fs)
	ldflags := prefixed("-L", r.all(cfg.List(field.LibDirs)))
	if k == sharedLib {
		if targetOS != "windows" {
			cflags = append(cflags, "-fPIC")
		}
		ldflags = append(ldflags, "-shared")
	}
	if k == windowedApp && targetOS == "windows" {
		ldflags = append(ldflags, "-mwindows")
	}
	if !fs.has(flagSymbols) {
		ldflags = append(ldflags, "-s")
	}
	cflags = append(cflags, cfg.List(field.BuildOptions)...)
	ldflags = append(ldflags, cfg.List(field.LinkOptions)...)

	deps, libs := splitLinks(sln, i, name, cfg)
	var libFiles []string
	for _, d := range deps {
		dk := kindOf(d.name, d.cfg)
		if !dk.isLib() {
			continue
		}
		libFiles = append(libFiles, path.Join(r.rel(targetDir(d.cfg)), outputName(d.name, d.cfg, dk, osOf(d.cfg))))
	}

	writeln(sb, "ifeq ($(config),", configKey(t), ")")
	writeln(sb, "  OBJDIR     = ", path.Join(r.rel(cfg.Scalar(field.ObjDir)), configDir(t), name))
	writeln(sb, "  TARGETDIR  = ", r.rel(targetDir(cfg)))
	writeln(sb, "  TARGET     = $(TARGETDIR)/", outputName(name, cfg, k, targetOS))
	writeln(sb, "  DEFINES   +=", joinLeading(prefixed("-D", cfg.List(field.Defines))))
	writeln(sb, "  INCLUDES  +=", joinLeading(prefixed("-I", r.all(cfg.List(field.IncludeDirs)))))
	writeln(sb, "  CPPFLAGS  += -MMD -MP $(DEFINES) $(INCLUDES)")
	writeln(sb, "  CFLAGS    += $(CPPFLAGS)", joinLeading(cflags))
	writeln(sb, "  CXXFLAGS  += $(CFLAGS)")
	writeln(sb, "  LDFLAGS   +=", joinLeading(ldflags))
	writeln(sb, "  LIBS      +=", joinLeading(slices.Concat(libFiles, prefixed("-l", libs))))
	writeln(sb, "  LDDEPS    +=", joinLeading(libFiles))

	linker := "$(CXX)"
	if isC(cfg) {
		linker = "$(CC)"
	}
	if k == staticLib {
		writeln(sb, "  LINKCMD    = $(AR) -rcs $(TARGET) $(OBJECTS)")
	} else {
		writeln(sb, "  LINKCMD    = ", linker, " -o $(TARGET) $(OBJECTS) $(LDFLAGS) $(LIBS)")
	}

	writeln(sb, "  OBJECTS   := \\")
	for _, src := range cfg.List(field.Files) {
		if sourceKindOf(src) != notSource {
			writeln(sb, "	$(OBJDIR)/", objectName(src), ".o \\")
		}
	}
	writeln(sb)
	writeln(sb, "endif")
	writeln(sb)
}

// joinLeading joins items with a leading space, so empty lists leave the
// assignment bare
func joinLeading(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return " " + strings.Join(items, " ")
}
