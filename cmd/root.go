// qgen <action>
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/qobs-build/qgen/internal/action"
	"github.com/qobs-build/qgen/internal/gen"
	"github.com/qobs-build/qgen/internal/manifest"
	"github.com/qobs-build/qgen/internal/msg"
	"github.com/spf13/cobra"
)

// ErrStale is returned by --check when generated files are out of date
var ErrStale = errors.New("generated files are out of date")

// cli holds the flags shared by every command
type cli struct {
	registry *action.Registry

	file     string
	targetOS string
	verbose  bool
	jobs     int

	// root command only
	out   string
	check bool
}

// NewRootCmd builds the command tree around reg. Flag defaults come from s.
func NewRootCmd(reg *action.Registry, s Settings) *cobra.Command {
	c := &cli{registry: reg}

	rootCmd := &cobra.Command{
		Use:   "qgen <action>",
		Short: "Build configuration generator",
		Long: `qgen reads a qgen.toml, qgen.hcl or qgen.yaml description of a solution
and writes project files for the build tool named by <action>.
Run "qgen list" to see the available actions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var items []string
			for _, a := range reg.All() {
				items = append(items, a.Name+"\t"+a.Description)
			}
			return items, cobra.ShellCompDirectiveNoFileComp
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			msg.SetVerbose(c.verbose)
		},
		RunE: c.runAction,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&c.file, "file", "f", "", "Manifest to read (default: qgen.toml, qgen.hcl or qgen.yaml in the current directory)")
	pf.StringVar(&c.targetOS, "os", s.OS, "Target operating system (default: the host's)")
	pf.BoolVarP(&c.verbose, "verbose", "v", s.Verbose, "Print debug output")
	pf.IntVarP(&c.jobs, "jobs", "j", s.Jobs, "Resolver workers, 0 for one per CPU")

	rootCmd.Flags().StringVarP(&c.out, "out", "o", s.Out, "Write generated files here instead of the solution location")
	rootCmd.Flags().BoolVar(&c.check, "check", false, "Report out-of-date files instead of writing them")

	rootCmd.AddCommand(
		newListCmd(c),
		newFieldsCmd(),
		newResolveCmd(c),
		newInitCmd(),
	)
	return rootCmd
}

// loadManifest finds and parses the manifest named by --file
func (c *cli) loadManifest() (*manifest.Manifest, manifest.ConfigEnv, error) {
	path := c.file
	if path == "" {
		found, err := manifest.Find(".")
		if err != nil {
			return nil, manifest.ConfigEnv{}, err
		}
		path = found
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, manifest.ConfigEnv{}, err
	}

	env := manifest.NewConfigEnv(filepath.Dir(abs), c.targetOS)
	msg.Debug("loading %s for %s/%s", abs, env.TargetOS, env.TargetArch)
	m, err := manifest.LoadFile(abs, env)
	if err != nil {
		return nil, manifest.ConfigEnv{}, err
	}
	return m, env, nil
}

func (c *cli) runAction(cmd *cobra.Command, args []string) error {
	act, err := c.registry.Lookup(args[0])
	if err != nil {
		return fmt.Errorf("%w (see `%s list`)", err, getProgramName())
	}

	m, env, err := c.loadManifest()
	if err != nil {
		return err
	}

	outDir := m.OutputDir()
	if c.out != "" {
		if outDir, err = filepath.Abs(c.out); err != nil {
			return err
		}
	}

	start := time.Now()
	sln, err := action.NewSolution(cmd.Context(), m.Solution, m.Targets(), action.Options{
		Action:  act.Name,
		OS:      env.TargetOS,
		BaseDir: m.Dir,
		Jobs:    c.jobs,
	})
	if err != nil {
		return err
	}
	msg.Debug("resolved %d projects for %d targets in %v", len(sln.Projects), len(sln.Targets), time.Since(start))

	out := action.NewOutput(outDir, c.check)
	if err := act.Generate(sln, out); err != nil {
		return fmt.Errorf("%s: %w", act.Name, err)
	}

	if c.check {
		return reportStale(cmd, out)
	}
	for _, name := range out.Written() {
		msg.Debug("wrote %s", out.Path(name))
	}
	msg.Info("%s: %d written, %d unchanged in %s (%v)",
		act.Name, len(out.Written()), len(out.Unchanged()), outDir, time.Since(start).Round(time.Millisecond))
	return nil
}

func reportStale(cmd *cobra.Command, out *action.Output) error {
	stale := out.Stale()
	if len(stale) == 0 {
		msg.Info("%d files up to date", len(out.Unchanged()))
		return nil
	}

	w := cmd.OutOrStdout()
	for _, name := range stale {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("stale"), out.Path(name))
		diff := &msg.IndentWriter{Indent: "    ", W: w}
		fmt.Fprint(diff, out.Diff(name))
	}
	return fmt.Errorf("%w: %d of %d files", ErrStale, len(stale), len(stale)+len(out.Unchanged()))
}

// Execute runs qgen with the built-in actions
func Execute() {
	reg := action.NewRegistry()
	if err := gen.Register(reg); err != nil {
		msg.Fatal("%v", err)
	}
	settings, err := LoadSettings()
	if err != nil {
		msg.Fatal("%v", err)
	}
	if err := NewRootCmd(reg, settings).Execute(); err != nil {
		msg.Fatal("%v", err)
	}
}
