// qgen resolve [project]
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml/v2"
	"github.com/qobs-build/qgen/internal/field"
	"github.com/qobs-build/qgen/internal/project"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type resolveFlags struct {
	configuration string
	platform      string
	action        string
	format        EnumValue
}

func newResolveCmd(c *cli) *cobra.Command {
	f := &resolveFlags{
		format: NewEnumValue("text", map[string]string{
			"text": "One field per line (default)",
			"toml": "A TOML table",
			"yaml": "A YAML mapping",
		}),
	}

	cmd := &cobra.Command{
		Use:   "resolve [project]",
		Short: "Print the configuration a project gets for one target",
		Long: `Print the merged configuration of a project, or of the solution when no
project is given, for one configuration/platform pair.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runResolve(cmd, args, f)
		},
	}
	cmd.Flags().StringVarP(&f.configuration, "config", "c", "", "Configuration (default: the first one)")
	cmd.Flags().StringVarP(&f.platform, "platform", "p", "", "Platform (default: the first one)")
	cmd.Flags().StringVarP(&f.action, "action", "a", "", "Resolve as if generating for this action")
	cmd.Flags().Var(&f.format, "format", "Output format, one of "+f.format.HelpString())
	cmd.RegisterFlagCompletionFunc("format", f.format.CompletionFunc())
	return cmd
}

func (c *cli) runResolve(cmd *cobra.Command, args []string, f *resolveFlags) error {
	m, env, err := c.loadManifest()
	if err != nil {
		return err
	}

	scope := m.Solution
	if len(args) > 0 {
		prj, ok := m.Solution.Child(args[0])
		if !ok {
			return fmt.Errorf("solution %q has no project %q", m.Solution.Name(), args[0])
		}
		scope = prj
	}

	cfg := f.configuration
	if cfg == "" {
		cfg = m.Configurations[0]
	}
	plat := f.platform
	if plat == "" && len(m.Platforms) > 0 {
		plat = m.Platforms[0]
	}
	if f.action != "" {
		if _, err := c.registry.Lookup(f.action); err != nil {
			return err
		}
	}

	t := project.NewTarget(cfg, plat).
		With(project.DimAction, f.action).
		With(project.DimOS, env.TargetOS)
	res, err := project.Resolve(scope, t)
	if err != nil {
		return err
	}
	return writeResolved(cmd.OutOrStdout(), scope.Path(), res, f.format.Value())
}

func resolvedDoc(res *project.Resolved) map[string]any {
	doc := make(map[string]any)
	for _, id := range res.Fields() {
		v, _ := res.Value(id)
		if v.Kind() == field.ListKind {
			doc[id.String()] = v.Strings()
		} else {
			doc[id.String()] = v.String()
		}
	}
	return doc
}

func writeResolved(w io.Writer, path string, res *project.Resolved, format string) error {
	switch format {
	case "toml":
		data, err := toml.Marshal(resolvedDoc(res))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resolvedDoc(res)); err != nil {
			return err
		}
		return enc.Close()
	default:
		fmt.Fprintf(w, "%s %s\n", color.HiCyanString(path), res.Target())
		for _, id := range res.Fields() {
			v, _ := res.Value(id)
			if v.Kind() == field.ListKind {
				fmt.Fprintf(w, "  %-12s = [%s]\n", id, strings.Join(v.Strings(), ", "))
			} else {
				fmt.Fprintf(w, "  %-12s = %s\n", id, v.String())
			}
		}
		return nil
	}
}
