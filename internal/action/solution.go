package action

import (
	"context"
	"fmt"

	"github.com/qobs-build/qgen/internal/project"
)

// Solution is the resolved view of a solution scope handed to generators.
// Configs and every Project.Configs are aligned with Targets.
type Solution struct {
	Name string
	// BaseDir is the directory relative paths in the configuration refer to
	BaseDir  string
	Targets  []project.Target
	Configs  []*project.Resolved
	Projects []*Project
}

// Project is one project of a Solution, resolved once per target
type Project struct {
	Name    string
	Configs []*project.Resolved
}

// Options controls how NewSolution resolves the tree
type Options struct {
	// Action and OS are added to every target as the `action` and `os`
	// dimensions
	Action  string
	OS      string
	BaseDir string
	// Jobs limits the resolver worker pool; 0 means one per CPU
	Jobs int
}

// NewSolution resolves sln and each of its projects for every target
func NewSolution(ctx context.Context, sln *project.Scope, targets []project.Target, opts Options) (*Solution, error) {
	if sln.Kind() != project.SolutionScope {
		return nil, fmt.Errorf("scope %q is a %s, not a solution", sln.Name(), sln.Kind())
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("solution %q has no configurations", sln.Name())
	}

	out := &Solution{
		Name:    sln.Name(),
		BaseDir: opts.BaseDir,
		Targets: make([]project.Target, len(targets)),
	}
	for i, t := range targets {
		if opts.Action != "" {
			t = t.With(project.DimAction, opts.Action)
		}
		if opts.OS != "" {
			t = t.With(project.DimOS, opts.OS)
		}
		out.Targets[i] = t
	}

	scopes := []*project.Scope{sln}
	for _, child := range sln.Children() {
		if child.Kind() == project.ProjectScope {
			scopes = append(scopes, child)
		}
	}

	reqs := make([]project.Request, 0, len(scopes)*len(targets))
	for _, sc := range scopes {
		for _, t := range out.Targets {
			reqs = append(reqs, project.Request{Scope: sc, Target: t})
		}
	}

	results, err := project.ResolveAll(ctx, reqs, opts.Jobs)
	if err != nil {
		return nil, err
	}

	n := len(out.Targets)
	out.Configs = results[:n]
	for i, sc := range scopes[1:] {
		start := (i + 1) * n
		out.Projects = append(out.Projects, &Project{
			Name:    sc.Name(),
			Configs: results[start : start+n],
		})
	}
	return out, nil
}

// Project returns the project called name
func (s *Solution) Project(name string) (*Project, bool) {
	for _, p := range s.Projects {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// Configurations returns the distinct configuration names in target order
func (s *Solution) Configurations() []string {
	return s.distinct(project.Target.Configuration)
}

// Platforms returns the distinct platform names in target order
func (s *Solution) Platforms() []string {
	return s.distinct(project.Target.Platform)
}

func (s *Solution) distinct(get func(project.Target) string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range s.Targets {
		v := get(t)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
