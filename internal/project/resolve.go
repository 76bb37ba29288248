package project

import (
	"context"
	"fmt"
	"runtime"

	"github.com/qobs-build/qgen/internal/field"
	"golang.org/x/sync/errgroup"
)

// Resolve merges every block that applies to t along the chain from the
// root down to s. Blocks are visited root scope first and in declaration
// order, so later and more specific values come last.
func Resolve(s *Scope, t Target) (*Resolved, error) {
	var applicable []*Block
	for _, sc := range s.Chain() {
		for _, b := range sc.blocks {
			if !b.Applies(t) {
				continue
			}
			if err := b.validate(); err != nil {
				return nil, fmt.Errorf("resolve %s for %s: %w", s.Path(), t, err)
			}
			applicable = append(applicable, b)
		}
	}

	res := &Resolved{target: t}
	for _, d := range field.All() {
		var seq []field.Value
		for _, b := range applicable {
			if v, ok := b.values[d.ID]; ok {
				seq = append(seq, v)
			}
		}
		if len(seq) == 0 {
			continue
		}
		res.values[d.ID] = merge(d, seq)
		res.set[d.ID] = true
	}
	return res, nil
}

func merge(d field.Descriptor, seq []field.Value) field.Value {
	if d.Policy == field.Override {
		return seq[len(seq)-1]
	}

	var items []string
	var seen map[string]bool
	if !d.KeepDuplicates {
		seen = make(map[string]bool)
	}
	for _, v := range seq {
		for _, item := range v.Strings() {
			if seen != nil {
				if seen[item] {
					continue
				}
				seen[item] = true
			}
			items = append(items, item)
		}
	}
	return field.List(items...)
}

// Request is one (scope, target) pair for ResolveAll
type Request struct {
	Scope  *Scope
	Target Target
}

// ResolveAll resolves many pairs in parallel. The tree must not be modified
// while this runs. Results are returned in request order; the first error
// cancels the remaining work.
func ResolveAll(ctx context.Context, reqs []Request, jobs int) ([]*Resolved, error) {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	out := make([]*Resolved, len(reqs))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(jobs)

	for i, req := range reqs {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := Resolve(req.Scope, req.Target)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
