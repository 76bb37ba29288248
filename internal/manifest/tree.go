package manifest

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/qobs-build/qgen/internal/field"
	"github.com/qobs-build/qgen/internal/project"
)

// structural keys; everything else in a scope or block table is a field
const (
	keySolution       = "solution"
	keyProject        = "project"
	keyName           = "name"
	keyConfigurations = "configurations"
	keyPlatforms      = "platforms"
	keyLocation       = "location"
	keyConfiguration  = "configuration"
	keyTerms          = "terms"
	keyWhen           = "when"
)

var (
	solutionKeys = set(keyName, keyConfigurations, keyPlatforms, keyLocation, keyConfiguration, keyProject)
	projectKeys  = set(keyName, keyConfiguration)
	blockKeys    = set(keyTerms, keyWhen)
)

func set(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// buildFromMap builds the scope tree from a decoded TOML/YAML document
func buildFromMap(raw map[string]any, m *Manifest, env ConfigEnv) error {
	processed, err := processExpressions(raw, env)
	if err != nil {
		return fmt.Errorf("error processing expressions in manifest: %w", err)
	}
	raw = processed.(map[string]any)

	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if key != keySolution && key != keyProject {
			return fmt.Errorf("unexpected top-level key %q (want %q or %q)", key, keySolution, keyProject)
		}
	}

	slnData, ok := raw[keySolution]
	if !ok {
		return errors.New("missing [solution] section")
	}
	slnTable, ok := slnData.(map[string]any)
	if !ok {
		return errors.New("invalid [solution] section format: expected a table")
	}

	name, err := stringAt(slnTable, keyName)
	if err != nil {
		return fmt.Errorf("solution: %w", err)
	}
	sln, err := m.attachSolution(name)
	if err != nil {
		return err
	}
	if m.Configurations, err = stringsAt(slnTable, keyConfigurations); err != nil {
		return fmt.Errorf("solution %q: %w", name, err)
	}
	if m.Platforms, err = stringsAt(slnTable, keyPlatforms); err != nil {
		return fmt.Errorf("solution %q: %w", name, err)
	}
	if _, ok := slnTable[keyLocation]; ok {
		if m.Location, err = stringAt(slnTable, keyLocation); err != nil {
			return fmt.Errorf("solution %q: %w", name, err)
		}
	}
	if err := m.loadScope(sln, slnTable, solutionKeys, env); err != nil {
		return err
	}

	// projects may live at the top level or inside the solution table
	projects, err := tablesAt(raw, keyProject)
	if err != nil {
		return err
	}
	nested, err := tablesAt(slnTable, keyProject)
	if err != nil {
		return err
	}
	for _, table := range append(projects, nested...) {
		name, err := stringAt(table, keyName)
		if err != nil {
			return fmt.Errorf("project: %w", err)
		}
		prj, err := m.attachProject(name)
		if err != nil {
			return err
		}
		if err := m.loadScope(prj, table, projectKeys, env); err != nil {
			return err
		}
	}
	return nil
}

// loadScope adds the unconditional block made of the scope's own field keys,
// then one block per `configuration` entry in declaration order
func (m *Manifest) loadScope(sc *project.Scope, table map[string]any, reserved map[string]bool, env ConfigEnv) error {
	where := fmt.Sprintf("%s %q", sc.Kind(), sc.Name())

	base := project.NewBlock()
	if err := m.fillBlock(base, where, table, reserved); err != nil {
		return err
	}
	if len(base.Fields()) > 0 {
		if err := sc.AddBlock(base); err != nil {
			return err
		}
	}

	configs, err := tablesAt(table, keyConfiguration)
	if err != nil {
		return fmt.Errorf("%s: %w", where, err)
	}
	for i, cfg := range configs {
		cfgWhere := fmt.Sprintf("%s configuration #%d", where, i+1)

		if guard, ok := cfg[keyWhen]; ok {
			expression, ok := guard.(string)
			if !ok {
				return fmt.Errorf("%s: %q must be a string expression", cfgWhere, keyWhen)
			}
			matched, err := evalGuard(expression, env)
			if err != nil {
				return fmt.Errorf("%s: %w", cfgWhere, err)
			}
			if !matched {
				continue
			}
		}

		terms, err := stringsAt(cfg, keyTerms)
		if err != nil {
			return fmt.Errorf("%s: %w", cfgWhere, err)
		}
		b := project.NewBlock(terms...)
		if err := m.fillBlock(b, cfgWhere, cfg, blockKeys); err != nil {
			return err
		}
		if err := sc.AddBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// fillBlock sets every non-reserved key of table as a field on b
func (m *Manifest) fillBlock(b *project.Block, where string, table map[string]any, reserved map[string]bool) error {
	for _, key := range slices.Sorted(maps.Keys(table)) {
		if reserved[key] {
			continue
		}
		id, err := field.Lookup(key)
		if err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		v, err := toValue(table[key])
		if err != nil {
			return fmt.Errorf("%s: field %q: %w", where, key, err)
		}
		if err := m.setField(b, id, v); err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
	}
	return nil
}

// toValue converts a decoded TOML/YAML value into a field value
func toValue(raw any) (field.Value, error) {
	switch v := raw.(type) {
	case string:
		return field.Scalar(v), nil
	case []string:
		return field.List(v...), nil
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, err := scalarString(item)
			if err != nil {
				return field.Value{}, err
			}
			items = append(items, s)
		}
		return field.List(items...), nil
	default:
		s, err := scalarString(raw)
		if err != nil {
			return field.Value{}, err
		}
		return field.Scalar(s), nil
	}
}

func scalarString(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case int, int64, uint64, float64, bool:
		return fmt.Sprint(v), nil
	default:
		return "", fmt.Errorf("unexpected type: %T", raw)
	}
}

func stringAt(table map[string]any, key string) (string, error) {
	v, ok := table[key]
	if !ok {
		return "", fmt.Errorf("missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%q must be a string, got %T", key, v)
	}
	return s, nil
}

// stringsAt reads a list of strings; a single string counts as one item
func stringsAt(table map[string]any, key string) ([]string, error) {
	v, ok := table[key]
	if !ok {
		return nil, nil
	}
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%q must only contain strings, got %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%q must be a list of strings, got %T", key, v)
	}
}

// tablesAt reads an array of tables; a single table counts as one entry
func tablesAt(table map[string]any, key string) ([]map[string]any, error) {
	v, ok := table[key]
	if !ok {
		return nil, nil
	}
	switch v := v.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []map[string]any:
		return v, nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for _, item := range v {
			t, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%q entries must be tables, got %T", key, item)
			}
			out = append(out, t)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%q must be a table or an array of tables, got %T", key, v)
	}
}
