package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func parseYAML(data []byte, m *Manifest, env ConfigEnv) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return buildFromMap(raw, m, env)
}
