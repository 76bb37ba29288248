package manifest

import (
	"bytes"
	"errors"

	"github.com/pelletier/go-toml/v2"
)

func parseTOML(data []byte, m *Manifest, env ConfigEnv) error {
	var raw map[string]any
	dec := toml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		if derr, ok := err.(*toml.DecodeError); ok {
			return errors.New(derr.String())
		}
		return err
	}
	return buildFromMap(raw, m, env)
}
