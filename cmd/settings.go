package cmd

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Settings are defaults taken from the environment. Command-line flags
// override them.
type Settings struct {
	// Jobs bounds the resolver worker pool; 0 means one worker per CPU
	Jobs    int    `envconfig:"JOBS" default:"0"`
	Out     string `envconfig:"OUT"`
	Verbose bool   `envconfig:"VERBOSE" default:"false"`
	// OS is the target operating system; empty means the host's
	OS string `envconfig:"OS"`
}

// LoadSettings reads QGEN_JOBS, QGEN_OUT, QGEN_VERBOSE and QGEN_OS
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process("qgen", &s); err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	if s.Jobs < 0 {
		return Settings{}, fmt.Errorf("QGEN_JOBS must not be negative, got %d", s.Jobs)
	}
	return s, nil
}
