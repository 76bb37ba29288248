package project

import (
	"maps"
	"slices"
	"strings"
)

// Well-known target dimensions
const (
	DimConfiguration = "configuration"
	DimPlatform      = "platform"
	DimAction        = "action"
	DimLanguage      = "language"
	DimOS            = "os"
)

// Target is the (configuration, platform, ...) tuple blocks are evaluated
// against. It is immutable; With returns a modified copy.
type Target struct {
	dims map[string]string
}

// NewTarget creates a target with the configuration and platform
// dimensions. Empty values are left out.
func NewTarget(configuration, platform string) Target {
	return Target{}.With(DimConfiguration, configuration).With(DimPlatform, platform)
}

// With returns a copy of t with dimension dim set to value. An empty value
// removes the dimension.
func (t Target) With(dim, value string) Target {
	dims := maps.Clone(t.dims)
	if dims == nil {
		dims = make(map[string]string, 2)
	}
	dim = strings.ToLower(dim)
	if value == "" {
		delete(dims, dim)
	} else {
		dims[dim] = value
	}
	return Target{dims: dims}
}

func (t Target) Get(dim string) (string, bool) {
	v, ok := t.dims[strings.ToLower(dim)]
	return v, ok
}

func (t Target) Configuration() string { return t.dims[DimConfiguration] }
func (t Target) Platform() string      { return t.dims[DimPlatform] }

// Dimensions returns the dimension names in sorted order
func (t Target) Dimensions() []string {
	return slices.Sorted(maps.Keys(t.dims))
}

// Equal reports whether both targets carry the same dimensions
func (t Target) Equal(o Target) bool {
	return maps.Equal(t.dims, o.dims)
}

// String renders the target as `Configuration|Platform`
func (t Target) String() string {
	cfg, plat := t.Configuration(), t.Platform()
	if plat == "" {
		return cfg
	}
	return cfg + "|" + plat
}
