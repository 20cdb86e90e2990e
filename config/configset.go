package config

import "github.com/buildbuildio/cobble/descriptor"

// Extensions are the resources resolved out of a Config
type Extensions struct {
	Descriptors descriptor.Set `json:"descriptors,omitempty"`
}

// ConfigSet is a Config together with its resolved extensions. After
// resolution every script is inline and every referenced proto path has a
// descriptor along with its transitive imports.
type ConfigSet struct {
	Config     *Config    `json:"config"`
	Extensions Extensions `json:"extensions"`
}

// NewConfigSet wraps cfg with empty extensions
func NewConfigSet(cfg *Config) *ConfigSet {
	if cfg == nil {
		cfg = &Config{}
	}
	return &ConfigSet{Config: cfg}
}
