package config

import "errors"

var errScriptVariant = errors.New("script must set exactly one of path or inline")

type ScriptOptions struct {
	Src     string    `json:"src" yaml:"src"`
	Timeout *Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Script is either a reference to a script file or its inlined source.
// Resolution replaces every path script by an inline one.
type Script struct {
	Path   *ScriptOptions `json:"path,omitempty" yaml:"path,omitempty"`
	Inline *ScriptOptions `json:"inline,omitempty" yaml:"inline,omitempty"`
}

func PathScript(src string, timeout *Duration) *Script {
	return &Script{Path: &ScriptOptions{Src: src, Timeout: timeout}}
}

func InlineScript(code string, timeout *Duration) *Script {
	return &Script{Inline: &ScriptOptions{Src: code, Timeout: timeout}}
}

func (s *Script) IsInline() bool {
	return s != nil && s.Inline != nil
}

// Options returns whichever variant is set
func (s *Script) Options() *ScriptOptions {
	if s.Inline != nil {
		return s.Inline
	}
	return s.Path
}

func (s *Script) validate() error {
	if (s.Path == nil) == (s.Inline == nil) {
		return errScriptVariant
	}
	return nil
}
