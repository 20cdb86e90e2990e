package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

const (
	envPrefix = "COBBLE_"

	outputText = "text"
	outputJSON = "json"

	logFormatConsole = "console"
	logFormatJSON    = "json"

	// settingsFlag names the flag that points to the settings file, it is
	// never loaded as a setting itself.
	settingsFlag = "settings"
)

var settingsFiles = []string{"cobble.yaml", "cobble.yml"}

// Settings configure the command line tool, not the documents it resolves.
type Settings struct {
	LogLevel    string        `koanf:"log_level"`
	LogFormat   string        `koanf:"log_format"`
	Timeout     time.Duration `koanf:"timeout"`
	HTTPTimeout time.Duration `koanf:"http_timeout"`
	Output      string        `koanf:"output"`
	MetricsAddr string        `koanf:"metrics_addr"`
}

func defaultSettings() map[string]interface{} {
	return map[string]interface{}{
		"log_level":    "info",
		"log_format":   logFormatConsole,
		"timeout":      30 * time.Second,
		"http_timeout": 10 * time.Second,
		"output":       outputText,
		"metrics_addr": ":9090",
	}
}

// findSettingsFile returns the explicit path or the first settings file found
// in the working directory.
func findSettingsFile(explicit string) string {
	if explicit != "" {
		return explicit
	}

	for _, name := range settingsFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}

	return ""
}

// loadSettings layers defaults < settings file < COBBLE_* env < explicitly set flags.
func loadSettings(path string, flags *pflag.FlagSet) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultSettings(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if used := findSettingsFile(path); used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading settings file %s: %w", used, err)
		}
	}

	// COBBLE_LOG_LEVEL -> log_level
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == settingsFlag {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var s Settings
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("unable to decode settings: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

func (s *Settings) validate() error {
	switch s.Output {
	case outputText, outputJSON:
	default:
		return fmt.Errorf("invalid output %q: expected %s or %s", s.Output, outputText, outputJSON)
	}

	switch s.LogFormat {
	case logFormatConsole, logFormatJSON:
	default:
		return fmt.Errorf("invalid log format %q: expected %s or %s", s.LogFormat, logFormatConsole, logFormatJSON)
	}

	if s.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", s.Timeout)
	}

	if s.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout must not be negative, got %s", s.HTTPTimeout)
	}

	return nil
}

// newLogger writes JSON lines, or human readable lines for the console
// format. Unknown levels fall back to info.
func newLogger(w io.Writer, s *Settings) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(s.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if s.LogFormat == logFormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
