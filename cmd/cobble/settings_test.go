package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	flags := newRootCmd().PersistentFlags()
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := loadSettings("", nil)

	require.NoError(t, err)
	assert.Equal(t, &Settings{
		LogLevel:    "info",
		LogFormat:   logFormatConsole,
		Timeout:     30 * time.Second,
		HTTPTimeout: 10 * time.Second,
		Output:      outputText,
		MetricsAddr: ":9090",
	}, s)
}

func TestLoadSettingsPrecedence(t *testing.T) {
	path := writeFile(t, t.TempDir(), "cobble.yaml", `
log_level: debug
timeout: 1m
http_timeout: 2s
output: json
metrics_addr: ":7000"
`)

	t.Run("file", func(t *testing.T) {
		s, err := loadSettings(path, nil)

		require.NoError(t, err)
		assert.Equal(t, "debug", s.LogLevel)
		assert.Equal(t, time.Minute, s.Timeout)
		assert.Equal(t, 2*time.Second, s.HTTPTimeout)
		assert.Equal(t, outputJSON, s.Output)
		assert.Equal(t, ":7000", s.MetricsAddr)
		assert.Equal(t, logFormatConsole, s.LogFormat)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("COBBLE_LOG_LEVEL", "warn")
		t.Setenv("COBBLE_TIMEOUT", "5s")

		s, err := loadSettings(path, nil)

		require.NoError(t, err)
		assert.Equal(t, "warn", s.LogLevel)
		assert.Equal(t, 5*time.Second, s.Timeout)
		assert.Equal(t, ":7000", s.MetricsAddr)
	})

	t.Run("flags over env", func(t *testing.T) {
		t.Setenv("COBBLE_LOG_LEVEL", "warn")
		t.Setenv("COBBLE_OUTPUT", "json")

		flags := testFlags(t, "--log-level", "error", "--http-timeout", "3s", "-o", "text")
		s, err := loadSettings(path, flags)

		require.NoError(t, err)
		assert.Equal(t, "error", s.LogLevel)
		assert.Equal(t, 3*time.Second, s.HTTPTimeout)
		assert.Equal(t, outputText, s.Output)
		// unset flags do not shadow lower layers
		assert.Equal(t, time.Minute, s.Timeout)
		assert.Equal(t, ":7000", s.MetricsAddr)
	})
}

func TestLoadSettingsErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		path    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing file",
			path:    filepath.Join(dir, "missing.yaml"),
			wantErr: "error reading settings file",
		},
		{
			name:    "bad output",
			args:    []string{"-o", "xml"},
			wantErr: `invalid output "xml"`,
		},
		{
			name:    "bad log format",
			args:    []string{"--log-format", "logfmt"},
			wantErr: `invalid log format "logfmt"`,
		},
		{
			name:    "zero timeout",
			path:    writeFile(t, dir, "zero.yaml", "timeout: 0s\n"),
			wantErr: "timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadSettings(tt.path, testFlags(t, tt.args...))

			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := newLogger(&buf, &Settings{LogLevel: "warn", LogFormat: logFormatJSON})
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Contains(t, buf.String(), `"time":`)
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	fallback := newLogger(&buf, &Settings{LogLevel: "loud", LogFormat: logFormatConsole})
	assert.Equal(t, zerolog.InfoLevel, fallback.GetLevel())
}
