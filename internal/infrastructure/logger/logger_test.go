package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigForEnvironment(t *testing.T) {
	dev := ConfigForEnvironment("development")
	assert.Equal(t, "info", dev.Level)
	assert.Equal(t, "console", dev.Format)
	assert.Equal(t, "stdout", dev.Output)

	prod := ConfigForEnvironment("production")
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, DefaultTimeFormat, prod.TimeFormat)
	assert.Equal(t, "production", prod.Env)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"development", ConfigForEnvironment("development")},
		{"production", ConfigForEnvironment("production")},
		{"stderr debug", &Config{Level: "debug", Format: "console", Output: "stderr"}},
		{"empty output", &Config{Level: "warn", Format: "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNew_StampsServiceFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)

	l, err := New(&Config{
		Level:   "error",
		Format:  "json",
		Output:  "stderr",
		Service: "fieldbook-api",
		Version: "1.4.0",
		Env:     "staging",
	}, core)
	require.NoError(t, err)

	l.Info("estimate sent", zap.String("number", "EST-202501-042"))

	logs := recorded.FilterMessage("estimate sent").All()
	require.Len(t, logs, 1, "extra cores apply their own level")
	fields := logs[0].ContextMap()
	assert.Equal(t, "EST-202501-042", fields["number"])
	assert.Equal(t, "fieldbook-api", fields["service"])
	assert.Equal(t, "1.4.0", fields["version"])
	assert.Equal(t, "staging", fields["env"])
}

func TestNew_UnwritableFile(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldbook.log")

	l, err := New(&Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	l.Info("invoice paid")
	require.NoError(t, Sync(l))
	assert.FileExists(t, path)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.level))
		})
	}
}
