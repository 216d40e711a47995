package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cshekharsharma/crdtstore/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "./data", cfg.DataDir)
	assert.False(t, cfg.NoSync)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, log.InfoLevel, cfg.LogLevel)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := "dataDir: /var/lib/crdtstore\nnoSync: true\nlogLevel: debug\nmetricsEnabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/crdtstore", cfg.DataDir)
	assert.True(t, cfg.NoSync)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel)
	assert.False(t, cfg.MetricsEnabled)
	// Fields the file didn't set keep their Default() value.
	assert.Equal(t, "console", cfg.LogFormat)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogConfig(t *testing.T) {
	cfg := Default()
	cfg.LogFormat = "json"
	lc := cfg.LogConfig()
	assert.Equal(t, log.InfoLevel, lc.Level)
	assert.True(t, lc.JSONOutput)
}
