package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svcbind/svcbind/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "svcbind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
project: orders
compose:
  file: ./docker-compose.yaml
env:
  enabled: true
probe:
  timeout: 2s
  maxAttempts: 5
`)

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "orders", cfg.GetProject())
	assert.Equal(t, "./docker-compose.yaml", cfg.GetComposeFile())
	assert.True(t, cfg.EnvEnabled())
	assert.Equal(t, 2*time.Second, cfg.ProbeTimeout())
	assert.Equal(t, 5, cfg.ProbeAttempts())
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "no sources configured",
			content: "project: orders\n",
		},
		{
			name:    "bad probe timeout",
			content: "compose:\n  file: x.yaml\nprobe:\n  timeout: soon\n",
		},
		{
			name:    "negative probe attempts",
			content: "compose:\n  file: x.yaml\nprobe:\n  maxAttempts: -1\n",
		},
		{
			name:    "invalid yaml",
			content: "compose: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeConfig(t, tt.content)
			_, err := config.LoadConfig(config.WithConfigPath(path))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_PathHandling(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig()
	assert.Error(t, err, "path is required")

	_, err = config.LoadConfig(config.WithConfigPath(""))
	assert.Error(t, err)

	_, err = config.LoadConfig(config.WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv(config.EnvComposeFile, "/srv/compose.yaml")
	t.Setenv(config.EnvProject, "payments")

	cfg := config.Default()
	assert.Equal(t, "/srv/compose.yaml", cfg.GetComposeFile())
	assert.Equal(t, "payments", cfg.GetProject())
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	assert.Equal(t, "docker-compose.yaml", cfg.GetComposeFile())
	assert.True(t, cfg.EnvEnabled())
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout())
	assert.Equal(t, 3, cfg.ProbeAttempts())
}
