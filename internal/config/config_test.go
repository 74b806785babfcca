package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/flowstory/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable read by the loader. t.Setenv restores them
// after the test.
func clearEnv(t *testing.T) {
	for _, k := range []string{
		"FLOWSTORY_LOG_LEVEL", "FLOWSTORY_MAX_FRAMES", "FLOWSTORY_LINK_HOST",
		"FLOWSTORY_GRAPH_SOURCE", "FLOWSTORY_GRAPH_FILE", "FIGMA_FILE_KEY", "FIGMA_TOKEN", "FIGMA_API_URL",
		"OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL", "OPENAI_TIMEOUT",
		"FLOWSTORY_ADDR", "FLOWSTORY_REDIS_ADDR", "FLOWSTORY_REDIS_PREFIX",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := config.Load(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoad_Layering(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	file := write(t, dir, "flowstory.yaml", `
log_level: debug
max_frames: 5
graph:
  file: flows/login.yaml
openai:
  model: file-model
  timeout: 30s
server:
  addr: ":9000"
`)
	env := write(t, dir, ".env", "OPENAI_MODEL=dotenv-model\nOPENAI_API_KEY=sk-dotenv\n")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("FLOWSTORY_MAX_FRAMES", "7")

	cfg, err := config.Load(file, env)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 7, cfg.MaxFrames, "environment beats file")
	assert.Equal(t, "flows/login.yaml", cfg.Graph.File)
	assert.Equal(t, "dotenv-model", cfg.OpenAI.Model, ".env beats file")
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey, "environment beats .env")
	assert.Equal(t, 30*time.Second, cfg.OpenAI.Timeout)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "flowstory:", cfg.Redis.Prefix)
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	file := write(t, t.TempDir(), "flowstory.yaml", "max_frames: [")

	_, err := config.Load(file, "")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		ok     bool
	}{
		{"defaults", func(c *config.Config) {}, true},
		{"zero frames", func(c *config.Config) { c.MaxFrames = 0 }, false},
		{"unknown source", func(c *config.Config) { c.Graph.Source = "sketch" }, false},
		{"figma without token", func(c *config.Config) { c.Graph.Source = config.SourceFigma; c.Graph.FileKey = "K" }, false},
		{"figma", func(c *config.Config) {
			c.Graph.Source = config.SourceFigma
			c.Graph.FileKey = "K"
			c.Graph.Token = "T"
		}, true},
		{"no timeout", func(c *config.Config) { c.OpenAI.Timeout = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
