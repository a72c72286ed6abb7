package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargecast/internal/llm"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestDefault verifies the zero-file configuration is usable as-is.
func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 6, cfg.Explain.TopK)
	assert.Equal(t, "localhost:7233", cfg.Worker.HostPort)
	assert.Equal(t, "chargecast-estimate", cfg.Worker.TaskQueue)
	assert.Equal(t, llm.ProviderOpenAI, cfg.LLM.Provider)
}

// TestLoad verifies file values override defaults while unset keys keep them.
func TestLoad(t *testing.T) {
	path := writeConfig(t, `
artifact_path: /var/lib/chargecast/model.json
explain:
  top_k: 4
llm:
  provider: anthropic
  model: claude-3-5-haiku-latest
  timeout: 20s
worker:
  task_queue: estimates-prod
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/chargecast/model.json", cfg.ArtifactPath)
	assert.Equal(t, 4, cfg.Explain.TopK)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, llm.Duration(20*time.Second), cfg.LLM.Timeout)
	assert.Equal(t, "estimates-prod", cfg.Worker.TaskQueue)

	// Unset keys keep their defaults.
	assert.Equal(t, "localhost:7233", cfg.Worker.HostPort)
	assert.Equal(t, "default", cfg.Worker.Namespace)
}

// TestLoad_Failures covers missing files, malformed YAML, and unknown keys.
func TestLoad_Failures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "explain: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Load(writeConfig(t, "artifact_pth: typo.json"))
		assert.Error(t, err)
	})
}

// TestLoad_EmptyFile verifies an empty file yields the defaults.
func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().Worker, cfg.Worker)
	assert.Equal(t, Default().Explain, cfg.Explain)
}

// TestNormalize verifies zero values are replaced with safe defaults.
func TestNormalize(t *testing.T) {
	cfg, err := Load(writeConfig(t, "explain:\n  top_k: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Explain.TopK)
}
