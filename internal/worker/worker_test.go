package worker

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargecast/internal/config"
	"chargecast/internal/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestBuildActivities verifies the demo-artifact path and the load-failure
// path.
func TestBuildActivities(t *testing.T) {
	t.Run("no artifact path uses demo artifact", func(t *testing.T) {
		cfg := config.Default()
		acts, err := BuildActivities(cfg, discardLogger())
		require.NoError(t, err)
		assert.NotNil(t, acts)
	})

	t.Run("bad artifact path fails", func(t *testing.T) {
		cfg := config.Default()
		cfg.ArtifactPath = filepath.Join(t.TempDir(), "absent.json")
		_, err := BuildActivities(cfg, discardLogger())
		assert.Error(t, err)
	})
}

// TestInitializeLLMClient verifies a missing credential degrades to a nil
// client instead of an error.
func TestInitializeLLMClient(t *testing.T) {
	t.Run("missing key yields nil client", func(t *testing.T) {
		cfg := llm.DefaultConfig()
		cfg.Providers = map[string]llm.ProviderConfig{
			llm.ProviderOpenAI: {Endpoint: "https://example.invalid", APIKeyEnv: "CHARGECAST_TEST_UNSET_KEY"},
		}
		assert.Nil(t, InitializeLLMClient(cfg, discardLogger()))
	})

	t.Run("unknown provider yields nil client", func(t *testing.T) {
		cfg := llm.DefaultConfig()
		cfg.Provider = "cohere"
		assert.Nil(t, InitializeLLMClient(cfg, discardLogger()))
	})

	t.Run("configured key yields client", func(t *testing.T) {
		cfg := llm.DefaultConfig()
		cfg.Providers = map[string]llm.ProviderConfig{
			llm.ProviderOpenAI: {Endpoint: "https://example.invalid", APIKey: "sk-test"},
		}
		assert.NotNil(t, InitializeLLMClient(cfg, discardLogger()))
	})
}
