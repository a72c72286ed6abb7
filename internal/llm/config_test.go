package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// TestDuration_UnmarshalYAML verifies duration strings and nanosecond
// integers both decode.
func TestDuration_UnmarshalYAML(t *testing.T) {
	var out struct {
		Timeout Duration `yaml:"timeout"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("timeout: 15s"), &out))
	assert.Equal(t, Duration(15*time.Second), out.Timeout)

	require.NoError(t, yaml.Unmarshal([]byte("timeout: 1500000000"), &out))
	assert.Equal(t, Duration(1500*time.Millisecond), out.Timeout)

	assert.Error(t, yaml.Unmarshal([]byte("timeout: soon"), &out))
}

// TestConfig_applyDefaults verifies partial configs are filled in without
// clobbering explicit values.
func TestConfig_applyDefaults(t *testing.T) {
	cfg := Config{
		Provider: ProviderAnthropic,
		Providers: map[string]ProviderConfig{
			ProviderAnthropic: {APIKey: "ak-test"},
		},
	}
	cfg.applyDefaults()

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)

	// The partial provider entry gains the default endpoint but keeps its key.
	anthropic := cfg.Providers[ProviderAnthropic]
	assert.Equal(t, "https://api.anthropic.com", anthropic.Endpoint)
	assert.Equal(t, "ak-test", anthropic.APIKey)

	// The other built-in provider is backfilled entirely.
	assert.Equal(t, "https://api.openai.com/v1", cfg.Providers[ProviderOpenAI].Endpoint)
}

// TestProviderConfig_resolveKey verifies the key resolution order.
func TestProviderConfig_resolveKey(t *testing.T) {
	t.Run("explicit key wins", func(t *testing.T) {
		t.Setenv("TEST_LLM_KEY", "from-env")
		p := ProviderConfig{APIKey: "explicit", APIKeyEnv: "TEST_LLM_KEY"}
		assert.Equal(t, "explicit", p.resolveKey())
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("TEST_LLM_KEY", "from-env")
		p := ProviderConfig{APIKeyEnv: "TEST_LLM_KEY"}
		assert.Equal(t, "from-env", p.resolveKey())
	})

	t.Run("nothing resolves empty", func(t *testing.T) {
		p := ProviderConfig{APIKeyEnv: "TEST_LLM_KEY_UNSET"}
		assert.Empty(t, p.resolveKey())
	})
}
