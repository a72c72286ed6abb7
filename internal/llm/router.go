package llm

import "fmt"

// newAdapter resolves the configured provider to its adapter, failing fast on
// unknown providers or unresolvable credentials.
func newAdapter(cfg Config) (ProviderAdapter, error) {
	switch cfg.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}

	pcfg := cfg.Providers[cfg.Provider]
	key := pcfg.resolveKey()
	if key == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, cfg.Provider)
	}

	if cfg.Provider == ProviderAnthropic {
		return NewAnthropicAdapter(pcfg, key), nil
	}
	return NewOpenAIAdapter(pcfg, key), nil
}
