package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider is the interface for text generation backends.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
	Name() string
}

// Settings configures a provider. APIKey is the resolved credential, not the
// name of the variable holding it.
type Settings struct {
	Provider    string
	Model       string
	APIKey      string
	APIKeyEnv   string
	BaseURL     string
	OllamaURL   string
	Temperature float64
	Timeout     time.Duration
	Structured  bool
}

// CreateProvider creates a provider based on configuration. A missing API
// key is not an error here; Generate reports it on first use.
func CreateProvider(s Settings) (Provider, error) {
	switch strings.ToLower(s.Provider) {
	case "", "gemini":
		return NewGeminiProvider(s), nil
	case "openai":
		return NewOpenAIProvider(s), nil
	case "ollama":
		return NewOllamaProvider(s), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q (want gemini, openai or ollama)", s.Provider)
	}
}

func missingKeyError(provider, env string) error {
	if env == "" {
		return fmt.Errorf("%s API key not configured", provider)
	}
	return fmt.Errorf("%s API key not configured; set %s", provider, env)
}
