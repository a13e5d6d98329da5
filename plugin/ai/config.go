package ai

import (
	"errors"
	"fmt"

	"github.com/hrygo/wabot/internal/profile"
)

// Supported providers.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // gemini, openrouter
	APIKey      string
	BaseURL     string
	Models      []string // candidate models seeded into the registry
	MaxTokens   int      // default: 1024
	Temperature float32  // default: 0.7
	// JSONMode requests a JSON object response format from the provider.
	JSONMode bool
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
		LLM: LLMConfig{
			Provider:    p.AIProcessor,
			Models:      p.ModelSeeds()[p.AIProcessor],
			MaxTokens:   1024,
			Temperature: 0.7,
		},
	}

	switch p.AIProcessor {
	case ProviderGemini:
		cfg.LLM.APIKey = p.GeminiAPIKey
		cfg.LLM.BaseURL = p.GeminiBaseURL
	case ProviderOpenRouter:
		cfg.LLM.APIKey = p.OpenRouterAPIKey
		cfg.LLM.BaseURL = p.OpenRouterBaseURL
		cfg.LLM.JSONMode = true
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenRouter:
	case "":
		return errors.New("LLM provider is required")
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	if c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	return nil
}
