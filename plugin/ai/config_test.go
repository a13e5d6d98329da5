package ai

import (
	"testing"

	"github.com/hrygo/wabot/internal/profile"
)

func TestNewConfigFromProfile_OpenRouter(t *testing.T) {
	prof := &profile.Profile{
		AIProcessor:       "openrouter",
		OpenRouterAPIKey:  "or-key",
		OpenRouterBaseURL: "https://openrouter.ai/api/v1",
		OpenRouterModels:  "a/one:free, b/two:free",
		GeminiAPIKey:      "gemini-key",
	}

	cfg := NewConfigFromProfile(prof)

	if !cfg.Enabled {
		t.Errorf("Expected Enabled=true, got false")
	}
	if cfg.LLM.Provider != ProviderOpenRouter {
		t.Errorf("Expected LLM.Provider=openrouter, got %s", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKey != "or-key" {
		t.Errorf("Expected LLM.APIKey=or-key, got %s", cfg.LLM.APIKey)
	}
	if !cfg.LLM.JSONMode {
		t.Errorf("Expected JSONMode for openrouter")
	}
	if len(cfg.LLM.Models) != 2 || cfg.LLM.Models[1] != "b/two:free" {
		t.Errorf("Expected two seeded models, got %v", cfg.LLM.Models)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestNewConfigFromProfile_Gemini(t *testing.T) {
	prof := &profile.Profile{
		AIProcessor:   "gemini",
		GeminiAPIKey:  "gemini-key",
		GeminiBaseURL: "https://generativelanguage.googleapis.com/v1beta/openai/",
		GeminiModel:   "gemini-2.0-flash",
	}

	cfg := NewConfigFromProfile(prof)

	if cfg.LLM.BaseURL != prof.GeminiBaseURL {
		t.Errorf("Expected LLM.BaseURL=%s, got %s", prof.GeminiBaseURL, cfg.LLM.BaseURL)
	}
	if cfg.LLM.JSONMode {
		t.Errorf("Expected JSONMode=false for gemini")
	}
	if len(cfg.LLM.Models) != 1 || cfg.LLM.Models[0] != "gemini-2.0-flash" {
		t.Errorf("Expected gemini model seed, got %v", cfg.LLM.Models)
	}
	if cfg.LLM.MaxTokens != 1024 {
		t.Errorf("Expected LLM.MaxTokens=1024, got %d", cfg.LLM.MaxTokens)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{Enabled: false}, false},
		{"missing key", Config{Enabled: true, LLM: LLMConfig{Provider: ProviderGemini}}, true},
		{"missing provider", Config{Enabled: true, LLM: LLMConfig{APIKey: "k"}}, true},
		{"unknown provider", Config{Enabled: true, LLM: LLMConfig{Provider: "ollama", APIKey: "k"}}, true},
		{"ok", Config{Enabled: true, LLM: LLMConfig{Provider: ProviderOpenRouter, APIKey: "k"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
