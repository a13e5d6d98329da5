package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileDefaults(t *testing.T) {
	clearBotEnvVars(t)

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"AIProcessor default", "gemini", profile.AIProcessor},
		{"VerifyToken default", "123", profile.VerifyToken},
		{"KapsoBaseURL default", "https://api.kapso.ai/meta/whatsapp", profile.KapsoBaseURL},
		{"GeminiBaseURL default", "https://generativelanguage.googleapis.com/v1beta/openai/", profile.GeminiBaseURL},
		{"OpenRouterBaseURL default", "https://openrouter.ai/api/v1", profile.OpenRouterBaseURL},
		{"SessionCleanupSpec default", "@daily", profile.SessionCleanupSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.actual)
		})
	}

	assert.Equal(t, 8, profile.MaxConcurrentMessages)
	assert.Equal(t, 30, profile.SessionRetentionDays)
	assert.Equal(t, 0, profile.RedisDB)
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "legacy KAPSO_API_KEY",
			envVar:   "KAPSO_API_KEY",
			envValue: "kapso-legacy",
			field:    func(p *Profile) string { return p.KapsoAPIKey },
			expected: "kapso-legacy",
		},
		{
			name:     "WABOT_KAPSO_API_KEY",
			envVar:   "WABOT_KAPSO_API_KEY",
			envValue: "kapso-new",
			field:    func(p *Profile) string { return p.KapsoAPIKey },
			expected: "kapso-new",
		},
		{
			name:     "AI_PROCESSOR is lowercased",
			envVar:   "AI_PROCESSOR",
			envValue: "OpenRouter",
			field:    func(p *Profile) string { return p.AIProcessor },
			expected: "openrouter",
		},
		{
			name:     "legacy WEBHOOK_VERIFY_TOKEN",
			envVar:   "WEBHOOK_VERIFY_TOKEN",
			envValue: "secret-token",
			field:    func(p *Profile) string { return p.VerifyToken },
			expected: "secret-token",
		},
		{
			name:     "legacy OPENROUTER_MODELS",
			envVar:   "OPENROUTER_MODELS",
			envValue: "a/b,c/d",
			field:    func(p *Profile) string { return p.OpenRouterModels },
			expected: "a/b,c/d",
		},
		{
			name:     "WABOT_REDIS_ADDR",
			envVar:   "WABOT_REDIS_ADDR",
			envValue: "localhost:6379",
			field:    func(p *Profile) string { return p.RedisAddr },
			expected: "localhost:6379",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearBotEnvVars(t)
			t.Setenv(tt.envVar, tt.envValue)

			profile := &Profile{}
			profile.FromEnv()

			assert.Equal(t, tt.expected, tt.field(profile))
		})
	}
}

func TestProfileFromEnv_PrefixedWinsOverLegacy(t *testing.T) {
	clearBotEnvVars(t)
	t.Setenv("GEMINI_API_KEY", "legacy")
	t.Setenv("WABOT_GEMINI_API_KEY", "prefixed")

	profile := &Profile{}
	profile.FromEnv()

	assert.Equal(t, "prefixed", profile.GeminiAPIKey)
}

func TestProfileFromEnv_InvalidIntFallsBack(t *testing.T) {
	clearBotEnvVars(t)
	t.Setenv("WABOT_MAX_CONCURRENT_MESSAGES", "many")

	profile := &Profile{}
	profile.FromEnv()

	assert.Equal(t, 8, profile.MaxConcurrentMessages)
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		expected bool
	}{
		{"gemini with key", Profile{AIProcessor: "gemini", GeminiAPIKey: "k"}, true},
		{"gemini without key", Profile{AIProcessor: "gemini", OpenRouterAPIKey: "k"}, false},
		{"openrouter with key", Profile{AIProcessor: "openrouter", OpenRouterAPIKey: "k"}, true},
		{"unknown processor", Profile{AIProcessor: "ollama", GeminiAPIKey: "k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.profile.IsAIEnabled())
		})
	}
}

func TestSeeds(t *testing.T) {
	p := &Profile{
		WhitelistedNumbers: " 15551234567, ,628123 ,",
		GeminiModel:        "gemini-2.0-flash",
		OpenRouterModels:   "meta-llama/llama-3.3-70b-instruct:free, google/gemma-3-27b-it:free",
	}

	assert.Equal(t, []string{"15551234567", "628123"}, p.InitialWhitelist())

	seeds := p.ModelSeeds()
	assert.Equal(t, []string{"gemini-2.0-flash"}, seeds["gemini"])
	assert.Equal(t, []string{"meta-llama/llama-3.3-70b-instruct:free", "google/gemma-3-27b-it:free"}, seeds["openrouter"])

	empty := &Profile{}
	assert.Empty(t, empty.InitialWhitelist())
	assert.Empty(t, empty.ModelSeeds())
}

func TestValidate(t *testing.T) {
	t.Run("sqlite DSN derived from data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "bogus", Data: dir, AIProcessor: "gemini"}

		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
		assert.Equal(t, "sqlite", p.Driver)
		assert.Contains(t, p.DSN, "wabot_demo.db")
		assert.Equal(t, 8, p.MaxConcurrentMessages)
	})

	t.Run("unsupported processor", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: t.TempDir(), AIProcessor: "ollama"}
		assert.Error(t, p.Validate())
	})

	t.Run("missing data dir", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: "/definitely/not/here", AIProcessor: "gemini"}
		assert.Error(t, p.Validate())
	})
}

// Helper functions

func clearBotEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"WABOT_KAPSO_API_KEY", "KAPSO_API_KEY",
		"WABOT_KAPSO_BASE_URL",
		"WABOT_PHONE_NUMBER_ID", "PHONE_NUMBER_ID",
		"WABOT_WEBHOOK_VERIFY_TOKEN", "WEBHOOK_VERIFY_TOKEN",
		"WABOT_META_APP_SECRET", "META_APP_SECRET",
		"WABOT_AI_PROCESSOR", "AI_PROCESSOR",
		"WABOT_GEMINI_API_KEY", "GEMINI_API_KEY",
		"WABOT_GEMINI_BASE_URL",
		"WABOT_GEMINI_MODEL", "GEMINI_MODEL",
		"WABOT_OPENROUTER_API_KEY", "OPENROUTER_API_KEY",
		"WABOT_OPENROUTER_BASE_URL",
		"WABOT_OPENROUTER_MODELS", "OPENROUTER_MODELS",
		"WABOT_WHITELISTED_NUMBERS", "WHITELISTED_NUMBERS",
		"WABOT_REDIS_ADDR", "WABOT_REDIS_PASSWORD", "WABOT_REDIS_DB",
		"WABOT_MAX_CONCURRENT_MESSAGES",
		"WABOT_SESSION_RETENTION_DAYS",
		"WABOT_SESSION_CLEANUP_SPEC",
	}
	for _, envVar := range envVars {
		t.Setenv(envVar, "")
	}
}
