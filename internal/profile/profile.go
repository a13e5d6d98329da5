package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where wabot stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// Secret signs admin API access tokens
	Secret string

	// WhatsApp transport (Kapso)
	KapsoAPIKey   string // WABOT_KAPSO_API_KEY (legacy: KAPSO_API_KEY)
	KapsoBaseURL  string // WABOT_KAPSO_BASE_URL (default: https://api.kapso.ai/meta/whatsapp)
	PhoneNumberID string // WABOT_PHONE_NUMBER_ID (legacy: PHONE_NUMBER_ID)
	VerifyToken   string // WABOT_WEBHOOK_VERIFY_TOKEN (legacy: WEBHOOK_VERIFY_TOKEN, default: 123)
	AppSecret     string // WABOT_META_APP_SECRET (legacy: META_APP_SECRET), optional

	// AI Configuration
	AIProcessor       string // WABOT_AI_PROCESSOR (legacy: AI_PROCESSOR, default: gemini)
	GeminiAPIKey      string // WABOT_GEMINI_API_KEY (legacy: GEMINI_API_KEY)
	GeminiBaseURL     string // WABOT_GEMINI_BASE_URL (default: https://generativelanguage.googleapis.com/v1beta/openai/)
	GeminiModel       string // WABOT_GEMINI_MODEL (legacy: GEMINI_MODEL)
	OpenRouterAPIKey  string // WABOT_OPENROUTER_API_KEY (legacy: OPENROUTER_API_KEY)
	OpenRouterBaseURL string // WABOT_OPENROUTER_BASE_URL (default: https://openrouter.ai/api/v1)
	OpenRouterModels  string // WABOT_OPENROUTER_MODELS (legacy: OPENROUTER_MODELS), comma separated

	// WhitelistedNumbers seeds the whitelist at startup, comma separated.
	WhitelistedNumbers string // WABOT_WHITELISTED_NUMBERS (legacy: WHITELISTED_NUMBERS)

	// Session cache (optional Redis L2)
	RedisAddr     string // WABOT_REDIS_ADDR
	RedisPassword string // WABOT_REDIS_PASSWORD
	RedisDB       int    // WABOT_REDIS_DB

	// Background work
	MaxConcurrentMessages int    // WABOT_MAX_CONCURRENT_MESSAGES (default: 8)
	SessionRetentionDays  int    // WABOT_SESSION_RETENTION_DAYS (default: 30)
	SessionCleanupSpec    string // WABOT_SESSION_CLEANUP_SPEC (default: @daily)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the selected processor has an API key.
func (p *Profile) IsAIEnabled() bool {
	switch p.AIProcessor {
	case "gemini":
		return p.GeminiAPIKey != ""
	case "openrouter":
		return p.OpenRouterAPIKey != ""
	default:
		return false
	}
}

// InitialWhitelist returns the seeded whitelist numbers.
func (p *Profile) InitialWhitelist() []string {
	return splitList(p.WhitelistedNumbers)
}

// ModelSeeds returns the configured candidate models keyed by provider.
func (p *Profile) ModelSeeds() map[string][]string {
	seeds := map[string][]string{}
	if m := strings.TrimSpace(p.GeminiModel); m != "" {
		seeds["gemini"] = []string{m}
	}
	if models := splitList(p.OpenRouterModels); len(models) > 0 {
		seeds["openrouter"] = models
	}
	return seeds
}

// splitList splits a comma separated value, dropping blanks.
func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	return list
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
// Supports both WABOT_* (new) and unprefixed (legacy bot) names.
func (p *Profile) FromEnv() {
	// Skips empty values to allow defaults to take effect
	getEnvWithFallback := func(newKey, legacyKey string) string {
		if val := os.Getenv(newKey); val != "" {
			return val
		}
		return os.Getenv(legacyKey)
	}

	getEnvWithDefault := func(newKey, legacyKey, defaultValue string) string {
		if val := getEnvWithFallback(newKey, legacyKey); val != "" {
			return val
		}
		return defaultValue
	}

	getIntEnv := func(key string, defaultValue int) int {
		val := os.Getenv(key)
		if val == "" {
			return defaultValue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			slog.Warn("invalid integer env value, using default", slog.String("key", key), slog.String("value", val))
			return defaultValue
		}
		return n
	}

	p.KapsoAPIKey = getEnvWithFallback("WABOT_KAPSO_API_KEY", "KAPSO_API_KEY")
	p.KapsoBaseURL = getEnvOrDefault("WABOT_KAPSO_BASE_URL", "https://api.kapso.ai/meta/whatsapp")
	p.PhoneNumberID = getEnvWithFallback("WABOT_PHONE_NUMBER_ID", "PHONE_NUMBER_ID")
	p.VerifyToken = getEnvWithDefault("WABOT_WEBHOOK_VERIFY_TOKEN", "WEBHOOK_VERIFY_TOKEN", "123")
	p.AppSecret = getEnvWithFallback("WABOT_META_APP_SECRET", "META_APP_SECRET")

	p.AIProcessor = strings.ToLower(getEnvWithDefault("WABOT_AI_PROCESSOR", "AI_PROCESSOR", "gemini"))
	p.GeminiAPIKey = getEnvWithFallback("WABOT_GEMINI_API_KEY", "GEMINI_API_KEY")
	p.GeminiBaseURL = getEnvOrDefault("WABOT_GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	p.GeminiModel = getEnvWithFallback("WABOT_GEMINI_MODEL", "GEMINI_MODEL")
	p.OpenRouterAPIKey = getEnvWithFallback("WABOT_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")
	p.OpenRouterBaseURL = getEnvOrDefault("WABOT_OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")
	p.OpenRouterModels = getEnvWithFallback("WABOT_OPENROUTER_MODELS", "OPENROUTER_MODELS")

	p.WhitelistedNumbers = getEnvWithFallback("WABOT_WHITELISTED_NUMBERS", "WHITELISTED_NUMBERS")

	p.RedisAddr = os.Getenv("WABOT_REDIS_ADDR")
	p.RedisPassword = os.Getenv("WABOT_REDIS_PASSWORD")
	p.RedisDB = getIntEnv("WABOT_REDIS_DB", 0)

	p.MaxConcurrentMessages = getIntEnv("WABOT_MAX_CONCURRENT_MESSAGES", 8)
	p.SessionRetentionDays = getIntEnv("WABOT_SESSION_RETENTION_DAYS", 30)
	p.SessionCleanupSpec = getEnvOrDefault("WABOT_SESSION_CLEANUP_SPEC", "@daily")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "sqlite"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "wabot")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/wabot"
		}
	}
	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("wabot_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.AIProcessor != "gemini" && p.AIProcessor != "openrouter" {
		return errors.Errorf("unsupported AI processor: %s (supported: gemini, openrouter)", p.AIProcessor)
	}
	if p.MaxConcurrentMessages <= 0 {
		p.MaxConcurrentMessages = 8
	}
	if p.SessionRetentionDays <= 0 {
		p.SessionRetentionDays = 30
	}

	return nil
}
