package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	Log        LogConfig
	Completion CompletionConfig
	Wizard     WizardConfig
	History    HistoryConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

// CompletionConfig selects and tunes the text-completion provider.
type CompletionConfig struct {
	Provider        string // "gemini" or "openai"
	Model           string
	BaseURL         string
	Timeout         time.Duration
	Temperature     float64
	MaxOutputTokens int
	RatePerSecond   float64
	GeminiAPIKey    string
	OpenAIAPIKey    string
}

// APIKey returns the key for the selected provider.
func (c CompletionConfig) APIKey() string {
	if c.Provider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

type WizardConfig struct {
	DefaultOwner string
	SessionTTL   time.Duration
}

type HistoryConfig struct {
	CacheTTL time.Duration
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Completion: CompletionConfig{
			Provider:        "gemini",
			Model:           "gemini-2.0-flash",
			Timeout:         20 * time.Second,
			Temperature:     0.7,
			MaxOutputTokens: 512,
			RatePerSecond:   2,
		},
		Wizard: WizardConfig{
			DefaultOwner: "demo-user",
			SessionTTL:   time.Hour,
		},
		History: HistoryConfig{
			CacheTTL: 5 * time.Minute,
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.reframe.app) and secrets
// fall back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/reframe/config.json
// and secrets come from environment variables or the secrets file.
//
// Environment variables (REFRAME_*) override backend values on all platforms.
// A missing API key is not an error; the completion layer degrades to a
// placeholder instead.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), NewKeychain())
}

func loadWith(b ConfigBackend, kc Keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)
	applySecrets(&cfg, kc)

	cfg.Completion.Provider = strings.ToLower(strings.TrimSpace(cfg.Completion.Provider))
	switch cfg.Completion.Provider {
	case "gemini", "openai":
	default:
		return Config{}, fmt.Errorf("invalid completion.provider %q: want gemini or openai", cfg.Completion.Provider)
	}

	return cfg, nil
}

// applySecrets fills empty secret keys from the platform secret store.
func applySecrets(cfg *Config, kc Keychain) {
	for _, s := range specs {
		if !s.secret {
			continue
		}
		if v, _ := s.extract(*cfg).(string); v != "" {
			continue
		}
		if val, err := kc.Get(keychainService, secretAccount(s.key)); err == nil && val != "" {
			s.apply(cfg, val)
		}
	}
}

// secretAccount maps "completion.gemini_api_key" to "gemini_api_key".
func secretAccount(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}
