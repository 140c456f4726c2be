package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	envAlt  string // consulted when env is unset
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "REFRAME_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "storage.data_dir", typ: kString, env: "REFRAME_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "REFRAME_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "completion.provider", typ: kString, env: "REFRAME_COMPLETION_PROVIDER",
		apply:   func(cfg *Config, v any) { cfg.Completion.Provider = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.Provider },
	},
	{
		key: "completion.model", typ: kString, env: "REFRAME_COMPLETION_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Completion.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.Model },
	},
	{
		key: "completion.base_url", typ: kString, env: "REFRAME_COMPLETION_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Completion.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.BaseURL },
	},
	{
		key: "completion.timeout", typ: kDuration, env: "REFRAME_COMPLETION_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Completion.Timeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Completion.Timeout },
	},
	{
		key: "completion.temperature", typ: kFloat, env: "REFRAME_COMPLETION_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.Completion.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.Completion.Temperature },
	},
	{
		key: "completion.max_output_tokens", typ: kInt, env: "REFRAME_COMPLETION_MAX_OUTPUT_TOKENS",
		apply:   func(cfg *Config, v any) { cfg.Completion.MaxOutputTokens = v.(int) },
		extract: func(cfg Config) any { return cfg.Completion.MaxOutputTokens },
	},
	{
		key: "completion.rate_per_second", typ: kFloat, env: "REFRAME_COMPLETION_RATE_PER_SECOND",
		apply:   func(cfg *Config, v any) { cfg.Completion.RatePerSecond = v.(float64) },
		extract: func(cfg Config) any { return cfg.Completion.RatePerSecond },
	},
	{
		key: "completion.gemini_api_key", typ: kString, env: "REFRAME_GEMINI_API_KEY", envAlt: "GOOGLE_AI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Completion.GeminiAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.GeminiAPIKey },
	},
	{
		key: "completion.openai_api_key", typ: kString, env: "REFRAME_OPENAI_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Completion.OpenAIAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.OpenAIAPIKey },
	},
	{
		key: "wizard.default_owner", typ: kString, env: "REFRAME_WIZARD_DEFAULT_OWNER",
		apply:   func(cfg *Config, v any) { cfg.Wizard.DefaultOwner = v.(string) },
		extract: func(cfg Config) any { return cfg.Wizard.DefaultOwner },
	},
	{
		key: "wizard.session_ttl", typ: kDuration, env: "REFRAME_WIZARD_SESSION_TTL",
		apply:   func(cfg *Config, v any) { cfg.Wizard.SessionTTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Wizard.SessionTTL },
	},
	{
		key: "history.cache_ttl", typ: kDuration, env: "REFRAME_HISTORY_CACHE_TTL",
		apply:   func(cfg *Config, v any) { cfg.History.CacheTTL = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.History.CacheTTL },
	},
}

func lookupSpec(key string) (keySpec, bool) {
	for _, s := range specs {
		if s.key == key {
			return s, true
		}
	}
	return keySpec{}, false
}

// parseValue converts a raw string into the key's typed value.
func parseValue(typ keyType, raw string) (any, error) {
	switch typ {
	case kInt:
		return strconv.Atoi(raw)
	case kBool:
		return strconv.ParseBool(raw)
	case kFloat:
		return strconv.ParseFloat(raw, 64)
	case kDuration:
		return time.ParseDuration(raw)
	default:
		return raw, nil
	}
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		if s.typ == kInt {
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
			continue
		}

		raw, ok, err := b.GetString(s.key)
		if err != nil {
			return fmt.Errorf("reading %s: %w", s.key, err)
		}
		if !ok || (raw == "" && s.typ != kString) {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse config key %s=%q: %v. Using default value.\n", s.key, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		name := s.env
		raw := os.Getenv(name)
		if raw == "" && s.envAlt != "" {
			name = s.envAlt
			raw = os.Getenv(name)
		}
		if raw == "" {
			continue
		}
		v, err := parseValue(s.typ, raw)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] could not parse env var %s=%q: %v. Using default value.\n", name, raw, err)
			continue
		}
		s.apply(cfg, v)
	}
}
