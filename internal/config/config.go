// Package config reads the service configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

const (
	defaultModel          = "gpt-4o-mini"
	defaultVisionModel    = "gpt-4o"
	defaultTimeout        = 30 * time.Second
	defaultMaxQuestionLen = 500
	defaultMaxImageBytes  = 5 << 20
	defaultScanCacheTTL   = 10 * time.Minute
	defaultDevAddr        = ":8080"
)

// Config is read once at startup. Nothing else in the module reads the
// environment.
type Config struct {
	OpenAI OpenAI
	Voice  Voice

	// ParamPrefix enables the SSM credential source when OpenAI.APIKey is empty.
	ParamPrefix string

	MaxQuestionLen int
	MaxImageBytes  int
	ScanCacheTTL   time.Duration

	LogLevel slog.Level

	DevAddr   string
	DevUserID string
}

type OpenAI struct {
	APIKey      string
	BaseURL     string
	Model       string
	VisionModel string
	Timeout     time.Duration
	MaxRetries  int
}

// Voice is the optional text-to-speech setup. It is advertised to clients
// and never required.
type Voice struct {
	APIKey  string
	VoiceID string
}

func (v Voice) Enabled() bool {
	return v.APIKey != "" && v.VoiceID != ""
}

// HasCredentialSource reports whether a backend key can be obtained at all.
func (c Config) HasCredentialSource() bool {
	return c.OpenAI.APIKey != "" || c.ParamPrefix != ""
}

// Load builds a Config from getenv, typically os.Getenv. Malformed numbers are
// reported rather than silently replaced by defaults.
func Load(getenv func(string) string) (Config, error) {
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	cfg := Config{
		OpenAI: OpenAI{
			APIKey:      env("OPENAI_API_KEY"),
			BaseURL:     env("OPENAI_BASE_URL"),
			Model:       withDefault(env("OPENAI_MODEL"), defaultModel),
			VisionModel: withDefault(env("OPENAI_VISION_MODEL"), defaultVisionModel),
		},
		Voice: Voice{
			APIKey:  env("ELEVENLABS_API_KEY"),
			VoiceID: env("ELEVENLABS_VOICE_ID"),
		},
		ParamPrefix: env("PARAM_PREFIX"),
		DevAddr:     withDefault(env("DEV_ADDR"), defaultDevAddr),
		DevUserID:   env("DEV_USER_ID"),
	}

	var err error
	if cfg.OpenAI.Timeout, err = envSeconds(env, "OPENAI_TIMEOUT_SECONDS", defaultTimeout); err != nil {
		return Config{}, err
	}
	if cfg.OpenAI.MaxRetries, err = envInt(env, "OPENAI_MAX_RETRIES", 0); err != nil {
		return Config{}, err
	}
	if cfg.MaxQuestionLen, err = envInt(env, "MAX_QUESTION_LENGTH", defaultMaxQuestionLen); err != nil {
		return Config{}, err
	}
	if cfg.MaxImageBytes, err = envInt(env, "MAX_IMAGE_BYTES", defaultMaxImageBytes); err != nil {
		return Config{}, err
	}
	if cfg.ScanCacheTTL, err = envSeconds(env, "SCAN_CACHE_TTL_SECONDS", defaultScanCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.LogLevel, err = parseLevel(env("LOG_LEVEL")); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func envInt(env func(string) string, key string, def int) (int, error) {
	v := env(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("config: %s must not be negative, got %d", key, n)
	}
	return n, nil
}

// envSeconds reads a whole number of seconds. Zero is kept as zero so callers
// can use it to switch a feature off.
func envSeconds(env func(string) string, key string, def time.Duration) (time.Duration, error) {
	if env(key) == "" {
		return def, nil
	}
	n, err := envInt(env, key, 0)
	if err != nil {
		return 0, err
	}
	return time.Duration(n) * time.Second, nil
}

func parseLevel(v string) (slog.Level, error) {
	if v == "" {
		return slog.LevelInfo, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	return lvl, nil
}
