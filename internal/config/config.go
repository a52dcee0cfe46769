// Package config loads debrief settings from a config file, the environment and command flags.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/debrief/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (DEBRIEF_MODEL_PROVIDER, ...).
const EnvPrefix = "DEBRIEF"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// ProviderScripted selects the offline scripted gateway instead of a language model.
const ProviderScripted = "scripted"

var (
	drivers   = []string{DriverMemory, DriverFile, DriverRedis, DriverSQLite}
	providers = []string{"openai", "ollama", "anthropic", ProviderScripted}
)

// Config holds all application configuration.
type Config struct {
	Model    ModelConfig    `mapstructure:"model"`
	Script   ScriptConfig   `mapstructure:"script"`
	Store    StoreConfig    `mapstructure:"store"`
	Summary  SummaryConfig  `mapstructure:"summary"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Log      LogConfig      `mapstructure:"log"`
}

type ModelConfig struct {
	Provider    string        `mapstructure:"provider"`
	Name        string        `mapstructure:"name"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Temperature float64       `mapstructure:"temperature"`
	// ExampleFlow is a JSON file shown to the model as a sample of when to move on.
	ExampleFlow string `mapstructure:"example_flow"`
}

type ScriptConfig struct {
	Path string `mapstructure:"path"`
}

type StoreConfig struct {
	Driver     string        `mapstructure:"driver"`
	Dir        string        `mapstructure:"dir"`
	RedisURL   string        `mapstructure:"redis_url"`
	SQLitePath string        `mapstructure:"sqlite_path"`
	Prefix     string        `mapstructure:"prefix"`
	TTL        time.Duration `mapstructure:"ttl"`
	LockTTL    time.Duration `mapstructure:"lock_ttl"`

	// EncryptionKey is a base64 AES-256 key. When set, states are encrypted at rest.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys still decrypt states written before a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`
	// Redact lists regular expressions masked in stored user messages.
	// "email" and "phone" name built-in patterns.
	Redact []string `mapstructure:"redact"`
}

// Keys decodes the encryption keys. active is nil when encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("store.fallback_keys requires store.encryption_key")
		}
		return nil, nil, nil
	}
	active, err = base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

// SummaryConfig selects where finished sessions are summarized to.
// The sqlite and redis drivers keep summaries next to the sessions and ignore it.
type SummaryConfig struct {
	Path       string `mapstructure:"path"`
	PerSession bool   `mapstructure:"per_session"`
	Dir        string `mapstructure:"dir"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelegramConfig struct {
	Token string  `mapstructure:"token"`
	Allow []int64 `mapstructure:"allow"`
	// Reminder is a cron spec; subscribed chats get a nudge on each tick.
	Reminder string `mapstructure:"reminder"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key so environment overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", "openai")
	v.SetDefault("model.name", "")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.base_url", "")
	v.SetDefault("model.timeout", 60*time.Second)
	v.SetDefault("model.temperature", 0.0)
	v.SetDefault("model.example_flow", "")
	v.SetDefault("script.path", "")
	v.SetDefault("store.driver", DriverFile)
	v.SetDefault("store.dir", ".debrief/sessions")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.sqlite_path", ".debrief/debrief.db")
	v.SetDefault("store.prefix", "debrief:")
	v.SetDefault("store.ttl", time.Duration(0))
	v.SetDefault("store.lock_ttl", 2*time.Minute)
	v.SetDefault("store.encryption_key", "")
	v.SetDefault("store.fallback_keys", []string{})
	v.SetDefault("store.redact", []string{})
	v.SetDefault("summary.path", "chat_history_summary.json")
	v.SetDefault("summary.per_session", false)
	v.SetDefault("summary.dir", ".debrief/summaries")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.allow", []int64{})
	v.SetDefault("telegram.reminder", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatText)
}

// Load reads .env, then the config file, then DEBRIEF_* variables, into a validated Config.
// Flags bound on v by the caller take precedence over all of them.
// An empty path searches debrief.yaml in the working directory and $HOME/.config/debrief;
// a missing file is not an error in that case.
func Load(v *viper.Viper, path string) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("debrief")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "debrief"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configured drivers exist and their required fields are set.
func (c *Config) Validate() error {
	if !slices.Contains(providers, strings.ToLower(c.Model.Provider)) {
		return fmt.Errorf("unknown model provider %q (want one of %s)", c.Model.Provider, strings.Join(providers, ", "))
	}
	if c.Model.Timeout <= 0 {
		return fmt.Errorf("model.timeout must be > 0")
	}
	if !slices.Contains(drivers, strings.ToLower(c.Store.Driver)) {
		return fmt.Errorf("unknown store driver %q (want one of %s)", c.Store.Driver, strings.Join(drivers, ", "))
	}
	switch strings.ToLower(c.Store.Driver) {
	case DriverRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis driver")
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("store.sqlite_path is required for the sqlite driver")
		}
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if f := strings.ToLower(c.Log.Format); f != logging.FormatText && f != logging.FormatJSON {
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
