package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/teemow/inboxtally/internal/llm"
)

// Cache backends.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
)

// Defaults
const (
	DefaultRedisAddr  = "localhost:6379"
	DefaultCacheTTL   = 14400 * time.Second
	DefaultMaxResults = 10
	DefaultAccount    = "default"

	// MaxResultsLimit is the largest single page Gmail returns.
	MaxResultsLimit = 500
)

// Config is the complete runtime configuration.
type Config struct {
	Model  ModelConfig  `yaml:"model"`
	Redis  RedisConfig  `yaml:"redis"`
	Cache  CacheConfig  `yaml:"cache"`
	Gmail  GmailConfig  `yaml:"gmail"`
	Google GoogleConfig `yaml:"google"`
}

// ModelConfig selects the Ollama server and model.
type ModelConfig struct {
	Host string `yaml:"host"`
	Name string `yaml:"name"`

	// Timeout bounds each completion; zero waits indefinitely.
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// CacheConfig selects the cache backend and expiry.
type CacheConfig struct {
	Type string        `yaml:"type"`
	TTL  time.Duration `yaml:"ttl"`
}

// GmailConfig controls which mailbox is read and how much of it.
type GmailConfig struct {
	MaxResults int64  `yaml:"max_results"`
	Account    string `yaml:"account"`
}

// GoogleConfig locates the OAuth client credentials and stored tokens.
type GoogleConfig struct {
	CredentialsPath string `yaml:"credentials_path"`

	// TokenDir defaults to the user cache directory.
	TokenDir string `yaml:"token_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Host: llm.DefaultOllamaHost,
			Name: llm.DefaultOllamaModel,
		},
		Redis: RedisConfig{
			Addr: DefaultRedisAddr,
		},
		Cache: CacheConfig{
			Type: CacheRedis,
			TTL:  DefaultCacheTTL,
		},
		Gmail: GmailConfig{
			MaxResults: DefaultMaxResults,
			Account:    DefaultAccount,
		},
	}
}

// Load builds the configuration from the defaults, the optional YAML file at
// path and the environment, in increasing order of precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode merges YAML over cfg. Unknown keys are rejected.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Model.Host = getEnvOrDefault("OLLAMA_HOST", c.Model.Host)
	c.Model.Name = getEnvOrDefault("OLLAMA_MODEL", c.Model.Name)
	c.Redis.Addr = getEnvOrDefault("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", c.Redis.Password)
	c.Cache.Type = getEnvOrDefault("CACHE_TYPE", c.Cache.Type)
	c.Google.CredentialsPath = getEnvOrDefault("GOOGLE_CREDENTIALS_PATH", c.Google.CredentialsPath)

	db, err := getEnvIntOrDefault("REDIS_DB", c.Redis.DB)
	if err != nil {
		return err
	}
	c.Redis.DB = db
	return nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error

	if c.Model.Host == "" {
		errs = append(errs, errors.New("model.host must not be empty"))
	} else if _, err := llm.ParseHost(c.Model.Host); err != nil {
		errs = append(errs, fmt.Errorf("model.host: %w", err))
	}
	if c.Model.Name == "" {
		errs = append(errs, errors.New("model.name must not be empty"))
	}
	if c.Model.Timeout < 0 {
		errs = append(errs, errors.New("model.timeout must not be negative"))
	}

	switch c.Cache.Type {
	case CacheRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("redis.addr must be set for the redis cache"))
		}
		if c.Redis.DB < 0 {
			errs = append(errs, errors.New("redis.db must not be negative"))
		}
	case CacheMemory:
	default:
		errs = append(errs, fmt.Errorf("cache.type must be %q or %q, got %q", CacheRedis, CacheMemory, c.Cache.Type))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}

	if c.Gmail.MaxResults < 1 || c.Gmail.MaxResults > MaxResultsLimit {
		errs = append(errs, fmt.Errorf("gmail.max_results must be between 1 and %d, got %d", MaxResultsLimit, c.Gmail.MaxResults))
	}
	if c.Gmail.Account == "" {
		errs = append(errs, errors.New("gmail.account must not be empty"))
	}

	return errors.Join(errs...)
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns the environment variable as an int or a default.
func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return parsed, nil
}
