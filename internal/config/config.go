// Package config provides configuration management for toi.
// Process-level settings come from environment variables; server and model
// upstream settings come from the file named by TOI_CONFIG_PATH, which may
// be YAML or JSON.
//
// String values inside upstream headers, params and json templates may
// reference environment variables as $VAR or ${VAR}. Referencing an unset
// variable is a configuration error.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBindAddr            = "127.0.0.1:6969"
	DefaultUserAgent           = "https://github.com/theOGognf/toi"
	DefaultDistanceThreshold   = 0.75
	DefaultSimilarityThreshold = 0.50
	DefaultRateLimit           = 20
	DefaultRateBurst           = 40
	DefaultUpstreamTimeout     = "120s"
)

// Env holds settings read from the process environment.
type Env struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	ConfigPath  string `envconfig:"TOI_CONFIG_PATH" required:"true"`
	LogLevel    string `envconfig:"TOI_LOG_LEVEL" default:"info"`
	DBMaxConns  int    `envconfig:"TOI_DB_MAX_CONNS" default:"5"`
}

// Config holds all configuration settings for the toi server.
type Config struct {
	Server     ServerConfig   `yaml:"server"`
	Embedding  UpstreamConfig `yaml:"embedding"`
	Generation UpstreamConfig `yaml:"generation"`
	Reranking  UpstreamConfig `yaml:"reranking"`

	Env Env `yaml:"-"`
}

// ServerConfig contains HTTP server and search settings.
type ServerConfig struct {
	BindAddr            string  `yaml:"bind_addr"`            // Listen address (default: 127.0.0.1:6969)
	UserAgent           string  `yaml:"user_agent"`           // Sent to third-party APIs
	DistanceThreshold   float64 `yaml:"distance_threshold"`   // Max cosine distance, in (0, 2] (default: 0.75)
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // Min reranker score, in [0, 1] (default: 0.50)
	RateLimit           float64 `yaml:"rate_limit"`           // Requests per second (default: 20)
	RateBurst           int     `yaml:"rate_burst"`           // Burst size (default: 40)
}

// UpstreamConfig describes one model service.
type UpstreamConfig struct {
	BaseURL string            `yaml:"base_url"` // Required, e.g. http://localhost:8000/v1
	Headers map[string]string `yaml:"headers"`  // Sent with every request
	Params  map[string]string `yaml:"params"`   // Appended to every request's query string
	JSON    map[string]any    `yaml:"json"`     // Merged under every request body
	Timeout string            `yaml:"timeout"`  // Go duration (default: 120s)
}

// TimeoutDuration parses Timeout. Validate guarantees it parses.
func (u UpstreamConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(u.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultUpstreamTimeout)
	}
	return d
}

// LoadEnv reads the process environment.
func LoadEnv() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("config: failed to process environment variables: %w", err)
	}
	if env.DBMaxConns <= 0 {
		return Env{}, fmt.Errorf("config: TOI_DB_MAX_CONNS must be positive, got %d", env.DBMaxConns)
	}
	return env, nil
}

// LoadConfig reads the environment and then the config file it names.
func LoadConfig() (*Config, error) {
	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(env.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.Env = env
	return cfg, nil
}

// LoadFile reads and validates a config file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	cfg, err := Parse(data, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML or JSON config data, applies defaults, substitutes
// environment references using lookup, and validates the result.
func Parse(data []byte, lookup func(string) (string, bool)) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}

	for _, up := range cfg.upstreams() {
		if up.cfg.Timeout == "" {
			up.cfg.Timeout = DefaultUpstreamTimeout
		}
		if err := substituteUpstream(up.cfg, lookup); err != nil {
			return nil, fmt.Errorf("%s: %w", up.name, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddr:            DefaultBindAddr,
			UserAgent:           DefaultUserAgent,
			DistanceThreshold:   DefaultDistanceThreshold,
			SimilarityThreshold: DefaultSimilarityThreshold,
			RateLimit:           DefaultRateLimit,
			RateBurst:           DefaultRateBurst,
		},
	}
}

type namedUpstream struct {
	name string
	cfg  *UpstreamConfig
}

func (c *Config) upstreams() []namedUpstream {
	return []namedUpstream{
		{"embedding", &c.Embedding},
		{"generation", &c.Generation},
		{"reranking", &c.Reranking},
	}
}

// Validate checks ranges, addresses and upstream defaults.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Server.BindAddr); err != nil {
		return fmt.Errorf("server.bind_addr: %w", err)
	}
	if c.Server.DistanceThreshold <= 0 || c.Server.DistanceThreshold > 2 {
		return fmt.Errorf("server.distance_threshold must be in (0, 2], got %v", c.Server.DistanceThreshold)
	}
	if c.Server.SimilarityThreshold < 0 || c.Server.SimilarityThreshold > 1 {
		return fmt.Errorf("server.similarity_threshold must be in [0, 1], got %v", c.Server.SimilarityThreshold)
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return fmt.Errorf("server.rate_limit and server.rate_burst must be positive")
	}

	for _, up := range c.upstreams() {
		if err := up.cfg.validate(); err != nil {
			return fmt.Errorf("%s: %w", up.name, err)
		}
	}
	return nil
}

func (u *UpstreamConfig) validate() error {
	if u.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base_url must be an http or https URL, got %q", u.BaseURL)
	}
	for k, v := range u.Headers {
		if !validHeaderName(k) {
			return fmt.Errorf("headers: invalid header name %q", k)
		}
		if strings.ContainsAny(v, "\r\n\x00") {
			return fmt.Errorf("headers: invalid value for %q", k)
		}
	}
	if d, err := time.ParseDuration(u.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("timeout must be a positive duration, got %q", u.Timeout)
	}
	return nil
}

func validHeaderName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r > 0x7e || r <= 0x20 || strings.ContainsRune(`"(),/:;<=>?@[\]{}`, r) {
			return false
		}
	}
	return true
}
