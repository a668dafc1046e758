package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the movierec service configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Enrichment  EnrichmentConfig  `yaml:"enrichment"`
	Recommend   RecommendConfig   `yaml:"recommend"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	LoginRateLimit int `yaml:"login_rate_limit"` // requests per minute per IP on auth endpoints
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig locates the precomputed artifacts.
type CatalogConfig struct {
	Path       string   `yaml:"path"`       // catalog parquet file
	Partitions []string `yaml:"partitions"` // similarity row partitions, concatenated in this order
}

// CredentialsConfig holds credential store settings.
type CredentialsConfig struct {
	Path           string `yaml:"path"`
	BusyTimeoutSec int    `yaml:"busy_timeout_sec"`
	HashAlgorithm  string `yaml:"hash_algorithm"` // argon2id (default) | sha256
	AdminEmail     string `yaml:"admin_email"`
	AdminPassword  string `yaml:"admin_password"` // empty = no bootstrap
}

// EnrichmentConfig holds metadata provider settings.
type EnrichmentConfig struct {
	APIKey             string  `yaml:"api_key"`
	BaseURL            string  `yaml:"base_url"`
	ImageBaseURL       string  `yaml:"image_base_url"`
	TimeoutSec         int     `yaml:"timeout_sec"`
	RateLimit          float64 `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst              int     `yaml:"burst"`
	CacheSize          int     `yaml:"cache_size"`
	BreakerFailures    uint32  `yaml:"breaker_failures"`
	BreakerCooldownSec int     `yaml:"breaker_cooldown_sec"`
}

// RecommendConfig bounds recommendation searches.
type RecommendConfig struct {
	MaxResults      int `yaml:"max_results"`
	CandidateWindow int `yaml:"candidate_window"`
	MaxWindow       int `yaml:"max_window"`
	Prefetch        int `yaml:"prefetch"`
}

// LoadDotEnv loads a .env file from the working directory into the process environment.
// Variables already set take precedence. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ResolveEnv returns explicit when set, otherwise the ENV variable after .env is loaded.
func ResolveEnv(explicit string) (string, error) {
	if err := LoadDotEnv(); err != nil {
		return "", err
	}
	if explicit != "" {
		return explicit, nil
	}
	return GetEnv(), nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// .env is loaded first, see LoadDotEnv.
func Load(env string) (Config, error) {
	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Credentials.Path == "" {
		c.Credentials.Path = "data/users.db"
	}
	if c.Credentials.BusyTimeoutSec <= 0 {
		c.Credentials.BusyTimeoutSec = 5
	}
	if c.Credentials.HashAlgorithm == "" {
		c.Credentials.HashAlgorithm = "argon2id"
	}
	if c.Enrichment.BaseURL == "" {
		c.Enrichment.BaseURL = "https://api.themoviedb.org/3"
	}
	if c.Enrichment.ImageBaseURL == "" {
		c.Enrichment.ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	}
	if c.Enrichment.TimeoutSec <= 0 {
		c.Enrichment.TimeoutSec = 5
	}
	if c.Enrichment.CacheSize <= 0 {
		c.Enrichment.CacheSize = 1000
	}
	if c.Enrichment.BreakerFailures == 0 {
		c.Enrichment.BreakerFailures = 5
	}
	if c.Enrichment.BreakerCooldownSec <= 0 {
		c.Enrichment.BreakerCooldownSec = 30
	}
	if c.Recommend.MaxResults <= 0 {
		c.Recommend.MaxResults = 8
	}
	if c.Recommend.CandidateWindow <= 0 {
		c.Recommend.CandidateWindow = 50
	}
	if c.Recommend.MaxWindow <= 0 {
		c.Recommend.MaxWindow = 500
	}
	if c.Recommend.Prefetch <= 0 {
		c.Recommend.Prefetch = 1
	}
	if c.Auth.LoginRateLimit <= 0 {
		c.Auth.LoginRateLimit = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}
	if len(c.Catalog.Partitions) == 0 {
		return fmt.Errorf("catalog.partitions must list at least one file")
	}
	switch c.Credentials.HashAlgorithm {
	case "sha256", "argon2id":
		// ok
	default:
		return fmt.Errorf(
			"credentials.hash_algorithm must be \"argon2id\" or \"sha256\", got %q",
			c.Credentials.HashAlgorithm,
		)
	}
	if c.Enrichment.RateLimit < 0 {
		return fmt.Errorf("enrichment.rate_limit must not be negative, got %v", c.Enrichment.RateLimit)
	}
	if c.Recommend.CandidateWindow < c.Recommend.MaxResults {
		return fmt.Errorf(
			"recommend.candidate_window (%d) must be at least recommend.max_results (%d)",
			c.Recommend.CandidateWindow, c.Recommend.MaxResults,
		)
	}
	if c.Recommend.MaxWindow < c.Recommend.CandidateWindow {
		return fmt.Errorf(
			"recommend.max_window (%d) must be at least recommend.candidate_window (%d)",
			c.Recommend.MaxWindow, c.Recommend.CandidateWindow,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
