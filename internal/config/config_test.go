package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Catalog: CatalogConfig{
			Path:       "data/catalog.parquet",
			Partitions: []string{"data/part1.parquet", "data/part2.parquet"},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidHashAlgorithm(t *testing.T) {
	cfg := validConfig()
	cfg.Credentials.HashAlgorithm = "md5"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid hash algorithm")
	}

	expected := `credentials.hash_algorithm must be "argon2id" or "sha256", got "md5"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidHashAlgorithms(t *testing.T) {
	for _, algo := range []string{"sha256", "argon2id"} {
		t.Run("algorithm="+algo, func(t *testing.T) {
			cfg := validConfig()
			cfg.Credentials.HashAlgorithm = algo
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for %q: %v", algo, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingArtifacts(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing catalog path")
	}

	cfg = validConfig()
	cfg.Catalog.Partitions = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing partitions")
	}
}

func TestValidate_WindowSmallerThanMaxResults(t *testing.T) {
	cfg := validConfig()
	cfg.Recommend.MaxResults = 10
	cfg.Recommend.CandidateWindow = 5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when candidate_window < max_results")
	}
}

func TestValidate_NegativeRateLimit(t *testing.T) {
	cfg := validConfig()
	cfg.Enrichment.RateLimit = -1

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative rate limit")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Credentials.HashAlgorithm != "argon2id" {
		t.Errorf("expected HashAlgorithm=argon2id, got %q", cfg.Credentials.HashAlgorithm)
	}
	if cfg.Enrichment.CacheSize != 1000 {
		t.Errorf("expected CacheSize=1000, got %d", cfg.Enrichment.CacheSize)
	}
	if cfg.Enrichment.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("unexpected BaseURL %q", cfg.Enrichment.BaseURL)
	}
	if cfg.Recommend.MaxResults != 8 {
		t.Errorf("expected MaxResults=8, got %d", cfg.Recommend.MaxResults)
	}
	if cfg.Recommend.CandidateWindow != 50 {
		t.Errorf("expected CandidateWindow=50, got %d", cfg.Recommend.CandidateWindow)
	}
	if cfg.Recommend.Prefetch != 1 {
		t.Errorf("expected Prefetch=1, got %d", cfg.Recommend.Prefetch)
	}
	if cfg.Auth.LoginRateLimit != 10 {
		t.Errorf("expected LoginRateLimit=10, got %d", cfg.Auth.LoginRateLimit)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:       HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Enrichment: EnrichmentConfig{CacheSize: 50, BaseURL: "http://tmdb.local"},
		Recommend:  RecommendConfig{MaxResults: 4, CandidateWindow: 20, Prefetch: 8},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Enrichment.CacheSize != 50 {
		t.Errorf("expected CacheSize=50, got %d", cfg.Enrichment.CacheSize)
	}
	if cfg.Enrichment.BaseURL != "http://tmdb.local" {
		t.Errorf("unexpected BaseURL %q", cfg.Enrichment.BaseURL)
	}
	if cfg.Recommend.MaxResults != 4 || cfg.Recommend.CandidateWindow != 20 || cfg.Recommend.Prefetch != 8 {
		t.Errorf("recommend overridden: %+v", cfg.Recommend)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("MOVIEREC_TEST_KEY", "secret-key")

	cfg, err := Parse([]byte(`
http:
  port: ${MOVIEREC_TEST_PORT:-9090}
catalog:
  path: data/catalog.parquet
  partitions:
    - data/part1.parquet
enrichment:
  api_key: ${MOVIEREC_TEST_KEY}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Enrichment.APIKey != "secret-key" {
		t.Errorf("expected api key from env, got %q", cfg.Enrichment.APIKey)
	}
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("http:\n  port: 8080\n"))
	if err == nil || !strings.Contains(err.Error(), "catalog.path") {
		t.Fatalf("expected catalog.path validation error, got %v", err)
	}
}

func TestResolveEnv_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ENV=prod\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("ENV", "")
	if err := os.Unsetenv("ENV"); err != nil {
		t.Fatal(err)
	}

	env, err := ResolveEnv("")
	if err != nil {
		t.Fatalf("ResolveEnv: %v", err)
	}
	if env != "prod" {
		t.Errorf("expected ENV from .env, got %q", env)
	}

	env, err = ResolveEnv("local")
	if err != nil {
		t.Fatalf("ResolveEnv: %v", err)
	}
	if env != "local" {
		t.Errorf("explicit env should win, got %q", env)
	}
}

func TestResolveEnv_DefaultsToLocal(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV", "")
	if err := os.Unsetenv("ENV"); err != nil {
		t.Fatal(err)
	}

	env, err := ResolveEnv("")
	if err != nil {
		t.Fatalf("ResolveEnv: %v", err)
	}
	if env != "local" {
		t.Errorf("expected local, got %q", env)
	}
}
