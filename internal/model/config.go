package model

import (
	"fmt"
	"strings"
	"time"
)

// Config holds the complete etymologia configuration
type Config struct {
	Paths        PathsConfig        `yaml:"paths" mapstructure:"paths"`
	Enrich       EnrichConfig       `yaml:"enrich" mapstructure:"enrich"`
	Lexicon      LexiconConfig      `yaml:"lexicon" mapstructure:"lexicon"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Normalize    NormalizeConfig    `yaml:"normalize" mapstructure:"normalize"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// PathsConfig locates the input and output documents
type PathsConfig struct {
	Epithets    string `yaml:"epithets" mapstructure:"epithets"`       // Input document with the "epithets" list
	Etymologies string `yaml:"etymologies" mapstructure:"etymologies"` // Running cache and final artifact
}

// EnrichConfig controls the enrichment policy
type EnrichConfig struct {
	Overwrite bool `yaml:"overwrite" mapstructure:"overwrite"` // Re-query words that are already recorded
}

// LexiconConfig configures the Kotus lexicon client
type LexiconConfig struct {
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	ArticleURL    string        `yaml:"article_url" mapstructure:"article_url"` // %s is replaced with the etym id
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries    int           `yaml:"max_retries" mapstructure:"max_retries"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
}

// RateLimitingConfig paces requests to the lexicon host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig configures lexicon response caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Empty keeps the cache in memory only
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// NormalizeConfig configures epithet normalization
type NormalizeConfig struct {
	ExtraLetters   string `yaml:"extra_letters" mapstructure:"extra_letters"` // Letters allowed besides a-z
	SplitCompounds bool   `yaml:"split_compounds" mapstructure:"split_compounds"`
}

// LogConfig configures the slog logger
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // auto, text, json
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Epithets:    "epithets.json",
			Etymologies: "etymologies.json",
		},
		Enrich: EnrichConfig{
			Overwrite: false,
		},
		Lexicon: LexiconConfig{
			BaseURL:       "https://kaino.kotus.fi/ses/ajax.php",
			ArticleURL:    "https://kaino.kotus.fi/ses/?p=article&etym_id=%s",
			UserAgent:     "Etymologia/" + Version + " (+https://github.com/ppiankov/etymologia)",
			Timeout:       10 * time.Second,
			MaxRetries:    2,
			RetryBackoff:  500 * time.Millisecond,
			RespectRobots: true,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         1,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Normalize: NormalizeConfig{
			ExtraLetters:   "äåö",
			SplitCompounds: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.Epithets) == "" {
		return fmt.Errorf("paths.epithets is required")
	}
	if strings.TrimSpace(c.Paths.Etymologies) == "" {
		return fmt.Errorf("paths.etymologies is required")
	}
	if c.Lexicon.BaseURL == "" {
		return fmt.Errorf("lexicon.base_url is required")
	}
	if !strings.Contains(c.Lexicon.ArticleURL, "%s") {
		return fmt.Errorf("lexicon.article_url must contain %%s: %q", c.Lexicon.ArticleURL)
	}
	if c.Lexicon.UserAgent == "" {
		return fmt.Errorf("lexicon.user_agent is required")
	}
	if c.Lexicon.Timeout <= 0 {
		return fmt.Errorf("lexicon.timeout must be positive, got %v", c.Lexicon.Timeout)
	}
	if c.Lexicon.MaxRetries < 0 {
		return fmt.Errorf("lexicon.max_retries must not be negative, got %d", c.Lexicon.MaxRetries)
	}
	if c.RateLimiting.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate_limiting.requests_per_second must be positive, got %v", c.RateLimiting.RequestsPerSecond)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unsupported value %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("log.format: unsupported value %q", c.Log.Format)
	}
	return nil
}
