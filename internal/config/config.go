// Package config loads pagetl settings from YAML files and turns them into
// providers, translation memories and translator options.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ZaguanLabs/pagetl"
	"github.com/ZaguanLabs/pagetl/cache"
	"github.com/ZaguanLabs/pagetl/provider"
)

// Config is the top-level pagetl configuration.
type Config struct {
	TargetLang string         `yaml:"target_lang"`
	SourceLang string         `yaml:"source_lang"`
	Provider   ProviderConfig `yaml:"provider"`
	Cache      CacheConfig    `yaml:"cache"`
	Batch      BatchConfig    `yaml:"batch"`
	Trickle    TrickleConfig  `yaml:"trickle"`
	Scan       ScanConfig     `yaml:"scan"`
	Prompt     PromptConfig   `yaml:"prompt"`
	Server     ServerConfig   `yaml:"server"`
}

// ProviderConfig selects and wraps the translation backend.
type ProviderConfig struct {
	Type              string        `yaml:"type"` // openai | http | mock
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url"` // openai-compatible endpoint
	Endpoint          string        `yaml:"endpoint"` // for http
	Timeout           time.Duration `yaml:"timeout"`
	Retries           int           `yaml:"retries"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
	BreakerFailures   uint32        `yaml:"breaker_failures"`
	BreakerTimeout    time.Duration `yaml:"breaker_timeout"`
}

// CacheConfig selects the translation memory.
type CacheConfig struct {
	Type       string        `yaml:"type"` // none | memory | redis | sqlite
	TTL        time.Duration `yaml:"ttl"` // negative never expires
	Capacity   int           `yaml:"capacity"`
	RedisURL   string        `yaml:"redis_url"`
	KeyPrefix  string        `yaml:"key_prefix"`
	SQLitePath string        `yaml:"sqlite_path"`
}

// BatchConfig controls bulk dispatch.
type BatchConfig struct {
	Size        int           `yaml:"size"`
	AdaptiveMax int           `yaml:"adaptive_max"` // 0 keeps the fixed size
	Interval    time.Duration `yaml:"interval"`     // negative disables pacing
	Timeout     time.Duration `yaml:"timeout"`
}

// TrickleConfig controls incremental dispatch.
type TrickleConfig struct {
	Window    time.Duration `yaml:"window"`
	Threshold int           `yaml:"threshold"`
}

// ScanConfig controls which content is collected.
type ScanConfig struct {
	Advanced          bool     `yaml:"advanced"`
	Strict            bool     `yaml:"strict"`
	LanguageDetection bool     `yaml:"language_detection"`
	SkipClasses       []string `yaml:"skip_classes"`
	CacheCapacity     int      `yaml:"cache_capacity"`
}

// PromptConfig is forwarded to the provider with every batch.
type PromptConfig struct {
	Context       string            `yaml:"context"`
	Style         string            `yaml:"style"`
	ExcludedTerms []string          `yaml:"excluded_terms"`
	Glossary      map[string]string `yaml:"glossary"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - operator-supplied config path
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SourceLang == "" {
		c.SourceLang = "en"
	}
	if c.Provider.Type == "" {
		c.Provider.Type = "openai"
	}
	if c.Provider.Model == "" {
		c.Provider.Model = "gpt-4o-mini"
	}
	if c.Provider.Timeout <= 0 {
		c.Provider.Timeout = 30 * time.Second
	}
	if c.Provider.Retries < 0 {
		c.Provider.Retries = 0
	}
	if c.Provider.BreakerFailures == 0 {
		c.Provider.BreakerFailures = 5
	}
	if c.Provider.BreakerTimeout <= 0 {
		c.Provider.BreakerTimeout = 30 * time.Second
	}
	if c.Cache.Type == "" {
		c.Cache.Type = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = time.Hour
	}
	if c.Cache.SQLitePath == "" {
		c.Cache.SQLitePath = "pagetl.db"
	}
	if c.Batch.Size <= 0 {
		c.Batch.Size = pagetl.DefaultBatchSize
	}
	if c.Batch.Interval == 0 {
		c.Batch.Interval = pagetl.DefaultBatchInterval
	}
	if c.Batch.Timeout <= 0 {
		c.Batch.Timeout = pagetl.DefaultBatchTimeout
	}
	if c.Trickle.Window <= 0 {
		c.Trickle.Window = pagetl.DefaultTrickleWindow
	}
	if c.Trickle.Threshold <= 0 {
		c.Trickle.Threshold = pagetl.DefaultTrickleThreshold
	}
	if c.Prompt.Style == "" {
		c.Prompt.Style = string(pagetl.StyleNeutral)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 2 * time.Minute
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 5 << 20
	}
}

// Validate reports the first setting that names an unknown backend or style.
func (c *Config) Validate() error {
	switch c.Provider.Type {
	case "openai", "mock":
	case "http":
		if c.Provider.Endpoint == "" {
			return fmt.Errorf("provider.endpoint is required for the http provider")
		}
	default:
		return fmt.Errorf("unknown provider type %q", c.Provider.Type)
	}

	switch c.Cache.Type {
	case "none", "memory", "sqlite":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown cache type %q", c.Cache.Type)
	}

	switch pagetl.TranslationStyle(c.Prompt.Style) {
	case pagetl.StyleFormal, pagetl.StyleNeutral, pagetl.StyleCasual,
		pagetl.StyleMarketing, pagetl.StyleTechnical:
	default:
		return fmt.Errorf("unknown style %q", c.Prompt.Style)
	}
	return nil
}

// APIKey returns the configured key, falling back to OPENAI_API_KEY.
func (c *Config) APIKey() string {
	if c.Provider.APIKey != "" {
		return c.Provider.APIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// NewProvider builds the configured backend. Real backends are wrapped, from
// the inside out, in an optional rate limit, retries and a circuit breaker.
func (c *Config) NewProvider(logger *slog.Logger) (pagetl.AIProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var base pagetl.AIProvider
	switch c.Provider.Type {
	case "openai":
		key := c.APIKey()
		if key == "" {
			return nil, fmt.Errorf("OpenAI API key required (--api-key, PAGETL_API_KEY or OPENAI_API_KEY env)")
		}
		base = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:  key,
			Model:   c.Provider.Model,
			BaseURL: c.Provider.BaseURL,
		})
	case "http":
		base = provider.NewHTTPProvider(provider.HTTPConfig{
			Endpoint: c.Provider.Endpoint,
			APIKey:   c.Provider.APIKey,
			Timeout:  c.Provider.Timeout,
		})
	case "mock":
		return provider.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", c.Provider.Type)
	}

	p := base
	if c.Provider.RequestsPerMinute > 0 {
		p = pagetl.NewRateLimitedProvider(p, pagetl.RateLimitConfig{RequestsPerMinute: c.Provider.RequestsPerMinute})
	}
	if c.Provider.Retries > 0 {
		retry := pagetl.DefaultRetryConfig()
		retry.MaxRetries = c.Provider.Retries
		retry.Logger = logger
		p = pagetl.NewRetryableProvider(p, retry)
	}
	return provider.NewBreakerProvider(p, provider.BreakerConfig{
		Name:        c.Provider.Type,
		MaxFailures: c.Provider.BreakerFailures,
		OpenTimeout: c.Provider.BreakerTimeout,
		Logger:      logger,
	}), nil
}

// NewCache opens the configured translation memory. The returned close
// function is never nil.
func (c *Config) NewCache() (pagetl.TranslationCache, func() error, error) {
	noop := func() error { return nil }
	ttl := int(c.Cache.TTL / time.Second)
	if ttl < 0 {
		ttl = 0
	}

	switch c.Cache.Type {
	case "none":
		return nil, noop, nil
	case "memory":
		if c.Cache.Capacity > 0 {
			return cache.NewInMemoryCacheWithCapacity(ttl, c.Cache.Capacity), noop, nil
		}
		return cache.NewInMemoryCache(ttl), noop, nil
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			URL:       c.Cache.RedisURL,
			TTL:       ttl,
			KeyPrefix: c.Cache.KeyPrefix,
		})
		if err != nil {
			return nil, noop, err
		}
		return rc, rc.Close, nil
	case "sqlite":
		sc, err := cache.NewSQLiteCache(cache.SQLiteConfig{Path: c.Cache.SQLitePath, TTL: ttl})
		if err != nil {
			return nil, noop, err
		}
		return sc, sc.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache type %q", c.Cache.Type)
	}
}

// Options translates the configuration into translator options. The cache
// is passed separately because it owns a connection.
func (c *Config) Options(tm pagetl.TranslationCache, logger *slog.Logger) []pagetl.Option {
	opts := []pagetl.Option{
		pagetl.WithSourceLang(c.SourceLang),
		pagetl.WithStyle(pagetl.TranslationStyle(c.Prompt.Style)),
		pagetl.WithBatchSize(c.Batch.Size),
		pagetl.WithBatchInterval(c.Batch.Interval),
		pagetl.WithTimeout(c.Batch.Timeout),
		pagetl.WithTrickle(c.Trickle.Window, c.Trickle.Threshold),
		pagetl.WithAdvancedFiltering(c.Scan.Advanced),
		pagetl.WithStrictTags(c.Scan.Strict),
		pagetl.WithLanguageDetection(c.Scan.LanguageDetection),
	}
	if tm != nil {
		opts = append(opts, pagetl.WithCache(tm))
	}
	if logger != nil {
		opts = append(opts, pagetl.WithLogger(logger))
	}
	if c.Batch.AdaptiveMax > 0 {
		opts = append(opts, pagetl.WithAdaptiveBatching(c.Batch.AdaptiveMax))
	}
	if c.Scan.CacheCapacity > 0 {
		opts = append(opts, pagetl.WithCacheCapacity(c.Scan.CacheCapacity))
	}
	if len(c.Scan.SkipClasses) > 0 {
		opts = append(opts, pagetl.WithSkipClasses(c.Scan.SkipClasses))
	}
	if c.Prompt.Context != "" {
		opts = append(opts, pagetl.WithContext(c.Prompt.Context))
	}
	if len(c.Prompt.ExcludedTerms) > 0 {
		opts = append(opts, pagetl.WithExcludedTerms(c.Prompt.ExcludedTerms))
	}
	if len(c.Prompt.Glossary) > 0 {
		opts = append(opts, pagetl.WithGlossary(c.Prompt.Glossary))
	}
	return opts
}

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
