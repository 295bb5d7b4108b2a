// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"charabase/internal/ratelimit"
	"charabase/internal/retry"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	DataDir string        `mapstructure:"data_dir"`
	Server  ServerConfig  `mapstructure:"server"`
	Crawl   CrawlConfig   `mapstructure:"crawl"`
	Sources SourcesConfig `mapstructure:"sources"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the browse API server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlConfig governs discovery and drain behavior.
type CrawlConfig struct {
	DiscoveryMaxPages     int `mapstructure:"discovery_max_pages"`
	MaxWorksPerRun        int `mapstructure:"max_works_per_run"`
	DelayBetweenImportsMs int `mapstructure:"delay_between_imports_ms"`
	CharacterPageLimit    int `mapstructure:"character_page_limit"`
}

// DelayBetweenImports returns the inter-item drain delay.
func (c CrawlConfig) DelayBetweenImports() time.Duration {
	return time.Duration(c.DelayBetweenImportsMs) * time.Millisecond
}

// SourcesConfig holds one block per external catalog.
type SourcesConfig struct {
	AniList SourceConfig `mapstructure:"anilist"`
	Jikan   SourceConfig `mapstructure:"jikan"`
	RAWG    SourceConfig `mapstructure:"rawg"`
}

// SourceConfig configures one source client's transport behavior.
type SourceConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	APIKey         string  `mapstructure:"api_key"`
	MaxRequests    int     `mapstructure:"max_requests"`
	WindowMs       int     `mapstructure:"window_ms"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	MaxRetries     int     `mapstructure:"max_retries"`
	BackoffBaseMs  int     `mapstructure:"backoff_base_ms"`
	BackoffFactor  float64 `mapstructure:"backoff_factor"`
}

// RateLimit converts the source block into a limiter config.
func (c SourceConfig) RateLimit() ratelimit.Config {
	return ratelimit.Config{
		MaxRequests: c.MaxRequests,
		Window:      time.Duration(c.WindowMs) * time.Millisecond,
	}
}

// Retry converts the source block into a retry policy. The caller attaches
// its own OnRetry observer.
func (c SourceConfig) Retry() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.MaxRetries,
		BaseDelay:   time.Duration(c.BackoffBaseMs) * time.Millisecond,
		Multiplier:  c.BackoffFactor,
	}
}

// Timeout returns the per-HTTP-call ceiling.
func (c SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CHARABASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)

	v.SetDefault("crawl.discovery_max_pages", 2)
	v.SetDefault("crawl.max_works_per_run", 10)
	v.SetDefault("crawl.delay_between_imports_ms", 2000)
	v.SetDefault("crawl.character_page_limit", 4)

	v.SetDefault("sources.anilist.base_url", "https://graphql.anilist.co")
	v.SetDefault("sources.anilist.max_requests", 30)
	v.SetDefault("sources.anilist.window_ms", 60000)

	v.SetDefault("sources.jikan.base_url", "https://api.jikan.moe/v4")
	v.SetDefault("sources.jikan.max_requests", 3)
	v.SetDefault("sources.jikan.window_ms", 1000)

	v.SetDefault("sources.rawg.base_url", "https://api.rawg.io/api")
	v.SetDefault("sources.rawg.max_requests", 5)
	v.SetDefault("sources.rawg.window_ms", 1000)

	for _, src := range []string{"anilist", "jikan", "rawg"} {
		v.SetDefault("sources."+src+".timeout_seconds", 15)
		v.SetDefault("sources."+src+".max_retries", 3)
		v.SetDefault("sources."+src+".backoff_base_ms", 1000)
		v.SetDefault("sources."+src+".backoff_factor", 2.0)
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawl.MaxWorksPerRun <= 0 {
		return fmt.Errorf("crawl.max_works_per_run must be > 0")
	}
	if c.Crawl.DiscoveryMaxPages <= 0 {
		return fmt.Errorf("crawl.discovery_max_pages must be > 0")
	}
	for name, src := range map[string]SourceConfig{
		"anilist": c.Sources.AniList,
		"jikan":   c.Sources.Jikan,
		"rawg":    c.Sources.RAWG,
	} {
		if src.BaseURL == "" {
			return fmt.Errorf("sources.%s.base_url must be set", name)
		}
		if src.MaxRequests <= 0 {
			return fmt.Errorf("sources.%s.max_requests must be > 0", name)
		}
		if src.TimeoutSeconds <= 0 {
			return fmt.Errorf("sources.%s.timeout_seconds must be > 0", name)
		}
	}
	return nil
}
