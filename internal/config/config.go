// Package config loads shopsift settings from defaults, an optional
// shopsift.yaml and SHOPSIFT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FranksOps/shopsift/internal/fingerprint"
	"github.com/FranksOps/shopsift/internal/pipeline"
	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/FranksOps/shopsift/internal/signal"
	"github.com/FranksOps/shopsift/pkg/ratelimit"
	"github.com/FranksOps/shopsift/pkg/useragent"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SHOPSIFT_CONCURRENCY.
const EnvPrefix = "SHOPSIFT"

// Archive drivers.
const (
	ArchiveNone     = "none"
	ArchiveJSON     = "json"
	ArchiveSQLite   = "sqlite"
	ArchivePostgres = "postgres"
)

// Config is the full runtime configuration.
type Config struct {
	Concurrency  int             `mapstructure:"concurrency"`
	Timeout      TimeoutConfig   `mapstructure:"timeout"`
	MaxBodyBytes int64           `mapstructure:"max_body_bytes"`
	Fingerprint  string          `mapstructure:"fingerprint"`
	UserAgents   []string        `mapstructure:"user_agents"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	Output       OutputConfig    `mapstructure:"output"`
	Archive      ArchiveConfig   `mapstructure:"archive"`
	Metrics      MetricsConfig   `mapstructure:"metrics"`
	Log          LogConfig       `mapstructure:"log"`
	Discovery    DiscoveryConfig `mapstructure:"discovery"`
	Locale       LocaleConfig    `mapstructure:"locale"`
	Report       ReportConfig    `mapstructure:"report"`
}

// TimeoutConfig holds the per-request timeout of each pipeline.
type TimeoutConfig struct {
	Probe     time.Duration `mapstructure:"probe"`
	Locale    time.Duration `mapstructure:"locale"`
	Discovery time.Duration `mapstructure:"discovery"`
}

// RateLimitConfig paces requests. RPS <= 0 disables pacing.
type RateLimitConfig struct {
	RPS    float64 `mapstructure:"rps"`
	Jitter float64 `mapstructure:"jitter"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// ArchiveConfig selects an optional second sink for every output table.
type ArchiveConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// MetricsConfig serves Prometheus metrics when Port > 0.
type MetricsConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DiscoveryConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	RespectRobots bool   `mapstructure:"respect_robots"`
}

type LocaleConfig struct {
	ShopIDRanges []signal.IDRange `mapstructure:"shop_id_ranges"`
	Phrases      []string         `mapstructure:"phrases"`
}

type ReportConfig struct {
	// Format is "text" or "json".
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key with its default so environment
// overrides are seen by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("concurrency", pipeline.DefaultLimit)
	v.SetDefault("timeout.probe", 10*time.Second)
	v.SetDefault("timeout.locale", 15*time.Second)
	v.SetDefault("timeout.discovery", 30*time.Second)
	v.SetDefault("max_body_bytes", scraper.DefaultMaxBodyBytes)
	v.SetDefault("fingerprint", string(fingerprint.ProfileChrome))
	v.SetDefault("user_agents", []string{})
	v.SetDefault("rate_limit.rps", 0.0)
	v.SetDefault("rate_limit.jitter", 0.0)
	v.SetDefault("output.dir", ".")
	v.SetDefault("archive.driver", ArchiveNone)
	v.SetDefault("archive.dsn", "")
	v.SetDefault("metrics.port", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("discovery.base_url", "https://onshopify.com")
	v.SetDefault("discovery.respect_robots", false)
	v.SetDefault("locale.shop_id_ranges", []signal.IDRange{})
	v.SetDefault("locale.phrases", signal.DefaultPhrases)
	v.SetDefault("report.format", "text")
}

// Load reads configuration. path names an explicit config file; when empty,
// shopsift.yaml is looked up in the working directory and
// $HOME/.config/shopsift, and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("shopsift")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/shopsift")
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
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings that would make a run meaningless.
func (c *Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	for name, d := range map[string]time.Duration{
		"timeout.probe":     c.Timeout.Probe,
		"timeout.locale":    c.Timeout.Locale,
		"timeout.discovery": c.Timeout.Discovery,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if _, err := fingerprint.ParseProfile(c.Fingerprint); err != nil {
		errs = append(errs, err)
	}
	if c.RateLimit.Jitter < 0 || c.RateLimit.Jitter > 1 {
		errs = append(errs, fmt.Errorf("rate_limit.jitter must be within [0, 1], got %g", c.RateLimit.Jitter))
	}
	switch c.Archive.Driver {
	case ArchiveNone, "":
	case ArchiveJSON, ArchiveSQLite, ArchivePostgres:
		if c.Archive.DSN == "" {
			errs = append(errs, fmt.Errorf("archive.dsn is required for driver %q", c.Archive.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown archive.driver %q", c.Archive.Driver))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	for _, r := range c.Locale.ShopIDRanges {
		if r.Min > r.Max {
			errs = append(errs, fmt.Errorf("shop id range %d-%d is inverted", r.Min, r.Max))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SlogLevel parses the configured log level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// SignalOptions returns the extraction options for the locale pipeline.
func (c *Config) SignalOptions() signal.Options {
	return signal.Options{ShopIDRanges: c.Locale.ShopIDRanges, Phrases: c.Locale.Phrases}
}

// FetchConfig builds the Fetcher settings for one pipeline.
func (c *Config) FetchConfig(pipelineName string, timeout time.Duration) scraper.FetchConfig {
	profile, _ := fingerprint.ParseProfile(c.Fingerprint)
	return scraper.FetchConfig{
		Pipeline:     pipelineName,
		Timeout:      timeout,
		MaxBodyBytes: c.MaxBodyBytes,
		MaxConns:     c.Concurrency,
		UAPool:       useragent.NewPool(c.UserAgents),
		Fingerprint:  profile,
		Limiter:      ratelimit.NewLimiter(c.RateLimit.RPS, c.RateLimit.Jitter),
	}
}
