// Package common provides shared utilities for Folio
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/models"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Folio
type Config struct {
	Environment  string          `toml:"environment"`
	BaseCurrency string          `toml:"base_currency"` // currency of the grand total ("TWD" by default)
	Server       ServerConfig    `toml:"server"`
	Clients      ClientsConfig   `toml:"clients"`
	Logging      LoggingConfig   `toml:"logging"`
	Quotes       QuotesConfig    `toml:"quotes"`
	Scheduler    SchedulerConfig `toml:"scheduler"`
	FX           []FXConfig      `toml:"fx"`
	Books        []BookConfig    `toml:"books"`
	Watchlist    []WatchConfig   `toml:"watchlist"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo YahooConfig `toml:"yahoo"`
}

// YahooConfig holds Yahoo chart API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// QuotesConfig controls cache freshness, lookback windows and symbol resolution.
type QuotesConfig struct {
	TTLFast      string              `toml:"ttl_fast"`   // latest close, short window
	TTLNormal    string              `toml:"ttl_normal"` // latest close, widened window
	TTLLong      string              `toml:"ttl_long"`   // historical ranges
	ShortWindow  string              `toml:"short_window"`
	WideWindow   string              `toml:"wide_window"`
	FetchTimeout string              `toml:"fetch_timeout"`
	Markets      []models.MarketRule `toml:"markets"`
}

// GetTTLFast returns the freshness window for short-window quotes.
func (c *QuotesConfig) GetTTLFast() time.Duration {
	return parseDuration(c.TTLFast, FreshnessFastQuote)
}

// GetTTLNormal returns the freshness window for widened quotes. It is never
// shorter than the fast TTL.
func (c *QuotesConfig) GetTTLNormal() time.Duration {
	d := parseDuration(c.TTLNormal, FreshnessNormalQuote)
	if fast := c.GetTTLFast(); d < fast {
		return fast
	}
	return d
}

// GetTTLLong returns the freshness window for historical ranges.
func (c *QuotesConfig) GetTTLLong() time.Duration {
	return parseDuration(c.TTLLong, FreshnessHistory)
}

// GetFetchTimeout returns the per-fetch deadline applied by the quote service.
func (c *QuotesConfig) GetFetchTimeout() time.Duration {
	return parseDuration(c.FetchTimeout, 10*time.Second)
}

// SchedulerConfig holds background refresh configuration
type SchedulerConfig struct {
	RefreshInterval string `toml:"refresh_interval"` // "0" or empty disables
	WarmCache       bool   `toml:"warm_cache"`
}

// GetRefreshInterval returns the refresh interval, or 0 when disabled.
func (c *SchedulerConfig) GetRefreshInterval() time.Duration {
	return parseDuration(c.RefreshInterval, 0)
}

// FXConfig names the quote symbol that prices one unit of Currency in the
// base currency, and the rate to use when that quote is unavailable.
type FXConfig struct {
	Currency     string  `toml:"currency"`
	Symbol       string  `toml:"symbol"`
	FallbackRate float64 `toml:"fallback_rate"`
}

// BookConfig is one currency sub-portfolio.
type BookConfig struct {
	Name      string            `toml:"name"`
	Title     string            `toml:"title"`
	Currency  string            `toml:"currency"`
	Resolve   bool              `toml:"resolve"` // price through the symbol resolver
	Exclude   []string          `toml:"exclude"` // hidden when the report hides excluded holdings
	Positions []models.Position `toml:"positions"`
}

// WatchConfig is a watched instrument.
type WatchConfig struct {
	Symbol       string  `toml:"symbol"`
	Category     string  `toml:"category"`
	ExpenseRatio float64 `toml:"expense_ratio"`
	Description  string  `toml:"description"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// DefaultMarketRules returns the built-in resolver rules. Taiwan tickers are
// tried on the main board, then OTC, then bare, then the US secondary listing.
func DefaultMarketRules() []models.MarketRule {
	return []models.MarketRule{
		{Suffix: ".TW", Variants: []string{".TW", ".TWO", "", ".TW:US"}},
	}
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:  "development",
		BaseCurrency: "TWD",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				UserAgent: "Mozilla/5.0 (compatible; folio)",
				RateLimit: 5,
				Timeout:   "15s",
			},
		},
		Quotes: QuotesConfig{
			TTLFast:      "60s",
			TTLNormal:    "5m",
			TTLLong:      "1h",
			ShortWindow:  "5d",
			WideWindow:   "1mo",
			FetchTimeout: "10s",
			Markets:      DefaultMarketRules(),
		},
		Scheduler: SchedulerConfig{
			RefreshInterval: "0",
			WarmCache:       true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console"},
			FilePath:   "./logs/folio.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FOLIO_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("FOLIO_HOST"); host != "" {
		config.Server.Host = host
	}

	// PORT is what hosting platforms inject; FOLIO_PORT wins when both are set.
	for _, key := range []string{"PORT", "FOLIO_PORT"} {
		if port := os.Getenv(key); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				config.Server.Port = p
			}
		}
	}

	if level := os.Getenv("FOLIO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if bc := os.Getenv("FOLIO_BASE_CURRENCY"); bc != "" {
		config.BaseCurrency = bc
	}

	if url := os.Getenv("FOLIO_YAHOO_BASE_URL"); url != "" {
		config.Clients.Yahoo.BaseURL = url
	}

	if v := os.Getenv("FOLIO_WARM_CACHE"); v != "" {
		config.Scheduler.WarmCache = ParseFlag(v)
	}

	if v := os.Getenv("FOLIO_REFRESH_INTERVAL"); v != "" {
		config.Scheduler.RefreshInterval = v
	}
}

// Validate normalises currency codes and rejects books that cannot be priced
// or converted into the base currency.
func (c *Config) Validate() error {
	c.BaseCurrency = strings.ToUpper(strings.TrimSpace(c.BaseCurrency))
	if c.BaseCurrency == "" {
		return fmt.Errorf("base_currency is required")
	}

	seen := make(map[string]bool, len(c.Books))
	for i := range c.Books {
		b := &c.Books[i]
		if b.Name == "" {
			return fmt.Errorf("books[%d]: name is required", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("books[%d]: duplicate book name %q", i, b.Name)
		}
		seen[b.Name] = true

		b.Currency = strings.ToUpper(strings.TrimSpace(b.Currency))
		if b.Currency == "" {
			b.Currency = c.BaseCurrency
		}
		if b.Currency != c.BaseCurrency {
			fx := c.FXFor(b.Currency)
			if fx == nil {
				return fmt.Errorf("book %q: no fx pair configured for %s", b.Name, b.Currency)
			}
			if fx.FallbackRate <= 0 {
				return fmt.Errorf("book %q: fx pair %s needs a positive fallback_rate", b.Name, b.Currency)
			}
		}

		for j, p := range b.Positions {
			if p.Shares < 0 || p.CostPerShare < 0 {
				return fmt.Errorf("book %q: position %d (%s): shares and cost_per_share must not be negative", b.Name, j, p.Symbol)
			}
		}
	}

	for i := range c.FX {
		c.FX[i].Currency = strings.ToUpper(strings.TrimSpace(c.FX[i].Currency))
	}
	return nil
}

// FXFor returns the FX pair that converts currency into the base currency.
func (c *Config) FXFor(currency string) *FXConfig {
	for i := range c.FX {
		if strings.EqualFold(c.FX[i].Currency, currency) {
			return &c.FX[i]
		}
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ParseFlag interprets a loose boolean such as a query parameter or env var.
// Accepts 1, true, on and yes in any case.
func ParseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if s == "0" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
