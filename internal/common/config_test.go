package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 5000)
	}
	if cfg.BaseCurrency != "TWD" {
		t.Errorf("BaseCurrency default = %q, want %q", cfg.BaseCurrency, "TWD")
	}
	assert.Equal(t, 60*time.Second, cfg.Quotes.GetTTLFast())
	assert.Equal(t, 5*time.Minute, cfg.Quotes.GetTTLNormal())
	assert.Equal(t, time.Hour, cfg.Quotes.GetTTLLong())
	assert.Equal(t, 10*time.Second, cfg.Quotes.GetFetchTimeout())
	assert.Equal(t, time.Duration(0), cfg.Scheduler.GetRefreshInterval())
	require.Len(t, cfg.Quotes.Markets, 1)
	assert.Equal(t, ".TW", cfg.Quotes.Markets[0].Suffix)
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("PORT", "7000")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)
	assert.Equal(t, 7000, cfg.Server.Port)

	t.Setenv("FOLIO_PORT", "9090")
	applyEnvOverrides(cfg)
	assert.Equal(t, 9090, cfg.Server.Port, "FOLIO_PORT takes precedence over PORT")
}

func TestConfig_WarmCacheEnvOverride(t *testing.T) {
	t.Setenv("FOLIO_WARM_CACHE", "off")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)
	assert.False(t, cfg.Scheduler.WarmCache)
}

func TestConfig_TTLNormalNeverBelowFast(t *testing.T) {
	q := QuotesConfig{TTLFast: "10m", TTLNormal: "1m"}
	assert.Equal(t, 10*time.Minute, q.GetTTLNormal())
}

func TestConfig_BadDurationFallsBack(t *testing.T) {
	y := YahooConfig{Timeout: "soon"}
	assert.Equal(t, 30*time.Second, y.GetTimeout())
}

func TestLoadConfig_LayersFilesAndSkipsMissing(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "folio.toml")
	local := filepath.Join(dir, "folio.local.toml")

	require.NoError(t, os.WriteFile(base, []byte(`
base_currency = "twd"

[server]
port = 6000

[[fx]]
currency = "usd"
symbol = "USDTWD=X"
fallback_rate = 31.5

[[books]]
name = "us"
currency = "usd"
exclude = ["VOO"]

  [[books.positions]]
  symbol = "VOO"
  shares = 70
  cost_per_share = 506.75

[[books]]
name = "tw"
resolve = true

  [[books.positions]]
  symbol = "0050.TW"
  shares = 10637
  cost_per_share = 41.58
`), 0o644))
	require.NoError(t, os.WriteFile(local, []byte("[server]\nport = 6100\n"), 0o644))

	cfg, err := LoadConfig(base, filepath.Join(dir, "missing.toml"), local)
	require.NoError(t, err)

	assert.Equal(t, 6100, cfg.Server.Port)
	assert.Equal(t, "TWD", cfg.BaseCurrency)
	require.Len(t, cfg.Books, 2)
	assert.Equal(t, "USD", cfg.Books[0].Currency)
	assert.Equal(t, "TWD", cfg.Books[1].Currency, "book currency defaults to base")
	assert.True(t, cfg.Books[1].Resolve)
	assert.Equal(t, 506.75, cfg.Books[0].Positions[0].CostPerShare)

	fx := cfg.FXFor("USD")
	require.NotNil(t, fx)
	assert.Equal(t, "USDTWD=X", fx.Symbol)
	assert.Equal(t, 31.5, fx.FallbackRate)
}

func TestLoadConfig_RejectsBookWithoutFX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[books]]
name = "eu"
currency = "EUR"
`), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fx pair")
}

func TestLoadConfig_RejectsDuplicateBooks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[books]]
name = "tw"
[[books]]
name = "tw"
`), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_RejectsMissingFallbackRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[fx]]
currency = "USD"
symbol = "USDTWD=X"

[[books]]
name = "us"
currency = "USD"
`), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback_rate")
}

func TestLoadConfig_UnusedPairNeedsNoFallbackRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[fx]]
currency = "JPY"
symbol = "JPYTWD=X"

[[books]]
name = "tw"
`), 0o644))

	_, err := LoadConfig(path)
	require.NoError(t, err)
}

func TestLoadConfig_RejectsNegativePositions(t *testing.T) {
	tests := []struct {
		name     string
		position string
	}{
		{"negative shares", "shares = -10\ncost_per_share = 5"},
		{"negative cost", "shares = 10\ncost_per_share = -5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "folio.toml")
			require.NoError(t, os.WriteFile(path, []byte(`
[[books]]
name = "tw"

[[books.positions]]
symbol = "0050.TW"
`+tt.position+"\n"), 0o644))

			_, err := LoadConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must not be negative")
		})
	}
}

func TestParseFlag(t *testing.T) {
	for _, v := range []string{"1", "true", "on", "yes", "TRUE", " Yes "} {
		assert.True(t, ParseFlag(v), v)
	}
	for _, v := range []string{"", "0", "false", "off", "no", "y"} {
		assert.False(t, ParseFlag(v), v)
	}
}

func TestIsFresh(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, IsFresh(now.Add(-30*time.Second), now, time.Minute))
	assert.False(t, IsFresh(now.Add(-time.Minute), now, time.Minute))
	assert.False(t, IsFresh(time.Time{}, now, time.Minute))
}

func TestLoadConfig_SampleFile(t *testing.T) {
	t.Setenv("FOLIO_BASE_CURRENCY", "")
	cfg, err := LoadConfig("../../config/folio.toml")
	require.NoError(t, err)

	require.Len(t, cfg.Books, 2)
	us, tw := cfg.Books[0], cfg.Books[1]
	assert.Equal(t, "USD", us.Currency)
	assert.Len(t, us.Positions, 25)
	assert.Contains(t, us.Exclude, "SGOV")
	assert.True(t, tw.Resolve)
	assert.Len(t, tw.Positions, 4)

	require.Len(t, cfg.Quotes.Markets, 1)
	assert.Equal(t, []string{".TW", ".TWO", "", ".TW:US"}, cfg.Quotes.Markets[0].Variants)
	assert.Len(t, cfg.Watchlist, 7)
	require.NotNil(t, cfg.FXFor("USD"))
}
