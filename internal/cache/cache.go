// Package cache holds the process-wide quote cache.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// Key identifies one provider query: a symbol plus either a relative period
// or an explicit date range.
type Key struct {
	Symbol string
	Period string
	Start  string
	End    string
}

// PeriodKey builds a key for a relative lookback such as "5d".
func PeriodKey(symbol, period string) Key {
	return Key{Symbol: symbol, Period: period}
}

// RangeKey builds a key for an inclusive date range.
func RangeKey(symbol string, start, end time.Time) Key {
	return Key{Symbol: symbol, Start: start.Format("2006-01-02"), End: end.Format("2006-01-02")}
}

func (k Key) String() string {
	if k.Period != "" {
		return fmt.Sprintf("%s[%s]", k.Symbol, k.Period)
	}
	return fmt.Sprintf("%s[%s..%s]", k.Symbol, k.Start, k.End)
}

// Entry is the last successful fetch for a key.
type Entry struct {
	FetchedAt time.Time
	Data      models.TimeSeries
}

// FetchFunc performs the provider call for a cache miss.
type FetchFunc func(ctx context.Context) (models.TimeSeries, error)

// QuoteCache maps keys to the last successfully fetched series.
// Entries live for the lifetime of the process and are only replaced by a
// successful non-empty fetch. Thread-safe; the lock is never held across a
// fetch.
type QuoteCache struct {
	mu      sync.Mutex
	entries map[Key]Entry
	now     func() time.Time
	logger  *common.Logger
}

// Option configures a QuoteCache
type Option func(*QuoteCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *QuoteCache) {
		c.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(c *QuoteCache) {
		c.logger = logger
	}
}

// New creates an empty QuoteCache.
func New(opts ...Option) *QuoteCache {
	c := &QuoteCache{
		entries: make(map[Key]Entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = common.NewSilentLogger()
	}
	return c
}

// Get returns the entry for key regardless of age.
func (c *QuoteCache) Get(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok
}

// Put stores data for key stamped with the current time.
func (c *QuoteCache) Put(key Key, data models.TimeSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = Entry{FetchedAt: c.now(), Data: data}
}

// Len returns the number of cached keys.
func (c *QuoteCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// ReadThrough returns fresh cached data for key, or fetches it.
//
// A cached entry younger than ttl with usable data is returned as-is.
// Otherwise fetch is called; a non-empty result is stored and returned.
// When the fetch fails or comes back empty, the previous data is returned
// however old it is, and with nothing cached the result is an empty series.
// ReadThrough never returns an error.
func (c *QuoteCache) ReadThrough(ctx context.Context, key Key, ttl time.Duration, fetch FetchFunc) models.TimeSeries {
	prior, hasPrior := c.Get(key)
	if hasPrior && !prior.Data.Empty() && common.IsFresh(prior.FetchedAt, c.now(), ttl) {
		return prior.Data
	}

	data, err := fetch(ctx)
	if err == nil && !data.Empty() {
		c.Put(key, data)
		return data
	}

	if err != nil {
		c.logger.Debug().Str("key", key.String()).Err(err).Msg("Quote fetch failed")
	} else {
		c.logger.Debug().Str("key", key.String()).Msg("Quote fetch returned no data")
	}

	// Re-read: an overlapping request may have stored data since the first look.
	if latest, ok := c.Get(key); ok && !latest.Data.Empty() {
		c.logger.Warn().
			Str("key", key.String()).
			Str("age", c.now().Sub(latest.FetchedAt).Round(time.Second).String()).
			Msg("Serving stale quote data")
		return latest.Data
	}
	return models.TimeSeries{}
}
