// Package quote provides cached price lookups with window widening and
// symbol resolution.
package quote

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/cache"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Options controls lookback windows, freshness and the per-fetch deadline.
type Options struct {
	ShortWindow  string
	WideWindow   string
	TTLFast      time.Duration
	TTLNormal    time.Duration
	TTLLong      time.Duration
	FetchTimeout time.Duration
}

// OptionsFromConfig reads Options from the quotes section.
func OptionsFromConfig(cfg *common.QuotesConfig) Options {
	return Options{
		ShortWindow:  cfg.ShortWindow,
		WideWindow:   cfg.WideWindow,
		TTLFast:      cfg.GetTTLFast(),
		TTLNormal:    cfg.GetTTLNormal(),
		TTLLong:      cfg.GetTTLLong(),
		FetchTimeout: cfg.GetFetchTimeout(),
	}
}

func (o *Options) applyDefaults() {
	if o.ShortWindow == "" {
		o.ShortWindow = "5d"
	}
	if o.WideWindow == "" {
		o.WideWindow = "1mo"
	}
	if o.TTLFast <= 0 {
		o.TTLFast = common.FreshnessFastQuote
	}
	if o.TTLNormal < o.TTLFast {
		o.TTLNormal = o.TTLFast
	}
	if o.TTLLong <= 0 {
		o.TTLLong = common.FreshnessHistory
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 10 * time.Second
	}
}

// Service implements QuoteService over a history provider and a quote cache.
type Service struct {
	provider interfaces.HistoryProvider
	cache    *cache.QuoteCache
	resolver *Resolver
	opts     Options
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing
}

// NewService creates a new quote service.
func NewService(provider interfaces.HistoryProvider, qc *cache.QuoteCache, resolver *Resolver, opts Options, logger *common.Logger) *Service {
	opts.applyDefaults()
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if resolver == nil {
		resolver = NewResolver(nil, logger)
	}
	return &Service{
		provider: provider,
		cache:    qc,
		resolver: resolver,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// fetcher binds a provider query to the per-fetch deadline.
func (s *Service) fetcher(symbol string, q models.HistoryQuery) cache.FetchFunc {
	return func(ctx context.Context) (models.TimeSeries, error) {
		ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
		return s.provider.FetchHistory(ctx, symbol, q)
	}
}

// RecentSeries returns the short window for symbol. When that window holds
// no valid close (weekends, holidays, suspended trading) the wide window is
// tried under the normal TTL.
func (s *Service) RecentSeries(ctx context.Context, symbol string) models.TimeSeries {
	short := s.cache.ReadThrough(ctx, cache.PeriodKey(symbol, s.opts.ShortWindow), s.opts.TTLFast,
		s.fetcher(symbol, models.HistoryQuery{Period: s.opts.ShortWindow}))
	if !short.Empty() {
		return short
	}

	s.logger.Debug().Str("symbol", symbol).Str("window", s.opts.WideWindow).Msg("Short window empty, widening")

	return s.cache.ReadThrough(ctx, cache.PeriodKey(symbol, s.opts.WideWindow), s.opts.TTLNormal,
		s.fetcher(symbol, models.HistoryQuery{Period: s.opts.WideWindow}))
}

// LatestClose returns the most recent valid close for a provider symbol.
func (s *Service) LatestClose(ctx context.Context, symbol string) models.Value {
	return s.RecentSeries(ctx, symbol).LatestClose()
}

// Quote resolves a logical symbol through its market variants.
func (s *Service) Quote(ctx context.Context, symbol string) models.Value {
	_, v := s.resolver.Resolve(ctx, symbol, s.LatestClose)
	return v
}

// HistoricalSeries returns daily closes over [start, end]. A zero end means
// today. An inverted range yields an empty series.
func (s *Service) HistoricalSeries(ctx context.Context, symbol string, start, end time.Time) models.TimeSeries {
	if end.IsZero() {
		end = s.now()
	}
	if start.IsZero() || end.Before(start) {
		return models.TimeSeries{}
	}

	q := models.HistoryQuery{Start: start, End: end}
	return s.cache.ReadThrough(ctx, cache.RangeKey(symbol, start, end), s.opts.TTLLong, s.fetcher(symbol, q))
}

// CacheSize reports the number of cached queries.
func (s *Service) CacheSize() int {
	return s.cache.Len()
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
