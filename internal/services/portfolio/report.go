// Package portfolio prices configured holdings and builds the dashboard report.
package portfolio

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// Service builds reports over the configured books.
type Service struct {
	config *common.Config
	quotes interfaces.QuoteService
	logger *common.Logger
	now    func() time.Time
}

// NewService creates a new report service.
func NewService(config *common.Config, quotes interfaces.QuoteService, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		config: config,
		quotes: quotes,
		logger: logger,
		now:    time.Now,
	}
}

var _ interfaces.ReportService = (*Service)(nil)

// BuildReport prices every book and rolls the totals up into the base
// currency. Books and exchange rates are fetched in parallel.
//
// A book's exclusion list always defines its selected totals. HideExcluded
// only changes the weighting: weights are then taken against the selected
// market value and excluded rows carry no weight.
func (s *Service) BuildReport(ctx context.Context, opts models.ReportOptions) *models.Report {
	start := s.now()

	var (
		wg    sync.WaitGroup
		books = make([]models.BookReport, len(s.config.Books))
		rates map[string]models.ExchangeRate
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		rates = s.exchangeRates(ctx)
	}()

	for i := range s.config.Books {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			books[i] = s.buildBook(ctx, &s.config.Books[i], opts)
		}(i)
	}
	wg.Wait()

	report := &models.Report{
		GeneratedAt:  start.UTC(),
		BaseCurrency: s.config.BaseCurrency,
		HideExcluded: opts.HideExcluded,
		Books:        books,
	}

	base := make([]models.Totals, 0, len(books))
	for i := range report.Books {
		b := &report.Books[i]
		b.Rate = 1
		if r, ok := rates[b.Currency]; ok {
			b.Rate = r.Rate
		}
		b.Base = b.Totals.Convert(b.Rate)
		base = append(base, b.Base)
	}
	report.Total = models.SumTotals(base...)

	for _, c := range sortedKeys(rates) {
		report.Rates = append(report.Rates, rates[c])
	}

	unavailable := 0
	for _, b := range report.Books {
		for _, p := range b.Positions {
			if !p.Price.IsKnown() {
				unavailable++
			}
		}
	}

	s.logger.Info().
		Int("books", len(report.Books)).
		Int("unpriced", unavailable).
		Bool("hide_excluded", opts.HideExcluded).
		Str("elapsed", s.now().Sub(start).String()).
		Msg("Report built")

	return report
}

func (s *Service) buildBook(ctx context.Context, cfg *common.BookConfig, opts models.ReportOptions) models.BookReport {
	quote := s.quotes.LatestClose
	if cfg.Resolve {
		quote = s.quotes.Quote
	}

	aggOpts := AggregateOptions{Weighting: models.WeightByTotal}
	if len(cfg.Exclude) > 0 {
		aggOpts.Filter = ExcludeSymbols(cfg.Exclude)
		if opts.HideExcluded {
			aggOpts.Weighting = models.WeightBySelected
		}
	}

	agg := Aggregate(ctx, cfg.Positions, QuoteFunc(quote), aggOpts)

	book := models.BookReport{
		Name:      cfg.Name,
		Title:     cfg.Title,
		Currency:  cfg.Currency,
		Positions: agg.Positions,
		Totals:    agg.Totals,
		Selected:  agg.Totals,
		Excluded:  sortedUpper(cfg.Exclude),
	}
	if agg.Selected != nil {
		book.Selected = *agg.Selected
	}
	return book
}

// exchangeRates prices each foreign book currency in the base currency.
// An unavailable quote falls back to the configured rate.
func (s *Service) exchangeRates(ctx context.Context) map[string]models.ExchangeRate {
	rates := make(map[string]models.ExchangeRate)
	for _, b := range s.config.Books {
		if b.Currency == s.config.BaseCurrency {
			continue
		}
		if _, done := rates[b.Currency]; done {
			continue
		}
		fx := s.config.FXFor(b.Currency)
		if fx == nil {
			continue
		}

		r := models.ExchangeRate{
			Currency: b.Currency,
			Base:     s.config.BaseCurrency,
			Symbol:   fx.Symbol,
		}
		if px, ok := s.quotes.LatestClose(ctx, fx.Symbol).Get(); ok && px > 0 {
			r.Rate = px
			r.Live = true
		} else {
			r.Rate = fx.FallbackRate
			s.logger.Warn().
				Str("pair", fx.Symbol).
				Float64("fallback_rate", fx.FallbackRate).
				Msg("Exchange rate unavailable, using fallback")
		}
		rates[b.Currency] = r
	}
	return rates
}

// Allocation splits base-currency market value by category, falling back to
// the symbol for uncategorised positions. When the report hides excluded
// holdings only the selected rows count. Largest slice first.
func (s *Service) Allocation(report *models.Report) []models.Slice {
	byLabel := make(map[string]float64)
	for _, b := range report.Books {
		for _, p := range b.Positions {
			if report.HideExcluded && !p.Selected {
				continue
			}
			mv, ok := p.MarketValue.Get()
			if !ok || mv <= 0 {
				continue
			}
			label := p.Category
			if label == "" {
				label = p.Symbol
			}
			byLabel[label] += mv * b.Rate
		}
	}

	slices := make([]models.Slice, 0, len(byLabel))
	for label, v := range byLabel {
		slices = append(slices, models.Slice{Label: label, Value: v})
	}
	sort.Slice(slices, func(i, j int) bool {
		if slices[i].Value != slices[j].Value {
			return slices[i].Value > slices[j].Value
		}
		return slices[i].Label < slices[j].Label
	})
	return slices
}

// ExcludeSymbols returns a filter selecting positions not in symbols.
// Matching ignores case.
func ExcludeSymbols(symbols []string) func(models.Position) bool {
	set := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		set[strings.ToUpper(s)] = true
	}
	return func(p models.Position) bool {
		return !set[strings.ToUpper(p.Symbol)]
	}
}

func sortedUpper(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(s)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]models.ExchangeRate) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
