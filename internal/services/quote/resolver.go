package quote

import (
	"context"
	"strings"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// CloseFunc looks up the latest close for one provider symbol.
type CloseFunc func(ctx context.Context, symbol string) models.Value

// Resolver maps a logical ticker to the provider symbols it may trade under.
// Rules are matched by suffix, first match wins.
type Resolver struct {
	rules  []models.MarketRule
	logger *common.Logger
}

// NewResolver creates a resolver over the given market rules.
func NewResolver(rules []models.MarketRule, logger *common.Logger) *Resolver {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Resolver{rules: rules, logger: logger}
}

// Candidates returns the provider symbols to try for symbol, in order and
// without duplicates. A symbol no rule matches is its only candidate.
func (r *Resolver) Candidates(symbol string) []string {
	for _, rule := range r.rules {
		if rule.Suffix == "" || !strings.HasSuffix(strings.ToUpper(symbol), strings.ToUpper(rule.Suffix)) {
			continue
		}
		base := symbol[:len(symbol)-len(rule.Suffix)]
		if base == "" {
			break
		}

		out := make([]string, 0, len(rule.Variants))
		seen := make(map[string]bool, len(rule.Variants))
		for _, v := range rule.Variants {
			c := base + v
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
		}
		if len(out) > 0 {
			return out
		}
		break
	}
	return []string{symbol}
}

// Resolve tries each candidate through latest and returns the first known
// price with the candidate that produced it. Remaining candidates are not
// queried. With no known price the result is Unavailable and "".
func (r *Resolver) Resolve(ctx context.Context, symbol string, latest CloseFunc) (string, models.Value) {
	candidates := r.Candidates(symbol)
	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		if v := latest(ctx, c); v.IsKnown() {
			if i > 0 {
				r.logger.Debug().Str("symbol", symbol).Str("resolved", c).Int("attempt", i+1).Msg("Resolved via alternate listing")
			}
			return c, v
		}
	}

	r.logger.Warn().Str("symbol", symbol).Strs("candidates", candidates).Msg("No listing produced a price")
	return "", models.Unavailable
}
