package quote

import (
	"context"
	"testing"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResolver_CandidatesForTaiwanTicker(t *testing.T) {
	r := NewResolver(common.DefaultMarketRules(), nil)
	assert.Equal(t,
		[]string{"0050.TW", "0050.TWO", "0050", "0050.TW:US"},
		r.Candidates("0050.TW"))
}

func TestResolver_CandidatesDeduplicated(t *testing.T) {
	r := NewResolver([]models.MarketRule{
		{Suffix: ".TW", Variants: []string{".TW", ".TWO", ".TW", "", ".TWO"}},
	}, nil)
	assert.Equal(t, []string{"006208.TW", "006208.TWO", "006208"}, r.Candidates("006208.TW"))
}

func TestResolver_UnmatchedSymbolIsSingleCandidate(t *testing.T) {
	r := NewResolver(common.DefaultMarketRules(), nil)
	assert.Equal(t, []string{"GOOGL"}, r.Candidates("GOOGL"))
	assert.Equal(t, []string{"USDTWD=X"}, r.Candidates("USDTWD=X"))
	// the OTC suffix does not end in ".TW"
	assert.Equal(t, []string{"6488.TWO"}, r.Candidates("6488.TWO"))
}

func TestResolver_SuffixOnlyIsSingleCandidate(t *testing.T) {
	r := NewResolver(common.DefaultMarketRules(), nil)
	assert.Equal(t, []string{".TW"}, r.Candidates(".TW"))
}

func TestResolver_StopsAtFirstSuccess(t *testing.T) {
	r := NewResolver([]models.MarketRule{
		{Suffix: ".X", Variants: []string{".A", ".B", ".C"}},
	}, nil)

	var queried []string
	latest := func(_ context.Context, s string) models.Value {
		queried = append(queried, s)
		switch s {
		case "T.B":
			return models.Known(42)
		case "T.C":
			return models.Known(99)
		}
		return models.Unavailable
	}

	sym, v := r.Resolve(context.Background(), "T.X", latest)
	assert.Equal(t, "T.B", sym)
	assert.Equal(t, models.Known(42), v)
	assert.Equal(t, []string{"T.A", "T.B"}, queried, "C must never be queried")
}

func TestResolver_AllFail(t *testing.T) {
	r := NewResolver(common.DefaultMarketRules(), nil)
	calls := 0
	sym, v := r.Resolve(context.Background(), "00713.TW", func(context.Context, string) models.Value {
		calls++
		return models.Unavailable
	})
	assert.Equal(t, "", sym)
	assert.Equal(t, models.Unavailable, v)
	assert.Equal(t, 4, calls)
}

func TestResolver_CancelledContextStops(t *testing.T) {
	r := NewResolver(common.DefaultMarketRules(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, v := r.Resolve(ctx, "0050.TW", func(context.Context, string) models.Value {
		calls++
		return models.Unavailable
	})
	assert.Equal(t, models.Unavailable, v)
	assert.Equal(t, 0, calls)
}
