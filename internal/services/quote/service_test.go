package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/cache"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// --- Mocks ---

type mockResponse struct {
	series models.TimeSeries
	err    error
	block  bool // wait for the context to end
}

type mockProvider struct {
	mu        sync.Mutex
	responses map[string]mockResponse // "symbol|period" or "symbol|range"
	calls     []string
}

func newMockProvider() *mockProvider {
	return &mockProvider{responses: make(map[string]mockResponse)}
}

func (m *mockProvider) set(symbol, shape string, r mockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[symbol+"|"+shape] = r
}

func (m *mockProvider) FetchHistory(ctx context.Context, symbol string, q models.HistoryQuery) (models.TimeSeries, error) {
	shape := q.Period
	if shape == "" {
		shape = "range"
	}
	key := symbol + "|" + shape

	m.mu.Lock()
	m.calls = append(m.calls, key)
	r, ok := m.responses[key]
	m.mu.Unlock()

	if !ok {
		return nil, errors.New("unknown symbol")
	}
	if r.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return r.series, r.err
}

func (m *mockProvider) callCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == key {
			n++
		}
	}
	return n
}

func bars(closes ...float64) models.TimeSeries {
	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	out := make(models.TimeSeries, len(closes))
	for i, c := range closes {
		out[i] = models.Bar{Date: day.AddDate(0, 0, i), Close: models.Known(c)}
	}
	return out
}

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newTestService(p *mockProvider, clock *testClock) *Service {
	qc := cache.New(cache.WithClock(clock.now))
	resolver := NewResolver(common.DefaultMarketRules(), common.NewSilentLogger())
	svc := NewService(p, qc, resolver, Options{FetchTimeout: 50 * time.Millisecond}, common.NewSilentLogger())
	svc.now = clock.now
	return svc
}

// --- Tests ---

func TestLatestClose_ShortWindow(t *testing.T) {
	p := newMockProvider()
	p.set("VOO", "5d", mockResponse{series: bars(500, 502.5)})
	svc := newTestService(p, &testClock{t: time.Now()})

	got := svc.LatestClose(context.Background(), "VOO")
	if got != models.Known(502.5) {
		t.Errorf("expected 502.5, got %v", got)
	}
	if n := p.callCount("VOO|1mo"); n != 0 {
		t.Errorf("expected no widening when short window has data, got %d wide calls", n)
	}
}

func TestLatestClose_WidensWhenShortWindowEmpty(t *testing.T) {
	p := newMockProvider()
	p.set("00687B.TW", "5d", mockResponse{series: models.TimeSeries{}})
	p.set("00687B.TW", "1mo", mockResponse{series: bars(100, 101.5)})
	svc := newTestService(p, &testClock{t: time.Now()})

	got := svc.LatestClose(context.Background(), "00687B.TW")
	if got != models.Known(101.5) {
		t.Errorf("expected 101.5 from widened window, got %v", got)
	}
}

func TestLatestClose_StaleAfterProviderFailure(t *testing.T) {
	clock := &testClock{t: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)}
	p := newMockProvider()
	p.set("GLD", "5d", mockResponse{series: bars(300.1)})
	svc := newTestService(p, clock)

	if got := svc.LatestClose(context.Background(), "GLD"); got != models.Known(300.1) {
		t.Fatalf("expected 300.1, got %v", got)
	}

	clock.t = clock.t.Add(time.Hour)
	p.set("GLD", "5d", mockResponse{err: errors.New("503")})
	p.set("GLD", "1mo", mockResponse{err: errors.New("503")})

	if got := svc.LatestClose(context.Background(), "GLD"); got != models.Known(300.1) {
		t.Errorf("expected stale 300.1 after provider failure, got %v", got)
	}
}

func TestLatestClose_UnavailableWithoutPriorSuccess(t *testing.T) {
	p := newMockProvider()
	p.set("BAD", "5d", mockResponse{err: errors.New("404")})
	p.set("BAD", "1mo", mockResponse{err: errors.New("404")})
	svc := newTestService(p, &testClock{t: time.Now()})

	if got := svc.LatestClose(context.Background(), "BAD"); got != models.Unavailable {
		t.Errorf("expected Unavailable, got %v", got)
	}
}

func TestLatestClose_TimeoutIsUnavailable(t *testing.T) {
	p := newMockProvider()
	p.set("SLOW", "5d", mockResponse{block: true})
	p.set("SLOW", "1mo", mockResponse{block: true})
	svc := newTestService(p, &testClock{t: time.Now()})

	start := time.Now()
	got := svc.LatestClose(context.Background(), "SLOW")
	if got != models.Unavailable {
		t.Errorf("expected Unavailable after timeout, got %v", got)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("expected fetch deadline to bound the call, took %s", elapsed)
	}
}

func TestLatestClose_FreshCacheSkipsProvider(t *testing.T) {
	clock := &testClock{t: time.Now()}
	p := newMockProvider()
	p.set("KO", "5d", mockResponse{series: bars(68)})
	svc := newTestService(p, clock)

	svc.LatestClose(context.Background(), "KO")
	clock.t = clock.t.Add(30 * time.Second)
	svc.LatestClose(context.Background(), "KO")

	if n := p.callCount("KO|5d"); n != 1 {
		t.Errorf("expected 1 provider call within TTL, got %d", n)
	}

	clock.t = clock.t.Add(time.Minute)
	svc.LatestClose(context.Background(), "KO")
	if n := p.callCount("KO|5d"); n != 2 {
		t.Errorf("expected refetch after TTL, got %d calls", n)
	}
}

func TestQuote_ResolvesAlternateListing(t *testing.T) {
	p := newMockProvider()
	// 0050.TW fails on both windows; the OTC listing has data
	p.set("0050.TWO", "5d", mockResponse{series: bars(180.5)})
	svc := newTestService(p, &testClock{t: time.Now()})

	got := svc.Quote(context.Background(), "0050.TW")
	if got != models.Known(180.5) {
		t.Errorf("expected 180.5 via .TWO, got %v", got)
	}
	if n := p.callCount("0050|5d"); n != 0 {
		t.Errorf("expected later candidates to be skipped, got %d calls for bare symbol", n)
	}
}

func TestQuote_PlainSymbolSingleCandidate(t *testing.T) {
	p := newMockProvider()
	svc := newTestService(p, &testClock{t: time.Now()})

	if got := svc.Quote(context.Background(), "NVDA"); got != models.Unavailable {
		t.Errorf("expected Unavailable, got %v", got)
	}
	if len(p.calls) != 2 {
		t.Errorf("expected one candidate tried on two windows, got calls %v", p.calls)
	}
}

func TestHistoricalSeries(t *testing.T) {
	clock := &testClock{t: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)}
	p := newMockProvider()
	p.set("VOO", "range", mockResponse{series: bars(400, 410, 420)})
	svc := newTestService(p, clock)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	got := svc.HistoricalSeries(context.Background(), "VOO", start, end)
	if len(got) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(got))
	}

	// Long TTL: a second call within the hour is served from cache
	clock.t = clock.t.Add(30 * time.Minute)
	svc.HistoricalSeries(context.Background(), "VOO", start, end)
	if n := p.callCount("VOO|range"); n != 1 {
		t.Errorf("expected 1 provider call, got %d", n)
	}

	// Failure after success falls back to the stale series
	clock.t = clock.t.Add(2 * time.Hour)
	p.set("VOO", "range", mockResponse{err: errors.New("down")})
	got = svc.HistoricalSeries(context.Background(), "VOO", start, end)
	if len(got) != 3 {
		t.Errorf("expected stale series of 3 bars, got %d", len(got))
	}
}

func TestHistoricalSeries_FailureIsEmpty(t *testing.T) {
	p := newMockProvider()
	svc := newTestService(p, &testClock{t: time.Now()})

	got := svc.HistoricalSeries(context.Background(), "NONE",
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil series, got %v", got)
	}
}

func TestHistoricalSeries_InvertedRange(t *testing.T) {
	p := newMockProvider()
	svc := newTestService(p, &testClock{t: time.Now()})

	got := svc.HistoricalSeries(context.Background(), "VOO",
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if len(got) != 0 {
		t.Errorf("expected empty series, got %d bars", len(got))
	}
	if len(p.calls) != 0 {
		t.Errorf("expected no provider calls, got %v", p.calls)
	}
}
