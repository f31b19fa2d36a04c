// Package report renders reports as markdown for terminal output.
package report

import (
	"bytes"
	"fmt"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/signals"
)

// FormatReport renders the dashboard report. When the report hides excluded
// holdings, excluded rows are left out of the tables but still count in the
// full book totals.
func FormatReport(r *models.Report) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Portfolio")
	doc.PlainText(fmt.Sprintf("Updated %s UTC", r.GeneratedAt.UTC().Format("2006-01-02 15:04")))
	doc.LF()

	for _, rate := range r.Rates {
		source := "live"
		if !rate.Live {
			source = "fallback"
		}
		doc.PlainText(fmt.Sprintf("%s/%s %s (%s)", rate.Currency, rate.Base, common.FormatNumber(rate.Rate, 4), source))
	}

	doc.H2(fmt.Sprintf("Total (%s)", r.BaseCurrency))
	doc.Table(totalsTable(r.Total, r.BaseCurrency))

	for _, b := range r.Books {
		title := b.Title
		if title == "" {
			title = b.Name
		}
		doc.H2(fmt.Sprintf("%s (%s)", title, b.Currency))
		if r.HideExcluded && len(b.Excluded) > 0 {
			doc.PlainText("Hidden: " + strings.Join(b.Excluded, ", "))
		}
		doc.Table(positionsTable(b, r.HideExcluded))

		doc.H3("Totals")
		rows := [][]string{totalsRow("All holdings", b.Totals, b.Currency)}
		if len(b.Excluded) > 0 {
			rows = append(rows, totalsRow("Selected", b.Selected, b.Currency))
		}
		if b.Currency != r.BaseCurrency {
			rows = append(rows, totalsRow("All holdings in "+r.BaseCurrency, b.Base, r.BaseCurrency))
		}
		doc.Table(md.TableSet{
			Header: []string{"View", "Market Value", "Cost", "Profit", "Return"},
			Rows:   rows,
		})
	}

	return doc.String()
}

func positionsTable(b models.BookReport, hideExcluded bool) md.TableSet {
	rows := make([][]string, 0, len(b.Positions))
	for _, p := range b.Positions {
		if hideExcluded && !p.Selected {
			continue
		}
		rows = append(rows, []string{
			p.Symbol,
			common.FormatValue(p.Price),
			common.FormatNumber(p.CostPerShare, 2),
			common.FormatNumber(p.Shares, 2),
			common.FormatValueMoney(p.MarketValue, b.Currency),
			common.FormatValuePct(p.Weight),
			common.FormatValuePct(p.ProfitPct),
		})
	}
	return md.TableSet{
		Header: []string{"Symbol", "Price", "Cost", "Shares", "Market Value", "Weight", "Return"},
		Rows:   rows,
	}
}

func totalsTable(t models.Totals, currency string) md.TableSet {
	return md.TableSet{
		Header: []string{"Market Value", "Cost", "Profit", "Return"},
		Rows: [][]string{{
			md.Bold(common.FormatMoney(t.MarketValue, currency)),
			common.FormatMoney(t.Cost, currency),
			common.FormatMoney(t.Profit, currency),
			common.FormatSignedPct(t.ProfitPct),
		}},
	}
}

func totalsRow(label string, t models.Totals, currency string) []string {
	return []string{
		label,
		common.FormatMoney(t.MarketValue, currency),
		common.FormatMoney(t.Cost, currency),
		common.FormatMoney(t.Profit, currency),
		common.FormatSignedPct(t.ProfitPct),
	}
}

// FormatWatchlist renders watchlist entries with their day change.
func FormatWatchlist(items []models.WatchItem) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Watchlist")
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			it.Symbol,
			it.Category,
			common.FormatPct(it.ExpenseRatio),
			common.FormatValue(it.LastClose),
			signedPct(it.DayChangePct),
			it.Description,
		})
	}
	doc.Table(md.TableSet{
		Header: []string{"Symbol", "Category", "Expense", "Close", "Day", "Description"},
		Rows:   rows,
	})
	return doc.String()
}

// FormatHistory renders the summary returns for a date range.
func FormatHistory(h models.History) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("%s %s to %s", h.Symbol, h.Start, h.End))

	valid := h.Series.ValidBars()
	first, last := common.NotAvailable, common.NotAvailable
	if len(valid) > 0 {
		first = common.FormatValue(valid[0].Close)
		last = common.FormatValue(valid[len(valid)-1].Close)
	}

	doc.Table(md.TableSet{
		Header: []string{"Measure", "Value"},
		Rows: [][]string{
			{"Trading days", fmt.Sprintf("%d", len(valid))},
			{"First close", first},
			{"Last close", last},
			{"Period return", signedPct(h.PeriodReturn)},
			{"Annualized return", signedPct(h.AnnualizedReturn)},
		},
	})

	tech := h.Technicals
	rsi := common.FormatValue(tech.RSI14)
	if v, ok := tech.RSI14.Get(); ok {
		rsi += " (" + signals.ClassifyRSI(v) + ")"
	}
	doc.H2("Technicals")
	doc.Table(md.TableSet{
		Header: []string{"Indicator", "Value"},
		Rows: [][]string{
			{"Range high", common.FormatValue(tech.High)},
			{"Range low", common.FormatValue(tech.Low)},
			{"Max drawdown", common.FormatValuePct(tech.MaxDrawdownPct)},
			{"SMA 20", common.FormatValue(tech.SMA20)},
			{"SMA 50", common.FormatValue(tech.SMA50)},
			{"SMA 200", common.FormatValue(tech.SMA200)},
			{"RSI 14", rsi},
			{"Trend", string(tech.Trend)},
			{"Crossover", strings.ReplaceAll(tech.Crossover, "_", " ")},
		},
	})
	return doc.String()
}

func signedPct(v models.Value) string {
	f, ok := v.Get()
	if !ok {
		return common.NotAvailable
	}
	return common.FormatSignedPct(f)
}
