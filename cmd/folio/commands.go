package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/portfolio"
	"github.com/bobmcallan/folio/internal/services/report"
)

type reportCmd struct {
	hideExcluded bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "price every book and print the dashboard" }
func (*reportCmd) Usage() string {
	return `report [-hide-etf]

  Prices every configured book, converts foreign books into the base
  currency and prints the positions and totals.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.hideExcluded, "hide-etf", false, "hide excluded holdings and weight by the remaining selection")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	r := a.ReportService.BuildReport(ctx, models.ReportOptions{HideExcluded: c.hideExcluded})
	if err := render(os.Stdout, report.FormatReport(r)); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type watchlistCmd struct{}

func (*watchlistCmd) Name() string     { return "watchlist" }
func (*watchlistCmd) Synopsis() string { return "print the watchlist with day changes" }
func (*watchlistCmd) Usage() string {
	return `watchlist

  Prints each watched instrument with its last close and day change.
`
}

func (*watchlistCmd) SetFlags(*flag.FlagSet) {}

func (*watchlistCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	if err := render(os.Stdout, report.FormatWatchlist(a.WatchlistService.Watchlist(ctx))); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type quoteCmd struct {
	raw bool
}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "print the latest close of one or more symbols" }
func (*quoteCmd) Usage() string {
	return `quote [-raw] <symbol>...

  Prints the latest close. Symbols are resolved through their market
  variants (0050.TW also tries 0050.TWO) unless -raw is set.
`
}

func (c *quoteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.raw, "raw", false, "query the provider symbol as given")
}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "at least one symbol is required")
		return subcommands.ExitUsageError
	}
	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	status := subcommands.ExitSuccess
	for _, symbol := range f.Args() {
		symbol = strings.ToUpper(symbol)
		var price models.Value
		if c.raw {
			price = a.QuoteService.LatestClose(ctx, symbol)
		} else {
			price = a.QuoteService.Quote(ctx, symbol)
		}
		if !price.IsKnown() {
			status = subcommands.ExitFailure
		}
		fmt.Printf("%-12s %s\n", symbol, common.FormatValue(price))
	}
	return status
}

type historyCmd struct {
	from string
	to   string
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "summarise daily closes over a date range" }
func (*historyCmd) Usage() string {
	return `history [-from YYYY-MM-DD] [-to YYYY-MM-DD] <symbol>

  Prints the period and annualized return of a symbol. The range defaults
  to the year ending today.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "first day of the range (default: one year before -to)")
	f.StringVar(&c.to, "to", "", "last day of the range (default: today)")
}

func (c *historyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "exactly one symbol is required")
		return subcommands.ExitUsageError
	}
	from, to, err := parseRange(c.from, c.to, time.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		return fail(err)
	}
	defer a.Close()

	h := portfolio.History(ctx, a.QuoteService, strings.ToUpper(f.Arg(0)), from, to)
	if err := render(os.Stdout, report.FormatHistory(h)); err != nil {
		return fail(err)
	}
	if len(h.Series.ValidBars()) == 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// parseRange applies the one-year default and rejects inverted ranges.
func parseRange(from, to string, now time.Time) (time.Time, time.Time, error) {
	end := now.UTC().Truncate(24 * time.Hour)
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -to %q: want YYYY-MM-DD", to)
		}
		end = t
	}
	start := end.AddDate(-1, 0, 0)
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid -from %q: want YYYY-MM-DD", from)
		}
		start = t
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("-from %s is after -to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return start, end, nil
}

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print version information" }
func (*versionCmd) Usage() string          { return "version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	common.LoadVersionFromFile()
	fmt.Println("folio " + common.GetFullVersion())
	return subcommands.ExitSuccess
}
