// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"

	"github.com/bobmcallan/folio/internal/models"
)

// HistoryProvider fetches daily closes from an external market-data source.
// An empty series with a nil error means the provider had no data for the
// query, which callers treat the same as a failure.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, symbol string, q models.HistoryQuery) (models.TimeSeries, error)
}
