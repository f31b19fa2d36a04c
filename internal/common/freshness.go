package common

import "time"

// Default freshness TTLs for cached quote data
const (
	FreshnessFastQuote   = 60 * time.Second // latest close, short window
	FreshnessNormalQuote = 5 * time.Minute  // latest close, widened window
	FreshnessHistory     = 1 * time.Hour    // date-ranged history
)

// IsFresh returns true if the given timestamp is within the TTL at now.
func IsFresh(updated, now time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return now.Sub(updated) < ttl
}
