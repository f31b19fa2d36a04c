package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/bobmcallan/folio/internal/common"
)

// registerRoutes sets up the dashboard, REST API and chart routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Dashboard
	mux.HandleFunc("/", s.handleDashboard)

	// System
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/diagnostics", s.handleDiagnostics)

	// Portfolio and market data
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/allocation", s.handleAllocation)
	mux.HandleFunc("/api/quote/", s.handleQuote)
	mux.HandleFunc("/api/history/", s.handleHistory)
	mux.HandleFunc("/api/watchlist", s.handleWatchlist)

	// Charts
	mux.HandleFunc("/chart/allocation.png", s.handleAllocationChart)
	mux.HandleFunc("/chart/history/", s.handleHistoryChart)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	cacheEntries := 0
	if s.app.QuoteCache != nil {
		cacheEntries = s.app.QuoteCache.Len()
	}

	positions := 0
	for _, b := range s.app.Config.Books {
		positions += len(b.Positions)
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":       common.GetVersion(),
		"environment":   s.app.Config.Environment,
		"uptime":        time.Since(s.app.StartupTime).Round(time.Second).String(),
		"base_currency": s.app.Config.BaseCurrency,
		"books":         len(s.app.Config.Books),
		"positions":     positions,
		"watchlist":     len(s.app.Config.Watchlist),
		"cache_entries": cacheEntries,
		"goroutines":    runtime.NumGoroutine(),
		"heap_alloc_mb": float64(mem.HeapAlloc) / 1024 / 1024,
	})
}
