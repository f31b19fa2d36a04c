package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/folio/internal/cache"
	"github.com/bobmcallan/folio/internal/clients/yahoo"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/services/portfolio"
	"github.com/bobmcallan/folio/internal/services/quote"
)

// App holds all initialized services and clients.
// It is the shared core used by both cmd/folio-server and cmd/folio.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	YahooClient      *yahoo.Client
	QuoteCache       *cache.QuoteCache
	QuoteService     interfaces.QuoteService
	ReportService    interfaces.ReportService
	WatchlistService interfaces.WatchlistService
	StartupTime      time.Time

	schedulerCancel context.CancelFunc
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, FOLIO_CONFIG,
// folio.toml next to the binary, then config/folio.toml for development.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and initializes all services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative log file path to binary directory
	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}

	return NewAppFromConfig(config, common.NewLoggerFromConfig(config.Logging)), nil
}

// NewAppFromConfig wires services around an already loaded configuration.
func NewAppFromConfig(config *common.Config, logger *common.Logger) *App {
	startupStart := time.Now()
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	yahooCfg := config.Clients.Yahoo
	clientOpts := []yahoo.ClientOption{
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(yahooCfg.RateLimit),
		yahoo.WithTimeout(yahooCfg.GetTimeout()),
		yahoo.WithUserAgent(yahooCfg.UserAgent),
	}
	if yahooCfg.BaseURL != "" {
		clientOpts = append(clientOpts, yahoo.WithBaseURL(yahooCfg.BaseURL))
	}
	yahooClient := yahoo.NewClient(clientOpts...)

	quoteCache := cache.New(cache.WithLogger(logger))
	resolver := quote.NewResolver(config.Quotes.Markets, logger)
	quoteService := quote.NewService(yahooClient, quoteCache, resolver, quote.OptionsFromConfig(&config.Quotes), logger)
	reportService := portfolio.NewService(config, quoteService, logger)
	watchlistService := portfolio.NewWatchlistService(config.Watchlist, quoteService)

	a := &App{
		Config:           config,
		Logger:           logger,
		YahooClient:      yahooClient,
		QuoteCache:       quoteCache,
		QuoteService:     quoteService,
		ReportService:    reportService,
		WatchlistService: watchlistService,
		StartupTime:      startupStart,
	}

	logger.Info().
		Int("books", len(config.Books)).
		Int("watchlist", len(config.Watchlist)).
		Str("startup", time.Since(startupStart).String()).
		Msg("App initialized")

	return a
}

// Close releases all resources held by the App.
// Shutdown order: cancel scheduler, cancel warm cache.
func (a *App) Close() {
	if a.schedulerCancel != nil {
		a.schedulerCancel()
		a.schedulerCancel = nil
	}
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
}

// StartWarmCache launches the background cache warming goroutine.
// It does nothing when warming is disabled.
func (a *App) StartWarmCache() {
	if !a.Config.Scheduler.WarmCache {
		a.Logger.Info().Msg("Warm cache: disabled")
		return
	}
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 5*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		warmCache(warmCtx, a.ReportService, a.WatchlistService, a.Logger)
	}()
}

// StartPriceScheduler launches the background price refresh goroutine.
// A zero refresh interval disables it.
func (a *App) StartPriceScheduler() {
	interval := a.Config.Scheduler.GetRefreshInterval()
	if interval <= 0 {
		return
	}
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	a.schedulerCancel = schedulerCancel
	go startPriceScheduler(schedulerCtx, a.ReportService, a.WatchlistService, a.Logger, interval)
}
