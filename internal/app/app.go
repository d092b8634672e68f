package app

import (
	"context"
	"net/http"
	"time"

	"github.com/rbakker/trmnl-standings/external/leaguesite"
	"github.com/rbakker/trmnl-standings/internal/config"
	"github.com/rbakker/trmnl-standings/internal/interfaces/httpapi"
	"github.com/rbakker/trmnl-standings/internal/observability"
	"github.com/rbakker/trmnl-standings/internal/platform/cache"
	"github.com/rbakker/trmnl-standings/internal/platform/logging"
	"github.com/rbakker/trmnl-standings/internal/platform/resilience"
	"github.com/rbakker/trmnl-standings/internal/usecase"
)

// App wires the scrapers, the standings service and the HTTP server
// together and owns the lifecycle of the background pieces.
type App struct {
	Server    *http.Server
	refresher *usecase.Refresher

	pprofServer     *http.Server
	shutdownUptrace func(context.Context) error
	stopPyroscope   func() error
	logger          *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}

	shutdownUptrace, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, err
	}
	stopPyroscope, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return nil, err
	}
	pprofServer, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return nil, err
	}

	client := leaguesite.NewClient(leaguesite.ClientConfig{
		Timeout:    cfg.ScrapeTimeout,
		UserAgent:  cfg.ScrapeUserAgent,
		MaxRetries: cfg.ScrapeMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ScrapeCircuitEnabled,
			FailureThreshold: cfg.ScrapeCircuitFailureCount,
			OpenTimeout:      cfg.ScrapeCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ScrapeCircuitHalfOpenMax,
		},
	})

	providers := []usecase.StandingsProvider{
		leaguesite.NewEredivisieProvider(client, cfg.ScrapeEredivisieURL),
		leaguesite.NewKKDProvider(client, cfg.ScrapeKKDURL),
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	service := usecase.NewStandingsService(providers, cfg.TeamLimitByLeague, store, logger)

	var refresher *usecase.Refresher
	if cfg.RefreshEnabled {
		refresher = usecase.NewRefresher(service, cfg.RefreshInterval, cfg.RefreshMaxWorkers, logger)
	}

	if cfg.APIKey == "" {
		logger.Warn("API_KEY is empty, standings endpoints are open to everyone")
	}

	handler := httpapi.NewHandler(service, refresher, logger)
	router := httpapi.NewRouter(handler, cfg.APIKey, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	return &App{
		Server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		refresher:       refresher,
		pprofServer:     pprofServer,
		shutdownUptrace: shutdownUptrace,
		stopPyroscope:   stopPyroscope,
		logger:          logger,
	}, nil
}

// Start launches the background refresher. The HTTP server itself is
// started by the caller so it controls the listen error path.
func (a *App) Start(ctx context.Context) {
	if a.refresher != nil {
		a.refresher.Start(ctx)
	}
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.refresher != nil {
		a.refresher.Stop()
	}

	var firstErr error
	if err := observability.StopPprofServer(a.pprofServer, a.logger, 5*time.Second); err != nil {
		firstErr = err
	}
	if a.stopPyroscope != nil {
		if err := a.stopPyroscope(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.shutdownUptrace != nil {
		if err := a.shutdownUptrace(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
