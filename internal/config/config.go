package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rbakker/trmnl-standings/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level

	APIKey            string
	TeamLimitByLeague map[string]int

	ScrapeEredivisieURL       string
	ScrapeKKDURL              string
	ScrapeTimeout             time.Duration
	ScrapeMaxRetries          int
	ScrapeUserAgent           string
	ScrapeCircuitEnabled      bool
	ScrapeCircuitFailureCount int
	ScrapeCircuitOpenTimeout  time.Duration
	ScrapeCircuitHalfOpenMax  int

	CacheEnabled bool
	CacheTTL     time.Duration

	RefreshEnabled    bool
	RefreshInterval   time.Duration
	RefreshMaxWorkers int
	InternalJobToken  string

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled bool
	UptraceDSN     string

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	// Reserved for the TRMNL plugin OAuth install flow; read but not yet
	// used by any route.
	TRMNLOAuthClientID     string
	TRMNLOAuthClientSecret string
	TRMNLOAuthRedirectURL  string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	teamLimitByLeague, err := parseCountMap(getEnv("STANDINGS_TEAM_LIMIT_MAP", "eredivisie:18,kkd:20"))
	if err != nil {
		return Config{}, fmt.Errorf("parse STANDINGS_TEAM_LIMIT_MAP: %w", err)
	}

	scrapeTimeout, err := time.ParseDuration(getEnv("SCRAPE_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPE_TIMEOUT: %w", err)
	}
	if scrapeTimeout <= 0 {
		return Config{}, fmt.Errorf("SCRAPE_TIMEOUT must be > 0")
	}
	scrapeMaxRetries, err := getEnvAsInt("SCRAPE_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPE_MAX_RETRIES: %w", err)
	}
	if scrapeMaxRetries < 0 {
		return Config{}, fmt.Errorf("SCRAPE_MAX_RETRIES must be >= 0")
	}
	scrapeCircuitEnabled, err := strconv.ParseBool(getEnv("SCRAPE_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPE_CIRCUIT_ENABLED: %w", err)
	}
	scrapeCircuitFailureCount, err := getEnvAsInt("SCRAPE_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPE_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if scrapeCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SCRAPE_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	scrapeCircuitOpenTimeout, err := time.ParseDuration(getEnv("SCRAPE_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPE_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if scrapeCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("SCRAPE_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	scrapeCircuitHalfOpenMax, err := getEnvAsInt("SCRAPE_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse SCRAPE_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if scrapeCircuitHalfOpenMax < 1 {
		return Config{}, fmt.Errorf("SCRAPE_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	cacheEnabled, err := strconv.ParseBool(getEnv("CACHE_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_ENABLED: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnv("CACHE_TTL", "10m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_TTL: %w", err)
	}
	if cacheTTL <= 0 {
		return Config{}, fmt.Errorf("CACHE_TTL must be > 0")
	}

	refreshEnabled, err := strconv.ParseBool(getEnv("REFRESH_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_ENABLED: %w", err)
	}
	refreshInterval, err := time.ParseDuration(getEnv("REFRESH_INTERVAL", "60m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_INTERVAL: %w", err)
	}
	if refreshInterval <= 0 {
		return Config{}, fmt.Errorf("REFRESH_INTERVAL must be > 0")
	}
	refreshMaxWorkers, err := getEnvAsInt("REFRESH_MAX_WORKERS", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse REFRESH_MAX_WORKERS: %w", err)
	}
	if refreshMaxWorkers < 1 {
		return Config{}, fmt.Errorf("REFRESH_MAX_WORKERS must be >= 1")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "trmnl-standings-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),

		APIKey:            strings.TrimSpace(getEnv("API_KEY", "")),
		TeamLimitByLeague: teamLimitByLeague,

		ScrapeEredivisieURL:       strings.TrimSpace(getEnv("SCRAPE_EREDIVISIE_URL", "")),
		ScrapeKKDURL:              strings.TrimSpace(getEnv("SCRAPE_KKD_URL", "")),
		ScrapeTimeout:             scrapeTimeout,
		ScrapeMaxRetries:          scrapeMaxRetries,
		ScrapeUserAgent:           strings.TrimSpace(getEnv("SCRAPE_USER_AGENT", "")),
		ScrapeCircuitEnabled:      scrapeCircuitEnabled,
		ScrapeCircuitFailureCount: scrapeCircuitFailureCount,
		ScrapeCircuitOpenTimeout:  scrapeCircuitOpenTimeout,
		ScrapeCircuitHalfOpenMax:  scrapeCircuitHalfOpenMax,

		CacheEnabled: cacheEnabled,
		CacheTTL:     cacheTTL,

		RefreshEnabled:    refreshEnabled,
		RefreshInterval:   refreshInterval,
		RefreshMaxWorkers: refreshMaxWorkers,
		InternalJobToken:  strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),

		PprofEnabled: pprofEnabled,
		PprofAddr:    pprofAddr,

		UptraceEnabled: uptraceEnabled,
		UptraceDSN:     uptraceDSN,

		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,

		TRMNLOAuthClientID:     strings.TrimSpace(getEnv("TRMNL_OAUTH_CLIENT_ID", "")),
		TRMNLOAuthClientSecret: strings.TrimSpace(getEnv("TRMNL_OAUTH_CLIENT_SECRET", "")),
		TRMNLOAuthRedirectURL:  strings.TrimSpace(getEnv("TRMNL_OAUTH_REDIRECT_URL", "")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseCountMap(raw string) (map[string]int, error) {
	out := make(map[string]int)
	parts := strings.Split(raw, ",")
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}

		segments := strings.SplitN(item, ":", 2)
		if len(segments) != 2 {
			return nil, fmt.Errorf("invalid map item %q, expected league_id:number", item)
		}

		key := strings.TrimSpace(segments[0])
		if key == "" {
			return nil, fmt.Errorf("empty league id in item %q", item)
		}
		value, err := strconv.Atoi(strings.TrimSpace(segments[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid number in item %q: %w", item, err)
		}
		if value <= 0 {
			return nil, fmt.Errorf("count must be > 0 in item %q", item)
		}

		out[key] = value
	}
	return out, nil
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
