package leaguesite

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/rbakker/trmnl-standings/internal/platform/logging"
	"github.com/rbakker/trmnl-standings/internal/platform/resilience"
	"github.com/rbakker/trmnl-standings/internal/usecase"
)

const (
	// League sites block generic bot agents, so a browser UA is the default.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultTimeout   = 30 * time.Second
	maxPageBytes     = 4 << 20
)

var errLeagueSiteTransient = crerr.New("league site transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	Timeout        time.Duration
	UserAgent      string
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches league pages. One instance is shared by all providers so
// the circuit breaker state covers every scrape target.
type Client struct {
	httpClient     *http.Client
	userAgent      string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		userAgent:      userAgent,
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchDocument downloads pageURL and parses it into a goquery document.
// Concurrent fetches of the same page share one request.
func (c *Client) FetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "league site circuit breaker rejected request",
				"url", pageURL,
				"state", c.breaker.State(),
			)
			return nil, fmt.Errorf("%w: league site is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	out, err, _ := c.flight.Do(pageURL, func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, pageURL)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errLeagueSiteTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return nil, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected page payload type %T", out)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: parse page HTML: %v", usecase.ErrDependencyUnavailable, err)
	}

	return doc, nil
}

func (c *Client) executeRequest(ctx context.Context, pageURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errLeagueSiteTransient, err)
		} else {
			raw, readErr := readBody(resp.Body)
			_ = resp.Body.Close()
			if readErr != nil {
				lastErr = fmt.Errorf("%w: read response body: %v", errLeagueSiteTransient, readErr)
			} else if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return raw, nil
			} else if isRetryableStatus(resp.StatusCode) {
				lastErr = fmt.Errorf("%w: page status=%d", errLeagueSiteTransient, resp.StatusCode)
			} else {
				return nil, fmt.Errorf("%w: page status=%d", usecase.ErrDependencyUnavailable, resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("page request failed")
	}
	c.logger.WarnContext(ctx, "league page request failed", "url", pageURL, "error", lastErr)
	return nil, fmt.Errorf("%w: %w", usecase.ErrDependencyUnavailable, lastErr)
}

func readBody(body io.Reader) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := io.Copy(buf, io.LimitReader(body, maxPageBytes)); err != nil {
		return nil, err
	}

	out := make([]byte, len(buf.B))
	copy(out, buf.B)
	return out, nil
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}
