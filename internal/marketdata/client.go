// Package marketdata implements the Market Data Source: an HTTP client over
// the public Gamma markets API with rate limiting, retry-with-backoff,
// pagination, dual-format parsing, and an optional snapshot cache.
package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/alexalk/polymarket-conviction-pipeline/internal/types"
	"github.com/alexalk/polymarket-conviction-pipeline/pkg/cache"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const pageSize = 500

// Client is an HTTP client for the Polymarket Gamma API implementing the
// Market Data Source contract.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	cache      cache.Cache

	rateLimitDelay time.Duration
	maxRetries     int
	maxOffset      int

	mu          sync.Mutex
	lastRequest time.Time
}

// Config holds Client construction parameters.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	RateLimitDelay time.Duration
	MaxRetries     int
	MaxOffset      int
	Logger         *zap.Logger
	Cache          cache.Cache
}

// New creates a new Gamma API client.
func New(cfg Config) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger:         cfg.Logger,
		cache:          cfg.Cache,
		rateLimitDelay: cfg.RateLimitDelay,
		maxRetries:     cfg.MaxRetries,
		maxOffset:      cfg.MaxOffset,
	}
}

// FetchAllActive fetches every active, non-closed market and returns a
// mapping from market_id to MarketSnapshot. Parse failures for individual
// records never abort the bulk fetch.
func (c *Client) FetchAllActive(ctx context.Context) (map[string]types.MarketSnapshot, error) {
	start := time.Now()
	defer func() {
		FetchDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	result := make(map[string]types.MarketSnapshot)

	for offset := 0; offset <= c.maxOffset; offset += pageSize {
		page, err := c.fetchPage(ctx, pageSize, offset, true)
		if err != nil {
			return nil, err
		}

		fetchedAt := time.Now().UTC()
		for _, raw := range page {
			snapshot, ok := parseSnapshot(raw, fetchedAt)
			if !ok {
				ParseSkippedTotal.Inc()
				continue
			}
			result[snapshot.MarketID] = snapshot
			if c.cache != nil {
				c.cache.Set(snapshot.MarketID, snapshot, 24*time.Hour)
			}
		}

		if len(page) < pageSize {
			break
		}
	}

	return result, nil
}

// FetchBySlug fetches a single market by slug, consulting the cache first
// before falling back to a live paginated search.
func (c *Client) FetchBySlug(ctx context.Context, slug string) (*types.MarketSnapshot, error) {
	if c.cache != nil {
		if cached, ok := c.cache.Get(slug); ok {
			if snapshot, ok := cached.(types.MarketSnapshot); ok {
				return &snapshot, nil
			}
		}
	}

	for offset := 0; offset <= c.maxOffset; offset += pageSize {
		page, err := c.fetchPage(ctx, pageSize, offset, false)
		if err != nil {
			return nil, err
		}

		fetchedAt := time.Now().UTC()
		for _, raw := range page {
			rawSlug, _ := raw["slug"].(string)
			if rawSlug != slug {
				continue
			}

			snapshot, ok := parseSnapshot(raw, fetchedAt)
			if !ok {
				return nil, fmt.Errorf("market %q: failed to parse snapshot", slug)
			}

			if c.cache != nil {
				c.cache.Set(slug, snapshot, 24*time.Hour)
			}
			return &snapshot, nil
		}

		if len(page) < pageSize {
			break
		}
	}

	return nil, fmt.Errorf("market not found: %s", slug)
}

// fetchPage performs a single paginated GET against /markets, retrying
// transient failures with exponential backoff. With activeOnly set, the
// request asks for active, non-closed markets only.
func (c *Client) fetchPage(ctx context.Context, limit, offset int, activeOnly bool) ([]map[string]interface{}, error) {
	endpoint := fmt.Sprintf("%s/markets", c.baseURL)

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	if activeOnly {
		params.Set("active", "true")
		params.Set("closed", "false")
	}

	requestURL := endpoint + "?" + params.Encode()

	body, err := c.doWithRetry(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	var page []map[string]interface{}
	if err := json.Unmarshal(body, &page); err != nil {
		FetchErrorsTotal.Inc()
		return nil, fmt.Errorf("unmarshal markets page: %w", &ApiError{StatusCode: 0, Body: err.Error()})
	}

	return page, nil
}

// doWithRetry enforces the inter-request rate limit and makes at most
// maxRetries attempts in total, retrying transient (network / 5xx) failures
// with an exponential backoff of 0.5*2^(n-1) seconds between attempts. 4xx
// responses fail immediately.
func (c *Client) doWithRetry(ctx context.Context, requestURL string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		c.waitForRateLimit()

		body, statusCode, err := c.doOnce(ctx, requestURL)
		FetchRequestsTotal.Inc()

		if err == nil && statusCode >= 200 && statusCode < 300 {
			return body, nil
		}

		if err == nil && IsTerminal(statusCode) {
			FetchErrorsTotal.Inc()
			return nil, &ApiError{StatusCode: statusCode, Body: string(body)}
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = &ApiError{StatusCode: statusCode, Body: string(body)}
		}

		if attempt >= c.maxRetries {
			break
		}

		FetchRetriesTotal.Inc()
		backoff := time.Duration(float64(time.Second) * 0.5 * pow2(attempt-1))
		c.logger.Warn("marketdata-fetch-retrying",
			zap.Int("attempt", attempt),
			zap.Int("max-retries", c.maxRetries),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	FetchErrorsTotal.Inc()
	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

func (c *Client) doOnce(ctx context.Context, requestURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	return body, resp.StatusCode, nil
}

// waitForRateLimit blocks, if necessary, so that at least rateLimitDelay
// elapses between any two outbound requests, measured on the monotonic clock.
func (c *Client) waitForRateLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastRequest.IsZero() {
		c.lastRequest = time.Now()
		return
	}

	elapsed := time.Since(c.lastRequest)
	if elapsed < c.rateLimitDelay {
		time.Sleep(c.rateLimitDelay - elapsed)
	}
	c.lastRequest = time.Now()
}

func pow2(n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= 2
	}
	return result
}
