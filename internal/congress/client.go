package congress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"horse.fit/breakdown/internal/globaltime"
	"horse.fit/breakdown/internal/metrics"
)

const (
	DefaultRequestTimeout = 20 * time.Second
	DefaultBodyByteLimit  = 8 * 1024 * 1024

	apiKeyHeader     = "X-API-Key"
	defaultUserAgent = "breakdown-sync/1.0"
)

// Getter fetches one JSON document.
type Getter interface {
	GetJSON(ctx context.Context, url string) ([]byte, error)
}

type ClientOptions struct {
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	BodyByteLimit     int64
	UserAgent         string
	HTTPClient        *http.Client
}

// Client performs authenticated GET requests against the provider.
type Client struct {
	http      *http.Client
	apiKey    string
	timeout   time.Duration
	bodyLimit int64
	userAgent string
	limiter   *rate.Limiter
}

func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	bodyLimit := opts.BodyByteLimit
	if bodyLimit <= 0 {
		bodyLimit = DefaultBodyByteLimit
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &Client{
		http:      httpClient,
		apiKey:    strings.TrimSpace(opts.APIKey),
		timeout:   timeout,
		bodyLimit: bodyLimit,
		userAgent: userAgent,
		limiter:   limiter,
	}
}

// GetJSON issues one GET with the API key header and a per-request timeout.
// Non-2xx responses are errors.
func (c *Client) GetJSON(ctx context.Context, url string) ([]byte, error) {
	if c == nil || c.http == nil {
		return nil, fmt.Errorf("provider client is not initialized")
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	started := globaltime.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProviderRequest("error", globaltime.Since(started))
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	metrics.RecordProviderRequest(strconv.Itoa(resp.StatusCode), globaltime.Since(started))

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.bodyLimit))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("provider status %d: %s", resp.StatusCode, snippet(body))
	}
	return body, nil
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		return text[:200]
	}
	return text
}
