package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quantmind-br/downgit-go/internal/cache"
	"github.com/quantmind-br/downgit-go/internal/domain"
)

// Client retrieves raw file and archive bytes
type Client struct {
	httpClient   *http.Client
	retrier      *Retrier
	cache        domain.Cache
	cacheEnabled bool
	cacheTTL     time.Duration
	maxBodySize  int64
}

// ClientOptions contains options for creating a Client
type ClientOptions struct {
	HTTPClient  *http.Client
	MaxRetries  int
	EnableCache bool
	CacheTTL    time.Duration
	Cache       domain.Cache
	MaxBodySize int64 // 0 means unlimited
}

// DefaultClientOptions returns default client options
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		MaxRetries:  0,
		EnableCache: false,
		CacheTTL:    time.Hour,
	}
}

var _ domain.Fetcher = (*Client)(nil)

// NewClient creates a new content client
func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	retryOpts := DefaultRetrierOptions()
	retryOpts.MaxRetries = opts.MaxRetries
	retrier := NewRetrier(retryOpts)

	return &Client{
		httpClient:   httpClient,
		retrier:      retrier,
		cache:        opts.Cache,
		cacheEnabled: opts.EnableCache,
		cacheTTL:     opts.CacheTTL,
		maxBodySize:  opts.MaxBodySize,
	}
}

// HTTPClient exposes the underlying client so other adapters share its transport
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Get fetches the body of url
func (c *Client) Get(ctx context.Context, url string) (*domain.Response, error) {
	if c.cacheEnabled && c.cache != nil {
		if data, err := c.cache.Get(ctx, cache.ContentKey(url)); err == nil {
			return &domain.Response{
				StatusCode: http.StatusOK,
				Body:       data,
				URL:        url,
				FromCache:  true,
			}, nil
		}
	}

	var resp *domain.Response
	err := c.retrier.Retry(ctx, func() error {
		var err error
		resp, err = c.doRequest(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}

	if c.cacheEnabled && c.cache != nil {
		_ = c.cache.Set(ctx, cache.ContentKey(url), resp.Body, c.cacheTTL)
	}

	return resp, nil
}

func (c *Client) doRequest(ctx context.Context, targetURL string) (*domain.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(targetURL, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(targetURL, resp)
	}

	var body io.Reader = resp.Body
	if c.maxBodySize > 0 {
		body = io.LimitReader(resp.Body, c.maxBodySize+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, domain.NewFetchError(targetURL, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}
	if c.maxBodySize > 0 && int64(len(data)) > c.maxBodySize {
		return nil, domain.NewFetchError(targetURL, resp.StatusCode, fmt.Errorf("body exceeds %d bytes", c.maxBodySize))
	}

	return &domain.Response{
		StatusCode:  resp.StatusCode,
		Body:        data,
		Headers:     resp.Header,
		ContentType: resp.Header.Get("Content-Type"),
		URL:         targetURL,
	}, nil
}

func statusError(targetURL string, resp *http.Response) error {
	base := fmt.Errorf("HTTP %d", resp.StatusCode)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		base = fmt.Errorf("HTTP %d: %w", resp.StatusCode, domain.ErrRateLimited)
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		base = fmt.Errorf("HTTP %d: %w", resp.StatusCode, domain.ErrRateLimited)
	case resp.StatusCode == http.StatusNotFound:
		base = fmt.Errorf("HTTP %d: %w", resp.StatusCode, domain.ErrNotFound)
	}

	fetchErr := domain.NewFetchError(targetURL, resp.StatusCode, base)
	if ShouldRetryStatus(resp.StatusCode) {
		return &domain.RetryableError{Err: fetchErr}
	}
	return fetchErr
}

// Close releases client resources
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
