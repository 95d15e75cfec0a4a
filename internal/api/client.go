package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client interface for testability
type Client interface {
	GetZones(ctx context.Context, gateID string) ([]Zone, error)
	GetCategories(ctx context.Context) ([]Category, error)
	GetRushHours(ctx context.Context) ([]RushHour, error)
	GetVacations(ctx context.Context) ([]Vacation, error)
}

type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

func NewClient(baseURL, token string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:    100,
		MaxConnsPerHost: 10,
		IdleConnTimeout: 90 * time.Second,
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

func (c *HTTPClient) GetZones(ctx context.Context, gateID string) ([]Zone, error) {
	path := "/master/zones"
	if gateID != "" {
		path += "?gateId=" + url.QueryEscape(gateID)
	}
	var zones []Zone
	if err := c.getJSON(ctx, path, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}

func (c *HTTPClient) GetCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.getJSON(ctx, "/admin/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *HTTPClient) GetRushHours(ctx context.Context) ([]RushHour, error) {
	var rushHours []RushHour
	if err := c.getJSON(ctx, "/admin/rush-hours", &rushHours); err != nil {
		return nil, err
	}
	return rushHours, nil
}

func (c *HTTPClient) GetVacations(ctx context.Context) ([]Vacation, error) {
	var vacations []Vacation
	if err := c.getJSON(ctx, "/admin/vacations", &vacations); err != nil {
		return nil, err
	}
	return vacations, nil
}

// getJSON performs a GET with rate limiting and exponential-backoff retries
// on transport errors, 429 and 5xx responses, then decodes the body into out.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := c.baseURL + path
	c.logger.Debug("requesting", zap.String("url", reqURL))

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		// Read body before closing for error messages
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return ErrAuthFailed
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = ErrRateLimited
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

var _ Client = (*HTTPClient)(nil)
