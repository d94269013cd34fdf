package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"festival-map-cli/model"
)

const (
	// The catalog is the static document the festival web frontend serves;
	// the detail endpoint is the transit-demand API.
	defaultCatalogURL    = "http://localhost:5173/thistle_data.json"
	defaultDetailBaseURL = "http://localhost:8000"
	defaultUserAgent     = "festival-map-cli/1.0"

	// Both fetches are single-attempt by default: the catalog is a one-shot
	// snapshot and the detail fetch is fire-and-forget.
	defaultMaxAttempts = 1
	defaultRetryBase   = 200 * time.Millisecond
	defaultRetryCap    = 1200 * time.Millisecond
)

// Config carries the client's endpoints and retry budget. Zero values fall
// back to defaults.
type Config struct {
	CatalogURL    string
	DetailBaseURL string
	MaxAttempts   int
}

// Client wraps HTTP access to the festival data document and the live
// detail endpoint.
type Client struct {
	httpClient    *http.Client
	catalogURL    string
	detailBaseURL string
	userAgent     string
	maxAttempts   int
	retryBase     time.Duration
	retryCap      time.Duration
}

// APIError is returned when an endpoint responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Body       string
}

func (e *APIError) Error() string {
	if e == nil {
		return "festival api error"
	}
	return fmt.Sprintf("festival api error: %s: %s", e.Status, e.Body)
}

// IsNotFound reports whether the error represents a 404 from an endpoint.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

// NewClient creates a new data client. If httpClient is nil, a default
// client is used.
func NewClient(httpClient *http.Client, cfg Config) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 12 * time.Second}
	}
	catalogURL := strings.TrimSpace(cfg.CatalogURL)
	if catalogURL == "" {
		catalogURL = defaultCatalogURL
	}
	detailBaseURL := strings.TrimRight(strings.TrimSpace(cfg.DetailBaseURL), "/")
	if detailBaseURL == "" {
		detailBaseURL = defaultDetailBaseURL
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &Client{
		httpClient:    httpClient,
		catalogURL:    catalogURL,
		detailBaseURL: detailBaseURL,
		userAgent:     defaultUserAgent,
		maxAttempts:   maxAttempts,
		retryBase:     defaultRetryBase,
		retryCap:      defaultRetryCap,
	}
}

// GetCatalog fetches the full venue/event document. It is loaded once per
// program run; everything downstream filters this snapshot client-side.
func (c *Client) GetCatalog(ctx context.Context) (model.Catalog, error) {
	var catalog model.Catalog
	if err := c.getJSON(ctx, c.catalogURL, &catalog); err != nil {
		return model.Catalog{}, err
	}
	return catalog, nil
}

// GetEventDetail fetches the live detail object for one event.
func (c *Client) GetEventDetail(ctx context.Context, eventID string) (model.EventDetail, error) {
	if strings.TrimSpace(eventID) == "" {
		return model.EventDetail{}, errors.New("event id is required")
	}
	endpoint := fmt.Sprintf("%s/event/%s", c.detailBaseURL, url.PathEscape(eventID))

	var detail model.EventDetail
	if err := c.getJSON(ctx, endpoint, &detail); err != nil {
		return model.EventDetail{}, err
	}
	return detail, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	maxAttempts := c.maxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		res, err := c.httpClient.Do(req)
		if err != nil {
			if c.shouldRetryNetworkError(err) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return fmt.Errorf("request failed: %w", err)
		}

		if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
			snippet, _ := io.ReadAll(io.LimitReader(res.Body, 8<<10))
			_ = res.Body.Close()

			apiErr := &APIError{
				StatusCode: res.StatusCode,
				Status:     res.Status,
				Endpoint:   endpoint,
				Body:       strings.TrimSpace(string(snippet)),
			}
			if c.shouldRetryStatus(res.StatusCode) && attempt < maxAttempts {
				if waitErr := c.waitRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
				continue
			}
			return apiErr
		}

		dec := json.NewDecoder(res.Body)
		err = dec.Decode(out)
		_ = res.Body.Close()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode response from %s: %w", endpoint, err)
		}
		return nil
	}

	return errors.New("request failed after retries")
}

func (c *Client) shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) shouldRetryNetworkError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *Client) waitRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay(attempt)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	base := c.retryBase
	if base <= 0 {
		base = defaultRetryBase
	}
	cap := c.retryCap
	if cap <= 0 {
		cap = defaultRetryCap
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= cap/2 {
			return cap
		}
		delay *= 2
	}
	if delay > cap {
		return cap
	}
	return delay
}
