package hurma

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
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Hurma endpoints. None of them is a public API: they back the web UI
// and may change without notice.
const (
	loginEndpoint            = "/login"
	timelineEndpoint         = "/timeline/vue/get-timeline-data"
	scheduleDayEndpoint      = "/timeline/vue/get-schedule-day-data"
	employeeInfoEndpoint     = "/employee/vue/common/info"
	employeeContactsEndpoint = "/employee/vue/contacts"
	calendarDayEndpoint      = "/calendar/api/day"
)

// Client is a scraping client for the Hurma HR web application
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// HTTPError is returned when Hurma answers with a non-success status
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// NewClient creates a new Hurma client. A zero timeout falls back to 30s.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SetHTTPClient replaces the underlying HTTP client
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// getJSON performs an authenticated AJAX-style GET and decodes the JSON body into result
func (c *Client) getJSON(ctx context.Context, session *Session, path string, query url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Accept", "application/json")
	session.apply(req)

	c.logger.Debug("Requesting Hurma endpoint", zap.String("path", path), zap.String("query", req.URL.RawQuery))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Debug("Hurma response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(req, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}

	return nil
}

func newHTTPError(req *http.Request, status int, body []byte) *HTTPError {
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}

	return &HTTPError{
		Method:     req.Method,
		URL:        req.URL.Path,
		StatusCode: status,
		Body:       text,
	}
}
