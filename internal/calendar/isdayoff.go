package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	isdayoffBaseURL    = "https://isdayoff.ru"
	defaultHTTPTimeout = 10 * time.Second
)

// IsDayOffCalendar implements Calendar using the isdayoff.ru API
type IsDayOffCalendar struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	cache      map[string]DayType
	cacheMu    sync.RWMutex
}

// NewIsDayOffCalendar creates a new IsDayOffCalendar instance
func NewIsDayOffCalendar(baseURL string, timeout time.Duration, logger *zap.Logger) *IsDayOffCalendar {
	if baseURL == "" {
		baseURL = isdayoffBaseURL
	}
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	return &IsDayOffCalendar{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		cache:  make(map[string]DayType),
	}
}

// SetHTTPClient replaces the HTTP client (used in tests)
func (c *IsDayOffCalendar) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// IsWorkday checks if the given date is a working day
func (c *IsDayOffCalendar) IsWorkday(ctx context.Context, date time.Time) (bool, error) {
	dayType, err := c.DayType(ctx, date)
	if err != nil {
		return false, err
	}
	return dayType != DayTypeDayOff, nil
}

// DayType returns the type of the given date, cached per date
func (c *IsDayOffCalendar) DayType(ctx context.Context, date time.Time) (DayType, error) {
	key := date.Format("20060102")

	c.cacheMu.RLock()
	cached, ok := c.cache[key]
	c.cacheMu.RUnlock()
	if ok {
		c.logger.Debug("Using cached day type", zap.String("date", key))
		return cached, nil
	}

	dayType, err := c.fetchDay(ctx, key)
	if err != nil {
		return 0, err
	}

	c.cacheMu.Lock()
	c.cache[key] = dayType
	c.cacheMu.Unlock()

	return dayType, nil
}

// fetchDay calls GET /api/isdayoff?date=YYYYMMDD&pre=1
func (c *IsDayOffCalendar) fetchDay(ctx context.Context, key string) (DayType, error) {
	url := fmt.Sprintf("%s/api/isdayoff?date=%s&pre=1", c.baseURL, key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch calendar data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}
	code := strings.TrimSpace(string(body))

	// the service answers 400/404 with an error code in the body
	if resp.StatusCode != http.StatusOK && !isErrorCode(code) {
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	dayType, err := parseDayCode(code)
	if err != nil {
		return 0, err
	}

	c.logger.Debug("Day type fetched from API",
		zap.String("date", key),
		zap.Stringer("type", dayType))

	return dayType, nil
}

// parseDayCode parses an isdayoff.ru answer:
// 0 = working day, 1 = day off, 2 = shortened day, 4 = working day (covid mode),
// 100 = bad date, 101 = no data, 199 = service error
func parseDayCode(code string) (DayType, error) {
	switch code {
	case "0", "4":
		return DayTypeWorkday, nil
	case "1":
		return DayTypeDayOff, nil
	case "2":
		return DayTypeShortened, nil
	case "100":
		return 0, fmt.Errorf("isdayoff: invalid date")
	case "101":
		return 0, fmt.Errorf("isdayoff: no data for date")
	case "199":
		return 0, fmt.Errorf("isdayoff: service error")
	default:
		return 0, fmt.Errorf("isdayoff: unknown answer %q", code)
	}
}

func isErrorCode(code string) bool {
	return code == "100" || code == "101" || code == "199"
}

// ClearCache clears the cache
func (c *IsDayOffCalendar) ClearCache() {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.cache = make(map[string]DayType)
	c.logger.Info("Calendar cache cleared")
}
