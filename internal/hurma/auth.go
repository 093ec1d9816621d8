package hurma

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// ErrAuthTokenMissing means the login page carried no CSRF token.
// The markup changed or the site is down; retrying will not help.
var ErrAuthTokenMissing = errors.New("CSRF token not found")

var csrfTokenRe = regexp.MustCompile(`name="_token"\s+value="([^"]+)"`)

// Session is the cookie set obtained by a successful login handshake.
// It is read-only after Login returns.
type Session struct {
	cookies []*http.Cookie
}

// NewSession builds a session from an existing cookie set
func NewSession(cookies []*http.Cookie) *Session {
	cp := make([]*http.Cookie, len(cookies))
	copy(cp, cookies)
	return &Session{cookies: cp}
}

// Cookies returns a copy of the session cookies
func (s *Session) Cookies() []*http.Cookie {
	if s == nil {
		return nil
	}
	cp := make([]*http.Cookie, len(s.cookies))
	copy(cp, s.cookies)
	return cp
}

func (s *Session) apply(req *http.Request) {
	if s == nil {
		return
	}
	for _, cookie := range s.cookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
}

// ExtractCSRFToken finds the anti-forgery token in the login page HTML
func ExtractCSRFToken(html []byte) (string, error) {
	if m := csrfTokenRe.FindSubmatch(html); m != nil {
		return string(m[1]), nil
	}

	// Attribute order or quoting differs from the usual form markup
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse login page: %w", err)
	}

	if token, ok := doc.Find(`input[name="_token"]`).First().Attr("value"); ok && token != "" {
		return token, nil
	}
	if token, ok := doc.Find(`meta[name="csrf-token"]`).First().Attr("content"); ok && token != "" {
		return token, nil
	}

	return "", ErrAuthTokenMissing
}

// Login performs the two-step login handshake and returns the session cookies.
// A wrong password is not detected here: Hurma still sets cookies and
// the failure only shows up as empty data later on.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	loginURL := c.baseURL + loginEndpoint

	c.logger.Info("Fetching login page to obtain CSRF token", zap.String("url", loginURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch login page: %w", err)
	}
	page, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read login page: %w", err)
	}

	c.logger.Info("Login page response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= 400 {
		return nil, newHTTPError(req, resp.StatusCode, page)
	}

	token, err := ExtractCSRFToken(page)
	if err != nil {
		return nil, err
	}
	pageCookies := resp.Cookies()

	c.logger.Info("Got CSRF token", zap.Int("token_length", len(token)))

	form := url.Values{
		"_token":   {token},
		"email":    {email},
		"password": {password},
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, cookie := range pageCookies {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}

	// Session cookies are set on the redirect itself, so it must not be followed
	noRedirect := *c.httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	c.logger.Info("Submitting credentials", zap.String("url", loginURL), zap.String("email", email))

	resp, err = noRedirect.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit login form: %w", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	c.logger.Info("Login response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= 400 {
		return nil, newHTTPError(req, resp.StatusCode, body)
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		c.logger.Warn("Login response set no cookies, subsequent requests are likely unauthenticated")
	}

	return NewSession(cookies), nil
}
