// Package api is the HTTP client for the Loop feed API.
//
// Session state lives in an explicitly configured cookie jar: the session
// cookie is carried on every request and the CSRF cookie is echoed in the
// CSRF header on unsafe methods. Request bodies are sent in snake_case and
// responses are converted to camelCase before they are decoded into models.
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Defaults matching the Django backend.
const (
	DefaultCSRFHeaderName = "X-CSRFToken"
	DefaultCSRFCookieName = "csrftoken"
	DefaultTimeout        = 30 * time.Second
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 10 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. "http://localhost:8000/api".
	BaseURL string

	// CSRFHeaderName is the request header carrying the CSRF token.
	CSRFHeaderName string

	// CSRFCookieName is the cookie the CSRF token is read from.
	CSRFCookieName string

	// Timeout bounds each request. Ignored when HTTPClient is set.
	Timeout time.Duration

	// Cookies seeds the jar, typically from a persisted session.
	Cookies map[string]string

	// HTTPClient overrides the transport. Its Jar is replaced when nil.
	HTTPClient *http.Client

	// UserAgent is sent on every request when set.
	UserAgent string

	// Logger receives debug-level request logs. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client talks to the Loop API.
type Client struct {
	base   *url.URL
	http   *http.Client
	cfg    Config
	logger *slog.Logger
}

// New constructs a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base URL %q: %w", cfg.BaseURL, err)
	}

	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	if cfg.CSRFHeaderName == "" {
		cfg.CSRFHeaderName = DefaultCSRFHeaderName
	}

	if cfg.CSRFCookieName == "" {
		cfg.CSRFCookieName = DefaultCSRFCookieName
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	if httpClient.Jar == nil {
		jar, jarErr := cookiejar.New(nil)
		if jarErr != nil {
			return nil, fmt.Errorf("creating cookie jar: %w", jarErr)
		}

		httpClient.Jar = jar
	}

	if len(cfg.Cookies) > 0 {
		cookies := make([]*http.Cookie, 0, len(cfg.Cookies))
		for name, value := range cfg.Cookies {
			cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
		}

		httpClient.Jar.SetCookies(base, cookies)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{base: base, http: httpClient, cfg: cfg, logger: logger}, nil
}

// Cookies returns the jar's cookies for the API host.
func (c *Client) Cookies() map[string]string {
	out := map[string]string{}
	for _, ck := range c.http.Jar.Cookies(c.base) {
		out[ck.Name] = ck.Value
	}

	return out
}

// request describes a single API call.
type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
}

// do executes req and decodes a successful body into out (when non-nil).
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := c.base.JoinPath(req.path)

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), req.body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)

	if c.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	if unsafeMethod(req.method) {
		if token := c.csrfToken(); token != "" {
			httpReq.Header.Set(c.cfg.CSRFHeaderName, token)
		}
	}

	start := time.Now()

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, u.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	c.logger.DebugContext(ctx, "api request",
		slog.String("method", req.method),
		slog.String("path", u.Path),
		slog.Int("status", resp.StatusCode),
		slog.String("requestID", requestID),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseError(resp.StatusCode, resp.Status, body)
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	return decodeBody(body, out)
}

func (c *Client) csrfToken() string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == c.cfg.CSRFCookieName {
			return ck.Value
		}
	}

	return ""
}

func unsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}
