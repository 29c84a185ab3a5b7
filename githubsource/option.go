package githubsource

import (
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Option configures Client.
type Option func(*Client)

// WithBranch sets the branch to read. Default is "main".
func WithBranch(branch string) Option {
	return func(c *Client) {
		c.branch = branch
	}
}

// WithHTTPClient sets the HTTP client. Default has a 15s timeout. If hc is nil, the default client is left unchanged.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithAuthToken sets the Bearer token for the Authorization header. It raises the
// rate limit only; responses are parsed the same way with or without it.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.authToken = token
	}
}

// WithAPIBase overrides https://api.github.com (GitHub Enterprise, tests).
func WithAPIBase(u string) Option {
	return func(c *Client) {
		c.apiBase = strings.TrimSuffix(u, "/")
	}
}

// WithRawBase overrides https://raw.githubusercontent.com.
func WithRawBase(u string) Option {
	return func(c *Client) {
		c.rawBase = strings.TrimSuffix(u, "/")
	}
}

// WithHTMLBase overrides https://github.com, used for links to source files.
func WithHTMLBase(u string) Option {
	return func(c *Client) {
		c.htmlBase = strings.TrimSuffix(u, "/")
	}
}

// WithLogger sets the logger for degraded lookups. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the time source used for the "today" date fallback.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}
