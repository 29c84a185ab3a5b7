package githubsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/manifest"
)

// Default endpoints.
const (
	DefaultAPIBase  = "https://api.github.com"
	DefaultRawBase  = "https://raw.githubusercontent.com"
	DefaultHTMLBase = "https://github.com"
	DefaultBranch   = "main"
)

const (
	// maxRawSize limits raw template bodies (1 MB); YAML templates are small.
	maxRawSize = 1 << 20
	// maxAPISize limits API responses; recursive trees of large repos are a few MB.
	maxAPISize = 16 << 20
)

// defaultUserAgent is the User-Agent header value for every request.
const defaultUserAgent = "promptstash/1.0"

// Client holds the repository coordinates, HTTP client and optional Bearer token.
type Client struct {
	repo       string
	branch     string
	apiBase    string
	rawBase    string
	htmlBase   string
	authToken  string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a Client for repo in "owner/name" form.
func NewClient(repo string, opts ...Option) (*Client, error) {
	repo = strings.Trim(strings.TrimSpace(repo), "/")
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("githubsource: repo must be \"owner/name\", got %q", repo)
	}
	c := &Client{
		repo:       repo,
		branch:     DefaultBranch,
		apiBase:    DefaultAPIBase,
		rawBase:    DefaultRawBase,
		htmlBase:   DefaultHTMLBase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if strings.TrimSpace(c.branch) == "" {
		return nil, fmt.Errorf("githubsource: branch must not be empty")
	}
	for _, base := range []string{c.apiBase, c.rawBase, c.htmlBase} {
		parsed, err := url.Parse(base)
		if err != nil || parsed.Scheme == "" {
			return nil, fmt.Errorf("githubsource: invalid base URL %q", base)
		}
	}
	return c, nil
}

// Repo returns "owner/name".
func (c *Client) Repo() string { return c.repo }

// Branch returns the branch being read.
func (c *Client) Branch() string { return c.branch }

type treeResponse struct {
	SHA       string     `json:"sha"`
	Tree      []treeItem `json:"tree"`
	Truncated bool       `json:"truncated"`
}

type treeItem struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

// ListTemplateFiles issues one recursive tree listing and returns every blob ending
// in .yaml or .yml. Errors wrap promptstash.ErrNetwork, ErrUpstream, or are a
// *promptstash.RateLimitError.
func (c *Client) ListTemplateFiles(ctx context.Context) ([]promptstash.FileRef, error) {
	u := fmt.Sprintf("%s/repos/%s/git/trees/%s?recursive=1", c.apiBase, c.repo, url.PathEscape(c.branch))
	data, err := c.get(ctx, u, maxAPISize)
	if err != nil {
		return nil, err
	}
	var tree treeResponse
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: decode tree: %w", promptstash.ErrUpstream, err)
	}
	if tree.Truncated {
		c.logger.Warn("repository tree listing truncated by GitHub", "repo", c.repo, "entries", len(tree.Tree))
	}
	var refs []promptstash.FileRef
	for _, item := range tree.Tree {
		if item.Type != "blob" || !manifest.IsTemplatePath(item.Path) {
			continue
		}
		refs = append(refs, promptstash.FileRef{Path: item.Path, SHA: item.SHA, Size: item.Size})
	}
	return refs, nil
}

// FetchRaw returns the raw content of the file at path on the configured branch.
func (c *Client) FetchRaw(ctx context.Context, path string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/%s/%s", c.rawBase, c.repo, url.PathEscape(c.branch), escapePath(path))
	return c.get(ctx, u, maxRawSize)
}

type commitItem struct {
	Commit struct {
		Author struct {
			Date time.Time `json:"date"`
		} `json:"author"`
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// LastModified returns the date of the most recent commit touching path, formatted
// with promptstash.DateLayout. It never fails: a transport error yields today's date and any
// other problem (status, decode, no commits) yields promptstash.UnknownDate.
func (c *Client) LastModified(ctx context.Context, path string) string {
	q := url.Values{}
	q.Set("path", path)
	q.Set("sha", c.branch)
	q.Set("page", "1")
	q.Set("per_page", "1")
	u := fmt.Sprintf("%s/repos/%s/commits?%s", c.apiBase, c.repo, q.Encode())
	data, err := c.get(ctx, u, maxAPISize)
	if err != nil {
		c.logger.Debug("commit date lookup failed", "path", path, "err", err)
		if errors.Is(err, promptstash.ErrNetwork) {
			return c.now().Format(promptstash.DateLayout)
		}
		return promptstash.UnknownDate
	}
	var commits []commitItem
	if err := json.Unmarshal(data, &commits); err != nil || len(commits) == 0 {
		return promptstash.UnknownDate
	}
	date := commits[0].Commit.Author.Date
	if date.IsZero() {
		date = commits[0].Commit.Committer.Date
	}
	if date.IsZero() {
		return promptstash.UnknownDate
	}
	return date.Format(promptstash.DateLayout)
}

// FileURL returns the browser link to path on the configured branch.
func (c *Client) FileURL(path string) string {
	return fmt.Sprintf("%s/%s/blob/%s/%s", c.htmlBase, c.repo, c.branch, escapePath(path))
}

func (c *Client) get(ctx context.Context, u string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", promptstash.ErrNetwork, err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	resp, err := c.httpClient.Do(req) // #nosec G107 -- URL is built from configured bases
	if err != nil {
		return nil, fmt.Errorf("%w: %w", promptstash.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp, u)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", promptstash.ErrNetwork, err)
	}
	// Detect truncation: if more data is available, body exceeded limit.
	probe := make([]byte, 1)
	if n, _ := resp.Body.Read(probe); n > 0 {
		return nil, fmt.Errorf("%w: response body exceeds %d bytes: %s", promptstash.ErrUpstream, limit, u)
	}
	return data, nil
}

// classifyStatus maps a non-2xx response to RateLimitError (403 with an exhausted
// quota header, or 429) or ErrUpstream.
func classifyStatus(resp *http.Response, u string) error {
	remaining, hasRemaining := headerInt(resp.Header, "X-RateLimit-Remaining")
	limited := resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && hasRemaining && remaining == 0)
	if !limited {
		return fmt.Errorf("%w: %s %s", promptstash.ErrUpstream, resp.Status, u)
	}
	rl := &promptstash.RateLimitError{Remaining: remaining, Status: resp.Status}
	if reset, ok := headerInt(resp.Header, "X-RateLimit-Reset"); ok && reset > 0 {
		rl.Reset = time.Unix(int64(reset), 0)
	}
	return rl
}

func headerInt(h http.Header, key string) (int, bool) {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func escapePath(p string) string {
	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
