package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/manifest"
)

// Source holds repo URL, clone options and the in-memory clone.
// The commit seen by the last ListTemplateFiles is the one FetchRaw and
// LastModified read from, so one ingestion sees a consistent tree.
type Source struct {
	repoURL   string
	branch    string
	dir       string
	depth     int
	authToken string
	webURL    string
	logger    *slog.Logger

	mu     sync.Mutex
	repo   *git.Repository
	commit *object.Commit
}

// New creates a Source. The repository is cloned on the first ListTemplateFiles and
// fetched again on every later one.
func New(repoURL string, opts ...Option) (*Source, error) {
	if strings.TrimSpace(repoURL) == "" {
		return nil, fmt.Errorf("gitsource: repo URL must not be empty")
	}
	s := &Source{
		repoURL: repoURL,
		branch:  "main",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if strings.TrimSpace(s.branch) == "" {
		return nil, fmt.Errorf("gitsource: branch must not be empty")
	}
	return s, nil
}

// ListTemplateFiles syncs the clone and returns every .yaml/.yml blob at the branch tip.
// Clone and fetch failures wrap promptstash.ErrNetwork, or ErrUpstream when the remote
// refused access or does not exist.
func (s *Source) ListTemplateFiles(ctx context.Context) ([]promptstash.FileRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sync(ctx); err != nil {
		return nil, err
	}
	tree, err := s.commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("%w: read tree: %w", promptstash.ErrUpstream, err)
	}
	var refs []promptstash.FileRef
	err = tree.Files().ForEach(func(f *object.File) error {
		if !manifest.IsTemplatePath(f.Name) || !s.inDir(f.Name) {
			return nil
		}
		refs = append(refs, promptstash.FileRef{Path: f.Name, SHA: f.Hash.String(), Size: f.Size})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk tree: %w", promptstash.ErrUpstream, err)
	}
	return refs, nil
}

// FetchRaw returns the content of p at the commit of the last listing.
func (s *Source) FetchRaw(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commit == nil {
		if err := s.sync(ctx); err != nil {
			return nil, err
		}
	}
	f, err := s.commit.File(strings.TrimPrefix(p, "/"))
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s not found at %s", promptstash.ErrUpstream, p, promptstash.ShortSHA(s.commit.Hash.String()))
		}
		return nil, fmt.Errorf("%w: read %s: %w", promptstash.ErrUpstream, p, err)
	}
	content, err := f.Contents()
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", promptstash.ErrUpstream, p, err)
	}
	return []byte(content), nil
}

// LastModified returns the author date of the newest commit touching p, formatted with
// promptstash.DateLayout, or promptstash.UnknownDate. It never fails.
func (s *Source) LastModified(ctx context.Context, p string) string {
	if ctx.Err() != nil {
		return promptstash.UnknownDate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo == nil || s.commit == nil {
		return promptstash.UnknownDate
	}
	fileName := strings.TrimPrefix(p, "/")
	iter, err := s.repo.Log(&git.LogOptions{From: s.commit.Hash, FileName: &fileName})
	if err != nil {
		s.logger.Debug("git log failed", "path", p, "err", err)
		return promptstash.UnknownDate
	}
	defer iter.Close()
	c, err := iter.Next()
	if err != nil || c == nil {
		return promptstash.UnknownDate
	}
	return c.Author.When.Format(promptstash.DateLayout)
}

// FileURL links to p in the web UI configured with WithWebURL, or returns "".
func (s *Source) FileURL(p string) string {
	if s.webURL == "" {
		return ""
	}
	return s.webURL + "/blob/" + s.branch + "/" + strings.TrimPrefix(p, "/")
}

// Close drops the in-memory clone. Safe to call multiple times.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo = nil
	s.commit = nil
	return nil
}

func (s *Source) inDir(p string) bool {
	if s.dir == "" {
		return true
	}
	return strings.HasPrefix(path.Clean(p), s.dir+"/")
}

func (s *Source) auth() transport.AuthMethod {
	if s.authToken == "" {
		return nil
	}
	return &http.BasicAuth{
		Username: "x-access-token",
		Password: s.authToken,
	}
}

// sync clones on first use and fetches afterwards. A failed fetch keeps the
// previous clone so a flaky remote still yields (stale) templates.
func (s *Source) sync(ctx context.Context) error {
	if s.repo == nil {
		cloneOpts := &git.CloneOptions{
			URL:           s.repoURL,
			ReferenceName: plumbing.NewBranchReferenceName(s.branch),
			SingleBranch:  true,
			Auth:          s.auth(),
		}
		if s.depth > 0 {
			cloneOpts.Depth = s.depth
		}
		repo, err := git.CloneContext(ctx, memory.NewStorage(), nil, cloneOpts)
		if err != nil {
			return classify("clone", err)
		}
		s.repo = repo
	} else {
		fetchOpts := &git.FetchOptions{RemoteName: git.DefaultRemoteName, Auth: s.auth(), Force: true}
		if s.depth > 0 {
			fetchOpts.Depth = s.depth
		}
		err := s.repo.FetchContext(ctx, fetchOpts)
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			s.logger.Warn("git fetch failed, using cached clone", "repo", s.repoURL, "err", err)
		}
	}
	commit, err := s.tip()
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %w", promptstash.ErrUpstream, s.branch, err)
	}
	s.commit = commit
	return nil
}

func (s *Source) tip() (*object.Commit, error) {
	ref, err := s.repo.Reference(plumbing.NewRemoteReferenceName(git.DefaultRemoteName, s.branch), true)
	if err != nil {
		ref, err = s.repo.Head()
		if err != nil {
			return nil, err
		}
	}
	return s.repo.CommitObject(ref.Hash())
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		errors.Is(err, transport.ErrRepositoryNotFound),
		errors.Is(err, transport.ErrEmptyRemoteRepository):
		return fmt.Errorf("%w: %s: %w", promptstash.ErrUpstream, op, err)
	default:
		return fmt.Errorf("%w: %s: %w", promptstash.ErrNetwork, op, err)
	}
}
