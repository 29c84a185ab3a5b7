package gitsource

import (
	"log/slog"
	"strings"
)

// Option configures Source.
type Option func(*Source)

// WithBranch sets the branch to clone (e.g. "main"). Default is "main".
func WithBranch(branch string) Option {
	return func(s *Source) {
		s.branch = branch
	}
}

// WithDir restricts listing to a subdirectory of the repository (e.g. "templates").
// Paths stay relative to the repository root. Default is "" (whole tree).
func WithDir(dir string) Option {
	return func(s *Source) {
		s.dir = strings.Trim(dir, "/")
	}
}

// WithDepth sets the clone depth (number of commits). Default is 0 (full history),
// which keeps last-modified dates accurate; shallow clones date every file at the
// oldest fetched commit.
func WithDepth(depth int) Option {
	return func(s *Source) {
		s.depth = depth
	}
}

// WithAuth sets the token for HTTPS auth (e.g. GitHub/GitLab personal access token).
// Used as BasicAuth username "x-access-token" with password token.
func WithAuth(token string) Option {
	return func(s *Source) {
		s.authToken = token
	}
}

// WithWebURL sets the browser base of the repository (e.g. "https://github.com/acme/prompts")
// so FileURL can link to files. Default is "" (no links).
func WithWebURL(u string) Option {
	return func(s *Source) {
		s.webURL = strings.TrimSuffix(u, "/")
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}
