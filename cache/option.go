package cache

import (
	"log/slog"
	"time"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/snapshot"
)

// Option configures a Manager (functional options pattern).
type Option func(*Manager)

// WithTTL sets the freshness window of the persisted entry. Default is 24 hours.
// TTL <= 0 means a persisted entry never expires.
func WithTTL(d time.Duration) Option {
	return func(m *Manager) {
		m.ttl = d
	}
}

// WithSnapshot sets the static snapshot consulted when the persisted entry is missing or expired.
func WithSnapshot(l snapshot.Loader) Option {
	return func(m *Manager) {
		m.snapshot = l
	}
}

// WithIngester sets the live source. Without one the network tier is skipped.
func WithIngester(i Ingester) Option {
	return func(m *Manager) {
		m.ingester = i
	}
}

// WithFallback sets templates served when every other tier came up empty.
func WithFallback(col promptstash.Collection) Option {
	return func(m *Manager) {
		m.fallback = col.Clone()
	}
}

// WithPreserveSnapshotTime stamps a persisted snapshot with its own timestamp instead
// of the current time, so an old snapshot expires on schedule. A snapshot that is
// already past the TTL is then skipped in favour of live ingestion and only used as
// a stale fallback.
func WithPreserveSnapshotTime() Option {
	return func(m *Manager) {
		m.preserveSnapshotTime = true
	}
}

// WithKey sets the storage key of the persisted entry. Default is DefaultKey.
func WithKey(key string) Option {
	return func(m *Manager) {
		if key != "" {
			m.key = key
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}
