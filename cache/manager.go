package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/kvstore"
	"github.com/skosovsky/promptstash/snapshot"
)

const (
	// DefaultTTL is the freshness window of the persisted entry.
	DefaultTTL = 24 * time.Hour
	// DefaultKey is the storage key of the persisted entry.
	DefaultKey = "promptstash_templates_cache"
)

// Tier names the source that served a Result.
type Tier string

// Tiers in resolution order.
const (
	TierFresh    Tier = "fresh"
	TierSnapshot Tier = "snapshot"
	TierNetwork  Tier = "network"
	TierStale    Tier = "stale"
	TierFallback Tier = "fallback"
	TierEmpty    Tier = "empty"
)

// Ingester produces the live catalog; *ingest.Ingester implements it.
type Ingester interface {
	Ingest(ctx context.Context) (promptstash.Collection, error)
}

// Entry is the persisted cache value.
type Entry struct {
	Templates   promptstash.Collection `json:"templates"`
	Timestamp   int64                  `json:"timestamp"`
	GeneratedAt string                 `json:"generatedAt,omitempty"`
}

// Result is what GetTemplates served. Err is the ingestion error that forced a
// degraded tier and is nil otherwise. Timestamp is the Unix ms stamp of the served
// data, zero for the fallback and empty tiers.
type Result struct {
	Templates promptstash.Collection
	Tier      Tier
	Timestamp int64
	Err       error
}

// RateLimited reports whether the live source was out of quota.
func (r Result) RateLimited() bool {
	return errors.Is(r.Err, promptstash.ErrRateLimit)
}

// Degraded reports whether the result came from a tier past live data or a fresh copy.
func (r Result) Degraded() bool {
	switch r.Tier {
	case TierStale, TierFallback, TierEmpty:
		return true
	default:
		return false
	}
}

// Manager owns the persisted catalog entry. Safe for concurrent use; concurrent
// GetTemplates calls share one resolution.
type Manager struct {
	store                kvstore.Store
	snapshot             snapshot.Loader
	ingester             Ingester
	fallback             promptstash.Collection
	ttl                  time.Duration
	key                  string
	preserveSnapshotTime bool
	now                  func() time.Time
	logger               *slog.Logger
	sf                   singleflight.Group
}

// New creates a Manager persisting into store. Panics if store is nil.
func New(store kvstore.Store, opts ...Option) *Manager {
	if store == nil {
		panic("cache: store must not be nil")
	}
	m := &Manager{
		store:  store,
		ttl:    DefaultTTL,
		key:    DefaultKey,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetTemplates returns the catalog from the first tier that has one. It never fails;
// the returned collection is the caller's to modify.
func (m *Manager) GetTemplates(ctx context.Context) Result {
	return m.shared(ctx, "get", m.resolve)
}

// Refresh skips the fresh and snapshot tiers and goes to the live source. On failure
// it degrades exactly like GetTemplates, serving any persisted entry as stale.
func (m *Manager) Refresh(ctx context.Context) Result {
	return m.shared(ctx, "refresh", m.refresh)
}

// Invalidate drops the persisted entry so the next GetTemplates starts over.
func (m *Manager) Invalidate(ctx context.Context) error {
	if err := m.store.Remove(ctx, m.key); err != nil {
		return fmt.Errorf("%w: %w", promptstash.ErrStorage, err)
	}
	return nil
}

func (m *Manager) shared(ctx context.Context, key string, fn func(context.Context) Result) Result {
	ch := m.sf.DoChan(key, func() (any, error) {
		rctx, cancel := detachCancel(ctx)
		defer cancel()
		return fn(rctx), nil
	})
	select {
	case <-ctx.Done():
		return Result{Tier: TierEmpty, Templates: promptstash.Collection{}, Err: ctx.Err()}
	case r := <-ch:
		res := r.Val.(Result)
		res.Templates = res.Templates.Clone()
		return res
	}
}

func (m *Manager) resolve(ctx context.Context) Result {
	now := m.now()
	local := m.load(ctx)
	if local != nil && m.fresh(local, now) {
		m.logger.Debug("templates served", "tier", TierFresh, "count", len(local.Templates))
		return Result{Templates: local.Templates, Tier: TierFresh, Timestamp: local.Timestamp}
	}

	stale := local
	if m.snapshot != nil {
		if snap := m.loadSnapshot(ctx); snap != nil {
			ent := &Entry{Templates: snap.Templates, Timestamp: now.UnixMilli(), GeneratedAt: snap.GeneratedAt}
			if m.preserveSnapshotTime {
				ent.Timestamp = snap.Timestamp
			}
			if !m.preserveSnapshotTime || m.fresh(ent, now) {
				m.save(ctx, ent)
				m.logger.Debug("templates served", "tier", TierSnapshot, "count", len(ent.Templates))
				return Result{Templates: ent.Templates, Tier: TierSnapshot, Timestamp: ent.Timestamp}
			}
			if stale == nil || ent.Timestamp > stale.Timestamp {
				stale = ent
			}
		}
	}
	return m.network(ctx, stale)
}

func (m *Manager) refresh(ctx context.Context) Result {
	return m.network(ctx, m.load(ctx))
}

func (m *Manager) network(ctx context.Context, stale *Entry) Result {
	var err error
	if m.ingester == nil {
		err = fmt.Errorf("%w: no live source configured", promptstash.ErrNetwork)
	} else {
		var col promptstash.Collection
		col, err = m.ingester.Ingest(ctx)
		if err == nil {
			if col == nil {
				col = promptstash.Collection{}
			}
			ent := &Entry{Templates: col, Timestamp: m.now().UnixMilli()}
			m.save(ctx, ent)
			m.logger.Debug("templates served", "tier", TierNetwork, "count", len(col))
			return Result{Templates: col, Tier: TierNetwork, Timestamp: ent.Timestamp}
		}
		m.logger.Warn("live ingestion failed", "err", err, "rate_limited", errors.Is(err, promptstash.ErrRateLimit))
	}

	switch {
	case stale != nil:
		m.logger.Info("templates served", "tier", TierStale, "count", len(stale.Templates))
		return Result{Templates: stale.Templates, Tier: TierStale, Timestamp: stale.Timestamp, Err: err}
	case len(m.fallback) > 0:
		m.logger.Info("templates served", "tier", TierFallback, "count", len(m.fallback))
		return Result{Templates: m.fallback, Tier: TierFallback, Err: err}
	default:
		m.logger.Warn("no templates available", "tier", TierEmpty)
		return Result{Templates: promptstash.Collection{}, Tier: TierEmpty, Err: err}
	}
}

func (m *Manager) fresh(e *Entry, now time.Time) bool {
	return m.ttl <= 0 || now.Sub(time.UnixMilli(e.Timestamp)) < m.ttl
}

// load returns the persisted entry, or nil when absent, unreadable or corrupt.
func (m *Manager) load(ctx context.Context) *Entry {
	raw, ok, err := m.store.Get(ctx, m.key)
	if err != nil {
		m.logger.Warn("cache read failed", "key", m.key, "err", fmt.Errorf("%w: %w", promptstash.ErrStorage, err))
		return nil
	}
	if !ok {
		return nil
	}
	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || e.Templates == nil {
		m.logger.Warn("cache entry is corrupt, ignoring", "key", m.key, "err", err)
		return nil
	}
	return &e
}

func (m *Manager) save(ctx context.Context, e *Entry) {
	raw, err := json.Marshal(e)
	if err != nil {
		m.logger.Warn("cache encode failed", "err", err)
		return
	}
	if err := m.store.Set(ctx, m.key, string(raw)); err != nil {
		m.logger.Warn("cache write failed", "key", m.key, "err", fmt.Errorf("%w: %w", promptstash.ErrStorage, err))
	}
}

// loadSnapshot returns nil for a missing, broken or empty snapshot.
func (m *Manager) loadSnapshot(ctx context.Context) *snapshot.Snapshot {
	snap, err := m.snapshot.Load(ctx)
	switch {
	case errors.Is(err, snapshot.ErrNotFound):
		m.logger.Debug("no static snapshot", "err", err)
		return nil
	case err != nil:
		m.logger.Warn("static snapshot unavailable", "err", err)
		return nil
	case len(snap.Templates) == 0:
		m.logger.Debug("static snapshot is empty")
		return nil
	}
	return snap
}

// detachCancel returns a context that is not cancelled with parent but keeps its
// deadline, so one caller giving up does not abort a resolution others wait on.
func detachCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := context.WithoutCancel(parent)
	if dl, ok := parent.Deadline(); ok {
		return context.WithDeadline(ctx, dl)
	}
	return context.WithCancel(ctx)
}
