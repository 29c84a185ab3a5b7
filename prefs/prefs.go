// Package prefs persists per-user state over a kvstore.Store: favorite templates,
// recently used templates, saved placeholder values and the free-text profile.
//
// Reads never fail: a missing, unreadable or corrupt value is logged and reads as
// empty. Writes return errors wrapping promptstash.ErrStorage.
package prefs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/kvstore"
)

// Storage keys.
const (
	FavoritesKey    = "promptstash_favorites"
	RecentsKey      = "promptstash_recently_used"
	VariablesPrefix = "template-variables-"
	ProfileKey      = "promptstash.user.profile"
)

// MaxRecents bounds the recently used list.
const MaxRecents = 20

// Option configures the preference services.
type Option func(*base)

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClock overrides time.Now for recents timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		if now != nil {
			b.now = now
		}
	}
}

type base struct {
	store  kvstore.Store
	logger *slog.Logger
	now    func() time.Time
}

func newBase(store kvstore.Store, opts []Option) base {
	if store == nil {
		panic("prefs: store must not be nil")
	}
	b := base{store: store, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// readJSON decodes key into v and reports whether a usable value was found.
func (b *base) readJSON(ctx context.Context, key string, v any) bool {
	raw, ok := b.read(ctx, key)
	if !ok || raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		b.logger.Warn("ignoring corrupt preference", "key", key, "err", err)
		return false
	}
	return true
}

func (b *base) read(ctx context.Context, key string) (string, bool) {
	raw, ok, err := b.store.Get(ctx, key)
	if err != nil {
		b.logger.Warn("preference read failed", "key", key, "err", err)
		return "", false
	}
	return raw, ok
}

func (b *base) writeJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", promptstash.ErrStorage, key, err)
	}
	return b.write(ctx, key, string(raw))
}

func (b *base) write(ctx context.Context, key, value string) error {
	if err := b.store.Set(ctx, key, value); err != nil {
		return fmt.Errorf("%w: %w", promptstash.ErrStorage, err)
	}
	return nil
}

func (b *base) remove(ctx context.Context, key string) error {
	if err := b.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("%w: %w", promptstash.ErrStorage, err)
	}
	return nil
}
