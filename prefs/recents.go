package prefs

import (
	"cmp"
	"context"
	"slices"

	"github.com/skosovsky/promptstash/kvstore"
)

type recentItem struct {
	TemplateID string `json:"templateId"`
	Timestamp  int64  `json:"timestamp"`
}

// Recents is the bounded most-recent-first list of used template ids.
type Recents struct {
	base
}

// NewRecents creates Recents over store. Panics if store is nil.
func NewRecents(store kvstore.Store, opts ...Option) *Recents {
	return &Recents{base: newBase(store, opts)}
}

// List returns ids, most recent first.
func (r *Recents) List(ctx context.Context) []string {
	items := r.items(ctx)
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.TemplateID)
	}
	return out
}

// Rank maps each recent id to its position, 0 being the most recent.
func (r *Recents) Rank(ctx context.Context) map[string]int {
	ids := r.List(ctx)
	out := make(map[string]int, len(ids))
	for i, id := range ids {
		out[id] = i
	}
	return out
}

// Contains reports whether id was used recently.
func (r *Recents) Contains(ctx context.Context, id string) bool {
	return slices.Contains(r.List(ctx), id)
}

// Add moves id to the front, stamped now, keeping at most MaxRecents entries.
func (r *Recents) Add(ctx context.Context, id string) error {
	items := slices.DeleteFunc(r.items(ctx), func(it recentItem) bool { return it.TemplateID == id })
	items = slices.Insert(items, 0, recentItem{TemplateID: id, Timestamp: r.now().UnixMilli()})
	if len(items) > MaxRecents {
		items = items[:MaxRecents]
	}
	return r.writeJSON(ctx, RecentsKey, items)
}

// Clear drops the list.
func (r *Recents) Clear(ctx context.Context) error {
	return r.remove(ctx, RecentsKey)
}

func (r *Recents) items(ctx context.Context) []recentItem {
	var items []recentItem
	if !r.readJSON(ctx, RecentsKey, &items) {
		return nil
	}
	slices.SortStableFunc(items, func(a, b recentItem) int { return cmp.Compare(b.Timestamp, a.Timestamp) })
	return items
}
