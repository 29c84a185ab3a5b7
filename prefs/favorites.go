package prefs

import (
	"context"
	"slices"

	"github.com/skosovsky/promptstash/kvstore"
)

// Favorites is the ordered set of favorite template ids.
type Favorites struct {
	base
}

// NewFavorites creates Favorites over store. Panics if store is nil.
func NewFavorites(store kvstore.Store, opts ...Option) *Favorites {
	return &Favorites{base: newBase(store, opts)}
}

// List returns favorite ids in the order they were added.
func (f *Favorites) List(ctx context.Context) []string {
	var ids []string
	if !f.readJSON(ctx, FavoritesKey, &ids) {
		return []string{}
	}
	return ids
}

// Set returns the favorites as a set for membership checks.
func (f *Favorites) Set(ctx context.Context) map[string]bool {
	ids := f.List(ctx)
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// Contains reports whether id is a favorite.
func (f *Favorites) Contains(ctx context.Context, id string) bool {
	return slices.Contains(f.List(ctx), id)
}

// Add appends id unless it is already a favorite.
func (f *Favorites) Add(ctx context.Context, id string) error {
	ids := f.List(ctx)
	if slices.Contains(ids, id) {
		return nil
	}
	return f.writeJSON(ctx, FavoritesKey, append(ids, id))
}

// Remove drops id.
func (f *Favorites) Remove(ctx context.Context, id string) error {
	ids := slices.DeleteFunc(f.List(ctx), func(s string) bool { return s == id })
	return f.writeJSON(ctx, FavoritesKey, ids)
}

// Toggle flips id and returns whether it is now a favorite.
func (f *Favorites) Toggle(ctx context.Context, id string) (bool, error) {
	if f.Contains(ctx, id) {
		return false, f.Remove(ctx, id)
	}
	return true, f.Add(ctx, id)
}

// Clear drops all favorites.
func (f *Favorites) Clear(ctx context.Context) error {
	return f.remove(ctx, FavoritesKey)
}
