package prefs

import (
	"context"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/kvstore"
)

// Profile is the free-text blurb prepended to dispatched prompts.
type Profile struct {
	base
}

// NewProfile creates Profile over store. Panics if store is nil.
func NewProfile(store kvstore.Store, opts ...Option) *Profile {
	return &Profile{base: newBase(store, opts)}
}

// Get returns the profile or "".
func (p *Profile) Get(ctx context.Context) string {
	raw, _ := p.read(ctx, ProfileKey)
	return raw
}

// Save stores profile as is.
func (p *Profile) Save(ctx context.Context, profile string) error {
	return p.write(ctx, ProfileKey, profile)
}

// Clear drops the profile.
func (p *Profile) Clear(ctx context.Context) error {
	return p.remove(ctx, ProfileKey)
}

// Prepend applies promptstash.PrependProfile with the saved profile.
func (p *Profile) Prepend(ctx context.Context, body string) string {
	return promptstash.PrependProfile(body, p.Get(ctx))
}
