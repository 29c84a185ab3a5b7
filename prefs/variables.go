package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/kvstore"
)

// Variables stores placeholder values per template id.
type Variables struct {
	base
}

// NewVariables creates Variables over store. Panics if store is nil.
func NewVariables(store kvstore.Store, opts ...Option) *Variables {
	return &Variables{base: newBase(store, opts)}
}

// Get returns the saved values for templateID, never nil.
func (v *Variables) Get(ctx context.Context, templateID string) map[string]string {
	vals := map[string]string{}
	if !v.readJSON(ctx, VariablesPrefix+templateID, &vals) || vals == nil {
		return map[string]string{}
	}
	return vals
}

// Save replaces all values for templateID.
func (v *Variables) Save(ctx context.Context, templateID string, vals map[string]string) error {
	if vals == nil {
		vals = map[string]string{}
	}
	return v.writeJSON(ctx, VariablesPrefix+templateID, vals)
}

// Update sets one value, keeping the others.
func (v *Variables) Update(ctx context.Context, templateID, name, value string) error {
	vals := v.Get(ctx, templateID)
	vals[name] = value
	return v.Save(ctx, templateID, vals)
}

// Clear drops the values for templateID.
func (v *Variables) Clear(ctx context.Context, templateID string) error {
	return v.remove(ctx, VariablesPrefix+templateID)
}

// ClearAll drops saved values of every template. The store must implement kvstore.Scanner.
func (v *Variables) ClearAll(ctx context.Context) error {
	sc, ok := v.store.(kvstore.Scanner)
	if !ok {
		return errors.New("prefs: store cannot enumerate keys")
	}
	keys, err := sc.Keys(ctx, VariablesPrefix)
	if err != nil {
		return fmt.Errorf("%w: %w", promptstash.ErrStorage, err)
	}
	var errs []error
	for _, k := range keys {
		if err := v.remove(ctx, k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
