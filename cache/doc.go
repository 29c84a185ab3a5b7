// Package cache resolves the current template catalog through tiers, first hit wins:
// a fresh persisted entry, the static snapshot, live ingestion, the stale persisted
// entry, the configured fallback set, and finally an empty collection.
// GetTemplates never fails; Result reports which tier served and why it degraded.
package cache
