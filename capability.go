package promptstash

import (
	"context"
	"log/slog"
)

// Analytics event names emitted by the dispatch and API layers.
const (
	EventTemplateOpened  = "template_opened"
	EventPromptSent      = "prompt_sent"
	EventPromptCopied    = "prompt_copied"
	EventFavoriteAdded   = "favorite_added"
	EventFavoriteRemoved = "favorite_removed"
	EventSearchUsed      = "search_used"
	EventCatalogRefresh  = "catalog_refreshed"
)

// Tracker receives analytics events from the layers around the core.
// Ingestion, caching and rendering never call it themselves.
type Tracker interface {
	Track(ctx context.Context, event string, props map[string]string)
}

// MetaTagSink receives document metadata (title, description, canonical path) for the selected template.
type MetaTagSink interface {
	SetMeta(title, description, canonicalPath string)
}

// NopTracker discards every event.
type NopTracker struct{}

// Track implements Tracker.
func (NopTracker) Track(context.Context, string, map[string]string) {}

// NopMetaTagSink discards metadata.
type NopMetaTagSink struct{}

// SetMeta implements MetaTagSink.
func (NopMetaTagSink) SetMeta(string, string, string) {}

// LogTracker writes events to a slog.Logger at Info level.
type LogTracker struct {
	Logger *slog.Logger
}

// Track implements Tracker.
func (t LogTracker) Track(ctx context.Context, event string, props map[string]string) {
	l := t.Logger
	if l == nil {
		l = slog.Default()
	}
	attrs := make([]any, 0, 2*len(props)+2)
	attrs = append(attrs, "event", event)
	for k, v := range props {
		attrs = append(attrs, k, v)
	}
	l.InfoContext(ctx, "analytics event", attrs...)
}

var (
	_ Tracker     = NopTracker{}
	_ Tracker     = LogTracker{}
	_ MetaTagSink = NopMetaTagSink{}
)
