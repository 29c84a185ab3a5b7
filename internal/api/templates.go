package api

import (
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/cache"
	"github.com/skosovsky/promptstash/catalog"
	"github.com/skosovsky/promptstash/dispatch"
)

type handler struct {
	Deps
}

// ListTemplates handles GET /api/templates.
// Query params: q, category, tags (comma separated), quick (recent|favorites), fuzzy.
func (h *handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	res := h.Catalog.GetTemplates(r.Context())
	f := parseFilter(r)
	if f.Query != "" {
		h.Tracker.Track(r.Context(), promptstash.EventSearchUsed, map[string]string{"query": f.Query})
	}
	writeJSON(w, http.StatusOK, h.listResponse(r, res, f))
}

// Refresh handles POST /api/refresh.
func (h *handler) Refresh(w http.ResponseWriter, r *http.Request) {
	res := h.Catalog.Refresh(r.Context())
	h.Tracker.Track(r.Context(), promptstash.EventCatalogRefresh, map[string]string{"origin": string(res.Tier)})
	writeJSON(w, http.StatusOK, h.listResponse(r, res, catalog.Filter{}))
}

func (h *handler) listResponse(r *http.Request, res cache.Result, f catalog.Filter) TemplateListResponse {
	st := catalog.State{Favorites: h.favorites(r)}
	if h.Recents != nil {
		st.RecentRank = h.Recents.Rank(r.Context())
	}
	col := catalog.MarkFavorites(res.Templates, st.Favorites)
	matched := catalog.Apply(col, f, st)
	return TemplateListResponse{
		Templates:  matched,
		Categories: catalog.Categories(col),
		Tags:       catalog.Tags(col),
		Total:      len(col),
		Catalog:    catalogMeta(res),
	}
}

// GetTemplate handles GET /api/templates/{id}. Opening a template records it as
// recently used.
func (h *handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	res := h.Catalog.GetTemplates(r.Context())
	t, ok := catalog.FindByID(res.Templates, chi.URLParam(r, "id"))
	if !ok {
		writeDomainError(w, promptstash.ErrTemplateNotFound)
		return
	}
	h.open(w, r, t, res)
}

// GetPermalink handles GET /api/permalink/*, resolving a repository path with or
// without its extension.
func (h *handler) GetPermalink(w http.ResponseWriter, r *http.Request) {
	res := h.Catalog.GetTemplates(r.Context())
	t, ok := catalog.FindByPath(res.Templates, chi.URLParam(r, "*"))
	if !ok {
		writeDomainError(w, promptstash.ErrTemplateNotFound)
		return
	}
	h.open(w, r, t, res)
}

func (h *handler) open(w http.ResponseWriter, r *http.Request, t *promptstash.Template, res cache.Result) {
	ctx := r.Context()
	if h.Recents != nil {
		if err := h.Recents.Add(ctx, t.ID); err != nil {
			h.Logger.WarnContext(ctx, "record recent template", "template", t.ID, "error", err)
		}
	}
	if h.Favorites != nil {
		t.Favorite = h.Favorites.Contains(ctx, t.ID)
	}
	h.Tracker.Track(ctx, promptstash.EventTemplateOpened, map[string]string{
		"template_id": t.ID,
		"category":    t.Category,
	})
	h.Meta.SetMeta(t.Name, t.Description, canonicalPath(t))

	saved := h.savedValues(r, t.ID)
	writeJSON(w, http.StatusOK, TemplateResponse{
		Template:    *t,
		SavedValues: saved,
		Missing:     nonNil(promptstash.MissingRequired(t.Placeholders, saved)),
		Catalog:     catalogMeta(res),
	})
}

// Render handles POST /api/templates/{id}/render and returns the live preview.
func (h *handler) Render(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req RenderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Save && h.Variables != nil {
		if err := h.Variables.Save(r.Context(), t.ID, req.Values); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	missing := promptstash.MissingRequired(t.Placeholders, req.Values)
	writeJSON(w, http.StatusOK, RenderResponse{
		Text:    promptstash.Render(t, req.Values),
		Missing: nonNil(missing),
		Ready:   len(missing) == 0,
	})
}

// Send handles POST /api/templates/{id}/send. Without a tool the prompt is only
// copied; with one the response carries the launch URL.
func (h *handler) Send(w http.ResponseWriter, r *http.Request) {
	t, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req SendRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		out dispatch.Outcome
		err error
	)
	if strings.TrimSpace(req.Tool) == "" {
		out, err = h.Dispatcher.Copy(r.Context(), t, req.Values)
	} else {
		tool, perr := dispatch.ParseTool(req.Tool)
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error(), "unknown_tool")
			return
		}
		out, err = h.Dispatcher.Send(r.Context(), t, req.Values, tool)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (*promptstash.Template, bool) {
	res := h.Catalog.GetTemplates(r.Context())
	t, ok := catalog.FindByID(res.Templates, chi.URLParam(r, "id"))
	if !ok {
		writeDomainError(w, promptstash.ErrTemplateNotFound)
		return nil, false
	}
	return t, true
}

func (h *handler) favorites(r *http.Request) map[string]bool {
	if h.Favorites == nil {
		return map[string]bool{}
	}
	return h.Favorites.Set(r.Context())
}

func (h *handler) savedValues(r *http.Request, id string) map[string]string {
	if h.Variables == nil {
		return map[string]string{}
	}
	return h.Variables.Get(r.Context(), id)
}

func parseFilter(r *http.Request) catalog.Filter {
	q := r.URL.Query()
	f := catalog.Filter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: q.Get("category"),
		Quick:    catalog.Quick(q.Get("quick")),
	}
	for _, tag := range strings.Split(q.Get("tags"), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			f.Tags = append(f.Tags, tag)
		}
	}
	switch strings.ToLower(q.Get("fuzzy")) {
	case "1", "true", "yes":
		f.Fuzzy = true
	}
	return f
}

func catalogMeta(res cache.Result) CatalogMeta {
	m := CatalogMeta{
		Origin:      res.Tier,
		Timestamp:   res.Timestamp,
		Degraded:    res.Degraded(),
		RateLimited: res.RateLimited(),
	}
	switch {
	case m.RateLimited:
		m.Warning = "GitHub rate limit exceeded; showing saved templates"
	case res.Err != nil:
		m.Warning = "could not reach the template repository; showing saved templates"
	}
	return m
}

func canonicalPath(t *promptstash.Template) string {
	if t.SourcePath == "" {
		return "/"
	}
	return "/" + strings.TrimSuffix(t.SourcePath, path.Ext(t.SourcePath))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
