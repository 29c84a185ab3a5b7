package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/promptstash"
	"github.com/skosovsky/promptstash/cache"
	"github.com/skosovsky/promptstash/dispatch"
	"github.com/skosovsky/promptstash/internal/api"
	"github.com/skosovsky/promptstash/kvstore"
	"github.com/skosovsky/promptstash/prefs"
)

type staticCatalog struct {
	res       cache.Result
	refreshes int
}

func (c *staticCatalog) GetTemplates(context.Context) cache.Result {
	r := c.res
	r.Templates = r.Templates.Clone()
	return r
}

func (c *staticCatalog) Refresh(ctx context.Context) cache.Result {
	c.refreshes++
	return c.GetTemplates(ctx)
}

type recordingTracker struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTracker) Track(_ context.Context, event string, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTracker) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type metaSink struct {
	title, description, path string
}

func (m *metaSink) SetMeta(title, description, canonicalPath string) {
	m.title, m.description, m.path = title, description, canonicalPath
}

type fakeClipboard struct {
	text string
}

func (c *fakeClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

// testEnv holds all dependencies for one API test.
type testEnv struct {
	server    *httptest.Server
	catalog   *staticCatalog
	tracker   *recordingTracker
	meta      *metaSink
	clipboard *fakeClipboard
	profile   *prefs.Profile
}

func sampleTemplates() promptstash.Collection {
	return promptstash.Collection{
		{
			ID:          "t1",
			Name:        "Code Review",
			Description: "Review a change",
			Category:    "development",
			Tags:        []string{"code", "review"},
			Body:        "Review this:\n{{code}}\nFocus: {{focus}}",
			Placeholders: []promptstash.Placeholder{
				{Name: "code", Required: true},
				{Name: "focus"},
			},
			SourcePath: "development/code-review.yaml",
			Origin:     promptstash.OriginNetwork,
		},
		{
			ID:           "t2",
			Name:         "Meeting Summary",
			Category:     "productivity",
			Tags:         []string{"meetings"},
			Body:         "Summarize {{notes}}",
			Placeholders: []promptstash.Placeholder{{Name: "notes", Required: true}},
			SourcePath:   "productivity/meeting-summary.yaml",
			Origin:       promptstash.OriginNetwork,
		},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := kvstore.NewMemory()
	env := &testEnv{
		catalog:   &staticCatalog{res: cache.Result{Templates: sampleTemplates(), Tier: cache.TierFresh, Timestamp: 1700000000000}},
		tracker:   &recordingTracker{},
		meta:      &metaSink{},
		clipboard: &fakeClipboard{},
		profile:   prefs.NewProfile(store),
	}
	router := api.NewRouter(api.Deps{
		Catalog:   env.catalog,
		Favorites: prefs.NewFavorites(store),
		Recents:   prefs.NewRecents(store),
		Variables: prefs.NewVariables(store),
		Profile:   env.profile,
		Dispatcher: dispatch.New(
			dispatch.WithClipboard(env.clipboard),
			dispatch.WithProfile(env.profile),
			dispatch.WithTracker(env.tracker),
		),
		Tracker: env.tracker,
		Meta:    env.meta,
	})
	env.server = httptest.NewServer(router)
	t.Cleanup(env.server.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rdr)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestListTemplates(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	got := decode[api.TemplateListResponse](t, resp)
	assert.Len(t, got.Templates, 2)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, []string{"development", "productivity"}, got.Categories)
	assert.Equal(t, []string{"code", "meetings", "review"}, got.Tags)
	assert.Equal(t, cache.TierFresh, got.Catalog.Origin)
	assert.False(t, got.Catalog.Degraded)
	assert.Empty(t, env.tracker.Events())
}

func TestListTemplates_Filters(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	got := decode[api.TemplateListResponse](t, env.do(t, http.MethodGet, "/api/templates?q=meeting", nil))
	require.Len(t, got.Templates, 1)
	assert.Equal(t, "t2", got.Templates[0].ID)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, []string{promptstash.EventSearchUsed}, env.tracker.Events())

	got = decode[api.TemplateListResponse](t, env.do(t, http.MethodGet, "/api/templates?category=development&tags=review", nil))
	require.Len(t, got.Templates, 1)
	assert.Equal(t, "t1", got.Templates[0].ID)

	resp := env.do(t, http.MethodPut, "/api/favorites/t2", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[api.TemplateListResponse](t, env.do(t, http.MethodGet, "/api/templates?quick=favorites", nil))
	require.Len(t, got.Templates, 1)
	assert.Equal(t, "t2", got.Templates[0].ID)
	assert.True(t, got.Templates[0].Favorite)
}

func TestListTemplates_DegradedWarning(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.catalog.res.Tier = cache.TierStale
	env.catalog.res.Err = &promptstash.RateLimitError{Status: "403 Forbidden"}

	got := decode[api.TemplateListResponse](t, env.do(t, http.MethodGet, "/api/templates", nil))
	assert.True(t, got.Catalog.Degraded)
	assert.True(t, got.Catalog.RateLimited)
	assert.Contains(t, got.Catalog.Warning, "rate limit")
}

func TestGetTemplate_RecordsOpen(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPut, "/api/templates/t1/variables", map[string]string{"code": "x := 1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/templates/t1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.TemplateResponse](t, resp)
	assert.Equal(t, "Code Review", got.Template.Name)
	assert.Equal(t, map[string]string{"code": "x := 1"}, got.SavedValues)
	assert.Empty(t, got.Missing)

	assert.Equal(t, []string{promptstash.EventTemplateOpened}, env.tracker.Events())
	assert.Equal(t, "Code Review", env.meta.title)
	assert.Equal(t, "/development/code-review", env.meta.path)

	recents := decode[api.IDListResponse](t, env.do(t, http.MethodGet, "/api/recents", nil))
	assert.Equal(t, []string{"t1"}, recents.IDs)
}

func TestGetTemplate_NotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/templates/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "not_found", body["code"])
}

func TestGetPermalink(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	for _, p := range []string{"productivity/meeting-summary", "productivity/meeting-summary.yaml"} {
		resp := env.do(t, http.MethodGet, "/api/permalink/"+p, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, p)
		got := decode[api.TemplateResponse](t, resp)
		assert.Equal(t, "t2", got.Template.ID)
		assert.Equal(t, []string{"notes"}, got.Missing)
	}

	resp := env.do(t, http.MethodGet, "/api/permalink/unknown/path", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRender(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/templates/t1/render", api.RenderRequest{
		Values: map[string]string{"code": "fmt.Println()"},
		Save:   true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.RenderResponse](t, resp)
	assert.Equal(t, "Review this:\nfmt.Println()", got.Text)
	assert.True(t, got.Ready)
	assert.Empty(t, got.Missing)

	saved := decode[map[string]string](t, env.do(t, http.MethodGet, "/api/templates/t1/variables", nil))
	assert.Equal(t, map[string]string{"code": "fmt.Println()"}, saved)

	got = decode[api.RenderResponse](t, env.do(t, http.MethodPost, "/api/templates/t1/render", api.RenderRequest{}))
	assert.Equal(t, "Review this:", got.Text)
	assert.False(t, got.Ready)
	assert.Equal(t, []string{"code"}, got.Missing)
}

func TestRender_BadBody(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/templates/t1/render", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSend(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/profile", api.ProfileBody{Profile: "Go developer"}).StatusCode)

	resp := env.do(t, http.MethodPost, "/api/templates/t2/send", api.SendRequest{
		Values: map[string]string{"notes": "standup"},
		Tool:   "ChatGPT",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dispatch.Outcome](t, resp)
	want := promptstash.ProfileHeading + "Go developer\n\n\nSummarize standup"
	assert.Equal(t, want, out.Text)
	assert.Equal(t, dispatch.ToolChatGPT, out.Tool)
	assert.True(t, out.Prefilled)
	assert.True(t, out.Copied)
	assert.Contains(t, out.URL, "https://chatgpt.com/?q=")
	assert.Equal(t, want, env.clipboard.text)
	assert.Contains(t, env.tracker.Events(), promptstash.EventPromptSent)
}

func TestSend_CopyOnly(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/templates/t2/send", api.SendRequest{Values: map[string]string{"notes": "retro"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dispatch.Outcome](t, resp)
	assert.Equal(t, "Summarize retro", out.Text)
	assert.Empty(t, out.URL)
	assert.True(t, out.PasteHint)
	assert.Equal(t, []string{promptstash.EventPromptCopied}, env.tracker.Events())
}

func TestSend_Errors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/templates/t2/send", api.SendRequest{Tool: "claude"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "missing_required", body["code"])
	assert.Equal(t, []any{"notes"}, body["missing"])
	assert.Empty(t, env.clipboard.text)

	resp = env.do(t, http.MethodPost, "/api/templates/t2/send", api.SendRequest{
		Values: map[string]string{"notes": "x"},
		Tool:   "bard",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFavorites(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	got := decode[api.FavoriteResponse](t, env.do(t, http.MethodPost, "/api/favorites/t1/toggle", nil))
	assert.True(t, got.Favorite)
	ids := decode[api.IDListResponse](t, env.do(t, http.MethodGet, "/api/favorites", nil))
	assert.Equal(t, []string{"t1"}, ids.IDs)

	got = decode[api.FavoriteResponse](t, env.do(t, http.MethodPost, "/api/favorites/t1/toggle", nil))
	assert.False(t, got.Favorite)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/favorites/t2", nil).StatusCode)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/favorites/t2", nil).StatusCode)
	ids = decode[api.IDListResponse](t, env.do(t, http.MethodGet, "/api/favorites", nil))
	assert.Empty(t, ids.IDs)

	assert.Equal(t, []string{
		promptstash.EventFavoriteAdded,
		promptstash.EventFavoriteRemoved,
		promptstash.EventFavoriteAdded,
		promptstash.EventFavoriteRemoved,
	}, env.tracker.Events())
}

func TestVariables(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPatch, "/api/templates/t1/variables", api.UpdateVariableRequest{Name: "focus", Value: "tests"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, http.MethodPatch, "/api/templates/t1/variables", api.UpdateVariableRequest{Name: "code", Value: "x"})
	got := decode[map[string]string](t, resp)
	assert.Equal(t, map[string]string{"focus": "tests", "code": "x"}, got)

	resp = env.do(t, http.MethodPatch, "/api/templates/t1/variables", api.UpdateVariableRequest{Value: "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/templates/t2/variables", map[string]string{"notes": "n"}).StatusCode)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/templates/t1/variables", nil).StatusCode)
	assert.Empty(t, decode[map[string]string](t, env.do(t, http.MethodGet, "/api/templates/t1/variables", nil)))
	assert.Equal(t, map[string]string{"notes": "n"}, decode[map[string]string](t, env.do(t, http.MethodGet, "/api/templates/t2/variables", nil)))

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/variables", nil).StatusCode)
	assert.Empty(t, decode[map[string]string](t, env.do(t, http.MethodGet, "/api/templates/t2/variables", nil)))
}

func TestProfile(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	assert.Empty(t, decode[api.ProfileBody](t, env.do(t, http.MethodGet, "/api/profile", nil)).Profile)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/profile", api.ProfileBody{Profile: "SRE"}).StatusCode)
	assert.Equal(t, "SRE", decode[api.ProfileBody](t, env.do(t, http.MethodGet, "/api/profile", nil)).Profile)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/profile", nil).StatusCode)
	assert.Empty(t, decode[api.ProfileBody](t, env.do(t, http.MethodGet, "/api/profile", nil)).Profile)
}

func TestRecents_Clear(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/templates/t2", nil).StatusCode)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/recents", nil).StatusCode)
	assert.Empty(t, decode[api.IDListResponse](t, env.do(t, http.MethodGet, "/api/recents", nil)).IDs)
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[api.TemplateListResponse](t, resp)
	assert.Len(t, got.Templates, 2)
	assert.Equal(t, 1, env.catalog.refreshes)
	assert.Equal(t, []string{promptstash.EventCatalogRefresh}, env.tracker.Events())
}

func TestNotConfigured(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(api.NewRouter(api.Deps{Catalog: &staticCatalog{res: cache.Result{Tier: cache.TierEmpty}}}))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/favorites")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/api/templates")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var got api.TemplateListResponse
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&got))
	assert.Equal(t, cache.TierEmpty, got.Catalog.Origin)
	assert.True(t, got.Catalog.Degraded)
}
