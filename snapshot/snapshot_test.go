package snapshot

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/promptstash"
)

const sampleDoc = `{
  "templates": [
    {"id": "abc1234def", "name": "Review", "template": "Review {{code}}", "source": "github", "githubCommit": "abc1234"}
  ],
  "timestamp": 1735689600000,
  "generatedAt": "2025-01-01T00:00:00Z"
}`

func TestDecode(t *testing.T) {
	t.Parallel()
	s, err := Decode([]byte(sampleDoc))
	require.NoError(t, err)
	require.Len(t, s.Templates, 1)
	assert.Equal(t, "Review", s.Templates[0].Name)
	assert.Equal(t, "Review {{code}}", s.Templates[0].Body)
	assert.Equal(t, promptstash.OriginNetwork, s.Templates[0].Origin)
	assert.Equal(t, int64(1735689600000), s.Timestamp)
	assert.Equal(t, "2025-01-01T00:00:00Z", s.GeneratedAt)

	_, err = Decode([]byte("{broken"))
	require.ErrorIs(t, err, promptstash.ErrParse)
}

func TestNewAndWrite(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	s := New(nil, now)
	assert.NotNil(t, s.Templates)
	assert.Equal(t, now.UnixMilli(), s.Timestamp)
	assert.Equal(t, "2025-03-04T05:06:07Z", s.GeneratedAt)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, s))
	assert.JSONEq(t, `{"templates":[],"timestamp":1741064767000,"generatedAt":"2025-03-04T05:06:07Z"}`, buf.String())
}

func TestWriteFile_FileLoader(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "templates-cache.json")
	col := promptstash.Collection{{ID: "1", Name: "One", Body: "hi"}}
	require.NoError(t, WriteFile(path, New(col, time.Unix(100, 0))))

	got, err := FileLoader(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Templates, 1)
	assert.Equal(t, "One", got.Templates[0].Name)
	assert.Equal(t, int64(100000), got.Timestamp)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not linger")
}

func TestFileLoader_Missing(t *testing.T) {
	t.Parallel()
	_, err := FileLoader(filepath.Join(t.TempDir(), "none.json")).Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFSLoader(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"cache/templates-cache.json": {Data: []byte(sampleDoc)}}

	got, err := (&FSLoader{FS: fsys, Name: "cache/templates-cache.json"}).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got.Templates, 1)

	_, err = (&FSLoader{FS: fsys, Name: "missing.json"}).Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPLoader(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/templates-cache.json":
			_, _ = w.Write([]byte(sampleDoc))
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	got, err := (&HTTPLoader{URL: srv.URL + "/templates-cache.json", Client: srv.Client()}).Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Templates, 1)

	_, err = (&HTTPLoader{URL: srv.URL + "/nope"}).Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = (&HTTPLoader{URL: srv.URL + "/broken"}).Load(ctx)
	require.ErrorIs(t, err, promptstash.ErrUpstream)
}

func TestLoader_CanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FileLoader("x").Load(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
