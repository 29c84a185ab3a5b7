// Package snapshot reads and writes the pre-generated template catalog that seeds an
// empty cache without touching the network. The JSON layout is
// {"templates": [...], "timestamp": <unix ms>, "generatedAt": "<RFC 3339>"}.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/skosovsky/promptstash"
)

// ErrNotFound means no snapshot is published at the configured location.
var ErrNotFound = errors.New("snapshot: not found")

// maxSnapshotSize caps HTTP snapshot bodies.
const maxSnapshotSize = 32 << 20

// Snapshot is a serialized catalog.
type Snapshot struct {
	Templates   promptstash.Collection `json:"templates"`
	Timestamp   int64                  `json:"timestamp"`
	GeneratedAt string                 `json:"generatedAt"`
}

// Loader fetches a snapshot. A missing snapshot returns an error wrapping ErrNotFound.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

var (
	_ Loader = FileLoader("")
	_ Loader = (*FSLoader)(nil)
	_ Loader = (*HTTPLoader)(nil)
)

// New stamps col with now.
func New(col promptstash.Collection, now time.Time) *Snapshot {
	if col == nil {
		col = promptstash.Collection{}
	}
	return &Snapshot{
		Templates:   col,
		Timestamp:   now.UnixMilli(),
		GeneratedAt: now.UTC().Format(time.RFC3339),
	}
}

// Decode parses a snapshot document. Errors wrap promptstash.ErrParse.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: snapshot: %w", promptstash.ErrParse, err)
	}
	return &s, nil
}

// Write encodes s as indented JSON.
func Write(w io.Writer, s *Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	return nil
}

// WriteFile writes s to path through a temp file and rename.
func WriteFile(path string, s *Snapshot) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("snapshot: temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = Write(tmp, s); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: replace %s: %w", path, err)
	}
	return nil
}

// FileLoader reads a snapshot from a local path.
type FileLoader string

// Load implements Loader.
func (p FileLoader) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(string(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, string(p))
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", string(p), err)
	}
	return Decode(data)
}

// FSLoader reads a snapshot from an fs.FS, typically an embed.FS shipped with the binary.
type FSLoader struct {
	FS   fs.FS
	Name string
}

// Load implements Loader.
func (l *FSLoader) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(l.FS, l.Name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, l.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", l.Name, err)
	}
	return Decode(data)
}

// HTTPLoader fetches a snapshot published as a static asset.
type HTTPLoader struct {
	URL    string
	Client *http.Client
}

// Load implements Loader. 404 maps to ErrNotFound, other non-2xx to promptstash.ErrUpstream.
func (l *HTTPLoader) Load(ctx context.Context) (*Snapshot, error) {
	hc := l.Client
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("snapshot: new request: %w", err)
	}
	resp, err := hc.Do(req) // #nosec G704 -- URL is set by operator configuration
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot: %w", promptstash.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, l.URL)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: snapshot: HTTP %d", promptstash.ErrUpstream, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot: read body: %w", promptstash.ErrNetwork, err)
	}
	if len(data) > maxSnapshotSize {
		return nil, fmt.Errorf("%w: snapshot exceeds %d bytes", promptstash.ErrUpstream, maxSnapshotSize)
	}
	return Decode(data)
}
