package promptstash

import "slices"

// Origin marks where a template came from. Values match the snapshot JSON format.
type Origin string

// Template origins.
const (
	OriginNetwork Origin = "github"
	OriginBuiltin Origin = "local"
)

// PlaceholderSource records which document section produced Template.Placeholders.
type PlaceholderSource string

// Placeholder sources in resolution priority.
const (
	PlaceholdersFromInputs   PlaceholderSource = "inputs"
	PlaceholdersFromLegacy   PlaceholderSource = "placeholders"
	PlaceholdersFromDetected PlaceholderSource = "detected"
)

// Placeholder is a named substitution point {{name}} in a template body.
type Placeholder struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
	Type        string `json:"type,omitempty"`
}

// FileRef is one template file in a source repository listing.
// SHA is the content-addressed blob id and becomes Template.ID.
type FileRef struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
	Size int64  `json:"size,omitempty"`
}

// Template is a normalized prompt document. It is not mutated after ingestion;
// Favorite is the only derived field and is merged in at read time.
type Template struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Description       string            `json:"description"`
	Category          string            `json:"category"`
	Tags              []string          `json:"tags"`
	Body              string            `json:"template"`
	Placeholders      []Placeholder     `json:"placeholders"`
	PlaceholderSource PlaceholderSource `json:"placeholderSource,omitempty"`
	SourcePath        string            `json:"sourcePath,omitempty"`
	LastUpdated       string            `json:"lastUpdated,omitempty"`
	Origin            Origin            `json:"source"`
	CommitShort       string            `json:"githubCommit,omitempty"`
	HTMLURL           string            `json:"githubUrl,omitempty"`
	Contributor       string            `json:"contributor,omitempty"`
	Favorite          bool              `json:"isFavorite,omitempty"`
}

// PlaceholderNames returns the authoritative placeholder name set used by Render.
func (t *Template) PlaceholderNames() map[string]struct{} {
	names := make(map[string]struct{}, len(t.Placeholders))
	for _, p := range t.Placeholders {
		names[p.Name] = struct{}{}
	}
	return names
}

// Clone returns a copy of t with cloned slice fields.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}
	out := *t
	out.Tags = slices.Clone(t.Tags)
	out.Placeholders = slices.Clone(t.Placeholders)
	return &out
}

// Collection is an unordered set of templates produced by one ingestion or snapshot.
type Collection []Template

// Clone returns a deep copy so callers cannot mutate a cached collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	for i := range c {
		out[i] = *c[i].Clone()
	}
	return out
}

// DateLayout formats last-modified dates for display, e.g. "2 Jan 2006".
const DateLayout = "2 Jan 2006"

// UnknownDate is the last-modified label when no commit date could be resolved.
const UnknownDate = "Unknown"

// ShortSHA returns the first seven characters of a blob or commit id.
func ShortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
