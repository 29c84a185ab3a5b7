// Package manifest parses template YAML documents into promptstash.Template values.
// The document shape is loose: prompt may be a string or a {user, system} mapping,
// placeholders come from inputs, legacy placeholders, or the body itself.
package manifest

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"

	"github.com/skosovsky/promptstash"

	"gopkg.in/yaml.v3"
)

// DefaultCategory is used when neither the document nor the path names one.
const DefaultCategory = "Uncategorized"

// fileManifest is the YAML document shape. prompt and tags accept more than one form.
type fileManifest struct {
	Name         string      `yaml:"name"`
	Description  string      `yaml:"description"`
	Category     string      `yaml:"category"`
	Tags         stringList  `yaml:"tags"`
	Prompt       promptField `yaml:"prompt"`
	Template     string      `yaml:"template"`
	Inputs       []inputSpec `yaml:"inputs"`
	Placeholders []inputSpec `yaml:"placeholders"`
	Contributor  string      `yaml:"contributor"`
}

type inputSpec struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    *bool  `yaml:"required"`
	Type        string `yaml:"type"`
}

// promptField is either a plain string or a mapping with user and system texts.
type promptField struct {
	text   string
	user   string
	system string
}

func (p *promptField) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
		return node.Decode(&p.text)
	case yaml.MappingNode:
		var m struct {
			User   string `yaml:"user"`
			System string `yaml:"system"`
		}
		if err := node.Decode(&m); err != nil {
			return err
		}
		p.user, p.system = m.User, m.System
		return nil
	default:
		return nil
	}
}

// body resolves the prompt text: string form, then user, then system.
func (p promptField) body() string {
	if p.text != "" {
		return p.text
	}
	if p.user != "" {
		return p.user
	}
	return p.system
}

// stringList accepts a sequence of scalars or a single scalar.
type stringList []string

func (s *stringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || strings.TrimSpace(node.Value) == "" {
			return nil
		}
		*s = stringList{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(stringList, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
				continue
			}
			out = append(out, item.Value)
		}
		*s = out
		return nil
	default:
		return fmt.Errorf("tags: unexpected YAML kind %d", node.Kind)
	}
}

// Parse converts a YAML document into a Template. sourcePath is the file path
// relative to the repository root; folders in it become tags and the default category.
// ID defaults to the git blob id of data. Errors wrap promptstash.ErrParse.
func Parse(data []byte, sourcePath string) (*promptstash.Template, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s: empty document", promptstash.ErrParse, sourcePath)
	}
	var m fileManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", promptstash.ErrParse, sourcePath, err)
	}
	return buildTemplate(&m, data, sourcePath), nil
}

// ParseFile reads and parses a template file; sourcePath is used for tags and category.
func ParseFile(filePath, sourcePath string) (*promptstash.Template, error) {
	data, err := os.ReadFile(filePath) // #nosec G304 -- path is chosen by the caller
	if err != nil {
		return nil, fmt.Errorf("manifest: read file: %w", err)
	}
	return Parse(data, sourcePath)
}

// ParseFS reads and parses a template from fs.FS (e.g. embed.FS). name doubles as sourcePath.
func ParseFS(fsys fs.FS, name string) (*promptstash.Template, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("manifest: read fs: %w", err)
	}
	return Parse(data, name)
}

// BlobID returns the git blob id of data, the same id GitHub reports in tree listings.
func BlobID(data []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, data).String()
}

// IsTemplatePath reports whether p names a YAML template file.
func IsTemplatePath(p string) bool {
	return strings.HasSuffix(p, ".yaml") || strings.HasSuffix(p, ".yml")
}

// FolderTags returns every directory segment of sourcePath, excluding the file name.
func FolderTags(sourcePath string) []string {
	dir := path.Dir(strings.Trim(sourcePath, "/"))
	if dir == "." || dir == "/" {
		return nil
	}
	var out []string
	for seg := range strings.SplitSeq(dir, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

func buildTemplate(m *fileManifest, data []byte, sourcePath string) *promptstash.Template {
	folders := FolderTags(sourcePath)
	body := m.Prompt.body()
	if body == "" {
		body = m.Template
	}
	placeholders, source := resolvePlaceholders(m, body)

	name := strings.TrimSpace(m.Name)
	if name == "" {
		name = strings.TrimSuffix(strings.TrimSuffix(path.Base(sourcePath), ".yaml"), ".yml")
	}
	category := strings.TrimSpace(m.Category)
	if category == "" && len(folders) > 0 {
		category = folders[0]
	}
	if category == "" {
		category = DefaultCategory
	}

	return &promptstash.Template{
		ID:                BlobID(data),
		Name:              name,
		Description:       m.Description,
		Category:          category,
		Tags:              mergeTags(m.Tags, folders),
		Body:              body,
		Placeholders:      placeholders,
		PlaceholderSource: source,
		SourcePath:        sourcePath,
		Contributor:       strings.TrimPrefix(strings.TrimSpace(m.Contributor), "@"),
	}
}

// resolvePlaceholders applies the priority inputs > placeholders > detected.
// Required defaults differ: false for inputs, true for legacy placeholders, false for detected.
func resolvePlaceholders(m *fileManifest, body string) ([]promptstash.Placeholder, promptstash.PlaceholderSource) {
	if ps := fromSpecs(m.Inputs, false); len(ps) > 0 {
		return ps, promptstash.PlaceholdersFromInputs
	}
	if ps := fromSpecs(m.Placeholders, true); len(ps) > 0 {
		return ps, promptstash.PlaceholdersFromLegacy
	}
	names := ScanPlaceholders(body)
	if len(names) == 0 {
		return nil, ""
	}
	ps := make([]promptstash.Placeholder, 0, len(names))
	for _, name := range names {
		ps = append(ps, promptstash.Placeholder{Name: name})
	}
	return ps, promptstash.PlaceholdersFromDetected
}

func fromSpecs(specs []inputSpec, requiredDefault bool) []promptstash.Placeholder {
	seen := make(map[string]bool, len(specs))
	var out []promptstash.Placeholder
	for _, s := range specs {
		name := strings.TrimSpace(s.Name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		required := requiredDefault
		if s.Required != nil {
			required = *s.Required
		}
		out = append(out, promptstash.Placeholder{
			Name:        name,
			Description: s.Description,
			Required:    required,
			Type:        s.Type,
		})
	}
	return out
}

// mergeTags returns the union of declared and folder tags, first occurrence wins.
func mergeTags(declared, folders []string) []string {
	seen := make(map[string]bool, len(declared)+len(folders))
	out := make([]string, 0, len(declared)+len(folders))
	for _, group := range [][]string{declared, folders} {
		for _, tag := range group {
			tag = strings.TrimSpace(tag)
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}
