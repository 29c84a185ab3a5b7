// Package catalog derives browse facets from a template collection and filters it
// the way the template list does: text query, category, tags, and the recent or
// favorites quick filters.
package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/skosovsky/promptstash"
)

// AllCategories selects every category.
const AllCategories = "all"

// Quick is a one-click list filter.
type Quick string

// Quick filters.
const (
	QuickNone      Quick = "none"
	QuickRecent    Quick = "recent"
	QuickFavorites Quick = "favorites"
)

// Filter describes a list query. The zero value matches everything.
type Filter struct {
	// Query is matched case-insensitively against name, description and tags.
	Query string
	// Category is "" or AllCategories for no restriction.
	Category string
	// Tags must all be present on a template.
	Tags  []string
	Quick Quick
	// Fuzzy ranks by subsequence match score instead of substring filtering.
	Fuzzy bool
}

// State is the per-user data quick filters read.
type State struct {
	Favorites map[string]bool
	// RecentRank maps a recently used id to its position, 0 being the most recent.
	RecentRank map[string]int
}

// Categories returns the sorted distinct non-empty categories.
func Categories(col promptstash.Collection) []string {
	seen := make(map[string]struct{})
	for _, t := range col {
		if t.Category != "" {
			seen[t.Category] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Tags returns the sorted distinct tags.
func Tags(col promptstash.Collection) []string {
	seen := make(map[string]struct{})
	for _, t := range col {
		for _, tag := range t.Tags {
			seen[tag] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// Apply returns the templates matching f in collection order; with QuickRecent they
// are ordered most recent first, with Fuzzy by descending match score.
func Apply(col promptstash.Collection, f Filter, st State) promptstash.Collection {
	out := make(promptstash.Collection, 0, len(col))
	for _, t := range col {
		if matchesFacets(&t, f, st) && (f.Fuzzy || matchesQuery(&t, f.Query)) {
			out = append(out, t)
		}
	}
	if f.Fuzzy && strings.TrimSpace(f.Query) != "" {
		out = fuzzyRank(out, f.Query)
	}
	if f.Quick == QuickRecent {
		slices.SortStableFunc(out, func(a, b promptstash.Template) int {
			return cmp.Compare(st.RecentRank[a.ID], st.RecentRank[b.ID])
		})
	}
	return out
}

// MarkFavorites sets Template.Favorite from favs on a copy of col.
func MarkFavorites(col promptstash.Collection, favs map[string]bool) promptstash.Collection {
	out := col.Clone()
	for i := range out {
		out[i].Favorite = favs[out[i].ID]
	}
	return out
}

// FindByID returns the template with id.
func FindByID(col promptstash.Collection, id string) (*promptstash.Template, bool) {
	for i := range col {
		if col[i].ID == id {
			return col[i].Clone(), true
		}
	}
	return nil, false
}

// FindByPath resolves a permalink: the repository-relative source path, with or
// without the .yaml/.yml extension.
func FindByPath(col promptstash.Collection, p string) (*promptstash.Template, bool) {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil, false
	}
	for i := range col {
		sp := col[i].SourcePath
		if sp == p || trimExt(sp) == p {
			return col[i].Clone(), true
		}
	}
	return nil, false
}

func matchesFacets(t *promptstash.Template, f Filter, st State) bool {
	if f.Category != "" && f.Category != AllCategories && t.Category != f.Category {
		return false
	}
	for _, tag := range f.Tags {
		if !slices.Contains(t.Tags, tag) {
			return false
		}
	}
	switch f.Quick {
	case QuickRecent:
		_, ok := st.RecentRank[t.ID]
		return ok
	case QuickFavorites:
		return st.Favorites[t.ID]
	default:
		return true
	}
}

func matchesQuery(t *promptstash.Template, q string) bool {
	if q == "" {
		return true
	}
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	return slices.ContainsFunc(t.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), q)
	})
}

// searchable adapts a collection to fuzzy.Source.
type searchable promptstash.Collection

func (s searchable) String(i int) string {
	t := s[i]
	return t.Name + " " + t.Description + " " + strings.Join(t.Tags, " ")
}

func (s searchable) Len() int { return len(s) }

func fuzzyRank(col promptstash.Collection, q string) promptstash.Collection {
	matches := fuzzy.FindFrom(q, searchable(col))
	out := make(promptstash.Collection, 0, len(matches))
	for _, m := range matches {
		out = append(out, col[m.Index])
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func trimExt(p string) string {
	return strings.TrimSuffix(strings.TrimSuffix(p, ".yaml"), ".yml")
}
