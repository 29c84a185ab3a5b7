package manifest

import (
	"regexp"
	"strings"
)

var markerPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ScanPlaceholders returns the trimmed names of every {{name}} marker in body,
// in order of first appearance, without duplicates.
func ScanPlaceholders(body string) []string {
	matches := markerPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
