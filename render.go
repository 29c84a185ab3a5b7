package promptstash

import (
	"regexp"
	"strings"
)

// markerPattern matches {{identifier}}; the captured text is trimmed before lookup.
var markerPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// ProfileHeading starts the profile block PrependProfile adds.
const ProfileHeading = "# Your Profile\n"

// Render substitutes filled placeholders into t.Body and drops every line that still
// references a declared placeholder without a value. Only names in t.Placeholders
// take part; other {{...}} text is left as is. A line mixing a filled and an unfilled
// declared placeholder is dropped whole. Render is pure.
func Render(t *Template, values map[string]string) string {
	if t == nil || t.Body == "" {
		return ""
	}
	declared := t.PlaceholderNames()
	if len(declared) == 0 {
		return t.Body
	}
	lines := strings.Split(t.Body, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if hasUnfilled(line, declared, values) {
			continue
		}
		kept = append(kept, substitute(line, declared, values))
	}
	return strings.Join(kept, "\n")
}

func hasUnfilled(line string, declared map[string]struct{}, values map[string]string) bool {
	for _, m := range markerPattern.FindAllStringSubmatch(line, -1) {
		name := strings.TrimSpace(m[1])
		if _, ok := declared[name]; ok && values[name] == "" {
			return true
		}
	}
	return false
}

// substitute replaces markers in a single pass, so a value that itself contains
// {{...}} is never expanded again.
func substitute(line string, declared map[string]struct{}, values map[string]string) string {
	if !strings.Contains(line, "{{") {
		return line
	}
	return markerPattern.ReplaceAllStringFunc(line, func(marker string) string {
		name := strings.TrimSpace(marker[2 : len(marker)-2])
		if _, ok := declared[name]; !ok {
			return marker
		}
		if v := values[name]; v != "" {
			return v
		}
		return marker
	})
}

// PrependProfile puts the profile block in front of a rendered body.
// A blank profile leaves body unchanged.
func PrependProfile(body, profile string) string {
	if strings.TrimSpace(profile) == "" {
		return body
	}
	return ProfileHeading + profile + "\n\n\n" + body
}

// MissingRequired returns the names of required placeholders without a value,
// in declaration order. A nil result means every required field is filled.
func MissingRequired(placeholders []Placeholder, values map[string]string) []string {
	var missing []string
	for _, p := range placeholders {
		if p.Required && values[p.Name] == "" {
			missing = append(missing, p.Name)
		}
	}
	return missing
}

// RequiredSatisfied reports whether every required placeholder has a non-empty value.
func RequiredSatisfied(placeholders []Placeholder, values map[string]string) bool {
	return len(MissingRequired(placeholders, values)) == 0
}

// CheckRequired returns a *MissingFieldsError when RequiredSatisfied is false.
func CheckRequired(t *Template, values map[string]string) error {
	if t == nil {
		return nil
	}
	if missing := MissingRequired(t.Placeholders, values); len(missing) > 0 {
		return &MissingFieldsError{Template: t.Name, Names: missing}
	}
	return nil
}
