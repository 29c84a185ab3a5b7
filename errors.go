package promptstash

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for ingestion, caching and rendering.
// All use prefix "promptstash:" for identification. Callers should use errors.Is/errors.As.
var (
	ErrParse            = errors.New("promptstash: template document is malformed")
	ErrNetwork          = errors.New("promptstash: network request failed")
	ErrRateLimit        = errors.New("promptstash: upstream rate limit exceeded")
	ErrUpstream         = errors.New("promptstash: unexpected upstream response")
	ErrStorage          = errors.New("promptstash: persisted state unavailable")
	ErrMissingRequired  = errors.New("promptstash: required placeholder not filled")
	ErrTemplateNotFound = errors.New("promptstash: template not found")
)

// RateLimitError reports an exhausted upstream quota.
// errors.Is(err, ErrRateLimit) holds for every RateLimitError.
type RateLimitError struct {
	Remaining int
	Reset     time.Time // zero when the upstream did not say
	Status    string
}

// Error implements error.
func (e *RateLimitError) Error() string {
	if e.Reset.IsZero() {
		return fmt.Sprintf("%v: %s", ErrRateLimit, e.Status)
	}
	return fmt.Sprintf("%v: %s (resets at %s)", ErrRateLimit, e.Status, e.Reset.UTC().Format(time.RFC3339))
}

// Unwrap returns ErrRateLimit.
func (e *RateLimitError) Unwrap() error { return ErrRateLimit }

// MissingFieldsError lists required placeholders that have no value.
// Use errors.Is(err, ErrMissingRequired) and errors.As(err, &missing) to inspect.
type MissingFieldsError struct {
	Template string
	Names    []string
}

// Error implements error.
func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("promptstash: template %q: please fill in required fields: %s", e.Template, strings.Join(e.Names, ", "))
}

// Unwrap returns the wrapped sentinel for errors.Is/errors.As.
func (e *MissingFieldsError) Unwrap() error { return ErrMissingRequired }

// Compile-time checks.
var (
	_ error = (*RateLimitError)(nil)
	_ error = (*MissingFieldsError)(nil)
)
