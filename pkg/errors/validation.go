package errors

import (
	"math"
	"net/url"
	"strings"
	"unicode"

	"github.com/matzehuels/masonry/pkg/core/layout"
)

// MaxItems bounds the size of a single item list accepted from outside.
const MaxItems = 1_000_000

// ValidateItems checks an item list received from a file, database or API
// request. The layout engine itself tolerates missing dimensions, so only
// the properties it relies on are enforced:
//   - IDs are unique (positions are keyed by ID)
//   - Dimensions, when present, are non-negative
//   - The list is not larger than MaxItems
//
// An empty list is valid.
func ValidateItems(items []layout.Item) error {
	if len(items) > MaxItems {
		return New(ErrCodeInvalidItems, "too many items (%d, max %d)", len(items), MaxItems)
	}

	seen := make(map[int64]struct{}, len(items))
	for i, it := range items {
		if _, dup := seen[it.ID]; dup {
			return New(ErrCodeInvalidItems, "duplicate item id %d at index %d", it.ID, i)
		}
		seen[it.ID] = struct{}{}

		if it.Width != nil && *it.Width < 0 {
			return New(ErrCodeInvalidItems, "item %d has negative width %d", it.ID, *it.Width)
		}
		if it.Height != nil && *it.Height < 0 {
			return New(ErrCodeInvalidItems, "item %d has negative height %d", it.ID, *it.Height)
		}
	}
	return nil
}

// ValidateLength checks that v is a finite, non-negative pixel length.
// name is used in the error message.
func ValidateLength(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return New(ErrCodeInvalidInput, "%s must be a finite number", name)
	}
	if v < 0 {
		return New(ErrCodeInvalidInput, "%s cannot be negative (got %g)", name, v)
	}
	return nil
}

// ValidatePath validates a local file path supplied on the command line or
// in a config file.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}
	return nil
}

// sourceSchemes lists the URI schemes an item source may use.
var sourceSchemes = map[string]bool{
	"file":        true,
	"sqlite":      true,
	"mongodb":     true,
	"mongodb+srv": true,
	"http":        true,
	"https":       true,
}

// ValidateSourceURI validates an item source location. Plain paths are
// accepted as files; URIs must use one of the supported schemes.
func ValidateSourceURI(raw string) error {
	if raw == "" {
		return New(ErrCodeInvalidSource, "source cannot be empty")
	}
	if !strings.Contains(raw, "://") {
		return ValidatePath(raw)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Wrap(ErrCodeInvalidSource, err, "parse source %q", raw)
	}
	if !sourceSchemes[u.Scheme] {
		return New(ErrCodeInvalidSource, "unsupported source scheme %q (want file, sqlite, mongodb, http)", u.Scheme)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
