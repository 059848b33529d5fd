package capture

import (
	"regexp"
	"strings"
)

// ProjectRecord is a named project owned by one identity.
// Captures reference it through the Project container variant.
type ProjectRecord struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	NameRaw     string  `json:"name"`
	NameNorm    string  `json:"name_norm"`
	Description *string `json:"description,omitempty"`
	CreatedAt   int64   `json:"created_at"`
}

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName trims, lowercases and collapses internal whitespace.
// Two project names collide when their normalized forms are equal.
func NormalizeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}
