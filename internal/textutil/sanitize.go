package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.Und)

// SanitizeToken converts value to a lowercase token that is safe as a single
// path segment. Input is NFC-normalized first so composed and decomposed
// spellings map to the same token. Letters and digits are kept, hyphens and
// underscores pass through, and everything else becomes an underscore.
// Returns "unknown" when nothing usable remains.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(norm.NFC.String(value))
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return "unknown"
	}
	return out
}

// ServiceLabel renders a service key such as "youtube" for display.
func ServiceLabel(service string) string {
	service = strings.TrimSpace(service)
	if service == "" {
		return "Unknown"
	}
	return titleCaser.String(strings.ReplaceAll(service, "_", " "))
}
