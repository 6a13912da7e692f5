package search

import (
	"strings"
	"unicode/utf8"
)

const (
	previewContext = 50
	previewLength  = 100
	ellipsis       = "..."
)

// Preview builds the excerpt shown for a note hit.
//
// When query occurs in content (case-insensitive, literal) the excerpt is the
// match with up to 50 characters on either side, prefixed with "..." unless it
// starts at the beginning and always suffixed with "...". Otherwise it is the
// first 100 characters, suffixed with "..." only when content is longer.
// Positions count characters, not bytes.
func Preview(content, query string) string {
	runes := []rune(content)

	if query != "" {
		if p := indexFold(content, query); p >= 0 {
			start := max(0, p-previewContext)
			end := min(len(runes), p+utf8.RuneCountInString(query)+previewContext)
			excerpt := string(runes[start:end])
			if start > 0 {
				excerpt = ellipsis + excerpt
			}
			return excerpt + ellipsis
		}
	}

	if len(runes) > previewLength {
		return string(runes[:previewLength]) + ellipsis
	}
	return content
}

// indexFold returns the character position of the first case-insensitive
// occurrence of substr in s, or -1.
// strings.ToLower maps rune by rune, so positions in the lowered text are
// positions in s.
func indexFold(s, substr string) int {
	ls := strings.ToLower(s)
	i := strings.Index(ls, strings.ToLower(substr))
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(ls[:i])
}
