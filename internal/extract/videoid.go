package extract

import (
	"regexp"
	"strings"
)

// idPatterns are tried in order; the first match wins.
//
//	0: ...watch?v={ID} or any /{ID} path segment
//	1: .../embed/{ID}
//	2: youtu.be/{ID}
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:embed/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([0-9A-Za-z_-]{11})`),
}

// VideoID extracts the 11-character video identifier from a URL.
// The second return value is false when no pattern matched.
func VideoID(rawURL string) (string, bool) {
	for _, pat := range idPatterns {
		if m := pat.FindStringSubmatch(rawURL); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}

// VideoIDs trims every line, skips blanks and lines without an identifier,
// and returns the identifiers in input order. Duplicates are kept.
func VideoIDs(lines []string) []string {
	var ids []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if id, ok := VideoID(line); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
