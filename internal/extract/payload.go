package extract

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const playerResponseMarker = "ytInitialPlayerResponse"

var playerResponseRe = regexp.MustCompile(`(?s)var ytInitialPlayerResponse\s*=\s*(\{.+?\});`)

// PlayerResponse locates the ytInitialPlayerResponse assignment in a watch
// page and decodes it. Script elements are searched first, then the raw
// markup. It returns false when the assignment is missing or is not valid JSON.
func PlayerResponse(html string) (Payload, bool) {
	raw := findInScripts(html)
	if raw == "" && html != "" {
		if m := playerResponseRe.FindStringSubmatch(html); len(m) == 2 {
			raw = m[1]
		}
	}
	if raw == "" {
		return nil, false
	}
	return decodePayload(raw)
}

// findInScripts returns the object literal from the first <script> whose
// text carries the marker and matches the assignment pattern.
func findInScripts(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		if !strings.Contains(text, playerResponseMarker) {
			return true
		}
		if m := playerResponseRe.FindStringSubmatch(text); len(m) == 2 {
			raw = m[1]
			return false
		}
		return true
	})
	return raw
}

func decodePayload(raw string) (Payload, bool) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil || p == nil {
		return nil, false
	}
	// Strict: nothing but whitespace may follow the object.
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return p, true
}
