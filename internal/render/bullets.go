// Package render holds presentation-time transforms over stored transcript
// text. Nothing here mutates a message; the canonical Text field always
// round-trips through persistence unchanged.
package render

import (
	"regexp"
	"strings"
)

var bulletMarker = regexp.MustCompile(`[*]{1,2} `)

// Bullets splits assistant text written as asterisk bullet points into list
// items. ok reports whether the text contains a bullet marker at all; when
// false the caller should render the text as plain, whitespace-preserving
// prose.
func Bullets(text string) (items []string, ok bool) {
	if !bulletMarker.MatchString(text) {
		return nil, false
	}

	for _, part := range bulletMarker.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		items = append(items, part)
	}
	return items, true
}
