package voice

import "regexp"

var (
	emphasisMarkers = regexp.MustCompile(`[*]{1,2}\s*`)
	newlineRuns     = regexp.MustCompile(`\n+`)
)

// Sanitize prepares model output for speech. The visual transcript keeps the
// bullet formatting; the spoken form drops the asterisk markers and turns
// line breaks into sentence ends so the utterance reads naturally. Newlines
// are converted first so the marker pattern cannot swallow a line break.
func Sanitize(text string) string {
	clean := newlineRuns.ReplaceAllString(text, ". ")
	return emphasisMarkers.ReplaceAllString(clean, "")
}
