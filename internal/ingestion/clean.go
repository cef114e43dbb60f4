package ingestion

import (
	"regexp"
	"strings"
)

var (
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	newlineRunRe = regexp.MustCompile(`\n\s*\n+`)
)

// CleanText normalizes extracted text: collapses whitespace runs, keeps
// paragraph breaks as exactly one blank line, and drops control characters.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r < 32 && r != '\n' && r != '\t' {
			continue
		}
		if r == ' ' {
			r = ' '
		}
		b.WriteRune(r)
	}

	s := spaceRunRe.ReplaceAllString(b.String(), " ")
	s = newlineRunRe.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
