package ocr

import (
	"regexp"
	"strings"
)

var blankRunsRe = regexp.MustCompile(`\n{3,}`)

// Clean normalizes raw OCR output: line endings become LF, non-breaking
// spaces become regular spaces, trailing whitespace is stripped per line,
// runs of three or more newlines collapse to a single blank line, and the
// whole text is trimmed.
func Clean(text string) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = strings.ReplaceAll(t, "\u00a0", " ")

	lines := strings.Split(t, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	t = strings.Join(lines, "\n")

	t = blankRunsRe.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}
