package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// VisualWidth returns the display width of text, accounting for wide characters.
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to maxLen display columns, ending with "..." when
// there is room for it.
func Truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen <= 0 {
		return ""
	}
	if VisualWidth(s) <= maxLen {
		return s
	}
	if maxLen > 3 {
		return runewidth.Truncate(s, maxLen-3, "") + "..."
	}
	return runewidth.Truncate(s, maxLen, "")
}

// firstLine returns the first line of s and whether more lines followed.
func firstLine(s string) (string, bool) {
	line, _, more := strings.Cut(strings.TrimSpace(s), "\n")
	return line, more
}
