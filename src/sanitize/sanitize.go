// Package sanitize cleans captured console output before it is stored in a
// step's info field. Terminal escape sequences and CI timestamp markers are
// removed so the reporting UI shows plain text.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Buildkite timestamp markers: \x1b_bk;t=...\x07
var buildkiteTimestamp = regexp.MustCompile(`\x1b_bk;t=[0-9]+\x07`)

// StripANSI removes terminal escape sequences and Buildkite timestamp markers.
func StripANSI(s string) string {
	s = buildkiteTimestamp.ReplaceAllString(s, "")
	return ansi.Strip(s)
}

// Clean strips escape sequences, normalizes line endings and trims
// surrounding whitespace.
func Clean(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	return strings.TrimSpace(s)
}

// Lines returns at most maxLines cleaned lines of s with blank lines at
// either end dropped. maxLines <= 0 means no limit.
func Lines(s string, maxLines int) []string {
	s = Clean(s)
	if s == "" {
		return []string{}
	}

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
