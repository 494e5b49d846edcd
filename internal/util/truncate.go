package util

import (
	"fmt"
	"strings"
)

// DefaultLogMaxLen caps response bodies echoed into debug logs.
const DefaultLogMaxLen = 512

// TruncateLog truncates long strings for verbose logging.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}

// TruncateBytes is TruncateLog for []byte with DefaultLogMaxLen.
func TruncateBytes(b []byte) string {
	return TruncateLog(string(b), DefaultLogMaxLen)
}

// Excerpt returns at most n runes of s with surrounding whitespace trimmed.
// Unlike TruncateLog it never splits a multi-byte character and adds no marker.
func Excerpt(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// CollapseSpace folds every whitespace run in s into a single space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
