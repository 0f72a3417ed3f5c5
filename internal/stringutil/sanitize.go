// Package stringutil provides text normalization helpers for user input.
//
// Messages arrive in a mix of full-width and half-width forms (e.g.
// "／ｍｏｄｅ" typed on a Japanese IME keyboard), so command parsing runs on
// sanitized text: NFKC-normalized, width-folded, control characters removed.
package stringutil

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Sanitize normalizes raw user input for processing. It applies NFKC
// normalization, folds full-width ASCII to half-width, strips control
// characters (keeping newlines and tabs) and trims surrounding whitespace.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	s = norm.NFKC.String(s)
	s = width.Fold.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}

	return strings.TrimSpace(b.String())
}

// Truncate limits s to at most maxRunes runes, appending an ellipsis when
// the input was cut. maxRunes <= 0 returns the empty string.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "…"
}

// FirstLine returns s up to the first newline, trimmed. Commands are
// parsed from the first line only.
func FirstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// StripCodeFence removes a surrounding Markdown code fence from s, if
// present. Language tags after the opening fence (e.g. ```json) are
// discarded along with the fence.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		// Drop the language tag line.
		if tag := strings.TrimSpace(trimmed[:i]); isFenceTag(tag) {
			trimmed = trimmed[i+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func isFenceTag(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
