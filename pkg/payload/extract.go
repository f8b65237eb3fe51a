// Package payload isolates the JSON array embedded in free-form model output.
//
// Generative models routinely wrap the requested JSON in commentary or
// markdown code fences. [ExtractJSONArray] applies a deliberately permissive
// heuristic: the candidate array runs from the first '[' to the last ']'.
// When a reply contains more than one bracketed list the candidate spans all
// of them, including any prose in between. That selection is kept as is; the
// shape decoder downstream is the component that reports the result as
// malformed.
package payload

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrNoJSONFound is returned when text has no '[' ... ']' pair in order.
var ErrNoJSONFound = errors.New("no JSON array found in model output")

// ExtractJSONArray returns the inclusive substring of text between the first
// '[' and the last ']'. It fails with [ErrNoJSONFound] when either delimiter
// is missing or the last ']' does not come after the first '['.
//
// The result is not validated as JSON.
func ExtractJSONArray(text string) (string, error) {
	start := strings.IndexByte(text, '[')
	end := strings.LastIndexByte(text, ']')
	if start < 0 || end < 0 || end <= start {
		return "", ErrNoJSONFound
	}
	return text[start : end+1], nil
}

// Excerpt shortens text to at most n bytes for log output, marking the cut.
// The cut never splits a UTF-8 sequence.
func Excerpt(text string, n int) string {
	if n <= 0 || len(text) <= n {
		return text
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "…(truncated)"
}
