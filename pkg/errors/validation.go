package errors

import (
	"strings"
	"unicode"
)

const (
	maxPromptLength     = 4000
	maxCanvasNameLength = 200
)

// ValidatePrompt checks a user drawing instruction before it is sent upstream.
//
// The rules:
//   - Not empty or whitespace-only
//   - At most 4000 characters
//   - No control characters other than newline and tab
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return New(ErrCodeInvalidPrompt, "prompt is required")
	}
	if len(prompt) > maxPromptLength {
		return New(ErrCodeInvalidPrompt, "prompt too long (max %d characters)", maxPromptLength)
	}
	for _, r := range prompt {
		if r == '\n' || r == '\t' || r == '\r' {
			continue
		}
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPrompt, "prompt contains invalid control characters")
		}
	}
	return nil
}

// ValidateCanvasName validates the display name of a saved canvas.
func ValidateCanvasName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidCanvas, "canvas name cannot be empty")
	}
	if len(name) > maxCanvasNameLength {
		return New(ErrCodeInvalidCanvas, "canvas name too long (max %d characters)", maxCanvasNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCanvas, "canvas name contains invalid control characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
