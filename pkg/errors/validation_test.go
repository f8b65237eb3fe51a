package errors

import (
	"strings"
	"testing"
)

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "draw a sun", false},
		{"multiline", "draw a house\nwith a red door", false},
		{"tabs", "draw\ta tree", false},

		{"empty", "", true},
		{"whitespace", "   \n\t", true},
		{"too long", strings.Repeat("a", 4001), true},
		{"null byte", "draw\x00sun", true},
		{"bell", "draw\x07sun", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrompt(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePrompt(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPrompt) {
				t.Errorf("ValidatePrompt(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidPrompt)
			}
		})
	}
}

func TestValidateCanvasName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "My sketch", false},
		{"unicode", "ציור ראשון", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("x", 201), true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCanvasName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCanvasName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://generativelanguage.googleapis.com/v1beta", false},
		{"http", "http://localhost:8080", false},

		{"empty", "", true},
		{"no scheme", "example.com", true},
		{"file scheme", "file:///etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
