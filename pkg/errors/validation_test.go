package errors

import (
	"strings"
	"testing"
)

func TestValidateText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		max      int
		wantCode Code
	}{
		{"valid inline", "[C]Santo, [Am]santo", 0, ""},
		{"valid above", "C   G\nSanto santo", 0, ""},

		{"empty", "", 0, ""},
		{"whitespace", " \n\t", 0, ""},
		{"nul byte", "Santo\x00", 0, ErrCodeInvalidInput},
		{"over custom limit", "Santo santo", 5, ErrCodeTooLarge},
		{"over default limit", strings.Repeat("a", MaxTextBytes+1), 0, ErrCodeTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text, tt.max)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("ValidateText() error = %v, want nil", err)
				}
				return
			}
			if !Is(err, tt.wantCode) {
				t.Errorf("ValidateText() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestValidateSongPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"markdown", "songs/santo.md", false},
		{"text", "santo.txt", false},
		{"cifra upper", "SANTO.CIFRA", false},
		{"absolute", "/srv/songs/santo.md", false},

		{"empty", "", true},
		{"no extension", "santo", true},
		{"pdf", "santo.pdf", true},
		{"control char", "san\x01to.md", true},
		{"null byte", "santo\x00.md", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSongPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSongPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidateSongPath(%q) code = %s, want %s", tt.input, GetCode(err), ErrCodeInvalidPath)
			}
		})
	}
}

func TestValidatePreviewID(t *testing.T) {
	if err := ValidatePreviewID("1b4e28ba-2fa1-11d2-883f-0016d3cca427"); err != nil {
		t.Errorf("ValidatePreviewID(valid) = %v", err)
	}
	if err := ValidatePreviewID(""); !Is(err, ErrCodeInvalidInput) {
		t.Errorf("ValidatePreviewID(empty) = %v, want %s", err, ErrCodeInvalidInput)
	}
	if err := ValidatePreviewID("../etc/passwd"); !Is(err, ErrCodePreviewNotFound) {
		t.Errorf("ValidatePreviewID(bad) = %v, want %s", err, ErrCodePreviewNotFound)
	}
}
