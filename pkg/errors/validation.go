package errors

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// MaxTextBytes is the default size limit for a song submitted for rendering.
const MaxTextBytes = 256 << 10

// ValidateText validates a song submitted for rendering. Empty text is
// valid and renders as nothing.
//
// The validation rules:
//   - At most max bytes (MaxTextBytes when max <= 0)
//   - No NUL bytes
func ValidateText(text string, max int) error {
	if max <= 0 {
		max = MaxTextBytes
	}
	if len(text) > max {
		return New(ErrCodeTooLarge, "song text too large (%d bytes, max %d)", len(text), max)
	}
	if strings.ContainsRune(text, '\x00') {
		return New(ErrCodeInvalidInput, "song text contains NUL bytes")
	}
	return nil
}

// songExtensions are the file types the importer and CLI read.
var songExtensions = map[string]bool{
	".md":    true,
	".txt":   true,
	".cifra": true,
}

// ValidateSongPath validates a song file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Extension must be .md, .txt or .cifra
func ValidateSongPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !songExtensions[ext] {
		return New(ErrCodeInvalidPath, "unsupported song file %q (want .md, .txt or .cifra)", filepath.Base(path))
	}
	return nil
}

// IsSongPath reports whether path has a song file extension.
func IsSongPath(path string) bool {
	return songExtensions[strings.ToLower(filepath.Ext(path))]
}

// ValidatePreviewID validates a preview identifier (a UUID).
func ValidatePreviewID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "preview id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodePreviewNotFound, err, "preview %q not found", id)
	}
	return nil
}
