package sheet

import (
	"fmt"
	"strings"
)

// Format is the notation style of a chord sheet.
type Format int

const (
	// Above places chords on their own line over the lyric. It is the zero
	// value and the default for empty or unclassifiable input.
	Above Format = iota
	// Inline embeds bracketed chords in the lyric text.
	Inline
	// Mixed is inline lyrics plus labeled instrumental sections.
	Mixed
)

var formatNames = [...]string{
	Above:  "above",
	Inline: "inline",
	Mixed:  "mixed",
}

// String returns "above", "inline" or "mixed".
func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// Valid reports whether f is one of the three known formats.
func (f Format) Valid() bool {
	return f >= Above && f <= Mixed
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range formatNames {
		if n == name {
			return Format(i), nil
		}
	}
	return Above, fmt.Errorf("invalid format %q (must be one of: above, inline, mixed)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid format %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
