package chord

import (
	"fmt"
	"strings"
)

// Accidental modifies a note letter by one semitone.
type Accidental string

// Accidentals recognized by the grammar.
const (
	Natural   Accidental = ""
	SharpSign Accidental = "#"
	FlatSign  Accidental = "b"
)

// Note is a pitch letter with an optional accidental, e.g. "F#" or "Bb".
type Note struct {
	Letter     byte
	Accidental Accidental
}

// String returns the note as written, e.g. "Eb".
func (n Note) String() string {
	if n.Letter == 0 {
		return ""
	}
	return string(n.Letter) + string(n.Accidental)
}

// Pitch returns the pitch class of the note. Cb wraps to B and B# to C.
func (n Note) Pitch() PitchClass {
	p := letterPitch[n.Letter]
	switch n.Accidental {
	case SharpSign:
		p++
	case FlatSign:
		p--
	}
	return PitchClass(p).norm()
}

// ParseNote parses a bare note such as "G" or "C#". Anything other than a
// letter A-G followed by at most one accidental is rejected.
func ParseNote(s string) (Note, error) {
	n, rest, ok := scanNote(s)
	if !ok || rest != "" {
		return Note{}, fmt.Errorf("invalid note %q", s)
	}
	return n, nil
}

// scanNote reads a root letter and optional accidental from the start of s.
func scanNote(s string) (Note, string, bool) {
	if s == "" || !isRootLetter(s[0]) {
		return Note{}, s, false
	}
	n := Note{Letter: s[0]}
	s = s[1:]
	if strings.HasPrefix(s, string(SharpSign)) || strings.HasPrefix(s, string(FlatSign)) {
		n.Accidental = Accidental(s[:1])
		s = s[1:]
	}
	return n, s, true
}

func isRootLetter(c byte) bool {
	return c >= 'A' && c <= 'G'
}

var letterPitch = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// PitchClass is a semitone position on the chromatic circle, 0 (C) to 11 (B).
type PitchClass int

// norm folds any integer onto 0-11 so negative intervals are safe.
func (p PitchClass) norm() PitchClass {
	return PitchClass((int(p)%12 + 12) % 12)
}

// Add moves the pitch class by n semitones.
func (p PitchClass) Add(n int) PitchClass {
	return PitchClass(int(p) + n%12).norm()
}

// Name spells the pitch class using the given preference table.
func (p PitchClass) Name(sp Spelling) Note {
	if sp != Sharp {
		sp = Flat
	}
	return spellings[sp][p.norm()]
}

// Spelling selects the enharmonic table used after transposition.
type Spelling int

const (
	// Flat prefers Db, Eb, Ab, Bb (and keeps F#).
	Flat Spelling = iota
	// Sharp prefers C#, D#, F#, G#, A#.
	Sharp
)

var spellings = [2][12]Note{
	Flat: {
		{'C', Natural}, {'D', FlatSign}, {'D', Natural}, {'E', FlatSign},
		{'E', Natural}, {'F', Natural}, {'F', SharpSign}, {'G', Natural},
		{'A', FlatSign}, {'A', Natural}, {'B', FlatSign}, {'B', Natural},
	},
	Sharp: {
		{'C', Natural}, {'C', SharpSign}, {'D', Natural}, {'D', SharpSign},
		{'E', Natural}, {'F', Natural}, {'F', SharpSign}, {'G', Natural},
		{'G', SharpSign}, {'A', Natural}, {'A', SharpSign}, {'B', Natural},
	},
}

// String returns "flat" or "sharp".
func (s Spelling) String() string {
	if s == Sharp {
		return "sharp"
	}
	return "flat"
}

// ParseSpelling parses "flat" or "sharp" (case-insensitive). The empty string
// selects Flat.
func ParseSpelling(s string) (Spelling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "flat", "b":
		return Flat, nil
	case "sharp", "#":
		return Sharp, nil
	}
	return Flat, fmt.Errorf("invalid spelling %q (must be 'flat' or 'sharp')", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Spelling) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Spelling) UnmarshalText(b []byte) error {
	v, err := ParseSpelling(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Interval returns how many semitones (0-11) to move up from key "from" to
// reach key "to".
func Interval(from, to Note) int {
	return int(to.Pitch().Add(-int(from.Pitch())))
}
