package chord

import (
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	tokens := []string{
		"C", "Am", "Bb", "F#m7", "Cmaj7", "D/F#", "Eb/G", "G7(9)", "Am7b5",
		"Bbm6", "Csus4", "C°", "Bø", "E+", "A7/C#", "Db9", "Cb", "Gadd9/B",
	}
	for _, tok := range tokens {
		t.Run(tok, func(t *testing.T) {
			sym, err := Parse(tok)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tok, err)
			}
			if got := sym.String(); got != tok {
				t.Errorf("Parse(%q).String() = %q", tok, got)
			}
		})
	}
}

func TestParseFields(t *testing.T) {
	sym, err := Parse("F#m7/C#")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if sym.Root.Letter != 'F' || sym.Root.Accidental != SharpSign {
		t.Errorf("Root = %v, want F#", sym.Root)
	}
	if sym.Quality != "m7" {
		t.Errorf("Quality = %q, want %q", sym.Quality, "m7")
	}
	if sym.Bass == nil || sym.Bass.String() != "C#" {
		t.Errorf("Bass = %v, want C#", sym.Bass)
	}

	plain := MustParse("G")
	if plain.Quality != "" || plain.Bass != nil {
		t.Errorf("plain major chord should have empty quality and no bass: %+v", plain)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		token string
		kind  ErrorKind
		want  error
	}{
		{"", InvalidRoot, ErrInvalidRoot},
		{"Hmaj", InvalidRoot, ErrInvalidRoot},
		{"am", InvalidRoot, ErrInvalidRoot},
		{"2x", InvalidRoot, ErrInvalidRoot},
		{"C/", InvalidBass, ErrInvalidBass},
		{"C/H", InvalidBass, ErrInvalidBass},
		{"D/F#m", InvalidBass, ErrInvalidBass},
		{"C/G/B", InvalidBass, ErrInvalidBass},
		{"Am em cima", InvalidQuality, ErrInvalidQuality},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			_, err := Parse(tt.token)
			if err == nil {
				t.Fatalf("Parse(%q) should fail", tt.token)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error should be *ParseError, got %T", err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", pe.Kind, tt.kind)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("errors.Is(%v, %v) = false", err, tt.want)
			}
			if IsChord(tt.token) {
				t.Errorf("IsChord(%q) = true", tt.token)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("Cmaj7/X")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %v", err)
	}
	if pe.Pos != 6 {
		t.Errorf("Pos = %d, want 6", pe.Pos)
	}
}

func TestTranspose(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		sp   Spelling
		want string
	}{
		{"C", 2, Flat, "D"},
		{"Am", 2, Flat, "Bm"},
		{"D/F#", 1, Flat, "Eb/G"},
		{"C", 1, Flat, "Db"},
		{"C", 1, Sharp, "C#"},
		{"F", 1, Flat, "F#"},
		{"A", -1, Flat, "Ab"},
		{"C", -1, Flat, "B"},
		{"G7(9)", 5, Flat, "C7(9)"},
		{"Bb", 13, Flat, "B"},
		{"C#m", 0, Flat, "C#m"},
		{"C#m", 12, Flat, "C#m"},
		{"C#m", -24, Sharp, "C#m"},
		{"Cb", 1, Flat, "C"},
		{"E/G#", -4, Sharp, "C/E"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := MustParse(tt.in).Transpose(tt.n, tt.sp).String()
			if got != tt.want {
				t.Errorf("%s.Transpose(%d, %v) = %q, want %q", tt.in, tt.n, tt.sp, got, tt.want)
			}
		})
	}
}

func TestTransposeDoesNotAliasBass(t *testing.T) {
	orig := MustParse("D/F#")
	moved := orig.Transpose(0, Flat)
	moved.Bass.Letter = 'G'
	if orig.Bass.Letter != 'F' {
		t.Error("Transpose must copy the bass note")
	}
}

func TestTextMarshaling(t *testing.T) {
	var s Symbol
	if err := s.UnmarshalText([]byte("Bbmaj7/D")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	b, err := s.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "Bbmaj7/D" {
		t.Errorf("MarshalText = %q", b)
	}
	if err := s.UnmarshalText([]byte("Xm")); err == nil {
		t.Error("UnmarshalText should reject invalid chords")
	}
}

func TestPlausible(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"C", true},
		{"Am7", true},
		{"F#m7(b5)", true},
		{"Cmaj7", true},
		{"Gsus4", true},
		{"Bdim", true},
		{"C7M", true},
		{"D/F#", true},
		{"Glória", false},
		{"Amor", false},
		{"Eu", false},
		{"Deus", false},
		{"santo", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := Plausible(tt.token); got != tt.want {
				t.Errorf("Plausible(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}
