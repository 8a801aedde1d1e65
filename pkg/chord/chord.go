package chord

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Symbol is a parsed chord such as "Cmaj7" or "D/F#".
//
// Quality is kept verbatim and may be empty (a plain major chord). Bass is
// nil unless the chord has a slash bass.
type Symbol struct {
	Root    Note
	Quality string
	Bass    *Note
}

// String serializes the chord. It is the exact inverse of [Parse].
func (s Symbol) String() string {
	var b strings.Builder
	b.WriteString(s.Root.String())
	b.WriteString(s.Quality)
	if s.Bass != nil {
		b.WriteByte('/')
		b.WriteString(s.Bass.String())
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Symbol) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Transpose returns the chord moved by n semitones, re-spelled with sp.
// Root and bass move independently; the quality is untouched. A shift that
// is a multiple of 12 returns the chord unchanged, spelling included.
func (s Symbol) Transpose(n int, sp Spelling) Symbol {
	out := Symbol{Quality: s.Quality}
	if n%12 == 0 {
		out.Root = s.Root
		if s.Bass != nil {
			b := *s.Bass
			out.Bass = &b
		}
		return out
	}
	out.Root = s.Root.Pitch().Add(n).Name(sp)
	if s.Bass != nil {
		b := s.Bass.Pitch().Add(n).Name(sp)
		out.Bass = &b
	}
	return out
}

// Equal reports whether two symbols serialize identically.
func (s Symbol) Equal(o Symbol) bool {
	return s.String() == o.String()
}

// ErrorKind classifies why a token is not a chord.
type ErrorKind int

const (
	// InvalidRoot means the token does not start with a letter A-G.
	InvalidRoot ErrorKind = iota + 1
	// InvalidBass means the text after '/' is not a single note.
	InvalidBass
	// InvalidQuality means the suffix contains whitespace or brackets,
	// which only happens when prose was written inside brackets.
	InvalidQuality
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidRoot:
		return "invalid root"
	case InvalidBass:
		return "invalid bass"
	case InvalidQuality:
		return "invalid quality"
	}
	return "unknown"
}

// Sentinel errors matched by ParseError.Is.
var (
	ErrInvalidRoot    = errors.New("invalid chord root")
	ErrInvalidBass    = errors.New("invalid chord bass")
	ErrInvalidQuality = errors.New("invalid chord quality")
)

// ParseError reports a token that is not a chord. It is a styling decision
// for callers, never a fatal condition.
type ParseError struct {
	Token string
	Kind  ErrorKind
	Pos   int // byte offset of the offending text within Token
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("chord %q: %s at offset %d", e.Token, e.Kind, e.Pos)
}

// Is lets errors.Is match the sentinel for the error kind.
func (e *ParseError) Is(target error) bool {
	switch e.Kind {
	case InvalidRoot:
		return target == ErrInvalidRoot
	case InvalidBass:
		return target == ErrInvalidBass
	case InvalidQuality:
		return target == ErrInvalidQuality
	}
	return false
}

// Parse parses a chord token (without brackets).
func Parse(token string) (Symbol, error) {
	root, rest, ok := scanNote(token)
	if !ok {
		return Symbol{}, &ParseError{Token: token, Kind: InvalidRoot}
	}
	pos := len(token) - len(rest)

	quality, bass, hasSlash := strings.Cut(rest, "/")
	if i := strings.IndexFunc(quality, isQualityBreak); i >= 0 {
		return Symbol{}, &ParseError{Token: token, Kind: InvalidQuality, Pos: pos + i}
	}
	sym := Symbol{Root: root, Quality: quality}
	if !hasSlash {
		return sym, nil
	}

	bassPos := pos + len(quality) + 1
	b, tail, ok := scanNote(bass)
	if !ok || tail != "" {
		return Symbol{}, &ParseError{Token: token, Kind: InvalidBass, Pos: bassPos}
	}
	sym.Bass = &b
	return sym, nil
}

// MustParse is like Parse but panics on error. It is meant for tests and
// static tables.
func MustParse(token string) Symbol {
	s, err := Parse(token)
	if err != nil {
		panic(err)
	}
	return s
}

// IsChord reports whether token parses as a chord.
func IsChord(token string) bool {
	_, err := Parse(token)
	return err == nil
}

func isQualityBreak(r rune) bool {
	return unicode.IsSpace(r) || r == '[' || r == ']'
}
