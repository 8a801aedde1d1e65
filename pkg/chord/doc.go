// Package chord parses, serializes and transposes individual chord symbols.
//
// A chord symbol is a root note, an optional accidental, a free-form quality
// suffix and an optional slash bass:
//
//	root       ::= [A-G]
//	accidental ::= ('#' | 'b')?
//	quality    ::= anything up to the first '/'
//	bass       ::= ('/' root accidental)?
//
// The quality is never interpreted. Only the root and bass take part in pitch
// arithmetic, which makes [Symbol.Transpose] safe for any suffix a songwriter
// invents (maj7, 7(9), m7b5, sus4, °, ø, +).
//
// # Parsing
//
// [Parse] is total: it either returns a [Symbol] whose String method
// reproduces the input byte for byte, or a [*ParseError] saying why the token
// is not a chord. Callers treat a parse error as "render this token as literal
// text", never as a failure:
//
//	sym, err := chord.Parse("D/F#")
//	if err != nil {
//	    // show the raw token unstyled
//	}
//	fmt.Println(sym.Transpose(1, chord.Flat)) // Eb/G
//
// # Spelling
//
// Transposed notes are re-spelled from a fixed table. [Flat] (the default)
// uses C Db D Eb E F F# G Ab A Bb B; [Sharp] uses C C# D D# E F F# G G# A A# B.
package chord
