package chord

import "strings"

// suffixWords are the pieces chord qualities are built from, longest first so
// that "maj" wins over "m".
var suffixWords = []string{
	"maj", "min", "dim", "aug", "sus", "add", "omit", "alt", "no",
	"M", "m", "°", "º", "ø", "Δ", "+", "-", "#", "b", "(", ")", ",",
}

// Plausible reports whether token is a chord that a person would actually
// write on a chord line. Parse accepts any suffix ("Glória" parses as G with
// quality "lória"); Plausible additionally requires the quality to be made of
// common chord vocabulary and digits. It is used to tell chord lines from
// lyric lines, never to reject bracketed chords.
func Plausible(token string) bool {
	sym, err := Parse(token)
	if err != nil {
		return false
	}
	q := sym.Quality
	for q != "" {
		if c := q[0]; c >= '0' && c <= '9' {
			q = q[1:]
			continue
		}
		matched := false
		for _, w := range suffixWords {
			if strings.HasPrefix(q, w) {
				q = q[len(w):]
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
