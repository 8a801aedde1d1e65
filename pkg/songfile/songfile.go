// Package songfile reads and writes song files.
//
// A song file is a .md, .txt or .cifra file holding chord-sheet text,
// optionally preceded by YAML front matter between two "---" lines:
//
//	---
//	title: Santo
//	artist: Comunidade
//	key: C
//	tags: [missa, ordinario]
//	---
//	[C]Santo, [Am]santo
//
// Files without front matter are read as a bare body. A "---" opening line
// with no closing delimiter is not front matter and stays in the body.
package songfile

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cantai/cifra/pkg/errors"
)

const delimiter = "---"

// Meta is the front matter of a song file.
type Meta struct {
	Title  string   `yaml:"title,omitempty" json:"title,omitempty"`
	Artist string   `yaml:"artist,omitempty" json:"artist,omitempty"`
	Key    string   `yaml:"key,omitempty" json:"key,omitempty"`
	Tags   []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// IsZero reports whether no field is set.
func (m Meta) IsZero() bool {
	return m.Title == "" && m.Artist == "" && m.Key == "" && len(m.Tags) == 0
}

// Song is a parsed song file.
type Song struct {
	Path string `json:"path,omitempty"`
	Meta Meta   `json:"meta"`
	Body string `json:"body"`
}

// Title returns the front matter title, or the file name without its
// extension when the front matter has none.
func (s Song) Title() string {
	if s.Meta.Title != "" {
		return s.Meta.Title
	}
	if s.Path == "" {
		return ""
	}
	base := filepath.Base(s.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads and parses the song file at path.
func Load(path string) (Song, error) {
	if err := errors.ValidateSongPath(path); err != nil {
		return Song{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Song{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "song file not found: %s", path)
		}
		return Song{}, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return Song{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s", path)
	}
	s.Path = path
	return s, nil
}

// Parse splits data into front matter and body.
func Parse(data []byte) (Song, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	front, body, ok := split(text)
	if !ok {
		return Song{Body: text}, nil
	}
	var s Song
	if err := yaml.Unmarshal([]byte(front), &s.Meta); err != nil {
		return Song{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid front matter")
	}
	s.Body = body
	return s, nil
}

// split returns the front matter and body of text. It reports false when
// text does not open with a delimited front matter block.
func split(text string) (front, body string, ok bool) {
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimRight(first, " \r") != delimiter {
		return "", "", false
	}
	var fm strings.Builder
	for rest != "" {
		var line string
		line, rest, _ = strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \r") == delimiter {
			return fm.String(), rest, true
		}
		fm.WriteString(line)
		fm.WriteByte('\n')
	}
	return "", "", false
}

// Marshal writes s back as a song file. Front matter is omitted when Meta
// is empty.
func Marshal(s Song) ([]byte, error) {
	var buf bytes.Buffer
	if !s.Meta.IsZero() {
		fm, err := yaml.Marshal(s.Meta)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode front matter")
		}
		buf.WriteString(delimiter + "\n")
		buf.Write(fm)
		buf.WriteString(delimiter + "\n")
	}
	buf.WriteString(s.Body)
	return buf.Bytes(), nil
}

// Save writes s to path, replacing any existing file.
func Save(path string, s Song) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
