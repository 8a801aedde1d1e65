package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/cantai/cifra/pkg/render"
	"github.com/cantai/cifra/pkg/sheet"
)

// Render generates output for doc in the given format.
func Render(doc sheet.Document, output string, opts ...render.Option) ([]byte, error) {
	switch output {
	case OutputHTML, "":
		return []byte(render.HTML(doc, opts...)), nil
	case OutputText:
		return []byte(render.PlainText(doc)), nil
	case OutputSource:
		return []byte(render.Source(doc)), nil
	case OutputJSON:
		return MarshalDocument(doc)
	}
	return nil, fmt.Errorf("unsupported output: %s", output)
}

// MarshalDocument serializes a document as indented JSON. Chords are
// written as their canonical names.
func MarshalDocument(doc sheet.Document) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalDocument reads a document written by MarshalDocument.
func UnmarshalDocument(data []byte) (sheet.Document, error) {
	var doc sheet.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return sheet.Document{}, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
