// Package document defines the text unit shared by loading, indexing and retrieval.
package document

import (
	"sort"
	"strings"
)

// Metadata keys set by the CSV loader.
const (
	MetaSource = "source"
	MetaRow    = "row"
)

// Document is a unit of text with string metadata.
// Score is only set on documents returned by retrieval.
type Document struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float32           `json:"score,omitempty"`
}

// Source returns the source metadata value, or "" if absent.
func (d Document) Source() string {
	return d.Metadata[MetaSource]
}

// MetadataKeys returns the metadata keys in sorted order.
func (d Document) MetadataKeys() []string {
	keys := make([]string, 0, len(d.Metadata))
	for k := range d.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Contents returns the content of each document, in order.
func Contents(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Content
	}
	return out
}

// Snippet returns the first line of the content, cut to at most n runes.
func (d Document) Snippet(n int) string {
	line, _, _ := strings.Cut(d.Content, "\n")
	r := []rune(line)
	if n >= 0 && len(r) > n {
		return string(r[:n]) + "..."
	}
	return line
}
