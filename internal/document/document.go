package document

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Document is a parsed source document, ready for splitting.
type Document struct {
	ID       string    // Content-derived identifier (stable across re-ingests)
	Source   string    // Filename or article title the content came from
	Title    string    // Display title
	Sections []Section // Ordered flat section list
}

// Section is one heading-delimited span of a document. Level 0 means
// untitled body text (plain text files, preamble before the first heading).
type Section struct {
	Heading string
	Level   int
	Text    string
	Page    int // Source page, 0 if not applicable
}

// Text concatenates all section text in document order.
func (d *Document) Text() string {
	var sb strings.Builder
	for _, s := range d.Sections {
		if s.Text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// ContentHash is the hex SHA-256 of the document's flattened text.
func (d *Document) ContentHash() string {
	h := sha256.Sum256([]byte(d.Text()))
	return fmt.Sprintf("%x", h[:])
}

// Breadcrumbs returns, for each section, the heading trail leading to it.
// A level-3 section under "Chapter 1 > History" yields
// ["Chapter 1", "History", <its own heading>].
func (d *Document) Breadcrumbs() [][]string {
	out := make([][]string, len(d.Sections))
	var trail []struct {
		heading string
		level   int
	}
	for i, s := range d.Sections {
		if s.Heading != "" && s.Level > 0 {
			for len(trail) > 0 && trail[len(trail)-1].level >= s.Level {
				trail = trail[:len(trail)-1]
			}
			trail = append(trail, struct {
				heading string
				level   int
			}{s.Heading, s.Level})
		}
		bc := make([]string, 0, len(trail))
		for _, t := range trail {
			bc = append(bc, t.heading)
		}
		out[i] = bc
	}
	return out
}
