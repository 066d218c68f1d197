package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/raggest/internal/document"
)

// Parser converts raw document bytes into a flat-sectioned Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".csv":  true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// titleFromFilename strips the extension and turns separators into spaces.
func titleFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

// sectionBuilder accumulates body text under the most recent heading and
// emits Sections in document order.
type sectionBuilder struct {
	sections []document.Section
	heading  string
	level    int
	page     int
	text     strings.Builder
}

func (b *sectionBuilder) startSection(heading string, level int) {
	b.flush()
	b.heading = heading
	b.level = level
}

func (b *sectionBuilder) addText(t string) {
	t = strings.TrimSpace(t)
	if t == "" {
		return
	}
	if b.text.Len() > 0 {
		b.text.WriteString("\n\n")
	}
	b.text.WriteString(t)
}

func (b *sectionBuilder) flush() {
	text := strings.TrimSpace(b.text.String())
	if text != "" || b.heading != "" {
		b.sections = append(b.sections, document.Section{
			Heading: b.heading,
			Level:   b.level,
			Text:    text,
			Page:    b.page,
		})
	}
	b.heading = ""
	b.level = 0
	b.text.Reset()
}

func (b *sectionBuilder) result() []document.Section {
	b.flush()
	return b.sections
}
