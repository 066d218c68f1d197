package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/raggest/internal/document"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	reader := text.NewReader(src)
	root := md.Parser().Parse(reader)

	doc := &document.Document{
		Source: filename,
		Title:  titleFromFilename(filename),
	}

	var b sectionBuilder
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			b.startSection(string(h.Text(src)), h.Level)
			continue
		}
		b.addText(blockText(n, src))
	}
	doc.Sections = b.result()

	// A level-1 heading at the top of the file doubles as the title.
	if len(doc.Sections) > 0 && doc.Sections[0].Level == 1 && doc.Sections[0].Heading != "" {
		doc.Title = doc.Sections[0].Heading
	}

	return doc, nil
}

// blockText gets the text content of a goldmark AST block node.
func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	writeBlockText(&buf, n, src)
	return strings.TrimSpace(buf.String())
}

// writeBlockText emits a block that carries its own source lines from those
// lines; walking its inline children too would emit the same text twice.
// Line-less containers (lists, block quotes) recurse into their children.
func writeBlockText(buf *bytes.Buffer, n ast.Node, src []byte) {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(bytes.TrimRight(seg.Value(src), "\n"))
			buf.WriteByte('\n')
		}
		return
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		writeBlockText(buf, c, src)
	}
}
