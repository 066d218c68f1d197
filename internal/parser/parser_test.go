package parser

import (
	"testing"
)

func TestForFile(t *testing.T) {
	cases := []struct {
		filename string
		wantErr  bool
	}{
		{"doc.md", false},
		{"doc.markdown", false},
		{"doc.txt", false},
		{"doc.csv", false},
		{"doc.html", false},
		{"doc.htm", false},
		{"doc.pdf", false},
		{"doc.docx", false},
		{"DOC.MD", false},
		{"doc.exe", true},
		{"doc", true},
	}
	for _, c := range cases {
		p, err := ForFile(c.filename)
		if c.wantErr {
			if err == nil {
				t.Errorf("ForFile(%q): expected error", c.filename)
			}
			continue
		}
		if err != nil {
			t.Errorf("ForFile(%q): unexpected error: %v", c.filename, err)
		}
		if p == nil {
			t.Errorf("ForFile(%q): expected a parser", c.filename)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("article.md") {
		t.Error("expected .md to be supported")
	}
	if !IsSupportedExtension("REPORT.PDF") {
		t.Error("expected extension check to be case-insensitive")
	}
	if IsSupportedExtension("binary.exe") {
		t.Error("expected .exe to be unsupported")
	}
	if IsSupportedExtension("noext") {
		t.Error("expected extensionless file to be unsupported")
	}
}

func TestTitleFromFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"anomander-rake.md", "anomander rake"},
		{"moons_spawn.txt", "moons spawn"},
		{"plain.pdf", "plain"},
		{"multi-word_name.html", "multi word name"},
	}
	for _, c := range cases {
		if got := titleFromFilename(c.in); got != c.want {
			t.Errorf("titleFromFilename(%q): expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestSectionBuilder(t *testing.T) {
	var b sectionBuilder
	b.addText("preamble before any heading")
	b.startSection("First", 1)
	b.addText("first body")
	b.addText("more body")
	b.startSection("Empty", 2)
	b.startSection("Second", 2)
	b.addText("second body")

	sections := b.result()
	if len(sections) != 4 {
		t.Fatalf("expected 4 sections, got %d", len(sections))
	}
	if sections[0].Heading != "" || sections[0].Text != "preamble before any heading" {
		t.Errorf("unexpected preamble section: %+v", sections[0])
	}
	if sections[1].Heading != "First" || sections[1].Text != "first body\n\nmore body" {
		t.Errorf("unexpected first section: %+v", sections[1])
	}
	// A heading with no body still gets a section, so breadcrumbs see it.
	if sections[2].Heading != "Empty" || sections[2].Text != "" {
		t.Errorf("unexpected empty section: %+v", sections[2])
	}
	if sections[3].Heading != "Second" || sections[3].Text != "second body" {
		t.Errorf("unexpected second section: %+v", sections[3])
	}
}
