package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_HeadingsAndParagraphs(t *testing.T) {
	input := `<html>
<head><title>Anomander Rake</title></head>
<body>
<h1>Anomander Rake</h1>
<p>Lord of Moon's Spawn.</p>
<h2>History</h2>
<p>Ancient history here.</p>
<p>More history.</p>
</body>
</html>`

	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "rake.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "Anomander Rake" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[0].Heading != "Anomander Rake" || doc.Sections[0].Level != 1 {
		t.Errorf("unexpected first section: %+v", doc.Sections[0])
	}
	if !strings.Contains(doc.Sections[0].Text, "Lord of Moon's Spawn.") {
		t.Errorf("expected paragraph under h1, got %q", doc.Sections[0].Text)
	}
	if doc.Sections[1].Heading != "History" || doc.Sections[1].Level != 2 {
		t.Errorf("unexpected second section: %+v", doc.Sections[1])
	}
	if !strings.Contains(doc.Sections[1].Text, "Ancient history here.") ||
		!strings.Contains(doc.Sections[1].Text, "More history.") {
		t.Errorf("expected both paragraphs, got %q", doc.Sections[1].Text)
	}
}

func TestHTMLParser_SkipsScriptAndNav(t *testing.T) {
	input := `<html><body>
<nav><p>navigation links</p></nav>
<script>var x = "code";</script>
<p>Real content.</p>
<footer><p>footer text</p></footer>
</body></html>`

	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(doc.Sections))
	}
	text := doc.Sections[0].Text
	if !strings.Contains(text, "Real content.") {
		t.Errorf("expected body paragraph, got %q", text)
	}
	for _, banned := range []string{"navigation links", "var x", "footer text"} {
		if strings.Contains(text, banned) {
			t.Errorf("expected %q to be excluded, got %q", banned, text)
		}
	}
}

func TestHTMLParser_NoTitleFallsBackToFilename(t *testing.T) {
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader("<html><body><p>text</p></body></html>"), "my-page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "my page" {
		t.Errorf("expected filename-derived title, got %q", doc.Title)
	}
}

func TestHeadingLevel(t *testing.T) {
	cases := []struct {
		tag  string
		want int
	}{
		{"h1", 1}, {"h3", 3}, {"h6", 6},
		{"h7", 0}, {"h0", 0}, {"p", 0}, {"html", 0},
	}
	for _, c := range cases {
		if got := headingLevel(c.tag); got != c.want {
			t.Errorf("headingLevel(%q): expected %d, got %d", c.tag, c.want, got)
		}
	}
}
