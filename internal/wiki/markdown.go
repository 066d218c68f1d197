package wiki

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RenderMarkdown formats a fetched page as a markdown document: the intro
// under a "Summary" heading, then the article sections with their nesting
// preserved.
func RenderMarkdown(page *Page) string {
	var sb strings.Builder
	sb.WriteString("# " + page.Title + "\n")

	if page.Summary != "" {
		sb.WriteString("\n# Summary\n\n")
		sb.WriteString(page.Summary)
		sb.WriteString("\n")
	}

	for _, sec := range page.Sections {
		// Wiki levels start at 2 ("=="), which maps onto markdown "##".
		level := sec.Level
		if level < 2 {
			level = 2
		}
		if level > 6 {
			level = 6
		}
		sb.WriteString("\n" + strings.Repeat("#", level) + " " + sec.Title + "\n")
		if sec.Text != "" {
			sb.WriteString("\n" + sec.Text + "\n")
		}
	}

	return sb.String()
}

// Filename returns the markdown filename for an article title:
// lowercased, spaces replaced with dashes.
func Filename(title string) string {
	name := strings.ToLower(strings.TrimSpace(title))
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	return name + ".md"
}

// SaveMarkdown writes a page to the docs directory and returns the path.
func SaveMarkdown(page *Page, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create docs dir: %w", err)
	}
	path := filepath.Join(dir, Filename(page.Title))
	if err := os.WriteFile(path, []byte(RenderMarkdown(page)), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}
	return path, nil
}
