// Package wiki fetches encyclopedia articles over the MediaWiki API and
// renders them to markdown files for ingestion.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Page is a fetched article.
type Page struct {
	Title    string
	Summary  string        // Intro text before the first section
	Sections []PageSection // In article order
}

// PageSection is one "== Heading ==" span of the article extract.
type PageSection struct {
	Title string
	Level int
	Text  string
}

// Client talks to a MediaWiki-compatible API (Fandom wikis, Wikipedia).
type Client struct {
	baseURL    string // e.g. https://malazan.fandom.com
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			PageID  int    `json:"pageid"`
			Title   string `json:"title"`
			Extract string `json:"extract"`
			Missing *struct{} `json:"missing,omitempty"`
		} `json:"pages"`
	} `json:"query"`
}

// FetchPage retrieves an article as plain text and splits it into sections.
func (c *Client) FetchPage(ctx context.Context, title string) (*Page, error) {
	params := url.Values{
		"action":          {"query"},
		"format":          {"json"},
		"prop":            {"extracts"},
		"explaintext":     {"1"},
		"exsectionformat": {"wiki"},
		"redirects":       {"1"},
		"titles":          {title},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api.php?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("wiki api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wiki api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var apiResp extractResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	for _, p := range apiResp.Query.Pages {
		if p.Missing != nil || p.PageID == 0 {
			return nil, fmt.Errorf("article %q not found", title)
		}
		page := parseExtract(p.Title, p.Extract)
		return page, nil
	}
	return nil, fmt.Errorf("article %q not found", title)
}

// parseExtract splits a plain-text extract on "== Heading ==" markers.
func parseExtract(title, extract string) *Page {
	page := &Page{Title: title}

	var current *PageSection
	var buf strings.Builder

	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()
		if current == nil {
			page.Summary = text
			return
		}
		current.Text = text
		page.Sections = append(page.Sections, *current)
	}

	for _, line := range strings.Split(extract, "\n") {
		trimmed := strings.TrimSpace(line)
		if heading, level, ok := parseHeading(trimmed); ok {
			flush()
			current = &PageSection{Title: heading, Level: level}
			continue
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()

	return page
}

// parseHeading matches "== Title ==" style markers, returning the nesting
// level (2 for "==", 3 for "===", and so on).
func parseHeading(line string) (string, int, bool) {
	if len(line) < 5 || !strings.HasPrefix(line, "==") || !strings.HasSuffix(line, "==") {
		return "", 0, false
	}
	level := 0
	for level < len(line) && line[level] == '=' {
		level++
	}
	trailing := 0
	for trailing < len(line) && line[len(line)-1-trailing] == '=' {
		trailing++
	}
	if level != trailing || level < 2 || level*2 >= len(line) {
		return "", 0, false
	}
	title := strings.TrimSpace(line[level : len(line)-trailing])
	if title == "" {
		return "", 0, false
	}
	return title, level, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
