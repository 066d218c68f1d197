// Package splitter turns parsed documents into retrievable nodes: a sentence
// splitter that packs sentences into token-budgeted chunks, and a hierarchical
// mode that emits large parent chunks plus small children referencing them.
package splitter

import (
	"strings"

	"github.com/dgallion1/raggest/internal/document"
	"github.com/dgallion1/raggest/internal/node"
)

// Config controls splitting behavior. Sizes are in estimated tokens.
type Config struct {
	ChunkSize    int // Target chunk size
	ChunkOverlap int // Overlap between consecutive chunks
	MinChunk     int // Minimum chunk size to emit
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    512,
		ChunkOverlap: 64,
		MinChunk:     20,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = d.ChunkSize
	}
	// Zero overlap means no overlap; it is never defaulted, so disjoint
	// chunks stay expressible (parents rely on this).
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = 0
	}
	if c.MinChunk <= 0 {
		c.MinChunk = d.MinChunk
	}
	return c
}

// Split produces text nodes from a document, one breadcrumbed chunk stream
// per section.
func Split(doc *document.Document, cfg Config) []*node.Node {
	cfg = cfg.withDefaults()

	var nodes []*node.Node
	breadcrumbs := doc.Breadcrumbs()
	index := 0

	for i, sec := range doc.Sections {
		if sec.Text == "" {
			continue
		}
		for _, text := range SplitText(sec.Text, cfg) {
			if EstimateTokens(text) < cfg.MinChunk {
				continue
			}
			nodes = append(nodes, &node.Node{
				ID:         node.NewID(),
				DocID:      doc.ID,
				DocTitle:   doc.Title,
				Kind:       node.KindText,
				Text:       text,
				Index:      index,
				Breadcrumb: breadcrumbs[i],
				Page:       sec.Page,
			})
			index++
		}
	}

	return nodes
}

// SplitText breaks text into chunks of approximately cfg.ChunkSize tokens,
// preferring paragraph boundaries, then sentence boundaries, with overlap.
func SplitText(text string, cfg Config) []string {
	cfg = cfg.withDefaults()

	var result []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if currentTokens == 0 {
			return
		}
		result = append(result, current.String())
		// Start the next chunk with overlap from the end of this one.
		overlap := overlapText(current.String(), cfg.ChunkOverlap)
		current.Reset()
		currentTokens = 0
		if overlap != "" {
			current.WriteString(overlap)
			currentTokens = EstimateTokens(overlap)
		}
	}

	for _, para := range splitParagraphs(text) {
		paraTokens := EstimateTokens(para)

		// A single oversized paragraph gets packed sentence by sentence.
		if paraTokens > cfg.ChunkSize {
			for _, sent := range SplitSentences(para) {
				sentTokens := EstimateTokens(sent)
				if currentTokens+sentTokens > cfg.ChunkSize && currentTokens > 0 {
					flush()
				}
				if current.Len() > 0 {
					current.WriteString(" ")
				}
				current.WriteString(sent)
				currentTokens += sentTokens
			}
			continue
		}

		if currentTokens+paraTokens > cfg.ChunkSize && currentTokens > 0 {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}

	if currentTokens > 0 {
		result = append(result, current.String())
	}

	return result
}

// SplitSentences does basic sentence splitting on terminal punctuation.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n') {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// overlapText extracts the last targetTokens worth of text for chunk overlap.
func overlapText(text string, targetTokens int) string {
	words := strings.Fields(text)
	// Approximate: 1.33 tokens per word.
	targetWords := int(float64(targetTokens) / 1.33)
	if targetWords <= 0 || len(words) <= targetWords {
		return ""
	}
	return strings.Join(words[len(words)-targetWords:], " ")
}
