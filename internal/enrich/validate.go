package enrich

import (
	"regexp"
	"strings"
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// Validate checks generated metadata before it becomes index nodes. It
// trims, clamps list sizes, and drops anything that looks like a prompt
// injection riding in from the source document. Returns false if nothing
// usable remains.
func Validate(m *Metadata, maxQuestions int) bool {
	if m == nil {
		return false
	}

	m.Summary = strings.TrimSpace(m.Summary)
	if len(m.Summary) < 10 || len(m.Summary) > 600 || injectionPattern.MatchString(m.Summary) {
		m.Summary = ""
	}

	valid := m.Questions[:0]
	for _, q := range m.Questions {
		q = strings.TrimSpace(q)
		if len(q) < 5 || len(q) > 300 {
			continue
		}
		if injectionPattern.MatchString(q) {
			continue
		}
		valid = append(valid, q)
		if len(valid) >= maxQuestions {
			break
		}
	}
	m.Questions = valid

	return m.Summary != "" || len(m.Questions) > 0
}
