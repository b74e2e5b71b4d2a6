// Package extract splits already-extracted plain agreement text into
// numbered sections. It performs no binary document-format parsing; that
// belongs to an upstream extraction service.
package extract

import (
	"regexp"
	"strings"

	"redline/api/internal/compare"
)

// headingPattern matches numbered clause headings such as
// "1. Definitions", "2.3 Payment Terms" or "10.1.2 Escalation".
var headingPattern = regexp.MustCompile(`^(\d+(?:\.\d+)*\.?)\s+(.+)$`)

// Sections splits plain text into a section list. Text before the first
// numbered heading becomes an unnumbered preamble section. A document with
// no headings at all yields a single section holding the whole text.
func Sections(text string) []compare.Section {
	lines := strings.Split(text, "\n")

	var sections []compare.Section
	current := compare.Section{}
	var body strings.Builder
	started := false

	flush := func() {
		current.Text = strings.TrimSpace(body.String())
		if current.Text != "" || current.Title != "" {
			sections = append(sections, current)
		}
		body.Reset()
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := headingPattern.FindStringSubmatch(trimmed); m != nil {
			if started || body.Len() > 0 {
				flush()
			}
			current = compare.Section{
				Number: strings.TrimSuffix(m[1], "."),
				Title:  strings.TrimSpace(m[2]),
			}
			started = true
			continue
		}
		if body.Len() > 0 {
			body.WriteByte('\n')
		}
		body.WriteString(trimmed)
	}
	flush()

	return sections
}
