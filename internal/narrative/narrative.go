// Package narrative produces reviewer-facing explanations for classified
// changes. The default generator is deterministic; richer generators can be
// plugged in behind the same interface.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"redline/api/internal/compare"
)

// Payload carries everything a generator may use to explain one change.
type Payload struct {
	SectionNumber string `json:"section_number"`
	SectionTitle  string `json:"section_title"`
	Category      string `json:"category"`
	Justification string `json:"justification"`
	RedlineType   string `json:"redline_type"`
	BaselineText  string `json:"baseline_text"`
	RevisedText   string `json:"revised_text"`
}

// Generator turns a change payload into prose for a reviewer.
type Generator interface {
	Explain(ctx context.Context, p Payload) (string, error)
}

// PayloadFromChange extracts the explanation inputs from a change record.
func PayloadFromChange(rec compare.ChangeRecord) Payload {
	return Payload{
		SectionNumber: rec.SectionNumber,
		SectionTitle:  rec.SectionTitle,
		Category:      string(rec.Category),
		Justification: rec.Justification,
		RedlineType:   string(rec.RedlineType),
		BaselineText:  rec.BaselineText,
		RevisedText:   rec.RevisedText,
	}
}

// TemplateGenerator is the deterministic default. Same payload in, same
// sentence out.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Explain(_ context.Context, p Payload) (string, error) {
	heading := strings.TrimSpace(strings.TrimSpace(p.SectionNumber) + " " + p.SectionTitle)
	if heading == "" {
		heading = "This section"
	} else {
		heading = "Section " + heading
	}

	var action string
	switch p.RedlineType {
	case string(compare.RedlineNewSection):
		action = "was added in the revised draft"
	case string(compare.RedlineDeletedSection):
		action = "was removed from the revised draft"
	case string(compare.RedlineWholesale):
		action = "was rewritten in the revised draft"
	default:
		action = "was edited in the revised draft"
	}

	sentence := fmt.Sprintf("%s %s and is rated %s", heading, action, p.Category)
	if p.Justification != "" {
		sentence += ": " + p.Justification
	}
	return sentence + ".", nil
}
