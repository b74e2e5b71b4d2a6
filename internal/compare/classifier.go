package compare

import "strings"

// Classification is the impact category assigned to one changed section,
// with the triggering topic kept as an audit justification. The
// justification is the factual payload later handed to the narrative
// generator; the classifier itself produces no prose.
type Classification struct {
	Category      Category
	Justification string
	Confident     bool
}

type classificationRule struct {
	category Category
	topic    string
	keywords []string
}

// classificationRules is a priority-ordered table evaluated top to bottom;
// the first keyword hit wins. Order within a severity tier matters less
// than the tier order itself.
var classificationRules = []classificationRule{
	{CategoryCritical, "limitation of liability", []string{"limitation of liability", "liability", "liable"}},
	{CategoryCritical, "indemnification", []string{"indemnif", "hold harmless"}},
	{CategoryCritical, "intellectual property ownership", []string{"intellectual property", "ip ownership", "work product"}},
	{CategoryCritical, "compliance", []string{"compliance", "regulatory requirement"}},
	{CategoryCritical, "insurance", []string{"insurance", "insured"}},
	{CategoryHighPriority, "termination", []string{"termination", "terminate"}},
	{CategoryHighPriority, "warranties", []string{"warrant"}},
	{CategoryHighPriority, "acceptance", []string{"acceptance"}},
	{CategoryHighPriority, "fees", []string{"fee schedule", "fees", "fee"}},
	{CategoryModerate, "payment terms", []string{"payment", "invoice"}},
	{CategoryModerate, "operational", []string{"operational", "service level", "support hours"}},
	{CategoryModerate, "confidentiality", []string{"confidential", "non-disclosure"}},
	{CategoryModerate, "assignment", []string{"assignment", "assign"}},
	{CategoryAdministrative, "contact information", []string{"contact information", "contact"}},
	{CategoryAdministrative, "definitions", []string{"definitions", "defined terms"}},
	{CategoryAdministrative, "force majeure", []string{"force majeure"}},
}

// Payment-terms sections are the one context-dependent branch: auxiliary
// signals in the text can promote the default MODERATE rating.
var (
	passThroughSignals = []string{"pass-through", "pass through", "flow-down", "flow down", "upstream obligation", "upstream"}
	milestoneSignals   = []string{"milestone", "statement of work", "scope document", "delivery schedule", "deliverable"}
)

// ClassifySection assigns an impact category to a section. When no rule
// applies with confidence, the result escalates to the next-higher
// category above the lowest tier: ties resolve toward caution, never
// toward under-reporting risk.
func ClassifySection(sec Section) Classification {
	content := strings.ToLower(sec.Title + "\n" + sec.Text)

	for _, rule := range classificationRules {
		for _, kw := range rule.keywords {
			if !strings.Contains(content, kw) {
				continue
			}
			if rule.topic == "payment terms" {
				return classifyPaymentTerms(content, kw)
			}
			return Classification{
				Category:      rule.category,
				Justification: rule.topic + " (matched \"" + kw + "\")",
				Confident:     true,
			}
		}
	}

	return Classification{
		Category:      CategoryModerate,
		Justification: "no classification rule matched; escalated above the lowest category",
		Confident:     false,
	}
}

func classifyPaymentTerms(content, matched string) Classification {
	for _, sig := range passThroughSignals {
		if strings.Contains(content, sig) {
			return Classification{
				Category:      CategoryCritical,
				Justification: "payment terms carrying an upstream pass-through obligation (\"" + sig + "\")",
				Confident:     true,
			}
		}
	}
	for _, sig := range milestoneSignals {
		if strings.Contains(content, sig) {
			return Classification{
				Category:      CategoryHighPriority,
				Justification: "payment terms linked to milestone or delivery in a separate scope document (\"" + sig + "\")",
				Confident:     true,
			}
		}
	}
	return Classification{
		Category:      CategoryModerate,
		Justification: "payment terms (matched \"" + matched + "\")",
		Confident:     true,
	}
}
