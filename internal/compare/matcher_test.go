package compare

import "testing"

func sectionsFixture() ([]Section, []Section) {
	baseline := []Section{
		{Number: "1", Title: "Definitions", Text: "Capitalized terms have the meanings given in this section of the agreement."},
		{Number: "2", Title: "Payment Terms", Text: "The client shall pay all invoices within thirty days of receipt via wire transfer."},
		{Number: "3", Title: "Limitation of Liability", Text: "Neither party shall be liable for indirect or consequential damages of any kind."},
	}
	revised := []Section{
		{Number: "1", Title: "Background", Text: "This agreement is entered into between the parties as of the effective date."},
		{Number: "2", Title: "Definitions", Text: "Capitalized terms have the meanings given in this section of the agreement."},
		{Number: "3", Title: "Payment Terms", Text: "The client shall pay all invoices within forty-five days of receipt via wire transfer."},
		{Number: "4", Title: "Limitation of Liability", Text: "Neither party shall be liable for indirect or consequential damages of any kind."},
	}
	return baseline, revised
}

func TestMatchResolvesNumberingDrift(t *testing.T) {
	baseline, revised := sectionsFixture()
	matcher := NewMatcher(DefaultMatcherConfig())

	matches := matcher.Match(baseline, revised)

	pairs := map[int]int{}
	for _, m := range matches {
		if m.BaselineIndex >= 0 && m.RevisedIndex >= 0 {
			pairs[m.BaselineIndex] = m.RevisedIndex
		}
	}

	want := map[int]int{0: 1, 1: 2, 2: 3}
	for b, r := range want {
		if pairs[b] != r {
			t.Errorf("baseline %d matched revised %d, want %d", b, pairs[b], r)
		}
	}
}

func TestMatchBijection(t *testing.T) {
	baseline, revised := sectionsFixture()
	matcher := NewMatcher(DefaultMatcherConfig())

	matches := matcher.Match(baseline, revised)

	seenB := map[int]int{}
	seenR := map[int]int{}
	for _, m := range matches {
		if m.BaselineIndex >= 0 {
			seenB[m.BaselineIndex]++
		}
		if m.RevisedIndex >= 0 {
			seenR[m.RevisedIndex]++
		}
		if m.BaselineIndex < 0 && m.RevisedIndex < 0 {
			t.Fatalf("match with neither side set")
		}
	}
	for i := range baseline {
		if seenB[i] != 1 {
			t.Errorf("baseline section %d appears %d times, want 1", i, seenB[i])
		}
	}
	for j := range revised {
		if seenR[j] != 1 {
			t.Errorf("revised section %d appears %d times, want 1", j, seenR[j])
		}
	}
}

func TestMatchBelowThresholdStaysUnmatched(t *testing.T) {
	baseline := []Section{
		{Number: "1", Title: "Governing Law", Text: "This agreement is governed by the laws of the state of Delaware."},
	}
	revised := []Section{
		{Number: "1", Title: "Insurance", Text: "The vendor shall maintain commercial general insurance coverage at all times."},
	}
	matcher := NewMatcher(DefaultMatcherConfig())

	matches := matcher.Match(baseline, revised)
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2 unmatched entries", len(matches))
	}
	for _, m := range matches {
		if m.Baseline != nil && m.Revised != nil {
			t.Errorf("dissimilar sections were force-matched (confidence %.2f)", m.Confidence)
		}
	}
}

func TestMatchEmptySideBecomesPureChanges(t *testing.T) {
	baseline, _ := sectionsFixture()
	matcher := NewMatcher(DefaultMatcherConfig())

	matches := matcher.Match(baseline, nil)
	if len(matches) != len(baseline) {
		t.Fatalf("got %d matches, want %d", len(matches), len(baseline))
	}
	for _, m := range matches {
		if m.Revised != nil || m.Baseline == nil {
			t.Errorf("expected pure deletion, got %+v", m)
		}
	}
}

func TestMatchFlagsNearTie(t *testing.T) {
	body := "The contractor shall submit monthly progress reports describing work performed hours expended and materials consumed during the reporting period in reasonable detail"
	bodyVariant := "The contractor shall submit monthly progress reports describing work performed hours expended and materials consumed during the invoicing period in reasonable detail"

	baseline := []Section{{Number: "5", Title: "Reporting", Text: body}}
	revised := []Section{
		{Number: "5", Title: "Reporting", Text: body},
		{Number: "6", Title: "Reporting", Text: bodyVariant},
	}
	matcher := NewMatcher(DefaultMatcherConfig())

	matches := matcher.Match(baseline, revised)

	var matched *Match
	for i := range matches {
		if matches[i].Baseline != nil && matches[i].Revised != nil {
			matched = &matches[i]
		}
	}
	if matched == nil {
		t.Fatal("expected the ambiguous section to still be matched")
	}
	if matched.RevisedIndex != 0 {
		t.Errorf("highest score should win: matched revised %d, want 0", matched.RevisedIndex)
	}
	if !matched.TieBreakApplied {
		t.Error("near-tied candidates must set tie_break_applied")
	}
}

func TestMatchDuplicateNumbersNotAnError(t *testing.T) {
	baseline := []Section{
		{Number: "7", Title: "Confidentiality", Text: "Each party shall keep the other party's confidential information secret."},
		{Number: "7", Title: "Assignment", Text: "Neither party may assign this agreement without prior written consent."},
	}
	revised := []Section{
		{Number: "7", Title: "Assignment", Text: "Neither party may assign this agreement without prior written consent."},
		{Number: "8", Title: "Confidentiality", Text: "Each party shall keep the other party's confidential information secret."},
	}
	matcher := NewMatcher(DefaultMatcherConfig())

	matches := matcher.Match(baseline, revised)
	matched := 0
	for _, m := range matches {
		if m.Baseline != nil && m.Revised != nil {
			matched++
			if m.Baseline.Title != m.Revised.Title {
				t.Errorf("matched %q to %q; matching must follow content, not number", m.Baseline.Title, m.Revised.Title)
			}
		}
	}
	if matched != 2 {
		t.Errorf("got %d content matches, want 2", matched)
	}
}
