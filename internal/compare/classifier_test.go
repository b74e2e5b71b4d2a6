package compare

import (
	"strings"
	"testing"
)

func TestClassifySection(t *testing.T) {
	tests := []struct {
		name      string
		section   Section
		want      Category
		confident bool
	}{
		{
			name: "limitation of liability is critical",
			section: Section{
				Title: "Limitation of Liability",
				Text:  "In no event shall either party's aggregate limitation of liability exceed the amounts paid.",
			},
			want:      CategoryCritical,
			confident: true,
		},
		{
			name: "indemnification is critical",
			section: Section{
				Title: "Indemnification",
				Text:  "The vendor shall indemnify and hold harmless the client from third-party claims.",
			},
			want:      CategoryCritical,
			confident: true,
		},
		{
			name: "termination is high priority",
			section: Section{
				Title: "Termination",
				Text:  "Either party may terminate this agreement upon sixty days written notice.",
			},
			want:      CategoryHighPriority,
			confident: true,
		},
		{
			name: "plain payment terms stay moderate",
			section: Section{
				Title: "Payment Terms",
				Text:  "All invoices are due within thirty days of the invoice date. Payment is made by bank transfer.",
			},
			want:      CategoryModerate,
			confident: true,
		},
		{
			name: "payment tied to scope milestones promotes to high priority",
			section: Section{
				Title: "Payment Terms",
				Text:  "Payment is due upon completion of each milestone described in the statement of work.",
			},
			want:      CategoryHighPriority,
			confident: true,
		},
		{
			name: "payment with upstream pass-through promotes to critical",
			section: Section{
				Title: "Payment Terms",
				Text:  "Payment obligations include all pass-through charges owed to upstream suppliers.",
			},
			want:      CategoryCritical,
			confident: true,
		},
		{
			name: "contact information updates are administrative",
			section: Section{
				Title: "Contact Information",
				Text:  "Contact information updates take effect upon delivery to the other party's address below.",
			},
			want:      CategoryAdministrative,
			confident: true,
		},
		{
			name: "force majeure is administrative",
			section: Section{
				Title: "Force Majeure",
				Text:  "Neither party is responsible for delays caused by events beyond its reasonable control under this force majeure clause.",
			},
			want:      CategoryAdministrative,
			confident: true,
		},
		{
			name: "unrecognized topic escalates above the lowest tier",
			section: Section{
				Title: "Miscellaneous",
				Text:  "This agreement may be executed in counterparts, each of which is an original.",
			},
			want:      CategoryModerate,
			confident: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifySection(tt.section)
			if got.Category != tt.want {
				t.Errorf("category = %s, want %s (justification: %s)", got.Category, tt.want, got.Justification)
			}
			if got.Confident != tt.confident {
				t.Errorf("confident = %v, want %v", got.Confident, tt.confident)
			}
			if got.Justification == "" {
				t.Error("justification must never be empty")
			}
		})
	}
}

func TestClassifyJustificationNamesTrigger(t *testing.T) {
	got := ClassifySection(Section{
		Title: "Limitation of Liability",
		Text:  "Liability is capped at fees paid in the preceding twelve months.",
	})
	if !strings.Contains(got.Justification, "liability") {
		t.Errorf("justification %q should name the triggering topic", got.Justification)
	}
}

func TestCategoryRankOrdering(t *testing.T) {
	ordered := []Category{CategoryCritical, CategoryHighPriority, CategoryModerate, CategoryAdministrative}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].rank() >= ordered[i].rank() {
			t.Errorf("%s should rank above %s", ordered[i-1], ordered[i])
		}
	}
}
