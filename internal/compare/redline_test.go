package compare

import (
	"strings"
	"testing"
)

// reconstruct rebuilds one side of a diff from its segments.
func reconstruct(segments []Segment, keep SegmentKind) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Kind == SegmentUnchanged || seg.Kind == keep {
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

func assertRoundTrip(t *testing.T, segments []Segment, baseline, revised string) {
	t.Helper()
	if got := reconstruct(segments, SegmentDeleted); got != baseline {
		t.Errorf("UNCHANGED+DELETED = %q, want baseline %q", got, baseline)
	}
	if got := reconstruct(segments, SegmentAdded); got != revised {
		t.Errorf("UNCHANGED+ADDED = %q, want revised %q", got, revised)
	}
}

func matchedPair(baseline, revised string) Match {
	b := Section{Number: "4", Title: "Fees", Text: baseline}
	r := Section{Number: "4", Title: "Fees", Text: revised}
	return Match{Baseline: &b, Revised: &r, BaselineIndex: 0, RevisedIndex: 0, Confidence: 0.9}
}

func TestRedlineSurgicalEdit(t *testing.T) {
	baseline := "The fee shall be due within seven (7) calendar days of invoice."
	revised := "The fee shall be due within thirty (30) days of invoice."

	redlineType, segments := BuildRedline(matchedPair(baseline, revised))
	if redlineType != RedlineSurgical {
		t.Fatalf("redline type = %s, want %s", redlineType, RedlineSurgical)
	}
	assertRoundTrip(t, segments, baseline, revised)

	// The long shared prefix must survive as UNCHANGED, never re-emitted
	// as deleted-and-re-added.
	var unchanged strings.Builder
	for _, seg := range segments {
		if seg.Kind == SegmentUnchanged {
			unchanged.WriteString(seg.Text)
		}
	}
	if !strings.Contains(unchanged.String(), "The fee shall be due within") {
		t.Errorf("shared prefix missing from UNCHANGED segments: %q", unchanged.String())
	}
}

func TestRedlineWholesaleRewrite(t *testing.T) {
	baseline := "The contractor agrees to maintain comprehensive records of all expenditures incurred during performance of the services and to furnish such records to the client upon reasonable written request delivered no fewer than ten business days in advance of the requested inspection date at the contractor's principal place of business."
	revised := "Quarterly summaries covering headcount utilization and forecast burn rates will be published to the shared dashboard."

	redlineType, segments := BuildRedline(matchedPair(baseline, revised))
	if redlineType != RedlineWholesale {
		t.Fatalf("redline type = %s, want %s", redlineType, RedlineWholesale)
	}
	if len(segments) != 2 {
		t.Fatalf("wholesale should emit exactly one DELETED and one ADDED segment, got %d", len(segments))
	}
	if segments[0].Kind != SegmentDeleted || segments[0].Text != baseline {
		t.Errorf("first segment should delete the whole baseline")
	}
	if segments[1].Kind != SegmentAdded || segments[1].Text != revised {
		t.Errorf("second segment should add the whole revised text")
	}
	assertRoundTrip(t, segments, baseline, revised)
}

func TestRedlineSubWordEdit(t *testing.T) {
	baseline := "The party shall notify the other in writing."
	revised := "The party shall renotify the other in writing."

	redlineType, segments := BuildRedline(matchedPair(baseline, revised))
	if redlineType != RedlineSurgical {
		t.Fatalf("redline type = %s, want %s", redlineType, RedlineSurgical)
	}
	assertRoundTrip(t, segments, baseline, revised)

	// Only the added prefix may be struck in, not the whole token.
	for _, seg := range segments {
		if seg.Kind == SegmentDeleted {
			t.Errorf("prefix-only insertion should delete nothing, got DELETED(%q)", seg.Text)
		}
		if seg.Kind == SegmentAdded && strings.Contains(seg.Text, "notify") {
			t.Errorf("ADDED segment %q re-emits unchanged characters", seg.Text)
		}
	}
}

func TestRedlineNewSection(t *testing.T) {
	r := Section{Number: "9", Title: "Data Protection", Text: "Personal data is processed per the attached addendum."}
	redlineType, segments := BuildRedline(Match{Revised: &r, BaselineIndex: -1, RevisedIndex: 0})
	if redlineType != RedlineNewSection {
		t.Fatalf("redline type = %s, want %s", redlineType, RedlineNewSection)
	}
	if len(segments) != 1 || segments[0].Kind != SegmentAdded || segments[0].Text != r.Text {
		t.Errorf("new section must be a single ADDED segment spanning the whole text")
	}
}

func TestRedlineDeletedSection(t *testing.T) {
	b := Section{Number: "9", Title: "Escrow", Text: "Source code is deposited with the escrow agent quarterly."}
	redlineType, segments := BuildRedline(Match{Baseline: &b, BaselineIndex: 0, RevisedIndex: -1})
	if redlineType != RedlineDeletedSection {
		t.Fatalf("redline type = %s, want %s", redlineType, RedlineDeletedSection)
	}
	if len(segments) != 1 || segments[0].Kind != SegmentDeleted || segments[0].Text != b.Text {
		t.Errorf("deleted section must be a single DELETED segment spanning the whole text")
	}
}

func TestRedlineRoundTripAcrossEditShapes(t *testing.T) {
	tests := []struct {
		name     string
		baseline string
		revised  string
	}{
		{"replacement mid-sentence", "Notices are sent to the registered office.", "Notices are delivered to the registered office."},
		{"pure insertion", "Fees are payable in dollars.", "Fees are payable in United States dollars."},
		{"pure removal", "The term renews automatically each year.", "The term renews each year."},
		{"edit at both ends", "Initially the deposit is refundable on exit.", "Generally the deposit is refundable on request."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, segments := BuildRedline(matchedPair(tt.baseline, tt.revised))
			assertRoundTrip(t, segments, tt.baseline, tt.revised)
		})
	}
}
