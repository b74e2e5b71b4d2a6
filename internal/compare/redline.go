package compare

import "github.com/sergi/go-diff/diffmatchpatch"

// SurgicalOverlapThreshold is the verbatim-overlap ratio separating an
// edited clause (surgical, token-level diff) from a rewritten one
// (wholesale replacement). It is the single governing heuristic and is
// never re-derived per category.
const SurgicalOverlapThreshold = 0.20

// BuildRedline decides how to represent the diff for one match and emits
// the typed segment list. Segments satisfy the round-trip invariant down
// to the sub-word level: a prefix added to a single word strikes only the
// changed characters, and text common to both sides is never re-emitted
// as deleted-and-re-added.
func BuildRedline(m Match) (RedlineType, []Segment) {
	switch {
	case m.Baseline == nil && m.Revised == nil:
		return "", nil
	case m.Baseline == nil:
		return RedlineNewSection, []Segment{{Kind: SegmentAdded, Text: m.Revised.Text}}
	case m.Revised == nil:
		return RedlineDeletedSection, []Segment{{Kind: SegmentDeleted, Text: m.Baseline.Text}}
	}

	base, rev := m.Baseline.Text, m.Revised.Text

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(base, rev, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	surviving := 0
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffEqual {
			surviving += len(d.Text)
		}
	}

	if len(base) == 0 || float64(surviving)/float64(len(base)) < SurgicalOverlapThreshold {
		// Aligning small fragments at this level of dissimilarity
		// produces misleading micro-diffs.
		segs := make([]Segment, 0, 2)
		if base != "" {
			segs = append(segs, Segment{Kind: SegmentDeleted, Text: base})
		}
		if rev != "" {
			segs = append(segs, Segment{Kind: SegmentAdded, Text: rev})
		}
		return RedlineWholesale, segs
	}

	segs := make([]Segment, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		segs = append(segs, Segment{Kind: segmentKind(d.Type), Text: d.Text})
	}
	return RedlineSurgical, segs
}

func segmentKind(op diffmatchpatch.Operation) SegmentKind {
	switch op {
	case diffmatchpatch.DiffDelete:
		return SegmentDeleted
	case diffmatchpatch.DiffInsert:
		return SegmentAdded
	default:
		return SegmentUnchanged
	}
}
