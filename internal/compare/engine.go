package compare

import (
	"context"
	"sort"
	"time"
)

// Adjudicator is an optional strategy consulted for sections the rule
// table could not classify with confidence. The deterministic escalation
// in ClassifySection remains the default and offline behavior; an
// external reasoning collaborator can be plugged in here without touching
// the core.
type Adjudicator interface {
	Adjudicate(ctx context.Context, section Section) (Category, string, bool)
}

// Config tunes the comparison pipeline.
type Config struct {
	MinMatchScore float64
	TieEpsilon    float64
	Adjudicator   Adjudicator
}

// Engine runs the full pipeline: match, classify, redline, assemble.
// It is CPU-bound, performs no I/O, and is safe for concurrent use.
type Engine struct {
	matcher     *Matcher
	adjudicator Adjudicator
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		matcher: NewMatcher(MatcherConfig{
			MinScore:   cfg.MinMatchScore,
			TieEpsilon: cfg.TieEpsilon,
		}),
		adjudicator: cfg.Adjudicator,
	}
}

// Compare produces the snapshot for one document pair. Matches whose text
// is unchanged emit no record. Records are ordered by the revised
// document's section order; pure deletions slot in after the last revised
// position their baseline predecessor mapped to. The order is
// deterministic for identical inputs.
func (e *Engine) Compare(ctx context.Context, baseline, revised []Section) (*Snapshot, error) {
	baselineHash := HashSections(baseline)
	revisedHash := HashSections(revised)

	matches := e.matcher.Match(baseline, revised)

	// Revised position reached by each matched baseline section, used to
	// anchor deletions into revised-document order.
	revisedOf := make([]int, len(baseline))
	for i := range revisedOf {
		revisedOf[i] = -1
	}
	for _, m := range matches {
		if m.BaselineIndex >= 0 && m.RevisedIndex >= 0 {
			revisedOf[m.BaselineIndex] = m.RevisedIndex
		}
	}

	type keyedRecord struct {
		rec     ChangeRecord
		primary int
		tier    int
		within  int
	}

	var records []keyedRecord
	for _, m := range matches {
		if m.Baseline != nil && m.Revised != nil && m.Baseline.Text == m.Revised.Text {
			continue
		}

		effective := m.Revised
		if effective == nil {
			effective = m.Baseline
		}

		cls := ClassifySection(*effective)
		if !cls.Confident && e.adjudicator != nil {
			if cat, why, ok := e.adjudicator.Adjudicate(ctx, *effective); ok {
				cls = Classification{Category: cat, Justification: why, Confident: true}
			}
		}

		redlineType, segments := BuildRedline(m)

		rec := ChangeRecord{
			SectionNumber:   effective.Number,
			SectionTitle:    effective.Title,
			Category:        cls.Category,
			Justification:   cls.Justification,
			RedlineType:     redlineType,
			Segments:        segments,
			MatchConfidence: m.Confidence,
			TieBreakApplied: m.TieBreakApplied,
		}
		if m.Baseline != nil {
			rec.BaselineText = m.Baseline.Text
		}
		if m.Revised != nil {
			rec.RevisedText = m.Revised.Text
		}

		kr := keyedRecord{rec: rec}
		if m.RevisedIndex >= 0 {
			kr.primary = m.RevisedIndex
		} else {
			kr.primary = deletionAnchor(revisedOf, m.BaselineIndex)
			kr.tier = 1
			kr.within = m.BaselineIndex
		}
		records = append(records, kr)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].primary != records[j].primary {
			return records[i].primary < records[j].primary
		}
		if records[i].tier != records[j].tier {
			return records[i].tier < records[j].tier
		}
		return records[i].within < records[j].within
	})

	changes := make([]ChangeRecord, len(records))
	summary := make(map[Category]int)
	for i, kr := range records {
		changes[i] = kr.rec
		summary[kr.rec.Category]++
	}

	return &Snapshot{
		BaselineHash: baselineHash,
		RevisedHash:  revisedHash,
		Changes:      changes,
		Summary:      summary,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// deletionAnchor returns the highest revised position reached by any
// baseline section preceding the deleted one, or -1 when the deletion
// precedes every surviving section.
func deletionAnchor(revisedOf []int, baselineIndex int) int {
	anchor := -1
	for i := 0; i < baselineIndex && i < len(revisedOf); i++ {
		if revisedOf[i] > anchor {
			anchor = revisedOf[i]
		}
	}
	return anchor
}
