// Package compare implements the agreement comparison core: content-based
// section matching, business-impact classification, and redline generation.
package compare

import "time"

// Category is the business-impact severity assigned to a change.
type Category string

const (
	CategoryCritical       Category = "CRITICAL"
	CategoryHighPriority   Category = "HIGH_PRIORITY"
	CategoryModerate       Category = "MODERATE"
	CategoryAdministrative Category = "ADMINISTRATIVE"
)

// Categories lists every category from most to least severe.
var Categories = []Category{
	CategoryCritical,
	CategoryHighPriority,
	CategoryModerate,
	CategoryAdministrative,
}

// rank orders categories from most to least severe. Lower is more severe.
func (c Category) rank() int {
	switch c {
	case CategoryCritical:
		return 0
	case CategoryHighPriority:
		return 1
	case CategoryModerate:
		return 2
	case CategoryAdministrative:
		return 3
	default:
		return 4
	}
}

// RedlineType says how the diff for a change is represented.
type RedlineType string

const (
	RedlineSurgical       RedlineType = "SURGICAL"
	RedlineWholesale      RedlineType = "WHOLESALE"
	RedlineNewSection     RedlineType = "NEW_SECTION"
	RedlineDeletedSection RedlineType = "DELETED_SECTION"
)

// SegmentKind tags a span of redline text.
type SegmentKind string

const (
	SegmentUnchanged SegmentKind = "UNCHANGED"
	SegmentDeleted   SegmentKind = "DELETED"
	SegmentAdded     SegmentKind = "ADDED"
)

// Section is one logical clause extracted from a document version.
// The number is whatever that version printed; it is not trusted for matching.
type Section struct {
	Number string `json:"section_number"`
	Title  string `json:"title"`
	Text   string `json:"text"`
}

// Match aligns one baseline section with at most one revised section.
// A nil Baseline means the section is new in the revised draft; a nil
// Revised means it was deleted. Indexes are -1 for the absent side.
type Match struct {
	Baseline        *Section
	Revised         *Section
	BaselineIndex   int
	RevisedIndex    int
	Confidence      float64
	TieBreakApplied bool
}

// Segment is a typed span of redline text. Concatenating UNCHANGED+DELETED
// segments in order reproduces the baseline text; UNCHANGED+ADDED reproduces
// the revised text.
type Segment struct {
	Kind SegmentKind `json:"kind"`
	Text string      `json:"text"`
}

// ChangeRecord is the classified, redlined outcome for one substantive change.
type ChangeRecord struct {
	SectionNumber   string      `json:"effective_section_number"`
	SectionTitle    string      `json:"title"`
	Category        Category    `json:"category"`
	Justification   string      `json:"justification"`
	RedlineType     RedlineType `json:"redline_type"`
	Segments        []Segment   `json:"segments"`
	MatchConfidence float64     `json:"match_confidence"`
	TieBreakApplied bool        `json:"tie_break_applied"`
	BaselineText    string      `json:"baseline_text"`
	RevisedText     string      `json:"revised_text"`
}

// Snapshot is the full, immutable output of comparing one document pair.
// Summary is derived from Changes and never computed independently.
type Snapshot struct {
	BaselineHash string           `json:"baseline_hash"`
	RevisedHash  string           `json:"revised_hash"`
	Changes      []ChangeRecord   `json:"changes"`
	Summary      map[Category]int `json:"summary"`
	CreatedAt    time.Time        `json:"created_at"`
}
