package compare

import (
	"strings"
	"unicode"
)

// MatcherConfig tunes section alignment. MinScore is the similarity floor
// below which sections stay unmatched; TieEpsilon is the score gap under
// which a winning match is flagged as a tie-break.
type MatcherConfig struct {
	MinScore   float64
	TieEpsilon float64
}

// DefaultMatcherConfig returns the empirically chosen defaults. The exact
// floor is a tunable parameter, not a contractual constant.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{MinScore: 0.40, TieEpsilon: 0.05}
}

// Matcher aligns sections between two document versions by content
// similarity. Section numbers are ignored entirely: numbering commonly
// drifts between drafts, and duplicate numbers within one version are
// handled like any other section.
type Matcher struct {
	cfg MatcherConfig
}

func NewMatcher(cfg MatcherConfig) *Matcher {
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMatcherConfig().MinScore
	}
	if cfg.TieEpsilon <= 0 {
		cfg.TieEpsilon = DefaultMatcherConfig().TieEpsilon
	}
	return &Matcher{cfg: cfg}
}

// Match produces the full match set: greedy pairing in descending score
// order until no candidate clears MinScore, then one pure-deletion match
// per leftover baseline section and one pure-addition match per leftover
// revised section. Every section from both sides appears in exactly one
// returned Match.
func (m *Matcher) Match(baseline, revised []Section) []Match {
	baseProfiles := make([]sectionProfile, len(baseline))
	for i := range baseline {
		baseProfiles[i] = profileSection(baseline[i])
	}
	revProfiles := make([]sectionProfile, len(revised))
	for j := range revised {
		revProfiles[j] = profileSection(revised[j])
	}

	scores := make([][]float64, len(baseline))
	for i := range baseline {
		scores[i] = make([]float64, len(revised))
		for j := range revised {
			scores[i][j] = similarity(baseProfiles[i], revProfiles[j])
		}
	}

	usedB := make([]bool, len(baseline))
	usedR := make([]bool, len(revised))
	var matches []Match

	for {
		best, bi, ri := -1.0, -1, -1
		for i := range baseline {
			if usedB[i] {
				continue
			}
			for j := range revised {
				if usedR[j] {
					continue
				}
				if scores[i][j] > best {
					best, bi, ri = scores[i][j], i, j
				}
			}
		}
		if bi < 0 || best < m.cfg.MinScore {
			break
		}

		// Near-tied runner-up on either side means the winner was an
		// ambiguous pick; the match still proceeds but is flagged for
		// downstream review rather than silently resolved.
		second := -1.0
		for j := range revised {
			if j != ri && !usedR[j] && scores[bi][j] > second {
				second = scores[bi][j]
			}
		}
		for i := range baseline {
			if i != bi && !usedB[i] && scores[i][ri] > second {
				second = scores[i][ri]
			}
		}
		tie := second >= m.cfg.MinScore && best-second < m.cfg.TieEpsilon

		matches = append(matches, Match{
			Baseline:        &baseline[bi],
			Revised:         &revised[ri],
			BaselineIndex:   bi,
			RevisedIndex:    ri,
			Confidence:      best,
			TieBreakApplied: tie,
		})
		usedB[bi] = true
		usedR[ri] = true
	}

	for i := range baseline {
		if !usedB[i] {
			matches = append(matches, Match{
				Baseline:      &baseline[i],
				BaselineIndex: i,
				RevisedIndex:  -1,
			})
		}
	}
	for j := range revised {
		if !usedR[j] {
			matches = append(matches, Match{
				Revised:       &revised[j],
				BaselineIndex: -1,
				RevisedIndex:  j,
			})
		}
	}

	return matches
}

type sectionProfile struct {
	titleTokens map[string]int
	titleLen    int
	bodyTokens  map[string]int
	bodyLen     int
}

func profileSection(s Section) sectionProfile {
	titleTokens, titleLen := tokenCounts(s.Title)
	bodyTokens, bodyLen := tokenCounts(s.Text)
	return sectionProfile{titleTokens, titleLen, bodyTokens, bodyLen}
}

// similarity scores a candidate pair in [0,1]. Titles are shorter and more
// stable across edits than bodies, so a title match carries more weight
// whenever both sides have one.
func similarity(a, b sectionProfile) float64 {
	body := diceCoefficient(a.bodyTokens, a.bodyLen, b.bodyTokens, b.bodyLen)
	if a.titleLen == 0 || b.titleLen == 0 {
		return body
	}
	title := diceCoefficient(a.titleTokens, a.titleLen, b.titleTokens, b.titleLen)
	return 0.6*title + 0.4*body
}

// diceCoefficient is the Sørensen–Dice overlap of two token multisets.
func diceCoefficient(a map[string]int, lenA int, b map[string]int, lenB int) float64 {
	if lenA+lenB == 0 {
		return 0
	}
	overlap := 0
	for tok, na := range a {
		if nb, ok := b[tok]; ok {
			if nb < na {
				overlap += nb
			} else {
				overlap += na
			}
		}
	}
	return 2 * float64(overlap) / float64(lenA+lenB)
}

func tokenCounts(text string) (map[string]int, int) {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	counts := make(map[string]int, len(fields))
	for _, f := range fields {
		counts[f]++
	}
	return counts, len(fields)
}
