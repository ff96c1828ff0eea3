package legislation

import (
	"sort"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
)

// Candidate is a possible legislation reference before overlap resolution.
type Candidate struct {
	Record     Record             `json:"record"`
	Match      reference.Location `json:"match"`
	Confidence int                `json:"confidence"`
}

// ResolveOverlaps compares every pair of candidates. For each colliding pair
// (same paragraph, nested or intersecting spans) the lower confidence is
// marked; on equal confidence the earlier candidate is marked. All marks are
// applied together after the full comparison, so in a chain of equally
// scored candidates only the last one survives. Survivors that repeat the
// same title and span are collapsed.
func ResolveOverlaps(candidates []Candidate) []Candidate {
	eliminated := make([]bool, len(candidates))
	for firstIndex := 0; firstIndex < len(candidates); firstIndex++ {
		for secondIndex := firstIndex + 1; secondIndex < len(candidates); secondIndex++ {
			if !collide(candidates[firstIndex].Match, candidates[secondIndex].Match) {
				continue
			}
			if candidates[firstIndex].Confidence > candidates[secondIndex].Confidence {
				eliminated[secondIndex] = true
			} else {
				eliminated[firstIndex] = true
			}
		}
	}

	type titleSpan struct {
		title      string
		paragraph  int
		start, end int
	}
	seen := make(map[titleSpan]bool)
	var survivors []Candidate
	for candidateIndex, candidate := range candidates {
		if eliminated[candidateIndex] {
			continue
		}
		key := titleSpan{candidate.Record.Title, candidate.Match.Paragraph, candidate.Match.Start, candidate.Match.End}
		if seen[key] {
			continue
		}
		seen[key] = true
		survivors = append(survivors, candidate)
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Match.Before(survivors[j].Match)
	})
	return survivors
}

func collide(first, second reference.Location) bool {
	return first.Contains(second) || second.Contains(first) || first.Overlaps(second)
}
