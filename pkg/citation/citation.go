// Package citation resolves case citations recognised by the pattern rules
// into caselaw references carrying the corrected citation and its link.
package citation

import (
	"fmt"
	"sort"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/document"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/pattern"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/ukleg"
)

// RuleSet recognises citation spans and looks up the rule behind each one.
// *pattern.Registry satisfies it.
type RuleSet interface {
	Recognize(text string) []pattern.Match
	Get(ruleID string) (*pattern.Rule, bool)
}

var _ RuleSet = (*pattern.Registry)(nil)

// Resolver turns recognised citation spans into caselaw references.
// Safe for concurrent use when the RuleSet is.
type Resolver struct {
	rules RuleSet
}

// NewResolver creates a resolver over the given rules.
func NewResolver(rules RuleSet) *Resolver {
	return &Resolver{rules: rules}
}

// Resolve finds the case citations in every paragraph. Citations already
// inside markup are skipped. Of overlapping matches the higher priority
// rule wins, then the longer span. A match that cannot be linked is
// dropped.
func (resolver *Resolver) Resolve(paragraphs []document.Paragraph) []reference.Caselaw {
	var caselawRefs []reference.Caselaw
	for _, paragraph := range paragraphs {
		protected := document.MarkupRanges(paragraph.Text)

		var candidates []pattern.Match
		for _, match := range resolver.rules.Recognize(paragraph.Text) {
			if !document.InsideMarkup(protected, match.Start, match.End) {
				candidates = append(candidates, match)
			}
		}

		for _, match := range deduplicateMatches(candidates) {
			caselawRef, err := resolver.resolveMatch(paragraph.Index, match)
			if err != nil {
				continue
			}
			caselawRefs = append(caselawRefs, caselawRef)
		}
	}
	return caselawRefs
}

func (resolver *Resolver) resolveMatch(paragraphIndex int, match pattern.Match) (reference.Caselaw, error) {
	rule, ok := resolver.rules.Get(match.RuleID)
	if !ok {
		return reference.Caselaw{}, fmt.Errorf("rule %q not registered", match.RuleID)
	}

	citationURI := rule.URIFor(match)
	if citationURI == "" {
		if !rule.Neutral {
			return reference.Caselaw{}, fmt.Errorf("rule %q has no uri template", rule.ID)
		}
		var err error
		citationURI, err = ukleg.CaseLawURI(match.Groups["court"], match.Groups["year"], match.Groups["number"], match.Groups["division"])
		if err != nil {
			return reference.Caselaw{}, fmt.Errorf("linking %q: %w", match.Text, err)
		}
	}

	return reference.Caselaw{
		Match: reference.Location{
			Paragraph: paragraphIndex,
			Start:     match.Start,
			End:       match.End,
			Text:      match.Text,
		},
		RuleID:    rule.ID,
		Corrected: rule.CanonicalFor(match),
		Year:      match.Groups["year"],
		URI:       citationURI,
		IsNeutral: rule.Neutral,
	}, nil
}

// deduplicateMatches keeps one match per overlapping cluster: the higher
// priority, then the longer span, then the earlier one. The result is
// ordered by start.
func deduplicateMatches(matches []pattern.Match) []pattern.Match {
	if len(matches) == 0 {
		return matches
	}

	deduplicated := make([]pattern.Match, 0, len(matches))
	for _, candidate := range matches {
		overlapping := false
		for existingIndex, existing := range deduplicated {
			if candidate.Overlaps(existing) {
				if outranks(candidate, existing) {
					deduplicated[existingIndex] = candidate
				}
				overlapping = true
				break
			}
		}
		if !overlapping {
			deduplicated = append(deduplicated, candidate)
		}
	}

	sort.SliceStable(deduplicated, func(i, j int) bool {
		return deduplicated[i].Start < deduplicated[j].Start
	})
	return deduplicated
}

func outranks(candidate, existing pattern.Match) bool {
	if candidate.Priority != existing.Priority {
		return candidate.Priority > existing.Priority
	}
	return candidate.End-candidate.Start > existing.End-existing.Start
}
