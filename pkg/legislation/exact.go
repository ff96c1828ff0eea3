package legislation

import (
	"fmt"
	"strings"

	"github.com/coregx/ahocorasick"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

// ExactConfidence is the confidence of a literal title match.
const ExactConfidence = 100

// exactMatcher finds literal, case-sensitive, whole-token title matches with
// a single Aho–Corasick pass per paragraph.
type exactMatcher struct {
	automaton        *ahocorasick.Automaton
	patterns         []string
	entriesByPattern [][]entry
}

// newExactMatcher builds the automaton over the titles of entries. It
// returns nil when there is nothing to match.
func newExactMatcher(entries []entry) (*exactMatcher, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	matcher := &exactMatcher{}
	patternIndex := make(map[string]int)
	for _, tableEntry := range entries {
		title := tableEntry.record.Title
		index, exists := patternIndex[title]
		if !exists {
			index = len(matcher.patterns)
			patternIndex[title] = index
			matcher.patterns = append(matcher.patterns, title)
			matcher.entriesByPattern = append(matcher.entriesByPattern, nil)
		}
		matcher.entriesByPattern[index] = append(matcher.entriesByPattern[index], tableEntry)
	}

	automaton, err := ahocorasick.NewBuilder().
		AddStrings(matcher.patterns).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building title automaton: %w", err)
	}
	matcher.automaton = automaton
	return matcher, nil
}

// find returns one candidate per (title record, occurrence) in the paragraph.
// Occurrences that start or end inside a token are ignored.
func (matcher *exactMatcher) find(paragraph token.Tokenized) []Candidate {
	if matcher == nil || len(paragraph.Tokens) == 0 {
		return nil
	}

	tokenStarts := make(map[int]bool, len(paragraph.Tokens))
	tokenEnds := make(map[int]bool, len(paragraph.Tokens))
	for _, paragraphToken := range paragraph.Tokens {
		tokenStarts[paragraphToken.Start] = true
		tokenEnds[paragraphToken.End] = true
	}

	var candidates []Candidate
	for _, automatonMatch := range matcher.automaton.FindAllOverlapping([]byte(paragraph.Text)) {
		matchStart, matchEnd := automatonMatch.Start, automatonMatch.End
		if !tokenStarts[matchStart] || !tokenEnds[matchEnd] {
			continue
		}
		matchedText := paragraph.Text[matchStart:matchEnd]
		if strings.ContainsAny(matchedText, "<>") {
			continue
		}
		for _, tableEntry := range matcher.entriesByPattern[automatonMatch.PatternID] {
			candidates = append(candidates, Candidate{
				Record: tableEntry.record,
				Match: reference.Location{
					Paragraph: paragraph.Index,
					Start:     matchStart,
					End:       matchEnd,
					Text:      matchedText,
				},
				Confidence: ExactConfidence,
			})
		}
	}

	return candidates
}
