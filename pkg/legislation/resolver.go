package legislation

import (
	"sort"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

// Options tunes fuzzy matching.
type Options struct {
	// TokenFloor is the minimum score of the initial window alignment.
	TokenFloor int `yaml:"token_floor"`

	// OverallFloor is the minimum score after boundary optimisation.
	OverallFloor int `yaml:"overall_floor"`

	// WindowPadding is added to the title length (in tokens) to size the
	// window searched before each "Act <year>" anchor.
	WindowPadding int `yaml:"window_padding"`
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		TokenFloor:    70,
		OverallFloor:  90,
		WindowPadding: 5,
	}
}

// Resolver detects legislation references in a document against a Table.
// It holds no per-document state and is safe for concurrent use.
type Resolver struct {
	table   *Table
	options Options
}

// NewResolver creates a resolver over table.
func NewResolver(table *Table, options Options) *Resolver {
	return &Resolver{table: table, options: options}
}

// Candidates runs year filtering, exact matching and fuzzy matching and
// returns every candidate in production order: exact matches first, then
// fuzzy matches, each in document order.
func (resolver *Resolver) Candidates(paragraphs []token.Tokenized) ([]Candidate, error) {
	years := Years(paragraphs)
	if len(years) == 0 || resolver.table == nil || resolver.table.Len() == 0 {
		return nil, nil
	}

	var exactEntries, fuzzyEntries []entry
	for _, tableEntry := range resolver.table.entriesForYears(years) {
		if tableEntry.record.ForFuzzy {
			fuzzyEntries = append(fuzzyEntries, tableEntry)
		} else {
			exactEntries = append(exactEntries, tableEntry)
		}
	}

	exact, err := newExactMatcher(exactEntries)
	if err != nil {
		return nil, err
	}
	fuzzy := newFuzzyMatcher(fuzzyEntries, resolver.options)

	var exactCandidates, fuzzyCandidates []Candidate
	for _, paragraph := range paragraphs {
		paragraphExact := exact.find(paragraph)
		sort.SliceStable(paragraphExact, func(i, j int) bool {
			if paragraphExact[i].Match.Start != paragraphExact[j].Match.Start {
				return paragraphExact[i].Match.Start < paragraphExact[j].Match.Start
			}
			return paragraphExact[i].Match.End < paragraphExact[j].Match.End
		})
		exactCandidates = append(exactCandidates, paragraphExact...)
		fuzzyCandidates = append(fuzzyCandidates, fuzzy.find(paragraph)...)
	}

	return append(exactCandidates, fuzzyCandidates...), nil
}

// Resolve returns one reference per surviving (title, span), ordered by
// paragraph then position.
func (resolver *Resolver) Resolve(paragraphs []token.Tokenized) ([]reference.Legislation, error) {
	candidates, err := resolver.Candidates(paragraphs)
	if err != nil {
		return nil, err
	}

	survivors := ResolveOverlaps(candidates)
	legislationRefs := make([]reference.Legislation, 0, len(survivors))
	for _, survivor := range survivors {
		legislationRefs = append(legislationRefs, reference.Legislation{
			Match:      survivor.Match,
			Title:      survivor.Record.Title,
			Year:       survivor.Record.YearText(),
			Href:       survivor.Record.Href,
			Canonical:  survivor.Record.Canonical,
			Confidence: survivor.Confidence,
		})
	}
	return legislationRefs, nil
}
