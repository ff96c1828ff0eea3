package abbreviation

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/document"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

// Pair is a confirmed abbreviation definition.
type Pair struct {
	LongForm    string   `json:"long_form"`
	ShortForm   string   `json:"short_form"`
	ShortTokens []string `json:"short_tokens"`
	Paragraph   int      `json:"paragraph"`
}

// Resolver finds abbreviation definitions in a document and every use of the
// confirmed short forms. A Resolver holds no per-document state and is safe
// for concurrent use.
type Resolver struct {
	options Options
}

// NewResolver creates a resolver with the given candidate bounds.
func NewResolver(options Options) *Resolver {
	return &Resolver{options: options}
}

// Pairs aligns every candidate in document order and keeps the pairs whose
// long and short forms are both unseen. A pair that repeats an already
// confirmed long or short form is discarded, not merged.
func (resolver *Resolver) Pairs(paragraphs []token.Tokenized) []Pair {
	var confirmedPairs []Pair
	seenLongForms := make(map[string]bool)
	seenShortForms := make(map[string]bool)

	for _, paragraph := range paragraphs {
		for _, candidate := range Candidates(paragraph, resolver.options) {
			longSpan, ok := FindAbbreviation(candidate.LongForm, candidate.ShortForm)
			if !ok {
				continue
			}

			longForm := spanText(longSpan)
			shortTokens := tokenTexts(candidate.ShortForm)
			shortKey := strings.Join(shortTokens, " ")
			if seenLongForms[longForm] || seenShortForms[shortKey] {
				continue
			}
			seenLongForms[longForm] = true
			seenShortForms[shortKey] = true

			confirmedPairs = append(confirmedPairs, Pair{
				LongForm:    longForm,
				ShortForm:   spanText(candidate.ShortForm),
				ShortTokens: shortTokens,
				Paragraph:   paragraph.Index,
			})
		}
	}

	return confirmedPairs
}

// Resolve returns one detection per occurrence of each confirmed short form
// anywhere in the document, ordered by paragraph then position.
func (resolver *Resolver) Resolve(paragraphs []token.Tokenized) []reference.Abbreviation {
	return Propagate(paragraphs, resolver.Pairs(paragraphs))
}

// Propagate scans every paragraph for the exact token sequence of each
// confirmed short form. Occurrences already inside an <abbr> or <ref>
// element are skipped. It is a pure function of its inputs.
func Propagate(paragraphs []token.Tokenized, pairs []Pair) []reference.Abbreviation {
	var abbreviations []reference.Abbreviation

	// Longer short forms first so "CA 2006" wins over "CA".
	orderedPairs := make([]Pair, len(pairs))
	copy(orderedPairs, pairs)
	sort.SliceStable(orderedPairs, func(i, j int) bool {
		return len(orderedPairs[i].ShortTokens) > len(orderedPairs[j].ShortTokens)
	})

	for _, paragraph := range paragraphs {
		claimed := make([]bool, len(paragraph.Tokens))
		protected := document.MarkupRanges(paragraph.Text)

		for _, pair := range orderedPairs {
			sequenceLength := len(pair.ShortTokens)
			for startIndex := 0; startIndex+sequenceLength <= len(paragraph.Tokens); startIndex++ {
				if !sequenceAt(paragraph.Tokens, startIndex, pair.ShortTokens) ||
					anyClaimed(claimed, startIndex, startIndex+sequenceLength) {
					continue
				}
				occurrence := paragraph.Span(startIndex, startIndex+sequenceLength)
				if occurrence.HasMarkup() || !onWordBoundary(paragraph.Text, occurrence) ||
					document.InsideMarkup(protected, occurrence.Start, occurrence.End) {
					continue
				}
				for claimIndex := startIndex; claimIndex < startIndex+sequenceLength; claimIndex++ {
					claimed[claimIndex] = true
				}
				abbreviations = append(abbreviations, reference.Abbreviation{
					Match: reference.Location{
						Paragraph: paragraph.Index,
						Start:     occurrence.Start,
						End:       occurrence.End,
						Text:      occurrence.Text,
					},
					ShortForm: pair.ShortForm,
					LongForm:  pair.LongForm,
				})
			}
		}
	}

	sort.SliceStable(abbreviations, func(i, j int) bool {
		return abbreviations[i].Match.Before(abbreviations[j].Match)
	})
	return abbreviations
}

func sequenceAt(tokens []token.Token, startIndex int, sequence []string) bool {
	for offset, expected := range sequence {
		if tokens[startIndex+offset].Text != expected {
			return false
		}
	}
	return true
}

func anyClaimed(claimed []bool, from, to int) bool {
	for claimIndex := from; claimIndex < to; claimIndex++ {
		if claimed[claimIndex] {
			return true
		}
	}
	return false
}

// onWordBoundary rejects occurrences glued to neighbouring letters or digits.
func onWordBoundary(text string, occurrence token.Span) bool {
	if occurrence.Start > 0 {
		previousRune, _ := utf8.DecodeLastRuneInString(text[:occurrence.Start])
		if isAlphanumeric(previousRune) {
			return false
		}
	}
	if occurrence.End < len(text) {
		nextRune, _ := utf8.DecodeRuneInString(text[occurrence.End:])
		if isAlphanumeric(nextRune) {
			return false
		}
	}
	return true
}

// spanText prefers the source text and falls back to the joined words when
// the span crosses markup.
func spanText(span token.Span) string {
	if span.HasMarkup() {
		return span.Words()
	}
	return span.Text
}

func tokenTexts(span token.Span) []string {
	texts := make([]string, len(span.Tokens))
	for tokenIndex, spanToken := range span.Tokens {
		texts[tokenIndex] = spanToken.Text
	}
	return texts
}
