// Package oblique links anaphoric legislation mentions ("the Act",
// "this Act", "the 1996 Act") to the legislation reference they stand for.
//
// Paragraphs are processed in document order and antecedents accumulate as
// they are passed, so a title named later in the judgment is never used for
// an earlier mention.
package oblique

import (
	"regexp"
	"sort"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/document"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
)

var (
	numberedActPattern = regexp.MustCompile(`\b(?:[Tt]he|[Tt]his|[Tt]hat)\s(\d{4})\sAct\b`)
	actPattern         = regexp.MustCompile(`\b(?:[Tt]he|[Tt]his|[Tt]hat)\sAct\b`)
	yearPattern        = regexp.MustCompile(`\b(\d{4})\b`)
)

// Antecedent is a legislation reference an oblique mention may point at.
type Antecedent struct {
	Location  reference.Location `json:"location"`
	Year      string             `json:"year"`
	Href      string             `json:"href"`
	Canonical string             `json:"canonical"`
}

// FromLegislation converts resolved legislation references to antecedents.
func FromLegislation(legislationRefs []reference.Legislation) []Antecedent {
	antecedents := make([]Antecedent, 0, len(legislationRefs))
	for _, legislationRef := range legislationRefs {
		year := legislationRef.Year
		if year == "" {
			year = extractYear(legislationRef.Match.Text, legislationRef.Canonical)
		}
		antecedents = append(antecedents, Antecedent{
			Location:  legislationRef.Match,
			Year:      year,
			Href:      legislationRef.Href,
			Canonical: legislationRef.Canonical,
		})
	}
	return antecedents
}

// FromEnriched reads the legislation references already marked up in the
// paragraphs. A reference missing href or uk:canonical stops the document
// with a *document.MalformedReferenceError.
func FromEnriched(paragraphs []document.Paragraph) ([]Antecedent, error) {
	var antecedents []Antecedent
	for _, paragraph := range paragraphs {
		existingRefs, err := document.LegislationRefs(paragraph)
		if err != nil {
			return nil, err
		}
		for _, existingRef := range existingRefs {
			antecedents = append(antecedents, Antecedent{
				Location: reference.Location{
					Paragraph: existingRef.Paragraph,
					Start:     existingRef.Start,
					End:       existingRef.End,
					Text:      existingRef.Text,
				},
				Year:      extractYear(existingRef.Text, existingRef.Canonical),
				Href:      existingRef.Href,
				Canonical: existingRef.Canonical,
			})
		}
	}
	return antecedents, nil
}

// extractYear returns the last four-digit number in the first source that
// has one.
func extractYear(sources ...string) string {
	for _, source := range sources {
		yearMatches := yearPattern.FindAllStringSubmatch(source, -1)
		if len(yearMatches) > 0 {
			return yearMatches[len(yearMatches)-1][1]
		}
	}
	return ""
}

// mention is an oblique phrase found in a paragraph.
type mention struct {
	start, end int
	text       string
	year       string
}

// Resolve scans paragraphs in order and links every oblique mention to an
// antecedent. A numbered mention takes the first accumulated antecedent
// (current paragraph included) with the same year. An un-numbered mention
// takes the antecedent closest before it in reading order. Mentions without
// an antecedent are dropped.
func Resolve(paragraphs []document.Paragraph, antecedents []Antecedent) []reference.Oblique {
	byParagraph := make(map[int][]Antecedent)
	for _, antecedent := range antecedents {
		paragraphIndex := antecedent.Location.Paragraph
		byParagraph[paragraphIndex] = append(byParagraph[paragraphIndex], antecedent)
	}
	for paragraphIndex := range byParagraph {
		paragraphAntecedents := byParagraph[paragraphIndex]
		sort.SliceStable(paragraphAntecedents, func(i, j int) bool {
			return paragraphAntecedents[i].Location.Start < paragraphAntecedents[j].Location.Start
		})
	}

	orderedParagraphs := make([]document.Paragraph, len(paragraphs))
	copy(orderedParagraphs, paragraphs)
	sort.SliceStable(orderedParagraphs, func(i, j int) bool {
		return orderedParagraphs[i].Index < orderedParagraphs[j].Index
	})

	var obliqueRefs []reference.Oblique
	var accumulated []Antecedent

	for _, paragraph := range orderedParagraphs {
		paragraphAntecedents := byParagraph[paragraph.Index]
		accumulated = append(accumulated, paragraphAntecedents...)
		protected := document.MarkupRanges(paragraph.Text)

		for _, found := range detectMentions(paragraph.Text) {
			if document.InsideMarkup(protected, found.start, found.end) ||
				overlapsAntecedent(paragraphAntecedents, found) {
				continue
			}

			var antecedent *Antecedent
			if found.year != "" {
				antecedent = firstWithYear(accumulated, found.year)
			} else {
				antecedent = latestBefore(accumulated, paragraph.Index, found.start)
			}
			if antecedent == nil {
				continue
			}

			obliqueRefs = append(obliqueRefs, reference.Oblique{
				Match: reference.Location{
					Paragraph: paragraph.Index,
					Start:     found.start,
					End:       found.end,
					Text:      found.text,
				},
				Numbered:   found.year != "",
				Href:       antecedent.Href,
				Canonical:  antecedent.Canonical,
				Antecedent: antecedent.Location,
			})
		}
	}

	return obliqueRefs
}

// detectMentions returns numbered and un-numbered mentions ordered by start.
func detectMentions(text string) []mention {
	var mentions []mention
	for _, matchIndices := range numberedActPattern.FindAllStringSubmatchIndex(text, -1) {
		mentions = append(mentions, mention{
			start: matchIndices[0],
			end:   matchIndices[1],
			text:  text[matchIndices[0]:matchIndices[1]],
			year:  text[matchIndices[2]:matchIndices[3]],
		})
	}
	for _, matchIndices := range actPattern.FindAllStringIndex(text, -1) {
		mentions = append(mentions, mention{
			start: matchIndices[0],
			end:   matchIndices[1],
			text:  text[matchIndices[0]:matchIndices[1]],
		})
	}
	sort.SliceStable(mentions, func(i, j int) bool { return mentions[i].start < mentions[j].start })
	return mentions
}

func overlapsAntecedent(paragraphAntecedents []Antecedent, found mention) bool {
	for _, antecedent := range paragraphAntecedents {
		if found.start < antecedent.Location.End && antecedent.Location.Start < found.end {
			return true
		}
	}
	return false
}

func firstWithYear(accumulated []Antecedent, year string) *Antecedent {
	for antecedentIndex := range accumulated {
		if accumulated[antecedentIndex].Year == year {
			return &accumulated[antecedentIndex]
		}
	}
	return nil
}

// latestBefore returns the antecedent with the greatest (paragraph, start)
// strictly less than (paragraphIndex, position).
func latestBefore(accumulated []Antecedent, paragraphIndex, position int) *Antecedent {
	for antecedentIndex := len(accumulated) - 1; antecedentIndex >= 0; antecedentIndex-- {
		location := accumulated[antecedentIndex].Location
		if location.Paragraph < paragraphIndex ||
			(location.Paragraph == paragraphIndex && location.Start < position) {
			return &accumulated[antecedentIndex]
		}
	}
	return nil
}
