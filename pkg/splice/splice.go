// Package splice writes resolved references back into paragraph text.
//
// Positional replacements (legislation, oblique) are applied at the offsets
// they were detected at, against the original paragraph text. Literal
// replacements (abbreviation, caselaw) substitute every unwrapped,
// whole-word occurrence of their text. Text inside an existing tag or a
// <ref>/<abbr> element is never rewritten, so splicing the same list over
// its own output changes nothing.
package splice

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/document"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
)

// OverlapError reports two positional replacements in one paragraph whose
// spans intersect.
type OverlapError struct {
	Paragraph int
	First     reference.Replacement
	Second    reference.Replacement
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("paragraph %d: replacement %q at %d overlaps %q at %d",
		e.Paragraph, e.Second.Text, e.Second.Position, e.First.Text, e.First.Position)
}

// Apply splices replacements into the paragraphs they belong to and returns
// the rewritten text of every paragraph that changed, keyed by paragraph
// index. Replacements for unknown paragraphs are ignored.
func Apply(paragraphs []document.Paragraph, replacements []reference.Replacement) (map[int]string, error) {
	grouped := make(map[int][]reference.Replacement)
	for _, replacement := range replacements {
		grouped[replacement.Paragraph] = append(grouped[replacement.Paragraph], replacement)
	}

	changed := make(map[int]string)
	for _, paragraph := range paragraphs {
		paragraphReplacements := grouped[paragraph.Index]
		if len(paragraphReplacements) == 0 {
			continue
		}
		splicedText, err := Paragraph(paragraph.Text, paragraphReplacements)
		if err != nil {
			return nil, err
		}
		if splicedText != paragraph.Text {
			changed[paragraph.Index] = splicedText
		}
	}
	return changed, nil
}

// Paragraph splices one paragraph's replacements into text. Positional
// replacements go first, then literal ones, longest text first.
func Paragraph(text string, replacements []reference.Replacement) (string, error) {
	var positional, literal []reference.Replacement
	for _, replacement := range replacements {
		if replacement.Text == "" {
			continue
		}
		if replacement.Mode == reference.Literal {
			literal = append(literal, replacement)
		} else {
			positional = append(positional, replacement)
		}
	}

	splicedText, err := applyPositional(text, positional)
	if err != nil {
		return "", err
	}
	return applyLiteral(splicedText, literal), nil
}

// applyPositional validates that the replacements are disjoint and applies
// them right to left so earlier offsets stay valid. A replacement whose text
// no longer sits at its position, or that falls inside markup, is skipped.
func applyPositional(text string, positional []reference.Replacement) (string, error) {
	if len(positional) == 0 {
		return text, nil
	}

	sorted := make([]reference.Replacement, len(positional))
	copy(sorted, positional)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].End() < sorted[j].End()
	})

	for replacementIndex := 1; replacementIndex < len(sorted); replacementIndex++ {
		previous := sorted[replacementIndex-1]
		current := sorted[replacementIndex]
		if current.Position < previous.End() {
			return "", &OverlapError{Paragraph: current.Paragraph, First: previous, Second: current}
		}
	}

	protected := document.MarkupRanges(text)
	splicedText := text
	for replacementIndex := len(sorted) - 1; replacementIndex >= 0; replacementIndex-- {
		replacement := sorted[replacementIndex]
		start, end := replacement.Position, replacement.End()
		if start < 0 || end > len(text) || text[start:end] != replacement.Text {
			continue
		}
		if document.InsideMarkup(protected, start, end) {
			continue
		}
		splicedText = splicedText[:start] + replacement.Markup + splicedText[end:]
	}
	return splicedText, nil
}

// applyLiteral substitutes each distinct literal text once per occurrence.
// When two replacements share a text the first one's markup wins.
func applyLiteral(text string, literal []reference.Replacement) string {
	if len(literal) == 0 {
		return text
	}

	seenTexts := make(map[string]bool)
	distinct := make([]reference.Replacement, 0, len(literal))
	for _, replacement := range literal {
		if seenTexts[replacement.Text] {
			continue
		}
		seenTexts[replacement.Text] = true
		distinct = append(distinct, replacement)
	}
	sort.SliceStable(distinct, func(i, j int) bool {
		return len(distinct[i].Text) > len(distinct[j].Text)
	})

	splicedText := text
	for _, replacement := range distinct {
		splicedText = substitute(splicedText, replacement.Text, replacement.Markup)
	}
	return splicedText
}

// substitute replaces whole-word occurrences of target that are outside
// markup.
func substitute(text, target, markup string) string {
	if !strings.Contains(text, target) {
		return text
	}

	protected := document.MarkupRanges(text)
	var rebuilt strings.Builder
	copiedUpTo := 0
	searchFrom := 0
	for searchFrom <= len(text)-len(target) {
		offset := strings.Index(text[searchFrom:], target)
		if offset < 0 {
			break
		}
		start := searchFrom + offset
		end := start + len(target)
		if !onWordBoundary(text, start, end) || document.InsideMarkup(protected, start, end) {
			searchFrom = start + 1
			continue
		}
		rebuilt.WriteString(text[copiedUpTo:start])
		rebuilt.WriteString(markup)
		copiedUpTo = end
		searchFrom = end
	}
	if copiedUpTo == 0 {
		return text
	}
	rebuilt.WriteString(text[copiedUpTo:])
	return rebuilt.String()
}

// onWordBoundary reports whether text[start:end] is not glued to a
// neighbouring letter or digit. Edges of the target that are themselves
// punctuation need no boundary.
func onWordBoundary(text string, start, end int) bool {
	firstRune, _ := utf8.DecodeRuneInString(text[start:end])
	if isWordRune(firstRune) && start > 0 {
		previousRune, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(previousRune) {
			return false
		}
	}
	lastRune, _ := utf8.DecodeLastRuneInString(text[start:end])
	if isWordRune(lastRune) && end < len(text) {
		nextRune, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(nextRune) {
			return false
		}
	}
	return true
}

func isWordRune(character rune) bool {
	return unicode.IsLetter(character) || unicode.IsDigit(character)
}
