package legislation

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

// TokenSortRatio scores two strings 0–100 after lower-casing, dropping
// punctuation and sorting their words, so word order does not matter.
func TokenSortRatio(first, second string) int {
	return Ratio(sortedWords(first), sortedWords(second))
}

// Ratio is the normalised indel similarity of two strings, 0–100:
// 200 * LCS / (len(first) + len(second)), rounded.
func Ratio(first, second string) int {
	firstRunes := []rune(first)
	secondRunes := []rune(second)
	totalLength := len(firstRunes) + len(secondRunes)
	if len(firstRunes) == 0 || len(secondRunes) == 0 {
		return 0
	}
	commonLength := longestCommonSubsequence(firstRunes, secondRunes)
	return int(math.Round(200 * float64(commonLength) / float64(totalLength)))
}

func sortedWords(text string) string {
	normalized := strings.ToLower(norm.NFC.String(text))
	cleaned := strings.Map(func(textRune rune) rune {
		if unicode.IsLetter(textRune) || unicode.IsDigit(textRune) {
			return textRune
		}
		return ' '
	}, normalized)
	words := strings.Fields(cleaned)
	sort.Strings(words)
	return strings.Join(words, " ")
}

// longestCommonSubsequence uses a two-row table.
func longestCommonSubsequence(first, second []rune) int {
	previousRow := make([]int, len(second)+1)
	currentRow := make([]int, len(second)+1)
	for firstIndex := 1; firstIndex <= len(first); firstIndex++ {
		for secondIndex := 1; secondIndex <= len(second); secondIndex++ {
			switch {
			case first[firstIndex-1] == second[secondIndex-1]:
				currentRow[secondIndex] = previousRow[secondIndex-1] + 1
			case previousRow[secondIndex] >= currentRow[secondIndex-1]:
				currentRow[secondIndex] = previousRow[secondIndex]
			default:
				currentRow[secondIndex] = currentRow[secondIndex-1]
			}
		}
		previousRow, currentRow = currentRow, previousRow
	}
	return previousRow[len(second)]
}

// fuzzyMatcher locates fuzzy-flagged titles through "Act <year>" anchors.
type fuzzyMatcher struct {
	entriesByYear map[string][]entry
	options       Options
}

func newFuzzyMatcher(entries []entry, options Options) *fuzzyMatcher {
	matcher := &fuzzyMatcher{
		entriesByYear: make(map[string][]entry),
		options:       options,
	}
	for _, tableEntry := range entries {
		yearText := tableEntry.record.YearText()
		matcher.entriesByYear[yearText] = append(matcher.entriesByYear[yearText], tableEntry)
	}
	return matcher
}

// find scores every fuzzy title whose year equals an anchor's year against the
// window preceding that anchor.
func (matcher *fuzzyMatcher) find(paragraph token.Tokenized) []Candidate {
	if len(matcher.entriesByYear) == 0 {
		return nil
	}

	var candidates []Candidate
	tokens := paragraph.Tokens

	for actIndex := 0; actIndex+1 < len(tokens); actIndex++ {
		yearIndex := actIndex + 1
		if tokens[actIndex].Text != "Act" || !tokens[yearIndex].IsYear {
			continue
		}

		for _, tableEntry := range matcher.entriesByYear[tokens[yearIndex].Text] {
			windowStart := max(0, yearIndex+1-(tableEntry.titleLength+matcher.options.WindowPadding))
			matchStart, confidence, ok := matcher.bestStart(paragraph, windowStart, actIndex, tableEntry)
			if !ok {
				continue
			}
			matchSpan := paragraph.Span(matchStart, yearIndex+1)
			if matchSpan.HasMarkup() {
				continue
			}
			candidates = append(candidates, Candidate{
				Record: tableEntry.record,
				Match: reference.Location{
					Paragraph: paragraph.Index,
					Start:     matchSpan.Start,
					End:       matchSpan.End,
					Text:      matchSpan.Text,
				},
				Confidence: confidence,
			})
		}
	}

	return candidates
}

// bestStart scores the act name against the window ending at actIndex. The
// initial alignment (same token count as the act name) must clear the
// per-token floor; the start boundary is then moved within the window to
// the best score, which must clear the overall floor.
func (matcher *fuzzyMatcher) bestStart(paragraph token.Tokenized, windowStart, actIndex int, tableEntry entry) (int, int, bool) {
	initialStart := max(windowStart, actIndex+1-tableEntry.nameLength)
	initialRatio := TokenSortRatio(tableEntry.actName, paragraph.Span(initialStart, actIndex+1).Words())
	if initialRatio < matcher.options.TokenFloor {
		return 0, 0, false
	}

	flex := max(1, tableEntry.nameLength/2)
	bestStart, bestRatio := initialStart, initialRatio
	for candidateStart := max(windowStart, initialStart-flex); candidateStart <= min(actIndex, initialStart+flex); candidateStart++ {
		if !startsWord(paragraph.Tokens[candidateStart]) {
			continue
		}
		candidateRatio := TokenSortRatio(tableEntry.actName, paragraph.Span(candidateStart, actIndex+1).Words())
		if candidateRatio > bestRatio {
			bestStart, bestRatio = candidateStart, candidateRatio
		}
	}

	if bestRatio < matcher.options.OverallFloor || !startsWord(paragraph.Tokens[bestStart]) {
		return 0, 0, false
	}
	return bestStart, bestRatio, true
}

func startsWord(candidate token.Token) bool {
	return !candidate.IsPunct
}
