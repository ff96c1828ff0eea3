package abbreviation

import (
	"unicode"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

// FindAbbreviation aligns the short form against the long form candidate,
// walking both right to left. It returns the part of longFormCandidate that
// defines the short form, or false when the characters cannot be aligned.
func FindAbbreviation(longFormCandidate, shortFormCandidate token.Span) (token.Span, bool) {
	longForm := []rune(longFormCandidate.Words())
	shortForm := []rune(shortFormCandidate.Words())
	if len(longForm) == 0 || len(shortForm) == 0 {
		return token.Span{}, false
	}

	longIndex := len(longForm) - 1
	shortIndex := len(shortForm) - 1

	for shortIndex >= 0 {
		currentChar := unicode.ToLower(shortForm[shortIndex])
		if !isAlphanumeric(currentChar) {
			shortIndex--
			continue
		}

		if unicode.IsDigit(currentChar) {
			// Digits align with whatever sits at the current position.
			if longIndex < 0 {
				return token.Span{}, false
			}
			if shortIndex == 0 {
				for longIndex > 0 && isAlphanumeric(longForm[longIndex-1]) {
					longIndex--
				}
			}
			longIndex--
			shortIndex--
			continue
		}

		for (longIndex >= 0 && unicode.ToLower(longForm[longIndex]) != currentChar) ||
			(shortIndex == 0 && longIndex > 0 && isAlphanumeric(longForm[longIndex-1])) {
			longIndex--
		}
		if longIndex < 0 {
			return token.Span{}, false
		}

		longIndex--
		shortIndex--
	}

	// The last decrement stepped one character before the start of the match.
	longIndex++

	accumulatedLength := 0
	for tokenIndex, longToken := range longFormCandidate.Tokens {
		accumulatedLength += longToken.Len() + 1
		if accumulatedLength > longIndex {
			return longFormCandidate.Slice(tokenIndex, longFormCandidate.Len()), true
		}
	}
	return token.Span{}, false
}

func isAlphanumeric(candidate rune) bool {
	return unicode.IsLetter(candidate) || unicode.IsDigit(candidate)
}
