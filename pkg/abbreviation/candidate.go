// Package abbreviation pairs short-form abbreviations with the long forms
// that define them and finds every later use of a confirmed short form.
//
// Pairing follows the Schwartz–Hearst character alignment, scanned right to
// left, with two adjustments for legal text: digits in the short form always
// match (so "CA 2006" aligns against "Companies Act 2006") and the first
// short-form character must land on a word start.
package abbreviation

import (
	"unicode"
	"unicode/utf8"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

// Layout says where the short form sits relative to the parenthetical.
type Layout string

const (
	// ShortInside: Companies Act 2006 ("CA 2006").
	ShortInside Layout = "short_inside"
	// LongInside: "CA 2006" (Companies Act 2006).
	LongInside Layout = "long_inside"
)

// Options bounds candidate generation.
type Options struct {
	// MaxParentheticalTokens rejects parentheticals with more inner tokens.
	MaxParentheticalTokens int `yaml:"max_parenthetical_tokens"`

	// MinShortTokenLength and MaxShortTokenLength bound every short-form token
	// in the short-inside layout.
	MinShortTokenLength int `yaml:"min_short_token_length"`
	MaxShortTokenLength int `yaml:"max_short_token_length"`

	// LongInsideMinTokens is the inner token count above which a
	// parenthetical is read as holding the long form.
	LongInsideMinTokens int `yaml:"long_inside_min_tokens"`
}

// DefaultOptions returns the standard candidate bounds.
func DefaultOptions() Options {
	return Options{
		MaxParentheticalTokens: 8,
		MinShortTokenLength:    2,
		MaxShortTokenLength:    10,
		LongInsideMinTokens:    3,
	}
}

// Candidate is a (long form, short form) pair proposed by the bracket
// pattern, before alignment.
type Candidate struct {
	Paragraph int        `json:"paragraph"`
	Layout    Layout     `json:"layout"`
	LongForm  token.Span `json:"long_form"`
	ShortForm token.Span `json:"short_form"`
}

// Candidates finds parenthetical abbreviation definitions in one paragraph.
func Candidates(paragraph token.Tokenized, options Options) []Candidate {
	var candidates []Candidate
	tokens := paragraph.Tokens

	for openIndex := 0; openIndex < len(tokens); openIndex++ {
		if tokens[openIndex].Text != "(" {
			continue
		}
		closeIndex := matchingParenthesis(tokens, openIndex)
		if closeIndex < 0 {
			continue
		}

		innerCount := closeIndex - openIndex - 1
		if innerCount == 0 || innerCount > options.MaxParentheticalTokens {
			continue
		}

		firstInner := tokens[openIndex+1]
		lastInner := tokens[closeIndex-1]
		quoted := innerCount >= 3 && quotesMatch(firstInner.Text, lastInner.Text)

		switch {
		case quoted:
			if openIndex == 0 {
				continue
			}
			shortForm := paragraph.Span(openIndex+2, closeIndex-1)
			if !shortFormFilter(shortForm, options) {
				continue
			}
			abbreviationLength := 0
			for _, shortToken := range shortForm.Tokens {
				abbreviationLength += shortToken.Len()
			}
			maxWords := min(abbreviationLength+5, abbreviationLength*2)
			longForm := paragraph.Span(max(openIndex-maxWords, 0), openIndex)
			if longForm.IsEmpty() {
				continue
			}
			candidates = append(candidates, Candidate{
				Paragraph: paragraph.Index,
				Layout:    ShortInside,
				LongForm:  longForm,
				ShortForm: shortForm,
			})

		case innerCount > options.LongInsideMinTokens:
			precedingStart := max(openIndex-2, 0)
			preceding := tokens[precedingStart:openIndex]
			if !containsQuote(preceding) {
				continue
			}
			shortStart, shortEnd := -1, -1
			for offset, precedingToken := range preceding {
				if isQuote(precedingToken.Text) {
					continue
				}
				if shortStart < 0 {
					shortStart = precedingStart + offset
				}
				shortEnd = precedingStart + offset + 1
			}
			if shortStart < 0 {
				continue
			}
			candidates = append(candidates, Candidate{
				Paragraph: paragraph.Index,
				Layout:    LongInside,
				LongForm:  paragraph.Span(openIndex+1, closeIndex),
				ShortForm: paragraph.Span(shortStart, shortEnd),
			})
		}
	}

	return candidates
}

// matchingParenthesis returns the index of the ")" closing the "(" at
// openIndex, or -1 when another "(" intervenes first.
func matchingParenthesis(tokens []token.Token, openIndex int) int {
	for tokenIndex := openIndex + 1; tokenIndex < len(tokens); tokenIndex++ {
		switch tokens[tokenIndex].Text {
		case ")":
			return tokenIndex
		case "(":
			return -1
		}
	}
	return -1
}

// shortFormFilter applies the short-inside constraints: every token 2..10
// characters, at least one alphabetic token, upper-case first character and
// upper-case or numeric last character.
func shortFormFilter(shortForm token.Span, options Options) bool {
	if shortForm.IsEmpty() || shortForm.HasMarkup() {
		return false
	}

	hasAlpha := false
	for _, shortToken := range shortForm.Tokens {
		tokenLength := shortToken.Len()
		if tokenLength < options.MinShortTokenLength || tokenLength > options.MaxShortTokenLength {
			return false
		}
		if shortToken.IsAlpha {
			hasAlpha = true
		}
	}
	if !hasAlpha {
		return false
	}

	firstRune, _ := utf8.DecodeRuneInString(shortForm.Tokens[0].Text)
	lastToken := shortForm.Tokens[len(shortForm.Tokens)-1].Text
	lastRune, _ := utf8.DecodeLastRuneInString(lastToken)
	if !unicode.IsUpper(firstRune) {
		return false
	}
	return unicode.IsUpper(lastRune) || unicode.IsDigit(lastRune)
}

type quoteFamily int

const (
	notQuote quoteFamily = iota
	doubleQuote
	singleQuote
)

func familyOf(text string) quoteFamily {
	switch text {
	case `"`, "“", "”", "&quot;":
		return doubleQuote
	case "'", "‘", "’", "&apos;":
		return singleQuote
	}
	return notQuote
}

func isQuote(text string) bool {
	return familyOf(text) != notQuote
}

// quotesMatch reports whether open and close are quotation marks of the same
// family.
func quotesMatch(open, close string) bool {
	openFamily := familyOf(open)
	return openFamily != notQuote && openFamily == familyOf(close)
}

func containsQuote(tokens []token.Token) bool {
	for _, candidateToken := range tokens {
		if isQuote(candidateToken.Text) {
			return true
		}
	}
	return false
}
