package token

import (
	"unicode"
	"unicode/utf8"
)

// RuleTokenizer is the default Tokenizer. It splits on whitespace, emits runs
// of letters and digits as words (keeping word-internal apostrophes), emits
// every other character as its own token, keeps XML entity references whole
// and skips XML tags entirely.
type RuleTokenizer struct{}

// NewRuleTokenizer creates the default tokenizer.
func NewRuleTokenizer() *RuleTokenizer {
	return &RuleTokenizer{}
}

// Tokenize implements Tokenizer.
func (tokenizer *RuleTokenizer) Tokenize(text string) []Token {
	tokens := make([]Token, 0, len(text)/5+1)
	position := 0

	for position < len(text) {
		currentRune, runeWidth := utf8.DecodeRuneInString(text[position:])

		switch {
		case unicode.IsSpace(currentRune):
			position += runeWidth

		case currentRune == '<':
			tagEnd := indexByteFrom(text, '>', position)
			if tagEnd < 0 {
				tokens = append(tokens, newToken(text, position, position+runeWidth))
				position += runeWidth
				continue
			}
			position = tagEnd + 1

		case currentRune == '&':
			entityEnd := entityEndAt(text, position)
			if entityEnd < 0 {
				tokens = append(tokens, newToken(text, position, position+runeWidth))
				position += runeWidth
				continue
			}
			tokens = append(tokens, newToken(text, position, entityEnd))
			position = entityEnd

		case isWordRune(currentRune):
			wordEnd := wordEndAt(text, position)
			tokens = append(tokens, newToken(text, position, wordEnd))
			position = wordEnd

		default:
			tokens = append(tokens, newToken(text, position, position+runeWidth))
			position += runeWidth
		}
	}

	return tokens
}

// newToken builds a token for text[start:end] and derives its attributes.
func newToken(text string, start, end int) Token {
	tokenText := text[start:end]
	tok := Token{Text: tokenText, Start: start, End: end}

	allLetters, allDigits, asciiDigits := true, true, 0
	for _, tokenRune := range tokenText {
		if !unicode.IsLetter(tokenRune) {
			allLetters = false
		}
		if !unicode.IsDigit(tokenRune) {
			allDigits = false
		}
		if tokenRune >= '0' && tokenRune <= '9' {
			asciiDigits++
		}
	}

	tok.IsAlpha = allLetters
	tok.IsDigit = allDigits
	tok.IsYear = allDigits && asciiDigits == 4 && len(tokenText) == 4
	tok.IsPunct = !allLetters && !allDigits && !hasWordRune(tokenText)
	return tok
}

// wordEndAt returns the end offset of the word starting at start. An apostrophe
// joins the word only when it is surrounded by letters ("Lloyd's").
func wordEndAt(text string, start int) int {
	position := start
	for position < len(text) {
		currentRune, runeWidth := utf8.DecodeRuneInString(text[position:])
		if isWordRune(currentRune) {
			position += runeWidth
			continue
		}
		if isApostrophe(currentRune) && position > start && position+runeWidth < len(text) {
			previousRune, _ := utf8.DecodeLastRuneInString(text[:position])
			nextRune, _ := utf8.DecodeRuneInString(text[position+runeWidth:])
			if unicode.IsLetter(previousRune) && unicode.IsLetter(nextRune) {
				position += runeWidth
				continue
			}
		}
		break
	}
	return position
}

// entityEndAt returns the offset just past a well-formed entity reference
// starting at start ("&amp;", "&#8217;"), or -1.
func entityEndAt(text string, start int) int {
	const maxEntityLength = 12
	for position := start + 1; position < len(text) && position-start <= maxEntityLength; position++ {
		entityByte := text[position]
		if entityByte == ';' {
			if position == start+1 {
				return -1
			}
			return position + 1
		}
		if !(entityByte == '#' || entityByte >= 'a' && entityByte <= 'z' ||
			entityByte >= 'A' && entityByte <= 'Z' || entityByte >= '0' && entityByte <= '9') {
			return -1
		}
	}
	return -1
}

func indexByteFrom(text string, target byte, from int) int {
	for position := from; position < len(text); position++ {
		if text[position] == target {
			return position
		}
	}
	return -1
}

func isWordRune(candidate rune) bool {
	return unicode.IsLetter(candidate) || unicode.IsDigit(candidate)
}

func isApostrophe(candidate rune) bool {
	return candidate == '\'' || candidate == '’'
}

func hasWordRune(text string) bool {
	for _, textRune := range text {
		if isWordRune(textRune) {
			return true
		}
	}
	return false
}
