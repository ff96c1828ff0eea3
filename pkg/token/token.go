// Package token provides the token and span value types consumed by the
// enrichment engine, together with a default rule-based tokenizer for
// judgment paragraphs that may contain inline XML markup.
package token

import (
	"strings"
)

// Token is a single lexical unit of a paragraph.
// Start and End are byte offsets into the paragraph text (End exclusive).
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`

	// Attributes derived from Text.
	IsAlpha bool `json:"is_alpha"`
	IsDigit bool `json:"is_digit"`
	IsYear  bool `json:"is_year"`
	IsPunct bool `json:"is_punct"`
}

// Len returns the length of the token text in characters.
func (tok Token) Len() int {
	return len([]rune(tok.Text))
}

// Span is a contiguous run of tokens taken from one paragraph.
// Spans are values; they never share mutable state with the tokenizer.
type Span struct {
	Tokens []Token `json:"tokens"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Text   string  `json:"text"`
}

// NewSpan builds a span over tokens, deriving offsets and text from source.
// An empty token slice yields the zero span.
func NewSpan(source string, tokens []Token) Span {
	if len(tokens) == 0 {
		return Span{}
	}
	spanTokens := make([]Token, len(tokens))
	copy(spanTokens, tokens)
	spanStart := spanTokens[0].Start
	spanEnd := spanTokens[len(spanTokens)-1].End
	return Span{
		Tokens: spanTokens,
		Start:  spanStart,
		End:    spanEnd,
		Text:   source[spanStart:spanEnd],
	}
}

// Len returns the number of tokens in the span.
func (span Span) Len() int {
	return len(span.Tokens)
}

// IsEmpty reports whether the span holds no tokens.
func (span Span) IsEmpty() bool {
	return len(span.Tokens) == 0
}

// Words joins the token texts with single spaces.
func (span Span) Words() string {
	tokenTexts := make([]string, len(span.Tokens))
	for tokenIndex, tok := range span.Tokens {
		tokenTexts[tokenIndex] = tok.Text
	}
	return strings.Join(tokenTexts, " ")
}

// HasMarkup reports whether the source text covered by the span crosses an
// XML tag boundary.
func (span Span) HasMarkup() bool {
	return strings.ContainsAny(span.Text, "<>")
}

// Slice returns the span over Tokens[from:to]. The text is cut from the
// span's own text, so no reference to the paragraph source is needed.
func (span Span) Slice(from, to int) Span {
	if from < 0 {
		from = 0
	}
	if to > len(span.Tokens) {
		to = len(span.Tokens)
	}
	if from >= to {
		return Span{}
	}
	sliceTokens := make([]Token, to-from)
	copy(sliceTokens, span.Tokens[from:to])
	sliceStart := sliceTokens[0].Start
	sliceEnd := sliceTokens[len(sliceTokens)-1].End
	return Span{
		Tokens: sliceTokens,
		Start:  sliceStart,
		End:    sliceEnd,
		Text:   span.Text[sliceStart-span.Start : sliceEnd-span.Start],
	}
}

// Tokenized is a paragraph together with its token sequence.
type Tokenized struct {
	Index  int     `json:"index"`
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens"`
}

// Span returns the span over Tokens[from:to].
func (paragraph Tokenized) Span(from, to int) Span {
	if from < 0 {
		from = 0
	}
	if to > len(paragraph.Tokens) {
		to = len(paragraph.Tokens)
	}
	if from >= to {
		return Span{}
	}
	return NewSpan(paragraph.Text, paragraph.Tokens[from:to])
}

// TokenizeParagraph runs tokenizer over one paragraph.
func TokenizeParagraph(tokenizer Tokenizer, index int, text string) Tokenized {
	return Tokenized{Index: index, Text: text, Tokens: tokenizer.Tokenize(text)}
}

// Tokenizer turns paragraph text into an ordered token sequence.
// Implementations must be safe for concurrent use.
type Tokenizer interface {
	Tokenize(text string) []Token
}
