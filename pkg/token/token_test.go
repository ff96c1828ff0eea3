package token

import (
	"reflect"
	"testing"
)

func tokenTexts(tokens []Token) []string {
	texts := make([]string, len(tokens))
	for tokenIndex, tok := range tokens {
		texts[tokenIndex] = tok.Text
	}
	return texts
}

func TestRuleTokenizer(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "words and punctuation",
			text: "The Companies Act 2006 (c. 46) applies.",
			want: []string{"The", "Companies", "Act", "2006", "(", "c", ".", "46", ")", "applies", "."},
		},
		{
			name: "apostrophe inside word",
			text: "Lloyd's Bank and the directors' duties",
			want: []string{"Lloyd's", "Bank", "and", "the", "directors", "'", "duties"},
		},
		{
			name: "tags skipped",
			text: `see <ref href="x">the Act</ref> now`,
			want: []string{"see", "the", "Act", "now"},
		},
		{
			name: "entities kept whole",
			text: "Smith &amp; Jones &#8217;s",
			want: []string{"Smith", "&amp;", "Jones", "&#8217;", "s"},
		},
		{
			name: "stray ampersand and bracket",
			text: "A & B < C",
			want: []string{"A", "&", "B", "<", "C"},
		},
		{
			name: "quotes",
			text: `("CA 2006")`,
			want: []string{"(", `"`, "CA", "2006", `"`, ")"},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
	}

	tokenizer := NewRuleTokenizer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenTexts(tokenizer.Tokenize(tt.text))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenOffsetsAndAttributes(t *testing.T) {
	text := "In 2006, Caf\u00e9 Act"
	tokens := NewRuleTokenizer().Tokenize(text)
	if len(tokens) != 5 {
		t.Fatalf("got %d tokens, want 5: %q", len(tokens), tokenTexts(tokens))
	}

	for _, tok := range tokens {
		if text[tok.Start:tok.End] != tok.Text {
			t.Errorf("token %q offsets [%d:%d] cover %q", tok.Text, tok.Start, tok.End, text[tok.Start:tok.End])
		}
	}

	year := tokens[1]
	if !year.IsYear || !year.IsDigit || year.IsAlpha || year.IsPunct {
		t.Errorf("2006 attributes = %+v", year)
	}
	comma := tokens[2]
	if !comma.IsPunct || comma.IsYear {
		t.Errorf("comma attributes = %+v", comma)
	}
	cafe := tokens[3]
	if !cafe.IsAlpha || cafe.Len() != 4 {
		t.Errorf("Café attributes = %+v, Len() = %d", cafe, cafe.Len())
	}
}

func TestTokenizedSpan(t *testing.T) {
	paragraph := TokenizeParagraph(NewRuleTokenizer(), 3, "under the  Companies Act 2006 here")

	span := paragraph.Span(2, 5)
	if span.Text != "Companies Act 2006" {
		t.Errorf("Span(2, 5).Text = %q", span.Text)
	}
	if span.Start != 11 || span.End != 29 {
		t.Errorf("Span(2, 5) offsets = [%d:%d], want [11:29]", span.Start, span.End)
	}
	if span.Words() != "Companies Act 2006" || span.Len() != 3 {
		t.Errorf("Words() = %q, Len() = %d", span.Words(), span.Len())
	}

	wide := paragraph.Span(1, 3)
	if wide.Text != "the  Companies" || wide.Words() != "the Companies" {
		t.Errorf("Span(1, 3) Text = %q, Words = %q", wide.Text, wide.Words())
	}

	if !paragraph.Span(4, 4).IsEmpty() {
		t.Error("Span(4, 4) should be empty")
	}
	if got := paragraph.Span(-1, 100).Len(); got != len(paragraph.Tokens) {
		t.Errorf("clamped span Len() = %d, want %d", got, len(paragraph.Tokens))
	}
}

func TestSpanSlice(t *testing.T) {
	paragraph := TokenizeParagraph(NewRuleTokenizer(), 0, "The Financial Conduct Authority")
	full := paragraph.Span(0, 4)

	sliced := full.Slice(1, 4)
	if sliced.Text != "Financial Conduct Authority" || sliced.Start != 4 {
		t.Errorf("Slice(1, 4) = %q at %d", sliced.Text, sliced.Start)
	}
	if !full.Slice(3, 1).IsEmpty() {
		t.Error("Slice(3, 1) should be empty")
	}
}

func TestSpanHasMarkup(t *testing.T) {
	paragraph := TokenizeParagraph(NewRuleTokenizer(), 0, "the <i>Companies</i> Act")
	if !paragraph.Span(0, 3).HasMarkup() {
		t.Error("span across <i> should have markup")
	}
	if paragraph.Span(2, 3).HasMarkup() {
		t.Error("single token span should not have markup")
	}
}
