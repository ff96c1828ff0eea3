package legislation

import (
	"reflect"
	"testing"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

func tokenize(paragraphs ...string) []token.Tokenized {
	tokenizer := token.NewRuleTokenizer()
	tokenized := make([]token.Tokenized, len(paragraphs))
	for paragraphIndex, text := range paragraphs {
		tokenized[paragraphIndex] = token.TokenizeParagraph(tokenizer, paragraphIndex, text)
	}
	return tokenized
}

func TestRatio(t *testing.T) {
	tests := []struct {
		first, second string
		want          int
	}{
		{"abc", "abc", 100},
		{"abcd", "abce", 75},
		{"", "abc", 0},
		{"abc", "xyz", 0},
	}
	for _, tt := range tests {
		if got := Ratio(tt.first, tt.second); got != tt.want {
			t.Errorf("Ratio(%q, %q) = %d, want %d", tt.first, tt.second, got, tt.want)
		}
	}
}

func TestTokenSortRatio(t *testing.T) {
	tests := []struct {
		first, second string
		want          int
	}{
		{"Companies Act", "Act Companies", 100},
		{"Companies Act", "companies, act", 100},
		{"Companies Act", "Compnies Act", 96},
	}
	for _, tt := range tests {
		if got := TokenSortRatio(tt.first, tt.second); got != tt.want {
			t.Errorf("TokenSortRatio(%q, %q) = %d, want %d", tt.first, tt.second, got, tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	table := NewTable([]Record{
		{Title: "Companies Act 2006", Year: 2006},
		{Title: "", Year: 2006},
		{Title: "Arbitration Act 1996", Year: 1996},
		{Title: "Interpretation Act", Year: 0},
	})

	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
	if got := table.Years(); !reflect.DeepEqual(got, []int{0, 1996, 2006}) {
		t.Errorf("Years() = %v", got)
	}
	selected := table.ForYears(map[int]bool{2006: true})
	if len(selected) != 1 || selected[0].Title != "Companies Act 2006" {
		t.Errorf("ForYears(2006) = %+v", selected)
	}
	if (Record{Year: 0}).YearText() != "" || (Record{Year: 1996}).YearText() != "1996" {
		t.Error("YearText() wrong")
	}
}

func TestYears(t *testing.T) {
	years := Years(tokenize("In 2006 and 1996.", "Page 12345 and 99 but 1978"))
	want := map[int]bool{2006: true, 1996: true, 1978: true}
	if !reflect.DeepEqual(years, want) {
		t.Errorf("Years() = %v, want %v", years, want)
	}
}

func TestResolveExact(t *testing.T) {
	table := NewTable([]Record{
		{Title: "Companies Act 2006", Year: 2006, Canonical: "2006 c. 46", Href: "https://www.legislation.gov.uk/ukpga/2006/46"},
		{Title: "Interpretation Act", Year: 0, Canonical: "1978 c. 30", Href: "https://www.legislation.gov.uk/ukpga/1978/30"},
	})
	resolver := NewResolver(table, DefaultOptions())

	refs, err := resolver.Resolve(tokenize(
		"The Companies Act 2006 applies. The Interpretation Act is old.",
		"Not the Companies Act 20061 nor XCompanies Act 2006.",
	))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1: %+v", len(refs), refs)
	}

	want := reference.Legislation{
		Match:      reference.Location{Paragraph: 0, Start: 4, End: 22, Text: "Companies Act 2006"},
		Title:      "Companies Act 2006",
		Year:       "2006",
		Href:       "https://www.legislation.gov.uk/ukpga/2006/46",
		Canonical:  "2006 c. 46",
		Confidence: ExactConfidence,
	}
	if refs[0] != want {
		t.Errorf("ref = %+v, want %+v", refs[0], want)
	}
}

func TestResolveNoYearsNoWork(t *testing.T) {
	table := NewTable([]Record{{Title: "Interpretation Act", Year: 0}})
	refs, err := NewResolver(table, DefaultOptions()).Resolve(tokenize("The Interpretation Act applies."))
	if err != nil || len(refs) != 0 {
		t.Errorf("Resolve() = %+v, %v; want nothing", refs, err)
	}
}

func TestResolveFuzzy(t *testing.T) {
	table := NewTable([]Record{
		{Title: "Companies Act 2006", Year: 2006, Canonical: "2006 c. 46", ForFuzzy: true},
	})
	resolver := NewResolver(table, DefaultOptions())

	refs, err := resolver.Resolve(tokenize(
		"under the Compnies Act 2006 the court",
		"the Widgets Act 2006 is unrelated",
		"the Compnies Act 1996 has the wrong year",
	))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1: %+v", len(refs), refs)
	}

	ref := refs[0]
	if ref.Match.Paragraph != 0 || ref.Match.Start != 10 || ref.Match.End != 27 {
		t.Errorf("match = %v, want p0[10:27]", ref.Match)
	}
	if ref.Match.Text != "Compnies Act 2006" || ref.Confidence != 96 {
		t.Errorf("text %q confidence %d", ref.Match.Text, ref.Confidence)
	}
}

func candidate(title string, paragraph, start, end, confidence int) Candidate {
	return Candidate{
		Record:     Record{Title: title},
		Match:      reference.Location{Paragraph: paragraph, Start: start, End: end},
		Confidence: confidence,
	}
}

func survivorTitles(candidates []Candidate) []string {
	titles := make([]string, len(candidates))
	for candidateIndex, survivor := range candidates {
		titles[candidateIndex] = survivor.Record.Title
	}
	return titles
}

func TestResolveOverlaps(t *testing.T) {
	tests := []struct {
		name       string
		candidates []Candidate
		want       []string
	}{
		{
			name: "equal confidence on one span keeps the last",
			candidates: []Candidate{
				candidate("first", 0, 28, 32, 100),
				candidate("second", 0, 28, 32, 100),
				candidate("third", 0, 28, 32, 100),
			},
			want: []string{"third"},
		},
		{
			name: "decreasing chain keeps the highest",
			candidates: []Candidate{
				candidate("high", 0, 0, 10, 95),
				candidate("middle", 0, 5, 15, 90),
				candidate("low", 0, 12, 20, 85),
			},
			want: []string{"high"},
		},
		{
			name: "nested span with higher confidence wins",
			candidates: []Candidate{
				candidate("outer", 0, 0, 30, 92),
				candidate("inner", 0, 4, 22, 100),
			},
			want: []string{"inner"},
		},
		{
			name: "different paragraphs never collide",
			candidates: []Candidate{
				candidate("later", 1, 0, 10, 90),
				candidate("earlier", 0, 0, 10, 100),
			},
			want: []string{"earlier", "later"},
		},
		{
			name: "adjacent spans both survive",
			candidates: []Candidate{
				candidate("left", 0, 0, 10, 90),
				candidate("right", 0, 10, 20, 90),
			},
			want: []string{"left", "right"},
		},
		{
			name:       "empty",
			candidates: nil,
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := survivorTitles(ResolveOverlaps(tt.candidates))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("survivors = %v, want %v", got, tt.want)
			}
		})
	}
}
