package citation

import (
	"testing"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/document"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/pattern"
)

func newDefaultResolver(t *testing.T) *Resolver {
	t.Helper()
	registry, err := pattern.NewDefaultRegistry()
	if err != nil {
		t.Fatalf("NewDefaultRegistry() error = %v", err)
	}
	return NewResolver(registry)
}

func TestResolveNeutralCitations(t *testing.T) {
	resolver := newDefaultResolver(t)

	cases := []struct {
		name              string
		text              string
		expectedCorrected string
		expectedURI       string
		expectedYear      string
	}{
		{
			name:              "supreme court",
			text:              "In [2020] UKSC 12 the court held",
			expectedCorrected: "[2020] UKSC 12",
			expectedURI:       "https://caselaw.nationalarchives.gov.uk/uksc/2020/12",
			expectedYear:      "2020",
		},
		{
			name:              "court of appeal with extra spacing",
			text:              "See [2019]  EWCA Civ 1234.",
			expectedCorrected: "[2019] EWCA Civ 1234",
			expectedURI:       "https://caselaw.nationalarchives.gov.uk/ewca/civ/2019/1234",
			expectedYear:      "2019",
		},
		{
			name:              "high court division",
			text:              "following [2021] EWHC 400 (Ch),",
			expectedCorrected: "[2021] EWHC 400 (Ch)",
			expectedURI:       "https://caselaw.nationalarchives.gov.uk/ewhc/ch/2021/400",
			expectedYear:      "2021",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			caselawRefs := resolver.Resolve([]document.Paragraph{{Index: 3, Text: tc.text}})
			if len(caselawRefs) != 1 {
				t.Fatalf("Resolve() returned %d references, want 1", len(caselawRefs))
			}
			caselawRef := caselawRefs[0]
			if caselawRef.Corrected != tc.expectedCorrected {
				t.Errorf("Corrected = %q, want %q", caselawRef.Corrected, tc.expectedCorrected)
			}
			if caselawRef.URI != tc.expectedURI {
				t.Errorf("URI = %q, want %q", caselawRef.URI, tc.expectedURI)
			}
			if caselawRef.Year != tc.expectedYear {
				t.Errorf("Year = %q, want %q", caselawRef.Year, tc.expectedYear)
			}
			if !caselawRef.IsNeutral {
				t.Error("IsNeutral = false, want true")
			}
			if caselawRef.Match.Paragraph != 3 {
				t.Errorf("Paragraph = %d, want 3", caselawRef.Match.Paragraph)
			}
			if tc.text[caselawRef.Match.Start:caselawRef.Match.End] != caselawRef.Match.Text {
				t.Errorf("offsets do not cover %q", caselawRef.Match.Text)
			}
		})
	}
}

func TestResolveLawReport(t *testing.T) {
	resolver := newDefaultResolver(t)

	caselawRefs := resolver.Resolve([]document.Paragraph{{Index: 0, Text: "Donoghue v Stevenson [1932] AC 562"}})
	if len(caselawRefs) != 1 {
		t.Fatalf("Resolve() returned %d references, want 1", len(caselawRefs))
	}
	if caselawRefs[0].IsNeutral {
		t.Error("law report should not be neutral")
	}
	if caselawRefs[0].URI != "https://caselaw.nationalarchives.gov.uk/search?query=%5B1932%5D+AC+562" {
		t.Errorf("URI = %q", caselawRefs[0].URI)
	}
}

func TestResolveSkipsMarkup(t *testing.T) {
	resolver := newDefaultResolver(t)

	text := `<ref uk:type="case" href="x">[2020] UKSC 12</ref> and [2020] UKSC 13`
	caselawRefs := resolver.Resolve([]document.Paragraph{{Index: 0, Text: text}})
	if len(caselawRefs) != 1 {
		t.Fatalf("Resolve() returned %d references, want 1", len(caselawRefs))
	}
	if caselawRefs[0].Corrected != "[2020] UKSC 13" {
		t.Errorf("Corrected = %q, want the unwrapped citation", caselawRefs[0].Corrected)
	}
}

// stubRules is a RuleSet returning fixed matches.
type stubRules struct {
	rules   map[string]*pattern.Rule
	matches []pattern.Match
}

func (stub *stubRules) Recognize(text string) []pattern.Match { return stub.matches }

func (stub *stubRules) Get(ruleID string) (*pattern.Rule, bool) {
	rule, ok := stub.rules[ruleID]
	return rule, ok
}

func TestResolveOverlapKeepsHigherPriority(t *testing.T) {
	rules := map[string]*pattern.Rule{
		"low":  {ID: "low", Canonical: "low", URI: "https://example.org/low"},
		"high": {ID: "high", Canonical: "high", URI: "https://example.org/high"},
	}
	stub := &stubRules{
		rules: rules,
		matches: []pattern.Match{
			{RuleID: "low", Start: 0, End: 20, Text: "aaaaaaaaaaaaaaaaaaaa", Priority: 10},
			{RuleID: "high", Start: 5, End: 10, Text: "aaaaa", Priority: 50},
			{RuleID: "low", Start: 30, End: 35, Text: "bbbbb", Priority: 10},
		},
	}

	caselawRefs := NewResolver(stub).Resolve([]document.Paragraph{{Index: 0, Text: "irrelevant"}})
	if len(caselawRefs) != 2 {
		t.Fatalf("Resolve() returned %d references, want 2", len(caselawRefs))
	}
	if caselawRefs[0].RuleID != "high" {
		t.Errorf("first reference from rule %q, want high", caselawRefs[0].RuleID)
	}
	if caselawRefs[1].Match.Start != 30 {
		t.Errorf("second reference starts at %d, want 30", caselawRefs[1].Match.Start)
	}
}

func TestResolveDropsUnlinkable(t *testing.T) {
	stub := &stubRules{
		rules: map[string]*pattern.Rule{
			"report": {ID: "report", Canonical: "x"},
		},
		matches: []pattern.Match{
			{RuleID: "report", Start: 0, End: 1, Text: "x"},
			{RuleID: "missing", Start: 2, End: 3, Text: "y"},
		},
	}

	if caselawRefs := NewResolver(stub).Resolve([]document.Paragraph{{Text: "x y"}}); len(caselawRefs) != 0 {
		t.Errorf("Resolve() returned %d references, want 0", len(caselawRefs))
	}
}

func FuzzResolve(f *testing.F) {
	seeds := []string{
		"[2020] UKSC 1",
		"[2019] EWCA Civ 12 and [2019] EWCA Crim 3",
		"[2021] EWHC 400 (Ch)",
		"[1932] AC 562; [2001] 1 WLR 100",
		"<ref>[2020] UKSC 1</ref>",
		"[",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	registry, err := pattern.NewDefaultRegistry()
	if err != nil {
		f.Fatalf("NewDefaultRegistry() error = %v", err)
	}
	resolver := NewResolver(registry)

	f.Fuzz(func(t *testing.T, text string) {
		for _, caselawRef := range resolver.Resolve([]document.Paragraph{{Text: text}}) {
			location := caselawRef.Match
			if location.Start < 0 || location.End > len(text) || location.Start >= location.End {
				t.Fatalf("invalid span [%d:%d] for text of length %d", location.Start, location.End, len(text))
			}
			if text[location.Start:location.End] != location.Text {
				t.Fatalf("span text %q does not match %q", text[location.Start:location.End], location.Text)
			}
		}
	})
}
