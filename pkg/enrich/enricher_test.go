package enrich

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/document"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/legislation"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/logging"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/pattern"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

const companiesActHref = "https://www.legislation.gov.uk/ukpga/2006/46"

func testTable() *legislation.Table {
	return legislation.NewTable([]legislation.Record{
		{Title: "Companies Act 2006", Year: 2006, Canonical: "2006 c. 46", Href: companiesActHref},
		{Title: "Arbitration Act 1996", Year: 1996, Canonical: "1996 c. 23", Href: "https://www.legislation.gov.uk/ukpga/1996/23"},
	})
}

func testEnricher(options ...Option) *Enricher {
	options = append([]Option{WithLogger(logging.Discard())}, options...)
	return New(testTable(), legislation.DefaultOptions(), options...)
}

func judgment(paragraphs ...string) []byte {
	var builder strings.Builder
	builder.WriteString(`<judgment xmlns:uk="https://caselaw.nationalarchives.gov.uk/akn">`)
	for _, paragraph := range paragraphs {
		builder.WriteString("<p>")
		builder.WriteString(paragraph)
		builder.WriteString("</p>")
	}
	builder.WriteString("</judgment>")
	return []byte(builder.String())
}

func legislationTag(text string) string {
	return reference.LegislationMarkup(companiesActHref, "2006 c. 46", text)
}

func TestEnrichLegislationAndOblique(t *testing.T) {
	enricher := testEnricher()
	input := judgment(
		"The Companies Act 2006 applies. Under the Act the directors owe duties.",
		"Later, the 2006 Act was amended.",
	)

	result, err := enricher.Enrich(context.Background(), "doc-1", input)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	expected := string(judgment(
		"The "+legislationTag("Companies Act 2006")+" applies. Under "+legislationTag("the Act")+" the directors owe duties.",
		"Later, "+legislationTag("the 2006 Act")+" was amended.",
	))
	if string(result.Output) != expected {
		t.Errorf("Output =\n%s\nwant\n%s", result.Output, expected)
	}
	if !result.Changed {
		t.Error("Changed = false, want true")
	}
	if got := result.Counts[reference.KindLegislation]; got != 1 {
		t.Errorf("legislation count = %d, want 1", got)
	}
	if got := result.Counts[reference.KindOblique]; got != 2 {
		t.Errorf("oblique count = %d, want 2", got)
	}
	if err := document.CheckWellFormed(result.Output); err != nil {
		t.Errorf("output not well-formed: %v", err)
	}
}

func TestEnrichIsIdempotent(t *testing.T) {
	enricher := testEnricher()
	inputs := map[string][]byte{
		"legislation": judgment(
			"The Companies Act 2006 applies. Under the Act the directors owe duties.",
			"Later, the 2006 Act was amended.",
		),
		"abbreviation": judgment(
			`The Financial Conduct Authority ("FCA") regulates firms.`,
			"The FCA issued guidance.",
		),
	}

	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			first, err := enricher.Enrich(context.Background(), name, input)
			if err != nil {
				t.Fatalf("first Enrich() error = %v", err)
			}
			second, err := enricher.Enrich(context.Background(), name, first.Output)
			if err != nil {
				t.Fatalf("second Enrich() error = %v", err)
			}
			if string(second.Output) != string(first.Output) {
				t.Errorf("second pass changed output:\n%s\nwant\n%s", second.Output, first.Output)
			}
			if second.Changed {
				t.Error("second pass Changed = true")
			}
		})
	}
}

func TestEnrichAbbreviation(t *testing.T) {
	enricher := testEnricher()
	input := judgment(
		`The Financial Conduct Authority ("FCA") regulates firms.`,
		"The FCA issued guidance.",
	)

	result, err := enricher.Enrich(context.Background(), "doc-abbr", input)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	wrapped := reference.AbbreviationMarkup("Financial Conduct Authority", "FCA")
	if !strings.Contains(string(result.Output), "<p>The "+wrapped+" issued guidance.</p>") {
		t.Errorf("later use not wrapped:\n%s", result.Output)
	}
	if result.Counts[reference.KindAbbreviation] < 2 {
		t.Errorf("abbreviation count = %d, want at least 2", result.Counts[reference.KindAbbreviation])
	}
}

func TestEnrichAbbreviationLongFormWithEntity(t *testing.T) {
	enricher := testEnricher()
	input := judgment(`The claimant, Smith &amp; Jones Ltd ("SJL"), sued. SJL lost.`)

	result, err := enricher.Enrich(context.Background(), "doc-entity", input)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}

	output := string(result.Output)
	if strings.Contains(output, "&amp;amp;") {
		t.Fatalf("entity escaped twice:\n%s", output)
	}
	wrapped := `<abbr title="Smith &amp; Jones Ltd" uk:origin="TNA">SJL</abbr>`
	if got := strings.Count(output, wrapped); got != 2 {
		t.Errorf("found %d wrapped occurrences, want 2:\n%s", got, output)
	}
}

func TestEnrichUnchangedDocumentIsByteExact(t *testing.T) {
	enricher := testEnricher()
	tests := []struct {
		name  string
		input []byte
	}{
		{"no years", judgment("Nothing to see here &amp; nothing to link.")},
		{"unknown act", judgment("The Widgets Act 1955 is not in the table.")},
		{"plain text", []byte("Plain text without markup, 2006.\n")},
		{"whitespace kept", []byte("<?xml version=\"1.0\"?>\n<judgment>\n  <p> spaced </p>\n</judgment>\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := enricher.Enrich(context.Background(), tt.name, tt.input)
			if err != nil {
				t.Fatalf("Enrich() error = %v", err)
			}
			if string(result.Output) != string(tt.input) {
				t.Errorf("Output = %q, want %q", result.Output, tt.input)
			}
			if result.Changed {
				t.Error("Changed = true, want false")
			}
		})
	}
}

func TestEnrichNoParagraphs(t *testing.T) {
	enricher := testEnricher()

	_, err := enricher.Enrich(context.Background(), "empty", []byte("<judgment></judgment>"))
	if !errors.Is(err, document.ErrNoParagraphs) {
		t.Fatalf("Enrich() error = %v, want ErrNoParagraphs", err)
	}
	var documentErr *DocumentError
	if !errors.As(err, &documentErr) || documentErr.Stage != StageParse {
		t.Errorf("error = %#v, want parse-stage DocumentError", err)
	}
}

func TestEnrichOrOriginalMalformedReference(t *testing.T) {
	enricher := testEnricher()
	input := judgment(
		`See <ref uk:type="legislation" href="https://www.legislation.gov.uk/ukpga/2006/46">the Companies Act 2006</ref>.`,
		"Under the Act nothing changes.",
	)

	output, result, err := enricher.EnrichOrOriginal(context.Background(), "malformed", input)
	if err == nil {
		t.Fatal("EnrichOrOriginal() error = nil, want malformed reference error")
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
	if string(output) != string(input) {
		t.Errorf("output = %s, want original input", output)
	}

	var malformed *document.MalformedReferenceError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, want *document.MalformedReferenceError", err)
	}
	if len(malformed.Missing) != 1 || malformed.Missing[0] != "uk:canonical" {
		t.Errorf("Missing = %v, want [uk:canonical]", malformed.Missing)
	}
	var documentErr *DocumentError
	if !errors.As(err, &documentErr) || documentErr.Stage != StageOblique {
		t.Errorf("error = %v, want oblique-stage DocumentError", err)
	}
}

func TestEnrichUsesExistingMarkupAsAntecedent(t *testing.T) {
	enricher := testEnricher()
	existing := legislationTag("the Companies Act 2006")
	input := judgment(
		"See "+existing+".",
		"Under the Act nothing changes.",
	)

	result, err := enricher.Enrich(context.Background(), "existing", input)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	expected := string(judgment(
		"See "+existing+".",
		"Under "+legislationTag("the Act")+" nothing changes.",
	))
	if string(result.Output) != expected {
		t.Errorf("Output =\n%s\nwant\n%s", result.Output, expected)
	}
}

func TestEnrichCancelledContext(t *testing.T) {
	enricher := testEnricher()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := enricher.Enrich(ctx, "cancelled", judgment("The Companies Act 2006 applies."))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Enrich() error = %v, want context.Canceled", err)
	}
	var documentErr *DocumentError
	if !errors.As(err, &documentErr) || documentErr.Stage != StageCancelled {
		t.Errorf("error = %v, want cancelled-stage DocumentError", err)
	}
}

func TestEnrichWithCitations(t *testing.T) {
	registry := pattern.NewRegistry()
	if err := registry.LoadDefaults(); err != nil {
		t.Fatalf("LoadDefaults() error = %v", err)
	}
	enricher := testEnricher(WithCitations(registry))
	input := judgment("As held in [2021] EWCA Civ 1234, the appeal failed.")

	result, err := enricher.Enrich(context.Background(), "citations", input)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if got := result.Counts[reference.KindCaselaw]; got != 1 {
		t.Fatalf("caselaw count = %d, want 1; output %s", got, result.Output)
	}
	if !strings.Contains(string(result.Output), `href="https://caselaw.nationalarchives.gov.uk/ewca/civ/2021/1234"`) {
		t.Errorf("citation href missing:\n%s", result.Output)
	}
}

func TestDetect(t *testing.T) {
	enricher := testEnricher()
	detections, err := enricher.Detect(context.Background(), "detect", judgment(
		"The Arbitration Act 1996 governs. The 1996 Act applies.",
	))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	var kinds []reference.Kind
	for _, detection := range detections {
		kinds = append(kinds, detection.Kind())
	}
	if len(kinds) != 2 || kinds[0] != reference.KindLegislation || kinds[1] != reference.KindOblique {
		t.Fatalf("kinds = %v, want [legislation oblique]", kinds)
	}
	obliqueRef := detections[1].(reference.Oblique)
	if !obliqueRef.Numbered || obliqueRef.Canonical != "1996 c. 23" {
		t.Errorf("oblique = %+v, want numbered link to 1996 c. 23", obliqueRef)
	}
}

// countingTokenizer records how many paragraphs it was asked to tokenize.
type countingTokenizer struct {
	calls int
	inner *token.RuleTokenizer
}

func (tokenizer *countingTokenizer) Tokenize(text string) []token.Token {
	tokenizer.calls++
	return tokenizer.inner.Tokenize(text)
}

func TestWithTokenizer(t *testing.T) {
	tokenizer := &countingTokenizer{inner: token.NewRuleTokenizer()}
	enricher := testEnricher(WithTokenizer(tokenizer))

	result, err := enricher.Enrich(context.Background(), "tokenizer", judgment(
		"The Companies Act 2006 applies.",
		"Nothing to see here.",
	))
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	if tokenizer.calls != 2 {
		t.Errorf("tokenizer calls = %d, want 2", tokenizer.calls)
	}
	if result.Counts[reference.KindLegislation] != 1 {
		t.Errorf("legislation count = %d, want 1", result.Counts[reference.KindLegislation])
	}
}
