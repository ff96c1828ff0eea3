package splice

import (
	"errors"
	"testing"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/document"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
)

func positional(position int, text, markup string) reference.Replacement {
	return reference.Replacement{Position: position, Text: text, Markup: markup, Mode: reference.Positional}
}

func literal(text, markup string) reference.Replacement {
	return reference.Replacement{Text: text, Markup: markup, Mode: reference.Literal}
}

func TestParagraph(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		replacements []reference.Replacement
		want         string
	}{
		{
			name:         "positional",
			text:         "The Companies Act 2006 applies.",
			replacements: []reference.Replacement{positional(4, "Companies Act 2006", "[CA]")},
			want:         "The [CA] applies.",
		},
		{
			name: "positional applied against original offsets",
			text: "The Companies Act 2006 applies. Under the Act it does.",
			replacements: []reference.Replacement{
				positional(38, "the Act", "[OBL]"),
				positional(4, "Companies Act 2006", "[CA]"),
			},
			want: "The [CA] applies. Under [OBL] it does.",
		},
		{
			name:         "stale positional skipped",
			text:         "The Companies Act 2006 applies.",
			replacements: []reference.Replacement{positional(5, "Companies Act 2006", "[CA]")},
			want:         "The Companies Act 2006 applies.",
		},
		{
			name:         "positional out of range skipped",
			text:         "short",
			replacements: []reference.Replacement{positional(3, "too long", "[X]")},
			want:         "short",
		},
		{
			name:         "literal whole words only",
			text:         "FCA and FCAB and the FCA.",
			replacements: []reference.Replacement{literal("FCA", "[FCA]")},
			want:         "[FCA] and FCAB and the [FCA].",
		},
		{
			name:         "literal skips existing markup",
			text:         `<abbr title="x">FCA</abbr> and FCA`,
			replacements: []reference.Replacement{literal("FCA", "<abbr>FCA</abbr>")},
			want:         `<abbr title="x">FCA</abbr> and <abbr>FCA</abbr>`,
		},
		{
			name: "literal longest first",
			text: "CA 2006 and CA",
			replacements: []reference.Replacement{
				literal("CA", "<abbr>CA</abbr>"),
				literal("CA 2006", "<abbr>CA 2006</abbr>"),
			},
			want: "<abbr>CA 2006</abbr> and <abbr>CA</abbr>",
		},
		{
			name: "first markup wins for a repeated literal",
			text: "FCA",
			replacements: []reference.Replacement{
				literal("FCA", "[first]"),
				literal("FCA", "[second]"),
			},
			want: "[first]",
		},
		{
			name: "literal does not rewrite positional markup",
			text: "The Companies Act 2006 and CA 2006.",
			replacements: []reference.Replacement{
				positional(4, "Companies Act 2006", `<ref href="x">Companies Act 2006</ref>`),
				literal("Act", "<abbr>Act</abbr>"),
			},
			want: `The <ref href="x">Companies Act 2006</ref> and CA 2006.`,
		},
		{
			name:         "literal punctuation edges",
			text:         "see [2021] EWCA Civ 1 and x[2021] EWCA Civ 1",
			replacements: []reference.Replacement{literal("[2021] EWCA Civ 1", "<ref>c</ref>")},
			want:         "see <ref>c</ref> and x<ref>c</ref>",
		},
		{
			name:         "empty text ignored",
			text:         "unchanged",
			replacements: []reference.Replacement{literal("", "[x]"), positional(0, "", "[y]")},
			want:         "unchanged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Paragraph(tt.text, tt.replacements)
			if err != nil {
				t.Fatalf("Paragraph() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Paragraph() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestParagraphOverlap(t *testing.T) {
	_, err := Paragraph("The Companies Act 2006 applies.", []reference.Replacement{
		positional(4, "Companies Act 2006", "[CA]"),
		positional(14, "Act 2006 applies", "[X]"),
	})

	var overlapErr *OverlapError
	if !errors.As(err, &overlapErr) {
		t.Fatalf("error = %v, want *OverlapError", err)
	}
	if overlapErr.First.Position != 4 || overlapErr.Second.Position != 14 {
		t.Errorf("overlap = %+v", overlapErr)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	text := "The Companies Act 2006 applies. Under the Act the FCA acts."
	replacements := []reference.Replacement{
		positional(4, "Companies Act 2006", reference.LegislationMarkup("h", "2006 c. 46", "Companies Act 2006")),
		positional(38, "the Act", reference.LegislationMarkup("h", "2006 c. 46", "the Act")),
		literal("FCA", reference.AbbreviationMarkup("Financial Conduct Authority", "FCA")),
	}

	once, err := Paragraph(text, replacements)
	if err != nil {
		t.Fatalf("first Paragraph() error = %v", err)
	}
	twice, err := Paragraph(once, replacements)
	if err != nil {
		t.Fatalf("second Paragraph() error = %v", err)
	}
	if once == text {
		t.Fatal("first pass changed nothing")
	}
	if twice != once {
		t.Errorf("second pass changed output:\n%s\nwant\n%s", twice, once)
	}
}

func TestApply(t *testing.T) {
	paragraphs := []document.Paragraph{
		{Index: 0, Text: "The FCA said."},
		{Index: 1, Text: "Nothing to do."},
		{Index: 2, Text: "No FCAB here."},
	}
	replacements := []reference.Replacement{
		{Paragraph: 0, Text: "FCA", Markup: "[FCA]", Mode: reference.Literal},
		{Paragraph: 2, Text: "FCA", Markup: "[FCA]", Mode: reference.Literal},
		{Paragraph: 9, Text: "x", Markup: "[x]", Mode: reference.Literal},
	}

	changed, err := Apply(paragraphs, replacements)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(changed) != 1 || changed[0] != "The [FCA] said." {
		t.Errorf("changed = %v, want only paragraph 0", changed)
	}
}

func TestApplyReportsOverlap(t *testing.T) {
	paragraphs := []document.Paragraph{{Index: 3, Text: "The Companies Act 2006"}}
	_, err := Apply(paragraphs, []reference.Replacement{
		{Paragraph: 3, Position: 4, Text: "Companies Act 2006", Markup: "[a]"},
		{Paragraph: 3, Position: 4, Text: "Companies Act", Markup: "[b]"},
	})
	var overlapErr *OverlapError
	if !errors.As(err, &overlapErr) || overlapErr.Paragraph != 3 {
		t.Errorf("error = %v, want *OverlapError for paragraph 3", err)
	}
}
