package reference

import (
	"sort"
	"strconv"
	"strings"
)

// Mode selects how the splicer applies a replacement.
type Mode int

const (
	// Positional replacements are applied at Position in the original
	// paragraph text.
	Positional Mode = iota
	// Literal replacements substitute every unwrapped occurrence of Text in
	// the paragraph.
	Literal
)

func (mode Mode) String() string {
	if mode == Literal {
		return "literal"
	}
	return "positional"
}

// Replacement is matched text plus its pre-rendered markup.
type Replacement struct {
	Paragraph int    `json:"paragraph"`
	Position  int    `json:"position"`
	Text      string `json:"text"`
	Markup    string `json:"markup"`
	Mode      Mode   `json:"mode"`
	Kind      Kind   `json:"kind"`
}

// End returns the offset just past the replaced text.
func (replacement Replacement) End() int {
	return replacement.Position + len(replacement.Text)
}

// Replacement renders the abbreviation tag.
func (abbreviation Abbreviation) Replacement() Replacement {
	return Replacement{
		Paragraph: abbreviation.Match.Paragraph,
		Position:  abbreviation.Match.Start,
		Text:      abbreviation.Match.Text,
		Markup:    AbbreviationMarkup(abbreviation.LongForm, abbreviation.Match.Text),
		Mode:      Literal,
		Kind:      KindAbbreviation,
	}
}

// Replacement renders the legislation tag.
func (legislation Legislation) Replacement() Replacement {
	return Replacement{
		Paragraph: legislation.Match.Paragraph,
		Position:  legislation.Match.Start,
		Text:      legislation.Match.Text,
		Markup:    LegislationMarkup(legislation.Href, legislation.Canonical, legislation.Match.Text),
		Mode:      Positional,
		Kind:      KindLegislation,
	}
}

// Replacement renders the oblique mention as a legislation tag pointing at
// its antecedent.
func (oblique Oblique) Replacement() Replacement {
	return Replacement{
		Paragraph: oblique.Match.Paragraph,
		Position:  oblique.Match.Start,
		Text:      oblique.Match.Text,
		Markup:    LegislationMarkup(oblique.Href, oblique.Canonical, oblique.Match.Text),
		Mode:      Positional,
		Kind:      KindOblique,
	}
}

// Replacement renders the case citation tag.
func (caselaw Caselaw) Replacement() Replacement {
	return Replacement{
		Paragraph: caselaw.Match.Paragraph,
		Position:  caselaw.Match.Start,
		Text:      caselaw.Match.Text,
		Markup:    CaseMarkup(caselaw.URI, caselaw.IsNeutral, caselaw.Corrected, caselaw.Year, caselaw.Match.Text),
		Mode:      Literal,
		Kind:      KindCaselaw,
	}
}

// Replacements converts detections to replacements, ordered by paragraph
// then position.
func Replacements(detections []Detected) []Replacement {
	replacements := make([]Replacement, 0, len(detections))
	for _, detection := range detections {
		replacements = append(replacements, detection.Replacement())
	}
	sort.SliceStable(replacements, func(i, j int) bool {
		if replacements[i].Paragraph != replacements[j].Paragraph {
			return replacements[i].Paragraph < replacements[j].Paragraph
		}
		return replacements[i].Position < replacements[j].Position
	})
	return replacements
}

// LegislationMarkup renders
// <ref uk:type="legislation" href="…" uk:canonical="…" uk:origin="TNA">…</ref>.
func LegislationMarkup(href, canonical, matchedText string) string {
	var markup strings.Builder
	markup.WriteString(`<ref uk:type="legislation" href="`)
	markup.WriteString(EscapeAttribute(href))
	markup.WriteString(`" uk:canonical="`)
	markup.WriteString(EscapeAttribute(canonical))
	markup.WriteString(`" uk:origin="TNA">`)
	markup.WriteString(EscapeText(matchedText))
	markup.WriteString(`</ref>`)
	return markup.String()
}

// AbbreviationMarkup renders <abbr title="…" uk:origin="TNA">…</abbr>.
// The long form is paragraph text, so entity references in it are kept.
func AbbreviationMarkup(longForm, matchedText string) string {
	var markup strings.Builder
	markup.WriteString(`<abbr title="`)
	markup.WriteString(EscapeTextAttribute(longForm))
	markup.WriteString(`" uk:origin="TNA">`)
	markup.WriteString(EscapeText(matchedText))
	markup.WriteString(`</abbr>`)
	return markup.String()
}

// CaseMarkup renders the case citation tag. The uk:year attribute is left out
// when year is empty.
func CaseMarkup(uri string, isNeutral bool, corrected, year, matchedText string) string {
	var markup strings.Builder
	markup.WriteString(`<ref uk:type="case" href="`)
	markup.WriteString(EscapeAttribute(uri))
	markup.WriteString(`" uk:isNeutral="`)
	markup.WriteString(strconv.FormatBool(isNeutral))
	markup.WriteString(`" uk:canonical="`)
	markup.WriteString(EscapeTextAttribute(corrected))
	markup.WriteString(`"`)
	if year != "" {
		markup.WriteString(` uk:year="`)
		markup.WriteString(EscapeAttribute(year))
		markup.WriteString(`"`)
	}
	markup.WriteString(` uk:origin="TNA">`)
	markup.WriteString(EscapeText(matchedText))
	markup.WriteString(`</ref>`)
	return markup.String()
}
