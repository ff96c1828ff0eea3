// Package reference defines the detections produced by the enrichment engine
// and the markup replacements they turn into.
//
// Detected is a closed sum type with one variant per reference kind:
// Abbreviation, Legislation, Oblique and Caselaw. Each variant knows how to
// render itself as a Replacement.
package reference

import "fmt"

// Kind identifies the variant of a Detected reference.
type Kind string

const (
	KindAbbreviation Kind = "abbreviation"
	KindLegislation  Kind = "legislation"
	KindOblique      Kind = "oblique"
	KindCaselaw      Kind = "caselaw"
)

// Detected is a reference found in a document. The unexported marker method
// keeps the set of variants closed to this package.
type Detected interface {
	Kind() Kind
	Location() Location
	Replacement() Replacement
	isDetected()
}

// Location places matched text inside one paragraph.
// Start and End are byte offsets into the paragraph text.
type Location struct {
	Paragraph int    `json:"paragraph"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Text      string `json:"text"`
}

// Before reports whether location sorts before other in reading order.
func (location Location) Before(other Location) bool {
	if location.Paragraph != other.Paragraph {
		return location.Paragraph < other.Paragraph
	}
	return location.Start < other.Start
}

// Overlaps reports whether the two locations share a paragraph and intersect.
func (location Location) Overlaps(other Location) bool {
	if location.Paragraph != other.Paragraph {
		return false
	}
	return location.Start < other.End && other.Start < location.End
}

// Contains reports whether other lies entirely within location.
func (location Location) Contains(other Location) bool {
	return location.Paragraph == other.Paragraph &&
		location.Start <= other.Start && other.End <= location.End
}

func (location Location) String() string {
	return fmt.Sprintf("p%d[%d:%d] %q", location.Paragraph, location.Start, location.End, location.Text)
}

// Abbreviation is a short form paired with its defining long form.
type Abbreviation struct {
	Match     Location `json:"match"`
	ShortForm string   `json:"short_form"`
	LongForm  string   `json:"long_form"`
}

// Legislation is a legislation title matched against the reference table.
type Legislation struct {
	Match      Location `json:"match"`
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	Href       string   `json:"href"`
	Canonical  string   `json:"canonical"`
	Confidence int      `json:"confidence"`
}

// Oblique is an anaphoric mention ("the Act", "the 1996 Act") linked to the
// legislation reference it stands for.
type Oblique struct {
	Match      Location `json:"match"`
	Numbered   bool     `json:"numbered"`
	Href       string   `json:"href"`
	Canonical  string   `json:"canonical"`
	Antecedent Location `json:"antecedent"`
}

// Caselaw is a case citation recognised by a citation rule.
type Caselaw struct {
	Match     Location `json:"match"`
	RuleID    string   `json:"rule_id"`
	Corrected string   `json:"corrected"`
	Year      string   `json:"year,omitempty"`
	URI       string   `json:"uri"`
	IsNeutral bool     `json:"is_neutral"`
}

func (Abbreviation) Kind() Kind { return KindAbbreviation }
func (Legislation) Kind() Kind  { return KindLegislation }
func (Oblique) Kind() Kind      { return KindOblique }
func (Caselaw) Kind() Kind      { return KindCaselaw }

func (abbreviation Abbreviation) Location() Location { return abbreviation.Match }
func (legislation Legislation) Location() Location   { return legislation.Match }
func (oblique Oblique) Location() Location           { return oblique.Match }
func (caselaw Caselaw) Location() Location           { return caselaw.Match }

func (Abbreviation) isDetected() {}
func (Legislation) isDetected()  {}
func (Oblique) isDetected()      {}
func (Caselaw) isDetected()      {}
