package document

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// CheckWellFormed parses raw as XML and reports the first syntax error.
func CheckWellFormed(raw []byte) error {
	if _, err := xmlquery.Parse(bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("parsing XML: %w", err)
	}
	return nil
}

// MalformedReferenceError reports a legislation tag in the input that lacks
// an attribute the enrichment engine depends on.
type MalformedReferenceError struct {
	Paragraph int
	Element   string
	Missing   []string
}

func (e *MalformedReferenceError) Error() string {
	return fmt.Sprintf("paragraph %d: legislation reference %q missing %s",
		e.Paragraph, e.Element, strings.Join(e.Missing, ", "))
}

// LegislationRef is a legislation reference already present in the markup.
type LegislationRef struct {
	Paragraph int    `json:"paragraph"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Text      string `json:"text"`
	Href      string `json:"href"`
	Canonical string `json:"canonical"`
}

var (
	legislationElementPattern = regexp.MustCompile(`(?s)<ref\s[^>]*?uk:type="legislation"[^>]*>.*?</ref>`)
	refExpression             = xpath.MustCompile("//ref")
)

// LegislationRefs reads the legislation <ref> elements in a paragraph.
// A tag missing href or uk:canonical yields a *MalformedReferenceError.
func LegislationRefs(paragraph Paragraph) ([]LegislationRef, error) {
	var legislationRefs []LegislationRef

	for _, elementIndices := range legislationElementPattern.FindAllStringIndex(paragraph.Text, -1) {
		element := paragraph.Text[elementIndices[0]:elementIndices[1]]

		root, err := xmlquery.Parse(strings.NewReader(element))
		if err != nil {
			return nil, &MalformedReferenceError{
				Paragraph: paragraph.Index,
				Element:   element,
				Missing:   []string{"well-formed markup"},
			}
		}
		refNode := xmlquery.QuerySelector(root, refExpression)
		if refNode == nil {
			continue
		}

		var href, canonical string
		var hasHref, hasCanonical bool
		for _, attribute := range refNode.Attr {
			switch attribute.Name.Local {
			case "href":
				href, hasHref = attribute.Value, true
			case "canonical":
				canonical, hasCanonical = attribute.Value, true
			}
		}

		var missing []string
		if !hasHref || href == "" {
			missing = append(missing, "href")
		}
		if !hasCanonical || canonical == "" {
			missing = append(missing, "uk:canonical")
		}
		if len(missing) > 0 {
			return nil, &MalformedReferenceError{Paragraph: paragraph.Index, Element: element, Missing: missing}
		}

		legislationRefs = append(legislationRefs, LegislationRef{
			Paragraph: paragraph.Index,
			Start:     elementIndices[0],
			End:       elementIndices[1],
			Text:      refNode.InnerText(),
			Href:      href,
			Canonical: canonical,
		})
	}

	return legislationRefs, nil
}
