// Package document splits judgment XML into paragraphs and reassembles it.
//
// Only the minimal structure needed to scope replacements is recognised:
// <p> elements (optionally namespace-prefixed). Every byte outside a
// paragraph's content is kept verbatim, so reassembling an untouched
// document reproduces the input exactly.
package document

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
)

// ErrNoParagraphs is returned by operations that need at least one paragraph.
var ErrNoParagraphs = errors.New("document has no paragraphs")

// Paragraph is the unit of detection locality and of edit application.
type Paragraph struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// segment is either verbatim bytes or a paragraph slot.
type segment struct {
	verbatim  string
	paragraph int // -1 for verbatim segments
}

// Document is a parsed judgment. It is created per input and never shared.
type Document struct {
	segments   []segment
	paragraphs []Paragraph
	isXML      bool
}

// paragraphTagPattern matches <p>, <p ...>, <akn:p ...>, </p>, <p/>.
// Captures: (1) closing slash, (2) qualified name, (3) self-closing slash.
var paragraphTagPattern = regexp.MustCompile(`<(/?)((?:[A-Za-z_][\w.\-]*:)?p)(?:\s[^>]*?)?(/?)>`)

// opaqueSectionPattern matches comments and CDATA sections, whose content is
// not markup.
var opaqueSectionPattern = regexp.MustCompile(`(?s)<!--.*?-->|<!\[CDATA\[.*?\]\]>`)

// Parse splits raw into paragraphs. Input that does not start with markup is
// treated as a single plain-text paragraph.
func Parse(raw []byte) *Document {
	source := string(raw)
	trimmed := strings.TrimLeft(source, " \t\r\n\ufeff")
	if !strings.HasPrefix(trimmed, "<") {
		if source == "" {
			return &Document{}
		}
		return &Document{
			segments:   []segment{{paragraph: 0}},
			paragraphs: []Paragraph{{Index: 0, Text: source}},
		}
	}

	parsedDocument := &Document{isXML: true}
	position := 0
	tagMatches := markupTags(source, paragraphTagPattern.FindAllStringSubmatchIndex(source, -1))

	for matchIndex := 0; matchIndex < len(tagMatches); matchIndex++ {
		openTag := tagMatches[matchIndex]
		isClosing := openTag[3] > openTag[2]
		isSelfClosing := openTag[7] > openTag[6]
		if isClosing || isSelfClosing || openTag[0] < position {
			continue
		}

		tagName := source[openTag[4]:openTag[5]]
		closeMatchIndex := findClosingTag(source, tagMatches, matchIndex, tagName)
		if closeMatchIndex < 0 {
			break
		}
		closeTag := tagMatches[closeMatchIndex]

		contentStart := openTag[1]
		contentEnd := closeTag[0]
		parsedDocument.appendVerbatim(source[position:contentStart])
		parsedDocument.appendParagraph(source[contentStart:contentEnd])
		position = contentEnd
		matchIndex = closeMatchIndex
	}

	parsedDocument.appendVerbatim(source[position:])
	return parsedDocument
}

// markupTags drops the tag matches that sit inside a comment or CDATA
// section.
func markupTags(source string, tagMatches [][]int) [][]int {
	opaqueSections := opaqueSectionPattern.FindAllStringIndex(source, -1)
	if len(opaqueSections) == 0 {
		return tagMatches
	}

	visible := tagMatches[:0]
	sectionIndex := 0
	for _, tag := range tagMatches {
		for sectionIndex < len(opaqueSections) && opaqueSections[sectionIndex][1] <= tag[0] {
			sectionIndex++
		}
		if sectionIndex < len(opaqueSections) &&
			opaqueSections[sectionIndex][0] < tag[1] && tag[0] < opaqueSections[sectionIndex][1] {
			continue
		}
		visible = append(visible, tag)
	}
	return visible
}

// findClosingTag returns the index in tagMatches of the tag closing the
// element opened at openIndex, tracking nested elements of the same name.
func findClosingTag(source string, tagMatches [][]int, openIndex int, tagName string) int {
	depth := 0
	for matchIndex := openIndex; matchIndex < len(tagMatches); matchIndex++ {
		tag := tagMatches[matchIndex]
		if source[tag[4]:tag[5]] != tagName || tag[7] > tag[6] {
			continue
		}
		if tag[3] > tag[2] {
			depth--
			if depth == 0 {
				return matchIndex
			}
		} else {
			depth++
		}
	}
	return -1
}

func (parsedDocument *Document) appendVerbatim(text string) {
	if text == "" {
		return
	}
	parsedDocument.segments = append(parsedDocument.segments, segment{verbatim: text, paragraph: -1})
}

func (parsedDocument *Document) appendParagraph(text string) {
	paragraphIndex := len(parsedDocument.paragraphs)
	parsedDocument.paragraphs = append(parsedDocument.paragraphs, Paragraph{Index: paragraphIndex, Text: text})
	parsedDocument.segments = append(parsedDocument.segments, segment{paragraph: paragraphIndex})
}

// Paragraphs returns a copy of the document's paragraphs in order.
func (parsedDocument *Document) Paragraphs() []Paragraph {
	paragraphs := make([]Paragraph, len(parsedDocument.paragraphs))
	copy(paragraphs, parsedDocument.paragraphs)
	return paragraphs
}

// ParagraphCount returns the number of paragraphs.
func (parsedDocument *Document) ParagraphCount() int {
	return len(parsedDocument.paragraphs)
}

// IsXML reports whether the input was parsed as markup.
func (parsedDocument *Document) IsXML() bool {
	return parsedDocument.isXML
}

// Bytes reassembles the document with its current paragraph texts.
func (parsedDocument *Document) Bytes() []byte {
	return parsedDocument.Rebuild(nil)
}

// Rebuild reassembles the document, taking paragraph texts from replaced
// where present and from the parsed paragraphs otherwise.
func (parsedDocument *Document) Rebuild(replaced map[int]string) []byte {
	var output bytes.Buffer
	for _, documentSegment := range parsedDocument.segments {
		if documentSegment.paragraph < 0 {
			output.WriteString(documentSegment.verbatim)
			continue
		}
		if paragraphText, ok := replaced[documentSegment.paragraph]; ok {
			output.WriteString(paragraphText)
			continue
		}
		output.WriteString(parsedDocument.paragraphs[documentSegment.paragraph].Text)
	}
	return output.Bytes()
}
