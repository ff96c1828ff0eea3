package document

import (
	"regexp"
	"sort"
	"strings"
)

// Range is a half-open byte range [Start, End) of paragraph text.
type Range struct {
	Start int
	End   int
}

// Intersects reports whether [start, end) shares a byte with the range.
func (textRange Range) Intersects(start, end int) bool {
	return start < textRange.End && textRange.Start < end
}

var (
	tagPattern            = regexp.MustCompile(`<[^>]*>`)
	enrichedElementOpener = regexp.MustCompile(`<(ref|abbr)(?:\s[^>]*)?>`)
)

// MarkupRanges returns the parts of text that enrichment must not touch:
// every tag, and the whole of every <ref> and <abbr> element. The ranges
// are sorted by start and may overlap.
func MarkupRanges(text string) []Range {
	var ranges []Range
	for _, tagIndices := range tagPattern.FindAllStringIndex(text, -1) {
		ranges = append(ranges, Range{Start: tagIndices[0], End: tagIndices[1]})
	}

	for _, openerIndices := range enrichedElementOpener.FindAllStringSubmatchIndex(text, -1) {
		elementName := text[openerIndices[2]:openerIndices[3]]
		closeTag := "</" + elementName + ">"
		closeOffset := indexFrom(text, closeTag, openerIndices[1])
		if closeOffset < 0 {
			continue
		}
		ranges = append(ranges, Range{Start: openerIndices[0], End: closeOffset + len(closeTag)})
	}

	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start < ranges[j].Start })
	return ranges
}

// InsideMarkup reports whether [start, end) intersects any of ranges.
func InsideMarkup(ranges []Range, start, end int) bool {
	for _, textRange := range ranges {
		if textRange.Start >= end {
			break
		}
		if textRange.Intersects(start, end) {
			return true
		}
	}
	return false
}

func indexFrom(text, target string, from int) int {
	if from > len(text) {
		return -1
	}
	offset := strings.Index(text[from:], target)
	if offset < 0 {
		return -1
	}
	return from + offset
}
