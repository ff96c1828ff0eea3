// Package legislation finds references to legislation titles in a judgment.
//
// Titles come from a read-only Table. Titles flagged for fuzzy matching are
// located through "Act <year>" anchors and a token-order-insensitive
// similarity score; every other title must appear literally. Candidates whose
// spans collide are then resolved to one reference per span.
package legislation

import (
	"sort"
	"strconv"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

// Record is one row of the legislation reference table.
type Record struct {
	Title     string `json:"candidate_title" yaml:"candidate_title"`
	Year      int    `json:"year" yaml:"year"`
	Canonical string `json:"canonical_citation" yaml:"canonical_citation"`
	Href      string `json:"href" yaml:"href"`
	ForFuzzy  bool   `json:"for_fuzzy" yaml:"for_fuzzy"`
}

// YearText returns the record year as a four-digit string, or "" when unset.
func (record Record) YearText() string {
	if record.Year <= 0 {
		return ""
	}
	return strconv.Itoa(record.Year)
}

// entry is a record with its title pre-tokenized for fuzzy matching.
type entry struct {
	record      Record
	titleLength int
	actName     string
	nameLength  int
}

// Table is the legislation reference table. It is built once per batch and
// is safe for concurrent reads.
type Table struct {
	entries []entry
	byYear  map[int][]int
}

// NewTable indexes records by year.
func NewTable(records []Record) *Table {
	titleTokenizer := token.NewRuleTokenizer()
	table := &Table{
		entries: make([]entry, 0, len(records)),
		byYear:  make(map[int][]int),
	}

	for _, record := range records {
		if record.Title == "" {
			continue
		}
		titleTokens := titleTokenizer.Tokenize(record.Title)
		nameTokens := titleTokens
		if len(nameTokens) > 1 && nameTokens[len(nameTokens)-1].IsYear {
			nameTokens = nameTokens[:len(nameTokens)-1]
		}
		titleSpan := token.NewSpan(record.Title, nameTokens)

		table.byYear[record.Year] = append(table.byYear[record.Year], len(table.entries))
		table.entries = append(table.entries, entry{
			record:      record,
			titleLength: len(titleTokens),
			actName:     titleSpan.Words(),
			nameLength:  len(nameTokens),
		})
	}

	return table
}

// Len returns the number of indexed records.
func (table *Table) Len() int {
	return len(table.entries)
}

// Records returns every indexed record.
func (table *Table) Records() []Record {
	records := make([]Record, len(table.entries))
	for entryIndex, tableEntry := range table.entries {
		records[entryIndex] = tableEntry.record
	}
	return records
}

// Years returns the distinct years present in the table, ascending.
func (table *Table) Years() []int {
	years := make([]int, 0, len(table.byYear))
	for year := range table.byYear {
		years = append(years, year)
	}
	sort.Ints(years)
	return years
}

// ForYears returns the records whose year is in years, in table order.
func (table *Table) ForYears(years map[int]bool) []Record {
	selected := table.entriesForYears(years)
	records := make([]Record, len(selected))
	for entryIndex, tableEntry := range selected {
		records[entryIndex] = tableEntry.record
	}
	return records
}

func (table *Table) entriesForYears(years map[int]bool) []entry {
	var entryIndices []int
	for year := range years {
		entryIndices = append(entryIndices, table.byYear[year]...)
	}
	sort.Ints(entryIndices)

	selected := make([]entry, len(entryIndices))
	for position, entryIndex := range entryIndices {
		selected[position] = table.entries[entryIndex]
	}
	return selected
}

// Years collects every four-digit numeric token in the document.
func Years(paragraphs []token.Tokenized) map[int]bool {
	years := make(map[int]bool)
	for _, paragraph := range paragraphs {
		for _, paragraphToken := range paragraph.Tokens {
			if !paragraphToken.IsYear {
				continue
			}
			if year, err := strconv.Atoi(paragraphToken.Text); err == nil {
				years[year] = true
			}
		}
	}
	return years
}
