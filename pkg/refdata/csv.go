package refdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/legislation"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/ukleg"
)

// Columns every import file must carry, in any order.
var requiredColumns = []string{"candidate_title", "year", "canonical_citation", "href", "for_fuzzy"}

// RowError reports a CSV row that could not be imported.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// ParseCSV reads legislation rows from a CSV file with a header line.
// Titles are trimmed and NFC-normalised; hrefs are normalised to the
// canonical legislation.gov.uk form. An empty year is stored as 0.
func ParseCSV(reader io.Reader) ([]legislation.Record, error) {
	csvReader := csv.NewReader(reader)
	csvReader.FieldsPerRecord = -1

	header, err := csvReader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty legislation file")
		}
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columnIndex := make(map[string]int, len(header))
	for headerIndex, columnName := range header {
		columnIndex[strings.TrimSpace(strings.TrimPrefix(columnName, "\ufeff"))] = headerIndex
	}
	for _, columnName := range requiredColumns {
		if _, ok := columnIndex[columnName]; !ok {
			return nil, fmt.Errorf("missing column %q", columnName)
		}
	}

	var records []legislation.Record
	for {
		row, err := csvReader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading legislation file: %w", err)
		}
		line, _ := csvReader.FieldPos(0)

		field := func(columnName string) string {
			fieldIndex := columnIndex[columnName]
			if fieldIndex >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[fieldIndex])
		}

		title := norm.NFC.String(field("candidate_title"))
		if title == "" {
			continue
		}

		year := 0
		if yearText := field("year"); yearText != "" {
			parsedYear, err := strconv.ParseFloat(yearText, 64)
			if err != nil {
				return nil, &RowError{Line: line, Err: fmt.Errorf("year %q: %w", yearText, err)}
			}
			year = int(parsedYear)
		}

		forFuzzy, err := parseFlag(field("for_fuzzy"))
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}

		records = append(records, legislation.Record{
			Title:     title,
			Year:      year,
			Canonical: norm.NFC.String(field("canonical_citation")),
			Href:      ukleg.NormalizeLegislationHref(field("href")),
			ForFuzzy:  forFuzzy,
		})
	}
	return records, nil
}

// ImportCSV parses a CSV file and upserts its rows. It returns the number
// of rows written.
func (store *Store) ImportCSV(ctx context.Context, reader io.Reader) (int, error) {
	records, err := ParseCSV(reader)
	if err != nil {
		return 0, err
	}
	if err := store.Upsert(ctx, records, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return 0, err
	}
	return len(records), nil
}

func parseFlag(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "", "0", "false", "f", "no", "n":
		return false, nil
	case "1", "true", "t", "yes", "y":
		return true, nil
	default:
		return false, fmt.Errorf("for_fuzzy %q is not a boolean", value)
	}
}
