// Package refdata stores the legislation reference table in SQLite.
//
// The pure Go modernc.org/sqlite driver is used by default; building with
// -tags cgo_sqlite switches to mattn/go-sqlite3.
package refdata

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/legislation"
)

//go:embed schema.sql
var schemaSQL string

// DriverType reports which SQLite driver the binary was built with:
// "purego" or "cgo".
func DriverType() string {
	return driverType
}

// Store is the legislation table backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (store *Store) Close() error {
	return store.db.Close()
}

func (store *Store) migrate(ctx context.Context) error {
	for _, statement := range strings.Split(schemaSQL, ";") {
		statement = strings.TrimSpace(statement)
		if statement == "" {
			continue
		}
		if _, err := store.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// Count returns the number of legislation rows.
func (store *Store) Count(ctx context.Context) (int, error) {
	var rowCount int
	if err := store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM legislation`).Scan(&rowCount); err != nil {
		return 0, fmt.Errorf("counting legislation: %w", err)
	}
	return rowCount, nil
}

// Upsert inserts records, replacing any row with the same title.
func (store *Store) Upsert(ctx context.Context, records []legislation.Record, importedAt string) error {
	transaction, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import: %w", err)
	}
	defer transaction.Rollback()

	statement, err := transaction.PrepareContext(ctx, `
		INSERT INTO legislation (candidate_title, year, canonical_citation, href, for_fuzzy, imported_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(candidate_title) DO UPDATE SET
			year = excluded.year,
			canonical_citation = excluded.canonical_citation,
			href = excluded.href,
			for_fuzzy = excluded.for_fuzzy,
			imported_at = excluded.imported_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer statement.Close()

	for _, record := range records {
		if _, err := statement.ExecContext(ctx, record.Title, record.Year, record.Canonical,
			record.Href, boolToInt(record.ForFuzzy), importedAt); err != nil {
			return fmt.Errorf("upserting %q: %w", record.Title, err)
		}
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	return nil
}

// LoadLegislation returns every row ordered by title.
func (store *Store) LoadLegislation(ctx context.Context) ([]legislation.Record, error) {
	return store.queryRecords(ctx, `
		SELECT candidate_title, year, canonical_citation, href, for_fuzzy
		FROM legislation ORDER BY candidate_title`)
}

// LegislationForYears returns the rows whose year is in years, ordered by
// title.
func (store *Store) LegislationForYears(ctx context.Context, years map[int]bool) ([]legislation.Record, error) {
	if len(years) == 0 {
		return nil, nil
	}

	yearValues := make([]int, 0, len(years))
	for year := range years {
		yearValues = append(yearValues, year)
	}
	sort.Ints(yearValues)

	placeholders := make([]string, len(yearValues))
	arguments := make([]any, len(yearValues))
	for yearIndex, year := range yearValues {
		placeholders[yearIndex] = "?"
		arguments[yearIndex] = year
	}

	query := `SELECT candidate_title, year, canonical_citation, href, for_fuzzy
		FROM legislation WHERE year IN (` + strings.Join(placeholders, ",") + `)
		ORDER BY candidate_title`
	return store.queryRecords(ctx, query, arguments...)
}

// LoadTable builds the in-memory legislation table from every row.
func (store *Store) LoadTable(ctx context.Context) (*legislation.Table, error) {
	records, err := store.LoadLegislation(ctx)
	if err != nil {
		return nil, err
	}
	return legislation.NewTable(records), nil
}

func (store *Store) queryRecords(ctx context.Context, query string, arguments ...any) ([]legislation.Record, error) {
	rows, err := store.db.QueryContext(ctx, query, arguments...)
	if err != nil {
		return nil, fmt.Errorf("querying legislation: %w", err)
	}
	defer rows.Close()

	var records []legislation.Record
	for rows.Next() {
		var record legislation.Record
		var forFuzzy int
		if err := rows.Scan(&record.Title, &record.Year, &record.Canonical, &record.Href, &forFuzzy); err != nil {
			return nil, fmt.Errorf("scanning legislation row: %w", err)
		}
		record.ForFuzzy = forFuzzy != 0
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading legislation rows: %w", err)
	}
	return records, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
