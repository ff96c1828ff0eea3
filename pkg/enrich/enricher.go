// Package enrich runs the enrichment pipeline over judgments: tokenize,
// detect abbreviations, legislation, oblique references and case
// citations, splice the markup in and check the result is still
// well-formed.
//
// Per-document processing is all-or-nothing. EnrichOrOriginal and Batch
// emit the original bytes for any document that fails.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/abbreviation"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/citation"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/document"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/legislation"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/logging"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/oblique"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/splice"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/token"
)

// Result is the outcome of enriching one document.
type Result struct {
	DocumentID   string                 `json:"document_id"`
	Output       []byte                 `json:"-"`
	Detections   []reference.Detected   `json:"-"`
	Counts       map[reference.Kind]int `json:"counts"`
	Replacements int                    `json:"replacements"`
	Changed      bool                   `json:"changed"`
	Duration     time.Duration          `json:"duration"`
}

// Enricher holds the shared, read-only collaborators of the pipeline. It
// keeps no per-document state and is safe for concurrent use.
type Enricher struct {
	tokenizer     token.Tokenizer
	abbreviations *abbreviation.Resolver
	legislation   *legislation.Resolver
	citations     *citation.Resolver
	logger        *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithTokenizer replaces the default rule tokenizer.
func WithTokenizer(tokenizer token.Tokenizer) Option {
	return func(enricher *Enricher) { enricher.tokenizer = tokenizer }
}

// WithAbbreviationOptions sets the abbreviation candidate bounds.
func WithAbbreviationOptions(options abbreviation.Options) Option {
	return func(enricher *Enricher) { enricher.abbreviations = abbreviation.NewResolver(options) }
}

// WithCitations enables case citation detection over the given rules.
func WithCitations(rules citation.RuleSet) Option {
	return func(enricher *Enricher) { enricher.citations = citation.NewResolver(rules) }
}

// WithLogger sets the logger. Run and document IDs from the context are
// attached to every record.
func WithLogger(logger *slog.Logger) Option {
	return func(enricher *Enricher) { enricher.logger = logger }
}

// New creates an Enricher matching legislation against table.
func New(table *legislation.Table, legislationOptions legislation.Options, options ...Option) *Enricher {
	enricher := &Enricher{
		tokenizer:     token.NewRuleTokenizer(),
		abbreviations: abbreviation.NewResolver(abbreviation.DefaultOptions()),
		legislation:   legislation.NewResolver(table, legislationOptions),
		logger:        slog.Default(),
	}
	for _, option := range options {
		option(enricher)
	}
	return enricher
}

// Detect runs every detector over the document and returns the detections
// in reading order without splicing them.
func (enricher *Enricher) Detect(ctx context.Context, documentID string, raw []byte) ([]reference.Detected, error) {
	parsedDocument := document.Parse(raw)
	if parsedDocument.ParagraphCount() == 0 {
		return nil, &DocumentError{DocumentID: documentID, Stage: StageParse, Err: document.ErrNoParagraphs}
	}
	return enricher.detect(ctx, documentID, parsedDocument.Paragraphs())
}

func (enricher *Enricher) detect(ctx context.Context, documentID string, paragraphs []document.Paragraph) ([]reference.Detected, error) {
	tokenized := make([]token.Tokenized, len(paragraphs))
	for paragraphIndex, paragraph := range paragraphs {
		tokenized[paragraphIndex] = token.TokenizeParagraph(enricher.tokenizer, paragraph.Index, paragraph.Text)
	}

	var detections []reference.Detected
	for _, abbreviationRef := range enricher.abbreviations.Resolve(tokenized) {
		detections = append(detections, abbreviationRef)
	}

	if err := ctx.Err(); err != nil {
		return nil, &DocumentError{DocumentID: documentID, Stage: StageCancelled, Err: err}
	}
	legislationRefs, err := enricher.legislation.Resolve(tokenized)
	if err != nil {
		return nil, &DocumentError{DocumentID: documentID, Stage: StageLegislation, Err: err}
	}
	for _, legislationRef := range legislationRefs {
		detections = append(detections, legislationRef)
	}

	existingRefs, err := oblique.FromEnriched(paragraphs)
	if err != nil {
		return nil, &DocumentError{DocumentID: documentID, Stage: StageOblique, Err: err}
	}
	antecedents := append(existingRefs, oblique.FromLegislation(legislationRefs)...)
	for _, obliqueRef := range oblique.Resolve(paragraphs, antecedents) {
		detections = append(detections, obliqueRef)
	}

	if enricher.citations != nil {
		for _, caselawRef := range enricher.citations.Resolve(paragraphs) {
			detections = append(detections, caselawRef)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, &DocumentError{DocumentID: documentID, Stage: StageCancelled, Err: err}
	}
	return detections, nil
}

// Enrich runs the full pipeline. On error the returned result is nil and the
// document must be emitted unchanged.
func (enricher *Enricher) Enrich(ctx context.Context, documentID string, raw []byte) (*Result, error) {
	startedAt := time.Now()
	logger := logging.FromContext(logging.WithDocumentID(ctx, documentID), enricher.logger)
	if err := ctx.Err(); err != nil {
		return nil, &DocumentError{DocumentID: documentID, Stage: StageCancelled, Err: err}
	}

	parsedDocument := document.Parse(raw)
	if parsedDocument.ParagraphCount() == 0 {
		return nil, &DocumentError{DocumentID: documentID, Stage: StageParse, Err: document.ErrNoParagraphs}
	}
	paragraphs := parsedDocument.Paragraphs()

	detections, err := enricher.detect(ctx, documentID, paragraphs)
	if err != nil {
		return nil, err
	}

	replacements := reference.Replacements(detections)
	changedParagraphs, err := splice.Apply(paragraphs, replacements)
	if err != nil {
		return nil, &DocumentError{DocumentID: documentID, Stage: StageSplice, Err: err}
	}
	output := parsedDocument.Rebuild(changedParagraphs)

	// Only input that was well-formed to begin with is held to it.
	if parsedDocument.IsXML() && len(changedParagraphs) > 0 && document.CheckWellFormed(raw) == nil {
		if err := document.CheckWellFormed(output); err != nil {
			return nil, &DocumentError{DocumentID: documentID, Stage: StageValidate, Err: fmt.Errorf("enriched output: %w", err)}
		}
	}

	counts := make(map[reference.Kind]int)
	for _, detection := range detections {
		counts[detection.Kind()]++
	}

	result := &Result{
		DocumentID:   documentID,
		Output:       output,
		Detections:   detections,
		Counts:       counts,
		Replacements: len(replacements),
		Changed:      len(changedParagraphs) > 0,
		Duration:     time.Since(startedAt),
	}
	logger.Debug("document enriched",
		"paragraphs", len(paragraphs),
		"abbreviations", counts[reference.KindAbbreviation],
		"legislation", counts[reference.KindLegislation],
		"oblique", counts[reference.KindOblique],
		"caselaw", counts[reference.KindCaselaw],
		"duration_ms", result.Duration.Milliseconds())
	return result, nil
}

// EnrichOrOriginal enriches raw and falls back to raw itself on any error.
// The error is still returned so the caller can record it.
func (enricher *Enricher) EnrichOrOriginal(ctx context.Context, documentID string, raw []byte) ([]byte, *Result, error) {
	result, err := enricher.Enrich(ctx, documentID, raw)
	if err != nil {
		logging.FromContext(logging.WithDocumentID(ctx, documentID), enricher.logger).
			Warn("enrichment failed, emitting original", "error", err)
		return raw, nil, err
	}
	return result.Output, result, nil
}
