package enrich

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/logging"
	"github.com/nationalarchives/ds-caselaw-data-enrichment-service-sub000/pkg/reference"
)

// Input is one document to enrich. Data, when set, is used instead of
// reading Path. Paths ending in ".xz" are decompressed.
type Input struct {
	ID   string
	Path string
	Data []byte
}

// InputsFromPaths builds inputs whose IDs are the file names without the
// ".xz" and ".xml" extensions.
func InputsFromPaths(paths []string) []Input {
	inputs := make([]Input, 0, len(paths))
	for _, path := range paths {
		inputs = append(inputs, Input{ID: documentIDFromPath(path), Path: path})
	}
	return inputs
}

func documentIDFromPath(path string) string {
	baseName := strings.TrimSuffix(filepath.Base(path), ".xz")
	return strings.TrimSuffix(baseName, filepath.Ext(baseName))
}

// DocumentReport records what happened to one document.
type DocumentReport struct {
	DocumentID string                 `json:"document_id"`
	Input      string                 `json:"input,omitempty"`
	Output     string                 `json:"output,omitempty"`
	InputHash  string                 `json:"input_blake3,omitempty"`
	OutputHash string                 `json:"output_blake3,omitempty"`
	Changed    bool                   `json:"changed"`
	Counts     map[reference.Kind]int `json:"counts,omitempty"`
	Stage      Stage                  `json:"failed_stage,omitempty"`
	Error      string                 `json:"error,omitempty"`
	DurationMS int64                  `json:"duration_ms"`
}

// Failed reports whether the document fell back to its original bytes.
func (documentReport DocumentReport) Failed() bool {
	return documentReport.Error != ""
}

// Report summarises a batch run.
type Report struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Succeeded  int              `json:"succeeded"`
	Failed     int              `json:"failed"`
	Documents  []DocumentReport `json:"documents"`
}

// Batch enriches many documents concurrently. Document failures are
// recorded in the report and never abort the run.
type Batch struct {
	enricher  *Enricher
	workers   int
	timeout   time.Duration
	outputDir string
	logger    *slog.Logger
}

// BatchConfig configures a Batch.
type BatchConfig struct {
	// Workers is the number of documents processed at once.
	Workers int

	// DocumentTimeout bounds each document. Zero means no limit.
	DocumentTimeout time.Duration

	// OutputDir receives one output file per input. Empty means outputs
	// are only hashed, not written.
	OutputDir string

	Logger *slog.Logger
}

// NewBatch creates a batch runner around enricher.
func NewBatch(enricher *Enricher, config BatchConfig) *Batch {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{
		enricher:  enricher,
		workers:   config.Workers,
		timeout:   config.DocumentTimeout,
		outputDir: config.OutputDir,
		logger:    logger,
	}
}

// Run enriches every input. The report lists documents in input order.
// An error is returned only when the run itself cannot proceed, for
// example when the output directory cannot be created.
func (batch *Batch) Run(ctx context.Context, inputs []Input) (*Report, error) {
	if batch.outputDir != "" {
		if err := os.MkdirAll(batch.outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating output directory: %w", err)
		}
	}

	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
		Documents: make([]DocumentReport, len(inputs)),
	}
	for inputIndex, input := range inputs {
		report.Documents[inputIndex] = DocumentReport{
			DocumentID: input.ID,
			Input:      input.Path,
			Stage:      StageCancelled,
			Error:      "not processed",
		}
	}

	runCtx := logging.WithRunID(ctx, report.RunID)
	logger := logging.FromContext(runCtx, batch.logger)
	logger.Info("batch started", "documents", len(inputs), "workers", batch.workers)

	pool := NewWorkerPool(batch.workers, 0)
	pool.Start(runCtx)
	for inputIndex := range inputs {
		inputIndex := inputIndex
		err := pool.Submit(runCtx, func(workerCtx context.Context) {
			report.Documents[inputIndex] = batch.process(workerCtx, inputs[inputIndex])
		})
		if err != nil {
			logger.Warn("batch interrupted", "error", err, "submitted", inputIndex)
			break
		}
	}
	pool.Close()

	for _, documentReport := range report.Documents {
		if documentReport.Failed() {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	report.FinishedAt = time.Now().UTC()
	logger.Info("batch finished", "succeeded", report.Succeeded, "failed", report.Failed,
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds())
	return report, nil
}

// process enriches one input. It never panics and always emits an output:
// the enriched document, or the original bytes when enrichment failed.
func (batch *Batch) process(ctx context.Context, input Input) (documentReport DocumentReport) {
	startedAt := time.Now()
	documentReport = DocumentReport{DocumentID: input.ID, Input: input.Path}
	documentCtx := logging.WithDocumentID(ctx, input.ID)
	logger := logging.FromContext(documentCtx, batch.logger)

	defer func() {
		if recovered := recover(); recovered != nil {
			documentReport.Stage = StagePanic
			documentReport.Error = fmt.Sprint(recovered)
			logger.Error("document panicked", "panic", recovered)
		}
		documentReport.DurationMS = time.Since(startedAt).Milliseconds()
	}()

	raw, err := ReadInput(input)
	if err != nil {
		documentReport.Stage = StageRead
		documentReport.Error = err.Error()
		logger.Warn("document not read", "error", err)
		return documentReport
	}
	documentReport.InputHash = hashHex(raw)

	if batch.timeout > 0 {
		var cancel context.CancelFunc
		documentCtx, cancel = context.WithTimeout(documentCtx, batch.timeout)
		defer cancel()
	}

	output, result, err := batch.enricher.EnrichOrOriginal(documentCtx, input.ID, raw)
	if err != nil {
		documentReport.Error = err.Error()
		documentReport.Stage = StageParse
		var documentErr *DocumentError
		if errors.As(err, &documentErr) {
			documentReport.Stage = documentErr.Stage
		}
	} else {
		documentReport.Changed = result.Changed
		documentReport.Counts = result.Counts
	}
	documentReport.OutputHash = hashHex(output)

	if batch.outputDir != "" {
		outputPath := filepath.Join(batch.outputDir, outputName(input))
		if err := os.WriteFile(outputPath, output, 0o644); err != nil {
			documentReport.Stage = StageWrite
			documentReport.Error = err.Error()
			logger.Error("output not written", "path", outputPath, "error", err)
			return documentReport
		}
		documentReport.Output = outputPath
	}
	return documentReport
}

// ReadInput returns the input's bytes, decompressing ".xz" files.
func ReadInput(input Input) ([]byte, error) {
	if input.Data != nil {
		return input.Data, nil
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", input.Path, err)
	}
	if !strings.HasSuffix(input.Path, ".xz") {
		return data, nil
	}

	xzReader, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening xz stream %s: %w", input.Path, err)
	}
	decompressed, err := io.ReadAll(xzReader)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", input.Path, err)
	}
	return decompressed, nil
}

func outputName(input Input) string {
	if input.Path == "" {
		return input.ID + ".xml"
	}
	return strings.TrimSuffix(filepath.Base(input.Path), ".xz")
}

func hashHex(data []byte) string {
	digest := blake3.Sum256(data)
	return hex.EncodeToString(digest[:])
}
