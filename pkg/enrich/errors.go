package enrich

import "fmt"

// Stage names the pipeline step a document failed in.
type Stage string

const (
	StageParse       Stage = "parse"
	StageRead        Stage = "read"
	StageLegislation Stage = "legislation"
	StageOblique     Stage = "oblique"
	StageSplice      Stage = "splice"
	StageValidate    Stage = "validate"
	StageWrite       Stage = "write"
	StageCancelled   Stage = "cancelled"
	StagePanic       Stage = "panic"
)

// DocumentError is a failure confined to one document. The batch carries on
// and the document's original bytes are emitted unchanged.
type DocumentError struct {
	DocumentID string
	Stage      Stage
	Err        error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %s: %v", e.DocumentID, e.Stage, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
