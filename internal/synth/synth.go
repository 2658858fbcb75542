// Package synth defines the boundary to the external text-synthesis
// collaborator. The pipeline only sees the Synthesizer interface; the
// production implementation talks to a remote model and the test
// implementation is deterministic, which keeps the classifier and the
// write pipeline unit-testable without network access.
package synth

import "context"

// Hint tells the collaborator what kind of change triggered the call.
type Hint string

const (
	HintNewFile          Hint = "new-file"
	HintContentOnly      Hint = "content-only"
	HintContentChanged   Hint = "content-changed"
	HintInterfaceChanged Hint = "interface-changed"
)

// Request carries everything the collaborator may use: the source, its
// rendered interface skeleton when one exists, and the prior editable
// block for continuity on regeneration.
type Request struct {
	Path      string
	Source    string
	Interface string // rendered skeleton text, empty for non-code files
	Prior     string // prior record editable block, empty on first generation
	Hint      Hint
}

// Result is a new editable-block payload.
type Result struct {
	Description string
	Body        string
}

// Synthesizer produces design record content. Any error or timeout is a
// recoverable per-file failure, never process-fatal.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
}
