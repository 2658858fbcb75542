// Package classify decides whether a design record needs regeneration.
// The decision is a pure function over hashes; it performs no I/O and
// holds no state, so a future concurrent scheduler can call it freely.
package classify

import "github.com/mirra-dev/mirra/internal/record"

// ChangeLevel is the six-state classification of what changed between
// runs for one source file and its mirrored record.
type ChangeLevel int

const (
	// Unchanged: source hash matches the footer; nothing to do.
	Unchanged ChangeLevel = iota
	// AgentUpdated: an external author owns the current record content.
	// Trust it, refresh footer hashes only, never synthesize.
	AgentUpdated
	// ContentOnly: source changed but its public interface did not.
	ContentOnly
	// ContentChanged: a non-code file (no extractable interface) changed.
	ContentChanged
	// InterfaceChanged: the source's public interface changed.
	InterfaceChanged
	// NewFile: no record exists yet at the mirrored path.
	NewFile
)

func (c ChangeLevel) String() string {
	switch c {
	case Unchanged:
		return "unchanged"
	case AgentUpdated:
		return "agent-updated"
	case ContentOnly:
		return "content-only"
	case ContentChanged:
		return "content-changed"
	case InterfaceChanged:
		return "interface-changed"
	case NewFile:
		return "new-file"
	default:
		return "unknown"
	}
}

// NeedsSynthesis reports whether the level invokes the synthesis
// collaborator. Unchanged and AgentUpdated never do.
func (c ChangeLevel) NeedsSynthesis() bool {
	switch c {
	case ContentOnly, ContentChanged, InterfaceChanged, NewFile:
		return true
	}
	return false
}

// Inputs carries everything the classifier reads: freshly computed
// source hashes and the current on-disk state of the record.
type Inputs struct {
	ContentHash   string
	InterfaceHash *string // nil for non-code files

	ArtifactExists bool
	Meta           *record.Metadata // nil when the record has no footer
	DesignHash     string           // hash of the record's current editable block
}

// Classify applies the decision table in order. The order is load
// bearing: an external author's edit (step 4) must win over automated
// regeneration regardless of what else changed, so it is checked before
// any comparison that could route the file into synthesis.
func Classify(in Inputs) ChangeLevel {
	// 1. No record at the mirrored path.
	if !in.ArtifactExists {
		return NewFile
	}

	// 2. Record exists but was authored without generation.
	if in.Meta == nil {
		return AgentUpdated
	}

	// 3. Source bytes identical to last generation.
	if in.ContentHash == in.Meta.SourceHash {
		return Unchanged
	}

	// 4. Someone edited the record directly since the last run.
	if in.DesignHash != in.Meta.DesignHash {
		return AgentUpdated
	}

	// 5. Non-code file: content is all we can compare.
	if in.InterfaceHash == nil {
		return ContentChanged
	}

	// 6. Interface stable, only implementation moved.
	if in.Meta.InterfaceHash != nil && *in.InterfaceHash == *in.Meta.InterfaceHash {
		return ContentOnly
	}

	// 7. Public interface changed (or the file just became code).
	return InterfaceChanged
}
