// Package pipeline orchestrates one file's record update: conflict
// guard, classification, the synthesis call, the post-call re-check,
// the atomic write, and the serialized aggregate update.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mirra-dev/mirra/internal/aggregate"
	"github.com/mirra-dev/mirra/internal/canon"
	"github.com/mirra-dev/mirra/internal/classify"
	"github.com/mirra-dev/mirra/internal/fileutil"
	"github.com/mirra-dev/mirra/internal/hashes"
	"github.com/mirra-dev/mirra/internal/parser"
	"github.com/mirra-dev/mirra/internal/record"
	"github.com/mirra-dev/mirra/internal/synth"
)

// conflictMarker flags an unresolved merge. Intentionally narrow: only
// a line beginning with seven '<' characters counts. Other marker
// styles are a documented limitation, not a bug to fix here.
var conflictMarker = []byte("<<<<<<<")

// Action is what the pipeline actually did for one file.
type Action int

const (
	// ActionNone: record already current.
	ActionNone Action = iota
	// ActionGenerated: synthesis ran and the record was rewritten.
	ActionGenerated
	// ActionRefreshed: footer hashes updated, editable content untouched.
	ActionRefreshed
	// ActionConflict: source holds a merge marker; file skipped entirely.
	ActionConflict
	// ActionDiscarded: synthesis output thrown away because the record
	// was edited during the call; footer refreshed around the edit.
	ActionDiscarded
	// ActionFailed: synthesis or write failed; record left as it was.
	ActionFailed
	// ActionPlanned: dry run; reports what a real run would do.
	ActionPlanned
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionGenerated:
		return "generated"
	case ActionRefreshed:
		return "refreshed"
	case ActionConflict:
		return "conflict"
	case ActionDiscarded:
		return "discarded"
	case ActionFailed:
		return "failed"
	case ActionPlanned:
		return "planned"
	default:
		return "unknown"
	}
}

// Result describes the outcome for one file.
type Result struct {
	Path   string
	Level  classify.ChangeLevel
	Action Action
}

// Pipeline holds the collaborators one run shares across files. The
// classifier and hash engine are pure, so the same Pipeline value is
// safe for a future worker pool; only the per-directory locks contend.
type Pipeline struct {
	Root       string // source tree root (absolute)
	RecordsDir string // records mirror root (absolute)
	Registry   *parser.Registry
	Warnings   *parser.Warnings
	Synth      synth.Synthesizer
	Aggregate  aggregate.Updater
	Generator  string // generator version tag written into footers
	DryRun     bool
	Log        io.Writer

	locks dirLocks
}

func (p *Pipeline) logf(format string, args ...any) {
	out := p.Log
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintf(out, format+"\n", args...)
}

// HasConflictMarker reports whether any line of content begins with the
// unresolved-merge marker.
func HasConflictMarker(content []byte) bool {
	for _, line := range bytes.Split(content, []byte("\n")) {
		if bytes.HasPrefix(line, conflictMarker) {
			return true
		}
	}
	return false
}

// ProcessFile brings the record for one source file up to date. relPath
// is slash-separated relative to Root. Synthesis failures and write
// failures come back as errors scoped to this file; the caller decides
// whether to continue with other files (it should).
func (p *Pipeline) ProcessFile(ctx context.Context, relPath string) (Result, error) {
	res := Result{Path: relPath}

	srcPath := filepath.Join(p.Root, filepath.FromSlash(relPath))
	content, err := os.ReadFile(srcPath)
	if err != nil {
		res.Action = ActionFailed
		return res, fmt.Errorf("failed to read %s: %w", relPath, err)
	}

	// Conflict guard runs before anything else so half-merged code never
	// reaches the synthesis collaborator and never disturbs the footer.
	if HasConflictMarker(content) {
		p.logf("warning: %s contains an unresolved merge conflict, skipping", relPath)
		res.Action = ActionConflict
		return res, nil
	}

	skeleton, _ := p.Registry.ExtractFile(relPath, content, p.Warnings)
	fh := hashes.FileHashes{Content: hashes.ContentHash(content)}
	rendered := ""
	if skeleton != nil {
		rendered = canon.Render(skeleton)
		ih := hashes.ContentHash([]byte(rendered))
		fh.Interface = &ih
	}

	mirrorPath := record.MirrorPath(p.RecordsDir, relPath)
	artifact, exists, err := record.ReadFile(mirrorPath)
	if err != nil {
		res.Action = ActionFailed
		return res, fmt.Errorf("failed to read record for %s: %w", relPath, err)
	}

	in := classify.Inputs{
		ContentHash:    fh.Content,
		InterfaceHash:  fh.Interface,
		ArtifactExists: exists,
	}
	if exists {
		in.Meta = artifact.Meta
		in.DesignHash = artifact.EditableHash()
	}
	res.Level = classify.Classify(in)

	if p.DryRun {
		res.Action = ActionPlanned
		return res, nil
	}

	switch {
	case res.Level == classify.Unchanged:
		res.Action = ActionNone
		return res, nil

	case res.Level == classify.AgentUpdated:
		// Trust the external author: keep their content, attach or
		// refresh the footer so future runs compare against it.
		if err := p.refreshFooter(mirrorPath, artifact, relPath, fh); err != nil {
			res.Action = ActionFailed
			return res, err
		}
		res.Action = ActionRefreshed
		return res, p.updateAggregate(mirrorPath, relPath, artifact.Description())

	default:
		return p.regenerate(ctx, res, mirrorPath, relPath, content, rendered, fh, artifact, exists)
	}
}

// regenerate runs the synthesis call with the snapshot / re-check
// discipline around it.
func (p *Pipeline) regenerate(
	ctx context.Context,
	res Result,
	mirrorPath, relPath string,
	content []byte,
	rendered string,
	fh hashes.FileHashes,
	artifact *record.Artifact,
	existed bool,
) (Result, error) {
	// Snapshot the editable content before the expensive call.
	snapshot := ""
	prior := ""
	if existed {
		snapshot = artifact.EditableHash()
		prior = string(artifact.Editable)
	}

	req := synth.Request{
		Path:      relPath,
		Source:    string(content),
		Interface: rendered,
		Prior:     prior,
		Hint:      hintFor(res.Level),
	}
	out, err := p.Synth.Synthesize(ctx, req)
	if err != nil {
		res.Action = ActionFailed
		return res, fmt.Errorf("synthesis failed for %s: %w", relPath, err)
	}

	// Re-check: did anyone touch the record while the call was in
	// flight? Their edit wins; the synthesis result is discarded.
	current, existsNow, err := record.ReadFile(mirrorPath)
	if err != nil {
		res.Action = ActionFailed
		return res, fmt.Errorf("failed to re-read record for %s: %w", relPath, err)
	}
	currentHash := ""
	if existsNow {
		currentHash = current.EditableHash()
	}
	if currentHash != snapshot {
		p.logf("info: %s was edited during synthesis, keeping the edit", relPath)
		res.Action = ActionDiscarded
		if !existsNow {
			// The record was deleted mid-call. Respect the deletion.
			return res, nil
		}
		if err := p.refreshFooter(mirrorPath, current, relPath, fh); err != nil {
			res.Action = ActionFailed
			return res, err
		}
		return res, p.updateAggregate(mirrorPath, relPath, current.Description())
	}

	editable := record.ComposeEditable(out.Description, out.Body)
	data := record.Compose(editable, record.Metadata{
		SourcePath:    relPath,
		SourceHash:    fh.Content,
		InterfaceHash: fh.Interface,
		GeneratedAt:   time.Now().UTC(),
		Generator:     p.Generator,
	})
	if err := fileutil.AtomicWrite(mirrorPath, data, 0644); err != nil {
		res.Action = ActionFailed
		return res, fmt.Errorf("failed to write record for %s: %w", relPath, err)
	}

	res.Action = ActionGenerated
	return res, p.updateAggregate(mirrorPath, relPath, out.Description)
}

// refreshFooter rewrites the record with its current editable content
// and a footer carrying the freshly computed source hashes.
func (p *Pipeline) refreshFooter(mirrorPath string, artifact *record.Artifact, relPath string, fh hashes.FileHashes) error {
	data := record.Compose(artifact.Editable, record.Metadata{
		SourcePath:    relPath,
		SourceHash:    fh.Content,
		InterfaceHash: fh.Interface,
		GeneratedAt:   time.Now().UTC(),
		Generator:     p.Generator,
	})
	if err := fileutil.AtomicWrite(mirrorPath, data, 0644); err != nil {
		return fmt.Errorf("failed to refresh record for %s: %w", relPath, err)
	}
	return nil
}

// updateAggregate serializes the directory-level index update. The lock
// is scoped to the record's parent directory so only siblings contend.
func (p *Pipeline) updateAggregate(mirrorPath, relPath, description string) error {
	if p.Aggregate == nil {
		return nil
	}
	dir := filepath.Dir(mirrorPath)
	lock := p.locks.get(dir)
	lock.Lock()
	defer lock.Unlock()
	return p.Aggregate.SetEntry(dir, filepath.Base(relPath), description)
}

func hintFor(level classify.ChangeLevel) synth.Hint {
	switch level {
	case classify.ContentOnly:
		return synth.HintContentOnly
	case classify.ContentChanged:
		return synth.HintContentChanged
	case classify.InterfaceChanged:
		return synth.HintInterfaceChanged
	default:
		return synth.HintNewFile
	}
}
