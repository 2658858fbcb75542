package pipeline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mirra-dev/mirra/internal/aggregate"
	"github.com/mirra-dev/mirra/internal/classify"
	"github.com/mirra-dev/mirra/internal/parser"
	"github.com/mirra-dev/mirra/internal/record"
	"github.com/mirra-dev/mirra/internal/synth"
)

// lineExtractor derives the interface from lines starting with "fn ";
// all other lines are implementation. That makes interface-only and
// body-only edits trivial to stage in tests.
type lineExtractor struct{}

func (lineExtractor) Language() string {
	return "mock"
}

func (lineExtractor) Extensions() []string {
	return []string{".mock"}
}

func (lineExtractor) Extract(filename string, content []byte) (*parser.Skeleton, error) {
	skeleton := &parser.Skeleton{Language: "mock"}
	for _, line := range strings.Split(string(content), "\n") {
		if name, ok := strings.CutPrefix(line, "fn "); ok {
			skeleton.Functions = append(skeleton.Functions, parser.Function{Name: name})
		}
	}
	return skeleton, nil
}

type env struct {
	pipeline *Pipeline
	fake     *synth.Fake
	root     string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	root := t.TempDir()

	registry := parser.NewRegistry()
	registry.Register(lineExtractor{})

	fake := &synth.Fake{}
	p := &Pipeline{
		Root:       root,
		RecordsDir: filepath.Join(root, ".mirra", "records"),
		Registry:   registry,
		Warnings:   parser.NewWarnings(io.Discard),
		Synth:      fake,
		Aggregate:  aggregate.NewMarkdownIndex(),
		Generator:  "test-v1",
		Log:        io.Discard,
	}
	return &env{pipeline: p, fake: fake, root: root}
}

func (e *env) writeSource(t *testing.T, relPath, content string) {
	t.Helper()
	path := filepath.Join(e.root, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func (e *env) recordPath(relPath string) string {
	return record.MirrorPath(e.pipeline.RecordsDir, relPath)
}

func (e *env) readRecord(t *testing.T) *record.Artifact {
	t.Helper()
	artifact, exists, err := record.ReadFile(e.recordPath("app.mock"))
	if err != nil || !exists {
		t.Fatalf("expected record to exist: %v", err)
	}
	return artifact
}

func TestProcessFileNewFile(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\nbody line\n")

	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res.Level != classify.NewFile || res.Action != ActionGenerated {
		t.Fatalf("expected new-file generation, got level=%s action=%s", res.Level, res.Action)
	}
	if e.fake.Calls() != 1 {
		t.Fatalf("expected one synthesis call, got %d", e.fake.Calls())
	}
	if got := e.fake.Requests()[0].Hint; got != synth.HintNewFile {
		t.Fatalf("expected new-file hint, got %s", got)
	}

	artifact := e.readRecord(t)
	if artifact.Meta == nil {
		t.Fatalf("expected generated record to carry a footer")
	}
	if artifact.Meta.SourcePath != "app.mock" || artifact.Meta.Generator != "test-v1" {
		t.Fatalf("unexpected metadata %+v", artifact.Meta)
	}
	if artifact.Meta.InterfaceHash == nil {
		t.Fatalf("expected an interface hash for a code file")
	}

	index, err := os.ReadFile(filepath.Join(filepath.Dir(e.recordPath("app.mock")), aggregate.IndexFile))
	if err != nil {
		t.Fatalf("expected aggregate index: %v", err)
	}
	if !bytes.Contains(index, []byte("app.mock")) {
		t.Fatalf("expected index entry for app.mock, got %q", index)
	}
}

func TestProcessFileUnchanged(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\nbody\n")

	if _, err := e.pipeline.ProcessFile(context.Background(), "app.mock"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	before, _ := os.ReadFile(e.recordPath("app.mock"))

	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if res.Level != classify.Unchanged || res.Action != ActionNone {
		t.Fatalf("expected unchanged/none, got %s/%s", res.Level, res.Action)
	}
	if e.fake.Calls() != 1 {
		t.Fatalf("unchanged file must not synthesize again")
	}

	after, _ := os.ReadFile(e.recordPath("app.mock"))
	if !bytes.Equal(before, after) {
		t.Fatalf("unchanged file must leave the record bytes alone")
	}
}

func TestProcessFileContentOnly(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\nbody v1\n")
	if _, err := e.pipeline.ProcessFile(context.Background(), "app.mock"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	e.writeSource(t, "app.mock", "fn run\nbody v2\n")
	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if res.Level != classify.ContentOnly || res.Action != ActionGenerated {
		t.Fatalf("expected content-only regeneration, got %s/%s", res.Level, res.Action)
	}
	reqs := e.fake.Requests()
	if got := reqs[len(reqs)-1].Hint; got != synth.HintContentOnly {
		t.Fatalf("expected content-only hint, got %s", got)
	}
	if reqs[len(reqs)-1].Prior == "" {
		t.Fatalf("expected the prior editable block to be passed on regeneration")
	}
}

func TestProcessFileInterfaceChanged(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\n")
	if _, err := e.pipeline.ProcessFile(context.Background(), "app.mock"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	e.writeSource(t, "app.mock", "fn run\nfn stop\n")
	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if res.Level != classify.InterfaceChanged {
		t.Fatalf("expected interface-changed, got %s", res.Level)
	}
	reqs := e.fake.Requests()
	if got := reqs[len(reqs)-1].Hint; got != synth.HintInterfaceChanged {
		t.Fatalf("expected interface-changed hint, got %s", got)
	}
}

func TestProcessFileNonCodeContentChanged(t *testing.T) {
	e := newEnv(t)
	// Map the extension to a language with no registered grammar: the
	// file is classified by content alone.
	e.pipeline.Registry.MapExtension(".txt", "text")

	e.writeSource(t, "notes.txt", "v1\n")
	if _, err := e.pipeline.ProcessFile(context.Background(), "notes.txt"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	e.writeSource(t, "notes.txt", "v2\n")
	res, err := e.pipeline.ProcessFile(context.Background(), "notes.txt")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if res.Level != classify.ContentChanged {
		t.Fatalf("expected content-changed for non-code file, got %s", res.Level)
	}

	artifact, _, err := record.ReadFile(e.recordPath("notes.txt"))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if artifact.Meta.InterfaceHash != nil {
		t.Fatalf("expected nil interface hash in footer for non-code file")
	}
}

func TestProcessFileAgentEditRefreshesFooterOnly(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\nbody v1\n")
	if _, err := e.pipeline.ProcessFile(context.Background(), "app.mock"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// An agent rewrites the record by hand, then the source changes too.
	edited := []byte("> Hand-tuned description.\n\nCarefully written analysis.\n")
	if err := os.WriteFile(e.recordPath("app.mock"), edited, 0644); err != nil {
		t.Fatalf("edit failed: %v", err)
	}
	e.writeSource(t, "app.mock", "fn run\nfn stop\nbody v2\n")

	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Level != classify.AgentUpdated || res.Action != ActionRefreshed {
		t.Fatalf("expected agent-updated refresh, got %s/%s", res.Level, res.Action)
	}
	if e.fake.Calls() != 1 {
		t.Fatalf("an externally edited record must never be synthesized over")
	}

	artifact := e.readRecord(t)
	if !bytes.Contains(artifact.Editable, []byte("Carefully written analysis.")) {
		t.Fatalf("external edit was lost: %q", artifact.Editable)
	}
	if artifact.Meta == nil {
		t.Fatalf("expected a refreshed footer")
	}
	if artifact.Meta.DesignHash != artifact.EditableHash() {
		t.Fatalf("refreshed footer must hash the edited content")
	}
}

func TestProcessFileFooterlessRecordIsAgentOwned(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\n")

	recordPath := e.recordPath("app.mock")
	if err := os.MkdirAll(filepath.Dir(recordPath), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(recordPath, []byte("> Written before mirra existed.\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Level != classify.AgentUpdated {
		t.Fatalf("expected footerless record to classify as agent-updated, got %s", res.Level)
	}
	if e.fake.Calls() != 0 {
		t.Fatalf("footerless record must not trigger synthesis")
	}

	artifact := e.readRecord(t)
	if artifact.Meta == nil {
		t.Fatalf("expected the run to attach a footer")
	}
	if !bytes.Contains(artifact.Editable, []byte("Written before mirra existed.")) {
		t.Fatalf("editable content was not preserved")
	}
}

func TestProcessFileConflictMarkerSkips(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\n<<<<<<< HEAD\nours\n=======\ntheirs\n>>>>>>> main\n")

	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("conflict skip must not be an error: %v", err)
	}
	if res.Action != ActionConflict {
		t.Fatalf("expected conflict action, got %s", res.Action)
	}
	if e.fake.Calls() != 0 {
		t.Fatalf("conflicted source must never reach synthesis")
	}
	if _, exists, _ := record.ReadFile(e.recordPath("app.mock")); exists {
		t.Fatalf("conflicted source must not produce a record")
	}
}

func TestHasConflictMarker(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{"<<<<<<< HEAD\n", true},
		{"line\n<<<<<<<\n", true},
		{"text <<<<<<< inline\n", false},
		{"<<<<<< six\n", false},
		{"clean\n", false},
	}
	for _, tc := range cases {
		if got := HasConflictMarker([]byte(tc.content)); got != tc.want {
			t.Fatalf("HasConflictMarker(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}

func TestProcessFileConcurrentEditDiscardsSynthesis(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\nv1\n")
	if _, err := e.pipeline.ProcessFile(context.Background(), "app.mock"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	edited := []byte("> Edited while the model was thinking.\n")
	e.fake.OnCall = func(req synth.Request) {
		if err := os.WriteFile(e.recordPath("app.mock"), edited, 0644); err != nil {
			t.Errorf("concurrent edit failed: %v", err)
		}
	}

	e.writeSource(t, "app.mock", "fn run\nv2\n")
	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Action != ActionDiscarded {
		t.Fatalf("expected the synthesis result to be discarded, got %s", res.Action)
	}

	artifact := e.readRecord(t)
	if !bytes.Contains(artifact.Editable, []byte("Edited while the model was thinking.")) {
		t.Fatalf("the concurrent edit must win, got %q", artifact.Editable)
	}
	if artifact.Meta == nil {
		t.Fatalf("expected the footer to be refreshed around the edit")
	}
}

func TestProcessFileConcurrentEditGainsFooterSeparator(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\nv1\n")
	if _, err := e.pipeline.ProcessFile(context.Background(), "app.mock"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	edited := []byte("> Edited without a final newline.")
	e.fake.OnCall = func(req synth.Request) {
		if err := os.WriteFile(e.recordPath("app.mock"), edited, 0644); err != nil {
			t.Errorf("concurrent edit failed: %v", err)
		}
	}

	e.writeSource(t, "app.mock", "fn run\nv2\n")
	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Action != ActionDiscarded {
		t.Fatalf("expected discard, got %s", res.Action)
	}

	// The footer marker is line-anchored, so reattaching the footer
	// appends exactly one separator newline to an edit that ends without
	// one. Everything before it is preserved byte for byte.
	artifact := e.readRecord(t)
	want := append(append([]byte(nil), edited...), '\n')
	if !bytes.Equal(artifact.Editable, want) {
		t.Fatalf("expected the edit plus one separator newline, got %q", artifact.Editable)
	}
	if artifact.Meta.DesignHash != artifact.EditableHash() {
		t.Fatalf("design hash must cover the stored editable bytes")
	}
}

func TestProcessFileConcurrentDeleteRespected(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\nv1\n")
	if _, err := e.pipeline.ProcessFile(context.Background(), "app.mock"); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	e.fake.OnCall = func(req synth.Request) {
		os.Remove(e.recordPath("app.mock"))
	}

	e.writeSource(t, "app.mock", "fn run\nv2\n")
	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Action != ActionDiscarded {
		t.Fatalf("expected discard on concurrent delete, got %s", res.Action)
	}
	if _, exists, _ := record.ReadFile(e.recordPath("app.mock")); exists {
		t.Fatalf("a deleted record must stay deleted")
	}
}

func TestProcessFileSynthesisFailureIsRecoverable(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "app.mock", "fn run\n")
	e.fake.Err = errors.New("model unavailable")

	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err == nil {
		t.Fatalf("expected a per-file error")
	}
	if res.Action != ActionFailed {
		t.Fatalf("expected failed action, got %s", res.Action)
	}
	if _, exists, _ := record.ReadFile(e.recordPath("app.mock")); exists {
		t.Fatalf("a failed synthesis must not leave a record behind")
	}
}

func TestProcessFileDryRun(t *testing.T) {
	e := newEnv(t)
	e.pipeline.DryRun = true
	e.writeSource(t, "app.mock", "fn run\n")

	res, err := e.pipeline.ProcessFile(context.Background(), "app.mock")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if res.Level != classify.NewFile || res.Action != ActionPlanned {
		t.Fatalf("expected planned new-file, got %s/%s", res.Level, res.Action)
	}
	if e.fake.Calls() != 0 {
		t.Fatalf("dry run must not synthesize")
	}
	if _, exists, _ := record.ReadFile(e.recordPath("app.mock")); exists {
		t.Fatalf("dry run must not write")
	}
}

func TestRunAggregatesStatsAndContinuesPastFailures(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "a.mock", "fn a\n")
	e.writeSource(t, "b.mock", "fn b\n<<<<<<< HEAD\n")
	e.writeSource(t, "c.mock", "fn c\n")

	stats := e.pipeline.Run(context.Background(), []string{"a.mock", "b.mock", "missing.mock", "c.mock"})

	if stats.Scanned != 4 {
		t.Fatalf("expected 4 scanned, got %d", stats.Scanned)
	}
	if stats.Generated != 2 {
		t.Fatalf("expected 2 generated, got %d", stats.Generated)
	}
	if stats.Conflicts != 1 {
		t.Fatalf("expected 1 conflict, got %d", stats.Conflicts)
	}
	if stats.Failures != 1 || len(stats.Errors) != 1 {
		t.Fatalf("expected 1 failure with an error, got %d/%v", stats.Failures, stats.Errors)
	}

	// The failure in the middle must not have stopped c.mock.
	if _, exists, _ := record.ReadFile(e.recordPath("c.mock")); !exists {
		t.Fatalf("expected the run to continue past the failed file")
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	e := newEnv(t)
	e.writeSource(t, "a.mock", "fn a\n")
	e.writeSource(t, "b.mock", "fn b\n")

	ctx, cancel := context.WithCancel(context.Background())
	e.fake.OnCall = func(req synth.Request) { cancel() }

	stats := e.pipeline.Run(ctx, []string{"a.mock", "b.mock"})
	if stats.Generated+stats.Failures+stats.Discarded == 0 {
		t.Fatalf("expected the first file to be attempted")
	}
	if e.fake.Calls() > 1 {
		t.Fatalf("cancellation must stop the run before the second synthesis call")
	}
}
