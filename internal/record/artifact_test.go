package record

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestComposeParseRoundtrip(t *testing.T) {
	editable := ComposeEditable("Parses widget manifests.", "## Design\n\nReads the manifest lazily.")
	meta := Metadata{
		SourcePath:    "pkg/widget.go",
		SourceHash:    "abc123",
		InterfaceHash: strPtr("def456"),
		GeneratedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Generator:     "mirra-v1",
	}

	data := Compose(editable, meta)
	artifact := Parse(data)

	if artifact.Meta == nil {
		t.Fatalf("expected footer to parse, got nil metadata")
	}
	if artifact.Meta.SourcePath != "pkg/widget.go" || artifact.Meta.SourceHash != "abc123" {
		t.Fatalf("unexpected metadata: %+v", artifact.Meta)
	}
	if artifact.Meta.InterfaceHash == nil || *artifact.Meta.InterfaceHash != "def456" {
		t.Fatalf("interface hash did not survive the roundtrip: %+v", artifact.Meta.InterfaceHash)
	}
	if !bytes.Equal(artifact.Editable, editable) {
		t.Fatalf("editable block changed:\n%q\nwant:\n%q", artifact.Editable, editable)
	}
	if artifact.Description() != "Parses widget manifests." {
		t.Fatalf("unexpected description %q", artifact.Description())
	}
}

// The stored design hash must equal the hash of the editable block as
// parsed back from disk, or every subsequent run would misclassify the
// record as externally edited.
func TestComposeDesignHashMatchesParsedEditable(t *testing.T) {
	for _, editable := range [][]byte{
		ComposeEditable("Short description.", "Body."),
		[]byte("no trailing newline"),
		[]byte(""),
	} {
		data := Compose(editable, Metadata{SourcePath: "a.go", SourceHash: "c1"})
		artifact := Parse(data)
		if artifact.Meta == nil {
			t.Fatalf("expected metadata for %q", editable)
		}
		if got := artifact.EditableHash(); got != artifact.Meta.DesignHash {
			t.Fatalf("design hash drift for %q: stored %s, recomputed %s", editable, artifact.Meta.DesignHash, got)
		}
	}
}

func TestParseFooterlessRecord(t *testing.T) {
	data := []byte("> Hand-written record.\n\nNo generator ever touched this.\n")
	artifact := Parse(data)

	if artifact.Meta != nil {
		t.Fatalf("expected nil metadata for footerless record, got %+v", artifact.Meta)
	}
	if !bytes.Equal(artifact.Editable, data) {
		t.Fatalf("expected the whole file to be editable")
	}
	if artifact.Description() != "Hand-written record." {
		t.Fatalf("unexpected description %q", artifact.Description())
	}
}

func TestParseMalformedFooterIsEditable(t *testing.T) {
	data := []byte("content\n" + MetaStart + "\nnot json\n" + MetaEnd + "\n")
	artifact := Parse(data)
	if artifact.Meta != nil {
		t.Fatalf("expected malformed footer to be treated as editable content")
	}
	if !bytes.Equal(artifact.Editable, data) {
		t.Fatalf("expected full bytes as editable block")
	}
}

func TestParseMarkerMidLineIgnored(t *testing.T) {
	data := []byte("discussing the " + MetaStart + " marker inline\n")
	artifact := Parse(data)
	if artifact.Meta != nil {
		t.Fatalf("marker not at line start must not be a footer")
	}
}

func TestReadFileMissing(t *testing.T) {
	_, exists, err := ReadFile(filepath.Join(t.TempDir(), "nope.md"))
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false")
	}
}

func TestReadMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go.md")
	data := Compose(ComposeEditable("Desc.", "Body."), Metadata{SourcePath: "a.go", SourceHash: "c1"})
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	meta, designHash, exists, err := ReadMetadata(path)
	if err != nil || !exists {
		t.Fatalf("expected record to exist: %v", err)
	}
	if meta == nil || meta.SourceHash != "c1" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if designHash != meta.DesignHash {
		t.Fatalf("expected design hash %s, got %s", meta.DesignHash, designHash)
	}
}

func TestComposeEditableFormat(t *testing.T) {
	got := string(ComposeEditable("  A description.  ", "Body text\n\n"))
	want := "> A description.\n\nBody text\n"
	if got != want {
		t.Fatalf("unexpected editable block %q, want %q", got, want)
	}

	if string(ComposeEditable("", "only body")) != "only body\n" {
		t.Fatalf("expected description line to be omitted when empty")
	}
}

func TestMirrorPath(t *testing.T) {
	got := MirrorPath("/tmp/records", "src/app.py")
	want := filepath.Join("/tmp/records", "src/app.py.md")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestFooterIsLastBlock(t *testing.T) {
	data := Compose([]byte("body\n"), Metadata{SourcePath: "a.go", SourceHash: "c1"})
	text := string(data)
	if !strings.HasSuffix(text, MetaEnd+"\n") {
		t.Fatalf("expected record to end with the footer close marker, got %q", text)
	}
}
