package hashes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mirra-dev/mirra/internal/parser"
)

type fixedExtractor struct {
	skeleton *parser.Skeleton
}

func (f fixedExtractor) Language() string {
	return "mock"
}

func (f fixedExtractor) Extensions() []string {
	return []string{".mock"}
}

func (f fixedExtractor) Extract(filename string, content []byte) (*parser.Skeleton, error) {
	return f.skeleton, nil
}

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash([]byte("hello"))
	b := ContentHash([]byte("hello"))
	if a != b {
		t.Fatalf("expected identical hashes, got %s and %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16-char short hash, got %d chars", len(a))
	}
	if ContentHash([]byte("hello")) == ContentHash([]byte("hello\n")) {
		t.Fatalf("expected different bytes to hash differently")
	}
}

func TestInterfaceHashTracksSkeletonOnly(t *testing.T) {
	a := InterfaceHash(&parser.Skeleton{Language: "go", Functions: []parser.Function{{Name: "Run"}}})
	b := InterfaceHash(&parser.Skeleton{Language: "go", Functions: []parser.Function{{Name: "Run"}}})
	c := InterfaceHash(&parser.Skeleton{Language: "go", Functions: []parser.Function{{Name: "Stop"}}})

	if a != b {
		t.Fatalf("equal skeletons must hash equal")
	}
	if a == c {
		t.Fatalf("different skeletons must hash differently")
	}
}

func TestComputeBytesCodeFile(t *testing.T) {
	r := parser.NewRegistry()
	r.Register(fixedExtractor{skeleton: &parser.Skeleton{Language: "mock", Functions: []parser.Function{{Name: "f"}}}})

	fh := ComputeBytes("a.mock", []byte("source"), r, nil)
	if fh.Content != ContentHash([]byte("source")) {
		t.Fatalf("unexpected content hash %s", fh.Content)
	}
	if fh.Interface == nil {
		t.Fatalf("expected an interface hash for a supported file")
	}
}

func TestComputeBytesNonCodeFile(t *testing.T) {
	r := parser.NewRegistry()

	fh := ComputeBytes("notes.txt", []byte("plain text"), r, nil)
	if fh.Interface != nil {
		t.Fatalf("expected nil interface hash for unsupported file, got %v", *fh.Interface)
	}
}

func TestComputeReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.mock")
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	r := parser.NewRegistry()
	r.Register(fixedExtractor{skeleton: &parser.Skeleton{Language: "mock"}})

	fh, err := Compute(path, r, nil)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if fh.Content != ContentHash([]byte("content")) {
		t.Fatalf("unexpected content hash")
	}

	if _, err := Compute(filepath.Join(dir, "missing.mock"), r, nil); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}
