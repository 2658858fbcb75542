// Package hashes computes the two digests the change classifier
// compares: a content hash of raw file bytes and an interface hash of
// the canonical skeleton rendering.
package hashes

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/mirra-dev/mirra/internal/canon"
	"github.com/mirra-dev/mirra/internal/parser"
)

// FileHashes pairs the always-present content hash with the interface
// hash, which is nil for non-code files and unsupported languages.
type FileHashes struct {
	Content   string
	Interface *string
}

// ContentHash digests raw bytes. Equality comparison only, not security.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:16] // short hash
}

// InterfaceHash digests the canonical rendering of a skeleton.
func InterfaceHash(s *parser.Skeleton) string {
	return ContentHash([]byte(canon.Render(s)))
}

// Compute is the single entry point the rest of the system uses: read
// the file, hash its bytes, and hash its interface when the registry
// can extract one.
func Compute(path string, registry *parser.Registry, warnings *parser.Warnings) (FileHashes, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return FileHashes{}, err
	}
	return ComputeBytes(path, content, registry, warnings), nil
}

// ComputeBytes hashes already-read content. Split out so callers that
// hold the bytes (the pipeline reads each source exactly once) avoid a
// second read.
func ComputeBytes(path string, content []byte, registry *parser.Registry, warnings *parser.Warnings) FileHashes {
	out := FileHashes{Content: ContentHash(content)}

	skeleton, err := registry.ExtractFile(path, content, warnings)
	if err != nil || skeleton == nil {
		// Degraded or absent extraction is not an error: the file is
		// simply classified by content alone.
		return out
	}

	ih := InterfaceHash(skeleton)
	out.Interface = &ih
	return out
}
