// Package record defines the on-disk design record format: an editable
// block (short description plus free text) followed by a machine-managed
// metadata footer. The footer is the only contract the pipeline must
// honor bit-for-bit across runs.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mirra-dev/mirra/internal/hashes"
)

const (
	// MetaStart opens the footer block. Everything before the line that
	// begins with this marker is the editable portion of the record.
	MetaStart = "<!-- mirra:meta"
	MetaEnd   = "-->"

	// Extension is appended to the mirrored source path.
	Extension = ".md"
)

// Metadata is the persisted footer attached to each generated record.
// DesignHash covers only the editable block, never the footer itself.
type Metadata struct {
	SourcePath    string    `json:"source_path"`
	SourceHash    string    `json:"source_hash"`
	InterfaceHash *string   `json:"interface_hash"`
	DesignHash    string    `json:"design_hash"`
	GeneratedAt   time.Time `json:"generated_at"`
	Generator     string    `json:"generator"`
}

// Artifact is one parsed design record. Meta is nil when the file was
// authored directly without ever running generation.
type Artifact struct {
	Editable []byte
	Meta     *Metadata
}

// Parse splits raw record bytes into the editable block and footer.
// A missing or malformed footer is not an error: the whole file counts
// as editable content and Meta stays nil, which the classifier treats
// as an external author's work.
func Parse(data []byte) *Artifact {
	idx := bytes.LastIndex(data, []byte(MetaStart))
	if idx < 0 {
		return &Artifact{Editable: data}
	}
	// The marker must sit at the start of a line.
	if idx > 0 && data[idx-1] != '\n' {
		return &Artifact{Editable: data}
	}

	footer := data[idx:]
	end := bytes.Index(footer, []byte(MetaEnd))
	if end < 0 {
		return &Artifact{Editable: data}
	}

	payload := footer[len(MetaStart):end]
	var meta Metadata
	if err := json.Unmarshal(bytes.TrimSpace(payload), &meta); err != nil {
		return &Artifact{Editable: data}
	}

	return &Artifact{Editable: data[:idx], Meta: &meta}
}

// ReadFile loads and parses the record at path. The boolean reports
// whether the file exists at all.
func ReadFile(path string) (*Artifact, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return Parse(data), true, nil
}

// ReadMetadata is the cheap metadata-only read used by the classifier:
// it returns the footer (nil when absent) and the hash of the current
// editable block.
func ReadMetadata(path string) (meta *Metadata, designHash string, exists bool, err error) {
	artifact, exists, err := ReadFile(path)
	if err != nil || !exists {
		return nil, "", exists, err
	}
	return artifact.Meta, artifact.EditableHash(), true, nil
}

// EditableHash digests the editable block exactly as stored on disk.
func (a *Artifact) EditableHash() string {
	return hashes.ContentHash(a.Editable)
}

// Description returns the record's short structured description: the
// first line starting with "> ".
func (a *Artifact) Description() string {
	for _, line := range strings.Split(string(a.Editable), "\n") {
		if strings.HasPrefix(line, "> ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "> "))
		}
	}
	return ""
}

// ComposeEditable builds a fresh editable block from a synthesis result.
func ComposeEditable(description, body string) []byte {
	var b strings.Builder
	description = strings.TrimSpace(description)
	if description != "" {
		b.WriteString("> ")
		b.WriteString(description)
		b.WriteString("\n\n")
	}
	body = strings.TrimRight(body, "\n")
	if body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// Compose serializes a full record. The design hash is always recomputed
// from the editable bytes being written so the footer can never drift
// from the content it describes.
func Compose(editable []byte, meta Metadata) []byte {
	// Normalize before hashing: the trailing newline separating the
	// editable block from the footer is part of the block on disk, so it
	// must be part of the design hash too.
	if len(editable) > 0 && editable[len(editable)-1] != '\n' {
		editable = append(append([]byte(nil), editable...), '\n')
	}
	meta.DesignHash = hashes.ContentHash(editable)

	payload, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		// Metadata is plain strings and a time; marshal cannot fail.
		panic(fmt.Sprintf("record: marshal metadata: %v", err))
	}

	var b bytes.Buffer
	b.Write(editable)
	b.WriteString(MetaStart)
	b.WriteByte('\n')
	b.Write(payload)
	b.WriteByte('\n')
	b.WriteString(MetaEnd)
	b.WriteByte('\n')
	return b.Bytes()
}

// MirrorPath maps a source-relative path to its record path under the
// records directory. One source file maps to exactly one record.
func MirrorPath(recordsDir, relPath string) string {
	return filepath.Join(recordsDir, relPath+Extension)
}
