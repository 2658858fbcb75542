// Package aggregate maintains the per-directory listing that records
// feed their short descriptions into. The pipeline only depends on the
// Updater interface; the concrete implementation here keeps an INDEX.md
// next to the records of each directory.
package aggregate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mirra-dev/mirra/internal/fileutil"
)

// IndexFile is the aggregate file name within each records directory.
const IndexFile = "INDEX.md"

// Updater is the single operation the write pipeline consumes.
// Implementations must be idempotent: setting the same entry twice is
// safe and redundant calls are cheap.
type Updater interface {
	SetEntry(dir, name, description string) error
}

// MarkdownIndex writes one INDEX.md per directory under the records
// tree. Safe for concurrent use only when callers serialize per
// directory, which the pipeline's directory locks guarantee.
type MarkdownIndex struct{}

// NewMarkdownIndex creates the default aggregate implementation.
func NewMarkdownIndex() *MarkdownIndex {
	return &MarkdownIndex{}
}

// SetEntry upserts the description for a child entry and rewrites the
// index when anything changed.
func (m *MarkdownIndex) SetEntry(dir, name, description string) error {
	path := filepath.Join(dir, IndexFile)

	entries, err := readEntries(path)
	if err != nil {
		return err
	}
	entries[name] = strings.TrimSpace(description)

	rendered := renderEntries(filepath.Base(dir), entries)
	if err := fileutil.WriteIfChanged(path, []byte(rendered)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readEntries(path string) (map[string]string, error) {
	entries := make(map[string]string)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return entries, nil
		}
		return nil, err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- **") {
			continue
		}
		rest := strings.TrimPrefix(line, "- **")
		idx := strings.Index(rest, "**")
		if idx < 0 {
			continue
		}
		name := rest[:idx]
		desc := strings.TrimSpace(rest[idx+2:])
		desc = strings.TrimPrefix(desc, ": ")
		entries[name] = strings.TrimSpace(desc)
	}
	return entries, nil
}

func renderEntries(title string, entries map[string]string) string {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, name := range names {
		desc := entries[name]
		if desc == "" {
			fmt.Fprintf(&b, "- **%s**\n", name)
			continue
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", name, desc)
	}
	return b.String()
}
