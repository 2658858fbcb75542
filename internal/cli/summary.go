package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mirra-dev/mirra/internal/classify"
	"github.com/mirra-dev/mirra/internal/pipeline"
)

func PrintRunSummary(mode string, stats pipeline.RunStats, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Mode string `json:"mode"`
			pipeline.RunStats
		}{Mode: mode, RunStats: stats})
	}

	fmt.Printf(
		"%s: scanned=%d generated=%d refreshed=%d unchanged=%d conflicts=%d discarded=%d failures=%d duration=%dms\n",
		mode,
		stats.Scanned,
		stats.Generated,
		stats.Refreshed,
		stats.Unchanged,
		stats.Conflicts,
		stats.Discarded,
		stats.Failures,
		stats.DurationMS,
	)

	if line := conflictLine(stats); line != "" {
		fmt.Printf("  %s\n", line)
	}
	for _, e := range stats.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	return nil
}

// conflictLine names the files skipped over unresolved merge conflicts,
// empty when there were none.
func conflictLine(stats pipeline.RunStats) string {
	var paths []string
	for _, res := range stats.Results {
		if res.Action == pipeline.ActionConflict {
			paths = append(paths, res.Path)
		}
	}
	if len(paths) == 0 {
		return ""
	}
	return "conflicts: " + SummarizePaths(paths, 5)
}

// StatusEntry is one file's classification in status output.
type StatusEntry struct {
	Path  string `json:"path"`
	Level string `json:"level"`
}

// StatusSummary is the machine-readable status payload.
type StatusSummary struct {
	RootPath string         `json:"root_path"`
	Scanned  int            `json:"scanned"`
	Pending  int            `json:"pending"`
	Entries  []StatusEntry  `json:"entries,omitempty"`
	Counts   map[string]int `json:"counts"`
}

func PrintStatusSummary(summary StatusSummary, asJSON bool) error {
	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summary)
	}

	if summary.Pending == 0 {
		fmt.Printf("status: %d files scanned, all records up to date\n", summary.Scanned)
		return nil
	}

	fmt.Printf("status: %d of %d files need sync\n", summary.Pending, summary.Scanned)
	for _, entry := range summary.Entries {
		fmt.Printf("  %-18s %s\n", entry.Level, entry.Path)
	}
	return nil
}

// BuildStatusSummary folds dry-run pipeline results into status output.
// Unchanged files are counted but not listed.
func BuildStatusSummary(rootPath string, results []pipeline.Result) StatusSummary {
	summary := StatusSummary{
		RootPath: rootPath,
		Scanned:  len(results),
		Counts:   make(map[string]int),
	}
	for _, res := range results {
		level := res.Level.String()
		if res.Action == pipeline.ActionConflict {
			level = "conflict"
		}
		summary.Counts[level]++
		if res.Level == classify.Unchanged && res.Action != pipeline.ActionConflict {
			continue
		}
		summary.Pending++
		summary.Entries = append(summary.Entries, StatusEntry{Path: res.Path, Level: level})
	}
	return summary
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
