package pipeline

import (
	"context"
	"time"
)

// RunStats aggregates per-file outcomes across one invocation.
type RunStats struct {
	Scanned    int      `json:"scanned"`
	Generated  int      `json:"generated"`
	Refreshed  int      `json:"refreshed"`
	Unchanged  int      `json:"unchanged"`
	Conflicts  int      `json:"conflicts"`
	Discarded  int      `json:"discarded"`
	Failures   int      `json:"failures"`
	Planned    int      `json:"planned,omitempty"`
	DurationMS int64    `json:"duration_ms"`
	Errors     []string `json:"errors,omitempty"`
	Results    []Result `json:"-"`
}

// Run processes files sequentially. No per-file failure aborts the rest
// of the run; each file's update is independently atomic, so a
// cancelled or interrupted run is safely resumable. Cancellation is
// honored between files and inside the synthesis call.
func (p *Pipeline) Run(ctx context.Context, relPaths []string) RunStats {
	start := time.Now()
	stats := RunStats{Scanned: len(relPaths)}

	for _, relPath := range relPaths {
		if ctx.Err() != nil {
			break
		}

		res, err := p.ProcessFile(ctx, relPath)
		stats.Results = append(stats.Results, res)
		if err != nil {
			stats.Failures++
			stats.Errors = append(stats.Errors, err.Error())
			p.logf("error: %v", err)
			continue
		}

		switch res.Action {
		case ActionGenerated:
			stats.Generated++
		case ActionRefreshed:
			stats.Refreshed++
		case ActionNone:
			stats.Unchanged++
		case ActionConflict:
			stats.Conflicts++
		case ActionDiscarded:
			stats.Discarded++
		case ActionPlanned:
			stats.Planned++
		}
	}

	stats.DurationMS = time.Since(start).Milliseconds()
	return stats
}
