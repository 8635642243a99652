// Package cleanup removes the artifacts a planner.Analysis selected and
// records the outcome in the project's cleanup log.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/planner"
	"github.com/rapids-dev/rapids/internal/rerr"
)

type Failure struct {
	Item  planner.Item `json:"item"`
	Error string       `json:"error"`
}

// Report summarizes one cleanup run.
type Report struct {
	RunID   string         `json:"run_id"`
	Root    string         `json:"root"`
	Removed []planner.Item `json:"removed"`
	Failed  []Failure      `json:"failed,omitempty"`
	Freed   int64          `json:"freed"`
	LogPath string         `json:"log_path,omitempty"`
}

// ProgressFunc is called after each item is attempted.
type ProgressFunc func(done, total int, item planner.Item)

type Engine struct {
	Logger   *slog.Logger
	Progress ProgressFunc
	Now      func() time.Time
}

func New(logger *slog.Logger) *Engine {
	return &Engine{Logger: clog.OrDiscard(logger), Now: time.Now}
}

// Clean removes every item in analysis. An unmigrated project is refused
// before anything is touched. An empty analysis is a no-op that leaves any
// previous log in place. Per-item failures are recorded and do not stop
// the run; otherwise the log file is rewritten on every run.
func (e *Engine) Clean(ctx context.Context, analysis *planner.Analysis) (*Report, error) {
	if !analysis.Migrated() {
		return nil, rerr.WithDetails(rerr.NotMigrated,
			"project has not been migrated; run `rapids migrate` first",
			map[string]string{"root": analysis.Root})
	}

	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	log := clog.OrDiscard(e.Logger)
	if len(analysis.Items) == 0 {
		log.Debug("nothing to clean", "root", analysis.Root)
		return &Report{RunID: ulid.Make().String(), Root: analysis.Root, Removed: []planner.Item{}}, nil
	}
	report := &Report{
		RunID:   ulid.Make().String(),
		Root:    analysis.Root,
		LogPath: paths.CleanupLog(analysis.Root),
	}
	lines := []string{
		"RAPIDS Cleanup Log - " + now().UTC().Format(time.RFC3339),
		"Run: " + report.RunID,
		"Root: " + analysis.Root,
		fmt.Sprintf("Items to remove: %d", len(analysis.Items)),
		"Total size: " + fileutil.FormatBytes(analysis.TotalSize),
		"",
		"Removed items:",
	}

	var runErr error
	total := len(analysis.Items)
	for i, item := range analysis.Items {
		if err := ctx.Err(); err != nil {
			runErr = rerr.Wrap(rerr.Canceled, fmt.Sprintf("cleanup interrupted after %d of %d items", i, total), err)
			lines = append(lines, "", "Interrupted: "+err.Error())
			break
		}

		full := filepath.Join(analysis.Root, filepath.FromSlash(item.Path))
		if err := os.RemoveAll(full); err != nil {
			log.Warn("remove failed", "path", item.Path, clog.Err(err))
			report.Failed = append(report.Failed, Failure{Item: item, Error: err.Error()})
			lines = append(lines, fmt.Sprintf("✗ %s - Failed: %s", item.Path, err))
		} else {
			log.Debug("removed", "path", item.Path, "size", item.Size)
			report.Removed = append(report.Removed, item)
			report.Freed += item.Size
			lines = append(lines, fmt.Sprintf("✓ %s - %s (%s)", item.Path, item.Reason, fileutil.FormatBytes(item.Size)))
		}
		if e.Progress != nil {
			e.Progress(i+1, total, item)
		}
	}

	if err := os.WriteFile(report.LogPath, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		logErr := rerr.Wrap(rerr.PathInaccessible, "write cleanup log", err)
		if runErr == nil {
			runErr = logErr
		}
		log.Error("cleanup log not written", clog.Err(err))
	}
	return report, runErr
}
