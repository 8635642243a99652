package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/rapids-dev/rapids/internal/install"
	"github.com/rapids-dev/rapids/internal/planner"
)

// stepProgressReporter redraws a single status line on stderr. It stays
// silent when stderr is not a terminal or JSON output was requested.
type stepProgressReporter struct {
	out     io.Writer
	enabled bool
	label   string
	start   time.Time
	spinner int
	lastLen int
}

func newStepProgressReporter(label string, asJSON bool) *stepProgressReporter {
	enabled := isatty.IsTerminal(os.Stderr.Fd()) && !asJSON
	return &stepProgressReporter{
		out:     os.Stderr,
		enabled: enabled,
		label:   label,
		start:   time.Now(),
	}
}

func (r *stepProgressReporter) Update(done, total int, item string) {
	if !r.enabled {
		return
	}
	frames := [4]string{"-", "\\", "|", "/"}
	frame := frames[r.spinner%len(frames)]
	r.spinner++
	item = strings.TrimSpace(item)
	if len(item) > 72 {
		item = "..." + item[len(item)-69:]
	}
	r.printStatus(fmt.Sprintf("%s %s %d/%d %s", frame, r.label, done, total, item))
}

// InstallEvent adapts install progress events.
func (r *stepProgressReporter) InstallEvent(ev install.Event) {
	if !r.enabled {
		return
	}
	if !ev.Done {
		r.Update(ev.Index, ev.Total, ev.Step.Label+"...")
		return
	}
	mark := color.GreenString("✓")
	if ev.Skipped {
		mark = color.New(color.Faint).Sprint("-")
	}
	r.printStatus(fmt.Sprintf("%s [%d/%d] %s", mark, ev.Index, ev.Total, ev.Step.Label))
	fmt.Fprintln(r.out)
	r.lastLen = 0
}

// CleanupItem adapts cleanup progress callbacks.
func (r *stepProgressReporter) CleanupItem(done, total int, item planner.Item) {
	r.Update(done, total, item.Path)
}

func (r *stepProgressReporter) Done(count int) {
	if !r.enabled {
		return
	}
	elapsed := time.Since(r.start).Round(time.Millisecond)
	r.printStatus(fmt.Sprintf("%s complete (%d in %s)", r.label, count, elapsed))
	fmt.Fprintln(r.out)
}

func (r *stepProgressReporter) printStatus(status string) {
	if r.lastLen > len(status) {
		status = status + strings.Repeat(" ", r.lastLen-len(status))
	}
	r.lastLen = len(status)
	fmt.Fprintf(r.out, "\r%s", status)
}
