package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/cleanup"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/planner"
	"github.com/rapids-dev/rapids/internal/rerr"
)

type CleanSummary struct {
	Mode     string            `json:"mode"`
	Root     string            `json:"root"`
	DryRun   bool              `json:"dry_run"`
	Analysis *planner.Analysis `json:"analysis"`
	Report   *cleanup.Report   `json:"report,omitempty"`
}

func RunClean(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	root, err := resolveTargetPath(args)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	dryRun, err := OptionalBoolFlag(cmd, "dry-run", false)
	if err != nil {
		return err
	}

	summary, err := cleanProject(cmd, rt, root, cleanOptions{DryRun: dryRun, JSON: asJSON})
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(summary)
	}
	printCleanSummary(*summary)
	return nil
}

type cleanOptions struct {
	DryRun     bool
	JSON       bool
	KeepBackup bool // leave the overlay backup out of the plan
}

// cleanProject plans and, unless DryRun, removes legacy artifacts. The
// migration gate applies to dry runs too.
func cleanProject(cmd *cobra.Command, rt *runtimeEnv, root string, opts cleanOptions) (*CleanSummary, error) {
	analysis, err := planner.Plan(root, planner.DefaultPatterns)
	if err != nil {
		return nil, err
	}
	if opts.KeepBackup {
		analysis = analysis.WithoutBackup()
	}
	if !analysis.Migrated() {
		return nil, rerr.WithDetails(rerr.NotMigrated,
			"project has not been migrated; run `rapids migrate` first",
			map[string]string{"root": root})
	}
	summary := &CleanSummary{Mode: "clean", Root: root, DryRun: opts.DryRun, Analysis: analysis}
	if opts.DryRun || len(analysis.Items) == 0 {
		return summary, nil
	}

	reporter := newStepProgressReporter("clean", opts.JSON)
	engine := cleanup.New(rt.Logger)
	engine.Progress = reporter.CleanupItem
	report, err := engine.Clean(commandContext(cmd), analysis)
	summary.Report = report
	if report != nil {
		reporter.Done(len(report.Removed))
	}
	if err != nil {
		return summary, err
	}
	return summary, nil
}

func printCleanSummary(summary CleanSummary) {
	a := summary.Analysis
	if len(a.Items) == 0 {
		fmt.Printf("%s nothing to clean in %s\n", color.GreenString("✓"), summary.Root)
		return
	}
	if summary.DryRun {
		fmt.Printf("clean (dry-run): %d item(s), %s\n", len(a.Items), fileutil.FormatBytes(a.TotalSize))
		for _, item := range a.Items {
			fmt.Printf("  %s - %s (%s)\n", item.Path, item.Reason, fileutil.FormatBytes(item.Size))
		}
		fmt.Println("next: rapids clean")
		return
	}
	report := summary.Report
	if report == nil {
		return
	}
	fmt.Printf("%s removed %d item(s), freed %s\n", color.GreenString("✓"), len(report.Removed), fileutil.FormatBytes(report.Freed))
	for _, f := range report.Failed {
		fmt.Printf("  %s %s: %s\n", color.RedString("✗"), f.Item.Path, f.Error)
	}
	fmt.Printf("log: %s\n", report.LogPath)
}
