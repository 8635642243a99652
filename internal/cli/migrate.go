package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/analyzer"
	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/migrate"
	"github.com/rapids-dev/rapids/internal/stack"
)

type MigrateSummary struct {
	Mode     string             `json:"mode"`
	Analysis *analyzer.Analysis `json:"analysis"`
	Result   *migrate.Result    `json:"result"`
	Cleanup  *CleanSummary      `json:"cleanup,omitempty"`
}

func RunMigrate(cmd *cobra.Command, args []string) error {
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

	analysis, err := analyzer.Analyze(root)
	if err != nil {
		return err
	}
	res, err := migrate.New(rt.Paths, rt.Logger).Migrate(analysis)
	if err != nil {
		return err
	}
	summary := MigrateSummary{Mode: "migrate", Analysis: analysis, Result: res}

	// The backup just written holds the user's previous overlay; only an
	// explicit `rapids clean` removes it.
	if autoCleanupEnabled(rt) {
		clean, err := cleanProject(cmd, rt, root, cleanOptions{JSON: asJSON, KeepBackup: true})
		if err != nil {
			return err
		}
		summary.Cleanup = clean
	}

	if asJSON {
		return fileutil.PrintJSON(summary)
	}
	printMigrateSummary(summary)
	return nil
}

// autoCleanupEnabled reads the autoCleanup preference; unset means off.
func autoCleanupEnabled(rt *runtimeEnv) bool {
	prefs, err := rt.Store.LoadUserPreferences()
	if err != nil {
		rt.Logger.Warn("ignoring unreadable user preferences", clog.Err(err))
		return false
	}
	return prefs.Preferences.AutoCleanup != nil && *prefs.Preferences.AutoCleanup
}

func printMigrateSummary(summary MigrateSummary) {
	a, res := summary.Analysis, summary.Result
	fmt.Printf("%s migrated %s\n", color.GreenString("✓"), res.Root)
	fmt.Printf("detected: %s\n", a.Topology.Label())
	var roles []string
	for _, role := range stack.Roles {
		if !a.HasRole(role) {
			continue
		}
		label := string(role)
		if folder := a.Folders[role]; folder != "" {
			label += "=" + folder + "/"
		}
		if fw := a.Framework(role); fw != "" {
			label += " (" + fw + ")"
		}
		roles = append(roles, label)
	}
	if len(roles) > 0 {
		fmt.Printf("stack: %s\n", strings.Join(roles, ", "))
	}
	if a.PackageManager != "" {
		fmt.Printf("package manager: %s\n", a.PackageManager)
	}
	if res.BackupCreated {
		fmt.Println("previous overlay backed up to .claude.backup/")
	}
	fmt.Printf("written (%d): %s\n", len(res.Written), SummarizePaths(res.Written, 8))
	if len(res.Skipped) > 0 {
		fmt.Printf("skipped (%d): %s\n", len(res.Skipped), SummarizePaths(res.Skipped, 8))
	}
	if summary.Cleanup != nil {
		printCleanSummary(*summary.Cleanup)
		return
	}
	fmt.Println("next: rapids clean --dry-run")
}
