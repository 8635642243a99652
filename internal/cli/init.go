package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/scaffold"
	"github.com/rapids-dev/rapids/internal/stack"
)

func RunInit(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	parent, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	preset, err := OptionalStringFlag(cmd, "preset")
	if err != nil {
		return err
	}
	if preset == "" {
		preset = defaultPreset(rt)
	}
	name := ""
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	res, err := scaffold.New(rt.Logger).Create(commandContext(cmd), parent, name, preset)
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(res)
	}

	p, _ := stack.LookupPreset(res.Preset)
	fmt.Printf("%s created %s\n", color.GreenString("✓"), res.Root)
	fmt.Printf("preset: %s\n", p.Label)
	fmt.Printf("folders: %s\n", strings.Join(res.Folders, ", "))
	fmt.Printf("files (%d): %s\n", len(res.Written), SummarizePaths(res.Written, 8))
	fmt.Printf("next: cd %s\n", name)
	if p.Compose {
		fmt.Println("next: docker compose up -d")
	}
	return nil
}

// defaultPreset honors the saved defaultStack preference, then "full".
func defaultPreset(rt *runtimeEnv) string {
	prefs, err := rt.Store.LoadUserPreferences()
	if err != nil {
		rt.Logger.Warn("ignoring unreadable user preferences", clog.Err(err))
		return stack.Presets[0].Name
	}
	if prefs.Preferences.DefaultStack != "" {
		return prefs.Preferences.DefaultStack
	}
	return stack.Presets[0].Name
}
