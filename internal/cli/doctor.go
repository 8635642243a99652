package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/agents"
	"github.com/rapids-dev/rapids/internal/archive"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/install"
	"github.com/rapids-dev/rapids/internal/paths"
)

func RunDoctor(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}

	summary := DoctorSummary{
		Mode:       "doctor",
		Platform:   rt.Paths.Profile.Name,
		Supported:  rt.Paths.Profile.Supported,
		GlobalRoot: rt.Paths.GlobalRoot(),
		Installed:  rt.Store.IsInstalled(),
		Project: ProjectStatus{
			Root:         rootPath,
			Overlay:      fileutil.IsDir(paths.OverlayRoot(rootPath)),
			Instructions: fileutil.Exists(paths.InstructionsPath(rootPath)),
		},
	}

	if !summary.Supported {
		summary.Missing = append(summary.Missing, "supported platform")
		summary.Suggestions = append(summary.Suggestions, "run rapids install --allow-unsupported")
	}

	if summary.Installed {
		summary.Version = archive.ReadVersion(rt.Paths.MethodFile())
		summary.Commands = install.CountEntries(rt.Paths.CommandsDir())
		summary.Templates = install.CountEntries(rt.Paths.PromptsDir())

		if catalog, err := agents.Load(rt.Store); err != nil {
			summary.Missing = append(summary.Missing, "valid agent registry")
			summary.Suggestions = append(summary.Suggestions, "run rapids update")
		} else {
			summary.Agents = catalog.Len()
		}

		counts, err := agents.ScanDescriptors(rt.Paths.AgentsDir())
		if err != nil {
			return err
		}
		summary.Descriptors = counts
		if len(counts.Invalid) > 0 {
			summary.Missing = append(summary.Missing, "valid agent descriptors")
			summary.Suggestions = append(summary.Suggestions, "run rapids install")
		}

		if client, err := rt.Store.LoadClientConfig(); err != nil {
			summary.Missing = append(summary.Missing, "readable client config")
		} else {
			summary.Servers = slices.Sorted(maps.Keys(client.Servers))
		}
		if len(summary.Servers) == 0 {
			summary.Missing = append(summary.Missing, "MCP servers")
			summary.Suggestions = append(summary.Suggestions, "run rapids install")
		}
	} else {
		summary.Missing = append(summary.Missing, "global registry")
		summary.Suggestions = append(summary.Suggestions, "run rapids install")
	}

	if summary.Project.Overlay && !summary.Project.Instructions {
		summary.Suggestions = append(summary.Suggestions, "run rapids migrate")
	}

	slices.Sort(summary.Missing)
	summary.Missing = slices.Compact(summary.Missing)
	slices.Sort(summary.Suggestions)
	summary.Suggestions = slices.Compact(summary.Suggestions)
	summary.Healthy = summary.Supported && summary.Installed && len(summary.Missing) == 0

	if asJSON {
		return fileutil.PrintJSON(summary)
	}

	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	fmt.Printf("doctor: %s\n", status)
	fmt.Printf("platform: %s supported=%t\n", summary.Platform, summary.Supported)
	fmt.Printf("install: installed=%t root=%s", summary.Installed, summary.GlobalRoot)
	if summary.Version != "" {
		fmt.Printf(" version=v%s", summary.Version)
	}
	fmt.Println()
	if summary.Installed {
		fmt.Printf("counts: agents=%d commands=%d templates=%d\n", summary.Agents, summary.Commands, summary.Templates)
		fmt.Printf("descriptors: valid=%d invalid=%d\n", summary.Descriptors.Valid, len(summary.Descriptors.Invalid))
		if len(summary.Descriptors.Invalid) > 0 {
			fmt.Printf("invalid descriptors: %s\n", SummarizePaths(summary.Descriptors.Invalid, 5))
		}
		fmt.Printf("mcp servers (%d): %s\n", len(summary.Servers), strings.Join(summary.Servers, ", "))
	}
	fmt.Printf("project: overlay=%t instructions=%t\n", summary.Project.Overlay, summary.Project.Instructions)
	if len(summary.Missing) > 0 {
		fmt.Printf("missing (%d): %s\n", len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Printf("next: %s\n", suggestion)
	}
	return nil
}
