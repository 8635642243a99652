package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/config"
	"github.com/rapids-dev/rapids/internal/stack"
	"github.com/rapids-dev/rapids/internal/templates"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rapids",
		Short: "Install agent configuration and scaffold projects for Claude",
		Long: `rapids installs a bundled .claude configuration (agents, commands,
prompts and MCP servers) into your global Claude directory, scaffolds new
projects from stack presets, migrates existing projects to a per-project
overlay, and generates layered source skeletons from templates.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			verbose, err := OptionalBoolFlag(cmd, "verbose", false)
			if err != nil {
				return err
			}
			cmd.SetContext(withLogger(commandContext(cmd), newLogger(env, verbose)))
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug diagnostics to stderr")

	// Install Commands
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "Install the bundled configuration into the global registry",
		Args:  cobra.NoArgs,
		RunE:  RunInstall,
	}
	installCmd.Flags().String("source", "", "Bundled .claude directory to install from (default: $RAPIDS_SOURCE_DIR, then the latest release)")
	installCmd.Flags().Bool("dry-run", false, "Show the files that would change without writing")
	installCmd.Flags().Bool("helpers", false, "Write ~/.rapids-cli.sh and source it from your shell rc")
	installCmd.Flags().Bool("precache", false, "Pre-download MCP server packages with npx")
	installCmd.Flags().Bool("allow-unsupported", false, "Install on platforms without a supported profile")
	installCmd.Flags().Bool("json", false, "Print machine-readable install result")
	for _, f := range credentialFlags {
		installCmd.Flags().String(f.Flag, "", f.Usage)
	}

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Download the latest release and reinstall, keeping local overrides",
		Args:  cobra.NoArgs,
		RunE:  RunUpdate,
	}
	updateCmd.Flags().String("url", "", "Release archive URL, https:// or s3://bucket/key (default: $RAPIDS_ARCHIVE_URL)")
	updateCmd.Flags().String("region", "", "AWS region for s3:// sources (default: $RAPIDS_S3_REGION)")
	updateCmd.Flags().Bool("helpers", false, "Rewrite shell helpers")
	updateCmd.Flags().Bool("precache", false, "Pre-download MCP server packages with npx")
	updateCmd.Flags().Bool("allow-unsupported", false, "Update on platforms without a supported profile")
	updateCmd.Flags().Bool("json", false, "Print machine-readable update result")

	// Project Commands
	initCmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Create a new project from a stack preset",
		Args:  cobra.ExactArgs(1),
		RunE:  RunInit,
	}
	initCmd.Flags().String("preset", "", "Stack preset: "+strings.Join(stack.PresetNames(), "|")+" (default: defaultStack preference, then full)")
	initCmd.Flags().Bool("json", false, "Print machine-readable result")

	migrateCmd := &cobra.Command{
		Use:   "migrate [path]",
		Short: "Add the per-project overlay, CLAUDE.md and docs tree to an existing project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunMigrate,
	}
	migrateCmd.Flags().Bool("json", false, "Print machine-readable result")

	cleanCmd := &cobra.Command{
		Use:   "clean [path]",
		Short: "Remove legacy artifacts from a migrated project",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunClean,
	}
	cleanCmd.Flags().Bool("dry-run", false, "List what would be removed without deleting")
	cleanCmd.Flags().Bool("json", false, "Print machine-readable result")

	generateCmd := &cobra.Command{
		Use:   "generate [template] [entity...]",
		Short: "Generate source skeletons from a template (" + strings.Join(templates.IDs(), ", ") + ")",
		RunE:  RunGenerate,
	}
	generateCmd.Flags().String("path", "", "Project root to generate into (default: current directory)")
	generateCmd.Flags().Bool("dry-run", false, "Render without writing")
	generateCmd.Flags().Bool("verify", true, "Parse generated files and refuse output with syntax errors")
	generateCmd.Flags().Bool("json", false, "Print machine-readable result")

	// Inspect Commands
	agentCmd := &cobra.Command{
		Use:   "agent [name] [prompt...]",
		Short: "List agents, show one agent's instructions, or invoke it with a prompt",
		RunE:  RunAgent,
	}
	agentCmd.Flags().String("trigger", "", "Find agents whose triggers match a phrase")
	agentCmd.Flags().Bool("json", false, "Print machine-readable output")

	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report platform support, install status and counts",
		Args:  cobra.NoArgs,
		RunE:  RunDoctor,
	}
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write user preferences",
	}
	configGetCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one preference or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunConfigGet,
	}
	configGetCmd.Flags().Bool("json", false, "Print machine-readable values")
	configSetCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Validate and save one preference",
		Args:  cobra.ExactArgs(2),
		RunE:  RunConfigSet,
	}
	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the preferences file location",
		Args:  cobra.NoArgs,
		RunE:  RunConfigPath,
	}
	configCmd.AddCommand(configGetCmd, configSetCmd, configPathCmd)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rapids %s\n", version)
		},
	}

	rootCmd.AddCommand(
		installCmd,
		updateCmd,
		initCmd,
		migrateCmd,
		cleanCmd,
		generateCmd,
		agentCmd,
		doctorCmd,
		configCmd,
		versionCmd,
	)

	return rootCmd
}
