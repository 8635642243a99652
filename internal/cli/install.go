package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/archive"
	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/install"
)

// credentialFlags maps install flags onto saved credential fields.
var credentialFlags = []struct {
	Flag  string
	Usage string
	Set   func(c *configstore.Credentials, v string)
}{
	{Flag: "dokploy-url", Usage: "Dokploy instance URL", Set: func(c *configstore.Credentials, v string) { c.DokployURL = v }},
	{Flag: "dokploy-api-key", Usage: "Dokploy API key", Set: func(c *configstore.Credentials, v string) { c.DokployAPIKey = v }},
	{Flag: "neon-api-key", Usage: "Neon API key", Set: func(c *configstore.Credentials, v string) { c.NeonAPIKey = v }},
	{Flag: "github-token", Usage: "GitHub personal access token", Set: func(c *configstore.Credentials, v string) { c.GitHubToken = v }},
}

func RunInstall(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	dryRun, err := OptionalBoolFlag(cmd, "dry-run", false)
	if err != nil {
		return err
	}

	source, err := OptionalStringFlag(cmd, "source")
	if err != nil {
		return err
	}
	if source == "" {
		source = rt.Env.SourceDir
	}
	if source == "" {
		fetcher, err := archive.NewFetcher(ctx, rt.Env.ArchiveURL, rt.Env.S3Region)
		if err != nil {
			return err
		}
		rt.Logger.Info("downloading release", "source", fetcher.Source())
		release, err := archive.Download(ctx, fetcher)
		if err != nil {
			return err
		}
		defer release.Close()
		source = release.ConfigDir()
	}

	if dryRun {
		return printInstallPreview(source, rt, asJSON)
	}

	opts, err := installOptions(cmd, rt)
	if err != nil {
		return err
	}
	opts.SourceDir = source

	reporter := newStepProgressReporter("install", asJSON)
	engine := install.New(rt.Store, rt.Logger)
	engine.Progress = reporter.InstallEvent
	res, err := engine.Run(ctx, opts)
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(res)
	}
	printInstallResult(res)
	return nil
}

// installOptions collects step toggles and credentials. Flags override
// credentials saved in user preferences.
func installOptions(cmd *cobra.Command, rt *runtimeEnv) (install.Options, error) {
	var opts install.Options
	var err error
	if opts.WriteHelpers, err = OptionalBoolFlag(cmd, "helpers", false); err != nil {
		return opts, err
	}
	if opts.Precache, err = OptionalBoolFlag(cmd, "precache", false); err != nil {
		return opts, err
	}
	if !flagChanged(cmd, "precache") && rt.Env.Precache {
		opts.Precache = true
	}
	if opts.AllowUnsupported, err = OptionalBoolFlag(cmd, "allow-unsupported", false); err != nil {
		return opts, err
	}

	creds := &configstore.Credentials{}
	prefs, err := rt.Store.LoadUserPreferences()
	if err != nil {
		rt.Logger.Warn("ignoring unreadable user preferences", clog.Err(err))
	} else if prefs.Credentials != nil {
		saved := *prefs.Credentials
		creds = &saved
	}
	for _, f := range credentialFlags {
		value, err := OptionalStringFlag(cmd, f.Flag)
		if err != nil {
			return opts, err
		}
		if value != "" {
			f.Set(creds, value)
		}
	}
	opts.Credentials = install.CredentialsFromPreferences(creds)
	return opts, nil
}

func printInstallPreview(source string, rt *runtimeEnv, asJSON bool) error {
	changes, err := install.Preview(source, rt.Paths)
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(changes)
	}
	if len(changes) == 0 {
		fmt.Println("install (dry-run): up to date")
		return nil
	}
	fmt.Printf("install (dry-run): %d file(s) would change in %s\n", len(changes), rt.Paths.GlobalRoot())
	for _, change := range changes {
		fmt.Printf("  %s %s\n", change.Kind, change.Path)
	}
	for _, change := range changes {
		if change.Diff != "" {
			fmt.Println()
			fmt.Print(change.Diff)
		}
	}
	return nil
}

func printInstallResult(res *install.Result) {
	fmt.Printf("%s installed to %s (run %s)\n", color.GreenString("✓"), res.Root, res.RunID)
	fmt.Printf("files: copied=%d dirs=%d\n", res.Copied.Files, res.Copied.Dirs)
	fmt.Printf("agents=%d commands=%d templates=%d\n", res.Agents, res.Commands, res.Templates)
	if len(res.Servers) > 0 {
		fmt.Printf("mcp servers (%d): %s\n", len(res.Servers), strings.Join(res.Servers, ", "))
	}
	if res.ClientBackup {
		fmt.Println("client config backed up before merge")
	}
	if res.HelperScript != "" {
		fmt.Printf("helpers: %s", res.HelperScript)
		if res.ShellRC != "" {
			fmt.Printf(" (sourced from %s)", res.ShellRC)
		}
		fmt.Println()
	}
	for _, p := range res.Precache {
		if p.Err != "" {
			fmt.Printf("precache %s: %s %s\n", p.Server, color.RedString("failed"), p.Err)
			continue
		}
		fmt.Printf("precache %s: ok (%s)\n", p.Server, p.Duration)
	}
	fmt.Println("next: restart Claude to load the new configuration")
}
