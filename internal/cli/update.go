package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/archive"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/install"
)

func RunUpdate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	url, err := OptionalStringFlag(cmd, "url")
	if err != nil {
		return err
	}
	if url == "" {
		url = rt.Env.ArchiveURL
	}
	region, err := OptionalStringFlag(cmd, "region")
	if err != nil {
		return err
	}
	if region == "" {
		region = rt.Env.S3Region
	}

	opts, err := installOptions(cmd, rt)
	if err != nil {
		return err
	}
	fetcher, err := archive.NewFetcher(ctx, url, region)
	if err != nil {
		return err
	}

	reporter := newStepProgressReporter("update", asJSON)
	engine := install.New(rt.Store, rt.Logger)
	engine.Progress = reporter.InstallEvent
	res, err := engine.Update(ctx, fetcher, opts)
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(res)
	}

	switch {
	case res.PreviousVersion != "" && res.PreviousVersion == res.Version:
		fmt.Printf("%s already at v%s, configuration refreshed\n", color.GreenString("✓"), res.Version)
	case res.Version != "":
		from := res.PreviousVersion
		if from == "" {
			from = "unknown"
		}
		fmt.Printf("%s updated v%s -> v%s\n", color.GreenString("✓"), from, res.Version)
	default:
		fmt.Printf("%s updated from %s\n", color.GreenString("✓"), res.Source)
	}
	if res.Install != nil {
		fmt.Printf("agents=%d commands=%d templates=%d\n", res.Install.Agents, res.Install.Commands, res.Install.Templates)
	}
	fmt.Println("local overrides preserved (settings.local.json)")
	return nil
}
