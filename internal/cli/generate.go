package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/rerr"
	"github.com/rapids-dev/rapids/internal/syntaxcheck"
	"github.com/rapids-dev/rapids/internal/templates"
)

type TemplateInfo struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Target      string   `json:"target"`
	Files       []string `json:"files"`
}

func RunGenerate(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return printTemplateList(asJSON)
	}
	if len(args) < 2 {
		return rerr.WithDetails(rerr.ValidationFailed,
			fmt.Sprintf("usage: rapids generate <template> <entity> (templates: %s)", strings.Join(templates.IDs(), ", ")),
			map[string]string{"field": "entity"})
	}
	id, entity := args[0], strings.Join(args[1:], " ")

	root, err := OptionalStringFlag(cmd, "path")
	if err != nil {
		return err
	}
	if root == "" {
		if root, err = resolveWorkingDirectory(); err != nil {
			return err
		}
	} else if root, err = filepath.Abs(root); err != nil {
		return err
	}
	dryRun, err := OptionalBoolFlag(cmd, "dry-run", false)
	if err != nil {
		return err
	}
	verify, err := OptionalBoolFlag(cmd, "verify", true)
	if err != nil {
		return err
	}

	gen := &templates.Generator{
		Root:       root,
		PromptsDir: rt.Paths.PromptsDir(),
		Logger:     rt.Logger,
	}
	if verify {
		gen.Checker = syntaxcheck.NewDefaultRegistry()
	}
	overlay, err := rt.Store.LoadProjectOverlay(root)
	if err != nil {
		return err
	}
	if overlay != nil {
		gen.Settings = overlay.Settings
	}

	ctx := commandContext(cmd)
	var res *templates.Result
	if dryRun {
		res, err = gen.Plan(ctx, id, entity)
		if res != nil {
			res.DryRun = true
		}
	} else {
		res, err = gen.Generate(ctx, id, entity)
	}
	if err != nil {
		return err
	}
	if asJSON {
		return fileutil.PrintJSON(res)
	}

	verb := "generated"
	if dryRun {
		verb = "would generate"
	}
	fmt.Printf("%s %s %s for %s (%d files)\n", color.GreenString("✓"), verb, res.Template, res.Entity.Pascal, len(res.Files))
	for _, f := range res.Files {
		rel, err := filepath.Rel(root, f.Path)
		if err != nil {
			rel = f.Path
		}
		fmt.Printf("  %s\n", filepath.ToSlash(rel))
	}
	if res.Prompt != "" {
		fmt.Println()
		fmt.Println("prompt:")
		fmt.Println(strings.TrimRight(res.Prompt, "\n"))
	}
	return nil
}

func printTemplateList(asJSON bool) error {
	infos := make([]TemplateInfo, 0, len(templates.Catalog))
	for _, id := range templates.IDs() {
		t, _ := templates.Lookup(id)
		info := TemplateInfo{ID: t.ID, Description: t.Description, Target: t.Target}
		for _, f := range t.Files {
			info.Files = append(info.Files, f.Path)
		}
		infos = append(infos, info)
	}
	if asJSON {
		return fileutil.PrintJSON(infos)
	}
	for _, info := range infos {
		fmt.Printf("%-16s %s (%s/, %d files)\n", info.ID, info.Description, info.Target, len(info.Files))
	}
	return nil
}
