// Package migrate converts an existing project to the rapids layout: a
// per-project overlay, an instructions document and a documentation tree.
package migrate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rapids-dev/rapids/internal/analyzer"
	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
	"github.com/rapids-dev/rapids/internal/stack"
)

// DocSubdirs are created below the documentation root.
var DocSubdirs = []string{
	"task",
	filepath.Join("task", "archive"),
	"system",
	"sop",
}

// DocTemplates are copied from the global documentation templates when
// present.
var DocTemplates = []string{
	"readme.md",
	filepath.Join("task", "template-feature-plan.md"),
	filepath.Join("sop", "template-sop.md"),
}

const architectureDoc = "system/architecture-overview.md"

// Result lists what one migration touched, relative to the project root.
type Result struct {
	Root          string   `json:"root"`
	BackupCreated bool     `json:"backup_created"`
	Written       []string `json:"written"`
	Skipped       []string `json:"skipped,omitempty"`
}

type Engine struct {
	Paths  *paths.Resolver
	Logger *slog.Logger
}

func New(resolver *paths.Resolver, logger *slog.Logger) *Engine {
	return &Engine{Paths: resolver, Logger: clog.OrDiscard(logger)}
}

// Migrate writes the overlay for an analyzed project. Each step is
// idempotent; a failure leaves earlier steps' output in place.
func (e *Engine) Migrate(a *analyzer.Analysis) (*Result, error) {
	root := a.Root
	res := &Result{Root: root}
	log := clog.OrDiscard(e.Logger).With("root", root)

	overlay := paths.OverlayRoot(root)
	backedUp, err := fileutil.Backup(overlay, paths.OverlayBackup(root))
	if err != nil {
		return res, e.fail(1, "back up overlay", err)
	}
	res.BackupCreated = backedUp
	if backedUp {
		log.Info("overlay backed up", "backup", paths.OverlayBackup(root))
	}

	settings := SettingsFor(a)
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return res, e.fail(2, "encode settings", err)
	}
	if err := os.MkdirAll(overlay, 0755); err != nil {
		return res, e.fail(2, "create overlay", err)
	}
	if err := fileutil.WriteIfChanged(paths.OverlaySettingsFile(root), append(data, '\n')); err != nil {
		return res, e.fail(2, "write settings", err)
	}
	res.written(root, paths.OverlaySettingsFile(root))

	if e.Paths != nil && fileutil.Exists(e.Paths.StackConfigFile()) {
		if _, err := fileutil.CopyFile(e.Paths.StackConfigFile(), paths.OverlayStackFile(root)); err != nil {
			log.Warn("stack config not copied", clog.Err(err))
			res.Skipped = append(res.Skipped, rel(root, paths.OverlayStackFile(root)))
		} else {
			res.written(root, paths.OverlayStackFile(root))
		}
	} else {
		res.Skipped = append(res.Skipped, rel(root, paths.OverlayStackFile(root)))
	}

	view := newDocView(a)
	instructions, err := render(instructionsTmpl, view)
	if err != nil {
		return res, e.fail(4, "render instructions", err)
	}
	if _, err := fileutil.UpsertManagedFile(paths.InstructionsPath(root), fileutil.MarkdownMarkers, instructions); err != nil {
		return res, e.fail(4, "write instructions", err)
	}
	res.written(root, paths.InstructionsPath(root))

	ignorePath := filepath.Join(root, paths.IgnoreFile)
	created, err := fileutil.WriteIfMissing(ignorePath, []byte(IgnoreFileContent), 0644)
	if err != nil {
		return res, e.fail(5, "write ignore file", err)
	}
	if created {
		res.written(root, ignorePath)
	} else {
		res.Skipped = append(res.Skipped, paths.IgnoreFile)
	}

	docs := paths.DocsRoot(root)
	for _, sub := range DocSubdirs {
		if err := os.MkdirAll(filepath.Join(docs, sub), 0755); err != nil {
			return res, e.fail(6, "create documentation tree", err)
		}
	}
	for _, name := range DocTemplates {
		dst := filepath.Join(docs, name)
		if e.Paths == nil {
			res.Skipped = append(res.Skipped, rel(root, dst))
			continue
		}
		src := filepath.Join(e.Paths.DocTemplatesDir(), name)
		if !fileutil.Exists(src) {
			res.Skipped = append(res.Skipped, rel(root, dst))
			continue
		}
		if _, err := fileutil.CopyFile(src, dst); err != nil {
			log.Warn("documentation template not copied", "template", name, clog.Err(err))
			res.Skipped = append(res.Skipped, rel(root, dst))
			continue
		}
		res.written(root, dst)
	}

	overview, err := render(architectureTmpl, view)
	if err != nil {
		return res, e.fail(7, "render architecture overview", err)
	}
	overviewPath := filepath.Join(docs, filepath.FromSlash(architectureDoc))
	if err := os.WriteFile(overviewPath, []byte(overview), 0644); err != nil {
		return res, e.fail(7, "write architecture overview", err)
	}
	res.written(root, overviewPath)

	log.Debug("migration complete", "written", len(res.Written))
	return res, nil
}

// SettingsFor builds the overlay settings for an analysis. A role counts as
// present when either its framework marker or its folder was detected.
func SettingsFor(a *analyzer.Analysis) configstore.ProjectSettings {
	folders := make(map[stack.Role]string, len(a.Folders))
	for role, folder := range a.Folders {
		folders[role] = folder
	}
	return configstore.ProjectSettings{
		ProjectName: filepath.Base(filepath.Clean(a.Root)),
		Stack: configstore.RoleFlags{
			Web:     a.HasRole(stack.RoleWeb),
			Backend: a.HasRole(stack.RoleBackend),
			Mobile:  a.HasRole(stack.RoleMobile),
		},
		Folders:        folders,
		PackageManager: a.PackageManager,
	}
}

func (e *Engine) fail(step int, action string, err error) error {
	e.Logger.Error("migration failed", "step", step, clog.Err(err))
	return rerr.Wrap(rerr.PathInaccessible, fmt.Sprintf("%s (completed through step %d)", action, step-1), err)
}

func (r *Result) written(root, path string) {
	r.Written = append(r.Written, rel(root, path))
}

func rel(root, path string) string {
	if r, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(r)
	}
	return path
}
