// Package install copies the bundled configuration tree into the global
// registry and wires it into the user's environment.
package install

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/rapids-dev/rapids/internal/agents"
	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
)

type StepID string

const (
	StepDetect   StepID = "detect"
	StepCopy     StepID = "copy"
	StepAgents   StepID = "agents"
	StepServers  StepID = "servers"
	StepHelpers  StepID = "helpers"
	StepPrecache StepID = "precache"
	StepVerify   StepID = "verify"
)

type Step struct {
	ID    StepID
	Label string
}

// Steps run in this order. Helpers and precache are skipped unless
// requested.
var Steps = []Step{
	{ID: StepDetect, Label: "Detecting environment"},
	{ID: StepCopy, Label: "Installing configuration"},
	{ID: StepAgents, Label: "Writing agent descriptors"},
	{ID: StepServers, Label: "Merging MCP servers"},
	{ID: StepHelpers, Label: "Creating shell helpers"},
	{ID: StepPrecache, Label: "Pre-caching MCP packages"},
	{ID: StepVerify, Label: "Verifying installation"},
}

// Event is reported when a step starts and when it finishes.
type Event struct {
	Index   int
	Total   int
	Step    Step
	Done    bool
	Skipped bool
	Counts  map[string]int
}

type ProgressFunc func(Event)

type Options struct {
	// SourceDir is the bundled configuration tree to install from.
	SourceDir        string
	Credentials      []Credential
	WriteHelpers     bool
	Precache         bool
	AllowUnsupported bool
}

type Result struct {
	RunID         string             `json:"run_id"`
	Root          string             `json:"root"`
	Copied        fileutil.CopyStats `json:"copied"`
	Agents        int                `json:"agents"`
	Commands      int                `json:"commands"`
	Templates     int                `json:"templates"`
	Servers       []string           `json:"servers"`
	ClientBackup  bool               `json:"client_backup"`
	HelperScript  string             `json:"helper_script,omitempty"`
	ShellRC       string             `json:"shell_rc,omitempty"`
	Precache      []PrecacheResult   `json:"precache,omitempty"`
	CompletedStep int                `json:"completed_step"`
}

type Engine struct {
	Store     *configstore.Store
	Logger    *slog.Logger
	Progress  ProgressFunc
	Precacher Precacher
}

func New(store *configstore.Store, logger *slog.Logger) *Engine {
	return &Engine{Store: store, Logger: clog.OrDiscard(logger), Precacher: ExecPrecacher{}}
}

// Run executes every step in order. Cancellation is observed between steps
// only. A failing step aborts the run; earlier steps are not rolled back
// and the error names the last completed step.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := ValidateCredentials(opts.Credentials); err != nil {
		return nil, err
	}

	resolver := e.Store.Paths()
	res := &Result{RunID: ulid.Make().String(), Root: resolver.GlobalRoot()}
	log := clog.OrDiscard(e.Logger).With("run", res.RunID)

	for i, step := range Steps {
		if err := ctx.Err(); err != nil {
			return res, rerr.Wrap(rerr.Canceled, fmt.Sprintf("install canceled (completed through step %d)", i), err)
		}
		if (step.ID == StepHelpers && !opts.WriteHelpers) || (step.ID == StepPrecache && !opts.Precache) {
			e.emit(Event{Index: i + 1, Total: len(Steps), Step: step, Done: true, Skipped: true})
			res.CompletedStep = i + 1
			continue
		}

		e.emit(Event{Index: i + 1, Total: len(Steps), Step: step})
		counts, err := e.runStep(ctx, step.ID, opts, res)
		if err != nil {
			log.Error("install step failed", "step", step.ID, clog.Err(err))
			kind := rerr.KindOf(err)
			if kind == "" {
				kind = rerr.PathInaccessible
			}
			return res, rerr.Wrap(kind, fmt.Sprintf("%s failed (completed through step %d)", step.Label, i), err)
		}
		res.CompletedStep = i + 1
		log.Debug("install step done", "step", step.ID)
		e.emit(Event{Index: i + 1, Total: len(Steps), Step: step, Done: true, Counts: counts})
	}
	return res, nil
}

func (e *Engine) emit(ev Event) {
	if e.Progress != nil {
		e.Progress(ev)
	}
}

func (e *Engine) runStep(ctx context.Context, id StepID, opts Options, res *Result) (map[string]int, error) {
	resolver := e.Store.Paths()
	switch id {
	case StepDetect:
		return nil, detect(resolver, opts)

	case StepCopy:
		stats, err := fileutil.CopyTree(opts.SourceDir, resolver.GlobalRoot(), fileutil.CopyOptions{
			Overwrite: true,
			Skip:      skipLocalOverrides,
		})
		if err != nil {
			return nil, rerr.Wrap(rerr.PathInaccessible, "copy configuration", err)
		}
		e.Store.InvalidateAll()
		res.Copied = stats
		return map[string]int{"files": stats.Files, "skipped": stats.Skipped}, nil

	case StepAgents:
		n, err := e.expandAgents(resolver)
		if err != nil {
			return nil, err
		}
		res.Agents = n
		return map[string]int{"agents": n}, nil

	case StepServers:
		names, backedUp, err := e.mergeServers(opts.Credentials)
		if err != nil {
			return nil, err
		}
		res.Servers = names
		res.ClientBackup = backedUp
		return map[string]int{"servers": len(names)}, nil

	case StepHelpers:
		script, rc, err := WriteHelpers(resolver)
		if err != nil {
			return nil, err
		}
		res.HelperScript = script
		res.ShellRC = rc
		return nil, nil

	case StepPrecache:
		servers, err := e.Store.LoadServerRegistry()
		if err != nil {
			return nil, err
		}
		res.Precache = RunPrecache(ctx, e.Precacher, servers, e.Logger)
		failed := 0
		for _, r := range res.Precache {
			if r.Err != "" {
				failed++
			}
		}
		return map[string]int{"packages": len(res.Precache), "failed": failed}, nil

	case StepVerify:
		if !e.Store.IsInstalled() {
			return nil, rerr.New(rerr.NotInstalled, "agents or commands directory missing after install")
		}
		res.Commands = CountEntries(resolver.CommandsDir())
		res.Templates = CountEntries(resolver.PromptsDir())
		return map[string]int{"agents": res.Agents, "commands": res.Commands, "templates": res.Templates}, nil
	}
	return nil, fmt.Errorf("unknown install step %q", id)
}

func detect(resolver *paths.Resolver, opts Options) error {
	if !resolver.Profile.Supported && !opts.AllowUnsupported {
		return rerr.WithDetails(rerr.Unsupported,
			fmt.Sprintf("platform %s is not supported yet", resolver.Profile.Name),
			map[string]string{"platform": resolver.Profile.Name})
	}
	if opts.SourceDir == "" || !fileutil.IsDir(opts.SourceDir) {
		return rerr.WithDetails(rerr.NotFound, "bundled configuration not found",
			map[string]string{"path": opts.SourceDir})
	}
	if !fileutil.Exists(filepath.Join(opts.SourceDir, paths.AgentRegistryFile)) {
		return rerr.WithDetails(rerr.ConfigCorrupt, "bundled configuration has no agent registry",
			map[string]string{"path": filepath.Join(opts.SourceDir, paths.AgentRegistryFile)})
	}
	return nil
}

// skipLocalOverrides keeps per-install local settings out of the copy.
func skipLocalOverrides(_ string, d fs.DirEntry) bool {
	return !d.IsDir() && d.Name() == paths.OverlaySettingsName
}

func (e *Engine) expandAgents(resolver *paths.Resolver) (int, error) {
	catalog, err := agents.Load(e.Store)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(resolver.AgentsDir(), 0755); err != nil {
		return 0, rerr.Wrap(rerr.PathInaccessible, "create agents dir", err)
	}
	for _, name := range catalog.List() {
		content, err := catalog.Materialize(name)
		if err != nil {
			return 0, err
		}
		if err := fileutil.WriteIfChanged(resolver.AgentFile(name), []byte(content)); err != nil {
			return 0, rerr.Wrap(rerr.PathInaccessible, "write agent "+name, err)
		}
	}
	return catalog.Len(), nil
}

// CountEntries counts the entries of dir, ignoring Finder metadata. A
// missing directory counts as empty.
func CountEntries(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if entry.Name() != ".DS_Store" {
			n++
		}
	}
	return n
}
