// Package scaffold creates new projects from stack presets.
package scaffold

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
	"github.com/rapids-dev/rapids/internal/stack"
	"github.com/rapids-dev/rapids/internal/syntaxcheck"
	"github.com/rapids-dev/rapids/internal/validate"
)

// Ports are the host ports the generated services listen on.
type Ports struct {
	Backend  int
	Web      int
	Database int
}

var DefaultPorts = Ports{Backend: 8001, Web: 3000, Database: 5433}

func (p Ports) asMap() map[string]int {
	return map[string]int{"backend": p.Backend, "web": p.Web, "database": p.Database}
}

type Result struct {
	Root    string   `json:"root"`
	Preset  string   `json:"preset"`
	Folders []string `json:"folders"`
	Written []string `json:"written"`
}

type Scaffolder struct {
	Checker *syntaxcheck.Registry
	Logger  *slog.Logger
	Ports   Ports
}

func New(logger *slog.Logger) *Scaffolder {
	return &Scaffolder{
		Checker: syntaxcheck.NewDefaultRegistry(),
		Logger:  clog.OrDiscard(logger),
		Ports:   DefaultPorts,
	}
}

// Create builds the project directory parent/name for the named preset.
// Nothing is written when the name or preset is invalid or the directory
// already exists.
func (s *Scaffolder) Create(ctx context.Context, parent, name, presetName string) (*Result, error) {
	if err := validate.ProjectName(name); err != nil {
		return nil, err
	}
	preset, ok := stack.LookupPreset(presetName)
	if !ok {
		return nil, rerr.WithDetails(rerr.ValidationFailed, "unknown preset "+presetName,
			map[string]string{"field": "preset"})
	}
	root := filepath.Join(parent, name)
	if _, err := os.Lstat(root); err == nil {
		return nil, rerr.WithDetails(rerr.ValidationFailed, "directory '"+name+"' already exists",
			map[string]string{"field": "name", "path": root})
	}

	files, err := s.render(ctx, name, preset)
	if err != nil {
		return nil, err
	}

	log := clog.OrDiscard(s.Logger).With("root", root, "preset", preset.Name)
	res := &Result{Root: root, Preset: preset.Name, Folders: preset.Folders}
	for _, folder := range preset.Folders {
		if err := os.MkdirAll(filepath.Join(root, folder), 0755); err != nil {
			return res, rerr.Wrap(rerr.PathInaccessible, "create "+folder, err)
		}
	}
	for _, rel := range slices.Sorted(maps.Keys(files)) {
		if err := ctx.Err(); err != nil {
			return res, rerr.Wrap(rerr.Canceled, "scaffold canceled", err)
		}
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return res, rerr.Wrap(rerr.PathInaccessible, "create "+filepath.Dir(rel), err)
		}
		if err := os.WriteFile(path, files[rel], 0644); err != nil {
			return res, rerr.Wrap(rerr.PathInaccessible, "write "+rel, err)
		}
		res.Written = append(res.Written, rel)
	}

	log.Info("project created", "files", len(res.Written))
	return res, nil
}

// render builds every file of the project in memory, keyed by slash path,
// and checks generated Dockerfiles parse before anything touches disk.
func (s *Scaffolder) render(ctx context.Context, name string, preset stack.Preset) (map[string][]byte, error) {
	ports := s.Ports
	if ports == (Ports{}) {
		ports = DefaultPorts
	}
	files := map[string][]byte{}

	settings := SettingsFor(name, preset, ports)
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, rerr.Wrap(rerr.ValidationFailed, "encode settings", err)
	}
	files[paths.OverlayDir+"/"+paths.OverlaySettingsName] = append(data, '\n')

	stackData, err := json.MarshalIndent(StackConfigFor(name, preset, ports), "", "  ")
	if err != nil {
		return nil, rerr.Wrap(rerr.ValidationFailed, "encode stack config", err)
	}
	files[paths.OverlayDir+"/"+paths.StackConfigFile] = append(stackData, '\n')

	for folder, body := range Dockerfiles {
		if !preset.HasFolder(folder) {
			continue
		}
		rel := folder + "/Dockerfile"
		if s.Checker != nil {
			if err := s.Checker.Verify(ctx, rel, []byte(body)); err != nil {
				return nil, err
			}
		}
		files[rel] = []byte(body)
	}

	if preset.Compose {
		compose, err := renderCompose(ports)
		if err != nil {
			return nil, rerr.Wrap(rerr.ValidationFailed, "encode docker-compose.yml", err)
		}
		if s.Checker != nil {
			if err := s.Checker.Verify(ctx, "docker-compose.yml", compose); err != nil {
				return nil, err
			}
		}
		files["docker-compose.yml"] = compose
	}

	files["README.md"] = []byte(renderReadme(name, preset, ports))
	return files, nil
}

// SettingsFor is the overlay settings document of a freshly scaffolded
// project.
func SettingsFor(name string, preset stack.Preset, ports Ports) configstore.ProjectSettings {
	settings := configstore.ProjectSettings{
		ProjectName: name,
		Folders:     map[stack.Role]string{},
		Preset:      preset.Name,
		Ports:       ports.asMap(),
	}
	for _, role := range stack.Roles {
		if !preset.HasFolder(string(role)) {
			continue
		}
		settings.Folders[role] = string(role)
		switch role {
		case stack.RoleWeb:
			settings.Stack.Web = true
		case stack.RoleBackend:
			settings.Stack.Backend = true
		case stack.RoleMobile:
			settings.Stack.Mobile = true
		}
	}
	return settings
}

// StackConfigFor describes the technologies a preset starts with.
func StackConfigFor(name string, preset stack.Preset, ports Ports) configstore.StackConfig {
	cfg := configstore.StackConfig{
		Project: configstore.ProjectMetadata{
			Name:        name,
			Version:     "1.0.0",
			Description: "Scaffolded by rapids (" + preset.Label + ")",
		},
		Ports: ports.asMap(),
	}
	if preset.HasFolder(string(stack.RoleMobile)) {
		cfg.Stack.Mobile = &configstore.MobileStack{Framework: "Flutter", StateManagement: "Riverpod", Routing: "Go Router"}
	}
	if preset.HasFolder(string(stack.RoleWeb)) {
		cfg.Stack.Web = &configstore.WebStack{Framework: "Next.js", Version: "15+", Runtime: "React 18"}
	}
	if preset.HasFolder(string(stack.RoleBackend)) {
		cfg.Stack.Backend = &configstore.BackendStack{Framework: "FastAPI", Language: "Python 3.12+", Database: "PostgreSQL 16", ORM: "SQLAlchemy"}
	}
	return cfg
}
