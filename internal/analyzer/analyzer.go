// Package analyzer classifies an existing project directory: which
// frameworks it uses, which package manager, and how its folders are laid
// out.
package analyzer

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
	"github.com/rapids-dev/rapids/internal/stack"
)

// Analysis is produced fresh on every run and never persisted.
type Analysis struct {
	Root           string                `json:"root"`
	HasNextJS      bool                  `json:"has_nextjs"`
	HasFastAPI     bool                  `json:"has_fastapi"`
	HasFlutter     bool                  `json:"has_flutter"`
	HasDocker      bool                  `json:"has_docker"`
	HasOverlay     bool                  `json:"has_overlay"`
	PackageManager stack.PackageManager  `json:"package_manager,omitempty"`
	Topology       stack.Topology        `json:"topology"`
	Folders        map[stack.Role]string `json:"folders"`
}

var (
	nextJSMarkers  = []string{"next.config.js", "next.config.ts", "next.config.mjs"}
	fastAPIMarkers = []string{"main.py", filepath.Join("app", "main.py")}
	flutterMarkers = []string{"pubspec.yaml"}
	dockerMarkers  = []string{"Dockerfile", "docker-compose.yml"}
)

// Analyze inspects root. Missing markers are data, not errors; only an
// unreadable root fails.
func Analyze(root string) (*Analysis, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, rerr.Wrap(rerr.PathInaccessible, "read project root "+root, err)
	}
	children := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			children[entry.Name()] = true
		}
	}

	a := &Analysis{
		Root:       root,
		HasNextJS:  anyExists(root, nextJSMarkers),
		HasFastAPI: anyExists(root, fastAPIMarkers),
		HasFlutter: anyExists(root, flutterMarkers),
		HasDocker:  anyExists(root, dockerMarkers),
		HasOverlay: fileutil.IsDir(paths.OverlayRoot(root)),
		Folders:    map[stack.Role]string{},
	}

	for _, lock := range stack.Lockfiles {
		if fileutil.Exists(filepath.Join(root, lock.File)) {
			a.PackageManager = lock.Manager
			break
		}
	}

	for _, role := range stack.Roles {
		for _, alias := range stack.RoleAliases[role] {
			if children[alias] {
				a.Folders[role] = alias
				break
			}
		}
	}

	switch {
	case hasWorkspaceFlag(root) || len(a.Folders) > 1:
		a.Topology = stack.TopologyMonorepo
	case len(a.Folders) == 1:
		a.Topology = stack.TopologyMultiFolder
	case a.HasNextJS || a.HasFastAPI || a.HasFlutter:
		a.Topology = stack.TopologySingle
	default:
		a.Topology = stack.TopologyUnknown
	}
	return a, nil
}

// HasRole combines the framework marker and the folder match for role.
func (a *Analysis) HasRole(role stack.Role) bool {
	if a.Folders[role] != "" {
		return true
	}
	switch role {
	case stack.RoleWeb:
		return a.HasNextJS
	case stack.RoleBackend:
		return a.HasFastAPI
	case stack.RoleMobile:
		return a.HasFlutter
	}
	return false
}

// Framework names the detected framework for role, or "".
func (a *Analysis) Framework(role stack.Role) string {
	switch {
	case role == stack.RoleWeb && a.HasNextJS:
		return "Next.js"
	case role == stack.RoleBackend && a.HasFastAPI:
		return "FastAPI"
	case role == stack.RoleMobile && a.HasFlutter:
		return "Flutter"
	}
	return ""
}

// hasWorkspaceFlag reads package.json; an unreadable or invalid manifest
// counts as no flag.
func hasWorkspaceFlag(root string) bool {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return false
	}
	var manifest struct {
		Workspaces json.RawMessage `json:"workspaces"`
		Private    bool            `json:"private"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return false
	}
	if manifest.Private {
		return true
	}
	switch string(manifest.Workspaces) {
	case "", "null", "false", "[]", "{}":
		return false
	}
	return true
}

func anyExists(root string, rels []string) bool {
	for _, rel := range rels {
		if fileutil.Exists(filepath.Join(root, rel)) {
			return true
		}
	}
	return false
}
