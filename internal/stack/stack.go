// Package stack holds the vocabulary shared by analysis, migration,
// scaffolding and generation: service roles, package managers, folder
// topologies and stack presets.
package stack

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleWeb     Role = "web"
	RoleBackend Role = "backend"
	RoleMobile  Role = "mobile"
)

// Roles is the canonical role order used for output.
var Roles = []Role{RoleWeb, RoleBackend, RoleMobile}

// RoleAliases lists accepted top-level folder names per role, in priority
// order.
var RoleAliases = map[Role][]string{
	RoleWeb:     {"web", "frontend", "client"},
	RoleBackend: {"backend", "server", "api"},
	RoleMobile:  {"mobile", "app"},
}

type PackageManager string

const (
	PackageManagerNone PackageManager = ""
	PackageManagerNPM  PackageManager = "npm"
	PackageManagerYarn PackageManager = "yarn"
	PackageManagerPNPM PackageManager = "pnpm"
)

// Lockfiles maps lockfile names to managers in precedence order.
var Lockfiles = []struct {
	File    string
	Manager PackageManager
}{
	{File: "pnpm-lock.yaml", Manager: PackageManagerPNPM},
	{File: "yarn.lock", Manager: PackageManagerYarn},
	{File: "package-lock.json", Manager: PackageManagerNPM},
}

func ParsePackageManager(value string) (PackageManager, error) {
	switch pm := PackageManager(strings.ToLower(strings.TrimSpace(value))); pm {
	case PackageManagerNPM, PackageManagerYarn, PackageManagerPNPM, PackageManagerNone:
		return pm, nil
	default:
		return "", fmt.Errorf("unsupported package manager %q (supported: npm, yarn, pnpm)", value)
	}
}

type Topology string

const (
	TopologyMonorepo    Topology = "monorepo"
	TopologyMultiFolder Topology = "multi-folder"
	TopologySingle      Topology = "single"
	TopologyUnknown     Topology = "unknown"
)

func (t Topology) Label() string {
	switch t {
	case TopologyMonorepo:
		return "Multi-stack monorepo"
	case TopologySingle:
		return "Single-stack project"
	case TopologyMultiFolder:
		return "Multi-folder project"
	default:
		return "Unclassified project"
	}
}

// Preset is a named project layout offered by `rapids init`.
type Preset struct {
	Name    string
	Label   string
	Folders []string
	Compose bool
}

var Presets = []Preset{
	{Name: "full", Label: "Full Stack (Mobile + Web + Backend)", Folders: []string{"mobile", "web", "backend", "docs", ".claude"}, Compose: true},
	{Name: "mobile", Label: "Mobile Only (Flutter)", Folders: []string{"mobile", "docs", ".claude"}},
	{Name: "web-backend", Label: "Web + Backend", Folders: []string{"web", "backend", "docs", ".claude"}, Compose: true},
	{Name: "backend", Label: "Backend Only (FastAPI)", Folders: []string{"backend", "docs", ".claude"}},
}

func LookupPreset(name string) (Preset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range Presets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for _, p := range Presets {
		names = append(names, p.Name)
	}
	return names
}

// HasFolder reports whether the preset creates the named top-level folder.
func (p Preset) HasFolder(name string) bool {
	for _, f := range p.Folders {
		if f == name {
			return true
		}
	}
	return false
}
