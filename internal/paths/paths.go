// Package paths maps rapids' logical locations onto concrete filesystem
// paths. Nothing here touches the filesystem.
package paths

import (
	"path/filepath"
	"strings"
)

const (
	AgentsDir          = "agents"
	CommandsDir        = "commands"
	PromptsDir         = "prompts"
	AgentRegistryFile  = "subagents-config.json"
	ServerRegistryFile = "mcp-config.json"
	UserPrefsFile      = "rapids-user-config.json"
	StackConfigFile    = "STACK_CONFIG.json"
	MethodFile         = "RAPIDS_METHOD.md"
	ClientConfigFile   = ".claude.json"
	HelperScriptFile   = ".rapids-cli.sh"

	OverlayDir          = ".claude"
	OverlaySettingsName = "settings.local.json"
	InstructionsFile    = "CLAUDE.md"
	IgnoreFile          = ".claudeignore"
	DocsDir             = ".agent"
	CleanupLogFile      = ".rapids-cleanup.log"

	BackupSuffix = ".backup"
)

// Profile selects where the global registry lives for one platform.
type Profile struct {
	Name      string
	RootDir   string // relative to the home directory
	Supported bool
}

var (
	Darwin = Profile{Name: "darwin", RootDir: ".claude", Supported: true}
	Linux  = Profile{Name: "linux", RootDir: filepath.Join(".config", "claude")}
)

// ProfileFor returns the profile for a GOOS value. Unknown platforms get an
// unsupported profile with the darwin layout.
func ProfileFor(goos string) Profile {
	switch strings.ToLower(strings.TrimSpace(goos)) {
	case "darwin", "macos":
		return Darwin
	case "linux":
		return Linux
	default:
		return Profile{Name: goos, RootDir: Darwin.RootDir}
	}
}

// Resolver resolves global and per-project locations from a home directory
// and a platform profile.
type Resolver struct {
	Home    string
	Profile Profile
}

func NewResolver(home string, profile Profile) *Resolver {
	return &Resolver{Home: home, Profile: profile}
}

func (r *Resolver) GlobalRoot() string {
	return filepath.Join(r.Home, r.Profile.RootDir)
}

func (r *Resolver) AgentsDir() string {
	return filepath.Join(r.GlobalRoot(), AgentsDir)
}

func (r *Resolver) AgentFile(name string) string {
	return filepath.Join(r.AgentsDir(), name+".md")
}

func (r *Resolver) CommandsDir() string {
	return filepath.Join(r.GlobalRoot(), CommandsDir)
}

func (r *Resolver) PromptsDir() string {
	return filepath.Join(r.GlobalRoot(), PromptsDir)
}

func (r *Resolver) PromptFile(templateID string) string {
	return filepath.Join(r.PromptsDir(), templateID+".md")
}

func (r *Resolver) AgentRegistryFile() string {
	return filepath.Join(r.GlobalRoot(), AgentRegistryFile)
}

func (r *Resolver) ServerRegistryFile() string {
	return filepath.Join(r.GlobalRoot(), ServerRegistryFile)
}

// ClientConfigFile is the home-level file the tool-server registry is merged
// into. It sits outside the global root.
func (r *Resolver) ClientConfigFile() string {
	return filepath.Join(r.Home, ClientConfigFile)
}

func (r *Resolver) UserPreferencesFile() string {
	return filepath.Join(r.GlobalRoot(), UserPrefsFile)
}

func (r *Resolver) StackConfigFile() string {
	return filepath.Join(r.GlobalRoot(), StackConfigFile)
}

func (r *Resolver) MethodFile() string {
	return filepath.Join(r.GlobalRoot(), MethodFile)
}

func (r *Resolver) DocTemplatesDir() string {
	return filepath.Join(r.GlobalRoot(), DocsDir)
}

func (r *Resolver) HelperScriptFile() string {
	return filepath.Join(r.Home, HelperScriptFile)
}

// ShellRCCandidates lists rc files in the order the helper hook prefers.
func (r *Resolver) ShellRCCandidates() []string {
	return []string{
		filepath.Join(r.Home, ".zshrc"),
		filepath.Join(r.Home, ".bashrc"),
	}
}

func OverlayRoot(project string) string {
	return filepath.Join(project, OverlayDir)
}

func OverlaySettingsFile(project string) string {
	return filepath.Join(project, OverlayDir, OverlaySettingsName)
}

func OverlayStackFile(project string) string {
	return filepath.Join(project, OverlayDir, StackConfigFile)
}

func OverlayBackup(project string) string {
	return BackupPath(OverlayRoot(project))
}

func InstructionsPath(project string) string {
	return filepath.Join(project, InstructionsFile)
}

func DocsRoot(project string) string {
	return filepath.Join(project, DocsDir)
}

func CleanupLog(project string) string {
	return filepath.Join(project, CleanupLogFile)
}

// BackupPath is the sibling location a file or directory is duplicated to
// before it is overwritten.
func BackupPath(path string) string {
	return filepath.Clean(path) + BackupSuffix
}
