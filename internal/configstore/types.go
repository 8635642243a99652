package configstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rapids-dev/rapids/internal/stack"
	"github.com/rapids-dev/rapids/internal/validate"
)

type AgentType string

const (
	AgentGeneralPurpose AgentType = "general-purpose"
	AgentSpecialist     AgentType = "specialist"
)

// AgentDefinition is one reusable instruction-and-trigger bundle.
type AgentDefinition struct {
	Name         string    `json:"name,omitempty"`
	Description  string    `json:"description"`
	Type         AgentType `json:"type"`
	Triggers     []string  `json:"triggers"`
	Instructions string    `json:"instructions"`
	Context      []string  `json:"context,omitempty"`
	Model        string    `json:"model,omitempty"`
	Tools        []string  `json:"tools,omitempty"`
}

func (a AgentDefinition) Validate() error {
	if strings.TrimSpace(a.Description) == "" {
		return fieldError("description")
	}
	switch a.Type {
	case AgentGeneralPurpose, AgentSpecialist:
	case "":
		return fieldError("type")
	default:
		return fmt.Errorf("type %q is not one of general-purpose, specialist", a.Type)
	}
	if a.Triggers == nil {
		return fieldError("triggers")
	}
	if strings.TrimSpace(a.Instructions) == "" {
		return fieldError("instructions")
	}
	switch a.Model {
	case "", "sonnet", "opus", "haiku":
	default:
		return fmt.Errorf("model %q is not one of sonnet, opus, haiku", a.Model)
	}
	return nil
}

type agentRegistryFile struct {
	Agents map[string]AgentDefinition `json:"agents"`
}

// ServerEntry is one tool-server registration.
type ServerEntry struct {
	Name     string            `json:"name,omitempty"`
	Package  string            `json:"package,omitempty"`
	Command  string            `json:"command,omitempty"`
	Type     string            `json:"type,omitempty"`
	URL      string            `json:"url,omitempty"`
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`
}

func (s ServerEntry) Validate() error {
	if s.Package == "" && s.Command == "" && s.URL == "" {
		return fmt.Errorf("one of package, command, url is required")
	}
	return nil
}

// PackageRef returns the installable package identifier, falling back to the
// first non-flag npx argument.
func (s ServerEntry) PackageRef() string {
	if s.Package != "" {
		return s.Package
	}
	if s.Command != "npx" {
		return ""
	}
	for _, arg := range s.Args {
		if !strings.HasPrefix(arg, "-") {
			return arg
		}
	}
	return ""
}

type serverRegistryFile struct {
	Servers map[string]ServerEntry `json:"mcpServers"`
}

// ClientConfig is the home-level client file. Only mcpServers is owned by
// rapids; every other top-level key is carried through untouched.
type ClientConfig struct {
	Fields  map[string]json.RawMessage
	Servers map[string]json.RawMessage
}

const clientServersKey = "mcpServers"

func (c *ClientConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(c.Fields)+1)
	for k, v := range c.Fields {
		out[k] = v
	}
	servers := c.Servers
	if servers == nil {
		servers = map[string]json.RawMessage{}
	}
	data, err := json.Marshal(servers)
	if err != nil {
		return nil, err
	}
	out[clientServersKey] = data
	return json.Marshal(out)
}

// ProjectSettings is the overlay settings file written by migration and
// scaffolding.
type ProjectSettings struct {
	ProjectName    string                `json:"projectName"`
	Stack          RoleFlags             `json:"stack"`
	Folders        map[stack.Role]string `json:"folders"`
	PackageManager stack.PackageManager  `json:"packageManager,omitempty"`
	Preset         string                `json:"preset,omitempty"`
	Ports          map[string]int        `json:"ports,omitempty"`
}

type RoleFlags struct {
	Web     bool `json:"web"`
	Backend bool `json:"backend"`
	Mobile  bool `json:"mobile"`
}

func (r RoleFlags) Has(role stack.Role) bool {
	switch role {
	case stack.RoleWeb:
		return r.Web
	case stack.RoleBackend:
		return r.Backend
	case stack.RoleMobile:
		return r.Mobile
	}
	return false
}

func (p ProjectSettings) Validate() error {
	if strings.TrimSpace(p.ProjectName) == "" {
		return fieldError("projectName")
	}
	if _, err := stack.ParsePackageManager(string(p.PackageManager)); err != nil {
		return err
	}
	return nil
}

// FolderFor returns the project folder holding role, or "" when unknown.
func (p *ProjectSettings) FolderFor(role stack.Role) string {
	if p == nil {
		return ""
	}
	return p.Folders[role]
}

type ProjectMetadata struct {
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description,omitempty"`
	Repository  string `json:"repository,omitempty"`
	Website     string `json:"website,omitempty"`
}

type MobileStack struct {
	Framework       string `json:"framework"`
	StateManagement string `json:"stateManagement,omitempty"`
	Routing         string `json:"routing,omitempty"`
}

type WebStack struct {
	Framework string `json:"framework"`
	Version   string `json:"version,omitempty"`
	Runtime   string `json:"runtime,omitempty"`
	Styling   string `json:"styling,omitempty"`
}

type BackendStack struct {
	Framework string `json:"framework"`
	Language  string `json:"language,omitempty"`
	Database  string `json:"database,omitempty"`
	ORM       string `json:"orm,omitempty"`
}

type StackSections struct {
	Mobile  *MobileStack  `json:"mobile,omitempty"`
	Web     *WebStack     `json:"web,omitempty"`
	Backend *BackendStack `json:"backend,omitempty"`
}

// StackConfig describes the chosen technologies of one project.
type StackConfig struct {
	Project ProjectMetadata `json:"project"`
	Stack   StackSections   `json:"stack"`
	Ports   map[string]int  `json:"ports,omitempty"`
}

func (s StackConfig) Validate() error {
	if strings.TrimSpace(s.Project.Name) == "" {
		return fieldError("project.name")
	}
	return nil
}

// ProjectOverlay is what a project carries on top of the global registry.
// Either part may be absent.
type ProjectOverlay struct {
	Root     string
	Settings *ProjectSettings
	Stack    *StackConfig
}

type Preferences struct {
	DefaultPackageManager stack.PackageManager `json:"defaultPackageManager,omitempty"`
	DefaultStack          string               `json:"defaultStack,omitempty"`
	AutoCleanup           *bool                `json:"autoCleanup,omitempty"`
}

type Credentials struct {
	DokployURL    string `json:"dokployUrl,omitempty"`
	DokployAPIKey string `json:"dokployApiKey,omitempty"`
	NeonAPIKey    string `json:"neonApiKey,omitempty"`
	GitHubToken   string `json:"githubToken,omitempty"`
}

// UserPreferences is the optional per-user settings file.
type UserPreferences struct {
	Preferences Preferences  `json:"preferences"`
	Credentials *Credentials `json:"credentials,omitempty"`
}

func (u UserPreferences) Validate() error {
	if _, err := stack.ParsePackageManager(string(u.Preferences.DefaultPackageManager)); err != nil {
		return err
	}
	if u.Preferences.DefaultStack != "" {
		if _, ok := stack.LookupPreset(u.Preferences.DefaultStack); !ok {
			return fmt.Errorf("defaultStack %q is not one of %s", u.Preferences.DefaultStack, strings.Join(stack.PresetNames(), ", "))
		}
	}
	if c := u.Credentials; c != nil && c.DokployURL != "" {
		if err := validate.URL(c.DokployURL); err != nil {
			return fmt.Errorf("dokployUrl: %w", err)
		}
	}
	return nil
}

func fieldError(field string) error {
	return fmt.Errorf("missing required field %q", field)
}
