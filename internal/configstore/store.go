// Package configstore loads and saves rapids' layered JSON configuration:
// the global agent and tool-server registries, per-project overlays and
// user preferences.
package configstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
)

var errAbsent = errors.New("config file absent")

// Store reads configuration through a per-path cache. Every write through
// the Store invalidates the written path.
type Store struct {
	paths *paths.Resolver

	mu    sync.Mutex
	cache map[string]any
}

func New(resolver *paths.Resolver) *Store {
	return &Store{paths: resolver, cache: make(map[string]any)}
}

func (s *Store) Paths() *paths.Resolver {
	return s.paths
}

// IsInstalled reports whether both the agents and commands folders exist
// under the global root.
func (s *Store) IsInstalled() bool {
	return fileutil.IsDir(s.paths.AgentsDir()) && fileutil.IsDir(s.paths.CommandsDir())
}

// LoadAgentRegistry returns the installed agent definitions keyed by name.
func (s *Store) LoadAgentRegistry() (map[string]AgentDefinition, error) {
	if !fileutil.IsDir(s.paths.GlobalRoot()) {
		return nil, notInstalled(s.paths.GlobalRoot())
	}
	agents, err := s.LoadAgentRegistryFrom(s.paths.AgentRegistryFile())
	if errors.Is(err, errAbsent) {
		return nil, notInstalled(s.paths.AgentRegistryFile())
	}
	return agents, err
}

// LoadAgentRegistryFrom parses an agent registry source file at any path,
// such as the one inside a bundled configuration tree.
func (s *Store) LoadAgentRegistryFrom(path string) (map[string]AgentDefinition, error) {
	if cached, ok := s.cached(path); ok {
		return cached.(map[string]AgentDefinition), nil
	}
	var file agentRegistryFile
	if err := readJSON(path, &file); err != nil {
		return nil, err
	}
	if file.Agents == nil {
		return nil, corrupt(path, `missing required field "agents"`, nil)
	}
	for name, agent := range file.Agents {
		if err := agent.Validate(); err != nil {
			return nil, corrupt(path, fmt.Sprintf("agent %q", name), err)
		}
		agent.Name = name
		file.Agents[name] = agent
	}
	s.store(path, file.Agents)
	return file.Agents, nil
}

// LoadServerRegistry returns the tool-server entries registered in the
// home-level client file.
func (s *Store) LoadServerRegistry() (map[string]ServerEntry, error) {
	path := s.paths.ClientConfigFile()
	if cached, ok := s.cached(path + "#servers"); ok {
		return cached.(map[string]ServerEntry), nil
	}
	var file serverRegistryFile
	if err := readJSON(path, &file); err != nil {
		if errors.Is(err, errAbsent) {
			return nil, notInstalled(path)
		}
		return nil, err
	}
	servers, err := validateServers(path, file.Servers)
	if err != nil {
		return nil, err
	}
	s.store(path+"#servers", servers)
	return servers, nil
}

// LoadBundledServers parses a tool-server registry shipped with a
// configuration tree. A missing file yields an empty registry.
func (s *Store) LoadBundledServers(path string) (map[string]ServerEntry, error) {
	var file serverRegistryFile
	if err := readJSON(path, &file); err != nil {
		if errors.Is(err, errAbsent) {
			return map[string]ServerEntry{}, nil
		}
		return nil, err
	}
	return validateServers(path, file.Servers)
}

func validateServers(path string, servers map[string]ServerEntry) (map[string]ServerEntry, error) {
	if servers == nil {
		return nil, corrupt(path, `missing required field "mcpServers"`, nil)
	}
	for name, entry := range servers {
		if err := entry.Validate(); err != nil {
			return nil, corrupt(path, fmt.Sprintf("server %q", name), err)
		}
		if entry.Name == "" {
			entry.Name = name
		}
		servers[name] = entry
	}
	return servers, nil
}

// LoadClientConfig returns the raw home-level client file. Absence yields an
// empty config.
func (s *Store) LoadClientConfig() (*ClientConfig, error) {
	path := s.paths.ClientConfigFile()
	cfg := &ClientConfig{
		Fields:  map[string]json.RawMessage{},
		Servers: map[string]json.RawMessage{},
	}
	if err := readJSON(path, &cfg.Fields); err != nil {
		if errors.Is(err, errAbsent) {
			return cfg, nil
		}
		return nil, err
	}
	if raw, ok := cfg.Fields[clientServersKey]; ok {
		delete(cfg.Fields, clientServersKey)
		if string(raw) != "null" {
			if err := json.Unmarshal(raw, &cfg.Servers); err != nil {
				return nil, corrupt(path, clientServersKey, err)
			}
		}
		if cfg.Servers == nil {
			cfg.Servers = map[string]json.RawMessage{}
		}
	}
	return cfg, nil
}

// SaveClientConfig atomically replaces the home-level client file.
func (s *Store) SaveClientConfig(cfg *ClientConfig) error {
	path := s.paths.ClientConfigFile()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	s.Invalidate(path)
	s.Invalidate(path + "#servers")
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0644); err != nil {
		return rerr.Wrap(rerr.PathInaccessible, "write "+path, err)
	}
	return nil
}

// LoadProjectOverlay returns the overlay stored in root/.claude, or nil when
// the project carries neither settings nor a stack config.
func (s *Store) LoadProjectOverlay(root string) (*ProjectOverlay, error) {
	overlay := &ProjectOverlay{Root: paths.OverlayRoot(root)}

	var settings ProjectSettings
	switch err := readJSON(paths.OverlaySettingsFile(root), &settings); {
	case err == nil:
		if verr := settings.Validate(); verr != nil {
			return nil, corrupt(paths.OverlaySettingsFile(root), "settings", verr)
		}
		overlay.Settings = &settings
	case !errors.Is(err, errAbsent):
		return nil, err
	}

	var stackCfg StackConfig
	switch err := readJSON(paths.OverlayStackFile(root), &stackCfg); {
	case err == nil:
		if verr := stackCfg.Validate(); verr != nil {
			return nil, corrupt(paths.OverlayStackFile(root), "stack config", verr)
		}
		overlay.Stack = &stackCfg
	case !errors.Is(err, errAbsent):
		return nil, err
	}

	if overlay.Settings == nil && overlay.Stack == nil {
		return nil, nil
	}
	return overlay, nil
}

// LoadUserPreferences returns the user's preferences, or an empty default
// when none were saved. A malformed file is reported as ConfigCorrupt
// alongside the empty default.
func (s *Store) LoadUserPreferences() (*UserPreferences, error) {
	path := s.paths.UserPreferencesFile()
	if cached, ok := s.cached(path); ok {
		prefs := *cached.(*UserPreferences)
		return &prefs, nil
	}
	prefs := &UserPreferences{}
	if err := readJSON(path, prefs); err != nil {
		if errors.Is(err, errAbsent) {
			return &UserPreferences{}, nil
		}
		return &UserPreferences{}, err
	}
	if err := prefs.Validate(); err != nil {
		return &UserPreferences{}, corrupt(path, "preferences", err)
	}
	stored := *prefs
	s.store(path, &stored)
	return prefs, nil
}

// SaveUserPreferences overwrites the preferences file, creating the global
// root when needed.
func (s *Store) SaveUserPreferences(prefs *UserPreferences) error {
	if err := prefs.Validate(); err != nil {
		return rerr.Wrap(rerr.ValidationFailed, "invalid preferences", err)
	}
	path := s.paths.UserPreferencesFile()
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	s.Invalidate(path)
	if err := fileutil.WriteFileAtomic(path, append(data, '\n'), 0600); err != nil {
		return rerr.Wrap(rerr.PathInaccessible, "write "+path, err)
	}
	return nil
}

// Invalidate drops one cached path.
func (s *Store) Invalidate(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, path)
}

// InvalidateAll clears the cache, e.g. after a tree copy replaced files the
// Store did not write itself.
func (s *Store) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]any)
}

func (s *Store) cached(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache[path]
	return v, ok
}

func (s *Store) store(path string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[path] = value
}

// SortedAgentNames returns registry keys in a stable order.
func SortedAgentNames(agents map[string]AgentDefinition) []string {
	names := make([]string, 0, len(agents))
	for name := range agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errAbsent
		}
		return rerr.Wrap(rerr.PathInaccessible, "read "+path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return corrupt(path, "invalid JSON", err)
	}
	return nil
}

// IsCorruptJSON reports whether err came from decoding malformed JSON.
func IsCorruptJSON(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

func corrupt(path, msg string, err error) error {
	return &rerr.Error{Kind: rerr.ConfigCorrupt, Msg: path + ": " + msg, Err: err, Details: map[string]string{"path": path}}
}

func notInstalled(path string) error {
	return &rerr.Error{
		Kind:    rerr.NotInstalled,
		Msg:     "rapids is not installed (run `rapids install`)",
		Details: map[string]string{"path": path},
	}
}
