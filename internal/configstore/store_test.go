package configstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
	"github.com/rapids-dev/rapids/internal/stack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRegistry = `{
  "agents": {
    "bug-hunter": {
      "description": "Finds and fixes bugs",
      "type": "specialist",
      "triggers": ["fix bug", "debug"],
      "instructions": "Reproduce first.",
      "model": "sonnet"
    }
  }
}`

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	home := t.TempDir()
	return New(paths.NewResolver(home, paths.Darwin)), home
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadAgentRegistryNotInstalled(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.LoadAgentRegistry()
	assert.True(t, rerr.Is(err, rerr.NotInstalled), "got %v", err)
	assert.False(t, store.IsInstalled())
}

func TestLoadAgentRegistryCorruptVersusValid(t *testing.T) {
	store, _ := newTestStore(t)
	path := store.Paths().AgentRegistryFile()

	writeFile(t, path, `{"agents": {`)
	_, err := store.LoadAgentRegistry()
	assert.True(t, rerr.Is(err, rerr.ConfigCorrupt), "got %v", err)

	writeFile(t, path, `{"agents": {"x": {"type": "specialist", "triggers": [], "instructions": "i"}}}`)
	_, err = store.LoadAgentRegistry()
	assert.True(t, rerr.Is(err, rerr.ConfigCorrupt), "missing description must be corrupt, got %v", err)

	writeFile(t, path, `{"version": 2}`)
	_, err = store.LoadAgentRegistry()
	assert.True(t, rerr.Is(err, rerr.ConfigCorrupt), "missing agents key must be corrupt, got %v", err)

	writeFile(t, path, validRegistry)
	agents, err := store.LoadAgentRegistry()
	require.NoError(t, err)
	require.Contains(t, agents, "bug-hunter")
	assert.Equal(t, "bug-hunter", agents["bug-hunter"].Name)
	assert.Equal(t, AgentSpecialist, agents["bug-hunter"].Type)
}

func TestIsInstalledNeedsAgentsAndCommands(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(store.Paths().AgentsDir(), 0755))
	assert.False(t, store.IsInstalled())
	require.NoError(t, os.MkdirAll(store.Paths().CommandsDir(), 0755))
	assert.True(t, store.IsInstalled())
}

func TestLoadServerRegistry(t *testing.T) {
	store, home := newTestStore(t)

	_, err := store.LoadServerRegistry()
	assert.True(t, rerr.Is(err, rerr.NotInstalled), "got %v", err)

	writeFile(t, filepath.Join(home, ".claude.json"), `{"theme": "dark", "mcpServers": {"neon": {"command": "npx", "args": ["-y", "@neondatabase/mcp-server-neon"]}}}`)
	servers, err := store.LoadServerRegistry()
	require.NoError(t, err)
	require.Contains(t, servers, "neon")
	assert.Equal(t, "neon", servers["neon"].Name)
	assert.Equal(t, "@neondatabase/mcp-server-neon", servers["neon"].PackageRef())

	writeFile(t, filepath.Join(home, ".claude.json"), `{"mcpServers": {"broken": {"args": []}}}`)
	store.InvalidateAll()
	_, err = store.LoadServerRegistry()
	assert.True(t, rerr.Is(err, rerr.ConfigCorrupt), "got %v", err)
}

func TestClientConfigRoundTripPreservesUnrelatedKeys(t *testing.T) {
	store, home := newTestStore(t)
	path := filepath.Join(home, ".claude.json")
	writeFile(t, path, `{"numStartups": 7, "projects": {"/x": {"allowedTools": []}}, "mcpServers": {"a": {"command": "a"}}}`)

	cfg, err := store.LoadClientConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Servers, 1)
	assert.NotContains(t, cfg.Fields, "mcpServers")

	cfg.Servers["b"] = json.RawMessage(`{"command":"b"}`)
	require.NoError(t, store.SaveClientConfig(cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 7, decoded["numStartups"])
	assert.Contains(t, decoded, "projects")
	assert.Len(t, decoded["mcpServers"], 2)
}

func TestLoadClientConfigAbsentIsEmpty(t *testing.T) {
	store, _ := newTestStore(t)
	cfg, err := store.LoadClientConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Fields)
	assert.Empty(t, cfg.Servers)
}

func TestLoadProjectOverlay(t *testing.T) {
	store, _ := newTestStore(t)
	project := t.TempDir()

	overlay, err := store.LoadProjectOverlay(project)
	require.NoError(t, err)
	assert.Nil(t, overlay, "absence is not an error")

	writeFile(t, paths.OverlaySettingsFile(project), `{"projectName": "shop", "stack": {"web": true}, "folders": {"web": "frontend"}, "packageManager": "pnpm"}`)
	overlay, err = store.LoadProjectOverlay(project)
	require.NoError(t, err)
	require.NotNil(t, overlay.Settings)
	assert.Nil(t, overlay.Stack)
	assert.Equal(t, "frontend", overlay.Settings.FolderFor(stack.RoleWeb))
	assert.Equal(t, stack.PackageManagerPNPM, overlay.Settings.PackageManager)

	writeFile(t, paths.OverlayStackFile(project), `{"project": `)
	_, err = store.LoadProjectOverlay(project)
	assert.True(t, rerr.Is(err, rerr.ConfigCorrupt), "got %v", err)
}

func TestUserPreferences(t *testing.T) {
	store, _ := newTestStore(t)

	prefs, err := store.LoadUserPreferences()
	require.NoError(t, err)
	assert.Equal(t, &UserPreferences{}, prefs)

	auto := true
	prefs.Preferences.DefaultPackageManager = stack.PackageManagerYarn
	prefs.Preferences.AutoCleanup = &auto
	require.NoError(t, store.SaveUserPreferences(prefs))

	loaded, err := store.LoadUserPreferences()
	require.NoError(t, err)
	assert.Equal(t, stack.PackageManagerYarn, loaded.Preferences.DefaultPackageManager)
	require.NotNil(t, loaded.Preferences.AutoCleanup)
	assert.True(t, *loaded.Preferences.AutoCleanup)

	loaded.Preferences.DefaultStack = "desktop"
	err = store.SaveUserPreferences(loaded)
	assert.True(t, rerr.Is(err, rerr.ValidationFailed), "got %v", err)
}

func TestSaveInvalidatesCache(t *testing.T) {
	store, _ := newTestStore(t)
	require.NoError(t, store.SaveUserPreferences(&UserPreferences{Preferences: Preferences{DefaultStack: "full"}}))

	first, err := store.LoadUserPreferences()
	require.NoError(t, err)
	assert.Equal(t, "full", first.Preferences.DefaultStack)

	require.NoError(t, store.SaveUserPreferences(&UserPreferences{Preferences: Preferences{DefaultStack: "backend"}}))
	second, err := store.LoadUserPreferences()
	require.NoError(t, err)
	assert.Equal(t, "backend", second.Preferences.DefaultStack)
}

func TestIsCorruptJSON(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte(`{`), &v)
	assert.True(t, IsCorruptJSON(err))
	assert.False(t, IsCorruptJSON(os.ErrNotExist))
}
