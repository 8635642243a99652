package paths

import (
	"path/filepath"
	"testing"
)

func TestResolverGlobalLayout(t *testing.T) {
	r := NewResolver("/home/dev", Darwin)

	cases := []struct{ got, want string }{
		{r.GlobalRoot(), "/home/dev/.claude"},
		{r.AgentsDir(), "/home/dev/.claude/agents"},
		{r.AgentFile("planner"), "/home/dev/.claude/agents/planner.md"},
		{r.PromptFile("web-page"), "/home/dev/.claude/prompts/web-page.md"},
		{r.AgentRegistryFile(), "/home/dev/.claude/subagents-config.json"},
		{r.ServerRegistryFile(), "/home/dev/.claude/mcp-config.json"},
		{r.ClientConfigFile(), "/home/dev/.claude.json"},
		{r.UserPreferencesFile(), "/home/dev/.claude/rapids-user-config.json"},
		{r.HelperScriptFile(), "/home/dev/.rapids-cli.sh"},
	}
	for _, tc := range cases {
		if filepath.ToSlash(tc.got) != tc.want {
			t.Fatalf("expected %s, got %s", tc.want, tc.got)
		}
	}
}

func TestProfileFor(t *testing.T) {
	if p := ProfileFor("darwin"); !p.Supported || p.RootDir != ".claude" {
		t.Fatalf("unexpected darwin profile: %+v", p)
	}
	if p := ProfileFor("linux"); p.Supported || filepath.ToSlash(p.RootDir) != ".config/claude" {
		t.Fatalf("unexpected linux profile: %+v", p)
	}
	if p := ProfileFor("plan9"); p.Supported || p.Name != "plan9" {
		t.Fatalf("unexpected fallback profile: %+v", p)
	}
}

func TestProjectPaths(t *testing.T) {
	if got := filepath.ToSlash(OverlayBackup("/p")); got != "/p/.claude.backup" {
		t.Fatalf("unexpected overlay backup path %s", got)
	}
	if got := filepath.ToSlash(BackupPath("/home/dev/.claude.json")); got != "/home/dev/.claude.json.backup" {
		t.Fatalf("unexpected backup path %s", got)
	}
	if got := filepath.ToSlash(OverlaySettingsFile("/p")); got != "/p/.claude/settings.local.json" {
		t.Fatalf("unexpected settings path %s", got)
	}
}
