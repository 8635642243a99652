package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/agents"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
)

const testAgentRegistry = `{
  "agents": {
    "debugger": {
      "description": "Tracks down defects",
      "type": "specialist",
      "triggers": ["fix bug"],
      "instructions": "Reproduce first."
    },
    "planner": {
      "description": "Plans features",
      "type": "general-purpose",
      "triggers": ["plan feature"],
      "instructions": "Write the plan."
    }
  }
}`

const testServers = `{
  "mcpServers": {
    "context7": {"command": "npx", "args": ["-y", "@upstash/context7-mcp"]}
  }
}`

func TestInstallDoctorAndAgentFlow(t *testing.T) {
	home := setupHome(t)
	source := writeBundle(t)
	work := t.TempDir()

	withWorkingDir(t, work, func() {
		installCmd := newInstallCmdForTest()
		mustSetFlag(t, installCmd, "source", source)
		out := captureStdout(t, func() {
			if err := RunInstall(installCmd, nil); err != nil {
				t.Fatalf("RunInstall failed: %v", err)
			}
		})
		if !strings.Contains(out, "installed to "+filepath.Join(home, ".claude")) {
			t.Fatalf("expected install summary, got:\n%s", out)
		}
		if !strings.Contains(out, "agents=2 commands=1 templates=1") {
			t.Fatalf("expected install counts, got:\n%s", out)
		}

		doctorCmd := newJSONCmdForTest()
		mustSetFlag(t, doctorCmd, "json", "true")
		out = captureStdout(t, func() {
			if err := RunDoctor(doctorCmd, nil); err != nil {
				t.Fatalf("RunDoctor failed: %v", err)
			}
		})
		var summary DoctorSummary
		if err := json.Unmarshal([]byte(out), &summary); err != nil {
			t.Fatalf("failed to decode doctor json: %v\n%s", err, out)
		}
		if !summary.Installed || !summary.Supported || !summary.Healthy {
			t.Fatalf("expected healthy install, got %+v", summary)
		}
		if summary.Agents != 2 || summary.Commands != 1 || summary.Templates != 1 {
			t.Fatalf("unexpected counts: %+v", summary)
		}
		if summary.Descriptors.Valid != 2 || len(summary.Descriptors.Invalid) != 0 {
			t.Fatalf("unexpected descriptor counts: %+v", summary.Descriptors)
		}
		if len(summary.Servers) != 1 || summary.Servers[0] != "context7" {
			t.Fatalf("unexpected servers: %v", summary.Servers)
		}

		out = captureStdout(t, func() {
			if err := RunAgent(newAgentCmdForTest(), nil); err != nil {
				t.Fatalf("RunAgent list failed: %v", err)
			}
		})
		if !strings.Contains(out, "debugger") || !strings.Contains(out, "planner") {
			t.Fatalf("expected agent list, got:\n%s", out)
		}

		triggerCmd := newAgentCmdForTest()
		mustSetFlag(t, triggerCmd, "trigger", "there is a bug")
		mustSetFlag(t, triggerCmd, "json", "true")
		out = captureStdout(t, func() {
			if err := RunAgent(triggerCmd, nil); err != nil {
				t.Fatalf("RunAgent trigger failed: %v", err)
			}
		})
		var matches []AgentInfo
		if err := json.Unmarshal([]byte(out), &matches); err != nil {
			t.Fatalf("failed to decode agent json: %v\n%s", err, out)
		}
		if len(matches) != 1 || matches[0].Name != "debugger" {
			t.Fatalf("expected debugger to match trigger, got %+v", matches)
		}

		out = captureStdout(t, func() {
			if err := RunAgent(newAgentCmdForTest(), []string{"planner"}); err != nil {
				t.Fatalf("RunAgent show failed: %v", err)
			}
		})
		if !strings.Contains(out, "Agent 'planner' is ready.") || !strings.Contains(out, "Write the plan.") {
			t.Fatalf("expected readiness message, got:\n%s", out)
		}

		invokeCmd := newAgentCmdForTest()
		mustSetFlag(t, invokeCmd, "json", "true")
		out = captureStdout(t, func() {
			if err := RunAgent(invokeCmd, []string{"planner", "add", "billing"}); err != nil {
				t.Fatalf("RunAgent invoke failed: %v", err)
			}
		})
		var invocation AgentInvocation
		if err := json.Unmarshal([]byte(out), &invocation); err != nil {
			t.Fatalf("failed to decode invocation: %v\n%s", err, out)
		}
		if invocation.Prompt != "add billing" || invocation.Context == nil || invocation.Context.WorkingDir != work {
			t.Fatalf("unexpected invocation: %+v", invocation)
		}

		err := RunAgent(newAgentCmdForTest(), []string{"ghost"})
		if !rerr.Is(err, rerr.NotFound) {
			t.Fatalf("expected NotFound for unknown agent, got %v", err)
		}
	})
}

func TestInstallDryRunWritesNothing(t *testing.T) {
	home := setupHome(t)
	source := writeBundle(t)

	cmd := newInstallCmdForTest()
	mustSetFlag(t, cmd, "source", source)
	mustSetFlag(t, cmd, "dry-run", "true")
	out := captureStdout(t, func() {
		if err := RunInstall(cmd, nil); err != nil {
			t.Fatalf("RunInstall dry-run failed: %v", err)
		}
	})
	if !strings.Contains(out, "added commands/plan.md") {
		t.Fatalf("expected preview to list added files, got:\n%s", out)
	}
	assertNotExists(t, filepath.Join(home, ".claude"))
}

func TestInstallRejectsInvalidCredentialFlags(t *testing.T) {
	home := setupHome(t)
	cmd := newInstallCmdForTest()
	mustSetFlag(t, cmd, "source", writeBundle(t))
	mustSetFlag(t, cmd, "dokploy-url", "not a url")

	err := RunInstall(cmd, nil)
	if !rerr.Is(err, rerr.ValidationFailed) {
		t.Fatalf("expected ValidationFailed, got %v", err)
	}
	assertNotExists(t, filepath.Join(home, ".claude"))
}

func TestInitMigrateCleanFlow(t *testing.T) {
	setupHome(t)
	parent := t.TempDir()

	withWorkingDir(t, parent, func() {
		initCmd := newInitCmdForTest()
		mustSetFlag(t, initCmd, "preset", "web-backend")
		out := captureStdout(t, func() {
			if err := RunInit(initCmd, []string{"shop"}); err != nil {
				t.Fatalf("RunInit failed: %v", err)
			}
		})
		project := filepath.Join(parent, "shop")
		if !strings.Contains(out, "created "+project) {
			t.Fatalf("expected init summary, got:\n%s", out)
		}
		assertExists(t, filepath.Join(project, "docker-compose.yml"))
		assertExists(t, filepath.Join(project, "web", "Dockerfile"))

		if err := RunInit(initCmd, []string{"shop"}); !rerr.Is(err, rerr.ValidationFailed) {
			t.Fatalf("expected existing directory to be refused, got %v", err)
		}

		err := RunClean(newCleanCmdForTest(), []string{project})
		if !rerr.Is(err, rerr.NotMigrated) {
			t.Fatalf("expected NotMigrated before migration, got %v", err)
		}

		out = captureStdout(t, func() {
			if err := RunMigrate(newJSONCmdForTest(), []string{project}); err != nil {
				t.Fatalf("RunMigrate failed: %v", err)
			}
		})
		if !strings.Contains(out, "Multi-stack monorepo") {
			t.Fatalf("expected monorepo detection, got:\n%s", out)
		}
		if !strings.Contains(out, "next: rapids clean --dry-run") {
			t.Fatalf("expected clean suggestion, got:\n%s", out)
		}
		assertExists(t, filepath.Join(project, "CLAUDE.md"))
		assertExists(t, filepath.Join(project, ".claude.backup", "settings.local.json"))

		mustWriteFile(t, filepath.Join(project, "dist", "bundle.js"), "console.log(1)\n")
		mustWriteFile(t, filepath.Join(project, ".env.local"), "TOKEN=1\n")

		dryCmd := newCleanCmdForTest()
		mustSetFlag(t, dryCmd, "dry-run", "true")
		mustSetFlag(t, dryCmd, "json", "true")
		out = captureStdout(t, func() {
			if err := RunClean(dryCmd, []string{project}); err != nil {
				t.Fatalf("RunClean dry-run failed: %v", err)
			}
		})
		var planned CleanSummary
		if err := json.Unmarshal([]byte(out), &planned); err != nil {
			t.Fatalf("failed to decode clean json: %v\n%s", err, out)
		}
		var plannedPaths []string
		for _, item := range planned.Analysis.Items {
			plannedPaths = append(plannedPaths, item.Path)
		}
		for _, want := range []string{".env.local", "dist", ".claude.backup"} {
			if !containsString(plannedPaths, want) {
				t.Fatalf("expected %s in plan, got %v", want, plannedPaths)
			}
		}
		assertExists(t, filepath.Join(project, "dist"))

		out = captureStdout(t, func() {
			if err := RunClean(newCleanCmdForTest(), []string{project}); err != nil {
				t.Fatalf("RunClean failed: %v", err)
			}
		})
		if !strings.Contains(out, "removed 3 item(s)") {
			t.Fatalf("expected removal summary, got:\n%s", out)
		}
		assertNotExists(t, filepath.Join(project, "dist"))
		assertNotExists(t, filepath.Join(project, ".claude.backup"))
		assertExists(t, filepath.Join(project, paths.CleanupLogFile))

		out = captureStdout(t, func() {
			if err := RunClean(newCleanCmdForTest(), []string{project}); err != nil {
				t.Fatalf("second RunClean failed: %v", err)
			}
		})
		if !strings.Contains(out, "nothing to clean") {
			t.Fatalf("expected idempotent second clean, got:\n%s", out)
		}
	})
}

func TestMigrateAutoCleanupKeepsOverlayBackup(t *testing.T) {
	setupHome(t)
	if err := RunConfigSet(&cobra.Command{}, []string{"autoCleanup", "true"}); err != nil {
		t.Fatalf("RunConfigSet failed: %v", err)
	}

	project := t.TempDir()
	userSettings := `{"permissions":{"allow":["Bash"]}}`
	mustWriteFile(t, paths.OverlaySettingsFile(project), userSettings)
	mustWriteFile(t, filepath.Join(project, "web", "package.json"), "{}\n")
	mustWriteFile(t, filepath.Join(project, "dist", "bundle.js"), "console.log(1)\n")

	out := captureStdout(t, func() {
		if err := RunMigrate(newJSONCmdForTest(), []string{project}); err != nil {
			t.Fatalf("RunMigrate failed: %v", err)
		}
	})
	if !strings.Contains(out, "removed 1 item(s)") {
		t.Fatalf("expected automatic cleanup of dist, got:\n%s", out)
	}
	assertNotExists(t, filepath.Join(project, "dist"))

	backup := filepath.Join(paths.OverlayBackup(project), paths.OverlaySettingsName)
	data, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("expected overlay backup to survive automatic cleanup: %v", err)
	}
	if string(data) != userSettings {
		t.Fatalf("backup lost the previous overlay, got %q", data)
	}
	if current, _ := os.ReadFile(paths.OverlaySettingsFile(project)); string(current) == userSettings {
		t.Fatalf("expected migration to rewrite the overlay settings")
	}

	// An explicit clean still offers the backup for removal.
	dryCmd := newCleanCmdForTest()
	mustSetFlag(t, dryCmd, "dry-run", "true")
	out = captureStdout(t, func() {
		if err := RunClean(dryCmd, []string{project}); err != nil {
			t.Fatalf("RunClean dry-run failed: %v", err)
		}
	})
	if !strings.Contains(out, ".claude.backup") {
		t.Fatalf("expected backup in explicit clean plan, got:\n%s", out)
	}
}

func TestGenerateFollowsOverlayFolders(t *testing.T) {
	setupHome(t)
	project := t.TempDir()
	mustWriteFile(t, filepath.Join(project, "frontend", "package.json"), "{}\n")
	mustWriteFile(t, filepath.Join(project, "api", "requirements.txt"), "fastapi\n")

	withWorkingDir(t, project, func() {
		captureStdout(t, func() {
			if err := RunMigrate(newJSONCmdForTest(), nil); err != nil {
				t.Fatalf("RunMigrate failed: %v", err)
			}
		})

		out := captureStdout(t, func() {
			if err := RunGenerate(newGenerateCmdForTest(), []string{"web-page", "user", "profile"}); err != nil {
				t.Fatalf("RunGenerate failed: %v", err)
			}
		})
		if !strings.Contains(out, "generated web-page for UserProfile (3 files)") {
			t.Fatalf("expected generate summary, got:\n%s", out)
		}
		assertExists(t, filepath.Join(project, "frontend", "app", "user-profile", "page.tsx"))
		assertNotExists(t, filepath.Join(project, "web"))

		dryCmd := newGenerateCmdForTest()
		mustSetFlag(t, dryCmd, "dry-run", "true")
		captureStdout(t, func() {
			if err := RunGenerate(dryCmd, []string{"backend-api", "invoice"}); err != nil {
				t.Fatalf("RunGenerate dry-run failed: %v", err)
			}
		})
		assertNotExists(t, filepath.Join(project, "api", "app", "api", "routes", "invoice.py"))

		err := RunGenerate(newGenerateCmdForTest(), []string{"desktop-app", "thing"})
		if !rerr.Is(err, rerr.UnknownTemplate) {
			t.Fatalf("expected UnknownTemplate, got %v", err)
		}
	})
}

func TestGenerateListsTemplates(t *testing.T) {
	setupHome(t)
	out := captureStdout(t, func() {
		if err := RunGenerate(newGenerateCmdForTest(), nil); err != nil {
			t.Fatalf("RunGenerate list failed: %v", err)
		}
	})
	for _, id := range []string{"backend-api", "web-page", "mobile-feature", "design-system"} {
		if !strings.Contains(out, id) {
			t.Fatalf("expected %s in template list, got:\n%s", id, out)
		}
	}
}

func TestConfigSetGetAndDefaultPreset(t *testing.T) {
	home := setupHome(t)

	if err := RunConfigSet(&cobra.Command{}, []string{"defaultStack", "backend"}); err != nil {
		t.Fatalf("RunConfigSet failed: %v", err)
	}
	if err := RunConfigSet(&cobra.Command{}, []string{"githubToken", "ghp_1234567890"}); err != nil {
		t.Fatalf("RunConfigSet token failed: %v", err)
	}
	if err := RunConfigSet(&cobra.Command{}, []string{"defaultPackageManager", "bun"}); !rerr.Is(err, rerr.ValidationFailed) {
		t.Fatalf("expected ValidationFailed for bun, got %v", err)
	}
	if err := RunConfigSet(&cobra.Command{}, []string{"colour", "blue"}); !rerr.Is(err, rerr.ValidationFailed) {
		t.Fatalf("expected ValidationFailed for unknown key, got %v", err)
	}

	getCmd := newJSONCmdForTest()
	mustSetFlag(t, getCmd, "json", "true")
	out := captureStdout(t, func() {
		if err := RunConfigGet(getCmd, nil); err != nil {
			t.Fatalf("RunConfigGet failed: %v", err)
		}
	})
	var values map[string]string
	if err := json.Unmarshal([]byte(out), &values); err != nil {
		t.Fatalf("failed to decode config json: %v\n%s", err, out)
	}
	if values["defaultStack"] != "backend" {
		t.Fatalf("expected defaultStack=backend, got %v", values)
	}
	if values["githubToken"] != "ghp_********" {
		t.Fatalf("expected masked token, got %q", values["githubToken"])
	}

	out = captureStdout(t, func() {
		if err := RunConfigPath(&cobra.Command{}, nil); err != nil {
			t.Fatalf("RunConfigPath failed: %v", err)
		}
	})
	if strings.TrimSpace(out) != filepath.Join(home, ".claude", paths.UserPrefsFile) {
		t.Fatalf("unexpected preferences path %q", out)
	}

	parent := t.TempDir()
	withWorkingDir(t, parent, func() {
		captureStdout(t, func() {
			if err := RunInit(newInitCmdForTest(), []string{"api"}); err != nil {
				t.Fatalf("RunInit failed: %v", err)
			}
		})
	})
	assertExists(t, filepath.Join(parent, "api", "backend", "Dockerfile"))
	assertNotExists(t, filepath.Join(parent, "api", "web"))
}

func TestRootCommandWiresSubcommands(t *testing.T) {
	root := NewRootCommand("test")
	want := []string{"install", "update", "init", "migrate", "clean", "generate", "agent", "doctor", "config", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Fatalf("expected subcommand %s, err=%v", name, err)
		}
	}
	for _, name := range []string{"doctor", "agent", "clean", "migrate", "generate"} {
		cmd, _, _ := root.Find([]string{name})
		if cmd.Flags().Lookup("json") == nil {
			t.Fatalf("expected --json on %s", name)
		}
	}
}

func TestDoctorReportsMissingInstall(t *testing.T) {
	setupHome(t)
	withWorkingDir(t, t.TempDir(), func() {
		out := captureStdout(t, func() {
			if err := RunDoctor(newJSONCmdForTest(), nil); err != nil {
				t.Fatalf("RunDoctor failed: %v", err)
			}
		})
		if !strings.Contains(out, "doctor: issues") || !strings.Contains(out, "next: run rapids install") {
			t.Fatalf("expected install suggestion, got:\n%s", out)
		}
	})
}

func TestDoctorCountsInvalidDescriptors(t *testing.T) {
	home := setupHome(t)
	resolver := paths.NewResolver(home, paths.Darwin)
	mustWriteFile(t, filepath.Join(resolver.CommandsDir(), "plan.md"), "# plan\n")
	mustWriteFile(t, resolver.AgentRegistryFile(), testAgentRegistry)
	mustWriteFile(t, resolver.AgentFile("planner"), "no front matter\n")

	withWorkingDir(t, t.TempDir(), func() {
		cmd := newJSONCmdForTest()
		mustSetFlag(t, cmd, "json", "true")
		out := captureStdout(t, func() {
			if err := RunDoctor(cmd, nil); err != nil {
				t.Fatalf("RunDoctor failed: %v", err)
			}
		})
		var summary DoctorSummary
		if err := json.Unmarshal([]byte(out), &summary); err != nil {
			t.Fatalf("failed to decode doctor json: %v", err)
		}
		if summary.Healthy {
			t.Fatalf("expected unhealthy summary")
		}
		want := agents.DescriptorCounts{Invalid: []string{"planner.md"}}
		if summary.Descriptors.Valid != 0 || len(summary.Descriptors.Invalid) != 1 || summary.Descriptors.Invalid[0] != want.Invalid[0] {
			t.Fatalf("unexpected descriptor counts: %+v", summary.Descriptors)
		}
		if !containsString(summary.Missing, "valid agent descriptors") {
			t.Fatalf("expected missing descriptors, got %v", summary.Missing)
		}
	})
}

func TestSummarizePaths(t *testing.T) {
	got := SummarizePaths([]string{"a", "b", "c"}, 2)
	if got != "a, b ... (+1 more)" {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := SummarizePaths([]string{"a"}, 2); got != "a" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("RAPIDS_HOME", home)
	t.Setenv("RAPIDS_PLATFORM", "darwin")
	t.Setenv("RAPIDS_SOURCE_DIR", "")
	t.Setenv("RAPIDS_PRECACHE", "false")
	t.Setenv("NO_COLOR", "1")
	return home
}

func writeBundle(t *testing.T) string {
	t.Helper()
	src := filepath.Join(t.TempDir(), ".claude")
	mustWriteFile(t, filepath.Join(src, paths.AgentRegistryFile), testAgentRegistry)
	mustWriteFile(t, filepath.Join(src, paths.ServerRegistryFile), testServers)
	mustWriteFile(t, filepath.Join(src, "commands", "plan.md"), "# plan\n")
	mustWriteFile(t, filepath.Join(src, "prompts", "web-page.md"), "Wire {{.Pascal}} into navigation.\n")
	mustWriteFile(t, filepath.Join(src, paths.MethodFile), "RAPIDS v4.0\n")
	return src
}

func newInstallCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("source", "", "")
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().Bool("helpers", false, "")
	cmd.Flags().Bool("precache", false, "")
	cmd.Flags().Bool("allow-unsupported", false, "")
	cmd.Flags().Bool("json", false, "")
	for _, f := range credentialFlags {
		cmd.Flags().String(f.Flag, "", "")
	}
	return cmd
}

func newInitCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("preset", "", "")
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newCleanCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newGenerateCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("path", "", "")
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().Bool("verify", true, "")
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newAgentCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().String("trigger", "", "")
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func newJSONCmdForTest() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().Bool("json", false, "")
	return cmd
}

func withWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()

	originalWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		_ = os.Chdir(originalWD)
	}()

	fn()
}

func assertExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected %s to exist: %v", path, err)
	}
}

func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("expected %s to not exist", path)
	} else if !os.IsNotExist(err) {
		t.Fatalf("failed to stat %s: %v", path, err)
	}
}

func mustSetFlag(t *testing.T, cmd *cobra.Command, key, value string) {
	t.Helper()
	if err := cmd.Flags().Set(key, value); err != nil {
		t.Fatalf("failed to set --%s=%s: %v", key, value, err)
	}
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = writer
	defer func() {
		os.Stdout = original
		_ = writer.Close()
		_ = reader.Close()
	}()

	fn()

	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close stdout writer: %v", err)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read captured stdout: %v", err)
	}
	return string(data)
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
