package ignore

import "testing"

func TestMatcher_PruneDefaults(t *testing.T) {
	m := NewMatcher(DefaultPrune)

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{path: ".git", isDir: true, ignored: true},
		{path: ".git/config", isDir: false, ignored: true},
		{path: "web/node_modules", isDir: true, ignored: true},
		{path: "web/node_modules/pkg/index.js", isDir: false, ignored: true},
		{path: ".claude", isDir: true, ignored: true},
		{path: "docs/.claude", isDir: true, ignored: false},
		{path: ".agent/system/architecture-overview.md", isDir: false, ignored: true},
		{path: "backend/app/main.py", isDir: false, ignored: false},
	}

	for _, tc := range cases {
		got := m.ShouldIgnore(tc.path, tc.isDir)
		if got != tc.ignored {
			t.Fatalf("path %s: expected ignored=%v, got %v", tc.path, tc.ignored, got)
		}
	}
}

func TestMatcher_NegatedDirectoryRule(t *testing.T) {
	m := NewMatcher([]string{
		"build/",
		"!build/include/",
	})

	if !m.ShouldIgnore("build/out/file.go", false) {
		t.Fatalf("expected build/out/file.go to be ignored")
	}
	if m.ShouldIgnore("build/include/file.go", false) {
		t.Fatalf("expected build/include/file.go to be included")
	}
}

func TestRule_GlobMatchesAnyDepth(t *testing.T) {
	rule, ok := ParseRule("*.pyc")
	if !ok {
		t.Fatalf("expected rule to parse")
	}
	for _, path := range []string{"a.pyc", "backend/app/__pycache__/b.pyc"} {
		if !rule.Matches(path, false) {
			t.Fatalf("expected %s to match", path)
		}
	}
	if rule.Matches("backend/app/main.py", false) {
		t.Fatalf("main.py must not match *.pyc")
	}
}

func TestRule_DoubleStar(t *testing.T) {
	rule, _ := ParseRule("docs/**/draft-*.md")
	if !rule.Matches("docs/old/notes/draft-1.md", false) {
		t.Fatalf("expected nested draft to match")
	}
	if rule.Matches("docs/final.md", false) {
		t.Fatalf("final.md must not match")
	}
}

func TestIsGlob(t *testing.T) {
	if IsGlob("scripts/setup.sh") || IsGlob(".next/") {
		t.Fatalf("literal patterns reported as globs")
	}
	if !IsGlob("*.pyc") || !IsGlob("docs/**") {
		t.Fatalf("glob patterns not detected")
	}
}
