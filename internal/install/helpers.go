package install

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
)

const helperScript = `#!/usr/bin/env bash
# rapids shell helpers. Regenerated by "rapids install"; edits are lost.

rapids-init-project() {
  local name="${1:-my-app}"
  shift || true
  rapids init "$name" "$@"
}

rapids-add-here() {
  if [ -d .claude ] && [ -f CLAUDE.md ]; then
    echo "This project is already migrated."
    return 0
  fi
  rapids migrate .
}

rapids-update() {
  rapids update "$@"
}

export -f rapids-init-project
export -f rapids-add-here
export -f rapids-update
`

// FormatScript parses src as bash and prints it canonically. A script that
// does not parse is an error.
func FormatScript(src string) (string, error) {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(true))
	file, err := parser.Parse(strings.NewReader(src), "rapids-cli.sh")
	if err != nil {
		return "", fmt.Errorf("parse helper script: %w", err)
	}
	var buf bytes.Buffer
	if err := syntax.NewPrinter(syntax.Indent(2)).Print(&buf, file); err != nil {
		return "", fmt.Errorf("print helper script: %w", err)
	}
	return buf.String(), nil
}

// SourceLine is the managed rc-file block body.
func SourceLine(script string) string {
	return fmt.Sprintf("[ -f %q ] && source %q", script, script)
}

// WriteHelpers writes the helper script and sources it from the first
// existing shell rc file. It returns the script path and the rc file it
// touched, or "" when no rc file exists.
func WriteHelpers(resolver *paths.Resolver) (string, string, error) {
	script, err := FormatScript(helperScript)
	if err != nil {
		return "", "", err
	}
	scriptPath := resolver.HelperScriptFile()
	if err := os.WriteFile(scriptPath, []byte(script), 0755); err != nil {
		return "", "", rerr.Wrap(rerr.PathInaccessible, "write "+scriptPath, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(scriptPath, 0755); err != nil {
		return "", "", rerr.Wrap(rerr.PathInaccessible, "chmod "+scriptPath, err)
	}

	for _, rc := range resolver.ShellRCCandidates() {
		if !fileutil.Exists(rc) {
			continue
		}
		data, err := os.ReadFile(rc)
		if err != nil {
			return scriptPath, "", rerr.Wrap(rerr.PathInaccessible, "read "+rc, err)
		}
		if strings.Contains(string(data), paths.HelperScriptFile) && !fileutil.ContainsManagedBlock(rc, fileutil.ShellMarkers) {
			return scriptPath, rc, nil
		}
		if _, err := fileutil.UpsertManagedFile(rc, fileutil.ShellMarkers, SourceLine(scriptPath)); err != nil {
			return scriptPath, "", rerr.Wrap(rerr.PathInaccessible, "update "+rc, err)
		}
		return scriptPath, rc, nil
	}
	return scriptPath, "", nil
}
