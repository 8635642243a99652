package migrate

import (
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rapids-dev/rapids/internal/analyzer"
	"github.com/rapids-dev/rapids/internal/stack"
)

const IgnoreFileContent = `node_modules/
.git/
dist/
build/
.next/
__pycache__/
*.pyc
.env
.DS_Store
`

const instructionsTemplate = `# CLAUDE.md

This project uses the RAPIDS agent configuration.

## Project Structure

{{if eq .Topology "monorepo"}}- **Monorepo structure**
{{end}}{{range .Roles}}- **{{.Title}}**: ` + "`{{.Folder}}/`" + `{{if .Framework}} ({{.Framework}}){{end}}
{{end}}
## Next Steps

1. **Initialize context system**: run ` + "`/update-doc initialize`" + ` in Claude Code
2. **Document architecture**: run ` + "`/update-doc system`" + `
3. **Plan features**: use ` + "`/update-doc plan <feature-name>`" + ` before building

## Migration Notes

- Original structure preserved
- RAPIDS agents and commands available
- Keep ` + "`.agent/`" + ` docs current to reduce token usage
- Dockerfiles can be generated on demand with agents

## Package Manager

{{if .PackageManager}}This project uses **{{.PackageManager}}**{{else}}No package manager detected{{end}}
`

const architectureTemplate = `# Architecture Overview

## Project Type
{{.TopologyLabel}}

## Tech Stack
{{range .Frameworks}}- **{{.Title}}**: {{.Framework}}
{{end}}
## Folder Structure
` + "```" + `
{{.Name}}/
{{range .Roles}}├── {{.Folder}}/    # {{.Purpose}}
{{end}}└── .agent/        # Context documentation
` + "```" + `

## Critical Paths
(To be documented - run code analysis or manually update)

## Key Design Decisions
(To be documented based on existing codebase)
`

var (
	instructionsTmpl = template.Must(template.New("instructions").Parse(instructionsTemplate))
	architectureTmpl = template.Must(template.New("architecture").Parse(architectureTemplate))
)

type roleView struct {
	Title     string
	Folder    string
	Framework string
	Purpose   string
}

type docView struct {
	Name           string
	Topology       stack.Topology
	TopologyLabel  string
	PackageManager stack.PackageManager
	Roles          []roleView
	Frameworks     []roleView
}

var roleTitles = map[stack.Role]struct{ title, purpose string }{
	stack.RoleWeb:     {"Web", "Web application"},
	stack.RoleBackend: {"Backend", "Backend API"},
	stack.RoleMobile:  {"Mobile", "Mobile app"},
}

func newDocView(a *analyzer.Analysis) docView {
	view := docView{
		Name:           filepath.Base(filepath.Clean(a.Root)),
		Topology:       a.Topology,
		TopologyLabel:  a.Topology.Label(),
		PackageManager: a.PackageManager,
	}
	for _, role := range stack.Roles {
		meta := roleTitles[role]
		rv := roleView{Title: meta.title, Folder: a.Folders[role], Framework: a.Framework(role), Purpose: meta.purpose}
		if rv.Folder != "" {
			view.Roles = append(view.Roles, rv)
		}
		if rv.Framework != "" {
			view.Frameworks = append(view.Frameworks, rv)
		}
	}
	return view
}

func render(t *template.Template, view docView) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, view); err != nil {
		return "", err
	}
	return b.String(), nil
}
