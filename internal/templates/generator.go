// Package templates generates layered source files for a named entity from
// a closed set of project templates.
package templates

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rapids-dev/rapids/internal/casing"
	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/rerr"
	"github.com/rapids-dev/rapids/internal/syntaxcheck"
)

// File is one rendered output.
type File struct {
	Path    string `json:"path"`
	Content string `json:"-"`
}

// Result describes one generation. Files hold absolute paths in template
// order.
type Result struct {
	Template string       `json:"template"`
	Entity   casing.Forms `json:"entity"`
	Target   string       `json:"target"`
	Files    []File       `json:"files"`
	Prompt   string       `json:"prompt,omitempty"`
	DryRun   bool         `json:"dry_run,omitempty"`
}

func (r *Result) Paths() []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Path
	}
	return out
}

type Generator struct {
	// Root is the project directory files are generated under.
	Root string
	// Settings, when present, remaps a template's top-level folder to the
	// folder detected for its role.
	Settings *configstore.ProjectSettings
	// PromptsDir holds optional <template-id>.md follow-up prompts.
	PromptsDir string
	Checker    *syntaxcheck.Registry
	Logger     *slog.Logger
}

// Plan renders every file for id and entity without writing anything.
func (g *Generator) Plan(ctx context.Context, id, entity string) (*Result, error) {
	tmpl, ok := Lookup(id)
	if !ok {
		return nil, rerr.WithDetails(rerr.UnknownTemplate,
			fmt.Sprintf("unknown template %q (available: %s)", id, strings.Join(IDs(), ", ")),
			map[string]string{"template": id})
	}
	forms := casing.FormsOf(entity)
	if forms.Pascal == "" {
		return nil, rerr.WithDetails(rerr.ValidationFailed, "entity name must contain a letter or digit",
			map[string]string{"field": "entity"})
	}

	target := g.targetDir(tmpl)
	res := &Result{Template: id, Entity: forms, Target: target}
	for _, tf := range tmpl.Files {
		rel, err := execute(tmpl.ID+":path", tf.Path, forms)
		if err != nil {
			return nil, err
		}
		body, err := execute(tmpl.ID+":"+rel, tf.Body, forms)
		if err != nil {
			return nil, err
		}
		abs := filepath.Join(target, filepath.FromSlash(rel))
		if g.Checker != nil {
			if err := g.Checker.Verify(ctx, abs, []byte(body)); err != nil {
				return nil, err
			}
		}
		res.Files = append(res.Files, File{Path: abs, Content: body})
	}

	prompt, err := g.renderPrompt(id, forms)
	if err != nil {
		return nil, err
	}
	res.Prompt = prompt
	return res, nil
}

// Generate renders and writes the template. Existing files at the target
// paths are overwritten. Nothing is written if any file fails to render or
// parse.
func (g *Generator) Generate(ctx context.Context, id, entity string) (*Result, error) {
	res, err := g.Plan(ctx, id, entity)
	if err != nil {
		return nil, err
	}
	log := clog.OrDiscard(g.Logger)
	for _, f := range res.Files {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
			return res, rerr.Wrap(rerr.PathInaccessible, "create "+filepath.Dir(f.Path), err)
		}
		if err := os.WriteFile(f.Path, []byte(f.Content), 0644); err != nil {
			return res, rerr.Wrap(rerr.PathInaccessible, "write "+f.Path, err)
		}
		log.Debug("generated", "template", id, "path", f.Path)
	}
	return res, nil
}

func (g *Generator) targetDir(tmpl Template) string {
	target := tmpl.Target
	if g.Settings != nil {
		if folder := g.Settings.FolderFor(tmpl.Role); folder != "" {
			parts := strings.SplitN(target, "/", 2)
			parts[0] = folder
			target = strings.Join(parts, "/")
		}
	}
	return filepath.Join(g.Root, filepath.FromSlash(target))
}

// renderPrompt fills the optional prompt file with the entity's forms. A
// prompt that is not a valid template is returned verbatim.
func (g *Generator) renderPrompt(id string, forms casing.Forms) (string, error) {
	if g.PromptsDir == "" {
		return "", nil
	}
	data, err := os.ReadFile(filepath.Join(g.PromptsDir, id+".md"))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", rerr.Wrap(rerr.PathInaccessible, "read prompt for "+id, err)
	}
	out, err := execute(id+":prompt", string(data), forms)
	if err != nil {
		clog.OrDiscard(g.Logger).Debug("prompt used verbatim", "template", id, clog.Err(err))
		return string(data), nil
	}
	return out, nil
}

func execute(name, text string, forms casing.Forms) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, forms); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
