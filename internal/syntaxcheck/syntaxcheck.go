// Package syntaxcheck parses generated source with tree-sitter grammars and
// reports syntax errors before files are written.
package syntaxcheck

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/dockerfile"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/rapids-dev/rapids/internal/rerr"
)

// Problem is one ERROR or MISSING node in a parse tree. Line and Column
// are 1-based.
type Problem struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Kind   string `json:"kind"`
}

func (p Problem) String() string {
	return fmt.Sprintf("%d:%d %s", p.Line, p.Column, p.Kind)
}

// Checker validates the syntax of one language.
type Checker interface {
	Language() string
	Extensions() []string
	Check(ctx context.Context, content []byte) ([]Problem, error)
}

type grammarChecker struct {
	name    string
	exts    []string
	grammar func() *sitter.Language
}

func (g *grammarChecker) Language() string {
	return g.name
}

func (g *grammarChecker) Extensions() []string {
	return g.exts
}

// Check parses content with a fresh parser; sitter.Parser is not safe for
// concurrent use.
func (g *grammarChecker) Check(ctx context.Context, content []byte) ([]Problem, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(g.grammar())

	tree, err := p.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	var problems []Problem
	collectProblems(root, &problems)
	if len(problems) == 0 {
		point := root.StartPoint()
		problems = append(problems, Problem{Line: int(point.Row) + 1, Column: int(point.Column) + 1, Kind: "error"})
	}
	return problems, nil
}

func collectProblems(node *sitter.Node, out *[]Problem) {
	if node == nil {
		return
	}
	switch {
	case node.IsMissing():
		point := node.StartPoint()
		*out = append(*out, Problem{Line: int(point.Row) + 1, Column: int(point.Column) + 1, Kind: "missing " + node.Type()})
		return
	case node.IsError():
		point := node.StartPoint()
		*out = append(*out, Problem{Line: int(point.Row) + 1, Column: int(point.Column) + 1, Kind: "error"})
		return
	}
	if !node.HasError() {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectProblems(node.Child(i), out)
	}
}

// Registry maps file extensions to checkers.
type Registry struct {
	checkers  map[string]Checker
	extToLang map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		checkers:  make(map[string]Checker),
		extToLang: make(map[string]string),
	}
}

func (r *Registry) Register(c Checker) {
	lang := c.Language()
	r.checkers[lang] = c
	for _, ext := range c.Extensions() {
		r.extToLang[ext] = lang
	}
}

// CheckerFor picks a checker by extension, or by base name for files such
// as Dockerfile that have none.
func (r *Registry) CheckerFor(filename string) (Checker, bool) {
	key := strings.ToLower(filepath.Ext(filename))
	if key == "" {
		key = filepath.Base(filename)
	}
	lang, ok := r.extToLang[key]
	if !ok {
		return nil, false
	}
	c, ok := r.checkers[lang]
	return c, ok
}

func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Verify returns a ValidationFailed error when content does not parse.
// Unsupported file types pass.
func (r *Registry) Verify(ctx context.Context, filename string, content []byte) error {
	c, ok := r.CheckerFor(filename)
	if !ok {
		return nil
	}
	problems, err := c.Check(ctx, content)
	if err != nil {
		return rerr.Wrap(rerr.ValidationFailed, "parse "+filename, err)
	}
	if len(problems) == 0 {
		return nil
	}
	return rerr.WithDetails(rerr.ValidationFailed,
		fmt.Sprintf("%s has %d syntax problem(s), first at %s", filename, len(problems), problems[0]),
		map[string]string{"path": filename, "language": c.Language()})
}

// NewDefaultRegistry covers every language rapids generates.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&grammarChecker{name: "python", exts: []string{".py"}, grammar: python.GetLanguage})
	r.Register(&grammarChecker{name: "typescript", exts: []string{".ts"}, grammar: typescript.GetLanguage})
	r.Register(&grammarChecker{name: "tsx", exts: []string{".tsx"}, grammar: tsx.GetLanguage})
	r.Register(&grammarChecker{name: "javascript", exts: []string{".js", ".jsx", ".mjs", ".cjs"}, grammar: javascript.GetLanguage})
	r.Register(&grammarChecker{name: "yaml", exts: []string{".yml", ".yaml"}, grammar: yaml.GetLanguage})
	r.Register(&grammarChecker{name: "dockerfile", exts: []string{"Dockerfile"}, grammar: dockerfile.GetLanguage})
	return r
}
