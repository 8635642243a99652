// Package planner works out which legacy artifacts exist below a project
// root and how much space they take. It never mutates the filesystem.
package planner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/ignore"
	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
	"github.com/sourcegraph/conc/iter"
)

type Pattern struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type ItemType string

const (
	TypeFile      ItemType = "file"
	TypeDirectory ItemType = "directory"
)

type Item struct {
	Path   string   `json:"path"`
	Type   ItemType `json:"type"`
	Reason string   `json:"reason"`
	Size   int64    `json:"size"`
}

// Analysis is the descriptive result of one Plan call.
type Analysis struct {
	Root        string `json:"root"`
	Items       []Item `json:"items"`
	TotalSize   int64  `json:"total_size"`
	HasOverlay  bool   `json:"has_overlay"`
	HasMigrated bool   `json:"has_migrated"`
}

// Migrated reports whether both the overlay and the instructions document
// exist, which is what gates cleanup.
func (a *Analysis) Migrated() bool {
	return a.HasOverlay && a.HasMigrated
}

// WithoutBackup returns a copy of a without the overlay backup item, with
// TotalSize adjusted.
func (a *Analysis) WithoutBackup() *Analysis {
	backupRel := filepath.Base(paths.OverlayBackup(a.Root))
	out := *a
	out.Items = make([]Item, 0, len(a.Items))
	out.TotalSize = 0
	for _, item := range a.Items {
		if item.Path == backupRel {
			continue
		}
		out.Items = append(out.Items, item)
		out.TotalSize += item.Size
	}
	return &out
}

const backupReason = "Migration backup (no longer needed)"

// DefaultPatterns is the legacy artifact table applied to migrated projects.
var DefaultPatterns = []Pattern{
	{Path: "README.old.md", Reason: "Old README backup"},
	{Path: "CONTRIBUTING.old.md", Reason: "Old contributing guide"},
	{Path: "docs/old/", Reason: "Legacy documentation"},
	{Path: "docs/legacy/", Reason: "Legacy documentation"},

	{Path: ".env.local", Reason: "Local env file (use .env instead)"},
	{Path: ".env.production", Reason: "Production env (use deployment secrets)"},
	{Path: ".env.example", Reason: "Example env (documented in CLAUDE.md)"},
	{Path: ".env.development", Reason: "Development env (use .env instead)"},

	{Path: ".next/", Reason: "Next.js build cache"},
	{Path: "dist/", Reason: "Build output"},
	{Path: "build/", Reason: "Build output"},
	{Path: "__pycache__/", Reason: "Python cache"},
	{Path: "*.pyc", Reason: "Python compiled files"},
	{Path: ".pytest_cache/", Reason: "Pytest cache"},

	{Path: "scripts/setup.sh", Reason: "Old setup script (use RAPIDS commands)"},
	{Path: "scripts/init.sh", Reason: "Old init script (use RAPIDS commands)"},
	{Path: "scripts/bootstrap.sh", Reason: "Old bootstrap script"},
	{Path: "bin/setup", Reason: "Old setup binary"},
	{Path: "bin/init", Reason: "Old init binary"},

	{Path: ".travis.yml", Reason: "Travis CI (migrate to GitHub Actions)"},
	{Path: ".circleci/", Reason: "CircleCI (migrate to GitHub Actions)"},
	{Path: "azure-pipelines.yml", Reason: "Azure Pipelines (migrate to GitHub Actions)"},
}

type candidate struct {
	abs  string
	item Item
}

// Plan matches patterns below root. Literal patterns are checked with a
// single stat; glob patterns are matched during one walk of the tree. The
// overlay backup directory is always checked last, independent of patterns.
func Plan(root string, patterns []Pattern) (*Analysis, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, rerr.Wrap(rerr.PathInaccessible, "read "+root, err)
	}
	if !info.IsDir() {
		return nil, rerr.Newf(rerr.PathInaccessible, "%s is not a directory", root)
	}

	analysis := &Analysis{
		Root:        root,
		HasOverlay:  fileutil.IsDir(paths.OverlayRoot(root)),
		HasMigrated: fileutil.Exists(paths.InstructionsPath(root)),
	}

	seen := make(map[string]bool)
	var candidates []candidate
	var globs []ignore.Rule
	var globReasons []string

	for _, p := range patterns {
		pattern := strings.TrimSuffix(p.Path, "/**")
		if ignore.IsGlob(pattern) {
			if rule, ok := ignore.ParseRule(pattern); ok {
				globs = append(globs, rule)
				globReasons = append(globReasons, p.Reason)
			}
			continue
		}
		rel := filepath.Clean(strings.TrimSuffix(pattern, "/"))
		abs := filepath.Join(root, rel)
		st, err := os.Lstat(abs)
		if err != nil || seen[rel] {
			continue
		}
		seen[rel] = true
		candidates = append(candidates, candidate{abs: abs, item: newItem(rel, st.IsDir(), p.Reason)})
	}

	backupRel := filepath.Base(paths.OverlayBackup(root))
	var backup *candidate
	if st, err := os.Lstat(filepath.Join(root, backupRel)); err == nil && !seen[backupRel] {
		seen[backupRel] = true
		backup = &candidate{
			abs:  filepath.Join(root, backupRel),
			item: newItem(backupRel, st.IsDir(), backupReason),
		}
	}

	if len(globs) > 0 {
		candidates = append(candidates, matchGlobs(root, globs, globReasons, seen)...)
	}
	if backup != nil {
		candidates = append(candidates, *backup)
	}

	analysis.Items = iter.Map(candidates, func(c *candidate) Item {
		item := c.item
		if size, err := fileutil.PathSize(c.abs); err == nil {
			item.Size = size
		}
		return item
	})
	if analysis.Items == nil {
		analysis.Items = []Item{}
	}
	for _, item := range analysis.Items {
		analysis.TotalSize += item.Size
	}
	return analysis, nil
}

// matchGlobs walks root once, grouping matches by pattern in table order.
// Directories already selected by a literal pattern, or by an earlier glob,
// are not descended into.
func matchGlobs(root string, globs []ignore.Rule, reasons []string, seen map[string]bool) []candidate {
	prune := ignore.NewMatcher(ignore.DefaultPrune)
	perRule := make([][]candidate, len(globs))

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		isDir := d.IsDir()
		if isDir && (seen[filepath.FromSlash(rel)] || prune.ShouldIgnore(rel, true)) {
			return filepath.SkipDir
		}
		if seen[filepath.FromSlash(rel)] {
			return nil
		}
		for i, rule := range globs {
			if !matchesEntry(rule, rel, isDir) {
				continue
			}
			perRule[i] = append(perRule[i], candidate{
				abs:  path,
				item: newItem(filepath.FromSlash(rel), isDir, reasons[i]),
			})
			seen[filepath.FromSlash(rel)] = true
			if isDir {
				return filepath.SkipDir
			}
			return nil
		}
		return nil
	})

	var out []candidate
	for _, group := range perRule {
		sort.SliceStable(group, func(i, j int) bool { return group[i].item.Path < group[j].item.Path })
		out = append(out, group...)
	}
	return out
}

// matchesEntry matches the entry itself, not merely an ancestor directory.
func matchesEntry(rule ignore.Rule, rel string, isDir bool) bool {
	if rule.DirOnly && !isDir {
		return false
	}
	if !rule.Matches(rel, isDir) {
		return false
	}
	if i := strings.LastIndex(rel, "/"); i >= 0 && rule.Matches(rel[:i], true) {
		return false
	}
	return true
}

func newItem(rel string, isDir bool, reason string) Item {
	t := TypeFile
	if isDir {
		t = TypeDirectory
	}
	return Item{Path: rel, Type: t, Reason: reason}
}
