package install

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
)

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeModified ChangeKind = "modified"
)

// FileChange is one file the copy step would write.
type FileChange struct {
	Path string     `json:"path"`
	Kind ChangeKind `json:"kind"`
	Diff string     `json:"diff,omitempty"`
}

// Preview compares the bundled tree with the installed one without writing
// anything. Unchanged files and local overrides are omitted.
func Preview(sourceDir string, resolver *paths.Resolver) ([]FileChange, error) {
	root := resolver.GlobalRoot()
	var changes []FileChange
	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		if skipLocalOverrides(rel, d) {
			return nil
		}
		next, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		slashRel := filepath.ToSlash(rel)
		current, err := os.ReadFile(filepath.Join(root, rel))
		if os.IsNotExist(err) {
			changes = append(changes, FileChange{Path: slashRel, Kind: ChangeAdded})
			return nil
		}
		if err != nil {
			return err
		}
		if string(current) == string(next) {
			return nil
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(string(current)),
			B:        difflib.SplitLines(string(next)),
			FromFile: "installed/" + slashRel,
			ToFile:   "bundled/" + slashRel,
			Context:  3,
		})
		if err != nil {
			return err
		}
		changes = append(changes, FileChange{Path: slashRel, Kind: ChangeModified, Diff: diff})
		return nil
	})
	if err != nil {
		return nil, rerr.Wrap(rerr.PathInaccessible, "preview "+sourceDir, err)
	}
	return changes, nil
}
