package archive

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rapids-dev/rapids/internal/paths"
	"github.com/rapids-dev/rapids/internal/rerr"
)

// Release is an unpacked archive in a temporary directory.
type Release struct {
	Dir     string
	Source  string
	Bytes   int64
	Version string
}

// ConfigDir is the bundled configuration tree inside the release.
func (r *Release) ConfigDir() string {
	return filepath.Join(r.Dir, paths.OverlayDir)
}

func (r *Release) Close() error {
	return os.RemoveAll(r.Dir)
}

// Download fetches the archive into a fresh temp directory and unpacks it,
// dropping the top-level folder that source archives carry. The caller
// must Close the release.
func Download(ctx context.Context, f Fetcher) (*Release, error) {
	dir, err := os.MkdirTemp("", "rapids-")
	if err != nil {
		return nil, rerr.Wrap(rerr.PathInaccessible, "create temp dir", err)
	}
	rel := &Release{Dir: dir, Source: f.Source()}

	out, err := os.CreateTemp("", "rapids-*.tar.gz")
	if err != nil {
		_ = rel.Close()
		return nil, rerr.Wrap(rerr.PathInaccessible, "create archive file", err)
	}
	archivePath := out.Name()
	defer os.Remove(archivePath)
	rel.Bytes, err = f.Fetch(ctx, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = rel.Close()
		return nil, err
	}

	in, err := os.Open(archivePath)
	if err != nil {
		_ = rel.Close()
		return nil, err
	}
	_, err = ExtractTarGz(bufio.NewReader(in), dir, 1)
	_ = in.Close()
	if err != nil {
		_ = rel.Close()
		return nil, err
	}
	rel.Version = ReadVersion(filepath.Join(rel.ConfigDir(), paths.MethodFile))
	return rel, nil
}

var versionPattern = regexp.MustCompile(`v(\d+\.\d+)`)

// ReadVersion returns the first vX.Y marker in the method document, or ""
// when the file is missing or carries none.
func ReadVersion(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	if m := versionPattern.FindSubmatch(data); m != nil {
		return string(m[1])
	}
	return ""
}
