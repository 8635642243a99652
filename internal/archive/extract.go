package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type ExtractStats struct {
	Files int
	Dirs  int
	Bytes int64
}

// ExtractTarGz unpacks a gzip-compressed tar stream into dest, dropping the
// first strip path components of every entry. Entries that would land
// outside dest are rejected. Links and special files are skipped.
func ExtractTarGz(r io.Reader, dest string, strip int) (ExtractStats, error) {
	var stats ExtractStats
	gz, err := gzip.NewReader(r)
	if err != nil {
		return stats, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read archive: %w", err)
		}

		clean := path.Clean(strings.TrimPrefix(hdr.Name, "./"))
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			return stats, fmt.Errorf("archive entry %q escapes destination", hdr.Name)
		}
		rel, ok := stripComponents(clean, strip)
		if !ok {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if !within(dest, target) {
			return stats, fmt.Errorf("archive entry %q escapes destination", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return stats, err
			}
			stats.Dirs++
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return stats, err
			}
			n, err := writeEntry(target, tr, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return stats, err
			}
			stats.Files++
			stats.Bytes += n
		}
	}
}

func writeEntry(target string, r io.Reader, perm os.FileMode) (int64, error) {
	if perm == 0 {
		perm = 0644
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func stripComponents(clean string, strip int) (string, bool) {
	parts := strings.Split(clean, "/")
	if len(parts) <= strip {
		return "", false
	}
	rel := strings.Join(parts[strip:], "/")
	if rel == "" || rel == "." {
		return "", false
	}
	return rel, true
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
