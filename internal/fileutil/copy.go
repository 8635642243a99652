package fileutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyOptions controls CopyTree.
type CopyOptions struct {
	// Skip is consulted for every entry below the source root, with its
	// slash-separated relative path. Returning true skips a file or prunes
	// a directory.
	Skip func(rel string, d fs.DirEntry) bool
	// Overwrite replaces existing destination files. When false they are
	// left alone and counted as skipped.
	Overwrite bool
}

// CopyStats summarizes one CopyTree call.
type CopyStats struct {
	Files   int
	Dirs    int
	Skipped int
	Bytes   int64
}

// CopyTree recursively copies src into dst, creating dst as needed.
func CopyTree(src, dst string, opts CopyOptions) (CopyStats, error) {
	var stats CopyStats
	info, err := os.Stat(src)
	if err != nil {
		return stats, err
	}
	if !info.IsDir() {
		return stats, fmt.Errorf("%s is not a directory", src)
	}

	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if rel == "." {
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		}
		if opts.Skip != nil && opts.Skip(filepath.ToSlash(rel), d) {
			stats.Skipped++
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			stats.Dirs++
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			stats.Skipped++
			return nil
		}
		if !opts.Overwrite && Exists(target) {
			stats.Skipped++
			return nil
		}
		n, err := CopyFile(path, target)
		if err != nil {
			return err
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})
	return stats, err
}

// CopyFile copies one regular file, preserving its permission bits.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// Backup duplicates path (file or directory) to dest, replacing whatever
// was at dest. A missing source is not an error and reports false.
func Backup(path, dest string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := os.RemoveAll(dest); err != nil {
		return false, fmt.Errorf("failed to clear previous backup %s: %w", dest, err)
	}
	if info.IsDir() {
		if _, err := CopyTree(path, dest, CopyOptions{Overwrite: true}); err != nil {
			return false, err
		}
		return true, nil
	}
	if _, err := CopyFile(path, dest); err != nil {
		return false, err
	}
	return true, nil
}
