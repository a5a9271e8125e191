// Package fsutil provides small filesystem helpers shared by the
// archiver and the stats collector.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}

// CopyFile copies src to dst, streaming the content through a SHA-256
// digest. It returns the number of bytes copied and the hex digest.
// The destination is written atomically via a temp file so a crash
// mid-copy never leaves a truncated file behind.
func CopyFile(src, dst string) (int64, string, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, "", fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return 0, "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	hash := sha256.New()
	n, err := io.Copy(io.MultiWriter(tmp, hash), in)
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return 0, "", fmt.Errorf("copying %s: %w", src, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)

		return 0, "", fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)

		return 0, "", fmt.Errorf("renaming to %s: %w", dst, err)
	}

	return n, hex.EncodeToString(hash.Sum(nil)), nil
}

// CountEntries counts the direct entries of dir. A missing directory
// counts as zero so callers can report on paths that no step has
// produced yet.
func CountEntries(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}

		return 0, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	return len(entries), nil
}
