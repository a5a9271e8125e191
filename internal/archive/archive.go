// Package archive stores dated copies of the news snapshot under a
// year/month layout and enforces a bounded retention window over them.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"econpipe/internal/logger"
	"econpipe/internal/models"
	"econpipe/pkg/clock"
	"econpipe/pkg/fsutil"
)

// namePattern matches archived snapshot names like news-20240315-0600.json.
// Anything else under the root (readme files, temp files, the run report)
// is left alone.
var namePattern = regexp.MustCompile(`^news-\d{8}-\d{4}\.json$`)

// Archiver copies snapshots into the archive tree and prunes old ones.
type Archiver struct {
	root  string
	limit int
	clk   clock.Clock
	log   *logger.Logger
}

// New creates an archiver rooted at root keeping at most limit entries.
func New(root string, limit int, clk clock.Clock, log *logger.Logger) *Archiver {
	return &Archiver{
		root:  root,
		limit: limit,
		clk:   clk,
		log:   log,
	}
}

// Root returns the archive root directory.
func (a *Archiver) Root() string {
	return a.root
}

// Store copies the snapshot at src into <root>/<YYYY>/<MM>/news-<YYYYMMDD>-<HHMM>.json.
// A second store within the same minute overwrites the previous copy.
func (a *Archiver) Store(src string) (*models.ArchiveResult, error) {
	now := a.clk.Now()

	dir := filepath.Join(a.root, now.Format("2006"), now.Format("01"))
	if err := fsutil.EnsureDir(dir); err != nil {
		return nil, err
	}

	dst := filepath.Join(dir, "news-"+now.Format("20060102-1504")+".json")

	bytes, digest, err := fsutil.CopyFile(src, dst)
	if err != nil {
		return nil, fmt.Errorf("archiving snapshot: %w", err)
	}

	a.log.Debug("snapshot archived", "path", dst, "bytes", bytes, "sha256", digest)

	return &models.ArchiveResult{Path: dst, Bytes: bytes, Digest: digest}, nil
}

// List returns every archived snapshot under the root, newest first.
// Order follows the base file name, which embeds the archive time, so
// no directory layout or modification time is consulted. A missing
// root yields an empty list.
func (a *Archiver) List() ([]models.ArchiveEntry, error) {
	var entries []models.ArchiveEntry

	err := filepath.Walk(a.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return err
		}

		if info.IsDir() {
			return nil
		}

		name := filepath.Base(path)
		if !namePattern.MatchString(name) {
			return nil
		}

		entries = append(entries, models.ArchiveEntry{
			Path: path,
			Name: name,
			Size: info.Size(),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing archive %s: %w", a.root, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name > entries[j].Name
		}

		return entries[i].Path > entries[j].Path
	})

	return entries, nil
}

// Excess returns the entries beyond the retention limit, oldest last.
// These are the files Prune would delete.
func (a *Archiver) Excess() ([]models.ArchiveEntry, error) {
	entries, err := a.List()
	if err != nil {
		return nil, err
	}

	if len(entries) <= a.limit {
		return nil, nil
	}

	return entries[a.limit:], nil
}

// Prune deletes archived snapshots beyond the retention limit, oldest
// first. A file that vanished since listing does not fail the prune,
// so concurrent runs converge instead of erroring.
func (a *Archiver) Prune() (*models.PruneResult, error) {
	entries, err := a.List()
	if err != nil {
		return nil, err
	}

	result := &models.PruneResult{Removed: []string{}, Kept: len(entries)}

	if len(entries) <= a.limit {
		return result, nil
	}

	excess := entries[a.limit:]

	for i := len(excess) - 1; i >= 0; i-- {
		entry := excess[i]

		if err := os.Remove(entry.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("pruning %s: %w", entry.Path, err)
		}

		result.Removed = append(result.Removed, entry.Path)

		a.log.Debug("pruned archived snapshot", "path", entry.Path)
	}

	result.Kept = len(entries) - len(result.Removed)

	return result, nil
}

// TotalBytes sums the sizes of the given entries.
func TotalBytes(entries []models.ArchiveEntry) int64 {
	var total int64
	for _, entry := range entries {
		total += entry.Size
	}

	return total
}
