// Package stats collects pipeline health counts and renders the
// summary block printed at the end of a run.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shirou/gopsutil/v3/disk"

	"econpipe/internal/archive"
	"econpipe/internal/logger"
	"econpipe/internal/models"
	"econpipe/internal/snapshot"
	"econpipe/pkg/clock"
	"econpipe/pkg/fsutil"
)

// topSourceCount bounds the per-outlet breakdown in the summary.
const topSourceCount = 5

// Collector gathers counts from the snapshot, the step output
// directories, and the archive.
type Collector struct {
	snapshotPath string
	processedDir string
	reportsDir   string
	arch         *archive.Archiver
	clk          clock.Clock
	log          *logger.Logger
}

// NewCollector creates a collector over the given locations.
func NewCollector(snapshotPath, processedDir, reportsDir string, arch *archive.Archiver, clk clock.Clock, log *logger.Logger) *Collector {
	return &Collector{
		snapshotPath: snapshotPath,
		processedDir: processedDir,
		reportsDir:   reportsDir,
		arch:         arch,
		clk:          clk,
		log:          log,
	}
}

// Collect builds the summary. A snapshot that is missing or broken is
// recorded on the summary rather than failing the collection, but a
// directory that exists and cannot be read is a real error.
func (c *Collector) Collect() (*models.Summary, error) {
	summary := &models.Summary{GeneratedAt: c.clk.Now()}

	snap, _, err := snapshot.Load(c.snapshotPath)
	if err != nil {
		summary.SnapshotError = err.Error()

		c.log.Warn("snapshot unreadable", "path", c.snapshotPath, "error", err.Error())
	} else {
		summary.Articles = snap.ArticleCount()
		summary.LastUpdated = snap.LastUpdated
		summary.TopSources = topSources(snap.Articles, topSourceCount)
	}

	processed, err := fsutil.CountEntries(c.processedDir)
	if err != nil {
		return nil, err
	}
	summary.Processed = processed

	reports, err := fsutil.CountEntries(c.reportsDir)
	if err != nil {
		return nil, err
	}
	summary.Reports = reports

	entries, err := c.arch.List()
	if err != nil {
		return nil, err
	}
	summary.ArchiveCount = len(entries)
	summary.ArchiveBytes = archive.TotalBytes(entries)

	summary.Disk = c.diskUsage()

	return summary, nil
}

// diskUsage reports capacity of the volume that holds the archive.
// The archive root may not exist yet, so the probe walks up to the
// nearest existing ancestor. Failures only cost the disk row.
func (c *Collector) diskUsage() *models.DiskUsage {
	path := nearestExisting(c.arch.Root())

	usage, err := disk.Usage(path)
	if err != nil {
		c.log.Warn("disk usage unavailable", "path", path, "error", err.Error())

		return nil
	}

	return &models.DiskUsage{
		Path:        path,
		TotalBytes:  usage.Total,
		FreeBytes:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}
}

func nearestExisting(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}

		parent := filepath.Dir(path)
		if parent == path {
			return path
		}

		path = parent
	}
}

// topSources counts articles per outlet and returns the n largest,
// ties broken by name so the output is stable.
func topSources(articles []models.Article, n int) []models.SourceCount {
	counts := make(map[string]int)
	for _, article := range articles {
		if article.Source == "" {
			continue
		}
		counts[article.Source]++
	}

	sources := make([]models.SourceCount, 0, len(counts))
	for source, count := range counts {
		sources = append(sources, models.SourceCount{Source: source, Count: count})
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Count != sources[j].Count {
			return sources[i].Count > sources[j].Count
		}

		return sources[i].Source < sources[j].Source
	})

	if len(sources) > n {
		sources = sources[:n]
	}

	return sources
}

// WriteRunReport persists the run report as indented JSON at path.
func WriteRunReport(path string, report *models.RunReport) error {
	if err := fsutil.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing run report %s: %w", path, err)
	}

	return nil
}
