// Package main provides the standalone snapshot archiver. It archives
// a news snapshot into the dated layout and prunes the archive to the
// retention window, without running any pipeline steps.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"econpipe/internal/archive"
	"econpipe/internal/config"
	"econpipe/internal/logger"
	"econpipe/internal/snapshot"
	"econpipe/pkg/clock"
)

func main() {
	// Define command-line flags
	configFile := flag.String("config", "", "Path to YAML configuration file")
	dataRoot := flag.String("data-root", "", "Directory the pipeline operates in (default: current directory)")
	snapshotFile := flag.String("snapshot", "", "Snapshot to archive (default: paths.snapshot from config)")
	keep := flag.Int("keep", 0, "Override retention.max_entries")
	list := flag.Bool("list", false, "List archived snapshots, newest first, and exit")
	dryRun := flag.Bool("dry-run", false, "Show what would be archived and pruned without changing files")
	help := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	limit := cfg.Retention.MaxEntries
	if *keep > 0 {
		limit = *keep
	}

	snapshotPath := *snapshotFile
	if snapshotPath == "" {
		snapshotPath = resolve(*dataRoot, cfg.Paths.Snapshot)
	}

	log := logger.NewLogger(cfg.Logging.Level)
	arch := archive.New(resolve(*dataRoot, cfg.Paths.ArchiveRoot), limit, clock.System{}, log)

	if *list {
		listArchive(arch)

		return
	}

	if *dryRun {
		fmt.Println("👀 Dry-run mode (no changes will be written)")

		if _, _, loadErr := snapshot.Load(snapshotPath); loadErr != nil {
			fmt.Printf("⚠️  Would not archive: %v\n", loadErr)
		} else {
			fmt.Printf("📝 Would archive: %s\n", snapshotPath)
		}

		excess, excessErr := arch.Excess()
		if excessErr != nil {
			fmt.Fprintf(os.Stderr, "❌ Cannot inspect archive: %v\n", excessErr)
			os.Exit(1)
		}

		fmt.Printf("📝 Retention would remove %d snapshots (keeping %d)\n", len(excess), limit)

		for i := len(excess) - 1; i >= 0; i-- {
			fmt.Printf("  - %s\n", excess[i].Path)
		}

		return
	}

	// Archive, then prune.
	snap, size, loadErr := snapshot.Load(snapshotPath)

	switch {
	case errors.Is(loadErr, snapshot.ErrMissing):
		fmt.Fprintf(os.Stderr, "❌ Snapshot missing: %v\n", loadErr)
		os.Exit(1)
	case loadErr != nil:
		fmt.Printf("⚠️  Snapshot is damaged (%v), archiving it anyway\n", loadErr)
	default:
		fmt.Printf("📦 Archiving snapshot: %d articles, %d bytes\n", snap.ArticleCount(), size)
	}

	result, err := arch.Store(snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Archive failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Archived to %s (sha256 %s)\n", result.Path, result.Digest)

	pruned, err := arch.Prune()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Retention failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n----------------------------------------------------------------")
	fmt.Printf("📈 Summary:\n")
	fmt.Printf("  Archived: %s\n", filepath.Base(result.Path))
	fmt.Printf("  Pruned:   %d files\n", len(pruned.Removed))
	fmt.Printf("  Kept:     %d of %d allowed\n", pruned.Kept, limit)
}

func listArchive(arch *archive.Archiver) {
	entries, err := arch.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Cannot list archive: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("Archive is empty")

		return
	}

	var total int64

	for _, entry := range entries {
		fmt.Printf("%s  %10d  %s\n", entry.Name, entry.Size, entry.Path)
		total += entry.Size
	}

	fmt.Printf("\n%d snapshots, %d bytes\n", len(entries), total)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat("configs/pipeline.yaml"); err == nil {
			path = "configs/pipeline.yaml"
		}
	}

	if path == "" {
		return config.DefaultConfig(), nil
	}

	return config.LoadConfig(path)
}

func resolve(root, path string) string {
	if root == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(root, path)
}

func printUsage() {
	fmt.Println("Usage: archiver [options]")
	fmt.Println()
	fmt.Println("Archives the news snapshot into <archive>/<YYYY>/<MM>/news-<YYYYMMDD>-<HHMM>.json")
	fmt.Println("and prunes the archive to the retention window.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  archiver -config configs/pipeline.yaml")
	fmt.Println("  archiver -snapshot api/news.json -keep 10")
	fmt.Println("  archiver -list")
}
