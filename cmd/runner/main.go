// Package main provides the pipeline runner. It executes the news
// steps in order, archives the fresh snapshot, enforces archive
// retention, and prints the run summary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"econpipe/internal/archive"
	"econpipe/internal/config"
	"econpipe/internal/logger"
	"econpipe/internal/models"
	"econpipe/internal/pipeline"
	"econpipe/internal/snapshot"
	"econpipe/internal/stats"
	"econpipe/pkg/clock"
)

const defaultConfigPath = "configs/pipeline.yaml"

func main() {
	// 1. Define Command-Line Flags
	// ----------------------------
	configFile := flag.String("config", "", "Path to YAML configuration file")
	dataRoot := flag.String("data-root", "", "Directory the pipeline operates in (default: current directory)")
	skipSteps := flag.Bool("skip-steps", false, "Skip the external steps, only archive, prune, and report")
	dryRun := flag.Bool("dry-run", false, "Report what would run and what would be pruned, change nothing")
	writeConfig := flag.String("write-config", "", "Write the default configuration to the given path and exit")
	help := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	if *writeConfig != "" {
		if err := config.DefaultConfig().SaveConfig(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "❌ Failed to write config: %v\n", err)
			os.Exit(1)
		}

		fmt.Fprintf(os.Stderr, "✅ Default configuration written to %s\n", *writeConfig)
		os.Exit(0)
	}

	// 2. Load Configuration
	// ---------------------
	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level)
	clk := clock.System{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Warn("⚠️  Received interrupt, stopping after the current step")
		cancel()
	}()

	startedAt := clk.Now()
	root := *dataRoot

	snapshotPath := resolve(root, cfg.Paths.Snapshot)
	archiveRoot := resolve(root, cfg.Paths.ArchiveRoot)

	arch := archive.New(archiveRoot, cfg.Retention.MaxEntries, clk, log)
	runner := pipeline.New(cfg, log).WithDir(root)

	log.Info(fmt.Sprintf("🚀 Starting news pipeline (run %s)", runner.RunID()))
	log.Info(fmt.Sprintf("📍 Snapshot: %s", snapshotPath))
	log.Info(fmt.Sprintf("🗃  Archive: %s (keep %d)", archiveRoot, cfg.Retention.MaxEntries))

	// 3. Pipeline Steps
	// -----------------
	var results []models.StepResult

	switch {
	case *dryRun:
		log.Info("👀 Dry-run mode, steps not executed")
	case *skipSteps:
		log.Info("⚠️  Steps skipped by flag")
	default:
		results = runner.Run(ctx)
	}

	failures := pipeline.Failures(results)
	aborted := cfg.AbortOnFailure() && failures > 0

	// 4. Archive Snapshot
	// -------------------
	var archResult *models.ArchiveResult

	var pruneResult *models.PruneResult

	switch {
	case aborted:
		log.Warn("⚠️  Pipeline aborted, snapshot not archived")
	case *dryRun:
		reportDryRun(arch, snapshotPath, log)
	default:
		archResult = archiveSnapshot(arch, snapshotPath, log, &failures)

		// 5. Retention
		// ------------
		pruneResult, err = arch.Prune()
		if err != nil {
			log.Error(fmt.Sprintf("❌ Retention failed: %v", err))

			failures++
		} else if len(pruneResult.Removed) > 0 {
			log.Info(fmt.Sprintf("🧹 Pruned %d old snapshots, kept %d", len(pruneResult.Removed), pruneResult.Kept))
		}
	}

	// 6. Stats & Summary
	// ------------------
	collector := stats.NewCollector(snapshotPath, resolve(root, cfg.Paths.ProcessedDir), resolve(root, cfg.Paths.ReportsDir), arch, clk, log)

	summary, err := collector.Collect()
	if err != nil {
		log.Error(fmt.Sprintf("❌ Stats collection failed: %v", err))

		failures++
	} else {
		fmt.Print(stats.RenderSteps(results))
		fmt.Print(stats.RenderSummary(summary))
	}

	// 7. Run Report
	// -------------
	if cfg.Report.WriteJSON && !*dryRun {
		report := &models.RunReport{
			RunID:      runner.RunID(),
			StartedAt:  startedAt,
			FinishedAt: clk.Now(),
			Steps:      results,
			Archive:    archResult,
			Prune:      pruneResult,
			Summary:    summary,
			Failures:   failures,
		}

		reportPath := filepath.Join(archiveRoot, "last-run.json")
		if err := stats.WriteRunReport(reportPath, report); err != nil {
			log.Error(fmt.Sprintf("❌ Failed to write run report: %v", err))

			failures++
		} else {
			log.Info(fmt.Sprintf("📝 Run report written to %s", reportPath))
		}
	}

	if failures > 0 {
		log.Error(fmt.Sprintf("❌ Pipeline finished with %d failure(s)", failures))
		os.Exit(1)
	}

	log.Info(fmt.Sprintf("✨ Pipeline complete in %v", time.Since(startedAt).Round(time.Millisecond)))
}

// archiveSnapshot copies the snapshot into the archive. A present but
// damaged snapshot is still archived so the evidence survives; only a
// missing file counts as a failure here.
func archiveSnapshot(arch *archive.Archiver, snapshotPath string, log *logger.Logger, failures *int) *models.ArchiveResult {
	snap, size, loadErr := snapshot.Load(snapshotPath)

	if errors.Is(loadErr, snapshot.ErrMissing) {
		log.Error(fmt.Sprintf("❌ Snapshot missing, nothing to archive: %v", loadErr))

		*failures++

		return nil
	}

	if loadErr != nil {
		log.Warn(fmt.Sprintf("⚠️  Snapshot is damaged (%v), archiving it anyway", loadErr))
	} else {
		log.Info(fmt.Sprintf("📦 Archiving snapshot: %d articles, %d bytes", snap.ArticleCount(), size))
	}

	result, err := arch.Store(snapshotPath)
	if err != nil {
		log.Error(fmt.Sprintf("❌ Archive failed: %v", err))

		*failures++

		return nil
	}

	log.Info(fmt.Sprintf("✅ Archived to %s", result.Path))

	return result
}

// reportDryRun prints what the archive and retention phases would do.
func reportDryRun(arch *archive.Archiver, snapshotPath string, log *logger.Logger) {
	if _, _, err := snapshot.Load(snapshotPath); err != nil {
		log.Warn(fmt.Sprintf("⚠️  Would not archive: %v", err))
	} else {
		log.Info(fmt.Sprintf("📝 Would archive %s", snapshotPath))
	}

	excess, err := arch.Excess()
	if err != nil {
		log.Error(fmt.Sprintf("❌ Cannot inspect archive: %v", err))

		return
	}

	if len(excess) == 0 {
		log.Info("📝 Retention: nothing to prune")

		return
	}

	log.Info(fmt.Sprintf("📝 Retention would remove %d snapshots:", len(excess)))

	for i := len(excess) - 1; i >= 0; i-- {
		log.Info(fmt.Sprintf("  - %s", excess[i].Path))
	}
}

// loadConfig resolves the configuration: an explicit path must load, a
// missing explicit path is an error, and without one the default file
// is used when present, built-in defaults otherwise.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	if path == "" {
		return config.DefaultConfig(), nil
	}

	fmt.Fprintf(os.Stderr, "⚙️  Loading configuration from: %s\n", path)

	return config.LoadConfig(path)
}

// resolve joins a relative path onto the data root. Absolute paths and
// an empty root pass through unchanged.
func resolve(root, path string) string {
	if root == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(root, path)
}

func printUsage() {
	fmt.Println("Usage: runner [options]")
	fmt.Println()
	fmt.Println("Runs the news pipeline steps, archives the snapshot, prunes the")
	fmt.Println("archive to the retention window, and prints the run summary.")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  runner -config configs/pipeline.yaml")
	fmt.Println("  runner -data-root /srv/news -skip-steps")
	fmt.Println("  runner -dry-run")
}
