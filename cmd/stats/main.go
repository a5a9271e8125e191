// Package main provides the stats command. It prints the pipeline
// health counts without running any steps or touching the archive.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"econpipe/internal/archive"
	"econpipe/internal/config"
	"econpipe/internal/logger"
	"econpipe/internal/stats"
	"econpipe/pkg/clock"
)

func main() {
	configFile := flag.String("config", "", "Path to YAML configuration file")
	dataRoot := flag.String("data-root", "", "Directory the pipeline operates in (default: current directory)")
	asJSON := flag.Bool("json", false, "Print the summary as JSON instead of the table")

	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level)
	clk := clock.System{}

	arch := archive.New(resolve(*dataRoot, cfg.Paths.ArchiveRoot), cfg.Retention.MaxEntries, clk, log)

	collector := stats.NewCollector(
		resolve(*dataRoot, cfg.Paths.Snapshot),
		resolve(*dataRoot, cfg.Paths.ProcessedDir),
		resolve(*dataRoot, cfg.Paths.ReportsDir),
		arch, clk, log,
	)

	summary, err := collector.Collect()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Stats collection failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ Cannot encode summary: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(string(data))

		return
	}

	fmt.Print(stats.RenderSummary(summary))
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
