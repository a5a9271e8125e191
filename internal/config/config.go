// Package config provides configuration management for the pipeline runner.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Failure policies for pipeline.on_failure.
const (
	PolicyContinue = "continue"
	PolicyAbort    = "abort"
)

// Configuration validation errors.
var (
	ErrNoSteps             = errors.New("at least one step is required")
	ErrNoEnabledSteps      = errors.New("at least one step must be enabled")
	ErrStepMissingName     = errors.New("step name is required")
	ErrStepMissingCommand  = errors.New("step command is required")
	ErrDuplicateStepName   = errors.New("step names must be unique")
	ErrInvalidStepTimeout  = errors.New("step timeout_sec must be non-negative")
	ErrInvalidPolicy       = errors.New("pipeline.on_failure must be 'continue' or 'abort'")
	ErrMissingSnapshotPath = errors.New("paths.snapshot is required")
	ErrMissingProcessedDir = errors.New("paths.processed_dir is required")
	ErrMissingReportsDir   = errors.New("paths.reports_dir is required")
	ErrMissingArchiveRoot  = errors.New("paths.archive_root is required")
	ErrInvalidMaxEntries   = errors.New("retention.max_entries must be at least 1")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete pipeline configuration.
type Config struct {
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Paths     PathsConfig     `yaml:"paths"`
	Retention RetentionConfig `yaml:"retention"`
	Report    ReportConfig    `yaml:"report"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PipelineConfig defines the steps to run and the failure policy.
type PipelineConfig struct {
	OnFailure string       `yaml:"on_failure"`
	Steps     []StepConfig `yaml:"steps"`
}

// StepConfig represents one external command in the pipeline.
type StepConfig struct {
	Name       string   `yaml:"name"`
	Command    string   `yaml:"command"`
	Args       []string `yaml:"args"`
	Enabled    bool     `yaml:"enabled"`
	TimeoutSec int      `yaml:"timeout_sec"`
}

// Timeout returns the step timeout. Zero means wait indefinitely.
func (s *StepConfig) Timeout() time.Duration {
	if s.TimeoutSec <= 0 {
		return 0
	}

	return time.Duration(s.TimeoutSec) * time.Second
}

// CommandLine returns the command with its arguments as one string.
func (s *StepConfig) CommandLine() string {
	if len(s.Args) == 0 {
		return s.Command
	}

	return s.Command + " " + strings.Join(s.Args, " ")
}

// PathsConfig locates the files and directories the pipeline works on.
type PathsConfig struct {
	Snapshot     string `yaml:"snapshot"`
	ProcessedDir string `yaml:"processed_dir"`
	ReportsDir   string `yaml:"reports_dir"`
	ArchiveRoot  string `yaml:"archive_root"`
}

// RetentionConfig bounds how many archived snapshots are kept.
type RetentionConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

// ReportConfig controls the machine-readable run report.
type ReportConfig struct {
	WriteJSON bool `yaml:"write_json"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration the pipeline shipped with:
// three python steps, a 30 entry archive window, and diagnostics at
// info level.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			OnFailure: PolicyContinue,
			Steps: []StepConfig{
				{Name: "fetch-news", Command: "python3", Args: []string{"scripts/fetch-news.py"}, Enabled: true},
				{Name: "process-data", Command: "python3", Args: []string{"scripts/process-data.py"}, Enabled: true},
				{Name: "generate-reports", Command: "python3", Args: []string{"scripts/generate-reports.py"}, Enabled: true},
			},
		},
		Paths: PathsConfig{
			Snapshot:     "api/news.json",
			ProcessedDir: "api/processed",
			ReportsDir:   "reports",
			ArchiveRoot:  "api/archive",
		},
		Retention: RetentionConfig{MaxEntries: 30},
		Report:    ReportConfig{WriteJSON: false},
		Logging:   LoggingConfig{Level: "info"},
	}
}

// LoadConfig loads configuration from YAML file.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Check pipeline config
	if len(c.Pipeline.Steps) == 0 {
		return ErrNoSteps
	}

	if c.Pipeline.OnFailure != PolicyContinue && c.Pipeline.OnFailure != PolicyAbort {
		return ErrInvalidPolicy
	}

	enabledCount := 0
	seen := make(map[string]bool)

	for i, step := range c.Pipeline.Steps {
		if step.Name == "" {
			return fmt.Errorf("%w: step[%d]", ErrStepMissingName, i)
		}

		if step.Command == "" {
			return fmt.Errorf("%w: step[%d] %s", ErrStepMissingCommand, i, step.Name)
		}

		if seen[step.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateStepName, step.Name)
		}
		seen[step.Name] = true

		if step.TimeoutSec < 0 {
			return fmt.Errorf("%w: step[%d] %s", ErrInvalidStepTimeout, i, step.Name)
		}

		if step.Enabled {
			enabledCount++
		}
	}

	if enabledCount == 0 {
		return ErrNoEnabledSteps
	}

	// Validate paths
	if c.Paths.Snapshot == "" {
		return ErrMissingSnapshotPath
	}

	if c.Paths.ProcessedDir == "" {
		return ErrMissingProcessedDir
	}

	if c.Paths.ReportsDir == "" {
		return ErrMissingReportsDir
	}

	if c.Paths.ArchiveRoot == "" {
		return ErrMissingArchiveRoot
	}

	// Validate retention
	if c.Retention.MaxEntries < 1 {
		return ErrInvalidMaxEntries
	}

	// Validate logging config
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// EnabledSteps returns only enabled steps, in configuration order.
func (c *Config) EnabledSteps() []StepConfig {
	var enabled []StepConfig

	for _, step := range c.Pipeline.Steps {
		if step.Enabled {
			enabled = append(enabled, step)
		}
	}

	return enabled
}

// AbortOnFailure reports whether a failed step stops the pipeline.
func (c *Config) AbortOnFailure() bool {
	return c.Pipeline.OnFailure == PolicyAbort
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Steps: %d, OnFailure: %s, ArchiveRoot: %s}",
		len(c.Pipeline.Steps),
		c.Pipeline.OnFailure,
		c.Paths.ArchiveRoot,
	)
}
