// Package pipeline executes the configured external steps in order,
// applying the failure policy and recording an outcome for each step.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"

	"econpipe/internal/config"
	"econpipe/internal/logger"
	"econpipe/internal/models"
)

// Runner executes pipeline steps sequentially. Child process output
// passes through to the runner's stdout and stderr unchanged, the way
// it did when the steps were invoked from a shell script.
type Runner struct {
	steps   []config.StepConfig
	abort   bool
	runID   string
	dir     string
	console io.Writer
	stdout  io.Writer
	stderr  io.Writer
	log     *logger.Logger
}

// New creates a runner for the configured steps. Progress lines go to
// stderr so stdout stays reserved for the summary.
func New(cfg *config.Config, log *logger.Logger) *Runner {
	return &Runner{
		steps:   cfg.Pipeline.Steps,
		abort:   cfg.AbortOnFailure(),
		runID:   uuid.NewString(),
		console: os.Stderr,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		log:     log,
	}
}

// WithDir sets the working directory for every step.
func (r *Runner) WithDir(dir string) *Runner {
	r.dir = dir
	return r
}

// WithConsole redirects the runner's own progress lines.
func (r *Runner) WithConsole(w io.Writer) *Runner {
	r.console = w
	return r
}

// WithChildOutput redirects the step processes' stdout and stderr.
func (r *Runner) WithChildOutput(stdout, stderr io.Writer) *Runner {
	r.stdout = stdout
	r.stderr = stderr

	return r
}

// RunID identifies this runner invocation in logs and reports.
func (r *Runner) RunID() string {
	return r.runID
}

// Run executes all steps in configuration order. Disabled steps are
// recorded as skipped. Under the abort policy, steps after the first
// failure are recorded as not run. The same happens for every policy
// once ctx is canceled.
func (r *Runner) Run(ctx context.Context) []models.StepResult {
	results := make([]models.StepResult, 0, len(r.steps))
	halted := false

	for _, step := range r.steps {
		if halted || ctx.Err() != nil {
			fmt.Fprintf(r.console, "⚠️  %s not run\n", step.Name)
			results = append(results, models.StepResult{
				Name:    step.Name,
				Command: step.CommandLine(),
				State:   models.StepNotRun,
			})

			continue
		}

		if !step.Enabled {
			fmt.Fprintf(r.console, "⚠️  %s disabled, skipping\n", step.Name)
			results = append(results, models.StepResult{
				Name:    step.Name,
				Command: step.CommandLine(),
				State:   models.StepSkipped,
			})

			continue
		}

		result := r.runStep(ctx, step)
		results = append(results, result)

		if result.Failed() && r.abort {
			r.log.Warn("aborting pipeline", "run_id", r.runID, "failed_step", step.Name)

			halted = true
		}
	}

	return results
}

func (r *Runner) runStep(ctx context.Context, step config.StepConfig) models.StepResult {
	result := models.StepResult{
		Name:    step.Name,
		Command: step.CommandLine(),
		State:   models.StepOK,
	}

	fmt.Fprintf(r.console, "⚙️  Running step: %s\n", step.Name)
	r.log.Info("step started", "run_id", r.runID, "step", step.Name, "command", result.Command)

	stepCtx := ctx

	if timeout := step.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(stepCtx, step.Command, step.Args...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr
	cmd.Dir = r.dir

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)
	result.DurationMS = elapsed.Milliseconds()

	if err != nil {
		result.ExitCode = -1

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		}

		if errors.Is(stepCtx.Err(), context.DeadlineExceeded) {
			result.State = models.StepTimeout
			result.Error = fmt.Sprintf("timed out after %v", step.Timeout())

			fmt.Fprintf(r.console, "❌ %s timed out after %v\n", step.Name, step.Timeout())
			r.log.Error("step timed out", "run_id", r.runID, "step", step.Name, "timeout", step.Timeout())

			return result
		}

		result.State = models.StepFailed
		result.Error = err.Error()

		fmt.Fprintf(r.console, "❌ %s failed (exit %d)\n", step.Name, result.ExitCode)
		r.log.Error("step failed", "run_id", r.runID, "step", step.Name, "exit_code", result.ExitCode, "error", err.Error())

		return result
	}

	fmt.Fprintf(r.console, "✅ %s completed in %v\n", step.Name, elapsed.Round(time.Millisecond))
	r.log.Info("step finished", "run_id", r.runID, "step", step.Name, "duration_ms", result.DurationMS)

	return result
}

// Failures counts the steps that failed or timed out.
func Failures(results []models.StepResult) int {
	count := 0

	for _, result := range results {
		if result.Failed() {
			count++
		}
	}

	return count
}
