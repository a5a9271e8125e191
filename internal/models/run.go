package models

import "time"

// StepState describes the outcome of a single pipeline step.
type StepState string

// Step outcomes.
const (
	StepOK      StepState = "ok"
	StepFailed  StepState = "failed"
	StepTimeout StepState = "timeout"
	StepSkipped StepState = "skipped"
	StepNotRun  StepState = "not_run"
)

// StepResult records what happened to one pipeline step.
type StepResult struct {
	Name       string    `json:"name"`
	Command    string    `json:"command"`
	State      StepState `json:"state"`
	ExitCode   int       `json:"exit_code"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Failed reports whether the step counts as a failure for the run.
func (r StepResult) Failed() bool {
	return r.State == StepFailed || r.State == StepTimeout
}

// RunReport aggregates everything a single run did. When report
// writing is enabled it is persisted as last-run.json under the
// archive root.
type RunReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Steps      []StepResult   `json:"steps"`
	Archive    *ArchiveResult `json:"archive,omitempty"`
	Prune      *PruneResult   `json:"prune,omitempty"`
	Summary    *Summary       `json:"summary,omitempty"`
	Failures   int            `json:"failures"`
}
