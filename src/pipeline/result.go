package pipeline

import "time"

// Step statuses.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped" // not reached because an earlier step failed
)

// RunResult captures the outcome of a full pipeline execution.
type RunResult struct {
	Steps    []StepResult
	Duration time.Duration
}

// StepResult captures the outcome of a single step.
type StepResult struct {
	ID       string
	Executor string
	Status   string
	ExitCode int // meaningful only when Status is "failed"
	Duration time.Duration
	Error    error
}

// Failed returns the result of the failing step, or nil when all ran clean.
func (r *RunResult) Failed() *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Status == StatusFailed {
			return &r.Steps[i]
		}
	}
	return nil
}
