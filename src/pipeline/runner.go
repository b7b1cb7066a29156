// Package pipeline executes a resolved document's steps, strictly in
// declared order. Each step blocks until its executor exits; the first
// non-zero exit halts the run and marks every later step skipped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pierworks/stevedore/src/spec"
)

// StepError reports a step whose executor exited non-zero.
type StepError struct {
	ID       string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: exit status %d", e.ID, e.ExitCode)
}

func (e *StepError) Unwrap() error { return e.Err }

// Runner executes pipeline steps against local executors.
type Runner struct {
	// Workspace is the directory steps run in; step dir is relative to it.
	Workspace string

	// BaseEnv is the ambient environment. Defaults to os.Environ().
	BaseEnv []string

	// Sink receives step stdout and stderr as produced. Defaults to
	// os.Stdout.
	Sink io.Writer

	// StepSink, when set, supplies a per-step writer instead of Sink
	// (used to prefix interleaved output with the step id).
	StepSink func(step spec.Step, index int) io.Writer

	// OnStepStart and OnStepDone observe progress for rendering. Either
	// may be nil.
	OnStepStart func(step spec.Step, index, total int)
	OnStepDone  func(res StepResult, index, total int)

	Verbose bool
	Diag    io.Writer // verbose exec traces, defaults to os.Stderr
}

// NewRunner creates a runner for the given workspace.
func NewRunner(workspace string) *Runner {
	return &Runner{
		Workspace: workspace,
		BaseEnv:   os.Environ(),
		Sink:      os.Stdout,
		Diag:      os.Stderr,
	}
}

// Run executes every step in order. On step failure the returned error is a
// *StepError and the result still carries one entry per declared step, the
// unreached ones marked skipped. The pipeline timeout, when set in the
// document, bounds the whole run.
func (r *Runner) Run(ctx context.Context, p *spec.Pipeline) (*RunResult, error) {
	if timeout := p.PipelineTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	result := &RunResult{Steps: make([]StepResult, 0, len(p.Steps))}

	var failed *StepError
	for i, step := range p.Steps {
		if failed != nil {
			result.Steps = append(result.Steps, StepResult{
				ID:       step.ID,
				Executor: step.Name,
				Status:   StatusSkipped,
			})
			continue
		}

		if r.OnStepStart != nil {
			r.OnStepStart(step, i, len(p.Steps))
		}

		res := r.runStep(ctx, p, step, i)
		result.Steps = append(result.Steps, res)

		if r.OnStepDone != nil {
			r.OnStepDone(res, i, len(p.Steps))
		}

		if res.Status == StatusFailed {
			failed = &StepError{ID: step.ID, ExitCode: res.ExitCode, Err: res.Error}
		}
	}

	result.Duration = time.Since(start)
	if failed != nil {
		return result, failed
	}
	return result, nil
}

// runStep invokes one step's executor and waits for it.
func (r *Runner) runStep(ctx context.Context, p *spec.Pipeline, step spec.Step, index int) StepResult {
	start := time.Now()
	res := StepResult{
		ID:       step.ID,
		Executor: step.Name,
	}

	if timeout := step.StepTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	bin := step.Name
	if step.Entrypoint != "" {
		bin = step.Entrypoint
	}

	if r.Verbose {
		fmt.Fprintf(r.diag(), "exec: %s %s\n", bin, strings.Join(step.Args, " "))
	}

	cmd := exec.CommandContext(ctx, bin, step.Args...)
	cmd.Dir = r.stepDir(step)
	cmd.Env = mergeEnv(r.baseEnv(), p.Options.Env, step.Env)

	sink := r.Sink
	if r.StepSink != nil {
		sink = r.StepSink(step, index)
	}
	if sink == nil {
		sink = os.Stdout
	}
	cmd.Stdout = sink
	cmd.Stderr = sink

	err := cmd.Run()
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = StatusFailed
		res.ExitCode = exitCode(err)
		res.Error = err
		return res
	}

	res.Status = StatusSuccess
	return res
}

func (r *Runner) stepDir(step spec.Step) string {
	dir := r.Workspace
	if dir == "" {
		dir = "."
	}
	if step.Dir != "" {
		dir = filepath.Join(dir, step.Dir)
	}
	return dir
}

func (r *Runner) baseEnv() []string {
	if r.BaseEnv != nil {
		return r.BaseEnv
	}
	return os.Environ()
}

func (r *Runner) diag() io.Writer {
	if r.Diag != nil {
		return r.Diag
	}
	return os.Stderr
}

// mergeEnv layers KEY=VALUE lists left to right; later lists win.
func mergeEnv(layers ...[]string) []string {
	index := make(map[string]int)
	var merged []string
	for _, layer := range layers {
		for _, kv := range layer {
			key, _, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			if pos, seen := index[key]; seen {
				merged[pos] = kv
				continue
			}
			index[key] = len(merged)
			merged = append(merged, kv)
		}
	}
	return merged
}

// exitCode extracts the process exit status; -1 covers start failures and
// context cancellation.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}
