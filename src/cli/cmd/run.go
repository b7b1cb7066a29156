package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pierworks/stevedore/src/artifact"
	"github.com/pierworks/stevedore/src/badge"
	"github.com/pierworks/stevedore/src/check"
	"github.com/pierworks/stevedore/src/output"
	"github.com/pierworks/stevedore/src/pipeline"
	"github.com/pierworks/stevedore/src/scan"
	"github.com/pierworks/stevedore/src/spec"
	"github.com/pierworks/stevedore/src/version"
)

var (
	runFile       string
	runSubs       []string
	runSkipChecks bool
	runDryRun     bool
	runNoPublish  bool
)

var runCmd = &cobra.Command{
	Use:   "run [workspace]",
	Short: "Execute a pipeline document",
	Long: `Execute a declarative pipeline document.

Loads the document, resolves substitution variables, runs the pre-run
checks, executes each step in order, and publishes the declared image
artifacts. The first failing step halts the run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runFile, "file", "f", "", "pipeline document (default from config)")
	runCmd.Flags().StringArrayVar(&runSubs, "substitution", nil, "set a substitution variable (_KEY=VALUE, repeatable)")
	runCmd.Flags().BoolVar(&runSkipChecks, "skip-checks", false, "skip the pre-run check gate")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "resolve and show the plan without executing")
	runCmd.Flags().BoolVar(&runNoPublish, "no-publish", false, "verify artifacts but push nothing")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	workspace, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	if len(args) > 0 {
		workspace = args[0]
	}

	docPath := runFile
	if docPath == "" {
		docPath = cfg.Document
	}

	ctx := context.Background()
	ci := output.IsCI()
	color := output.UseColor()
	w := os.Stdout
	pipelineStart := time.Now()

	// --- Load and resolve ---
	resolved, builtins, err := loadAndResolve(docPath, workspace, runSubs)
	if err != nil {
		return err
	}
	buildID := builtins["BUILD_ID"]

	output.Header(w, version.Version, buildID, docPath, color)
	output.ContextBlock(w, runContextKV(resolved, builtins))

	// --- Pre-run checks ---
	var checkSummary string
	if cfg.Check.Enabled && !runSkipChecks {
		output.SectionStart(w, "sv_check", "Check")
		var checkErr error
		checkSummary, checkErr = runCheckGate(ctx, resolved, color, w)
		output.SectionEnd(w, "sv_check")
		if checkErr != nil {
			return checkErr
		}
	} else {
		checkSummary = "skipped"
	}

	// --- Dry run ---
	if runDryRun {
		printPlan(w, resolved)
		return nil
	}

	// --- Execute ---
	output.SectionStart(w, "sv_steps", "Steps")
	sink, err := output.NewSink(resolved.Options.Logging, filepath.Join(stateDir(workspace), "logs"), buildID, w)
	if err != nil {
		output.SectionEnd(w, "sv_steps")
		return err
	}
	defer sink.Close()

	runner := pipeline.NewRunner(workspace)
	runner.Verbose = verbose
	runner.StepSink = func(step spec.Step, index int) io.Writer {
		return &output.PrefixWriter{W: sink, Prefix: "    " + step.ID + " │ "}
	}
	runner.OnStepStart = func(step spec.Step, index, total int) {
		output.StepLine(w, index, total, step.ID, step.Name, color)
	}
	runner.OnStepDone = func(res pipeline.StepResult, index, total int) {
		output.StepStatus(w, res.ID, res.Status, res.Duration, color)
	}

	result, runErr := runner.Run(ctx, resolved)
	output.SectionEnd(w, "sv_steps")

	stepsSummary := fmt.Sprintf("%d step(s)", len(result.Steps))
	if failed := result.Failed(); failed != nil {
		stepsSummary = fmt.Sprintf("failed at %q (exit %d)", failed.ID, failed.ExitCode)
	}

	if ci {
		writeRunReport(workspace, result, time.Since(pipelineStart))
	}

	if runErr != nil {
		renderStepSection(w, result, color)
		if cfg.Badge.Enabled {
			writeStatusBadge(workspace, "failed")
		}
		renderSummary(w, color, time.Since(pipelineStart), "failed", [][3]string{
			{"check", checkStatus(checkSummary), checkSummary},
			{"steps", "failed", stepsSummary},
		})
		return runErr
	}

	renderStepSection(w, result, color)

	// --- Scan ---
	var scanSummary string
	if cfg.Scan.Enabled && len(resolved.Images) > 0 {
		var scanErr error
		scanSummary, scanErr = runScanGate(ctx, workspace, resolved.Images, color, w)
		if scanErr != nil {
			return scanErr
		}
	}

	// --- Publish ---
	var publishSummary string
	if len(resolved.Images) > 0 {
		output.SectionStart(w, "sv_publish", "Publish")

		pub := &artifact.Publisher{
			Client:   &artifact.Daemon{Verbose: verbose, Stderr: os.Stderr},
			Parallel: cfg.Publish.Parallel,
			DryRun:   runNoPublish || !cfg.Publish.Enabled,
		}
		pubResult, pubErr := pub.Publish(ctx, resolved.Images)
		if pubErr != nil {
			output.SectionEnd(w, "sv_publish")
			return pubErr
		}

		pubSec := output.NewSection(w, "Publish", pubResult.Duration, color)
		if pub.DryRun {
			for _, img := range resolved.Images {
				pubSec.Row("%-50s %s", img, output.Dimmed("verified", color))
			}
			publishSummary = fmt.Sprintf("%d verified, push skipped", len(resolved.Images))
		} else {
			for _, img := range pubResult.Published {
				pubSec.Row("%-50s %s", img, output.StatusIcon("success", color))
			}
			publishSummary = fmt.Sprintf("%d artifact(s) pushed", len(pubResult.Published))
		}
		pubSec.Close()
		output.SectionEnd(w, "sv_publish")
	}

	// --- Badge ---
	if cfg.Badge.Enabled {
		writeStatusBadge(workspace, "success")
	}

	// --- Summary ---
	rows := [][3]string{
		{"check", checkStatus(checkSummary), checkSummary},
		{"steps", "success", stepsSummary},
	}
	if scanSummary != "" {
		rows = append(rows, [3]string{"scan", "success", scanSummary})
	}
	if publishSummary != "" {
		rows = append(rows, [3]string{"publish", "success", publishSummary})
	}
	renderSummary(w, color, time.Since(pipelineStart), "success", rows)

	// --- Artifact References ---
	if len(resolved.Images) > 0 {
		fmt.Fprintf(w, "\n    Artifact References\n")
		for _, img := range resolved.Images {
			fmt.Fprintf(w, "    → %s\n", img)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// runCheckGate evaluates the pre-run checks with section-formatted output.
func runCheckGate(ctx context.Context, p *spec.Pipeline, color bool, w io.Writer) (string, error) {
	engine, err := check.NewEngine(cfg.Check.Skip)
	if err != nil {
		return "", err
	}

	start := time.Now()
	findings, err := engine.Run(ctx, p)
	if err != nil {
		return "", err
	}
	elapsed := time.Since(start)

	critical, warning, info := check.Tally(findings)

	sec := output.NewSection(w, "Check", elapsed, color)
	for _, f := range findings {
		loc := f.Step
		if loc == "" {
			loc = "document"
		}
		sec.Row("  %-18s %-8s %-10s %s", loc, f.Severity, f.Module, f.Message)
	}
	if len(findings) > 0 {
		sec.Separator()
	}
	sec.Row("%d finding(s): %d critical, %d warning, %d info", len(findings), critical, warning, info)
	sec.Close()

	if critical > 0 {
		return "", fmt.Errorf("checks failed: %d critical finding(s)", critical)
	}

	summary := fmt.Sprintf("%d module(s), 0 critical", len(engine.Modules))
	if warning > 0 {
		summary = fmt.Sprintf("%d module(s), %d warning(s)", len(engine.Modules), warning)
	}
	return summary, nil
}

// runScanGate scans each declared image with section-formatted output.
func runScanGate(ctx context.Context, workspace string, images []string, color bool, w io.Writer) (string, error) {
	output.SectionStartCollapsed(w, "sv_scan", "Scan")
	start := time.Now()

	scanCfg := scan.Config{
		Enabled:        true,
		FailOnCritical: cfg.Scan.FailOnCritical,
		OutputDir:      filepath.Join(stateDir(workspace), "reports"),
	}

	var results []*scan.Result
	for _, img := range images {
		res, err := scan.Image(ctx, scanCfg, img)
		if err != nil {
			output.SectionEnd(w, "sv_scan")
			return "", err
		}
		results = append(results, res)
	}
	elapsed := time.Since(start)

	sec := output.NewSection(w, "Scan", elapsed, color)
	var blocked int
	for _, res := range results {
		detail := fmt.Sprintf("%d critical, %d high, %d medium, %d low",
			res.Critical, res.High, res.Medium, res.Low)
		sec.Row("%-40s %s", res.Image, detail)
		if res.Blocks(scanCfg) {
			blocked++
		}
	}
	sec.Close()
	output.SectionEnd(w, "sv_scan")

	if blocked > 0 {
		return "", fmt.Errorf("scan failed: %d image(s) with critical vulnerabilities", blocked)
	}
	return fmt.Sprintf("%d image(s) scanned", len(results)), nil
}

// renderStepSection renders the per-step result table.
func renderStepSection(w io.Writer, result *pipeline.RunResult, color bool) {
	sec := output.NewSection(w, "Steps", result.Duration, color)
	for _, sr := range result.Steps {
		detail := output.Dimmed(sr.Duration.Round(time.Millisecond).String(), color)
		if sr.Status == pipeline.StatusFailed {
			detail = fmt.Sprintf("exit %d", sr.ExitCode)
		} else if sr.Status == pipeline.StatusSkipped {
			detail = output.Dimmed("not reached", color)
		}
		sec.Row("%s %-24s %s", output.StatusIcon(sr.Status, color), sr.ID, detail)
	}
	sec.Close()
}

// renderSummary writes the closing summary section.
func renderSummary(w io.Writer, color bool, elapsed time.Duration, overall string, rows [][3]string) {
	sec := output.NewSection(w, "Summary", 0, color)
	for _, row := range rows {
		sec.Status(row[0], row[1], row[2])
	}
	sec.Separator()
	sec.Total(elapsed, overall)
	sec.Close()
}

// stateDir resolves the configured state dir against the run's workspace,
// so logs, reports, and the badge share one root when a workspace argument
// is given.
func stateDir(workspace string) string {
	if filepath.IsAbs(cfg.StateDir) {
		return cfg.StateDir
	}
	return filepath.Join(workspace, cfg.StateDir)
}

// writeRunReport writes the JUnit step report for CI test rendering.
func writeRunReport(workspace string, result *pipeline.RunResult, elapsed time.Duration) {
	steps := make([]output.JUnitStep, 0, len(result.Steps))
	for _, sr := range result.Steps {
		detail := ""
		if sr.Status == pipeline.StatusFailed {
			detail = fmt.Sprintf("exit status %d", sr.ExitCode)
		}
		steps = append(steps, output.JUnitStep{
			ID:      sr.ID,
			Status:  sr.Status,
			Elapsed: sr.Duration,
			Detail:  detail,
		})
	}
	dir := filepath.Join(stateDir(workspace), "reports")
	if err := output.WriteRunJUnit(dir, steps, elapsed); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to write junit report: %v\n", err)
	}
}

// writeStatusBadge generates the post-run status badge; failures are
// non-fatal.
func writeStatusBadge(workspace, status string) {
	eng, err := badgeEngine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: badge: %v\n", err)
		return
	}

	svg := eng.Generate(badge.Badge{
		Label: cfg.Badge.Label,
		Value: badge.StatusValue(status),
		Color: badge.StatusColor(status),
	})

	out := cfg.Badge.Output
	if !filepath.IsAbs(out) {
		out = filepath.Join(workspace, out)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return
	}
	os.WriteFile(out, []byte(svg), 0o644)
}

// badgeEngine builds the engine from config: measured metrics with a font
// file, approximation otherwise.
func badgeEngine() (*badge.Engine, error) {
	size := cfg.Badge.FontSize
	if size == 0 {
		size = 11
	}
	if cfg.Badge.FontFile != "" {
		name := strings.TrimSuffix(filepath.Base(cfg.Badge.FontFile), filepath.Ext(cfg.Badge.FontFile))
		metrics, err := badge.LoadFontFile(name, cfg.Badge.FontFile, size)
		if err != nil {
			return nil, err
		}
		return badge.New(metrics), nil
	}
	return badge.New(badge.ApproxMetrics{Size: size}), nil
}

// printPlan renders the dry-run plan.
func printPlan(w io.Writer, p *spec.Pipeline) {
	for _, step := range p.Steps {
		fmt.Fprintf(w, "step: %s\n", step.ID)
		fmt.Fprintf(w, "  executor: %s\n", step.Name)
		if step.Entrypoint != "" {
			fmt.Fprintf(w, "  entrypoint: %s\n", step.Entrypoint)
		}
		fmt.Fprintf(w, "  args:     %v\n", step.Args)
		if len(step.Env) > 0 {
			fmt.Fprintf(w, "  env:      %v\n", step.Env)
		}
		if step.Dir != "" {
			fmt.Fprintf(w, "  dir:      %s\n", step.Dir)
		}
		if step.Timeout != "" {
			fmt.Fprintf(w, "  timeout:  %s\n", step.Timeout)
		}
	}
	for _, img := range p.Images {
		fmt.Fprintf(w, "image: %s\n", img)
	}
}

// runContextKV returns key-value pairs for the run context block.
func runContextKV(p *spec.Pipeline, builtins map[string]string) []output.KV {
	var kv []output.KV

	if proj := builtins["PROJECT_ID"]; proj != "" {
		kv = append(kv, output.KV{Key: "Project", Value: proj})
	}
	if sha := builtins["SHORT_SHA"]; sha != "" {
		kv = append(kv, output.KV{Key: "Commit", Value: sha})
	}
	if branch := builtins["BRANCH_NAME"]; branch != "" {
		kv = append(kv, output.KV{Key: "Branch", Value: branch})
	} else if tag := builtins["TAG_NAME"]; tag != "" {
		kv = append(kv, output.KV{Key: "Tag", Value: tag})
	}
	kv = append(kv, output.KV{Key: "Steps", Value: fmt.Sprintf("%d", len(p.Steps))})
	if len(p.Images) > 0 {
		kv = append(kv, output.KV{Key: "Artifacts", Value: fmt.Sprintf("%d", len(p.Images))})
	}
	if p.Options.Logging != "" {
		kv = append(kv, output.KV{Key: "Logging", Value: p.Options.Logging})
	}

	return kv
}

func checkStatus(summary string) string {
	if summary == "skipped" {
		return "skipped"
	}
	return "success"
}
