// Package scan runs an optional vulnerability gate over built images by
// orchestrating an external trivy binary. It sits between step execution
// and artifact publishing; critical findings block the publish.
package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Config holds the gate's settings.
type Config struct {
	Enabled        bool
	FailOnCritical bool   // block publishing when critical vulns found
	OutputDir      string // directory for the raw report, "" = skip writing
}

// Result holds the outcome for one image.
type Result struct {
	Image    string
	Critical int
	High     int
	Medium   int
	Low      int
	Status   string // "passed", "warning", "critical", "skipped"
	Report   string // path to the JSON report when written
}

// Image scans a single image reference in the daemon.
func Image(ctx context.Context, cfg Config, image string) (*Result, error) {
	if !cfg.Enabled {
		return &Result{Image: image, Status: "skipped"}, nil
	}

	if _, err := exec.LookPath("trivy"); err != nil {
		return nil, fmt.Errorf("scan enabled but trivy not found in PATH")
	}

	args := []string{"image", "--quiet", "--format", "json", image}
	cmd := exec.CommandContext(ctx, "trivy", args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("trivy image %s: %w", image, err)
	}

	res := &Result{Image: image}
	if err := tallyReport(out, res); err != nil {
		return nil, fmt.Errorf("parsing trivy report for %s: %w", image, err)
	}

	switch {
	case res.Critical > 0:
		res.Status = "critical"
	case res.High > 0:
		res.Status = "warning"
	default:
		res.Status = "passed"
	}

	if cfg.OutputDir != "" {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err == nil {
			path := filepath.Join(cfg.OutputDir, reportName(image))
			if writeErr := os.WriteFile(path, out, 0o644); writeErr == nil {
				res.Report = path
			}
		}
	}

	return res, nil
}

// Blocks reports whether this result should stop publishing under cfg.
func (r *Result) Blocks(cfg Config) bool {
	return cfg.FailOnCritical && r.Status == "critical"
}

// tallyReport counts vulnerabilities per severity from trivy JSON output.
func tallyReport(data []byte, res *Result) error {
	var report struct {
		Results []struct {
			Vulnerabilities []struct {
				Severity string `json:"Severity"`
			} `json:"Vulnerabilities"`
		} `json:"Results"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return err
	}

	for _, r := range report.Results {
		for _, v := range r.Vulnerabilities {
			switch v.Severity {
			case "CRITICAL":
				res.Critical++
			case "HIGH":
				res.High++
			case "MEDIUM":
				res.Medium++
			case "LOW":
				res.Low++
			}
		}
	}
	return nil
}

// reportName flattens an image ref into a filename.
func reportName(image string) string {
	name := make([]rune, 0, len(image))
	for _, r := range image {
		switch r {
		case '/', ':':
			name = append(name, '_')
		default:
			name = append(name, r)
		}
	}
	return "scan-" + string(name) + ".json"
}
