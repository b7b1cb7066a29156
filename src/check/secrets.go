package check

import (
	"context"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/pierworks/stevedore/src/spec"
)

func init() {
	Register("secrets", func() Module { return &secretsModule{} })
}

// secretsModule scans resolved step args and env values with the gitleaks
// detector. Credentials belong in the executor's credential helpers, not
// inlined into the document where they end up in build logs.
type secretsModule struct {
	detector *detect.Detector
}

func (m *secretsModule) Name() string { return "secrets" }

func (m *secretsModule) Check(ctx context.Context, p *spec.Pipeline) ([]Finding, error) {
	// Lazy-init the detector (each engine run gets its own module instance)
	if m.detector == nil {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return nil, err
		}
		m.detector = d
	}

	var findings []Finding
	for _, s := range p.Steps {
		findings = append(findings, m.scan(s.ID, "args", strings.Join(s.Args, " "))...)
		findings = append(findings, m.scan(s.ID, "env", strings.Join(s.Env, "\n"))...)
	}
	findings = append(findings, m.scan("", "options.env", strings.Join(p.Options.Env, "\n"))...)
	return findings, nil
}

func (m *secretsModule) scan(stepID, field, text string) []Finding {
	if text == "" {
		return nil
	}

	hits := m.detector.DetectString(text)
	if len(hits) == 0 {
		return nil
	}

	findings := make([]Finding, 0, len(hits))
	for _, h := range hits {
		findings = append(findings, Finding{
			Step:     stepID,
			Module:   m.Name(),
			Severity: SeverityCritical,
			Message:  h.Description + " in " + field + " (" + h.RuleID + ")",
		})
	}
	return findings
}
