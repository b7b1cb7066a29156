package check

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pierworks/stevedore/src/artifact"
	"github.com/pierworks/stevedore/src/spec"
)

func init() {
	Register("document", func() Module { return &documentModule{} })
}

// documentModule enforces structural rules the loader can't: image refs
// must parse, env entries must be KEY=VALUE, step dirs must stay inside
// the workspace.
type documentModule struct{}

func (m *documentModule) Name() string { return "document" }

func (m *documentModule) Check(ctx context.Context, p *spec.Pipeline) ([]Finding, error) {
	var findings []Finding

	for _, img := range p.Images {
		if _, err := artifact.ParseRef(img); err != nil {
			findings = append(findings, Finding{
				Module:   m.Name(),
				Severity: SeverityCritical,
				Message:  err.Error(),
			})
		}
	}

	for _, s := range p.Steps {
		for _, kv := range s.Env {
			if !strings.Contains(kv, "=") {
				findings = append(findings, Finding{
					Step:     s.ID,
					Module:   m.Name(),
					Severity: SeverityCritical,
					Message:  "env entry " + strconv.Quote(kv) + " is not KEY=VALUE",
				})
			}
		}

		if s.Dir != "" {
			if filepath.IsAbs(s.Dir) || strings.HasPrefix(filepath.Clean(s.Dir), "..") {
				findings = append(findings, Finding{
					Step:     s.ID,
					Module:   m.Name(),
					Severity: SeverityCritical,
					Message:  "dir " + strconv.Quote(s.Dir) + " escapes the workspace",
				})
			}
		}

		if len(s.Args) == 0 {
			findings = append(findings, Finding{
				Step:     s.ID,
				Module:   m.Name(),
				Severity: SeverityInfo,
				Message:  "step has no args; executor runs bare",
			})
		}
	}

	return findings, nil
}
