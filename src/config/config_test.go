package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Document != "pipeline.yml" {
		t.Errorf("Document = %q", cfg.Document)
	}
	if cfg.StateDir != ".stevedore" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
	if !cfg.Check.Enabled {
		t.Error("checks should default on")
	}
	if !cfg.Publish.Enabled || cfg.Publish.Parallel != 4 {
		t.Errorf("Publish = %+v", cfg.Publish)
	}
	if cfg.Scan.Enabled {
		t.Error("scan should default off")
	}
	if cfg.Badge.Label != "build" || cfg.Badge.FontSize != 11 {
		t.Errorf("Badge = %+v", cfg.Badge)
	}
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	doc := `project: demo
document: ci/pipeline.yml
substitutions:
  _REGION: eu-west-1
check:
  skip: [secrets]
publish:
  parallel: 8
badge:
  enabled: true
  label: ci
`
	path := filepath.Join(t.TempDir(), ".stevedore.yml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Project != "demo" || cfg.Document != "ci/pipeline.yml" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Substitutions["_REGION"] != "eu-west-1" {
		t.Errorf("Substitutions = %v", cfg.Substitutions)
	}
	if len(cfg.Check.Skip) != 1 || cfg.Check.Skip[0] != "secrets" {
		t.Errorf("Check.Skip = %v", cfg.Check.Skip)
	}
	if cfg.Publish.Parallel != 8 {
		t.Errorf("Parallel = %d", cfg.Publish.Parallel)
	}
	// Untouched fields keep their defaults.
	if cfg.StateDir != ".stevedore" {
		t.Errorf("StateDir = %q", cfg.StateDir)
	}
	if !cfg.Badge.Enabled || cfg.Badge.Label != "ci" || cfg.Badge.Output != ".stevedore/status.svg" {
		t.Errorf("Badge = %+v", cfg.Badge)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".stevedore.yml")
	if err := os.WriteFile(path, []byte("project: [\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config")
	}
}
