package cmd

import (
	"path/filepath"
	"testing"

	"github.com/pierworks/stevedore/src/config"
)

func TestParseSubstFlags(t *testing.T) {
	vals, err := parseSubstFlags([]string{"_ENV=staging", "_REGION=eu-west-1", "_EMPTY="})
	if err != nil {
		t.Fatalf("parseSubstFlags: %v", err)
	}
	if vals["_ENV"] != "staging" || vals["_REGION"] != "eu-west-1" {
		t.Fatalf("vals = %v", vals)
	}
	if v, ok := vals["_EMPTY"]; !ok || v != "" {
		t.Fatalf("empty value should be allowed, vals = %v", vals)
	}

	for _, bad := range []string{"no-equals", "=value"} {
		if _, err := parseSubstFlags([]string{bad}); err == nil {
			t.Errorf("parseSubstFlags(%q): expected error", bad)
		}
	}
}

func TestStateDir_ResolvesAgainstWorkspace(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()

	cfg = &config.Config{StateDir: ".stevedore"}
	if got := stateDir("/other/ws"); got != filepath.Join("/other/ws", ".stevedore") {
		t.Errorf("stateDir = %q", got)
	}

	cfg = &config.Config{StateDir: "/var/lib/stevedore"}
	if got := stateDir("/other/ws"); got != "/var/lib/stevedore" {
		t.Errorf("absolute state dir should stay put, got %q", got)
	}
}

func TestUserValues_FlagsOverrideConfig(t *testing.T) {
	old := cfg
	defer func() { cfg = old }()
	cfg = &config.Config{Substitutions: map[string]string{"_ENV": "prod", "_REGION": "us-east-1"}}

	vals, err := userValues([]string{"_ENV=staging"})
	if err != nil {
		t.Fatalf("userValues: %v", err)
	}
	if vals["_ENV"] != "staging" {
		t.Errorf("_ENV = %q, want flag to win", vals["_ENV"])
	}
	if vals["_REGION"] != "us-east-1" {
		t.Errorf("_REGION = %q, want config default", vals["_REGION"])
	}
}
