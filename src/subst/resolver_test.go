package subst

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/pierworks/stevedore/src/spec"
)

func testPipeline() *spec.Pipeline {
	return &spec.Pipeline{
		Steps: []spec.Step{
			{
				ID:   "build",
				Name: "docker",
				Args: []string{"build", "-t", "${_IMAGE}:${SHORT_SHA}", "."},
				Env:  []string{"REGION=${_REGION}"},
			},
		},
		Images: []string{"${_IMAGE}:${SHORT_SHA}"},
	}
}

func TestResolve_UserAndBuiltinValues(t *testing.T) {
	p := testPipeline()
	user := map[string]string{"_IMAGE": "registry.example.com/app", "_REGION": "eu-west-1"}
	builtins := map[string]string{"SHORT_SHA": "abc1234"}

	out, err := Resolve(p, user, builtins)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := "registry.example.com/app:abc1234"
	if out.Steps[0].Args[2] != want {
		t.Errorf("arg = %q, want %q", out.Steps[0].Args[2], want)
	}
	if out.Steps[0].Env[0] != "REGION=eu-west-1" {
		t.Errorf("env = %q", out.Steps[0].Env[0])
	}
	if out.Images[0] != want {
		t.Errorf("image = %q, want %q", out.Images[0], want)
	}

	// The input pipeline stays pristine.
	if p.Steps[0].Args[2] != "${_IMAGE}:${SHORT_SHA}" {
		t.Errorf("input pipeline was mutated: %q", p.Steps[0].Args[2])
	}
}

func TestResolve_MissingVariableFailsBeforeAnything(t *testing.T) {
	p := testPipeline()

	// _REGION missing: the whole resolution must fail and name every
	// missing variable, not just the first.
	p.Steps[0].Args = append(p.Steps[0].Args, "${_ALSO_MISSING}")

	_, err := Resolve(p, map[string]string{"_IMAGE": "app"}, map[string]string{"SHORT_SHA": "abc1234"})
	var ue *UnresolvedError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnresolvedError, got %T: %v", err, err)
	}
	if !reflect.DeepEqual(ue.Names, []string{"_ALSO_MISSING", "_REGION"}) {
		t.Fatalf("missing names = %v", ue.Names)
	}
}

func TestResolve_DollarEscape(t *testing.T) {
	p := &spec.Pipeline{
		Steps: []spec.Step{{
			ID:   "sh",
			Name: "sh",
			Args: []string{"-c", "echo $$HOME costs $$5"},
		}},
	}

	out, err := Resolve(p, nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := out.Steps[0].Args[1]; got != "echo $HOME costs $5" {
		t.Errorf("escaped arg = %q", got)
	}
}

func TestResolve_BareDollarPassesThrough(t *testing.T) {
	// A lone $ not forming ${NAME} or $$ is left as-is.
	p := &spec.Pipeline{
		Steps: []spec.Step{{ID: "sh", Name: "sh", Args: []string{"awk", "{print $1}"}}},
	}

	out, err := Resolve(p, nil, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := out.Steps[0].Args[1]; got != "{print $1}" {
		t.Errorf("arg = %q", got)
	}
}

func TestResolve_UserKeysRequireUnderscore(t *testing.T) {
	p := testPipeline()

	_, err := Resolve(p, map[string]string{"IMAGE": "app"}, nil)
	if err == nil || !strings.Contains(err.Error(), "underscore") {
		t.Fatalf("expected underscore error, got %v", err)
	}
}

func TestResolve_DocumentKeyCannotShadowBuiltin(t *testing.T) {
	p := &spec.Pipeline{
		Steps: []spec.Step{{
			ID:   "build",
			Name: "sh",
			Args: []string{"-c", "echo ${PROJECT_ID}"},
		}},
		Substitutions: map[string]string{"PROJECT_ID": "attacker-project"},
	}

	out, err := Resolve(p, nil, map[string]string{"PROJECT_ID": "real-project"})
	if err == nil {
		t.Fatalf("expected underscore error, got resolved args %v", out.Steps[0].Args)
	}
	if !strings.Contains(err.Error(), "underscore") {
		t.Fatalf("error = %v", err)
	}
}

func TestResolve_DocumentDefaultsOverridden(t *testing.T) {
	p := testPipeline()
	p.Substitutions = map[string]string{"_IMAGE": "default-app", "_REGION": "us-east-1"}

	out, err := Resolve(p, map[string]string{"_IMAGE": "cli-app"}, map[string]string{"SHORT_SHA": "abc1234"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if out.Images[0] != "cli-app:abc1234" {
		t.Errorf("image = %q, want invocation value to win", out.Images[0])
	}
	if out.Steps[0].Env[0] != "REGION=us-east-1" {
		t.Errorf("env = %q, want document default", out.Steps[0].Env[0])
	}
}

func TestResolve_UnusedIsErrorUnderMustMatch(t *testing.T) {
	p := testPipeline()
	user := map[string]string{
		"_IMAGE":  "app",
		"_REGION": "eu-west-1",
		"_UNUSED": "nobody reads this",
	}

	_, err := Resolve(p, user, map[string]string{"SHORT_SHA": "abc1234"})
	var ue *UnusedError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnusedError, got %T: %v", err, err)
	}
	if !reflect.DeepEqual(ue.Names, []string{"_UNUSED"}) {
		t.Fatalf("unused names = %v", ue.Names)
	}
}

func TestResolve_AllowLooseIgnoresUnused(t *testing.T) {
	p := testPipeline()
	p.Options.SubstitutionOption = spec.SubstAllowLoose
	user := map[string]string{
		"_IMAGE":  "app",
		"_REGION": "eu-west-1",
		"_UNUSED": "fine here",
	}

	if _, err := Resolve(p, user, map[string]string{"SHORT_SHA": "abc1234"}); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestResolve_UnusedBuiltinsAreFine(t *testing.T) {
	// Builtins are platform-supplied; a document is never obliged to use
	// them, even under MUST_MATCH.
	p := testPipeline()
	builtins := map[string]string{
		"SHORT_SHA":   "abc1234",
		"PROJECT_ID":  "demo",
		"BRANCH_NAME": "main",
	}

	if _, err := Resolve(p, map[string]string{"_IMAGE": "app", "_REGION": "r"}, builtins); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
}

func TestBuiltins_AlwaysPresent(t *testing.T) {
	vals := Builtins("demo-project", t.TempDir())

	if vals["PROJECT_ID"] != "demo-project" {
		t.Errorf("PROJECT_ID = %q", vals["PROJECT_ID"])
	}
	if vals["BUILD_ID"] == "" {
		t.Error("BUILD_ID should be generated")
	}
	// Outside a git repository the git-derived values are empty but the
	// keys still resolve.
	for _, key := range []string{"COMMIT_SHA", "SHORT_SHA", "REVISION_ID", "BRANCH_NAME", "TAG_NAME"} {
		if _, ok := vals[key]; !ok {
			t.Errorf("builtin %s missing", key)
		}
	}

	if Builtins("demo-project", t.TempDir())["BUILD_ID"] == vals["BUILD_ID"] {
		t.Error("BUILD_ID should differ between invocations")
	}
}
