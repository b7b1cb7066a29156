package cmd

import (
	"fmt"
	"strings"

	"github.com/pierworks/stevedore/src/spec"
	"github.com/pierworks/stevedore/src/subst"
)

// parseSubstFlags turns repeated --substitution _KEY=VALUE flags into a map.
func parseSubstFlags(flags []string) (map[string]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	vals := make(map[string]string, len(flags))
	for _, f := range flags {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --substitution %q (want _KEY=VALUE)", f)
		}
		vals[key] = value
	}
	return vals, nil
}

// userValues merges config substitution defaults with flag overrides.
func userValues(flags []string) (map[string]string, error) {
	flagVals, err := parseSubstFlags(flags)
	if err != nil {
		return nil, err
	}
	vals := make(map[string]string, len(cfg.Substitutions)+len(flagVals))
	for k, v := range cfg.Substitutions {
		vals[k] = v
	}
	for k, v := range flagVals {
		vals[k] = v
	}
	return vals, nil
}

// loadAndResolve loads the document and resolves every placeholder.
// Returns the resolved pipeline and the builtin values (for BUILD_ID).
func loadAndResolve(docPath, workspace string, substFlags []string) (*spec.Pipeline, map[string]string, error) {
	p, err := spec.Load(docPath)
	if err != nil {
		return nil, nil, err
	}

	vals, err := userValues(substFlags)
	if err != nil {
		return nil, nil, err
	}

	builtins := subst.Builtins(cfg.Project, workspace)
	resolved, err := subst.Resolve(p, vals, builtins)
	if err != nil {
		return nil, nil, err
	}
	return resolved, builtins, nil
}
