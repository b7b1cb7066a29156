// Package subst resolves substitution variables in a pipeline document.
// Placeholders use ${NAME}: user-supplied substitutions are underscore-
// prefixed (${_REGION}), platform builtins are not (${PROJECT_ID}).
// $$ escapes a literal dollar sign.
//
// Resolution is all-or-nothing: every placeholder in the document must have
// a value or resolution fails before any step executes.
package subst

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pierworks/stevedore/src/spec"
)

// placeholderRe matches $$ escapes and ${NAME} placeholders.
var placeholderRe = regexp.MustCompile(`\$\$|\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// UnresolvedError reports placeholders with no corresponding value.
type UnresolvedError struct {
	Names []string // sorted, unique
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("unresolved substitution variables: %s", strings.Join(e.Names, ", "))
}

// UnusedError reports user substitutions that no placeholder references,
// raised under MUST_MATCH (the default strictness).
type UnusedError struct {
	Names []string // sorted, unique
}

func (e *UnusedError) Error() string {
	return fmt.Sprintf("unused substitution variables: %s (set substitution_option: ALLOW_LOOSE to ignore)", strings.Join(e.Names, ", "))
}

// Resolve returns a copy of the pipeline with every placeholder substituted.
// User values layer over the document's own substitutions map; builtins are
// platform-supplied and may not be overridden. User keys (document or
// invocation-time) that don't start with an underscore, unresolved
// placeholders, and (under MUST_MATCH) unused user keys are all errors.
func Resolve(p *spec.Pipeline, userVals map[string]string, builtins map[string]string) (*spec.Pipeline, error) {
	// Both the document's substitutions map and invocation-time values are
	// user variables; neither may claim a builtin's name.
	for k := range p.Substitutions {
		if !strings.HasPrefix(k, "_") {
			return nil, fmt.Errorf("substitution %q: user variables must begin with an underscore", k)
		}
	}
	for k := range userVals {
		if !strings.HasPrefix(k, "_") {
			return nil, fmt.Errorf("substitution %q: user variables must begin with an underscore", k)
		}
	}

	// Document defaults first, invocation values on top.
	values := make(map[string]string, len(p.Substitutions)+len(userVals))
	for k, v := range p.Substitutions {
		values[k] = v
	}
	for k, v := range userVals {
		values[k] = v
	}

	r := &resolver{
		values:   values,
		builtins: builtins,
		used:     make(map[string]bool),
		missing:  make(map[string]bool),
	}

	out := p.Clone()
	for i := range out.Steps {
		s := &out.Steps[i]
		s.Name = r.expand(s.Name)
		s.Entrypoint = r.expand(s.Entrypoint)
		s.Dir = r.expand(s.Dir)
		for j := range s.Args {
			s.Args[j] = r.expand(s.Args[j])
		}
		for j := range s.Env {
			s.Env[j] = r.expand(s.Env[j])
		}
	}
	for i := range out.Images {
		out.Images[i] = r.expand(out.Images[i])
	}
	for i := range out.Options.Env {
		out.Options.Env[i] = r.expand(out.Options.Env[i])
	}

	if len(r.missing) > 0 {
		return nil, &UnresolvedError{Names: sortedKeys(r.missing)}
	}

	if p.Options.SubstitutionOption != spec.SubstAllowLoose {
		unused := make(map[string]bool)
		for k := range values {
			if !r.used[k] {
				unused[k] = true
			}
		}
		if len(unused) > 0 {
			return nil, &UnusedError{Names: sortedKeys(unused)}
		}
	}

	return out, nil
}

type resolver struct {
	values   map[string]string // user substitutions (underscore-prefixed)
	builtins map[string]string // platform-supplied
	used     map[string]bool
	missing  map[string]bool
}

func (r *resolver) expand(s string) string {
	if !strings.Contains(s, "$") {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		if m == "$$" {
			return "$"
		}
		name := m[2 : len(m)-1]
		if v, ok := r.values[name]; ok {
			r.used[name] = true
			return v
		}
		if v, ok := r.builtins[name]; ok {
			return v
		}
		r.missing[name] = true
		return m
	})
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
