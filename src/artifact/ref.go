// Package artifact publishes the image artifacts a pipeline declares: it
// verifies each was produced by a step and pushes it to its registry.
package artifact

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation regexes based on the OCI Distribution Spec.
var (
	// OCI repository path: lowercase, digits, separators (-, _, ., /), max 256 chars.
	ociPathRe = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)

	// OCI tag: alphanumeric, -, _, ., max 128 chars. Must start with alphanumeric.
	ociTagRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)
)

// Ref is a parsed image reference.
type Ref struct {
	Registry   string // host[:port], "" when the ref has no registry part
	Repository string // path within the registry
	Tag        string // "latest" when omitted
}

// String reassembles the reference.
func (r Ref) String() string {
	s := r.Repository
	if r.Registry != "" {
		s = r.Registry + "/" + s
	}
	return s + ":" + r.Tag
}

// ParseRef splits and validates an image reference of the form
// [registry/]repository[:tag].
func ParseRef(image string) (Ref, error) {
	if image == "" {
		return Ref{}, fmt.Errorf("empty image reference")
	}
	if strings.ContainsAny(image, " \t\n\r") {
		return Ref{}, fmt.Errorf("image reference %q contains whitespace", image)
	}

	ref := Ref{Tag: "latest"}
	rest := image

	// Tag is everything after a colon that follows the last slash.
	if idx := strings.LastIndexByte(rest, ':'); idx > strings.LastIndexByte(rest, '/') {
		ref.Tag = rest[idx+1:]
		rest = rest[:idx]
	}

	// First path component is a registry host when it contains a dot, a
	// port, or is "localhost" — the daemon uses the same heuristic.
	if first, remainder, ok := strings.Cut(rest, "/"); ok {
		if strings.ContainsAny(first, ".:") || first == "localhost" {
			ref.Registry = first
			rest = remainder
		}
	}
	ref.Repository = rest

	if ref.Repository == "" || len(ref.Repository) > 256 || !ociPathRe.MatchString(ref.Repository) {
		return Ref{}, fmt.Errorf("image reference %q has invalid repository path %q", image, ref.Repository)
	}
	if !ociTagRe.MatchString(ref.Tag) {
		return Ref{}, fmt.Errorf("image reference %q has invalid tag %q", image, ref.Tag)
	}
	return ref, nil
}
