package spec

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseError reports a malformed document or an unknown key.
type ParseError struct {
	Path string // document path, "" when parsed from memory
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parsing pipeline document: %v", e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Load reads and parses a pipeline document. The format is chosen by file
// extension: .toml parses as TOML, everything else as YAML.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pipeline document: %w", err)
	}

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = FormatTOML
	}

	p, err := Parse(data, format)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return p, nil
}

// Parse decodes document bytes into a Pipeline. Unknown keys (top-level or
// nested) are rejected with a ParseError.
func Parse(data []byte, format Format) (*Pipeline, error) {
	p := &Pipeline{}

	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(p); err != nil {
			return nil, &ParseError{Err: err}
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(p); err != nil {
			return nil, &ParseError{Err: err}
		}
	}

	applyDefaults(p)

	if err := validate(p); err != nil {
		return nil, &ParseError{Err: err}
	}
	return p, nil
}

// Marshal re-serializes the pipeline as YAML. Step order and content are
// preserved; round-tripping a loaded document yields the same pipeline.
func Marshal(p *Pipeline) ([]byte, error) {
	return yaml.Marshal(p)
}

// applyDefaults fills omitted step ids with the step's index.
func applyDefaults(p *Pipeline) {
	for i := range p.Steps {
		if p.Steps[i].ID == "" {
			p.Steps[i].ID = fmt.Sprintf("step-%d", i)
		}
	}
}

// validate enforces document invariants that don't need resolution:
// at least one step, executor names present, unique step ids, well-formed
// durations, recognized option values.
func validate(p *Pipeline) error {
	if len(p.Steps) == 0 {
		return fmt.Errorf("document has no steps")
	}

	seen := make(map[string]int, len(p.Steps))
	for i, s := range p.Steps {
		if s.Name == "" {
			return fmt.Errorf("step %q has no executor name", s.ID)
		}
		if prev, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicate step id %q (steps %d and %d)", s.ID, prev, i)
		}
		seen[s.ID] = i

		if s.Timeout != "" {
			if _, err := time.ParseDuration(s.Timeout); err != nil {
				return fmt.Errorf("step %q: invalid timeout %q", s.ID, s.Timeout)
			}
		}
	}

	if p.Timeout != "" {
		if _, err := time.ParseDuration(p.Timeout); err != nil {
			return fmt.Errorf("invalid pipeline timeout %q", p.Timeout)
		}
	}

	// Builtin names (PROJECT_ID, SHORT_SHA, ...) have no underscore prefix;
	// reserving the unprefixed namespace keeps documents from shadowing them.
	for k := range p.Substitutions {
		if !strings.HasPrefix(k, "_") {
			return fmt.Errorf("substitution %q must begin with an underscore", k)
		}
	}

	switch p.Options.Logging {
	case LoggingDefault, LoggingFileOnly, LoggingNone:
	default:
		return fmt.Errorf("unknown logging mode %q", p.Options.Logging)
	}

	switch p.Options.SubstitutionOption {
	case "", SubstMustMatch, SubstAllowLoose:
	default:
		return fmt.Errorf("unknown substitution_option %q", p.Options.SubstitutionOption)
	}

	return nil
}

// StepTimeout returns the parsed step timeout, zero when unset.
func (s *Step) StepTimeout() time.Duration {
	if s.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(s.Timeout)
	return d
}

// PipelineTimeout returns the parsed whole-pipeline timeout, zero when unset.
func (p *Pipeline) PipelineTimeout() time.Duration {
	if p.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(p.Timeout)
	return d
}
