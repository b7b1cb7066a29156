// Package spec defines the declarative pipeline document model: an ordered
// list of steps, the image artifacts the run is expected to produce, and
// global options. A Pipeline is built once per invocation and never mutated
// after loading; the resolver returns substituted copies.
package spec

// Pipeline is a loaded build-pipeline document.
type Pipeline struct {
	Steps         []Step            `yaml:"steps" toml:"steps"`
	Images        []string          `yaml:"images,omitempty" toml:"images,omitempty"`
	Substitutions map[string]string `yaml:"substitutions,omitempty" toml:"substitutions,omitempty"`
	Options       Options           `yaml:"options,omitempty" toml:"options,omitempty"`
	Timeout       string            `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// Step is a single unit of work bound to a named executor.
type Step struct {
	// ID identifies the step within the document. Unique; defaults to the
	// step's index when omitted.
	ID string `yaml:"id,omitempty" toml:"id,omitempty"`

	// Name is the executor invoked for this step (e.g. "docker").
	Name string `yaml:"name" toml:"name"`

	// Entrypoint overrides the executor binary while keeping Name as the
	// step's display identity.
	Entrypoint string `yaml:"entrypoint,omitempty" toml:"entrypoint,omitempty"`

	Args []string `yaml:"args,omitempty" toml:"args,omitempty"`

	// Env is a list of KEY=VALUE pairs layered over the ambient environment.
	Env []string `yaml:"env,omitempty" toml:"env,omitempty"`

	// Dir is the working directory, relative to the workspace root.
	Dir string `yaml:"dir,omitempty" toml:"dir,omitempty"`

	// Timeout bounds this step's execution ("10m", "90s"). Empty = no limit
	// beyond the pipeline timeout.
	Timeout string `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
}

// Logging modes for Options.Logging.
const (
	LoggingDefault  = ""                   // console + build log file
	LoggingFileOnly = "CLOUD_LOGGING_ONLY" // build log file only
	LoggingNone     = "NONE"               // discard step output
)

// Substitution strictness for Options.SubstitutionOption.
const (
	SubstMustMatch  = "MUST_MATCH"  // unused user substitutions are an error (default)
	SubstAllowLoose = "ALLOW_LOOSE" // unused user substitutions are ignored
)

// Options holds the document's global options.
type Options struct {
	// Logging routes step output: see Logging* constants.
	Logging string `yaml:"logging,omitempty" toml:"logging,omitempty"`

	// SubstitutionOption controls unused-substitution handling.
	SubstitutionOption string `yaml:"substitution_option,omitempty" toml:"substitution_option,omitempty"`

	// Env is applied to every step, below per-step env.
	Env []string `yaml:"env,omitempty" toml:"env,omitempty"`
}

// StepByID returns the step with the given id, or nil.
func (p *Pipeline) StepByID(id string) *Step {
	for i := range p.Steps {
		if p.Steps[i].ID == id {
			return &p.Steps[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the pipeline. The resolver substitutes into
// a clone so the loaded document stays pristine.
func (p *Pipeline) Clone() *Pipeline {
	c := &Pipeline{
		Images:  append([]string(nil), p.Images...),
		Options: p.Options,
		Timeout: p.Timeout,
	}
	c.Options.Env = append([]string(nil), p.Options.Env...)
	if p.Substitutions != nil {
		c.Substitutions = make(map[string]string, len(p.Substitutions))
		for k, v := range p.Substitutions {
			c.Substitutions[k] = v
		}
	}
	c.Steps = make([]Step, len(p.Steps))
	for i, s := range p.Steps {
		cs := s
		cs.Args = append([]string(nil), s.Args...)
		cs.Env = append([]string(nil), s.Env...)
		c.Steps[i] = cs
	}
	return c
}
