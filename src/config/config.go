package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = ".stevedore.yml"

// Config is the top-level stevedore configuration. It supplies invocation
// defaults; the pipeline document itself stays the source of truth for
// steps, images, and options.
type Config struct {
	// Project is the PROJECT_ID builtin substitution value.
	Project string `yaml:"project"`

	// Document is the default pipeline document path.
	Document string `yaml:"document"`

	// Substitutions are default user substitution values, overridden by
	// --substitution flags.
	Substitutions map[string]string `yaml:"substitutions"`

	// StateDir holds logs, reports, and generated badges.
	StateDir string `yaml:"state_dir"`

	Check   CheckConfig   `yaml:"check"`
	Publish PublishConfig `yaml:"publish"`
	Scan    ScanConfig    `yaml:"scan"`
	Badge   BadgeConfig   `yaml:"badge"`
}

// Load reads configuration from a YAML file.
// If path is empty, it tries the default file.
// Returns sensible defaults if the file doesn't exist.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return defaults(), nil
		}
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Document: "pipeline.yml",
		StateDir: ".stevedore",
		Check:    DefaultCheckConfig(),
		Publish:  DefaultPublishConfig(),
		Scan:     DefaultScanConfig(),
		Badge:    DefaultBadgeConfig(),
	}
}
