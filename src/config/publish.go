package config

// PublishConfig controls artifact publishing after a successful run.
type PublishConfig struct {
	// Enabled toggles publishing; off still verifies artifacts exist.
	Enabled bool `yaml:"enabled"`

	// Parallel bounds concurrent pushes.
	Parallel int `yaml:"parallel"`
}

// DefaultPublishConfig returns publish defaults.
func DefaultPublishConfig() PublishConfig {
	return PublishConfig{Enabled: true, Parallel: 4}
}
