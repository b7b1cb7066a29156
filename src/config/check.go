package config

// CheckConfig controls the pre-run gate.
type CheckConfig struct {
	// Enabled toggles the whole gate.
	Enabled bool `yaml:"enabled"`

	// Skip lists check modules to leave out (e.g. ["secrets"]).
	Skip []string `yaml:"skip"`
}

// DefaultCheckConfig returns the gate defaults: everything on.
func DefaultCheckConfig() CheckConfig {
	return CheckConfig{Enabled: true}
}
