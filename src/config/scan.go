package config

// ScanConfig controls the optional post-build vulnerability gate.
type ScanConfig struct {
	Enabled        bool `yaml:"enabled"`
	FailOnCritical bool `yaml:"fail_on_critical"`
}

// DefaultScanConfig returns scan defaults: off, but strict when on.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{FailOnCritical: true}
}
