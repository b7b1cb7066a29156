package config

// BadgeConfig controls status badge generation.
type BadgeConfig struct {
	// Enabled generates a badge after every run.
	Enabled bool `yaml:"enabled"`

	// Output is the SVG path, relative to the workspace.
	Output string `yaml:"output"`

	// Label is the badge's left-side text.
	Label string `yaml:"label"`

	// FontFile is an optional TTF/OTF measured for exact widths; without
	// it widths are approximated and the viewer's fonts render the text.
	FontFile string `yaml:"font_file"`

	// FontSize is the point size.
	FontSize float64 `yaml:"font_size"`
}

// DefaultBadgeConfig returns badge defaults.
func DefaultBadgeConfig() BadgeConfig {
	return BadgeConfig{
		Output:   ".stevedore/status.svg",
		Label:    "build",
		FontSize: 11,
	}
}
