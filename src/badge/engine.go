// Package badge renders shields-style SVG status badges for pipeline runs.
package badge

// Engine generates SVG badges using a text measurer.
type Engine struct {
	metrics Metrics
}

// New creates a badge engine with the given metrics.
func New(metrics Metrics) *Engine {
	return &Engine{metrics: metrics}
}

// Badge defines the content and appearance of a single badge.
type Badge struct {
	Label string // left side text
	Value string // right side text
	Color string // hex color for right side (e.g. "#4c1")
}

// Generate produces a shields.io-compatible flat SVG badge string.
func (e *Engine) Generate(b Badge) string {
	return e.renderSVG(b)
}

// StatusColor maps a run status to a badge hex color.
func StatusColor(status string) string {
	switch status {
	case "success", "passing":
		return "#4c1"
	case "warning":
		return "#dfb317"
	case "failed", "failing":
		return "#e05d44"
	default:
		return "#9f9f9f"
	}
}

// StatusValue maps a run status to the badge's right-side text.
func StatusValue(status string) string {
	switch status {
	case "success":
		return "passing"
	case "failed":
		return "failing"
	default:
		return status
	}
}
