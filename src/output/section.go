package output

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// innerWidth is the frame width between the left rail and the line end.
const innerWidth = 61

// Section renders one framed phase of the run: a dashed header, rail-
// prefixed content rows, and a closing rule.
type Section struct {
	w     io.Writer
	color bool
}

// NewSection writes the header and returns the open section. A non-zero
// elapsed is shown right-aligned in the header.
func NewSection(w io.Writer, name string, elapsed time.Duration, color bool) *Section {
	s := &Section{w: w, color: color}

	left := fmt.Sprintf("── %s ", name)
	right := "──"
	if elapsed > 0 {
		right = fmt.Sprintf(" %s ──", formatElapsed(elapsed))
	}
	fill := innerWidth + 4 - len(left) - len(right)
	if fill < 1 {
		fill = 1
	}
	header := left + strings.Repeat("─", fill) + right

	if color {
		fmt.Fprintf(w, "\n    \033[2;36m%s\033[0m\n", header)
	} else {
		fmt.Fprintf(w, "\n    %s\n", header)
	}
	return s
}

// Row writes one formatted content line inside the frame.
func (s *Section) Row(format string, args ...any) {
	fmt.Fprintf(s.w, "    │ %s\n", fmt.Sprintf(format, args...))
}

// Status writes a phase summary line: name, status icon, detail.
func (s *Section) Status(name, status, detail string) {
	fmt.Fprintf(s.w, "    │ %-12s%s  %s\n", name, StatusIcon(status, s.color), detail)
}

// Total writes the closing total line with the overall run status.
func (s *Section) Total(elapsed time.Duration, status string) {
	fmt.Fprintf(s.w, "    │ %-12s%40s   %s\n", "total", formatElapsed(elapsed), StatusIcon(status, s.color))
}

// Separator writes a mid-section divider.
func (s *Section) Separator() {
	fmt.Fprintf(s.w, "    ├%s\n", strings.Repeat("─", innerWidth))
}

// Close writes the section footer.
func (s *Section) Close() {
	fmt.Fprintf(s.w, "    └%s\n", strings.Repeat("─", innerWidth))
}

// StatusIcon returns the icon for a step or phase status.
func StatusIcon(status string, color bool) string {
	icon, c := "⊘", "\033[33m"
	switch status {
	case "success":
		icon, c = "✓", "\033[32m"
	case "failed":
		icon, c = "✗", "\033[31m"
	}
	if !color {
		return icon
	}
	return c + icon + "\033[0m"
}

// Dimmed returns dimmed text when color is enabled.
func Dimmed(text string, color bool) string {
	if !color {
		return text
	}
	return colorGray + text + colorReset
}

// KV is one entry of the run context block.
type KV struct {
	Key   string
	Value string
}

// ContextBlock prints the run context as two key-value columns per line.
func ContextBlock(w io.Writer, kv []KV) {
	if len(kv) == 0 {
		return
	}
	fmt.Fprintln(w)
	for i := 0; i < len(kv); i += 2 {
		if i+1 < len(kv) {
			fmt.Fprintf(w, "    %-14s%-24s%-11s%s\n",
				kv[i].Key, kv[i].Value, kv[i+1].Key, kv[i+1].Value)
		} else {
			fmt.Fprintf(w, "    %-14s%s\n", kv[i].Key, kv[i].Value)
		}
	}
}

// formatElapsed renders a duration the way section headers expect it.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := int(d.Minutes())
	return fmt.Sprintf("%dm%.1fs", mins, d.Seconds()-float64(mins*60))
}
