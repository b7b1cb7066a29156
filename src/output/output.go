package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Colors for terminal output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// UseColor returns true if colored output should be used.
// Respects NO_COLOR env, TERM=dumb, and terminal detection.
func UseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal() || IsCI()
}

// Header prints the run identity line: executor version, build id, document.
func Header(w io.Writer, version, buildID, doc string, color bool) {
	if color {
		fmt.Fprintf(w, "\n    %sstevedore%s %s\n", colorBold+colorCyan, colorReset, version)
	} else {
		fmt.Fprintf(w, "\n    stevedore %s\n", version)
	}
	fmt.Fprintf(w, "    build %s · %s\n", buildID, doc)
}

// StepLine writes a one-line step banner before its output streams.
func StepLine(w io.Writer, index, total int, id, executor string, color bool) {
	label := fmt.Sprintf("[%d/%d] %s", index+1, total, id)
	if color {
		fmt.Fprintf(w, "\n    %s%s%s  (%s)\n", colorBold, label, colorReset, executor)
	} else {
		fmt.Fprintf(w, "\n    %s  (%s)\n", label, executor)
	}
}

// StepStatus writes the step's closing status line.
func StepStatus(w io.Writer, id, status string, elapsed time.Duration, color bool) {
	fmt.Fprintf(w, "    %s %s %s\n", StatusIcon(status, color), id, Dimmed(formatElapsed(elapsed), color))
}
