package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink receives step output as it is produced. It never affects pipeline
// success: a broken sink is reported but swallowed.
type Sink interface {
	io.Writer
	Close() error
}

// NewSink builds the step-output sink for a logging mode. The default mode
// tees console and build log file; CLOUD_LOGGING_ONLY writes the file only;
// NONE discards everything. logDir and buildID name the log file.
func NewSink(mode, logDir, buildID string, console io.Writer) (Sink, error) {
	switch mode {
	case "NONE":
		return nopSink{io.Discard}, nil
	case "CLOUD_LOGGING_ONLY":
		f, err := openLogFile(logDir, buildID)
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		f, err := openLogFile(logDir, buildID)
		if err != nil {
			// Degrade to console-only rather than failing the run.
			return nopSink{console}, nil
		}
		return &teeSink{console: console, file: f}, nil
	}
}

func openLogFile(dir, buildID string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	path := filepath.Join(dir, buildID+".log")
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating build log: %w", err)
	}
	return f, nil
}

type nopSink struct {
	io.Writer
}

func (nopSink) Close() error { return nil }

type teeSink struct {
	console io.Writer
	file    *os.File
}

func (t *teeSink) Write(p []byte) (int, error) {
	t.console.Write(p)
	return t.file.Write(p)
}

func (t *teeSink) Close() error { return t.file.Close() }

// PrefixWriter prepends a step label to every line written through it, so
// interleaved sink output stays attributable.
type PrefixWriter struct {
	W      io.Writer
	Prefix string

	midLine bool
}

func (pw *PrefixWriter) Write(p []byte) (int, error) {
	total := len(p)
	for len(p) > 0 {
		if !pw.midLine {
			if _, err := io.WriteString(pw.W, pw.Prefix); err != nil {
				return total - len(p), err
			}
			pw.midLine = true
		}
		idx := bytes.IndexByte(p, '\n')
		if idx < 0 {
			if _, err := pw.W.Write(p); err != nil {
				return total - len(p), err
			}
			break
		}
		if _, err := pw.W.Write(p[:idx+1]); err != nil {
			return total - len(p), err
		}
		pw.midLine = false
		p = p[idx+1:]
	}
	return total, nil
}
