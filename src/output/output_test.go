package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPrefixWriter_LabelsEveryLine(t *testing.T) {
	var buf bytes.Buffer
	pw := &PrefixWriter{W: &buf, Prefix: "build │ "}

	pw.Write([]byte("first\nsecond\n"))

	want := "build │ first\nbuild │ second\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestPrefixWriter_SplitWrites(t *testing.T) {
	// Executors flush mid-line; the prefix must appear once per line, not
	// once per Write call.
	var buf bytes.Buffer
	pw := &PrefixWriter{W: &buf, Prefix: "> "}

	for _, chunk := range []string{"par", "tial line\nnext", "\n"} {
		pw.Write([]byte(chunk))
	}

	want := "> partial line\n> next\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestNewSink_Modes(t *testing.T) {
	var console bytes.Buffer
	logDir := filepath.Join(t.TempDir(), "logs")
	logPath := filepath.Join(logDir, "b-123.log")

	t.Run("default tees console and file", func(t *testing.T) {
		console.Reset()
		sink, err := NewSink("", logDir, "b-123", &console)
		if err != nil {
			t.Fatalf("NewSink: %v", err)
		}
		sink.Write([]byte("step output\n"))
		if err := sink.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}

		if !strings.Contains(console.String(), "step output") {
			t.Error("console missed output")
		}
		data, err := os.ReadFile(logPath)
		if err != nil || !strings.Contains(string(data), "step output") {
			t.Errorf("log file: %v, %q", err, data)
		}
	})

	t.Run("CLOUD_LOGGING_ONLY skips console", func(t *testing.T) {
		console.Reset()
		sink, err := NewSink("CLOUD_LOGGING_ONLY", logDir, "b-456", &console)
		if err != nil {
			t.Fatalf("NewSink: %v", err)
		}
		sink.Write([]byte("quiet\n"))
		sink.Close()

		if console.Len() != 0 {
			t.Errorf("console got %q", console.String())
		}
		data, _ := os.ReadFile(filepath.Join(logDir, "b-456.log"))
		if !strings.Contains(string(data), "quiet") {
			t.Errorf("log file = %q", data)
		}
	})

	t.Run("NONE discards everything", func(t *testing.T) {
		console.Reset()
		sink, err := NewSink("NONE", logDir, "b-789", &console)
		if err != nil {
			t.Fatalf("NewSink: %v", err)
		}
		sink.Write([]byte("gone\n"))
		sink.Close()

		if console.Len() != 0 {
			t.Errorf("console got %q", console.String())
		}
		if _, err := os.Stat(filepath.Join(logDir, "b-789.log")); err == nil {
			t.Error("NONE mode created a log file")
		}
	})
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "<1ms"},
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30.0s"},
	}
	for _, tc := range cases {
		if got := formatElapsed(tc.d); got != tc.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}

func TestWriteRunJUnit(t *testing.T) {
	dir := t.TempDir()

	steps := []JUnitStep{
		{ID: "build", Status: "success", Elapsed: 2 * time.Second},
		{ID: "test", Status: "failed", Elapsed: time.Second, Detail: "exit status 2"},
		{ID: "push", Status: "skipped"},
	}
	if err := WriteRunJUnit(dir, steps, 3*time.Second); err != nil {
		t.Fatalf("WriteRunJUnit: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "run.xml"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	xml := string(data)

	for _, want := range []string{
		`tests="3"`,
		`failures="1"`,
		`name="build"`,
		`type="StepExecutionError"`,
		`message="exit status 2"`,
		"<skipped",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("report missing %q:\n%s", want, xml)
		}
	}
}

func TestSection_Frame(t *testing.T) {
	var buf bytes.Buffer
	sec := NewSection(&buf, "Steps", 1500*time.Millisecond, false)
	sec.Row("hello")
	sec.Separator()
	sec.Close()

	out := buf.String()
	for _, want := range []string{"── Steps ", "1.5s", "│ hello", "├", "└"} {
		if !strings.Contains(out, want) {
			t.Errorf("section output missing %q:\n%s", want, out)
		}
	}
}
