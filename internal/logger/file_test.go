package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/frontend-diff/internal/models"
)

func readLog(t *testing.T, fl *FileLogger) string {
	t.Helper()
	data, err := os.ReadFile(fl.Path())
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	return string(data)
}

func TestFileLoggerCreatesRunLogAndSymlink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fl, err := NewFileLogger(dir)
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer fl.Close()

	if !strings.HasPrefix(filepath.Base(fl.Path()), "run-") {
		t.Errorf("unexpected run log name %q", fl.Path())
	}

	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	if err != nil {
		t.Fatalf("readlink latest.log: %v", err)
	}
	if target != filepath.Base(fl.Path()) {
		t.Errorf("latest.log -> %q, want %q", target, filepath.Base(fl.Path()))
	}

	if !strings.Contains(readLog(t, fl), "=== frontend-diff Run Log ===") {
		t.Error("missing run log header")
	}
}

func TestFileLoggerLevels(t *testing.T) {
	fl, err := NewFileLoggerWithLevel(t.TempDir(), "warn")
	if err != nil {
		t.Fatalf("NewFileLoggerWithLevel: %v", err)
	}
	defer fl.Close()

	fl.LogInfo("hidden info")
	fl.LogWarn("shown warning")

	out := readLog(t, fl)
	if strings.Contains(out, "hidden info") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "[WARN] shown warning") {
		t.Errorf("missing warning: %s", out)
	}
}

func TestFileLoggerRunEvents(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	defer fl.Close()

	fl.LogRunStart("5.1.0", 1)
	fl.LogComponentResult(models.ComponentOutcome{
		Component: "button",
		Results: []models.ComparisonOutcome{
			{Example: "default", Passed: true},
			{
				Example: "with name",
				Reason:  models.ReasonMismatch,
				Diff: models.DiffReport{Changes: []models.Change{
					{Kind: models.ChangeAttributeRemoved, Path: "button", Attribute: "name"},
				}},
			},
			{Example: "broken", Reason: models.ReasonCandidateError, Error: "exit status 1"},
		},
	})
	fl.LogSummary(&models.RunReport{RunID: "abc", Version: "5.1.0", Total: 3, Passed: 1, Failed: 2})

	out := readLog(t, fl)
	for _, want := range []string{
		"Testing 1 component(s) against 5.1.0",
		"Component button: 1/3 passed",
		"PASS default",
		"FAIL with name [mismatch]",
		"attribute-removed at button",
		"FAIL broken [candidate-error]: exit status 1",
		"Run: abc",
		"Status: FAILED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("run log missing %q:\n%s", want, out)
		}
	}
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	fl, err := NewFileLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileLogger: %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	fl.LogInfo("after close")
}
