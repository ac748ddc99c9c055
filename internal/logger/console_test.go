package logger

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/harrison/frontend-diff/internal/models"
)

var timestampPattern = regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] `)

func TestConsoleLoggerLevelFiltering(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		log      func(*ConsoleLogger)
		expected bool
	}{
		{name: "info shown at info", level: "info", log: func(l *ConsoleLogger) { l.LogInfo("msg") }, expected: true},
		{name: "debug hidden at info", level: "info", log: func(l *ConsoleLogger) { l.LogDebug("msg") }, expected: false},
		{name: "debug shown at debug", level: "debug", log: func(l *ConsoleLogger) { l.LogDebug("msg") }, expected: true},
		{name: "trace shown at trace", level: "trace", log: func(l *ConsoleLogger) { l.LogTrace("msg") }, expected: true},
		{name: "warn hidden at error", level: "error", log: func(l *ConsoleLogger) { l.LogWarn("msg") }, expected: false},
		{name: "error shown at warn", level: "warn", log: func(l *ConsoleLogger) { l.LogError("msg") }, expected: true},
		{name: "invalid level defaults to info", level: "loud", log: func(l *ConsoleLogger) { l.LogInfo("msg") }, expected: true},
		{name: "uppercase level accepted", level: "ERROR", log: func(l *ConsoleLogger) { l.LogInfo("msg") }, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewConsoleLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.expected {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.expected, buf.String())
			}
		})
	}
}

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleLogger(&buf, "info").LogWarn("cache is stale")

	out := buf.String()
	if !timestampPattern.MatchString(out) {
		t.Errorf("missing timestamp prefix: %q", out)
	}
	if !strings.Contains(out, "[WARN] cache is stale\n") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestConsoleLoggerNilWriter(t *testing.T) {
	l := NewConsoleLogger(nil, "trace")
	l.LogInfo("ignored")
	l.LogRunStart("5.0.0", 3)
	l.LogSummary(&models.RunReport{})
}

func TestConsoleLoggerRunEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, "debug")

	l.LogRunStart("5.1.0", 2)
	l.LogComponentResult(models.ComponentOutcome{
		Component: "button",
		Results: []models.ComparisonOutcome{
			{Example: "default", Passed: true},
			{Example: "disabled", Passed: false, Reason: models.ReasonMismatch},
		},
	})
	l.LogSummary(&models.RunReport{Total: 2, Passed: 1, Failed: 1, Duration: 1500 * time.Millisecond})

	out := buf.String()
	for _, want := range []string{
		"Testing 2 component(s) against 5.1.0",
		"button: 1/2 passed",
		"=== Run Summary ===",
		"Examples: 2",
		"Passed: 1",
		"Failed: 1",
		"Duration: 1s",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConsoleLoggerComponentResultNeedsDebug(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleLogger(&buf, "info").LogComponentResult(models.ComponentOutcome{Component: "tag"})
	if buf.Len() != 0 {
		t.Errorf("expected no output at info level, got %q", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{850 * time.Millisecond, "850ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNoOpLogger(t *testing.T) {
	l := NewNoOpLogger()
	l.LogTrace("x")
	l.LogDebug("x")
	l.LogInfo("x")
	l.LogWarn("x")
	l.LogError("x")
	l.LogRunStart("5.0.0", 1)
	l.LogComponentResult(models.ComponentOutcome{Component: "button"})
	l.LogSummary(&models.RunReport{})
}
