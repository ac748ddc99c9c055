package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestProgressBarRender(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		width    int
		expected string
	}{
		{name: "empty progress", current: 0, total: 10, width: 10, expected: "[          ] 0/10 (0%)"},
		{name: "half progress", current: 5, total: 10, width: 10, expected: "[=====     ] 5/10 (50%)"},
		{name: "full progress", current: 10, total: 10, width: 10, expected: "[==========] 10/10 (100%)"},
		{name: "quarter progress", current: 2, total: 8, width: 8, expected: "[==      ] 2/8 (25%)"},
		{name: "overflow clamps", current: 12, total: 10, width: 10, expected: "[==========] 12/10 (100%)"},
		{name: "zero total", current: 0, total: 0, width: 4, expected: "[    ] 0/0 (0%)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := NewProgressBar(tt.total, tt.width, false)
			pb.Update(tt.current)
			if got := pb.Render(); got != tt.expected {
				t.Errorf("Render() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestProgressBarDefaultWidth(t *testing.T) {
	pb := NewProgressBar(4, 0, false)
	if got := pb.Render(); got != "[          ] 0/4 (0%)" {
		t.Errorf("Render() = %q", got)
	}
}

func TestProgressBarPrefix(t *testing.T) {
	pb := NewProgressBar(2, 2, false)
	pb.SetPrefix("Comparing ")
	pb.Increment()
	if got := pb.Render(); got != "Comparing [= ] 1/2 (50%)" {
		t.Errorf("Render() = %q", got)
	}
}

func TestProgressBarConcurrentIncrement(t *testing.T) {
	pb := NewProgressBar(100, 10, false)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pb.Increment()
		}()
	}
	wg.Wait()

	if pb.Current() != 100 {
		t.Errorf("Current() = %d, want 100", pb.Current())
	}
	if pb.Percentage() != 100 {
		t.Errorf("Percentage() = %d, want 100", pb.Percentage())
	}
}

func TestProgressRedrawsSingleLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, false)

	p.Start(2)
	p.Increment()
	p.Increment()
	p.Done()

	out := buf.String()
	if strings.Count(out, "\r") != 3 {
		t.Errorf("expected 3 redraws, got output %q", out)
	}
	if !strings.Contains(out, "2/2 (100%)") {
		t.Errorf("expected completed bar, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("expected trailing newline, got %q", out)
	}
}
