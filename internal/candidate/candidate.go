// Package candidate adapts the renderer under test. The engine only depends
// on the Renderer interface; implementations shell out to a process or call
// an HTTP endpoint.
package candidate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/harrison/frontend-diff/internal/models"
)

// Renderer returns raw markup for a render request.
type Renderer interface {
	Render(ctx context.Context, req models.RenderRequest) (string, error)
}

// Func adapts a function to the Renderer interface.
type Func func(ctx context.Context, req models.RenderRequest) (string, error)

// Render implements Renderer.
func (f Func) Render(ctx context.Context, req models.RenderRequest) (string, error) {
	return f(ctx, req)
}

// InvocationError reports a failed candidate invocation.
type InvocationError struct {
	Target   string // component name or page-template
	ExitCode int    // process exit code; -1 when no exit status is available
	Status   int    // HTTP status of an HTTP renderer
	Stderr   string // standard error, or the body of a failed HTTP response
	Err      error
}

// Error implements the error interface
func (e *InvocationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "candidate render of %s failed", e.Target)
	if e.ExitCode > 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if e.Status > 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		fmt.Fprintf(&b, ": %s", truncate(s, 500))
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *InvocationError) Unwrap() error {
	return e.Err
}

// Select picks a Renderer for a target: http(s) URLs are rendered over HTTP
// and the path of an existing file is run as is, spaces included. Anything
// else is a command line whose first field is the executable.
func Select(target string) (Renderer, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("empty candidate renderer")
	}
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return NewHTTP(target), nil
	}
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return NewProcess(target), nil
	}
	fields := strings.Fields(target)
	if len(fields) == 1 {
		return NewProcess(fields[0]), nil
	}
	return NewProcess(fields[0], fields[1:]...), nil
}

// decode converts renderer output to UTF-8. Valid UTF-8 is returned as is;
// otherwise the encoding is sniffed from a BOM, contentType or a <meta>
// declaration, falling back to windows-1252.
func decode(out []byte, contentType string) (string, error) {
	if utf8.Valid(out) {
		return string(out), nil
	}
	enc, name, _ := charset.DetermineEncoding(out, contentType)
	decoded, err := enc.NewDecoder().Bytes(out)
	if err != nil {
		return "", fmt.Errorf("decode %s output: %w", name, err)
	}
	return string(decoded), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
