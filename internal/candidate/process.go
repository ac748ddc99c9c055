package candidate

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/harrison/frontend-diff/internal/models"
)

// waitDelay bounds how long a cancelled renderer may keep its pipes open.
const waitDelay = 2 * time.Second

// Process renders by running an executable once per request:
//
//	<path> [args...] --component NAME --params JSON
//	<path> [args...] --template --params JSON
//
// Standard output is the markup.
type Process struct {
	Path string
	Args []string // leading arguments, e.g. the script for an interpreter
	Dir  string
}

// NewProcess creates a Process renderer.
func NewProcess(path string, args ...string) *Process {
	return &Process{Path: path, Args: args}
}

// BuildCommandArgs constructs the arguments for a render request.
func (p *Process) BuildCommandArgs(req models.RenderRequest) ([]string, error) {
	params, err := req.ParamsJSON()
	if err != nil {
		return nil, err
	}

	args := append([]string{}, p.Args...)
	if req.Template {
		args = append(args, "--template")
	} else {
		args = append(args, "--component", req.Component)
	}
	return append(args, "--params", params), nil
}

// Render implements Renderer.
func (p *Process) Render(ctx context.Context, req models.RenderRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	args, err := p.BuildCommandArgs(req)
	if err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Dir = p.Dir
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		invErr := &InvocationError{Target: req.Target(), ExitCode: -1, Stderr: stderr.String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			invErr.ExitCode = exitErr.ExitCode()
			invErr.Err = nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			invErr.Err = ctxErr
		}
		return "", invErr
	}

	out, err := decode(stdout.Bytes(), "text/html")
	if err != nil {
		return "", &InvocationError{Target: req.Target(), ExitCode: -1, Err: err}
	}
	return out, nil
}
