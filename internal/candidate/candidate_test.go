package candidate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/frontend-diff/internal/models"
)

func TestFunc(t *testing.T) {
	var got models.RenderRequest
	r := Func(func(_ context.Context, req models.RenderRequest) (string, error) {
		got = req
		return "<p>ok</p>", nil
	})

	out, err := r.Render(context.Background(), models.ComponentRequest("tag", map[string]any{"text": "x"}))
	require.NoError(t, err)
	assert.Equal(t, "<p>ok</p>", out)
	assert.Equal(t, "tag", got.Component)
}

func TestSelect(t *testing.T) {
	tests := []struct {
		target   string
		wantHTTP bool
		wantPath string
		wantArgs []string
		wantErr  bool
	}{
		{target: "./render.sh", wantPath: "./render.sh"},
		{target: "node tests/render.js", wantPath: "node", wantArgs: []string{"tests/render.js"}},
		{target: "http://localhost:3000/render", wantHTTP: true},
		{target: "https://example.test/render", wantHTTP: true},
		{target: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			r, err := Select(tt.target)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.wantHTTP {
				h, ok := r.(*HTTP)
				require.True(t, ok, "expected *HTTP, got %T", r)
				assert.Equal(t, tt.target, h.URL)
				return
			}
			p, ok := r.(*Process)
			require.True(t, ok, "expected *Process, got %T", r)
			assert.Equal(t, tt.wantPath, p.Path)
			assert.Equal(t, tt.wantArgs, p.Args)
		})
	}
}

func TestSelectPathWithSpaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "my renderer")
	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, "render.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0755))

	r, err := Select(path)
	require.NoError(t, err)
	p, ok := r.(*Process)
	require.True(t, ok, "expected *Process, got %T", r)
	assert.Equal(t, path, p.Path)
	assert.Nil(t, p.Args)
}

func TestInvocationError(t *testing.T) {
	err := &InvocationError{Target: "button", ExitCode: 2, Stderr: "  TypeError: x is undefined\n"}
	assert.Equal(t, "candidate render of button failed (exit 2): TypeError: x is undefined", err.Error())

	cause := context.DeadlineExceeded
	err = &InvocationError{Target: "page-template", ExitCode: -1, Err: cause}
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "candidate render of page-template failed: context deadline exceeded", err.Error())

	err = &InvocationError{Target: "tag", ExitCode: -1, Status: 500, Err: errors.New("unexpected status 500 Internal Server Error")}
	assert.Contains(t, err.Error(), "(status 500)")
}

func TestDecode(t *testing.T) {
	out, err := decode([]byte("<p>café</p>"), "")
	require.NoError(t, err)
	assert.Equal(t, "<p>café</p>", out)

	out, err = decode([]byte("<p>caf\xe9</p>"), "text/html")
	require.NoError(t, err)
	assert.Equal(t, "<p>café</p>", out)

	out, err = decode([]byte("<p>caf\xe9</p>"), "text/html; charset=iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, "<p>café</p>", out)
}
