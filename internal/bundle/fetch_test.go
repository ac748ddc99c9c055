package bundle

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tarEntry struct {
	name    string
	content string
	dir     bool
}

func buildTarGz(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0644, Size: int64(len(e.content)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0755, Typeflag: tar.TypeDir}
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.dir {
			_, err := tw.Write([]byte(e.content))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestArchiveFetcher(t *testing.T) {
	archive := buildTarGz(t, []tarEntry{
		{name: "frontend-5.0.0/", dir: true},
		{name: "frontend-5.0.0/src/template.tmpl", content: "<html></html>"},
		{name: "frontend-5.0.0/src/components/button/template.tmpl", content: "<button></button>"},
	})

	var requested string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		w.Write(archive)
	}))
	defer srv.Close()

	f := NewArchiveFetcher(srv.URL + "/archive/{version}.tar.gz")
	dest := t.TempDir()
	require.NoError(t, f.Fetch(context.Background(), "v5.0.0", dest))

	assert.Equal(t, "/archive/v5.0.0.tar.gz", requested)
	data, err := os.ReadFile(filepath.Join(dest, "src", "components", "button", "template.tmpl"))
	require.NoError(t, err)
	assert.Equal(t, "<button></button>", string(data))
	assert.FileExists(t, filepath.Join(dest, "src", "template.tmpl"))
}

func TestArchiveFetcherErrors(t *testing.T) {
	traversal := buildTarGz(t, []tarEntry{{name: "top/../../evil.txt", content: "x"}})

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		errSubstr string
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			errSubstr: "unexpected status 404",
		},
		{
			name: "not a gzip stream",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("plain text"))
			},
			errSubstr: "extract",
		},
		{
			name: "path traversal",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write(traversal)
			},
			errSubstr: "escapes the bundle directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			err := NewArchiveFetcher(srv.URL+"/{version}.tgz").Fetch(context.Background(), "1.0.0", t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestStripFirst(t *testing.T) {
	assert.Equal(t, "", stripFirst("top/"))
	assert.Equal(t, "", stripFirst("top"))
	assert.Equal(t, "src/a.txt", stripFirst("top/src/a.txt"))
	assert.Equal(t, "src", stripFirst("./top/src/"))
}

func TestDirFetcher(t *testing.T) {
	mirror := t.TempDir()
	writeFiles(t, mirror, map[string]string{
		"1.0.0/src/template.tmpl":                   "<html></html>",
		"1.0.0/src/components/tag/template.tmpl":    "<strong></strong>",
		"2.0.0/src/components/button/template.tmpl": "<button></button>",
	})

	f := NewDirFetcher(mirror)
	dest := t.TempDir()
	require.NoError(t, f.Fetch(context.Background(), "1.0.0", dest))

	assert.FileExists(t, filepath.Join(dest, "src", "components", "tag", "template.tmpl"))
	assert.NoFileExists(t, filepath.Join(dest, "src", "components", "button", "template.tmpl"))

	err := f.Fetch(context.Background(), "3.0.0", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version 3.0.0 not found")

	err = f.Fetch(context.Background(), "../1.0.0", t.TempDir())
	require.Error(t, err)
}
