package bundle

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Fetcher materializes the bundle for a version into an empty directory.
type Fetcher interface {
	Fetch(ctx context.Context, version, dest string) error
	// Source identifies where bundles come from; it is part of the cache key.
	Source() string
}

// ArchiveFetcher downloads a gzip tarball per version. The first path
// component of every entry (the archive's top-level directory) is stripped.
type ArchiveFetcher struct {
	URLTemplate string // {version} is replaced by the requested version
	Client      *http.Client
}

// NewArchiveFetcher creates an ArchiveFetcher for urlTemplate.
func NewArchiveFetcher(urlTemplate string) *ArchiveFetcher {
	return &ArchiveFetcher{URLTemplate: urlTemplate, Client: http.DefaultClient}
}

// Source implements Fetcher.
func (f *ArchiveFetcher) Source() string {
	return f.URLTemplate
}

// URL returns the archive URL for version.
func (f *ArchiveFetcher) URL(version string) string {
	return strings.ReplaceAll(f.URLTemplate, "{version}", version)
}

// Fetch implements Fetcher.
func (f *ArchiveFetcher) Fetch(ctx context.Context, version, dest string) error {
	url := f.URL(version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", url, resp.Status)
	}

	if err := extractTarGz(resp.Body, dest); err != nil {
		return fmt.Errorf("extract %s: %w", url, err)
	}
	return nil
}

func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		rel := stripFirst(hdr.Name)
		if rel == "" {
			continue
		}
		target, err := safeJoin(dest, rel)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		default:
			// links and special files are not part of a bundle
		}
	}
}

// stripFirst removes the leading path component of an archive entry name.
func stripFirst(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	_, rest, found := strings.Cut(name, "/")
	if !found {
		return ""
	}
	return strings.TrimSuffix(rest, "/")
}

// safeJoin joins rel under dest and rejects entries escaping dest.
func safeJoin(dest, rel string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(rel))
	within, err := filepath.Rel(dest, target)
	if err != nil || within == ".." || strings.HasPrefix(within, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("archive entry %q escapes the bundle directory", rel)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DirFetcher copies bundles from a local mirror holding one directory per
// version.
type DirFetcher struct {
	Root string
}

// NewDirFetcher creates a DirFetcher over root.
func NewDirFetcher(root string) *DirFetcher {
	return &DirFetcher{Root: root}
}

// Source implements Fetcher.
func (f *DirFetcher) Source() string {
	return "dir:" + f.Root
}

// Fetch implements Fetcher.
func (f *DirFetcher) Fetch(ctx context.Context, version, dest string) error {
	if !validName(version) {
		return fmt.Errorf("invalid version %q for directory source", version)
	}
	src := filepath.Join(f.Root, version)
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("version %s not found in %s: %w", version, f.Root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", src)
	}

	return filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		return writeFile(target, in, 0644)
	})
}
