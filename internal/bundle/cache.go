package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// CacheEntry is a complete bundle in the cache directory.
type CacheEntry struct {
	Dir    string
	Marker Marker
}

// ListCache returns the complete entries of a cache directory ordered by
// version. Staging directories and entries without a marker are skipped.
func ListCache(cacheDir string) ([]CacheEntry, error) {
	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache directory: %w", err)
	}

	var out []CacheEntry
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(cacheDir, e.Name())
		m, err := ReadMarker(dir)
		if err != nil {
			continue
		}
		out = append(out, CacheEntry{Dir: dir, Marker: *m})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Marker.Version != out[j].Marker.Version {
			return out[i].Marker.Version < out[j].Marker.Version
		}
		return out[i].Dir < out[j].Dir
	})
	return out, nil
}

// CleanCache removes cache entries for version, or every entry and leftover
// staging directory when version is empty. It returns the number of bundles
// removed.
func CleanCache(cacheDir, version string) (int, error) {
	entries, err := ListCache(cacheDir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		if version != "" && e.Marker.Version != version {
			continue
		}
		if err := os.RemoveAll(e.Dir); err != nil {
			return removed, fmt.Errorf("remove %s: %w", e.Dir, err)
		}
		removed++
	}

	if version == "" {
		stale, _ := filepath.Glob(filepath.Join(cacheDir, ".fetch-*"))
		for _, dir := range stale {
			os.RemoveAll(dir)
		}
	}
	return removed, nil
}
