package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// HomeEnv overrides the frontend-diff home directory.
const HomeEnv = "FRONTEND_DIFF_HOME"

// Home returns the frontend-diff home directory.
// Priority order:
//  1. FRONTEND_DIFF_HOME environment variable (if set)
//  2. ~/.frontend-diff
//
// The directory is created if it doesn't exist.
func Home() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		home = "~/.frontend-diff"
	}

	expanded, err := ExpandPath(home)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(expanded, 0755); err != nil {
		return "", fmt.Errorf("create home directory: %w", err)
	}
	return expanded, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", path, err)
	}
	return expanded, nil
}

// ResolveCacheDir returns the bundle cache directory, defaulting to <home>/cache.
func (c *Config) ResolveCacheDir() (string, error) {
	if c.Bundle.CacheDir != "" {
		return ExpandPath(c.Bundle.CacheDir)
	}
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "cache"), nil
}

// ResolveHistoryDB returns the history database path, defaulting to <home>/history.db.
func (c *Config) ResolveHistoryDB() (string, error) {
	if c.History.DBPath != "" {
		return ExpandPath(c.History.DBPath)
	}
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}
