package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/blang/semver/v4"
	"github.com/gohugoio/hashstructure"
	"gopkg.in/yaml.v3"

	"github.com/harrison/frontend-diff/internal/filelock"
)

// markerFile is written into a cache entry once it is complete.
const markerFile = ".bundle.yaml"

// Logger is the subset of logging the provider needs.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
}

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	CacheDir string
	Layout   Layout
}

// EnsureOptions controls a single Ensure call.
type EnsureOptions struct {
	// ForceRefresh re-fetches the bundle even when a cached copy exists
	ForceRefresh bool
}

// Marker describes a complete cache entry.
type Marker struct {
	Version   string    `yaml:"version"`
	Source    string    `yaml:"source"`
	FetchedAt time.Time `yaml:"fetched_at"`
}

// Provider guarantees a local, version-scoped copy of a reference bundle.
// Cache entries are written by a single process at a time and published
// atomically, so concurrent readers never observe a partial bundle.
type Provider struct {
	cfg     ProviderConfig
	fetcher Fetcher
	logger  Logger
}

// NewProvider creates a Provider. A zero Layout is replaced by DefaultLayout.
func NewProvider(cfg ProviderConfig, fetcher Fetcher, logger Logger) *Provider {
	if cfg.Layout == (Layout{}) {
		cfg.Layout = DefaultLayout()
	}
	return &Provider{cfg: cfg, fetcher: fetcher, logger: logger}
}

type cacheKey struct {
	Version string
	Source  string
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// EntryName returns the cache directory name for version.
func (p *Provider) EntryName(version string) (string, error) {
	hash, err := hashstructure.Hash(cacheKey{Version: version, Source: p.fetcher.Source()}, nil)
	if err != nil {
		return "", fmt.Errorf("hash cache key: %w", err)
	}
	return fmt.Sprintf("%s-%016x", unsafeChars.ReplaceAllString(version, "_"), hash), nil
}

// Ensure returns the bundle for version, fetching it when it is not cached or
// when opts.ForceRefresh is set. Every failure wraps ErrAcquisition.
func (p *Provider) Ensure(ctx context.Context, version string, opts EnsureOptions) (*Bundle, error) {
	if version == "" {
		return nil, fmt.Errorf("%w: empty version", ErrAcquisition)
	}

	name, err := p.EntryName(version)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	dir := filepath.Join(p.cfg.CacheDir, name)

	lock := filelock.New(filepath.Join(p.cfg.CacheDir, ".locks", name+".lock"))
	if err := lock.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	defer lock.Unlock()

	if !opts.ForceRefresh {
		if marker, err := ReadMarker(dir); err == nil {
			p.logDebug(fmt.Sprintf("Using cached bundle %s (fetched %s)", dir, marker.FetchedAt.Format(time.RFC3339)))
			if _, err := semver.ParseTolerant(version); err != nil {
				p.logWarn(fmt.Sprintf("Version %q is not a release version; the cached copy may be stale (use --force-refresh)", version))
			}
			return Open(dir, version, p.cfg.Layout)
		}
	}

	p.logInfo(fmt.Sprintf("Fetching reference bundle %s from %s", version, p.fetcher.Source()))

	if err := os.MkdirAll(p.cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create cache directory: %v", ErrAcquisition, err)
	}
	tmp, err := os.MkdirTemp(p.cfg.CacheDir, ".fetch-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create staging directory: %v", ErrAcquisition, err)
	}
	defer os.RemoveAll(tmp)

	if err := p.fetcher.Fetch(ctx, version, tmp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisition, err)
	}

	marker, err := yaml.Marshal(Marker{Version: version, Source: p.fetcher.Source(), FetchedAt: time.Now().UTC()})
	if err != nil {
		return nil, fmt.Errorf("%w: encode marker: %v", ErrAcquisition, err)
	}
	if err := filelock.AtomicWrite(filepath.Join(tmp, markerFile), marker); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisition, err)
	}
	if err := filelock.ReplaceDir(tmp, dir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquisition, err)
	}

	return Open(dir, version, p.cfg.Layout)
}

// ReadMarker reads the marker of a cache entry.
func ReadMarker(dir string) (*Marker, error) {
	data, err := os.ReadFile(filepath.Join(dir, markerFile))
	if err != nil {
		return nil, err
	}
	var m Marker
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse marker in %s: %w", dir, err)
	}
	return &m, nil
}

func (p *Provider) logDebug(msg string) {
	if p.logger != nil {
		p.logger.LogDebug(msg)
	}
}

func (p *Provider) logInfo(msg string) {
	if p.logger != nil {
		p.logger.LogInfo(msg)
	}
}

func (p *Provider) logWarn(msg string) {
	if p.logger != nil {
		p.logger.LogWarn(msg)
	}
}
