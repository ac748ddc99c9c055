package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Report formats accepted by the run command.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// BundleConfig describes where reference bundles come from and how they are laid out.
type BundleConfig struct {
	// URLTemplate is a gzip tarball URL; {version} is replaced by the requested version
	URLTemplate string `yaml:"url_template"`

	// SourceDir is a local mirror holding one directory per version (used instead of URLTemplate)
	SourceDir string `yaml:"source_dir"`

	// CacheDir holds materialized bundles, one directory per version
	CacheDir string `yaml:"cache_dir"`

	// ComponentsDir is the bundle-relative directory containing one directory per component
	ComponentsDir string `yaml:"components_dir"`

	// TemplateFile is the component template file name
	TemplateFile string `yaml:"template_file"`

	// ExamplesFile is the component examples file name; {name} is replaced by the component name
	ExamplesFile string `yaml:"examples_file"`

	// PageTemplate is the bundle-relative path of the page template
	PageTemplate string `yaml:"page_template"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	// Enabled records every run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database path
	DBPath string `yaml:"db_path"`
}

// Config represents frontend-diff configuration options
type Config struct {
	// MaxConcurrency bounds concurrent candidate renders (0 = unlimited)
	MaxConcurrency int `yaml:"max_concurrency"`

	// Timeout bounds a whole run (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (empty disables file logs)
	LogDir string `yaml:"log_dir"`

	// Format is the report format (text, json, markdown, html)
	Format string `yaml:"format"`

	// IgnoreAttributes are attribute names excluded from structural comparison
	IgnoreAttributes []string `yaml:"ignore_attributes"`

	// DiffContext is the number of context lines in unified diffs
	DiffContext int `yaml:"diff_context"`

	// CompareComments makes HTML comments significant in comparisons
	CompareComments bool `yaml:"compare_comments"`

	// Bundle configures reference bundle acquisition
	Bundle BundleConfig `yaml:"bundle"`

	// History configures the run history database
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrency: 0,
		Timeout:        10 * time.Minute,
		LogLevel:       "info",
		LogDir:         "",
		Format:         FormatText,
		DiffContext:    3,
		Bundle: BundleConfig{
			ComponentsDir: "src/components",
			TemplateFile:  "template.tmpl",
			ExamplesFile:  "{name}.yaml",
			PageTemplate:  "src/template.tmpl",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// A missing file yields the defaults; a malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are strings in YAML
	type yamlConfig struct {
		MaxConcurrency   int          `yaml:"max_concurrency"`
		Timeout          string       `yaml:"timeout"`
		LogLevel         string       `yaml:"log_level"`
		LogDir           string       `yaml:"log_dir"`
		Format           string       `yaml:"format"`
		IgnoreAttributes []string     `yaml:"ignore_attributes"`
		DiffContext      *int         `yaml:"diff_context"`
		CompareComments  bool         `yaml:"compare_comments"`
		Bundle           BundleConfig `yaml:"bundle"`
		History          yaml.Node    `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.MaxConcurrency != 0 {
		cfg.MaxConcurrency = yamlCfg.MaxConcurrency
	}
	if yamlCfg.Timeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout format %q: %w", yamlCfg.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogDir != "" {
		cfg.LogDir = yamlCfg.LogDir
	}
	if yamlCfg.Format != "" {
		cfg.Format = yamlCfg.Format
	}
	if len(yamlCfg.IgnoreAttributes) > 0 {
		cfg.IgnoreAttributes = yamlCfg.IgnoreAttributes
	}
	if yamlCfg.DiffContext != nil {
		cfg.DiffContext = *yamlCfg.DiffContext
	}
	cfg.CompareComments = yamlCfg.CompareComments

	mergeBundle(&cfg.Bundle, yamlCfg.Bundle)

	// history.enabled may be explicitly false, so decode over the defaults
	if !yamlCfg.History.IsZero() {
		if err := yamlCfg.History.Decode(&cfg.History); err != nil {
			return nil, fmt.Errorf("failed to parse history section: %w", err)
		}
	}

	return cfg, nil
}

func mergeBundle(dst *BundleConfig, src BundleConfig) {
	if src.URLTemplate != "" {
		dst.URLTemplate = src.URLTemplate
	}
	if src.SourceDir != "" {
		dst.SourceDir = src.SourceDir
	}
	if src.CacheDir != "" {
		dst.CacheDir = src.CacheDir
	}
	if src.ComponentsDir != "" {
		dst.ComponentsDir = src.ComponentsDir
	}
	if src.TemplateFile != "" {
		dst.TemplateFile = src.TemplateFile
	}
	if src.ExamplesFile != "" {
		dst.ExamplesFile = src.ExamplesFile
	}
	if src.PageTemplate != "" {
		dst.PageTemplate = src.PageTemplate
	}
}

// LoadConfigFromDir loads configuration from .frontend-diff/config.yaml in the specified directory
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".frontend-diff", "config.yaml"))
}

// FlagOverrides carries CLI flags that were explicitly set. Nil fields keep
// the configured value.
type FlagOverrides struct {
	MaxConcurrency *int
	Timeout        *time.Duration
	LogDir         *string
	Format         *string
	BundleURL      *string
	BundleDir      *string
	CacheDir       *string
	HistoryEnabled *bool
}

// MergeWithFlags merges CLI flags into the configuration.
// Flags take precedence over config file settings.
func (c *Config) MergeWithFlags(f FlagOverrides) {
	if f.MaxConcurrency != nil {
		c.MaxConcurrency = *f.MaxConcurrency
	}
	if f.Timeout != nil {
		c.Timeout = *f.Timeout
	}
	if f.LogDir != nil {
		c.LogDir = *f.LogDir
	}
	if f.Format != nil {
		c.Format = *f.Format
	}
	if f.BundleURL != nil {
		c.Bundle.URLTemplate = *f.BundleURL
		c.Bundle.SourceDir = ""
	}
	if f.BundleDir != nil {
		c.Bundle.SourceDir = *f.BundleDir
		c.Bundle.URLTemplate = ""
	}
	if f.CacheDir != nil {
		c.Bundle.CacheDir = *f.CacheDir
	}
	if f.HistoryEnabled != nil {
		c.History.Enabled = *f.HistoryEnabled
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatMarkdown, FormatHTML:
	default:
		return fmt.Errorf("invalid format %q, must be one of: text, json, markdown, html", c.Format)
	}

	if c.DiffContext < 0 {
		return fmt.Errorf("diff_context must be >= 0, got %d", c.DiffContext)
	}

	if c.Bundle.URLTemplate != "" && c.Bundle.SourceDir != "" {
		return fmt.Errorf("bundle.url_template and bundle.source_dir are mutually exclusive")
	}
	if c.Bundle.URLTemplate != "" && !strings.Contains(c.Bundle.URLTemplate, "{version}") {
		return fmt.Errorf("bundle.url_template must contain {version}, got %q", c.Bundle.URLTemplate)
	}
	if c.Bundle.ComponentsDir == "" || c.Bundle.TemplateFile == "" || c.Bundle.ExamplesFile == "" || c.Bundle.PageTemplate == "" {
		return fmt.Errorf("bundle layout (components_dir, template_file, examples_file, page_template) cannot be empty")
	}

	return nil
}

// RequireSource reports an error when no bundle source is configured.
func (c *Config) RequireSource() error {
	if c.Bundle.URLTemplate == "" && c.Bundle.SourceDir == "" {
		return fmt.Errorf("no reference bundle source: set bundle.url_template or bundle.source_dir (or --bundle-url / --bundle-dir)")
	}
	return nil
}
