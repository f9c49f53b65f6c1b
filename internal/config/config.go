// Package config loads Argus configuration.
//
// Values are layered, later layers winning:
//  1. built-in defaults
//  2. user config ($XDG_CONFIG_HOME/argus/config.yaml, or config.toml)
//  3. project config in the search root (.argus.yaml, .argus.yml or .argus.toml)
//  4. ARGUS_* environment variables
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ProjectConfigNames are the project config files looked up in order.
var ProjectConfigNames = []string{".argus.yaml", ".argus.yml", ".argus.toml"}

// Config represents the complete Argus configuration.
type Config struct {
	Search   SearchConfig  `yaml:"search" toml:"search" json:"search"`
	Cache    CacheConfig   `yaml:"cache" toml:"cache" json:"cache"`
	OCR      OCRConfig     `yaml:"ocr" toml:"ocr" json:"ocr"`
	History  HistoryConfig `yaml:"history" toml:"history" json:"history"`
	Watch    WatchConfig   `yaml:"watch" toml:"watch" json:"watch"`
	LogLevel string        `yaml:"log_level" toml:"log_level" json:"log_level"`

	// Sources lists the files that contributed, in load order.
	Sources []string `yaml:"-" toml:"-" json:"-"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	Limit            int      `yaml:"limit" toml:"limit" json:"limit"`
	CaseSensitive    bool     `yaml:"case_sensitive" toml:"case_sensitive" json:"case_sensitive"`
	Regex            bool     `yaml:"regex" toml:"regex" json:"regex"`
	MaxDepth         int      `yaml:"max_depth" toml:"max_depth" json:"max_depth"`
	IncludeHidden    bool     `yaml:"include_hidden" toml:"include_hidden" json:"include_hidden"`
	Extensions       []string `yaml:"extensions" toml:"extensions" json:"extensions"`
	Preview          bool     `yaml:"preview" toml:"preview" json:"preview"`
	RespectGitignore bool     `yaml:"respect_gitignore" toml:"respect_gitignore" json:"respect_gitignore"`
	Workers          int      `yaml:"workers" toml:"workers" json:"workers"`
}

// CacheConfig holds content cache defaults.
type CacheConfig struct {
	Save bool   `yaml:"save" toml:"save" json:"save"`
	Use  bool   `yaml:"use" toml:"use" json:"use"`
	File string `yaml:"file" toml:"file" json:"file"`
}

// OCRConfig selects and tunes text recognition.
type OCRConfig struct {
	Enabled bool `yaml:"enabled" toml:"enabled" json:"enabled"`
	// Backend is auto, lib or cli.
	Backend  string `yaml:"backend" toml:"backend" json:"backend"`
	Language string `yaml:"language" toml:"language" json:"language"`
	// DataPath is the tessdata directory. Empty uses TESSDATA_PREFIX or the
	// engine default.
	DataPath string `yaml:"datapath" toml:"datapath" json:"datapath"`
	// ScannedPDFThreshold is the text-layer length below which a PDF is
	// treated as scanned.
	ScannedPDFThreshold int `yaml:"scanned_pdf_threshold" toml:"scanned_pdf_threshold" json:"scanned_pdf_threshold"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled" json:"enabled"`
	Path    string `yaml:"path" toml:"path" json:"path"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	// Debounce is a duration string such as "500ms".
	Debounce string `yaml:"debounce" toml:"debounce" json:"debounce"`
}

// DebounceDuration parses Debounce, falling back to 500ms.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Limit:   20,
			Workers: runtime.NumCPU(),
		},
		OCR: OCRConfig{
			Backend:             "auto",
			Language:            "eng",
			ScannedPDFThreshold: 100,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    DefaultHistoryPath(),
		},
		Watch:    WatchConfig{Debounce: "500ms"},
		LogLevel: "info",
	}
}

// DataDir returns ~/.argus, or a directory under the temp dir when the home
// directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".argus")
	}
	return filepath.Join(home, ".argus")
}

// DefaultHistoryPath returns the default history database location.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), "history.db")
}

// GetUserConfigDir returns $XDG_CONFIG_HOME/argus or ~/.config/argus.
func GetUserConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "argus")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "argus")
	}
	return filepath.Join(home, ".config", "argus")
}

// GetUserConfigPath returns the user config file: config.yaml, or
// config.toml when only that exists.
func GetUserConfigPath() string {
	dir := GetUserConfigDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	if fileExists(yamlPath) {
		return yamlPath
	}
	if tomlPath := filepath.Join(dir, "config.toml"); fileExists(tomlPath) {
		return tomlPath
	}
	return yamlPath
}

// FindProjectConfig returns the first project config file in dir, or "".
func FindProjectConfig(dir string) string {
	for _, name := range ProjectConfigNames {
		if p := filepath.Join(dir, name); fileExists(p) {
			return p
		}
	}
	return ""
}

// Load builds the configuration for a search rooted at dir.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadFile(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if projectPath := FindProjectConfig(dir); projectPath != "" {
		if err := cfg.loadFile(projectPath); err != nil {
			return nil, fmt.Errorf("failed to load project config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFile decodes path over the current values, so keys absent from the
// file keep what earlier layers set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(c); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty document decodes to io.EOF.
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	c.Sources = append(c.Sources, path)
	return nil
}

// applyEnvOverrides applies ARGUS_* variables. Unparseable values are
// ignored.
func (c *Config) applyEnvOverrides() {
	envInt("ARGUS_LIMIT", &c.Search.Limit)
	envInt("ARGUS_WORKERS", &c.Search.Workers)
	envInt("ARGUS_MAX_DEPTH", &c.Search.MaxDepth)
	envBool("ARGUS_GITIGNORE", &c.Search.RespectGitignore)
	envBool("ARGUS_HIDDEN", &c.Search.IncludeHidden)

	envString("ARGUS_CACHE_FILE", &c.Cache.File)

	envBool("ARGUS_OCR", &c.OCR.Enabled)
	envString("ARGUS_OCR_BACKEND", &c.OCR.Backend)
	envString("ARGUS_OCR_LANGUAGE", &c.OCR.Language)
	envString("ARGUS_OCR_DATAPATH", &c.OCR.DataPath)
	envInt("ARGUS_SCANNED_PDF_THRESHOLD", &c.OCR.ScannedPDFThreshold)
	if c.OCR.DataPath == "" {
		envString("TESSDATA_PREFIX", &c.OCR.DataPath)
	}

	envBool("ARGUS_HISTORY", &c.History.Enabled)
	envString("ARGUS_HISTORY_PATH", &c.History.Path)

	envString("ARGUS_WATCH_DEBOUNCE", &c.Watch.Debounce)
	envString("ARGUS_LOG_LEVEL", &c.LogLevel)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.Search.Limit < 0 {
		return fmt.Errorf("search.limit must be non-negative, got %d", c.Search.Limit)
	}
	if c.Search.Workers < 0 {
		return fmt.Errorf("search.workers must be non-negative, got %d", c.Search.Workers)
	}
	if c.Search.MaxDepth < 0 {
		return fmt.Errorf("search.max_depth must be non-negative, got %d", c.Search.MaxDepth)
	}
	if c.OCR.ScannedPDFThreshold < 0 {
		return fmt.Errorf("ocr.scanned_pdf_threshold must be non-negative, got %d", c.OCR.ScannedPDFThreshold)
	}

	switch strings.ToLower(c.OCR.Backend) {
	case "", "auto", "lib", "cli":
	default:
		return fmt.Errorf("ocr.backend must be 'auto', 'lib' or 'cli', got %s", c.OCR.Backend)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.LogLevel)
	}

	if c.Watch.Debounce != "" {
		if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
			return fmt.Errorf("watch.debounce must be a non-negative duration, got %q", c.Watch.Debounce)
		}
	}
	return nil
}

// Marshal encodes the configuration as YAML, or TOML when format is "toml".
func (c *Config) Marshal(format string) ([]byte, error) {
	if strings.EqualFold(format, "toml") {
		return toml.Marshal(c)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the configuration to path, choosing the encoding from the
// extension.
func (c *Config) WriteFile(path string) error {
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	data, err := c.Marshal(format)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
