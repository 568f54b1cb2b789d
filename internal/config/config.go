// Package config holds runtime configuration: defaults, CLI flag parsing, and
// validation. Defaults match the remote service's documented limits (5
// concurrent jobs, hour-long processing ceiling).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig] and
// then mutated by [ParseFlags] before being passed (by pointer) to packages
// that need it. Fields are grouped by concern with inline documentation of
// defaults.
type Config struct {
	// Paths (set from positional args).
	InputDir  string
	OutputDir string

	// Remote service.
	APIBaseURL string // Default: "https://api.topazlabs.com/video/". Always ends with "/".
	KeyFile    string // Default: "key.txt". Single-line API key file.
	APIKey     string // Loaded from KeyFile by check.Preflight; never a flag.

	// Batch behavior.
	MaxConcurrent int           // Default: 5. Simultaneous in-flight remote jobs.
	RetryLimit    int           // Default: 1. Extra full-sequence attempts per file.
	RetryBackoff  time.Duration // Default: 5s. Wait before restarting a failed sequence.

	// Polling.
	PollInterval time.Duration // Default: 10s. Wait between status checks.
	PollTimeout  time.Duration // Default: 1h. Ceiling for the whole polling loop.

	// Transport timeouts (independent of the polling ceiling).
	ConnectTimeout   time.Duration // Default: 60s. Connection establishment.
	ReadStallTimeout time.Duration // Default: 5m. Waiting for response headers.

	// Output.
	LedgerFile string // Default: "processing_log.json". Batch snapshot path.

	// Behavior flags.
	DryRun bool

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
	CheckOnly bool      // Run --check diagnostics (key + credit balance) and exit.
}

// DefaultConfig returns a Config with all defaults. Used as the base before
// [ParseFlags] applies CLI overrides.
func DefaultConfig() Config {
	return Config{
		APIBaseURL:       "https://api.topazlabs.com/video/",
		KeyFile:          "key.txt",
		MaxConcurrent:    5,
		RetryLimit:       1,
		RetryBackoff:     5 * time.Second,
		PollInterval:     10 * time.Second,
		PollTimeout:      time.Hour,
		ConnectTimeout:   60 * time.Second,
		ReadStallTimeout: 5 * time.Minute,
		LedgerFile:       "processing_log.json",
		ColorMode:        ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks numeric ranges, the color mode, and the API base URL.
// When not in CheckOnly mode, it also requires non-empty input and output
// directory paths. The base URL is canonicalized to end with "/".
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.MaxConcurrent < 1 {
		return errors.New("concurrency must be at least 1")
	}
	if c.RetryLimit < 0 {
		return errors.New("retry limit must not be negative")
	}
	if c.RetryBackoff < 0 {
		return errors.New("retry backoff must not be negative")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.PollTimeout < c.PollInterval {
		return errors.New("poll timeout must be at least one poll interval")
	}
	if c.ConnectTimeout <= 0 || c.ReadStallTimeout <= 0 {
		return errors.New("transport timeouts must be positive")
	}

	normalized, err := normalizeBaseURL(c.APIBaseURL)
	if err != nil {
		return err
	}
	c.APIBaseURL = normalized

	if c.LedgerFile == "" {
		return errors.New("ledger path must not be empty")
	}

	if c.CheckOnly {
		return nil
	}
	if c.InputDir == "" || c.OutputDir == "" {
		return errors.New("need input_dir and output_dir")
	}
	return nil
}

// normalizeBaseURL validates the API base URL and guarantees a trailing
// slash so request paths can be appended directly.
func normalizeBaseURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("API base URL must not be empty")
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid API base URL %q", raw)
	}
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s, nil
}

// ValidatePaths ensures the resolved output directory is not the same as
// (or nested inside) the resolved input directory. Output files carry the
// same base name as their source, so a shared directory would make every
// completed file mark its own source as already processed on the next run.
// Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}
