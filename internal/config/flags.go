package config

// This file implements CLI flag parsing and help text.
// Flags are grouped into remote, batch, polling, transport, display, and utility.
// Color override flags (--color / --no-color) are applied after Parse so Config
// defaults hold unless set.

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// ParseFlags parses os.Args into cfg. On --help or --version it prints and exits.
// On error it returns non-nil (e.g. unknown flag, bad duration).
func ParseFlags(cfg *Config, version string) error {
	fs := flag.NewFlagSet("cloudlift", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	var over overrideFlags

	defineRemoteFlags(fs, cfg)
	defineBatchFlags(fs, cfg)
	definePollingFlags(fs, cfg)
	defineTransportFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &over)
	defineUtilityFlags(fs, cfg, &over)

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}

	applyOverrideFlags(cfg, &over)

	if over.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if over.showVersion {
		fmt.Fprintln(os.Stdout, "cloudlift v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// overrideFlags holds boolean flags that are applied after Parse.
// These either override a default (e.g. noColor -> ColorMode=never) or
// trigger exit (showHelp, showVersion).
type overrideFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// defineRemoteFlags registers --api-url, --key-file.
func defineRemoteFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "Remote service base URL")
	fs.StringVar(&cfg.KeyFile, "key-file", cfg.KeyFile, "Path to the API key file")
	fs.StringVar(&cfg.KeyFile, "k", cfg.KeyFile, "Same as --key-file")
}

// defineBatchFlags registers -j/--concurrency, --retries, --backoff, --ledger, --dry-run.
func defineBatchFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.MaxConcurrent, "concurrency", cfg.MaxConcurrent, "Maximum simultaneous remote jobs")
	fs.IntVar(&cfg.MaxConcurrent, "j", cfg.MaxConcurrent, "Same as --concurrency")
	fs.IntVar(&cfg.RetryLimit, "retries", cfg.RetryLimit, "Extra full attempts per file after a failure")
	fs.DurationVar(&cfg.RetryBackoff, "backoff", cfg.RetryBackoff, "Wait before restarting a failed file")
	fs.StringVar(&cfg.LedgerFile, "ledger", cfg.LedgerFile, "Batch result snapshot path")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Preview only; do not contact the remote service")
	fs.BoolVar(&cfg.DryRun, "d", false, "Same as --dry-run")
}

// definePollingFlags registers --poll-interval and --poll-timeout.
func definePollingFlags(fs *flag.FlagSet, cfg *Config) {
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Wait between job status checks")
	fs.DurationVar(&cfg.PollTimeout, "poll-timeout", cfg.PollTimeout, "Per-file processing ceiling")
}

// defineTransportFlags registers --connect-timeout and --read-timeout.
func defineTransportFlags(fs *flag.FlagSet, cfg *Config) {
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "Connection establishment timeout")
	fs.DurationVar(&cfg.ReadStallTimeout, "read-timeout", cfg.ReadStallTimeout, "Stalled response timeout")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, o *overrideFlags) {
	fs.BoolVar(&o.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", false, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Check API key and credit balance, then exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", "", "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", "", "Same as --log")
}

// defineUtilityFlags registers --version and --help (exit after printing).
func defineUtilityFlags(fs *flag.FlagSet, cfg *Config, o *overrideFlags) {
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&o.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&o.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&o.showHelp, "h", false, "Same as --help")
}

// applyOverrideFlags copies override flag values into cfg.
func applyOverrideFlags(cfg *Config, o *overrideFlags) {
	if o.noColor {
		cfg.ColorMode = ColorNever
	} else if o.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets InputDir and OutputDir from the positional args
// when not in CheckOnly mode. Both default to the conventional local folder
// names so a bare "cloudlift" run works from a prepared directory.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	if cfg.CheckOnly {
		return nil
	}
	switch len(args) {
	case 0:
		cfg.InputDir = "input"
		cfg.OutputDir = "output"
	case 2:
		cfg.InputDir = NormalizeDirArg(args[0])
		cfg.OutputDir = NormalizeDirArg(args[1])
	default:
		return fmt.Errorf("need either no positional args or input_dir and output_dir")
	}
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30 // width of "  -x, --long-name <arg>  "
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "CloudLift v" + version + " - batch uploader for cloud video enhancement"},
		{"", ""},
		{"  cloudlift [OPTIONS] [input_dir output_dir]", ""},
		{"", ""},
		{"Remote service", ""},
		{"  --api-url <url>", "Service base URL (default: Topaz video API)"},
		{"  -k, --key-file <path>", "API key file (default: key.txt)"},
		{"", ""},
		{"Batch", ""},
		{"  -j, --concurrency <n>", "Simultaneous remote jobs (default: 5)"},
		{"  --retries <n>", "Extra attempts per file (default: 1)"},
		{"  --backoff <dur>", "Wait before a retry (default: 5s)"},
		{"  --ledger <path>", "Result snapshot path (default: processing_log.json)"},
		{"  -d, --dry-run", "Preview only; no remote calls, no ledger"},
		{"", ""},
		{"Polling", ""},
		{"  --poll-interval <dur>", "Status check interval (default: 10s)"},
		{"  --poll-timeout <dur>", "Per-file processing ceiling (default: 1h)"},
		{"", ""},
		{"Transport", ""},
		{"  --connect-timeout <dur>", "Connection timeout (default: 1m)"},
		{"  --read-timeout <dur>", "Stalled response timeout (default: 5m)"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output"},
		{"", ""},
		{"Utility", ""},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "Check API key and credit balance, then exit"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
		{"", ""},
		{"", "Durations use Go syntax: 10s, 5m, 1h30m."},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// DurationLabel renders a duration without sub-second noise for log output
// (e.g. "1h0m0s" -> "1h", "10s" stays "10s").
func DurationLabel(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}
