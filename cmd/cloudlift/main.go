// Command cloudlift is the CLI entrypoint for the CloudLift batch uploader.
//
// It parses flags, validates configuration and paths, and either runs the
// key/credit check (--check) or the batch submission pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/backmassage/cloudlift/internal/api"
	"github.com/backmassage/cloudlift/internal/check"
	"github.com/backmassage/cloudlift/internal/config"
	"github.com/backmassage/cloudlift/internal/display"
	"github.com/backmassage/cloudlift/internal/logging"
	"github.com/backmassage/cloudlift/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
// When built with plain "go build" (no make), these retain their defaults.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt. Once NewLogger succeeds, all output
	// goes through the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "cloudlift: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "cloudlift: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cloudlift: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: Logger available; all output goes through log from here on.
	display.PrintBanner()

	if cfg.CheckOnly {
		if !check.RunCheck(context.Background(), &cfg, log) {
			return 1
		}
		return 0
	}

	// Configuration errors (missing key file, uncreatable directories) are
	// the only failures allowed to stop the whole process.
	if err := check.Preflight(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Resolve and validate paths: output must not be inside input, or
	// completed files would mark their own sources as processed.
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("Cannot resolve input path: %s", cfg.InputDir)
		return 1
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		log.Error("Cannot resolve output path: %s", cfg.OutputDir)
		return 1
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		log.Error("Choose an output path outside: %s", cfg.InputDir)
		return 1
	}

	log.Info("=== CloudLift v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.InputDir)
	log.Info("Out: %s", cfg.OutputDir)
	log.Info("API: %s", cfg.APIBaseURL)
	log.Info("")

	// Phase 3: Signal handling. Cancel context on SIGINT/SIGTERM so the
	// scheduler stops admitting new jobs and in-flight runners settle
	// without leaving partial output at a final path.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(&cfg)

	// Phase 4: Run the batch (discover -> submit/upload/poll/download per file).
	ledger := pipeline.Run(ctx, &cfg, log, client)

	if ctx.Err() != nil {
		// User-initiated interruption: report it distinctly and leave the
		// ledger unwritten; a re-run picks up where the outputs left off.
		log.Warn("Interrupted by user, ledger not written")
		ledger.LogSummary(log)
		return 130
	}

	if cfg.DryRun {
		return 0
	}

	if err := ledger.Save(cfg.LedgerFile); err != nil {
		log.Error("Cannot write ledger %s: %v", cfg.LedgerFile, err)
		return 1
	}
	log.Info("Ledger saved to %s", cfg.LedgerFile)
	ledger.LogSummary(log)

	if ledger.Failed > 0 {
		return 1
	}
	return 0
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
