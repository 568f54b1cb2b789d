// Package pipeline orchestrates file discovery, concurrent per-file remote
// jobs, and batch result aggregation.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/backmassage/cloudlift/internal/api"
	"github.com/backmassage/cloudlift/internal/config"
	"github.com/backmassage/cloudlift/internal/logging"
)

// Run is the top-level batch entry point. It discovers files, launches one
// runner per file under the concurrency gate, and merges every terminal
// outcome into the returned ledger.
//
// A runner holds its gate slot for its entire lifetime, polling waits and
// retries included; the gate bounds concurrent remote jobs, which is the
// resource the service actually limits. Outcomes are merged in completion
// order by a single aggregator loop. A cancelled ctx stops new admissions
// and lets in-flight runners settle; it never kills them mid-transfer.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, client *api.Client) *Ledger {
	files, err := Discover(cfg.InputDir)
	if err != nil {
		log.Error("File discovery failed: %v", err)
		ledger := NewLedger(0)
		ledger.Finish()
		return ledger
	}

	ledger := NewLedger(len(files))

	if len(files) == 0 {
		log.Warn("No video files found in %s", cfg.InputDir)
		ledger.Finish()
		return ledger
	}

	logBatchHeader(cfg, log, len(files))

	if cfg.DryRun {
		dryRun(cfg, log, files)
		ledger.Finish()
		return ledger
	}

	results := make(chan Outcome)
	gate := semaphore.NewWeighted(int64(cfg.MaxConcurrent))
	var wg sync.WaitGroup

	go func() {
		defer close(results)
		for _, path := range files {
			if err := gate.Acquire(ctx, 1); err != nil {
				log.Warn("Interrupted, no new jobs will be admitted")
				break
			}
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				defer gate.Release(1)
				defer func() {
					// A panic escaping a runner is a bug, not a modeled
					// failure; synthesize an outcome so the batch keeps
					// its accounting instead of crashing.
					if p := recover(); p != nil {
						results <- Outcome{
							Filename:  "unknown",
							Status:    OutcomeFailed,
							Error:     fmt.Sprintf("runner defect: %v", p),
							Timestamp: time.Now().Format(time.RFC3339),
						}
					}
				}()
				r := &runner{cfg: cfg, log: log, client: client, path: path}
				results <- r.run(ctx)
			}(path)
		}
		wg.Wait()
	}()

	for out := range results {
		ledger.Merge(out)
	}
	ledger.Finish()
	return ledger
}

// dryRun reports what a real run would do without contacting the remote
// service or writing anything.
func dryRun(cfg *config.Config, log *logging.Logger, files []string) {
	for _, path := range files {
		base := filepath.Base(path)
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, base)); err == nil {
			log.Warn("[DRY] Would skip (already processed): %s", base)
		} else {
			log.Success("[DRY] Would submit: %s", base)
		}
	}
}

func logBatchHeader(cfg *config.Config, log *logging.Logger, total int) {
	log.Info("Found %d video(s) to process", total)
	log.Info("Max concurrent jobs: %d", cfg.MaxConcurrent)
	log.Info("Retry limit: %d (backoff %s)", cfg.RetryLimit, config.DurationLabel(cfg.RetryBackoff))
	log.Info("Polling: every %s, ceiling %s",
		config.DurationLabel(cfg.PollInterval), config.DurationLabel(cfg.PollTimeout))
	if cfg.DryRun {
		log.Warn("DRY RUN: no remote calls, no ledger")
	}
	fmt.Println()
}
