package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/cloudlift/internal/api"
	"github.com/backmassage/cloudlift/internal/config"
	"github.com/backmassage/cloudlift/internal/display"
	"github.com/backmassage/cloudlift/internal/logging"
)

// ErrPollTimeout marks a job that never reached a terminal remote status
// before the polling ceiling elapsed. Retry-eligible like any other
// per-file failure.
var ErrPollTimeout = errors.New("polling timed out")

// runner drives one file through the full remote job lifecycle:
// submit -> upload -> poll -> download -> finalize. It owns the per-file
// retry policy; every failure inside an attempt restarts the whole
// sequence with a brand-new remote job until the retry budget is spent.
type runner struct {
	cfg    *config.Config
	log    *logging.Logger
	client *api.Client
	path   string
}

// run produces the file's terminal Outcome. It never returns an error:
// exhausted retries become a failed outcome instead.
func (r *runner) run(ctx context.Context) Outcome {
	base := filepath.Base(r.path)
	out := Outcome{Filename: base, Timestamp: time.Now().Format(time.RFC3339)}

	// Idempotence: an existing output marks the file as already processed.
	// No remote call is made for skipped files.
	if _, err := os.Stat(r.finalPath()); err == nil {
		r.log.Warn("Skip (already processed): %s", base)
		out.Status = OutcomeSkipped
		out.Error = "already processed"
		return out
	}

	r.log.Info("Processing: %s", base)

	for attempt := 0; ; attempt++ {
		out.RetryCount = attempt

		requestID, err := r.attempt(ctx)
		if requestID != "" {
			out.RequestID = requestID
		}
		out.Timestamp = time.Now().Format(time.RFC3339)

		if err == nil {
			out.Status = OutcomeSuccess
			r.log.Success("Done: %s", base)
			return out
		}

		r.log.Error("%s: %v", base, err)

		if attempt >= r.cfg.RetryLimit || ctx.Err() != nil {
			out.Status = OutcomeFailed
			out.Error = err.Error()
			return out
		}

		r.log.Warn("Retrying %s (%d/%d)...", base, attempt+1, r.cfg.RetryLimit)
		if serr := sleep(ctx, r.cfg.RetryBackoff); serr != nil {
			out.Status = OutcomeFailed
			out.Error = err.Error()
			out.Timestamp = time.Now().Format(time.RFC3339)
			return out
		}
	}
}

// attempt runs one full sequence against a fresh remote job. It returns
// the request ID assigned during this attempt (empty if submission never
// got one) so failed outcomes can still be traced remotely.
func (r *runner) attempt(ctx context.Context) (string, error) {
	base := filepath.Base(r.path)
	m := newMachine()

	requestID, uploadURL, err := r.client.Submit(ctx)
	if err != nil {
		m.fail()
		return requestID, err
	}
	if err := m.to(StateSubmitted); err != nil {
		return requestID, err
	}
	r.log.Debug(r.cfg.Verbose, "  %s: job created (%s)", base, requestID)

	if fi, err := os.Stat(r.path); err == nil {
		r.log.Info("  Uploading %s (%s)...", base, display.FormatBytes(fi.Size()))
	}
	if err := r.client.Upload(ctx, r.path, uploadURL); err != nil {
		m.fail()
		return requestID, err
	}
	if err := m.to(StateUploaded); err != nil {
		return requestID, err
	}
	r.log.Info("  Upload complete, processing started: %s", base)

	if err := m.to(StatePolling); err != nil {
		return requestID, err
	}
	downloadURL, err := r.poll(ctx, requestID, m)
	if err != nil {
		return requestID, err
	}

	// The temp artifact gets a fresh unique name per attempt so concurrent
	// or retried attempts can never collide; only the final rename makes
	// the result visible under the source's base name.
	tmp := filepath.Join(r.cfg.OutputDir, uuid.New().String()+".part")
	r.log.Info("  Downloading result: %s", base)
	if err := r.client.Download(ctx, downloadURL, tmp); err != nil {
		m.fail()
		return requestID, err
	}
	if err := os.Rename(tmp, r.finalPath()); err != nil {
		os.Remove(tmp)
		m.fail()
		return requestID, fmt.Errorf("finalizing output: %w", err)
	}
	if err := m.to(StateDownloaded); err != nil {
		return requestID, err
	}
	return requestID, nil
}

// poll waits out the processing phase: sleep one interval, check status,
// repeat until a terminal status or the ceiling. Progress values are
// advisory and only logged. Unrecognized status values keep polling so
// new service-side phases don't break the batch.
func (r *runner) poll(ctx context.Context, requestID string, m *machine) (string, error) {
	base := filepath.Base(r.path)

	for elapsed := time.Duration(0); elapsed < r.cfg.PollTimeout; elapsed += r.cfg.PollInterval {
		if err := sleep(ctx, r.cfg.PollInterval); err != nil {
			m.fail()
			return "", err
		}

		st, err := r.client.Status(ctx, requestID)
		if err != nil {
			m.fail()
			return "", err
		}

		switch {
		case st.Status == api.StatusComplete:
			if st.Download == nil || st.Download.URL == "" {
				m.fail()
				return "", errors.New("no download URL in completed response")
			}
			if err := m.to(StateComplete); err != nil {
				return "", err
			}
			return st.Download.URL, nil

		case st.Status == api.StatusFailed:
			m.fail()
			msg := st.Error
			if msg == "" {
				msg = "unknown error"
			}
			return "", fmt.Errorf("remote job failed: %s", msg)

		case api.IsInProgress(st.Status):
			r.log.Progress("  %s: %d%% (%s)", base, st.Progress, st.Status)

		default:
			r.log.Debug(r.cfg.Verbose, "  %s: unrecognized status %q, still waiting", base, st.Status)
		}
	}

	if err := m.to(StateTimedOut); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w after %s", ErrPollTimeout, config.DurationLabel(r.cfg.PollTimeout))
}

// finalPath is where the completed result lands: the source base name
// inside the output directory.
func (r *runner) finalPath() string {
	return filepath.Join(r.cfg.OutputDir, filepath.Base(r.path))
}

// sleep waits d or until ctx is cancelled, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
