package pipeline

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/backmassage/cloudlift/internal/logging"
)

// OutcomeStatus is the terminal result of one file.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome is the terminal record for one discovered file, covering its
// whole attempt sequence including retries. Immutable once merged.
type Outcome struct {
	Filename   string        `json:"filename"`
	Status     OutcomeStatus `json:"status"`
	RequestID  string        `json:"request_id,omitempty"`
	Error      string        `json:"error,omitempty"`
	RetryCount int           `json:"retry_count"`
	Timestamp  string        `json:"timestamp"`
}

// Ledger aggregates every runner's outcome. Exactly one Outcome is merged
// per discovered file, in whatever order runners finish; the counts always
// sum to TotalVideos once the batch settles. Persisted once, at batch end.
type Ledger struct {
	mu sync.Mutex

	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	TotalVideos int       `json:"total_videos"`
	Successful  int       `json:"successful"`
	Failed      int       `json:"failed"`
	Skipped     int       `json:"skipped"`
	Results     []Outcome `json:"results"`
}

// NewLedger starts a ledger for a batch of total discovered files.
func NewLedger(total int) *Ledger {
	return &Ledger{
		StartTime:   time.Now().Format(time.RFC3339),
		TotalVideos: total,
		Results:     make([]Outcome, 0, total),
	}
}

// Merge records one outcome. Commutative: counts and the result list do
// not depend on completion order. Safe to call from any goroutine.
func (l *Ledger) Merge(out Outcome) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch out.Status {
	case OutcomeSuccess:
		l.Successful++
	case OutcomeSkipped:
		l.Skipped++
	default:
		l.Failed++
	}
	l.Results = append(l.Results, out)
}

// Finish stamps the batch end time.
func (l *Ledger) Finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.EndTime = time.Now().Format(time.RFC3339)
}

// Save writes the full ledger as one indented JSON snapshot.
func (l *Ledger) Save(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LogSummary prints the human-facing batch summary: totals, and for every
// failed file its name and error.
func (l *Ledger) LogSummary(log *logging.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()

	log.Info("==============================")
	log.Info("Done: %d successful, %d failed, %d skipped (of %d)",
		l.Successful, l.Failed, l.Skipped, l.TotalVideos)

	if l.Failed == 0 {
		return
	}
	log.Error("Failed videos:")
	for _, r := range l.Results {
		if r.Status == OutcomeFailed {
			log.Error("  - %s: %s", r.Filename, r.Error)
		}
	}
}
