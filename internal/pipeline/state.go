package pipeline

import "fmt"

// State is the position of one remote job attempt in its lifecycle. Every
// attempt starts at pending and ends at one of the terminal states; a
// retried file starts a fresh machine (and a fresh remote job).
type State string

const (
	StatePending    State = "pending"
	StateSkipped    State = "skipped" // Output already exists; no remote contact.
	StateSubmitted  State = "submitted"
	StateUploaded   State = "uploaded"
	StatePolling    State = "polling"
	StateComplete   State = "complete" // Remote reports done; download not yet finalized.
	StateDownloaded State = "downloaded"
	StateFailed     State = "failed"
	StateTimedOut   State = "timed_out"
)

var allowedTransitions = map[State]map[State]bool{
	StatePending: {
		StateSkipped:   true,
		StateSubmitted: true,
		StateFailed:    true,
	},
	StateSubmitted: {
		StateUploaded: true,
		StateFailed:   true,
	},
	StateUploaded: {
		StatePolling: true,
		StateFailed:  true,
	},
	StatePolling: {
		StatePolling:  true, // Non-terminal poll results stay in polling.
		StateComplete: true,
		StateFailed:   true,
		StateTimedOut: true,
	},
	StateComplete: {
		StateDownloaded: true,
		StateFailed:     true,
	},
	// Skipped, Downloaded, Failed and TimedOut are terminal.
	StateSkipped:    {},
	StateDownloaded: {},
	StateFailed:     {},
	StateTimedOut:   {},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to State) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Terminal reports whether s has no outgoing transitions.
func (s State) Terminal() bool {
	return len(allowedTransitions[s]) == 0
}

// machine tracks the state of one attempt and rejects illegal moves. An
// illegal move is a runner bug, surfaced as an error so the retry wrapper
// records it instead of the batch crashing.
type machine struct {
	state State
}

func newMachine() *machine {
	return &machine{state: StatePending}
}

// to advances the machine or returns an error for an illegal transition.
func (m *machine) to(next State) error {
	if !CanTransition(m.state, next) {
		return fmt.Errorf("invalid state transition: %q -> %q", m.state, next)
	}
	m.state = next
	return nil
}

// fail forces the machine into StateFailed from any non-terminal state.
func (m *machine) fail() {
	if !m.state.Terminal() {
		m.state = StateFailed
	}
}
