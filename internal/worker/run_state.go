package worker

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/PulsaGit/promo_api/internal/utils"
)

// RunStatus is the lifecycle state of a batch run.
type RunStatus string

const (
	RunIdle    RunStatus = "idle"
	RunRunning RunStatus = "running"
	RunStopped RunStatus = "stopped"
	RunError   RunStatus = "error"
)

// RunSnapshot is a point-in-time copy of a run's progress, safe to hand
// to handlers and SSE subscribers.
type RunSnapshot struct {
	Status        RunStatus  `json:"status"`
	Total         int        `json:"total"`
	Processed     int        `json:"processed"`
	CurrentIndex  int        `json:"currentIndex"`
	CurrentNumber string     `json:"currentNumber"`
	ErrorMessage  string     `json:"errorMessage,omitempty"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// RunState tracks one named batch run (one per provider). All methods are
// safe for concurrent use; batch workers mutate it while HTTP handlers poll.
type RunState struct {
	mu sync.Mutex

	name           string
	staleThreshold time.Duration

	status        RunStatus
	total         int
	processed     int
	currentIndex  int
	currentNumber string
	errorMessage  string
	stopRequested bool
	startedAt     time.Time
	updatedAt     time.Time
}

// NewRunState constructs an idle RunState. A running run older than
// staleThreshold is considered abandoned and may be replaced.
func NewRunState(name string, staleThreshold time.Duration) *RunState {
	return &RunState{
		name:           name,
		staleThreshold: staleThreshold,
		status:         RunIdle,
	}
}

// TryStart claims the run slot. Returns ErrAlreadyRunning when a live run
// is in flight. A run whose startedAt is older than the stale threshold is
// assumed abandoned (crashed goroutine, restarted process, or simply stuck)
// and is taken over instead of blocking new runs forever.
func (s *RunState) TryStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == RunRunning {
		if time.Since(s.startedAt) < s.staleThreshold {
			return utils.ErrAlreadyRunning
		}
		log.Warn().
			Str("run", s.name).
			Time("started_at", s.startedAt).
			Time("last_update", s.updatedAt).
			Msg("Stale run detected, taking over")
	}

	now := time.Now()
	s.status = RunRunning
	s.total = 0
	s.processed = 0
	s.currentIndex = 0
	s.currentNumber = ""
	s.errorMessage = ""
	s.stopRequested = false
	s.startedAt = now
	s.updatedAt = now
	return nil
}

// SetTotal records how many items the claimed run will process.
func (s *RunState) SetTotal(total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = total
	s.updatedAt = time.Now()
}

// Advance records progress after a chunk: items processed so far, the
// index reached and the label of the last item handled.
func (s *RunState) Advance(processed, currentIndex int, currentNumber string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed = processed
	s.currentIndex = currentIndex
	s.currentNumber = currentNumber
	s.updatedAt = time.Now()
}

// RequestStop raises the cooperative stop flag. The batch loop checks it
// between chunks; in-flight lookups are allowed to finish.
func (s *RunState) RequestStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != RunRunning {
		return false
	}
	s.stopRequested = true
	s.updatedAt = time.Now()
	return true
}

// StopRequested reports whether a cooperative stop has been raised.
func (s *RunState) StopRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopRequested
}

// Finish transitions the run to its terminal status: stopped when the
// stop flag was raised, idle otherwise.
func (s *RunState) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRequested {
		s.status = RunStopped
	} else {
		s.status = RunIdle
	}
	s.currentNumber = ""
	s.updatedAt = time.Now()
}

// Fail transitions the run to error with a message. The slot is free for
// the next TryStart.
func (s *RunState) Fail(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = RunError
	s.errorMessage = message
	s.currentNumber = ""
	s.updatedAt = time.Now()
}

// Reset returns the state to idle without touching a live run.
func (s *RunState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = RunIdle
	s.total = 0
	s.processed = 0
	s.currentIndex = 0
	s.currentNumber = ""
	s.errorMessage = ""
	s.stopRequested = false
	s.updatedAt = time.Now()
}

// Snapshot returns a copy of the current progress.
func (s *RunState) Snapshot() RunSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := RunSnapshot{
		Status:        s.status,
		Total:         s.total,
		Processed:     s.processed,
		CurrentIndex:  s.currentIndex,
		CurrentNumber: s.currentNumber,
		ErrorMessage:  s.errorMessage,
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.updatedAt.IsZero() {
		t := s.updatedAt
		snap.UpdatedAt = &t
	}
	return snap
}

// RunRegistry holds one RunState per run name (one per provider).
type RunRegistry struct {
	mu             sync.Mutex
	staleThreshold time.Duration
	runs           map[string]*RunState
}

// NewRunRegistry constructs an empty registry.
func NewRunRegistry(staleThreshold time.Duration) *RunRegistry {
	return &RunRegistry{
		staleThreshold: staleThreshold,
		runs:           make(map[string]*RunState),
	}
}

// Get returns the RunState for a name, creating it on first use.
func (r *RunRegistry) Get(name string) *RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.runs[name]
	if !ok {
		state = NewRunState(name, r.staleThreshold)
		r.runs[name] = state
	}
	return state
}
