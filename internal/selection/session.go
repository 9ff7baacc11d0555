package selection

import (
	"sync"
	"time"

	"github.com/stockroom-dev/stockroom/internal/models"
)

// MaxCandidates bounds the offered list; callers with more candidates must
// tell the user about the truncation and offer an id-based path instead.
const MaxCandidates = 25

// DefaultTimeout matches the interactive removal menu's lifetime.
const DefaultTimeout = 120 * time.Second

// Outcome is the terminal result of a session.
type Outcome string

const (
	// OutcomeResolved means a valid choice was made.
	OutcomeResolved Outcome = "resolved"
	// OutcomeNotFound means the chosen id was not among the offered
	// candidates (e.g. removed concurrently between offer and choice).
	OutcomeNotFound Outcome = "not_found"
	// OutcomeExpired means the deadline elapsed with no choice.
	OutcomeExpired Outcome = "expired"
)

// Session collects exactly one choice from a bounded candidate list before a
// wall-clock deadline. It is single-use: the first transition out of the
// offered state wins and every later interaction is a no-op.
type Session struct {
	mu         sync.Mutex
	candidates []models.Product
	deadline   time.Time
	consumed   bool

	// now is swappable for deadline tests.
	now func() time.Time
}

// New offers the given candidates for the given timeout. The candidate list
// is truncated to MaxCandidates.
func New(candidates []models.Product, timeout time.Duration) *Session {
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	offered := make([]models.Product, len(candidates))
	copy(offered, candidates)
	return &Session{
		candidates: offered,
		deadline:   time.Now().Add(timeout),
		now:        time.Now,
	}
}

// Candidates returns the offered list.
func (s *Session) Candidates() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Choose consumes the session with the given candidate id. The second return
// is false when the session was already consumed, in which case the call had
// no effect. The deadline wins ties: a choice arriving at or after the
// deadline expires the session even if no sweep has run yet.
func (s *Session) Choose(id int) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed {
		return Result{}, false
	}
	s.consumed = true

	if !s.now().Before(s.deadline) {
		return Result{Outcome: OutcomeExpired}, true
	}

	for _, p := range s.candidates {
		if p.ID == id {
			return Result{Outcome: OutcomeResolved, Product: p}, true
		}
	}
	return Result{Outcome: OutcomeNotFound}, true
}

// Expire consumes the session if its deadline has passed. It returns true
// when the session transitioned to expired on this call.
func (s *Session) Expire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed || s.now().Before(s.deadline) {
		return false
	}
	s.consumed = true
	return true
}

// Expired reports whether the deadline has elapsed.
func (s *Session) Expired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.now().Before(s.deadline)
}

// Result is the terminal outcome of a session.
type Result struct {
	Outcome Outcome        `json:"outcome"`
	Product models.Product `json:"product,omitempty"`
}
