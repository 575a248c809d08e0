package review

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cfarrelly/memovault/internal/domain"
	"github.com/cfarrelly/memovault/internal/sm2"
)

// Session is the review state machine for one user. It is either idle or
// active; while active it walks a fixed queue of due cards, one at a time,
// in the order the store returned them.
//
// All methods serialize on an internal mutex, so two Rate calls can never
// overlap: each rating's persist-then-log sequence completes before the
// session accepts the next action. Invalid transitions (revealing twice,
// rating an unrevealed or exhausted queue) are silent no-ops because they
// legitimately happen under UI races such as double-clicks.
type Session struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time

	active   bool
	revealed bool
	queue    []domain.Flashcard
	stats    domain.DashboardStats
}

// ActiveCard is the card currently presented to the user. Answer is empty
// until the card has been revealed.
type ActiveCard struct {
	Question string
	Answer   string
	Revealed bool
}

// Snapshot is the session view handed to the presentation layer.
type Snapshot struct {
	Active    bool
	Stats     domain.DashboardStats
	Card      *ActiveCard // nil when idle or all caught up
	Remaining int
}

// NewSession creates an idle session backed by the given store.
func NewSession(store Store) *Session {
	return &Session{store: store, now: time.Now}
}

// Start loads the dashboard stats and the due-card queue as of now and
// activates the session. An empty queue still activates: the session
// presents the all-caught-up view until Close. On a store failure the
// session stays idle.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	stats, err := s.store.DashboardStats(now)
	if err != nil {
		return fmt.Errorf("load dashboard stats: %w", err)
	}
	queue, err := s.store.DueCards(now)
	if err != nil {
		return fmt.Errorf("load due cards: %w", err)
	}

	s.stats = stats
	s.queue = queue
	s.active = true
	s.revealed = false
	return nil
}

// Reveal shows the current card's answer. A no-op unless the session is
// active with an unrevealed card.
func (s *Session) Reveal() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || s.revealed || len(s.queue) == 0 {
		return
	}
	s.revealed = true
}

// Rate applies the rating to the current card: the scheduler computes the
// next state, the store persists it and then appends the review event, the
// card leaves the queue, and the stats refresh. Called outside
// Active(revealed) with a non-empty queue it does nothing and returns nil.
//
// The ordering is the correctness mechanism: the scheduling update goes
// first, and a failed update means no review event is ever appended. On any
// store failure before the card is popped, the session is left exactly as
// it was (still revealed, card still queued) so the caller can retry.
func (s *Session) Rate(rating sm2.Rating) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || !s.revealed || len(s.queue) == 0 {
		return nil
	}

	now := s.now()
	card := s.queue[0]
	next := sm2.Schedule(card.Scheduling, rating, now)

	if err := s.store.UpdateCardScheduling(card.ID, next.State, next.NextReviewDate, now); err != nil {
		return fmt.Errorf("update scheduling for card %s: %w", card.ID, err)
	}

	event := domain.ReviewEvent{
		ID:          uuid.NewString(),
		FlashcardID: card.ID,
		Rating:      rating,
		ReviewedAt:  now,
	}
	if err := s.store.AppendReviewEvent(event); err != nil {
		return fmt.Errorf("append review event for card %s: %w", card.ID, err)
	}

	s.queue = s.queue[1:]
	s.revealed = false

	stats, err := s.store.DashboardStats(now)
	if err != nil {
		// The rating itself is durable; only the cached stats are stale.
		return fmt.Errorf("refresh dashboard stats: %w", err)
	}
	s.stats = stats
	return nil
}

// Close returns the session to idle from any state, discarding the
// in-memory queue. Nothing is persisted.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
	s.revealed = false
	s.queue = nil
}

// Snapshot reports the current session state for rendering.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Active:    s.active,
		Stats:     s.stats,
		Remaining: len(s.queue),
	}
	if s.active && len(s.queue) > 0 {
		card := s.queue[0]
		active := &ActiveCard{Question: card.Question, Revealed: s.revealed}
		if s.revealed {
			active.Answer = card.Answer
		}
		snap.Card = active
	}
	return snap
}
