package review

import (
	"errors"
	"testing"
	"time"

	"github.com/cfarrelly/memovault/internal/domain"
	"github.com/cfarrelly/memovault/internal/sm2"
)

var errStore = errors.New("store unavailable")

// fakeStore is an in-memory Store with switchable failure points.
type fakeStore struct {
	cards  []domain.Flashcard
	events []domain.ReviewEvent

	failUpdate bool
	failAppend bool
	failStats  bool

	updates int
}

func (f *fakeStore) DueCards(asOf time.Time) ([]domain.Flashcard, error) {
	var due []domain.Flashcard
	for _, c := range f.cards {
		if c.Due(asOf) {
			due = append(due, c)
		}
	}
	return due, nil
}

func (f *fakeStore) DashboardStats(asOf time.Time) (domain.DashboardStats, error) {
	if f.failStats {
		return domain.DashboardStats{}, errStore
	}
	stats := domain.DashboardStats{}
	for _, c := range f.cards {
		if c.Due(asOf) {
			stats.DueToday++
		} else {
			stats.Upcoming++
		}
	}
	return stats, nil
}

func (f *fakeStore) UpdateCardScheduling(cardID string, state sm2.State, due, updatedAt time.Time) error {
	if f.failUpdate {
		return errStore
	}
	for i := range f.cards {
		if f.cards[i].ID == cardID {
			f.cards[i].Scheduling = state
			f.cards[i].NextReviewDate = due
			f.updates++
			return nil
		}
	}
	return errors.New("card not found")
}

func (f *fakeStore) AppendReviewEvent(event domain.ReviewEvent) error {
	if f.failAppend {
		return errStore
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeStore) InsertCards(cards []domain.Flashcard) error {
	f.cards = append(f.cards, cards...)
	return nil
}

func (f *fakeStore) Cards() ([]domain.Flashcard, error) {
	return f.cards, nil
}

func card(id string, dueAt time.Time) domain.Flashcard {
	return domain.Flashcard{
		ID:             id,
		ItemID:         "item-" + id,
		Type:           domain.CardBasicQA,
		Question:       "Explain: " + id,
		Answer:         "answer " + id,
		NextReviewDate: dueAt,
		Scheduling:     sm2.NewState(),
	}
}

func newTestSession(store *fakeStore, now time.Time) *Session {
	s := NewSession(store)
	s.now = func() time.Time { return now }
	return s
}

func TestSession_FullFlow(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{cards: []domain.Flashcard{
		card("a", now.AddDate(0, 0, -2)),
		card("b", now.AddDate(0, 0, -1)),
	}}
	s := newTestSession(store, now)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	snap := s.Snapshot()
	if !snap.Active || snap.Remaining != 2 {
		t.Fatalf("expected active session with 2 cards, got %+v", snap)
	}
	if snap.Card == nil || snap.Card.Question != "Explain: a" {
		t.Fatalf("expected earliest-due card first, got %+v", snap.Card)
	}
	if snap.Card.Answer != "" {
		t.Error("answer leaked before reveal")
	}

	s.Reveal()
	snap = s.Snapshot()
	if !snap.Card.Revealed || snap.Card.Answer != "answer a" {
		t.Fatalf("expected revealed answer, got %+v", snap.Card)
	}

	if err := s.Rate(sm2.Good); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	snap = s.Snapshot()
	if snap.Remaining != 1 {
		t.Errorf("expected 1 card remaining, got %d", snap.Remaining)
	}
	if snap.Card == nil || snap.Card.Question != "Explain: b" {
		t.Errorf("expected card b next, got %+v", snap.Card)
	}
	if snap.Card != nil && snap.Card.Revealed {
		t.Error("reveal flag not cleared after rating")
	}
	if len(store.events) != 1 || store.events[0].FlashcardID != "a" {
		t.Errorf("expected exactly one event for card a, got %+v", store.events)
	}

	// Rating the last card keeps the session active in the caught-up view.
	s.Reveal()
	if err := s.Rate(sm2.Easy); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	snap = s.Snapshot()
	if !snap.Active {
		t.Error("session closed itself after the last card")
	}
	if snap.Remaining != 0 || snap.Card != nil {
		t.Errorf("expected empty queue, got %+v", snap)
	}

	s.Close()
	if snap := s.Snapshot(); snap.Active {
		t.Error("session still active after Close")
	}
}

func TestSession_InvalidTransitionsAreNoOps(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{cards: []domain.Flashcard{card("a", now)}}
	s := newTestSession(store, now)

	// Idle: both calls must be silent.
	s.Reveal()
	if err := s.Rate(sm2.Good); err != nil {
		t.Errorf("idle Rate returned error: %v", err)
	}
	if len(store.events) != 0 || store.updates != 0 {
		t.Error("idle Rate mutated the store")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Rating before reveal is a no-op.
	if err := s.Rate(sm2.Good); err != nil {
		t.Errorf("unrevealed Rate returned error: %v", err)
	}
	if len(store.events) != 0 {
		t.Error("unrevealed Rate appended an event")
	}

	// Double reveal stays revealed.
	s.Reveal()
	s.Reveal()
	if snap := s.Snapshot(); !snap.Card.Revealed {
		t.Error("double reveal cleared the flag")
	}
}

func TestSession_EmptyQueueRating(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	s := newTestSession(store, now)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	snap := s.Snapshot()
	if !snap.Active || snap.Card != nil {
		t.Fatalf("expected active caught-up session, got %+v", snap)
	}

	s.Reveal()
	if err := s.Rate(sm2.Good); err != nil {
		t.Errorf("empty-queue Rate returned error: %v", err)
	}
	if len(store.events) != 0 {
		t.Error("empty-queue Rate appended an event")
	}
}

func TestSession_FailedUpdateAppendsNoEvent(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{cards: []domain.Flashcard{card("a", now), card("b", now)}}
	s := newTestSession(store, now)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Reveal()

	store.failUpdate = true
	err := s.Rate(sm2.Good)
	if !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(store.events) != 0 {
		t.Fatal("review event appended despite failed scheduling update")
	}

	// Session state is untouched: still revealed, card still queued.
	snap := s.Snapshot()
	if snap.Remaining != 2 || snap.Card == nil || !snap.Card.Revealed {
		t.Errorf("session state changed after failed rate: %+v", snap)
	}

	// The retry succeeds against the same card.
	store.failUpdate = false
	if err := s.Rate(sm2.Good); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(store.events) != 1 || store.events[0].FlashcardID != "a" {
		t.Errorf("expected one event for card a after retry, got %+v", store.events)
	}
}

func TestSession_FailedAppendKeepsCardQueued(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{cards: []domain.Flashcard{card("a", now)}}
	s := newTestSession(store, now)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Reveal()

	store.failAppend = true
	if err := s.Rate(sm2.Good); !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}

	snap := s.Snapshot()
	if snap.Remaining != 1 || snap.Card == nil || !snap.Card.Revealed {
		t.Errorf("expected card still queued and revealed, got %+v", snap)
	}
}

func TestSession_QueueOrderFixedAtLoad(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	store := &fakeStore{cards: []domain.Flashcard{
		card("a", now.AddDate(0, 0, -3)),
		card("b", now.AddDate(0, 0, -2)),
		card("c", now.AddDate(0, 0, -1)),
	}}
	s := newTestSession(store, now)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	var seen []string
	for s.Snapshot().Remaining > 0 {
		snap := s.Snapshot()
		seen = append(seen, snap.Card.Question)
		s.Reveal()
		if err := s.Rate(sm2.Again); err != nil {
			t.Fatalf("Rate failed: %v", err)
		}
	}

	want := []string{"Explain: a", "Explain: b", "Explain: c"}
	if len(seen) != len(want) {
		t.Fatalf("reviewed %d cards, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("position %d: reviewed %q, want %q", i, seen[i], want[i])
		}
	}
	if len(store.events) != 3 {
		t.Errorf("expected 3 events, got %d", len(store.events))
	}
}

func TestSession_RateDelegatesToScheduler(t *testing.T) {
	now := time.Date(2026, time.March, 1, 10, 0, 0, 0, time.UTC)
	c := card("a", now)
	c.Scheduling = sm2.State{RepetitionCount: 1, ReviewInterval: 1, EaseFactor: 2.5}
	store := &fakeStore{cards: []domain.Flashcard{c}}
	s := newTestSession(store, now)

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Reveal()
	if err := s.Rate(sm2.Good); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}

	got := store.cards[0]
	if got.Scheduling.ReviewInterval != 6 || got.Scheduling.RepetitionCount != 2 {
		t.Errorf("unexpected persisted state: %+v", got.Scheduling)
	}
	if want := now.AddDate(0, 0, 6); !got.NextReviewDate.Equal(want) {
		t.Errorf("persisted due date = %v, want %v", got.NextReviewDate, want)
	}
}
