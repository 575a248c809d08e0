// Package review drives spaced-repetition review sessions: it owns the
// flashcard generator, the session state machine, and the storage contract
// both depend on.
package review

import (
	"time"

	"github.com/cfarrelly/memovault/internal/domain"
	"github.com/cfarrelly/memovault/internal/sm2"
)

// Store is the persistence boundary the review core depends on. The backing
// implementation is injected; the core never reaches for a global handle.
type Store interface {
	// DueCards returns cards with a next review date at or before asOf,
	// earliest due first, bounded to the store's page size.
	DueCards(asOf time.Time) ([]domain.Flashcard, error)

	// DashboardStats derives the due/overdue/upcoming counts and mastery
	// score for the calendar day containing asOf.
	DashboardStats(asOf time.Time) (domain.DashboardStats, error)

	// UpdateCardScheduling persists scheduler output for one card as a
	// single atomic update.
	UpdateCardScheduling(cardID string, state sm2.State, due, updatedAt time.Time) error

	// AppendReviewEvent appends one immutable review event.
	AppendReviewEvent(event domain.ReviewEvent) error

	// InsertCards persists freshly generated cards.
	InsertCards(cards []domain.Flashcard) error

	// Cards lists every stored flashcard.
	Cards() ([]domain.Flashcard, error)
}
