package domain

import (
	"time"

	"github.com/cfarrelly/memovault/internal/sm2"
)

// FlashcardType tags the generation strategy that produced a card.
// It never influences scheduling.
type FlashcardType string

const (
	CardBasicQA            FlashcardType = "basic_qa"
	CardCloze              FlashcardType = "cloze"
	CardCodeCompletion     FlashcardType = "code_completion"
	CardFlowRecall         FlashcardType = "flow_recall"
	CardReverseExplanation FlashcardType = "reverse_explanation"
)

// Flashcard is a reviewable question-answer pair generated from a vault item.
// It is owned by its originating item; the scheduler only ever mutates the
// scheduling fields, and the review core never deletes cards.
type Flashcard struct {
	ID             string
	ItemID         string
	Type           FlashcardType
	Question       string
	Answer         string
	Difficulty     int // generation-time hint, unused by scheduling
	NextReviewDate time.Time
	Scheduling     sm2.State
}

// Due reports whether the card is due for review at the given time.
func (f Flashcard) Due(asOf time.Time) bool {
	return !f.NextReviewDate.After(asOf)
}

// ReviewEvent records one rating action against one flashcard. Events are
// append-only: written exactly once per successful rating, never updated
// or deleted.
type ReviewEvent struct {
	ID          string
	FlashcardID string
	Rating      sm2.Rating
	ReviewedAt  time.Time
}

// DashboardStats summarizes the review workload as of some instant.
type DashboardStats struct {
	DueToday int // due on or before the end of the day
	Overdue  int // due strictly before the start of the day
	Upcoming int // due after the end of the day
	Mastery  int // 0-100, avg of min(repetitionCount,3)*100/3 across all cards
}

// TopicMisses counts Again ratings accumulated against one item's cards.
type TopicMisses struct {
	Title  string
	Misses int
}

// ReviewDayCount is one day's worth of review activity.
type ReviewDayCount struct {
	Day   string // YYYY-MM-DD
	Count int
}
