package review

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cfarrelly/memovault/internal/domain"
	"github.com/cfarrelly/memovault/internal/sm2"
)

// ItemRef is the minimal slice of a vault item the generator needs.
type ItemRef struct {
	ID      string
	Title   string
	Content string
}

// Generator turns vault items into flashcards with fresh scheduling state.
type Generator struct {
	store Store
	now   func() time.Time
}

// NewGenerator creates a Generator persisting through the given store.
func NewGenerator(store Store) *Generator {
	return &Generator{store: store, now: time.Now}
}

// GenerateForItem builds the flashcards for one vault item, persists them,
// and returns them. The current policy produces a single basic_qa card; the
// slice return keeps room for richer strategies without touching the
// scheduler contract.
func (g *Generator) GenerateForItem(item ItemRef) ([]domain.Flashcard, error) {
	now := g.now()
	cards := []domain.Flashcard{
		{
			ID:             uuid.NewString(),
			ItemID:         item.ID,
			Type:           domain.CardBasicQA,
			Question:       "Explain: " + item.Title,
			Answer:         item.Content,
			Difficulty:     2,
			NextReviewDate: now,
			Scheduling:     sm2.NewState(),
		},
	}

	if err := g.store.InsertCards(cards); err != nil {
		return nil, fmt.Errorf("persist generated cards for item %s: %w", item.ID, err)
	}
	return cards, nil
}
