// Package vault manages knowledge items: capture, tagging, search, and the
// pinned/archived lifecycle. Creating an item also generates its flashcards
// so new knowledge enters the review rotation immediately.
package vault

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/cfarrelly/memovault/internal/domain"
	"github.com/cfarrelly/memovault/internal/review"
)

// Store is the persistence the vault service depends on.
type Store interface {
	InsertItem(item domain.VaultItem) error
	UpdateItem(item domain.VaultItem) error
	FindItemByID(id string) (*domain.VaultItem, error)
	ListItems(includeArchived bool) ([]domain.VaultItem, error)
	SearchItems(query string) ([]domain.VaultItem, error)
	SetItemPinned(id string, pinned bool) error
	SetItemArchived(id string, archived bool) error
	DeleteItem(id string) error
}

// CardGenerator produces the flashcards for a new item.
type CardGenerator interface {
	GenerateForItem(item review.ItemRef) ([]domain.Flashcard, error)
}

// CreateInput is the payload for creating or updating an item.
type CreateInput struct {
	Title         string   `validate:"required,max=200"`
	Content       string   `validate:"required"`
	KnowledgeType string   `validate:"required"`
	Tags          []string `validate:"max=20,dive,max=50"`
}

// Service is the vault item application service.
type Service struct {
	store    Store
	gen      CardGenerator
	validate *validator.Validate
	now      func() time.Time
}

// NewService creates a vault service.
func NewService(store Store, gen CardGenerator) *Service {
	return &Service{
		store:    store,
		gen:      gen,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (s *Service) checkInput(input CreateInput) (domain.KnowledgeType, error) {
	if err := s.validate.Struct(input); err != nil {
		return "", fmt.Errorf("validate item input: %w", err)
	}
	kt := domain.KnowledgeType(input.KnowledgeType)
	// The knowledge types contain spaces, so membership is checked here
	// rather than with a oneof tag.
	if !kt.IsValid() {
		return "", fmt.Errorf("validate item input: unknown knowledge type %q", input.KnowledgeType)
	}
	return kt, nil
}

// Create validates the input, stores the item, and generates its
// flashcards. The generated cards are returned alongside the item.
func (s *Service) Create(input CreateInput) (*domain.VaultItem, []domain.Flashcard, error) {
	kt, err := s.checkInput(input)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	item := domain.VaultItem{
		ID:            uuid.NewString(),
		Title:         input.Title,
		Content:       input.Content,
		KnowledgeType: kt,
		Tags:          input.Tags,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.InsertItem(item); err != nil {
		return nil, nil, fmt.Errorf("store item: %w", err)
	}

	cards, err := s.gen.GenerateForItem(review.ItemRef{ID: item.ID, Title: item.Title, Content: item.Content})
	if err != nil {
		return nil, nil, fmt.Errorf("generate cards for item %s: %w", item.ID, err)
	}
	return &item, cards, nil
}

// Update rewrites an existing item's content fields and tags. Flashcards
// generated earlier keep their scheduling state and their original text.
func (s *Service) Update(id string, input CreateInput) (*domain.VaultItem, error) {
	kt, err := s.checkInput(input)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindItemByID(id)
	if err != nil {
		return nil, fmt.Errorf("load item %s: %w", id, err)
	}
	if existing == nil {
		return nil, fmt.Errorf("load item %s: not found", id)
	}

	existing.Title = input.Title
	existing.Content = input.Content
	existing.KnowledgeType = kt
	existing.Tags = input.Tags
	existing.UpdatedAt = s.now()

	if err := s.store.UpdateItem(*existing); err != nil {
		return nil, fmt.Errorf("store item %s: %w", id, err)
	}
	return existing, nil
}

// Get loads one item. Returns nil when it does not exist.
func (s *Service) Get(id string) (*domain.VaultItem, error) {
	return s.store.FindItemByID(id)
}

// List returns active items, or all items when includeArchived is set.
func (s *Service) List(includeArchived bool) ([]domain.VaultItem, error) {
	return s.store.ListItems(includeArchived)
}

// Search runs a full-text query over titles and content.
func (s *Service) Search(query string) ([]domain.VaultItem, error) {
	return s.store.SearchItems(query)
}

// SetPinned toggles an item's pinned flag.
func (s *Service) SetPinned(id string, pinned bool) error {
	return s.store.SetItemPinned(id, pinned)
}

// SetArchived toggles an item's archived flag. Archived items keep their
// flashcards and stay in the review rotation.
func (s *Service) SetArchived(id string, archived bool) error {
	return s.store.SetItemArchived(id, archived)
}

// Delete removes an item together with its cards and their review history.
func (s *Service) Delete(id string) error {
	return s.store.DeleteItem(id)
}
