// Package analytics derives learning insights from the append-only review
// event log. It only ever reads; the log itself is owned by the review core.
package analytics

import (
	"fmt"
	"time"

	"github.com/cfarrelly/memovault/internal/domain"
)

const (
	streakWindowDays = 30
	topicLimit       = 5
	heatmapDays      = 60
)

// Store is the read-only slice of the storage layer analytics consumes.
type Store interface {
	TotalItems() (int, error)
	RetentionRate() (float64, error)
	ReviewDays(limit int) ([]string, error)
	DifficultTopics(limit int) ([]domain.TopicMisses, error)
	ReviewHeatmap(limit int) ([]domain.ReviewDayCount, error)
}

// Snapshot summarizes review history for the analytics panel.
type Snapshot struct {
	TotalItems      int
	RetentionRate   int // percent of reviews rated Good or better
	ReviewStreak    int // consecutive days ending today with review activity
	DifficultTopics []domain.TopicMisses
	Heatmap         []domain.ReviewDayCount
}

// Service assembles analytics snapshots.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates an analytics service over the given store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Snapshot computes the current analytics snapshot.
func (s *Service) Snapshot() (*Snapshot, error) {
	total, err := s.store.TotalItems()
	if err != nil {
		return nil, fmt.Errorf("load item count: %w", err)
	}
	retention, err := s.store.RetentionRate()
	if err != nil {
		return nil, fmt.Errorf("load retention rate: %w", err)
	}
	days, err := s.store.ReviewDays(streakWindowDays)
	if err != nil {
		return nil, fmt.Errorf("load review days: %w", err)
	}
	topics, err := s.store.DifficultTopics(topicLimit)
	if err != nil {
		return nil, fmt.Errorf("load difficult topics: %w", err)
	}
	heatmap, err := s.store.ReviewHeatmap(heatmapDays)
	if err != nil {
		return nil, fmt.Errorf("load heatmap: %w", err)
	}

	return &Snapshot{
		TotalItems:      total,
		RetentionRate:   int(retention + 0.5),
		ReviewStreak:    streak(days, s.now().UTC()),
		DifficultTopics: topics,
		Heatmap:         heatmap,
	}, nil
}

// streak counts consecutive review days walking back from today. A day
// without activity, today included, ends the streak.
func streak(days []string, today time.Time) int {
	expected := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	count := 0
	for _, d := range days {
		day, err := time.ParseInLocation("2006-01-02", d, time.UTC)
		if err != nil {
			break
		}
		if !day.Equal(expected) {
			break
		}
		count++
		expected = expected.AddDate(0, 0, -1)
	}
	return count
}
