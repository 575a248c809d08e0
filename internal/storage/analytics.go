package storage

import (
	"fmt"

	"github.com/cfarrelly/memovault/internal/domain"
)

// TotalItems counts all vault items, archived included.
func (db *DB) TotalItems() (int, error) {
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM vault_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// RetentionRate is the percentage of review events rated Good or better.
// Returns 0 when no reviews have happened yet.
func (db *DB) RetentionRate() (float64, error) {
	var rate float64
	err := db.conn.QueryRow(`
		SELECT COALESCE(AVG(CASE WHEN rating >= 2 THEN 1.0 ELSE 0.0 END) * 100, 0)
		FROM review_events
	`).Scan(&rate)
	if err != nil {
		return 0, fmt.Errorf("query retention rate: %w", err)
	}
	return rate, nil
}

// ReviewDays lists the distinct days with review activity, most recent
// first, as YYYY-MM-DD strings.
func (db *DB) ReviewDays(limit int) ([]string, error) {
	rows, err := db.conn.Query(`
		SELECT DISTINCT date(reviewed_at) AS day
		FROM review_events
		ORDER BY day DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query review days: %w", err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("scan review day row: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review day rows: %w", err)
	}
	return days, nil
}

// DifficultTopics ranks item titles by how often their cards were rated
// Again.
func (db *DB) DifficultTopics(limit int) ([]domain.TopicMisses, error) {
	rows, err := db.conn.Query(`
		SELECT v.title, COUNT(*) AS misses
		FROM review_events r
		JOIN flashcards f ON f.id = r.flashcard_id
		JOIN vault_items v ON v.id = f.item_id
		WHERE r.rating = 0
		GROUP BY v.id
		ORDER BY misses DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query difficult topics: %w", err)
	}
	defer rows.Close()

	var topics []domain.TopicMisses
	for rows.Next() {
		var t domain.TopicMisses
		if err := rows.Scan(&t.Title, &t.Misses); err != nil {
			return nil, fmt.Errorf("scan difficult topic row: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate difficult topic rows: %w", err)
	}
	return topics, nil
}

// ReviewHeatmap counts review events per day, most recent day first.
func (db *DB) ReviewHeatmap(limit int) ([]domain.ReviewDayCount, error) {
	rows, err := db.conn.Query(`
		SELECT date(reviewed_at) AS day, COUNT(*) AS count
		FROM review_events
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query review heatmap: %w", err)
	}
	defer rows.Close()

	var heatmap []domain.ReviewDayCount
	for rows.Next() {
		var d domain.ReviewDayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, fmt.Errorf("scan heatmap row: %w", err)
		}
		heatmap = append(heatmap, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate heatmap rows: %w", err)
	}
	return heatmap, nil
}
