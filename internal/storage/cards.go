package storage

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/cfarrelly/memovault/internal/domain"
	"github.com/cfarrelly/memovault/internal/sm2"
)

const cardColumns = `id, item_id, card_type, question, answer, difficulty,
	next_review_date, review_interval, ease_factor, repetition_count`

func scanCard(row interface{ Scan(...any) error }) (domain.Flashcard, error) {
	var c domain.Flashcard
	var cardType string
	err := row.Scan(
		&c.ID,
		&c.ItemID,
		&cardType,
		&c.Question,
		&c.Answer,
		&c.Difficulty,
		&c.NextReviewDate,
		&c.Scheduling.ReviewInterval,
		&c.Scheduling.EaseFactor,
		&c.Scheduling.RepetitionCount,
	)
	c.Type = domain.FlashcardType(cardType)
	return c, err
}

// InsertCards persists freshly generated flashcards in one transaction.
func (db *DB) InsertCards(cards []domain.Flashcard) error {
	if len(cards) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin card insert: %w", err)
	}
	defer tx.Rollback()

	for _, c := range cards {
		_, err := tx.Exec(`
			INSERT INTO flashcards (id, item_id, card_type, question, answer, difficulty,
				next_review_date, review_interval, ease_factor, repetition_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			c.ID,
			c.ItemID,
			string(c.Type),
			c.Question,
			c.Answer,
			c.Difficulty,
			c.NextReviewDate.UTC(),
			c.Scheduling.ReviewInterval,
			c.Scheduling.EaseFactor,
			c.Scheduling.RepetitionCount,
		)
		if err != nil {
			return fmt.Errorf("insert card %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit card insert: %w", err)
	}
	return nil
}

// Cards lists every stored flashcard.
func (db *DB) Cards() ([]domain.Flashcard, error) {
	rows, err := db.conn.Query(`SELECT ` + cardColumns + ` FROM flashcards ORDER BY next_review_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// DueCards returns cards due at or before asOf, earliest first, capped at
// the due page size so one session stays bounded.
func (db *DB) DueCards(asOf time.Time) ([]domain.Flashcard, error) {
	limit := db.DuePageSize
	if limit <= 0 {
		limit = defaultDuePageSize
	}

	rows, err := db.conn.Query(`
		SELECT `+cardColumns+`
		FROM flashcards
		WHERE next_review_date <= ?
		ORDER BY next_review_date ASC
		LIMIT ?
	`, asOf.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("query due cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

func collectCards(rows *sql.Rows) ([]domain.Flashcard, error) {
	var cards []domain.Flashcard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card rows: %w", err)
	}
	return cards, nil
}

// DashboardStats derives the workload counts for the day containing asOf.
// A card with three or more successful repetitions counts as fully mastered.
func (db *DB) DashboardStats(asOf time.Time) (domain.DashboardStats, error) {
	asOf = asOf.UTC()
	dayStart := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var stats domain.DashboardStats
	var mastery float64
	err := db.conn.QueryRow(`
		SELECT
			COALESCE(SUM(next_review_date < ?), 0),
			COALESCE(SUM(next_review_date < ?), 0),
			COALESCE(SUM(next_review_date >= ?), 0),
			COALESCE(AVG(MIN(repetition_count, 3) * 100.0 / 3), 0)
		FROM flashcards
	`, dayEnd, dayStart, dayEnd).Scan(&stats.DueToday, &stats.Overdue, &stats.Upcoming, &mastery)
	if err != nil {
		return domain.DashboardStats{}, fmt.Errorf("query dashboard stats: %w", err)
	}

	stats.Mastery = int(math.Round(mastery))
	return stats, nil
}

// UpdateCardScheduling persists scheduler output for one card. The single
// UPDATE is atomic with respect to concurrent reads.
func (db *DB) UpdateCardScheduling(cardID string, state sm2.State, due, updatedAt time.Time) error {
	res, err := db.conn.Exec(`
		UPDATE flashcards
		SET repetition_count = ?, review_interval = ?, ease_factor = ?,
			next_review_date = ?, updated_at = ?
		WHERE id = ?
	`,
		state.RepetitionCount,
		state.ReviewInterval,
		state.EaseFactor,
		due.UTC(),
		updatedAt.UTC(),
		cardID,
	)
	if err != nil {
		return fmt.Errorf("update scheduling for card %s: %w", cardID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check scheduling update for card %s: %w", cardID, err)
	}
	if n == 0 {
		return fmt.Errorf("update scheduling for card %s: %w", cardID, ErrNotFound)
	}
	return nil
}

// AppendReviewEvent appends one immutable review event.
func (db *DB) AppendReviewEvent(event domain.ReviewEvent) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_events (id, flashcard_id, rating, reviewed_at)
		VALUES (?, ?, ?, ?)
	`,
		event.ID,
		event.FlashcardID,
		int(event.Rating),
		event.ReviewedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("append review event for card %s: %w", event.FlashcardID, err)
	}
	return nil
}

// ReviewEvents lists all events for one card, oldest first.
func (db *DB) ReviewEvents(cardID string) ([]domain.ReviewEvent, error) {
	rows, err := db.conn.Query(`
		SELECT id, flashcard_id, rating, reviewed_at
		FROM review_events
		WHERE flashcard_id = ?
		ORDER BY reviewed_at ASC
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("query review events for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var events []domain.ReviewEvent
	for rows.Next() {
		var e domain.ReviewEvent
		var rating int
		if err := rows.Scan(&e.ID, &e.FlashcardID, &rating, &e.ReviewedAt); err != nil {
			return nil, fmt.Errorf("scan review event row: %w", err)
		}
		e.Rating = sm2.Rating(rating)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review event rows: %w", err)
	}
	return events, nil
}
