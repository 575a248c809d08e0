package sm2

import (
	"errors"
	"fmt"
)

// ErrInvalidRating is returned when parsing a rating outside Again..Easy.
var ErrInvalidRating = errors.New("sm2: invalid rating")

// Rating is the user's four-level assessment of one recall attempt.
type Rating int

const (
	Again Rating = iota // could not recall
	Hard                // recalled with significant difficulty
	Good                // recalled with some effort
	Easy                // recalled effortlessly
)

var ratingNames = [...]string{Again: "Again", Hard: "Hard", Good: "Good", Easy: "Easy"}

// String returns the rating's name, or "Rating(n)" for invalid values.
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// IsValid reports whether r is one of the four defined ratings.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// ParseRating converts the wire value (0-3) into a Rating.
func ParseRating(n int) (Rating, error) {
	r := Rating(n)
	if !r.IsValid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidRating, n)
	}
	return r, nil
}
