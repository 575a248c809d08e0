// Package sm2 implements the SuperMemo-2 review scheduling algorithm.
//
// Schedule is a pure function over a card's scheduling state: it performs no
// I/O, never fails, and is safe to call from any goroutine.
package sm2

import (
	"math"
	"time"
)

const (
	// InitialInterval is the review interval, in days, assigned to new cards.
	InitialInterval = 1

	// InitialEaseFactor is the ease factor assigned to new cards.
	InitialEaseFactor = 2.5

	// MinEaseFactor is the hard floor for the ease factor.
	MinEaseFactor = 1.3
)

// qualityByRating maps the four-level rating scale onto the 0-5 quality
// score the SM-2 formulas work in. The table is load-bearing: Hard maps to
// quality 3 and the lapse test below is strictly quality < 3, so Hard is a
// successful recall. Only Again resets repetition progress.
var qualityByRating = [4]int{Again: 0, Hard: 3, Good: 4, Easy: 5}

// State is the scheduling state embedded in each flashcard.
type State struct {
	RepetitionCount int     // consecutive successful recalls since the last lapse
	ReviewInterval  int     // days until the next review, always >= 1
	EaseFactor      float64 // interval growth multiplier, always >= MinEaseFactor
}

// NewState returns the state assigned to a freshly generated card.
func NewState() State {
	return State{
		RepetitionCount: 0,
		ReviewInterval:  InitialInterval,
		EaseFactor:      InitialEaseFactor,
	}
}

// Result is the outcome of scheduling one review.
type Result struct {
	State
	NextReviewDate time.Time
}

// Schedule applies one rated review to the given state and returns the next
// state together with the next due date. Invalid ratings degrade to Again.
//
// The next due date is a calendar-day addition of the new interval to now,
// so month and year rollovers and DST transitions follow the local calendar
// rather than a fixed number of elapsed seconds.
func Schedule(state State, rating Rating, now time.Time) Result {
	quality := 0
	if rating.IsValid() {
		quality = qualityByRating[rating]
	}

	reps := state.RepetitionCount
	interval := state.ReviewInterval
	ease := state.EaseFactor

	if quality < 3 {
		// Lapse: repetition progress and interval reset.
		reps = 0
		interval = 1
	} else {
		switch reps {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int(math.Round(float64(interval) * ease))
		}
		reps++
	}

	// The ease update applies on lapses too; the interval and ease
	// computations are independent in SM-2.
	q := float64(quality)
	ease += 0.1 - (5-q)*(0.08+(5-q)*0.02)
	if ease < MinEaseFactor {
		ease = MinEaseFactor
	}
	ease = math.Round(ease*100) / 100

	return Result{
		State: State{
			RepetitionCount: reps,
			ReviewInterval:  interval,
			EaseFactor:      ease,
		},
		NextReviewDate: now.AddDate(0, 0, interval),
	}
}
