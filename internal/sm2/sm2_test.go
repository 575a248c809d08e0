package sm2

import (
	"math"
	"testing"
	"time"
)

var day1 = time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)

func TestSchedule_Lapse(t *testing.T) {
	state := State{RepetitionCount: 4, ReviewInterval: 20, EaseFactor: 2.5}

	got := Schedule(state, Again, day1)

	if got.RepetitionCount != 0 {
		t.Errorf("expected repetition count reset to 0, got %d", got.RepetitionCount)
	}
	if got.ReviewInterval != 1 {
		t.Errorf("expected interval reset to 1, got %d", got.ReviewInterval)
	}
	if want := day1.AddDate(0, 0, 1); !got.NextReviewDate.Equal(want) {
		t.Errorf("expected due date %v, got %v", want, got.NextReviewDate)
	}
}

func TestSchedule_HardIsNotALapse(t *testing.T) {
	// Hard maps to quality 3 and the lapse test is strictly quality < 3,
	// so Hard keeps repetition progress.
	state := State{RepetitionCount: 2, ReviewInterval: 6, EaseFactor: 2.5}

	got := Schedule(state, Hard, day1)

	if got.RepetitionCount != 3 {
		t.Errorf("expected repetition count 3, got %d", got.RepetitionCount)
	}
	if got.ReviewInterval != 15 {
		t.Errorf("expected interval round(6*2.5)=15, got %d", got.ReviewInterval)
	}
	// Hard still carries the standard SM-2 ease penalty: 2.5 - 0.14 = 2.36.
	if got.EaseFactor != 2.36 {
		t.Errorf("expected ease factor 2.36, got %v", got.EaseFactor)
	}
}

func TestSchedule_GraduatingIntervals(t *testing.T) {
	tests := []struct {
		name         string
		state        State
		rating       Rating
		wantInterval int
		wantReps     int
	}{
		{"first success uses one day", State{0, 1, 2.5}, Good, 1, 1},
		{"first success with Easy uses one day", State{0, 1, 2.5}, Easy, 1, 1},
		{"second success uses six days", State{1, 1, 2.5}, Good, 6, 2},
		{"second success with Easy uses six days", State{1, 1, 2.6}, Easy, 6, 2},
		{"third success multiplies by ease", State{2, 6, 2.5}, Good, 15, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Schedule(tt.state, tt.rating, day1)
			if got.ReviewInterval != tt.wantInterval {
				t.Errorf("interval = %d, want %d", got.ReviewInterval, tt.wantInterval)
			}
			if got.RepetitionCount != tt.wantReps {
				t.Errorf("repetition count = %d, want %d", got.RepetitionCount, tt.wantReps)
			}
		})
	}
}

func TestSchedule_ChainedReviews(t *testing.T) {
	first := Schedule(State{RepetitionCount: 0, ReviewInterval: 1, EaseFactor: 2.5}, Good, day1)
	if first.ReviewInterval != 1 {
		t.Fatalf("first interval = %d, want 1", first.ReviewInterval)
	}

	second := Schedule(first.State, Easy, day1.AddDate(0, 0, 1))
	if second.ReviewInterval != 6 {
		t.Errorf("second interval = %d, want 6", second.ReviewInterval)
	}
	if second.RepetitionCount != 2 {
		t.Errorf("second repetition count = %d, want 2", second.RepetitionCount)
	}
}

func TestSchedule_EaseFactorFloor(t *testing.T) {
	state := State{RepetitionCount: 5, ReviewInterval: 30, EaseFactor: 2.5}

	// Repeated lapses must never push the ease factor below 1.3.
	for i := 0; i < 20; i++ {
		result := Schedule(state, Again, day1)
		if result.EaseFactor < MinEaseFactor {
			t.Fatalf("ease factor %v fell below floor after %d lapses", result.EaseFactor, i+1)
		}
		state = result.State
	}
	if state.EaseFactor != MinEaseFactor {
		t.Errorf("expected ease factor pinned at %v, got %v", MinEaseFactor, state.EaseFactor)
	}
}

func TestSchedule_EaseFactorUpdatesOnLapse(t *testing.T) {
	// The ease update is independent of the interval reset: Again costs
	// the full quality-0 penalty of 0.8.
	got := Schedule(State{RepetitionCount: 3, ReviewInterval: 10, EaseFactor: 2.5}, Again, day1)
	if got.EaseFactor != 1.7 {
		t.Errorf("expected ease factor 1.7, got %v", got.EaseFactor)
	}
}

func TestSchedule_EaseFactorRounding(t *testing.T) {
	got := Schedule(State{RepetitionCount: 0, ReviewInterval: 1, EaseFactor: 2.5}, Good, day1)
	// Good is quality 4: 2.5 + (0.1 - 1*(0.08+0.02)) = 2.5 exactly.
	if got.EaseFactor != 2.5 {
		t.Errorf("expected ease factor 2.5, got %v", got.EaseFactor)
	}

	got = Schedule(State{RepetitionCount: 0, ReviewInterval: 1, EaseFactor: 2.5}, Easy, day1)
	if got.EaseFactor != 2.6 {
		t.Errorf("expected ease factor 2.6, got %v", got.EaseFactor)
	}
	if math.Round(got.EaseFactor*100) != got.EaseFactor*100 {
		t.Errorf("ease factor %v not rounded to 2 decimal places", got.EaseFactor)
	}
}

func TestSchedule_Deterministic(t *testing.T) {
	state := State{RepetitionCount: 2, ReviewInterval: 6, EaseFactor: 2.36}
	a := Schedule(state, Good, day1)
	b := Schedule(state, Good, day1)
	if a != b {
		t.Errorf("same inputs produced different outputs: %+v vs %+v", a, b)
	}
	if state.ReviewInterval != 6 || state.RepetitionCount != 2 {
		t.Errorf("input state was mutated: %+v", state)
	}
}

func TestSchedule_InvalidRatingDegradesToLapse(t *testing.T) {
	got := Schedule(State{RepetitionCount: 3, ReviewInterval: 12, EaseFactor: 2.2}, Rating(9), day1)
	if got.RepetitionCount != 0 || got.ReviewInterval != 1 {
		t.Errorf("expected lapse handling for invalid rating, got %+v", got.State)
	}
}

func TestSchedule_CalendarDayAddition(t *testing.T) {
	t.Run("month rollover", func(t *testing.T) {
		now := time.Date(2026, time.January, 31, 12, 0, 0, 0, time.UTC)
		got := Schedule(State{RepetitionCount: 0, ReviewInterval: 1, EaseFactor: 2.5}, Good, now)
		want := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
		if !got.NextReviewDate.Equal(want) {
			t.Errorf("due date = %v, want %v", got.NextReviewDate, want)
		}
	})

	t.Run("year rollover", func(t *testing.T) {
		now := time.Date(2026, time.December, 31, 12, 0, 0, 0, time.UTC)
		got := Schedule(State{RepetitionCount: 1, ReviewInterval: 1, EaseFactor: 2.5}, Good, now)
		want := time.Date(2027, time.January, 6, 12, 0, 0, 0, time.UTC)
		if !got.NextReviewDate.Equal(want) {
			t.Errorf("due date = %v, want %v", got.NextReviewDate, want)
		}
	})

	t.Run("DST transition keeps wall clock", func(t *testing.T) {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			t.Skip("tzdata unavailable")
		}
		// March 8 2026, the night the US springs forward.
		now := time.Date(2026, time.March, 7, 22, 0, 0, 0, loc)
		got := Schedule(State{RepetitionCount: 0, ReviewInterval: 1, EaseFactor: 2.5}, Good, now)
		if got.NextReviewDate.Day() != 8 || got.NextReviewDate.Hour() != 22 {
			t.Errorf("expected March 8 22:00 local, got %v", got.NextReviewDate)
		}
	})
}

func TestNewState(t *testing.T) {
	state := NewState()
	if state.RepetitionCount != 0 || state.ReviewInterval != 1 || state.EaseFactor != 2.5 {
		t.Errorf("unexpected initial state: %+v", state)
	}
}
