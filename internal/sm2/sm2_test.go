package sm2

import (
	"math"
	"testing"
	"time"
)

var today = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

func TestScheduleIntervalProgression(t *testing.T) {
	cases := []struct {
		name        string
		quality     int
		repetitions int
		interval    int
		easeFactor  float64
		wantInt     int
		wantReps    int
	}{
		{"first pass", 5, 0, 0, 2.5, 1, 1},
		{"second pass", 5, 1, 1, 2.5, 6, 2},
		{"third pass multiplies", 5, 2, 6, 2.5, 15, 3},
		{"fail resets", 0, 5, 30, 2.0, 1, 0},
		{"quality 3 still passes", 3, 0, 0, 2.5, 1, 1},
		{"quality 2 fails", 2, 2, 6, 2.5, 1, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Schedule(tc.quality, tc.repetitions, tc.interval, tc.easeFactor, today)
			if got.Interval != tc.wantInt {
				t.Errorf("interval = %d, want %d", got.Interval, tc.wantInt)
			}
			if got.Repetitions != tc.wantReps {
				t.Errorf("repetitions = %d, want %d", got.Repetitions, tc.wantReps)
			}
		})
	}
}

func TestScheduleEaseFactor(t *testing.T) {
	t.Run("perfect recall raises ease", func(t *testing.T) {
		got := Schedule(5, 0, 0, 2.5, today)
		if math.Abs(got.EaseFactor-2.6) > 1e-9 {
			t.Errorf("easeFactor = %v, want 2.6", got.EaseFactor)
		}
	})

	t.Run("adjusted on failure too", func(t *testing.T) {
		got := Schedule(0, 5, 30, 2.5, today)
		// 2.5 + (0.1 - 5*(0.08 + 5*0.02)) = 2.5 - 0.8 = 1.7
		if math.Abs(got.EaseFactor-1.7) > 1e-9 {
			t.Errorf("easeFactor = %v, want 1.7", got.EaseFactor)
		}
	})

	t.Run("never drops below the floor", func(t *testing.T) {
		for quality := 0; quality <= 5; quality++ {
			for _, ef := range []float64{1.3, 1.5, 2.0, 2.5, 3.0} {
				got := Schedule(quality, 2, 10, ef, today)
				if got.EaseFactor < MinEaseFactor {
					t.Errorf("Schedule(q=%d, ef=%v).EaseFactor = %v, below %v",
						quality, ef, got.EaseFactor, MinEaseFactor)
				}
			}
		}
	})

	t.Run("rounded to three decimals", func(t *testing.T) {
		got := Schedule(4, 2, 10, 2.333, today)
		scaled := got.EaseFactor * 1000
		if math.Abs(scaled-math.Round(scaled)) > 1e-9 {
			t.Errorf("easeFactor = %v, not rounded to 3 decimals", got.EaseFactor)
		}
	})
}

func TestScheduleDueDate(t *testing.T) {
	t.Run("due tomorrow after first pass", func(t *testing.T) {
		got := Schedule(5, 0, 0, 2.5, today)
		if got.DueDate != "2026-09-01" {
			t.Errorf("dueDate = %q, want 2026-09-01", got.DueDate)
		}
	})

	t.Run("due in six days after second pass", func(t *testing.T) {
		got := Schedule(5, 1, 1, 2.5, today)
		if got.DueDate != "2026-09-06" {
			t.Errorf("dueDate = %q, want 2026-09-06", got.DueDate)
		}
	})
}

func TestScheduleClampsQuality(t *testing.T) {
	low := Schedule(-3, 2, 6, 2.5, today)
	if low.Repetitions != 0 || low.Interval != 1 {
		t.Errorf("quality below range should fail the review, got %+v", low)
	}

	high := Schedule(9, 0, 0, 2.5, today)
	want := Schedule(5, 0, 0, 2.5, today)
	if high != want {
		t.Errorf("quality above range = %+v, want same as quality 5 %+v", high, want)
	}
}
