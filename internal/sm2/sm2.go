package sm2

import (
	"math"
	"time"
)

// Quality grades run from 0 (total blackout) to 5 (perfect recall).
// A grade of PassThreshold or above counts as a successful review.
const (
	MinQuality    = 0
	MaxQuality    = 5
	PassThreshold = 3
)

// MinEaseFactor is the floor the ease factor can never drop below.
const MinEaseFactor = 1.3

// InitialEaseFactor is the ease factor assigned to a brand-new line.
const InitialEaseFactor = 2.5

// Result is the scheduling state produced by a review.
type Result struct {
	Interval    int
	Repetitions int
	EaseFactor  float64
	DueDate     string
}

// Schedule applies one SM-2 review to a line's current scheduling state and
// returns the next state. It depends only on its inputs, so it is safe to
// call for batch grading of many lines with one shared quality grade.
//
// Quality outside [0,5] is clamped. The ease factor is adjusted on every
// review, pass or fail, and never drops below MinEaseFactor.
func Schedule(quality, repetitions, interval int, easeFactor float64, today time.Time) Result {
	if quality < MinQuality {
		quality = MinQuality
	}
	if quality > MaxQuality {
		quality = MaxQuality
	}

	var next Result
	if quality >= PassThreshold {
		switch repetitions {
		case 0:
			next.Interval = 1
		case 1:
			next.Interval = 6
		default:
			next.Interval = int(math.Round(float64(interval) * easeFactor))
		}
		next.Repetitions = repetitions + 1
	} else {
		next.Repetitions = 0
		next.Interval = 1
	}

	q := float64(quality)
	ef := easeFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < MinEaseFactor {
		ef = MinEaseFactor
	}
	next.EaseFactor = math.Round(ef*1000) / 1000

	next.DueDate = today.AddDate(0, 0, next.Interval).Format("2006-01-02")
	return next
}
