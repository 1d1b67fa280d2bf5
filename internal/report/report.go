package report

import (
	"github.com/memoline/memoline/internal/domain"
	"github.com/memoline/memoline/internal/repository"
)

// Reporter answers the cross-text queries: which lines are due, aggregate
// mastery statistics, and the practice streak. It only reads; all writes
// go through the repository.
type Reporter struct {
	repo *repository.Repository
}

// New creates a reporter over the repository.
func New(repo *repository.Repository) *Reporter {
	return &Reporter{repo: repo}
}

// DueLine is a due line annotated with its parent text.
type DueLine struct {
	domain.Line
	TextID    int64  `json:"textId"`
	TextTitle string `json:"textTitle"`
}

// DueReport lists every line whose review date has arrived or passed.
type DueReport struct {
	Count int       `json:"count"`
	Lines []DueLine `json:"lines"`
}

// TextBreakdown is the per-text slice of the aggregate statistics.
type TextBreakdown struct {
	TextID         int64  `json:"textId"`
	Title          string `json:"title"`
	LineCount      int    `json:"lineCount"`
	MasteryPercent int    `json:"masteryPercent"`
}

// Stats aggregates mastery across all texts plus the practice streak.
type Stats struct {
	TextCount     int             `json:"textCount"`
	LineCount     int             `json:"lineCount"`
	NewCount      int             `json:"newCount"`
	LearningCount int             `json:"learningCount"`
	MasteredCount int             `json:"masteredCount"`
	Texts         []TextBreakdown `json:"texts"`
	Streak        int             `json:"streak"`
}

// DueLines scans every text and returns the lines due on or before today.
// A line with no due date at all counts as due.
func (r *Reporter) DueLines(today string) (*DueReport, error) {
	texts, err := r.repo.ListTexts()
	if err != nil {
		return nil, err
	}
	due := &DueReport{Lines: []DueLine{}}
	for _, t := range texts {
		for _, line := range t.Lines {
			// ISO date strings order lexically, so <= is a date comparison.
			if line.DueDate == "" || line.DueDate <= today {
				due.Lines = append(due.Lines, DueLine{
					Line:      line,
					TextID:    t.ID,
					TextTitle: t.Title,
				})
			}
		}
	}
	due.Count = len(due.Lines)
	return due, nil
}

// Stats produces the aggregate mastery statistics and the streak in a
// single pass over all texts. Texts without lines are counted in the
// totals but excluded from the per-text breakdown.
func (r *Reporter) Stats(today string) (*Stats, error) {
	texts, err := r.repo.ListTexts()
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TextCount: len(texts),
		Texts:     []TextBreakdown{},
	}
	for _, t := range texts {
		stats.LineCount += len(t.Lines)
		for _, line := range t.Lines {
			switch line.MasteryLevel {
			case domain.MasteryMastered:
				stats.MasteredCount++
			case domain.MasteryLearning:
				stats.LearningCount++
			default:
				stats.NewCount++
			}
		}
		if len(t.Lines) == 0 {
			continue
		}
		stats.Texts = append(stats.Texts, TextBreakdown{
			TextID:         t.ID,
			Title:          t.Title,
			LineCount:      len(t.Lines),
			MasteryPercent: domain.MasteryPercent(t.MasteredLines(), len(t.Lines)),
		})
	}

	streak, err := r.Streak(today)
	if err != nil {
		return nil, err
	}
	stats.Streak = streak
	return stats, nil
}

// Streak counts consecutive practiced days ending today or yesterday. A
// most recent session older than yesterday means the streak is broken; any
// gap in the run before it ends the count.
func (r *Reporter) Streak(today string) (int, error) {
	dates, err := r.repo.SessionDates()
	if err != nil {
		return 0, err
	}
	if len(dates) == 0 {
		return 0, nil
	}

	yesterday, err := domain.AddDays(today, -1)
	if err != nil {
		return 0, err
	}
	// SessionDates is ordered most recent first.
	if dates[0] != today && dates[0] != yesterday {
		return 0, nil
	}

	streak := 1
	expected, err := domain.AddDays(dates[0], -1)
	if err != nil {
		return 0, err
	}
	for _, d := range dates[1:] {
		if d != expected {
			break
		}
		streak++
		expected, err = domain.AddDays(expected, -1)
		if err != nil {
			return 0, err
		}
	}
	return streak, nil
}
