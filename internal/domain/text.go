package domain

// MasteryLevel summarizes a line's review history.
type MasteryLevel string

const (
	MasteryNew      MasteryLevel = "new"
	MasteryLearning MasteryLevel = "learning"
	MasteryMastered MasteryLevel = "mastered"
)

// Categories a text can belong to.
const (
	CategoryPrayer    = "Prayer"
	CategoryPoem      = "Poem"
	CategoryScripture = "Scripture"
	CategorySpeech    = "Speech"
	CategoryLyrics    = "Lyrics"
	CategoryQuote     = "Quote"
	CategoryOther     = "Other"
)

// Categories lists every valid text category.
var Categories = []string{
	CategoryPrayer,
	CategoryPoem,
	CategoryScripture,
	CategorySpeech,
	CategoryLyrics,
	CategoryQuote,
	CategoryOther,
}

// ValidCategory reports whether name is one of the fixed categories.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

// Line is one memorizable unit of text with its own review schedule.
// Its ID embeds the parent text id and the line's position, see LineKey.
type Line struct {
	ID            string       `json:"id"`
	Text          string       `json:"text"`
	Translation   string       `json:"translation"`
	Pronunciation string       `json:"pronunciation"`
	Interval      int          `json:"interval"`
	Repetitions   int          `json:"repetitions"`
	EaseFactor    float64      `json:"easeFactor"`
	DueDate       string       `json:"dueDate"`
	MasteryLevel  MasteryLevel `json:"masteryLevel"`
}

// Text is an ordered collection of lines with shared metadata. Line order
// is meaningful: it defines each line's index and therefore its id, so
// lines are never reordered or removed individually after creation.
//
// LineCount and MasteryPercent are annotations recomputed on every load;
// they are never read back from storage.
type Text struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	DateAdded      string `json:"dateAdded"`
	Lines          []Line `json:"lines"`
	LineCount      int    `json:"lineCount"`
	MasteryPercent int    `json:"masteryPercent"`
}

// MasteredLines counts the lines currently classified as mastered.
func (t *Text) MasteredLines() int {
	n := 0
	for i := range t.Lines {
		if t.Lines[i].MasteryLevel == MasteryMastered {
			n++
		}
	}
	return n
}

// Annotate recomputes the derived LineCount and MasteryPercent fields.
func (t *Text) Annotate() {
	t.LineCount = len(t.Lines)
	t.MasteryPercent = MasteryPercent(t.MasteredLines(), t.LineCount)
}

// MasteryPercent returns round(100 * mastered / total), or 0 when total is 0.
func MasteryPercent(mastered, total int) int {
	if total == 0 {
		return 0
	}
	return int(float64(mastered)/float64(total)*100 + 0.5)
}

// ClassifyMastery derives a line's mastery level from its scheduling state.
// It is the only classifier; every path that writes scheduling fields must
// call it rather than setting MasteryLevel directly.
func ClassifyMastery(repetitions, interval int) MasteryLevel {
	switch {
	case repetitions >= 3 && interval >= 21:
		return MasteryMastered
	case repetitions >= 1:
		return MasteryLearning
	default:
		return MasteryNew
	}
}

// Session marks that the user practiced on a calendar date.
type Session struct {
	Date string `json:"date"`
}
