package repository

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/memoline/memoline/internal/domain"
	"github.com/memoline/memoline/internal/sm2"
	"github.com/memoline/memoline/internal/storage"
)

// Repository maps texts, lines and sessions onto the durable store. It owns
// the JSON record encoding and the composite line-id scheme; callers never
// touch the store directly.
//
// Concurrency contract: every mutation of a text serializes on a per-text
// mutex, so concurrent UpdateLine calls against distinct lines of the same
// text are applied one after another with no lost update. Operations on
// different texts are independent.
type Repository struct {
	db *storage.DB

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates a repository over an open store handle.
func New(db *storage.DB) *Repository {
	return &Repository{
		db:    db,
		locks: make(map[int64]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing writes to one text.
func (r *Repository) lockFor(textID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[textID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[textID] = l
	}
	return l
}

// NewLine is the raw content for one line of a new text.
type NewLine struct {
	Text          string `json:"text"`
	Pronunciation string `json:"pronunciation"`
	Translation   string `json:"translation"`
}

// TextPatch is a partial update of a text's metadata.
type TextPatch struct {
	Title    *string `json:"title"`
	Category *string `json:"category"`
}

// LinePatch is a partial update of one line. Quality, when present, reports
// a review outcome: the SM-2 scheduler is applied to the line's current
// scheduling state after any explicit field patches. The line id is never
// patchable.
type LinePatch struct {
	Text          *string  `json:"text"`
	Translation   *string  `json:"translation"`
	Pronunciation *string  `json:"pronunciation"`
	Interval      *int     `json:"interval"`
	Repetitions   *int     `json:"repetitions"`
	EaseFactor    *float64 `json:"easeFactor"`
	DueDate       *string  `json:"dueDate"`
	Quality       *int     `json:"quality"`
}

func decodeText(row storage.TextRow) (*domain.Text, error) {
	var t domain.Text
	if err := json.Unmarshal(row.Record, &t); err != nil {
		return nil, fmt.Errorf("%w: corrupt record for text %d: %v", domain.ErrStorageUnavailable, row.ID, err)
	}
	t.ID = row.ID // the row key is authoritative
	t.Annotate()
	return &t, nil
}

func (r *Repository) writeText(t *domain.Text) error {
	t.Annotate()
	record, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("%w: encode text %d: %v", domain.ErrStorageUnavailable, t.ID, err)
	}
	return r.db.UpsertText(t.ID, record)
}

// ListTexts returns every stored text, annotated with line count and
// mastery percentage.
func (r *Repository) ListTexts() ([]domain.Text, error) {
	rows, err := r.db.GetAllTexts()
	if err != nil {
		return nil, err
	}
	texts := make([]domain.Text, 0, len(rows))
	for _, row := range rows {
		t, err := decodeText(row)
		if err != nil {
			return nil, err
		}
		texts = append(texts, *t)
	}
	return texts, nil
}

// GetText returns one annotated text by id.
func (r *Repository) GetText(id int64) (*domain.Text, error) {
	record, err := r.db.GetText(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: text %d", domain.ErrNotFound, id)
	}
	return decodeText(storage.TextRow{ID: id, Record: record})
}

// CreateText stores a new text with all its lines in one logical operation.
//
// The insert happens in two phases: a placeholder record is written first
// to obtain the generated text id, because each line id embeds that id and
// the store is the only source of fresh ids. The placeholder is then
// overwritten with the complete record.
func (r *Repository) CreateText(title, category string, rawLines []NewLine) (*domain.Text, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidArgument)
	}
	if !domain.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidArgument, category)
	}

	today := domain.Today()
	t := domain.Text{
		Title:     title,
		Category:  category,
		DateAdded: today,
		Lines:     []domain.Line{},
	}

	// Phase 1: reserve an id.
	placeholder, err := json.Marshal(&t)
	if err != nil {
		return nil, fmt.Errorf("%w: encode placeholder: %v", domain.ErrStorageUnavailable, err)
	}
	id, err := r.db.InsertText(placeholder)
	if err != nil {
		return nil, err
	}
	t.ID = id

	// Phase 2: build the lines against the reserved id and finalize.
	t.Lines = make([]domain.Line, 0, len(rawLines))
	for i, raw := range rawLines {
		t.Lines = append(t.Lines, domain.Line{
			ID:            domain.LineKey(id, i),
			Text:          raw.Text,
			Pronunciation: raw.Pronunciation,
			Translation:   raw.Translation,
			Interval:      0,
			Repetitions:   0,
			EaseFactor:    sm2.InitialEaseFactor,
			DueDate:       today,
			MasteryLevel:  domain.ClassifyMastery(0, 0),
		})
	}
	if err := r.writeText(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateText merges a metadata patch over an existing text. The id is
// never overwritten.
func (r *Repository) UpdateText(id int64, patch TextPatch) (*domain.Text, error) {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	t, err := r.GetText(id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", domain.ErrInvalidArgument)
		}
		t.Title = title
	}
	if patch.Category != nil {
		if !domain.ValidCategory(*patch.Category) {
			return nil, fmt.Errorf("%w: unknown category %q", domain.ErrInvalidArgument, *patch.Category)
		}
		t.Category = *patch.Category
	}
	if err := r.writeText(t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateLine applies a patch to one line, reclassifies its mastery level,
// and writes the whole parent text back. The read-modify-write holds the
// parent's mutex for its full duration.
func (r *Repository) UpdateLine(lineID string, patch LinePatch) (*domain.Line, error) {
	textID, index, err := domain.ParseLineKey(lineID)
	if err != nil {
		return nil, err
	}

	lock := r.lockFor(textID)
	lock.Lock()
	defer lock.Unlock()

	t, err := r.GetText(textID)
	if err != nil {
		return nil, err
	}
	if index >= len(t.Lines) {
		return nil, fmt.Errorf("%w: line %s (text has %d lines)", domain.ErrNotFound, lineID, len(t.Lines))
	}

	line := &t.Lines[index]
	if err := applyLinePatch(line, patch); err != nil {
		return nil, err
	}
	line.MasteryLevel = domain.ClassifyMastery(line.Repetitions, line.Interval)

	if err := r.writeText(t); err != nil {
		return nil, err
	}
	updated := *line
	return &updated, nil
}

func applyLinePatch(line *domain.Line, patch LinePatch) error {
	if patch.Text != nil {
		line.Text = *patch.Text
	}
	if patch.Translation != nil {
		line.Translation = *patch.Translation
	}
	if patch.Pronunciation != nil {
		line.Pronunciation = *patch.Pronunciation
	}
	if patch.Interval != nil {
		if *patch.Interval < 0 {
			return fmt.Errorf("%w: interval must not be negative", domain.ErrInvalidArgument)
		}
		line.Interval = *patch.Interval
	}
	if patch.Repetitions != nil {
		if *patch.Repetitions < 0 {
			return fmt.Errorf("%w: repetitions must not be negative", domain.ErrInvalidArgument)
		}
		line.Repetitions = *patch.Repetitions
	}
	if patch.EaseFactor != nil {
		if *patch.EaseFactor < sm2.MinEaseFactor {
			return fmt.Errorf("%w: easeFactor below %v", domain.ErrInvalidArgument, sm2.MinEaseFactor)
		}
		line.EaseFactor = *patch.EaseFactor
	}
	if patch.DueDate != nil {
		if _, err := domain.ParseDate(*patch.DueDate); err != nil {
			return err
		}
		line.DueDate = *patch.DueDate
	}
	if patch.Quality != nil {
		next := sm2.Schedule(*patch.Quality, line.Repetitions, line.Interval, line.EaseFactor, time.Now())
		line.Interval = next.Interval
		line.Repetitions = next.Repetitions
		line.EaseFactor = next.EaseFactor
		line.DueDate = next.DueDate
	}
	return nil
}

// GradeLines grades every line of a text with one shared quality in a
// single read-modify-write, for flows that review a whole text at once.
func (r *Repository) GradeLines(textID int64, quality int) (*domain.Text, error) {
	lock := r.lockFor(textID)
	lock.Lock()
	defer lock.Unlock()

	t, err := r.GetText(textID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for i := range t.Lines {
		line := &t.Lines[i]
		next := sm2.Schedule(quality, line.Repetitions, line.Interval, line.EaseFactor, now)
		line.Interval = next.Interval
		line.Repetitions = next.Repetitions
		line.EaseFactor = next.EaseFactor
		line.DueDate = next.DueDate
		line.MasteryLevel = domain.ClassifyMastery(line.Repetitions, line.Interval)
	}
	if err := r.writeText(t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteText removes a text and, since lines are embedded in its record,
// all of its lines with it.
func (r *Repository) DeleteText(id int64) error {
	lock := r.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	record, err := r.db.GetText(id)
	if err != nil {
		return err
	}
	if record == nil {
		return fmt.Errorf("%w: text %d", domain.ErrNotFound, id)
	}
	return r.db.DeleteText(id)
}

// RecordPractice marks today as practiced. Calling it again on the same
// day is a no-op.
func (r *Repository) RecordPractice() error {
	return r.db.UpsertSession(domain.Today())
}

// SessionDates returns every practiced date, most recent first.
func (r *Repository) SessionDates() ([]string, error) {
	return r.db.GetAllSessions()
}
