package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/memoline/memoline/internal/domain"
	"github.com/memoline/memoline/internal/report"
	"github.com/memoline/memoline/internal/repository"
	"github.com/memoline/memoline/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	repo := repository.New(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(repo, report.New(repo), logger)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response failed: %v (body %s)", err, w.Body.String())
	}
	return v
}

func addText(t *testing.T, s *Server, title string, lines ...string) domain.Text {
	t.Helper()
	newLines := make([]repository.NewLine, len(lines))
	for i, l := range lines {
		newLines[i] = repository.NewLine{Text: l}
	}
	w := doJSON(t, s, http.MethodPost, "/api/texts", addTextRequest{
		Title:    title,
		Category: domain.CategoryPoem,
		Lines:    newLines,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("addText: status = %d, body %s", w.Code, w.Body.String())
	}
	return decode[domain.Text](t, w)
}

func TestAddAndGetText(t *testing.T) {
	s := newTestServer(t)

	created := addText(t, s, "If", "line one", "line two")
	if created.LineCount != 2 {
		t.Fatalf("lineCount = %d, want 2", created.LineCount)
	}

	w := doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/texts/%d", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("getText: status = %d", w.Code)
	}
	got := decode[domain.Text](t, w)
	if got.Title != "If" || len(got.Lines) != 2 {
		t.Errorf("got %+v, want the created text back", got)
	}
	if got.Lines[0].ID != fmt.Sprintf("%d_0", created.ID) {
		t.Errorf("line id = %q, want %d_0", got.Lines[0].ID, created.ID)
	}

	w = doJSON(t, s, http.MethodGet, "/api/texts", nil)
	texts := decode[[]domain.Text](t, w)
	if len(texts) != 1 {
		t.Errorf("listTexts returned %d texts, want 1", len(texts))
	}
}

func TestAddTextValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		body any
	}{
		{"not json", "plainly not json"},
		{"missing title", map[string]any{"category": "Poem", "lines": []map[string]string{{"text": "a"}}}},
		{"no lines", map[string]any{"title": "T", "category": "Poem", "lines": []any{}}},
		{"bad category", map[string]any{"title": "T", "category": "Recipes", "lines": []map[string]string{{"text": "a"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/texts", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestGetTextNotFound(t *testing.T) {
	s := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/texts/123", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateText(t *testing.T) {
	s := newTestServer(t)
	created := addText(t, s, "Old", "a")

	w := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/texts/%d", created.ID),
		map[string]string{"title": "New"})
	if w.Code != http.StatusOK {
		t.Fatalf("updateText: status = %d, body %s", w.Code, w.Body.String())
	}
	got := decode[domain.Text](t, w)
	if got.Title != "New" || got.ID != created.ID {
		t.Errorf("got %+v, want renamed text with same id", got)
	}
}

func TestUpdateLine(t *testing.T) {
	s := newTestServer(t)
	created := addText(t, s, "T", "a", "b")

	lineID := fmt.Sprintf("%d_1", created.ID)
	w := doJSON(t, s, http.MethodPut, "/api/lines/"+lineID,
		map[string]int{"repetitions": 3, "interval": 21})
	if w.Code != http.StatusOK {
		t.Fatalf("updateLine: status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		OK   bool        `json:"ok"`
		Line domain.Line `json:"line"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response failed: %v", err)
	}
	if !resp.OK || resp.Line.MasteryLevel != domain.MasteryMastered {
		t.Errorf("resp = %+v, want ok with mastered line", resp)
	}

	w = doJSON(t, s, http.MethodPut, "/api/lines/999_0", map[string]int{"repetitions": 1})
	if w.Code != http.StatusNotFound {
		t.Errorf("missing parent: status = %d, want 404", w.Code)
	}
}

func TestReviewFlow(t *testing.T) {
	s := newTestServer(t)
	created := addText(t, s, "T", "a")

	// All new lines start due.
	w := doJSON(t, s, http.MethodGet, "/api/due", nil)
	due := decode[report.DueReport](t, w)
	if due.Count != 1 {
		t.Fatalf("due count = %d, want 1", due.Count)
	}
	if due.Lines[0].TextTitle != "T" {
		t.Errorf("due line missing parent title: %+v", due.Lines[0])
	}

	// A perfect grade schedules the line for tomorrow.
	lineID := fmt.Sprintf("%d_0", created.ID)
	w = doJSON(t, s, http.MethodPut, "/api/lines/"+lineID, map[string]int{"quality": 5})
	if w.Code != http.StatusOK {
		t.Fatalf("grade: status = %d, body %s", w.Code, w.Body.String())
	}

	w = doJSON(t, s, http.MethodGet, "/api/due", nil)
	due = decode[report.DueReport](t, w)
	if due.Count != 0 {
		t.Errorf("due count after grading = %d, want 0", due.Count)
	}

	// Record the practice session and see it in the stats.
	w = doJSON(t, s, http.MethodPost, "/api/practice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("recordPractice: status = %d", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, "/api/stats", nil)
	stats := decode[report.Stats](t, w)
	if stats.Streak != 1 {
		t.Errorf("streak = %d, want 1", stats.Streak)
	}
	if stats.LearningCount != 1 {
		t.Errorf("learningCount = %d, want 1", stats.LearningCount)
	}
}

func TestGradeWholeText(t *testing.T) {
	s := newTestServer(t)
	created := addText(t, s, "T", "a", "b", "c")

	w := doJSON(t, s, http.MethodPost, fmt.Sprintf("/api/texts/%d/grade", created.ID),
		map[string]int{"quality": 4})
	if w.Code != http.StatusOK {
		t.Fatalf("grade: status = %d, body %s", w.Code, w.Body.String())
	}
	got := decode[domain.Text](t, w)
	for i, line := range got.Lines {
		if line.Repetitions != 1 {
			t.Errorf("line %d repetitions = %d, want 1", i, line.Repetitions)
		}
	}
}

func TestDeleteText(t *testing.T) {
	s := newTestServer(t)
	created := addText(t, s, "T", "a")

	w := doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/texts/%d", created.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("deleteText: status = %d", w.Code)
	}
	w = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/texts/%d", created.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", w.Code)
	}
}

func TestUnknownAction(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/api/nope"},
		{http.MethodPatch, "/api/texts"},
		{http.MethodGet, "/api/texts/not-a-number"},
		{http.MethodPost, "/api/due"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := doJSON(t, s, tc.method, tc.path, nil)
			if w.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", w.Code)
			}
		})
	}
}
