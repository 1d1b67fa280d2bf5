package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/memoline/memoline/internal/domain"
	"github.com/memoline/memoline/internal/report"
	"github.com/memoline/memoline/internal/repository"
)

// Server is the JSON facade over the practice store. It is the only
// surface the presentation layer may use; views never reach into the
// repository or the store directly. The server performs no recovery or
// retries: every failure maps to a status code and is returned to the
// caller to retry the triggering action.
type Server struct {
	repo     *repository.Repository
	reporter *report.Reporter
	router   *http.ServeMux
	validate *validator.Validate
	logger   *slog.Logger
}

// NewServer creates and configures a new server.
func NewServer(repo *repository.Repository, reporter *report.Reporter, logger *slog.Logger) *Server {
	s := &Server{
		repo:     repo,
		reporter: reporter,
		router:   http.NewServeMux(),
		validate: validator.New(),
		logger:   logger,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/api/texts", s.handleTexts())
	s.router.HandleFunc("/api/texts/", s.handleTextByID())
	s.router.HandleFunc("/api/lines/", s.handleUpdateLine())
	s.router.HandleFunc("/api/due", s.handleGetDue())
	s.router.HandleFunc("/api/stats", s.handleGetStats())
	s.router.HandleFunc("/api/practice", s.handleRecordPractice())
	s.router.HandleFunc("/api/", s.handleUnknownAction())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnknownAction):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) unknownAction(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, domain.ErrUnknownAction)
}

// handleUnknownAction catches every /api path no other route claims.
func (s *Server) handleUnknownAction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.unknownAction(w, r)
	}
}

// addTextRequest is the addText payload.
type addTextRequest struct {
	Title    string               `json:"title" validate:"required"`
	Category string               `json:"category" validate:"required"`
	Lines    []repository.NewLine `json:"lines" validate:"required,min=1"`
}

// handleTexts handles the collection: GET lists, POST creates.
func (s *Server) handleTexts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			texts, err := s.repo.ListTexts()
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusOK, texts)
		case http.MethodPost:
			var req addTextRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				s.writeError(w, r, domain.ErrInvalidArgument)
				return
			}
			if err := s.validate.Struct(req); err != nil {
				s.logger.Warn("addText payload invalid", "error", err)
				s.writeError(w, r, domain.ErrInvalidArgument)
				return
			}
			text, err := s.repo.CreateText(req.Title, req.Category, req.Lines)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusCreated, text)
		default:
			s.unknownAction(w, r)
		}
	}
}

// handleTextByID handles one text: GET fetches, POST patches metadata,
// DELETE removes the text and its embedded lines.
func (s *Server) handleTextByID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/texts/")

		if action, ok := strings.CutSuffix(rest, "/grade"); ok && r.Method == http.MethodPost {
			s.handleGradeText(w, r, action)
			return
		}

		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			s.unknownAction(w, r)
			return
		}

		switch r.Method {
		case http.MethodGet:
			text, err := s.repo.GetText(id)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusOK, text)
		case http.MethodPost:
			var patch repository.TextPatch
			if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
				s.writeError(w, r, domain.ErrInvalidArgument)
				return
			}
			text, err := s.repo.UpdateText(id, patch)
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusOK, text)
		case http.MethodDelete:
			if err := s.repo.DeleteText(id); err != nil {
				s.writeError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		default:
			s.unknownAction(w, r)
		}
	}
}

// gradeTextRequest carries one shared quality grade for every line of a text.
type gradeTextRequest struct {
	Quality int `json:"quality"`
}

// handleGradeText grades all lines of a text in one transaction, the
// batch alternative to issuing one updateLine call per line.
func (s *Server) handleGradeText(w http.ResponseWriter, r *http.Request, idPart string) {
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		s.unknownAction(w, r)
		return
	}
	var req gradeTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidArgument)
		return
	}
	text, err := s.repo.GradeLines(id, req.Quality)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, text)
}

// handleUpdateLine patches one line; a quality field in the payload
// reports a review outcome and runs the scheduler.
func (s *Server) handleUpdateLine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			s.unknownAction(w, r)
			return
		}
		lineID := strings.TrimPrefix(r.URL.Path, "/api/lines/")
		if lineID == "" {
			s.writeError(w, r, domain.ErrInvalidArgument)
			return
		}

		var patch repository.LinePatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			s.writeError(w, r, domain.ErrInvalidArgument)
			return
		}
		line, err := s.repo.UpdateLine(lineID, patch)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "line": line})
	}
}

// handleGetDue returns every line due today or earlier.
func (s *Server) handleGetDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.unknownAction(w, r)
			return
		}
		due, err := s.reporter.DueLines(domain.Today())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, due)
	}
}

// handleGetStats returns aggregate mastery statistics and the streak.
func (s *Server) handleGetStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			s.unknownAction(w, r)
			return
		}
		stats, err := s.reporter.Stats(domain.Today())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, stats)
	}
}

// handleRecordPractice marks today as practiced for streak purposes.
func (s *Server) handleRecordPractice() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			s.unknownAction(w, r)
			return
		}
		if err := s.repo.RecordPractice(); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
