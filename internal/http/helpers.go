package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bankit/internal/core"
	"bankit/internal/log"
	"bankit/internal/services"
)

// formDateLayout is how dates are shown in and read back from forms.
const formDateLayout = "02/01/2006"

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// parseFormDate reads dd/MM (in the year of today), dd/MM/yyyy or the
// yyyy-MM-dd value of a date input. An empty value yields the zero Date.
func parseFormDate(s string, today core.Date) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	if strings.Count(s, "/") == 1 {
		s = fmt.Sprintf("%s/%d", s, today.Year())
	}
	if strings.Contains(s, "/") {
		t, err := time.Parse("2/1/2006", s)
		if err != nil {
			return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, s)
		}
		return core.DateOf(t), nil
	}
	return core.ParseDate(s)
}

// parseFormAmount reads an optional amount. Blank input is absent.
func parseFormAmount(s string) (core.NullMoney, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.NullMoney{}, nil
	}
	m, err := core.ParseAmount(s)
	if err != nil {
		return core.NullMoney{}, err
	}
	return core.Some(m), nil
}

// parseFormID reads an id field; blank means none.
func parseFormID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errBadID, s)
	}
	return id, nil
}

var errBadID = errors.New("invalid id")

func urlID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// statusFor maps service errors to response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrOperationNotFound),
		errors.Is(err, core.ErrCategoryNotFound),
		errors.Is(err, core.ErrCostNotFound):
		return http.StatusNotFound
	case services.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInconsistentOperation):
		return http.StatusConflict
	case errors.Is(err, errBadID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail logs err and answers with the matching status. Internal details are
// never sent to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.LogError(r.Context(), "Request failed", err, log.ComponentHTTP, operation, nil)
		http.Error(w, "Internal server error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

// render executes a page template into a buffer first so that a template
// error still produces a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.LogError(r.Context(), "Template render failed", err, log.ComponentTemplate, name, nil)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func categoryNames(cats []core.Category) map[int64]string {
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}
	return names
}
