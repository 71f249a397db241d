package http

import (
	"errors"
	"net/http"
	"net/url"

	"bankit/internal/core"
	"bankit/internal/ledger"
	"bankit/internal/log"
	"bankit/internal/services"
)

type listPage struct {
	Title         string
	View          *services.AccountView
	CategoryNames map[int64]string
	Today         core.Date
	Prev, Next    string
}

// handleList renders the reconciled history of the requested window and,
// when it reaches today, the projected months.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := s.account.Overview(r.Context(), sanitizeInput(q.Get("startDate")), sanitizeInput(q.Get("endDate")))
	if errors.Is(err, ledger.ErrAccountNotInitialized) {
		http.Redirect(w, r, "/account/init", http.StatusFound)
		return
	}
	if err != nil {
		s.fail(w, r, "list", err)
		return
	}

	start, end := core.MonthOf(view.Window.Start), core.MonthOf(view.Window.End)
	s.render(w, r, http.StatusOK, "list", listPage{
		Title:         "Account",
		View:          view,
		CategoryNames: categoryNames(view.Categories),
		Today:         s.account.Today(),
		Prev:          windowQuery(start.Add(-1), end.Add(-1)),
		Next:          windowQuery(start.Add(1), end.Add(1)),
	})
}

func windowQuery(start, end core.Month) string {
	v := url.Values{}
	v.Set("startDate", start.String())
	v.Set("endDate", end.String())
	return "/account/list?" + v.Encode()
}

// handleListJSON serves the same view as handleList. An account that was
// never initialized answers 409.
func (s *Server) handleListJSON(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := s.account.Overview(r.Context(), sanitizeInput(q.Get("startDate")), sanitizeInput(q.Get("endDate")))
	if errors.Is(err, ledger.ErrAccountNotInitialized) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		log.LogError(r.Context(), "Overview failed", err, log.ComponentHTTP, "list.json", nil)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type addPage struct {
	Title      string
	Error      string
	Date       string
	Label      string
	Amount     string
	Debit      bool
	CategoryID int64
	Categories []core.Category
}

func (s *Server) handleAddForm(w http.ResponseWriter, r *http.Request) {
	cats, err := s.account.Categories(r.Context())
	if err != nil {
		s.fail(w, r, "add form", err)
		return
	}
	s.render(w, r, http.StatusOK, "add", addPage{
		Title:      "Plan an operation",
		Date:       formatDate(s.account.Today()),
		Debit:      true,
		Categories: cats,
	})
}

// handleAdd stores a planned operation. Invalid input re-renders the form
// with the submitted values.
func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	page := addPage{
		Title:  "Plan an operation",
		Date:   sanitizeInput(r.PostFormValue("date")),
		Label:  sanitizeInput(r.PostFormValue("label")),
		Amount: sanitizeInput(r.PostFormValue("amount")),
		Debit:  r.PostFormValue("type") != "credit",
	}

	in, err := s.plannedInput(r, &page)
	if err == nil {
		_, err = s.account.AddPlanned(r.Context(), in)
	}
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.fail(w, r, "add", err)
			return
		}
		page.Error = err.Error()
		page.Categories, _ = s.account.Categories(r.Context())
		s.render(w, r, status, "add", page)
		return
	}

	http.Redirect(w, r, "/account/list", http.StatusSeeOther)
}

func (s *Server) plannedInput(r *http.Request, page *addPage) (services.PlannedInput, error) {
	var in services.PlannedInput
	date, err := parseFormDate(page.Date, s.account.Today())
	if err != nil {
		return in, err
	}
	if date.IsZero() {
		date = s.account.Today()
	}
	amount, err := parseFormAmount(page.Amount)
	if err != nil {
		return in, err
	}
	page.CategoryID, err = parseFormID(r.PostFormValue("category"))
	if err != nil {
		return in, err
	}
	return services.PlannedInput{
		Date:       date,
		Label:      page.Label,
		Amount:     amount,
		Debit:      page.Debit,
		CategoryID: page.CategoryID,
	}, nil
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "opId")
	if err != nil {
		s.fail(w, r, "delete", err)
		return
	}
	if _, err := s.account.DeleteOperation(r.Context(), id); err != nil {
		s.fail(w, r, "delete", err)
		return
	}
	http.Redirect(w, r, "/account/list", http.StatusSeeOther)
}

func (s *Server) handleUnmerge(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "opId")
	if err != nil {
		s.fail(w, r, "unmerge", err)
		return
	}
	if _, err := s.account.Unmerge(r.Context(), id); err != nil {
		s.fail(w, r, "unmerge", err)
		return
	}
	http.Redirect(w, r, "/account/list", http.StatusSeeOther)
}

type initPage struct {
	Title  string
	Error  string
	Date   string
	Label  string
	Amount string
}

func (s *Server) handleInitForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "init", initPage{
		Title: "Initialize the account",
		Date:  formatDate(s.account.Today()),
		Label: services.DefaultInitLabel,
	})
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	page := initPage{
		Title:  "Initialize the account",
		Date:   sanitizeInput(r.PostFormValue("date")),
		Label:  sanitizeInput(r.PostFormValue("label")),
		Amount: sanitizeInput(r.PostFormValue("amount")),
	}

	err := func() error {
		date, err := parseFormDate(page.Date, s.account.Today())
		if err != nil {
			return err
		}
		amount, err := parseFormAmount(page.Amount)
		if err != nil {
			return err
		}
		_, err = s.account.InitAccount(r.Context(), services.InitInput{Date: date, Label: page.Label, Amount: amount})
		return err
	}()
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.fail(w, r, "init", err)
			return
		}
		page.Error = err.Error()
		s.render(w, r, status, "init", page)
		return
	}

	http.Redirect(w, r, "/account/list", http.StatusSeeOther)
}

type updateCategoryResponse struct {
	IsOk  bool   `json:"isOk"`
	Error string `json:"error,omitempty"`
}

// handleUpdateCategory assigns category cat to operation op; cat -1 clears
// it.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, updateCategoryResponse{Error: "invalid form data"})
		return
	}
	opID, err := parseFormID(r.PostFormValue("op"))
	if err != nil || opID <= 0 {
		writeJSON(w, http.StatusBadRequest, updateCategoryResponse{Error: "invalid operation id"})
		return
	}
	catID, err := parseFormID(r.PostFormValue("cat"))
	if err != nil || catID == 0 || catID < services.ClearCategory {
		writeJSON(w, http.StatusBadRequest, updateCategoryResponse{Error: "invalid category id"})
		return
	}

	if err := s.account.AssignCategory(r.Context(), opID, catID); err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			log.LogError(r.Context(), "Category update failed", err, log.ComponentHTTP, "update_cat",
				log.NewFields().WithLedgerOperation(opID, "", "", "", ""))
			msg = "internal server error"
		}
		writeJSON(w, status, updateCategoryResponse{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, updateCategoryResponse{IsOk: true})
}
