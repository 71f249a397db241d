package http

import (
	"net/http"
	"strconv"
	"strings"

	"bankit/internal/core"
)

type categoriesPage struct {
	Title      string
	Error      string
	Name       string
	Categories []core.Category
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.account.Categories(r.Context())
	if err != nil {
		s.fail(w, r, "categories", err)
		return
	}
	s.render(w, r, http.StatusOK, "categories", categoriesPage{Title: "Categories", Categories: cats})
}

func (s *Server) handleCategoryForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "category_add", categoriesPage{Title: "New category"})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	name := sanitizeInput(r.PostFormValue("name"))
	if _, err := s.account.AddCategory(r.Context(), name); err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.fail(w, r, "add category", err)
			return
		}
		s.render(w, r, status, "category_add", categoriesPage{Title: "New category", Error: err.Error(), Name: name})
		return
	}
	http.Redirect(w, r, "/options/category", http.StatusSeeOther)
}

type costsPage struct {
	Title         string
	Error         string
	Costs         []core.Cost
	Categories    []core.Category
	CategoryNames map[int64]string

	Day        string
	Label      string
	Amount     string
	CategoryID int64
}

func (s *Server) loadCostsPage(r *http.Request, page *costsPage) error {
	costs, err := s.account.Costs(r.Context())
	if err != nil {
		return err
	}
	cats, err := s.account.Categories(r.Context())
	if err != nil {
		return err
	}
	page.Title = "Monthly costs"
	page.Costs = costs
	page.Categories = cats
	page.CategoryNames = categoryNames(cats)
	return nil
}

func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	var page costsPage
	if err := s.loadCostsPage(r, &page); err != nil {
		s.fail(w, r, "costs", err)
		return
	}
	s.render(w, r, http.StatusOK, "costs", page)
}

// handleAddCost stores a recurring cost. The amount is signed: expenses are
// negative.
func (s *Server) handleAddCost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	page := costsPage{
		Day:    sanitizeInput(r.PostFormValue("day")),
		Label:  sanitizeInput(r.PostFormValue("label")),
		Amount: sanitizeInput(r.PostFormValue("amount")),
	}

	err := func() error {
		day, err := strconv.Atoi(strings.TrimSpace(page.Day))
		if err != nil {
			return core.ErrInvalidDay
		}
		amount, err := core.ParseAmount(page.Amount)
		if err != nil {
			return err
		}
		page.CategoryID, err = parseFormID(r.PostFormValue("category"))
		if err != nil {
			return err
		}
		_, err = s.account.AddCost(r.Context(), core.Cost{
			Day:        day,
			Label:      page.Label,
			Amount:     amount,
			CategoryID: page.CategoryID,
		})
		return err
	}()
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.fail(w, r, "add cost", err)
			return
		}
		page.Error = err.Error()
		if lerr := s.loadCostsPage(r, &page); lerr != nil {
			s.fail(w, r, "add cost", lerr)
			return
		}
		s.render(w, r, status, "costs", page)
		return
	}
	http.Redirect(w, r, "/options/costs", http.StatusSeeOther)
}

func (s *Server) handleDeleteCost(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		s.fail(w, r, "delete cost", err)
		return
	}
	if err := s.account.DeleteCost(r.Context(), id); err != nil {
		s.fail(w, r, "delete cost", err)
		return
	}
	http.Redirect(w, r, "/options/costs", http.StatusSeeOther)
}
