package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type SearchHandler struct {
	Submitter usecase.SearchSubmitter
	Searches  entity.SearchRepository
	Leads     entity.LeadRepository
}

func NewSearchHandler(submitter usecase.SearchSubmitter, searches entity.SearchRepository, leads entity.LeadRepository) *SearchHandler {
	return &SearchHandler{
		Submitter: submitter,
		Searches:  searches,
		Leads:     leads,
	}
}

// keywordList aceita tanto ["a","b"] quanto "a, b".
type keywordList []string

func (k *keywordList) UnmarshalJSON(b []byte) error {
	var csv string
	if err := json.Unmarshal(b, &csv); err == nil {
		*k = entity.ParseKeywords(csv)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*k = list
	return nil
}

type SubmitSearchRequest struct {
	Name        string      `json:"search_name"`
	Industry    string      `json:"industry"`
	Location    string      `json:"location"`
	CompanySize string      `json:"company_size"`
	Keywords    keywordList `json:"keywords"`
	MaxResults  int         `json:"max_results"`
}

// Create (POST /searches) grava a busca em pending e devolve 202; a execução é assíncrona.
func (h *SearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req SubmitSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, usecase.CodeValidation, "invalid JSON: "+err.Error())
		return
	}

	out, err := h.Submitter.Execute(r.Context(), usecase.SubmitSearchInput{
		Name:        req.Name,
		Industry:    req.Industry,
		Location:    req.Location,
		CompanySize: req.CompanySize,
		Keywords:    req.Keywords,
		MaxResults:  req.MaxResults,
		Owner:       middleware.OwnerFromContext(r.Context()),
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	middleware.RecordSearchSubmitted()
	w.Header().Set("Location", "/searches/"+out.ID)
	writeJSON(w, http.StatusAccepted, out)
}

// List (GET /searches?limit=)
func (h *SearchHandler) List(w http.ResponseWriter, r *http.Request) {
	searches, err := h.Searches.ListByOwner(r.Context(), middleware.OwnerFromContext(r.Context()), parseLimit(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if searches == nil {
		searches = []*entity.Search{}
	}
	writeJSON(w, http.StatusOK, searches)
}

// Get (GET /searches/{id}) é o endpoint de polling do status.
func (h *SearchHandler) Get(w http.ResponseWriter, r *http.Request) {
	search, ok := h.ownedSearch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, search)
}

// ListLeads (GET /searches/{id}/leads)
func (h *SearchHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	search, ok := h.ownedSearch(w, r)
	if !ok {
		return
	}

	leads, err := h.Leads.ListBySearch(r.Context(), search.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if leads == nil {
		leads = []*entity.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

// ownedSearch responde 404 também para buscas de outro dono.
func (h *SearchHandler) ownedSearch(w http.ResponseWriter, r *http.Request) (*entity.Search, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, usecase.CodeValidation, "ID is required")
		return nil, false
	}

	search, err := h.Searches.FindByID(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	if search.Owner != middleware.OwnerFromContext(r.Context()) {
		writeStoreError(w, entity.ErrSearchNotFound)
		return nil, false
	}
	return search, true
}
