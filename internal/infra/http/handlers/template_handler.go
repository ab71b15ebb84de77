package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type TemplateHandler struct {
	CreateUC  *usecase.CreateTemplateUseCase
	RunUC     *usecase.RunTemplateUseCase
	Templates entity.TemplateRepository
}

func NewTemplateHandler(createUC *usecase.CreateTemplateUseCase, runUC *usecase.RunTemplateUseCase, templates entity.TemplateRepository) *TemplateHandler {
	return &TemplateHandler{
		CreateUC:  createUC,
		RunUC:     runUC,
		Templates: templates,
	}
}

type CreateTemplateRequest struct {
	Name        string      `json:"template_name"`
	Description string      `json:"description"`
	Industry    string      `json:"industry"`
	Location    string      `json:"location"`
	CompanySize string      `json:"company_size"`
	Keywords    keywordList `json:"keywords"`
}

// Create (POST /templates)
func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, usecase.CodeValidation, "invalid JSON: "+err.Error())
		return
	}

	tpl, err := h.CreateUC.Execute(r.Context(), usecase.CreateTemplateInput{
		Name:        req.Name,
		Description: req.Description,
		Industry:    req.Industry,
		Location:    req.Location,
		CompanySize: req.CompanySize,
		Keywords:    req.Keywords,
		Owner:       middleware.OwnerFromContext(r.Context()),
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

// List (GET /templates)
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.Templates.ListByOwner(r.Context(), middleware.OwnerFromContext(r.Context()))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if templates == nil {
		templates = []*entity.SearchTemplate{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// Run (POST /templates/{id}/run) submete uma busca com os critérios do template.
// O corpo é opcional: {"max_results": n}.
func (h *TemplateHandler) Run(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MaxResults int `json:"max_results"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, usecase.CodeValidation, "invalid JSON: "+err.Error())
		return
	}

	out, err := h.RunUC.Execute(r.Context(), usecase.RunTemplateInput{
		TemplateID: chi.URLParam(r, "id"),
		MaxResults: body.MaxResults,
		Owner:      middleware.OwnerFromContext(r.Context()),
	})
	if err != nil {
		writeUseCaseError(w, err)
		return
	}

	middleware.RecordSearchSubmitted()
	w.Header().Set("Location", "/searches/"+out.ID)
	writeJSON(w, http.StatusAccepted, out)
}
