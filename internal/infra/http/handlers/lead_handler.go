package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
)

type LeadHandler struct {
	leadRepo entity.LeadRepository
}

func NewLeadHandler(leadRepo entity.LeadRepository) *LeadHandler {
	return &LeadHandler{leadRepo: leadRepo}
}

// List (GET /leads?limit=) devolve os leads mais recentes do usuário.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leadRepo.ListByOwner(r.Context(), middleware.OwnerFromContext(r.Context()), parseLimit(r))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if leads == nil {
		leads = []*entity.Lead{}
	}
	writeJSON(w, http.StatusOK, leads)
}

// Get (GET /leads/{id})
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	lead, err := h.leadRepo.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if lead.Owner != middleware.OwnerFromContext(r.Context()) {
		writeStoreError(w, entity.ErrLeadNotFound)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}
