package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// writeUseCaseError traduz DomainError/TechnicalError para status HTTP.
func writeUseCaseError(w http.ResponseWriter, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		status := http.StatusBadRequest
		if de.Code == usecase.CodeNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, de.Code, de.Message)
		return
	}

	var te *usecase.TechnicalError
	if errors.As(err, &te) {
		status := http.StatusInternalServerError
		if te.Code == usecase.CodeDispatchFailed {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, te.Code, te.Message)
		return
	}

	writeStoreError(w, err)
}

// writeStoreError cobre erros vindos direto dos repositórios.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrSearchNotFound),
		errors.Is(err, entity.ErrLeadNotFound),
		errors.Is(err, entity.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, usecase.CodeNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, usecase.CodePersistence, "internal error")
	}
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	if n > maxListLimit {
		return maxListLimit
	}
	return n
}
