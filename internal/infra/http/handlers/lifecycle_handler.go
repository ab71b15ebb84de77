package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type SearchFinder interface {
	FindByID(ctx context.Context, id string) (*entity.Search, error)
}

// LifecycleHandler roda o ciclo de vida de forma síncrona, no formato de
// invocação {searchId, searchParams}. O status HTTP é o statusCode do resultado.
type LifecycleHandler struct {
	Runner     usecase.SearchRunner
	Searches   SearchFinder
	Timeout    time.Duration
	OnFinished usecase.SearchFinishedFunc
}

func NewLifecycleHandler(runner usecase.SearchRunner, searches SearchFinder, timeout time.Duration) *LifecycleHandler {
	return &LifecycleHandler{Runner: runner, Searches: searches, Timeout: timeout}
}

// Invoke (POST /lifecycle/invoke). O dono é sempre o do header; busca de outro
// dono responde igual a busca inexistente.
func (h *LifecycleHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	var job entity.SearchJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		writeJSON(w, http.StatusBadRequest, usecase.RunSearchOutput{
			StatusCode: http.StatusBadRequest,
			Error:      "Invalid JSON",
			Message:    err.Error(),
		})
		return
	}
	job.Owner = middleware.OwnerFromContext(r.Context())

	if job.Validate() == nil {
		search, err := h.Searches.FindByID(r.Context(), job.SearchID)
		if err != nil && !errors.Is(err, entity.ErrSearchNotFound) {
			writeJSON(w, http.StatusInternalServerError, failedRun("failed to load search"))
			return
		}
		if err != nil || search.Owner != job.Owner {
			writeJSON(w, http.StatusInternalServerError, failedRun("search "+job.SearchID+" not found"))
			return
		}
	}

	// Uma vez invocado o ciclo vai até completed ou failed, mesmo se o cliente desconectar.
	ctx := context.WithoutCancel(r.Context())
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	out, _ := h.Runner.Execute(ctx, job)
	if h.OnFinished != nil {
		h.OnFinished(context.WithoutCancel(ctx), job, out)
	}
	if out == nil {
		out = failedRun("")
	}
	writeJSON(w, out.StatusCode, out)
}

func failedRun(msg string) *usecase.RunSearchOutput {
	return &usecase.RunSearchOutput{
		StatusCode: http.StatusInternalServerError,
		Error:      "Lead scraping failed",
		Message:    msg,
	}
}
