package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/config"
	"github.com/xavierca1/leadscout/internal/infra/http/handlers"
	"github.com/xavierca1/leadscout/internal/infra/memstore"
	"github.com/xavierca1/leadscout/internal/infra/worker"
	"github.com/xavierca1/leadscout/internal/usecase"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	m := memstore.New()
	a := &app{
		cfg: &config.Config{
			Scraper: config.ScraperConfig{MinLeads: 2, MaxLeads: 2},
			Search:  config.SearchConfig{Timeout: time.Second},
		},
		log:       zap.NewNop(),
		searches:  m.Searches(),
		leads:     m.Leads(),
		templates: m.Templates(),
		pinger:    m,
	}

	local := worker.NewLocalDispatcher(a.runner(), time.Second, nil)
	local.OnFinished = a.onFinished()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = local.Wait(ctx)
	})

	submit := usecase.NewSubmitSearchUseCase(a.searches, local, nil)
	return newRouter(routes{
		search: handlers.NewSearchHandler(submit, a.searches, a.leads),
		lead:   handlers.NewLeadHandler(a.leads),
		template: handlers.NewTemplateHandler(
			usecase.NewCreateTemplateUseCase(a.templates),
			usecase.NewRunTemplateUseCase(a.templates, submit, nil),
			a.templates,
		),
		lifecycle: handlers.NewLifecycleHandler(a.runner(), a.searches, time.Second),
		health:    handlers.NewHealthHandler(a.pinger, nil, "test"),
	}, []string{"*"})
}

func TestRouterPublicEndpoints(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouterRequiresOwnerOnSearchRoutes(t *testing.T) {
	r := newTestRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/searches", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/searches", strings.NewReader(`{"industry":"Retail"}`))
	req.Header.Set("X-User-ID", "u1")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
}
