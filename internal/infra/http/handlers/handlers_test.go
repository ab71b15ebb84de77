package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/infra/http/handlers"
	"github.com/xavierca1/leadscout/internal/infra/http/middleware"
	"github.com/xavierca1/leadscout/internal/infra/memstore"
	"github.com/xavierca1/leadscout/internal/usecase"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, job entity.SearchJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

type fixedFulfiller struct {
	n   int
	err error
}

func (f fixedFulfiller) Fulfill(_ context.Context, _ entity.SearchParams) ([]entity.LeadPayload, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entity.LeadPayload, f.n)
	for i := range out {
		out[i] = entity.LeadPayload{CompanyName: "Acme", Score: i}
	}
	return out, nil
}

// slowFulfiller demora delay e desiste se o ctx acabar antes.
type slowFulfiller struct {
	delay time.Duration
	n     int
}

func (f slowFulfiller) Fulfill(ctx context.Context, _ entity.SearchParams) ([]entity.LeadPayload, error) {
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return fixedFulfiller{n: f.n}.Fulfill(ctx, entity.SearchParams{})
}

type testAPI struct {
	router     http.Handler
	store      *memstore.Store
	dispatcher *MockDispatcher
}

func newTestAPI(t *testing.T, fulfiller usecase.LeadFulfiller) *testAPI {
	t.Helper()

	store := memstore.New()
	dispatcher := new(MockDispatcher)

	submit := usecase.NewSubmitSearchUseCase(store.Searches(), dispatcher, nil)
	run := usecase.NewRunSearchUseCase(store.Searches(), store.Leads(), fulfiller, nil)

	searchH := handlers.NewSearchHandler(submit, store.Searches(), store.Leads())
	leadH := handlers.NewLeadHandler(store.Leads())
	templateH := handlers.NewTemplateHandler(
		usecase.NewCreateTemplateUseCase(store.Templates()),
		usecase.NewRunTemplateUseCase(store.Templates(), submit, nil),
		store.Templates(),
	)
	lifecycleH := handlers.NewLifecycleHandler(run, store.Searches(), time.Second)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Post("/searches", searchH.Create)
		r.Get("/searches", searchH.List)
		r.Get("/searches/{id}", searchH.Get)
		r.Get("/searches/{id}/leads", searchH.ListLeads)
		r.Get("/leads", leadH.List)
		r.Get("/leads/{id}", leadH.Get)
		r.Post("/templates", templateH.Create)
		r.Get("/templates", templateH.List)
		r.Post("/templates/{id}/run", templateH.Run)
		r.Post("/lifecycle/invoke", lifecycleH.Invoke)
	})

	return &testAPI{router: r, store: store, dispatcher: dispatcher}
}

func (a *testAPI) do(t *testing.T, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.doWithContext(t, context.Background(), method, path, owner, body)
}

func (a *testAPI) doWithContext(t *testing.T, ctx context.Context, method, path, owner string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequestWithContext(ctx, method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set(middleware.OwnerHeader, owner)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateSearchReturnsAccepted(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 1})
	api.dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	rec := api.do(t, http.MethodPost, "/searches", "u1", map[string]any{
		"search_name": "SaaS SF",
		"industry":    "Technology",
		"location":    "San Francisco, CA",
		"keywords":    "saas, b2b",
	})

	require.Equal(t, http.StatusAccepted, rec.Code)
	var out usecase.SubmitSearchOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, entity.SearchPending, out.Status)
	assert.Equal(t, "/searches/"+out.ID, rec.Header().Get("Location"))

	saved, err := api.store.Searches().FindByID(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", saved.Owner)
	assert.Equal(t, []string{"saas", "b2b"}, saved.Keywords)
	api.dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestCreateSearchRequiresOwner(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 1})

	rec := api.do(t, http.MethodPost, "/searches", "", map[string]any{"industry": "Finance"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	api.dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestCreateSearchValidation(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 1})

	rec := api.do(t, http.MethodPost, "/searches", "u1", map[string]any{"search_name": "nothing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, usecase.CodeValidation, resp.Code)

	rec = api.do(t, http.MethodPost, "/searches", "u1", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSearchDispatchFailure(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 1})
	api.dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	rec := api.do(t, http.MethodPost, "/searches", "u1", map[string]any{"industry": "Finance"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	list, err := api.store.Searches().ListByOwner(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGetSearchHidesOtherOwners(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 1})
	api.dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	rec := api.do(t, http.MethodPost, "/searches", "u1", map[string]any{"industry": "Finance"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var out usecase.SubmitSearchOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))

	rec = api.do(t, http.MethodGet, "/searches/"+out.ID, "u1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/searches/"+out.ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/searches/missing", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLifecycleInvokeCompletesSearch(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 3})
	ctx := context.Background()

	s, err := entity.NewSearch("u1", "", entity.SearchParams{Industry: "Finance"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, api.store.Searches().Create(ctx, s))

	rec := api.do(t, http.MethodPost, "/lifecycle/invoke", "u1", entity.NewSearchJob(s))

	require.Equal(t, http.StatusOK, rec.Code)
	var out usecase.RunSearchOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, 3, out.LeadsFound)

	rec = api.do(t, http.MethodGet, "/searches/"+s.ID+"/leads", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var leads []entity.Lead
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&leads))
	assert.Len(t, leads, 3)

	rec = api.do(t, http.MethodGet, "/leads/"+leads[0].ID, "u1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodGet, "/leads/"+leads[0].ID, "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLifecycleInvokeFailureStatus(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{err: errors.New("upstream timeout")})
	ctx := context.Background()

	s, err := entity.NewSearch("u1", "", entity.SearchParams{Industry: "Finance"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, api.store.Searches().Create(ctx, s))

	rec := api.do(t, http.MethodPost, "/lifecycle/invoke", "u1", entity.NewSearchJob(s))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var out usecase.RunSearchOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "Lead scraping failed", out.Error)

	got, err := api.store.Searches().FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SearchFailed, got.Status)
}

func TestLifecycleInvokeBadInput(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 1})

	rec := api.do(t, http.MethodPost, "/lifecycle/invoke", "u1", "{broken")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPost, "/lifecycle/invoke", "u1", map[string]any{"searchParams": map[string]any{}})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLifecycleInvokeRequiresOwner(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 1})
	ctx := context.Background()

	s, err := entity.NewSearch("u1", "", entity.SearchParams{Industry: "Finance"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, api.store.Searches().Create(ctx, s))

	rec := api.do(t, http.MethodPost, "/lifecycle/invoke", "", entity.NewSearchJob(s))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	got, err := api.store.Searches().FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SearchPending, got.Status)
}

func TestLifecycleInvokeRejectsOtherOwner(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 2})
	ctx := context.Background()

	s, err := entity.NewSearch("u1", "", entity.SearchParams{Industry: "Finance"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, api.store.Searches().Create(ctx, s))

	rec := api.do(t, http.MethodPost, "/lifecycle/invoke", "u2", entity.NewSearchJob(s))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var out usecase.RunSearchOutput
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "search "+s.ID+" not found", out.Message)

	missing := api.do(t, http.MethodPost, "/lifecycle/invoke", "u2", entity.SearchJob{SearchID: "missing"})
	var outMissing usecase.RunSearchOutput
	require.NoError(t, json.NewDecoder(missing.Body).Decode(&outMissing))
	assert.Equal(t, rec.Code, missing.Code)
	assert.Equal(t, "search missing not found", outMissing.Message)

	got, err := api.store.Searches().FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SearchPending, got.Status)
	leads, err := api.store.Leads().ListBySearch(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestLifecycleInvokeOutlivesRequestContext(t *testing.T) {
	api := newTestAPI(t, slowFulfiller{delay: 150 * time.Millisecond, n: 2})

	s, err := entity.NewSearch("u1", "", entity.SearchParams{Industry: "Finance"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, api.store.Searches().Create(context.Background(), s))

	// O cliente desiste bem antes do scraper terminar.
	reqCtx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	rec := api.doWithContext(t, reqCtx, http.MethodPost, "/lifecycle/invoke", "u1", entity.NewSearchJob(s))

	require.Equal(t, http.StatusOK, rec.Code)
	got, err := api.store.Searches().FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SearchCompleted, got.Status)
	assert.Equal(t, 2, got.TotalFound)
}

func TestTemplateCreateAndRun(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 1})
	api.dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(job entity.SearchJob) bool {
		return job.Params.Industry == "Healthcare" && job.Owner == "u1"
	})).Return(nil)

	rec := api.do(t, http.MethodPost, "/templates", "u1", map[string]any{
		"template_name": "Clinics",
		"industry":      "Healthcare",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var tpl entity.SearchTemplate
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tpl))

	rec = api.do(t, http.MethodPost, "/templates/"+tpl.ID+"/run", "u2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/templates/"+tpl.ID+"/run", "u1", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = api.do(t, http.MethodGet, "/templates", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []entity.SearchTemplate
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].UsageCount)
	api.dispatcher.AssertExpectations(t)
}

func TestListEndpointsReturnEmptyArrays(t *testing.T) {
	api := newTestAPI(t, fixedFulfiller{n: 1})

	for _, path := range []string{"/searches", "/leads", "/templates"} {
		rec := api.do(t, http.MethodGet, path, "nobody", nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, "[]", rec.Body.String(), path)
	}
}

type closedConn struct{}

func (closedConn) IsClosed() bool { return true }

func TestHealth(t *testing.T) {
	h := handlers.NewHealthHandler(memstore.New(), nil, "test")
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp handlers.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "not configured", resp.Dependencies["rabbitmq"])

	h = handlers.NewHealthHandler(memstore.New(), closedConn{}, "test")
	rec = httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
