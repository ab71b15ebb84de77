package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadscout/internal/entity"
	"github.com/xavierca1/leadscout/internal/usecase"
)

// MockSearchRepository
type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) Create(ctx context.Context, s *entity.Search) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSearchRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSearchRepository) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	args := m.Called(ctx, id, startedAt)
	return args.Error(0)
}

func (m *MockSearchRepository) MarkCompleted(ctx context.Context, id string, leadCount int, completedAt time.Time) error {
	args := m.Called(ctx, id, leadCount, completedAt)
	return args.Error(0)
}

func (m *MockSearchRepository) MarkFailed(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockLeadRepository
type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

// MockFulfiller
type MockFulfiller struct {
	mock.Mock
}

func (m *MockFulfiller) Fulfill(ctx context.Context, params entity.SearchParams) ([]entity.LeadPayload, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.LeadPayload), args.Error(1)
}

// MockDispatcher
type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, job entity.SearchJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockSubmitter
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Execute(ctx context.Context, input usecase.SubmitSearchInput) (*usecase.SubmitSearchOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.SubmitSearchOutput), args.Error(1)
}

// stubFulfiller devolve um lote fixo ou um erro, contando as chamadas.
type stubFulfiller struct {
	payloads []entity.LeadPayload
	err      error
	calls    int
}

func (s *stubFulfiller) Fulfill(_ context.Context, _ entity.SearchParams) ([]entity.LeadPayload, error) {
	s.calls++
	return s.payloads, s.err
}

func payloads(n int) []entity.LeadPayload {
	out := make([]entity.LeadPayload, n)
	for i := range out {
		out[i] = entity.LeadPayload{
			CompanyName: "Finance Company " + string(rune('A'+i)),
			Source:      "Web Scraping",
			Score:       10 * i,
		}
	}
	return out
}
