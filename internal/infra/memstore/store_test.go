package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadscout/internal/entity"
)

func newSearch(t *testing.T, owner string, created time.Time) *entity.Search {
	t.Helper()
	s, err := entity.NewSearch(owner, "", entity.SearchParams{Industry: "Finance"}, created)
	require.NoError(t, err)
	return s
}

func TestSearchLifecycleWrites(t *testing.T) {
	ctx := context.Background()
	store := New()
	searches := store.Searches()

	s := newSearch(t, "u1", time.Now())
	require.NoError(t, searches.Create(ctx, s))

	started := time.Now()
	require.NoError(t, searches.MarkRunning(ctx, s.ID, started))
	require.NoError(t, searches.MarkCompleted(ctx, s.ID, 7, started.Add(time.Second)))

	got, err := searches.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SearchCompleted, got.Status)
	assert.Equal(t, 7, got.TotalFound)
	assert.Equal(t, 7, got.ProcessedCount)
	require.NotNil(t, got.StartedAt)
	assert.True(t, got.StartedAt.Equal(started))
	require.NotNil(t, got.CompletedAt)

	assert.Equal(t,
		[]entity.SearchStatus{entity.SearchPending, entity.SearchRunning, entity.SearchCompleted},
		store.StatusHistory(s.ID))
}

func TestStatusWritesRequireExistingSearch(t *testing.T) {
	ctx := context.Background()
	searches := New().Searches()

	assert.ErrorIs(t, searches.MarkRunning(ctx, "missing", time.Now()), entity.ErrSearchNotFound)
	assert.ErrorIs(t, searches.MarkCompleted(ctx, "missing", 1, time.Now()), entity.ErrSearchNotFound)
	assert.ErrorIs(t, searches.MarkFailed(ctx, "missing"), entity.ErrSearchNotFound)
	assert.ErrorIs(t, searches.Delete(ctx, "missing"), entity.ErrSearchNotFound)

	_, err := searches.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, entity.ErrSearchNotFound)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	searches := New().Searches()

	s := newSearch(t, "u1", time.Now())
	require.NoError(t, searches.Create(ctx, s))

	got, err := searches.FindByID(ctx, s.ID)
	require.NoError(t, err)
	got.Status = entity.SearchFailed

	again, err := searches.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SearchPending, again.Status)
}

func TestListSearchesByOwner(t *testing.T) {
	ctx := context.Background()
	searches := New().Searches()

	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, searches.Create(ctx, newSearch(t, "u1", base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, searches.Create(ctx, newSearch(t, "u2", base)))

	list, err := searches.ListByOwner(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	list, err = searches.ListByOwner(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestLeadsRequireSearch(t *testing.T) {
	ctx := context.Background()
	store := New()

	lead, err := entity.NewLead("missing", "u1", entity.LeadPayload{CompanyName: "Acme"}, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, store.Leads().Create(ctx, lead), entity.ErrSearchNotFound)

	s := newSearch(t, "u1", time.Now())
	require.NoError(t, store.Searches().Create(ctx, s))

	lead.SearchID = s.ID
	require.NoError(t, store.Leads().Create(ctx, lead))
	assert.ErrorIs(t, store.Leads().Create(ctx, lead), entity.ErrLeadAlreadyExists)

	bySearch, err := store.Leads().ListBySearch(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, lead.ID, bySearch[0].ID)

	byOwner, err := store.Leads().ListByOwner(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)

	_, err = store.Leads().FindByID(ctx, "nope")
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}

func TestFailStale(t *testing.T) {
	ctx := context.Background()
	store := New()
	searches := store.Searches()

	old := newSearch(t, "u1", time.Now())
	fresh := newSearch(t, "u1", time.Now())
	pending := newSearch(t, "u1", time.Now())
	for _, s := range []*entity.Search{old, fresh, pending} {
		require.NoError(t, searches.Create(ctx, s))
	}

	now := time.Now()
	require.NoError(t, searches.MarkRunning(ctx, old.ID, now.Add(-time.Hour)))
	require.NoError(t, searches.MarkRunning(ctx, fresh.ID, now))

	ids, err := searches.FailStale(ctx, now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{old.ID}, ids)

	got, _ := searches.FindByID(ctx, old.ID)
	assert.Equal(t, entity.SearchFailed, got.Status)
	got, _ = searches.FindByID(ctx, fresh.ID)
	assert.Equal(t, entity.SearchRunning, got.Status)
	got, _ = searches.FindByID(ctx, pending.ID)
	assert.Equal(t, entity.SearchPending, got.Status)
}

func TestTerminalStatusIsNotOverwritten(t *testing.T) {
	ctx := context.Background()
	store := New()
	searches := store.Searches()

	s := newSearch(t, "u1", time.Now())
	require.NoError(t, searches.Create(ctx, s))

	assert.ErrorIs(t, searches.MarkCompleted(ctx, s.ID, 1, time.Now()), entity.ErrInvalidTransition)

	require.NoError(t, searches.MarkRunning(ctx, s.ID, time.Now().Add(-time.Hour)))
	_, err := searches.FailStale(ctx, time.Now())
	require.NoError(t, err)

	assert.ErrorIs(t, searches.MarkCompleted(ctx, s.ID, 3, time.Now()), entity.ErrInvalidTransition)
	assert.ErrorIs(t, searches.MarkFailed(ctx, s.ID), entity.ErrInvalidTransition)

	got, err := searches.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SearchFailed, got.Status)
	assert.Equal(t, 0, got.TotalFound)
	assert.Equal(t,
		[]entity.SearchStatus{entity.SearchPending, entity.SearchRunning, entity.SearchFailed},
		store.StatusHistory(s.ID))
}

func TestTemplateUsage(t *testing.T) {
	ctx := context.Background()
	templates := New().Templates()

	tpl, err := entity.NewSearchTemplate("u1", "Fintech", "", entity.SearchParams{Industry: "Finance"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, templates.Create(ctx, tpl))

	used := time.Now()
	require.NoError(t, templates.RecordUsage(ctx, tpl.ID, used))
	require.NoError(t, templates.RecordUsage(ctx, tpl.ID, used))

	got, err := templates.FindByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
	require.NotNil(t, got.LastUsed)

	list, err := templates.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, templates.RecordUsage(ctx, "nope", used), entity.ErrTemplateNotFound)
}
