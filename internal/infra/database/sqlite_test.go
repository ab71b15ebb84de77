package database

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xavierca1/leadscout/internal/entity"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDBConnection(SQLite, filepath.Join(t.TempDir(), "leadscout.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	applied, err := Migrate(context.Background(), db, SQLite, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, 3, applied)
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openSQLite(t)

	applied, err := Migrate(context.Background(), db, SQLite, nil)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestSQLiteSearchLifecycle(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	searches := NewSearchRepository(db, SQLite)
	leads := NewLeadRepository(db, SQLite)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s, err := entity.NewSearch("u1", "", entity.SearchParams{Industry: "Finance", Keywords: []string{"banks"}}, now)
	require.NoError(t, err)
	require.NoError(t, searches.Create(ctx, s))

	require.NoError(t, searches.MarkRunning(ctx, s.ID, now.Add(time.Second)))

	for i := 0; i < 3; i++ {
		lead, err := entity.NewLead(s.ID, "u1", entity.LeadPayload{
			CompanyName: "Finance Company",
			Tags:        []string{"banks"},
			Score:       i,
		}, now.Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, err)
		require.NoError(t, leads.Create(ctx, lead))
	}
	require.NoError(t, searches.MarkCompleted(ctx, s.ID, 3, now.Add(2*time.Second)))

	got, err := searches.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SearchCompleted, got.Status)
	assert.Equal(t, 3, got.TotalFound)
	assert.Equal(t, 3, got.ProcessedCount)
	assert.Equal(t, []string{"banks"}, got.Keywords)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, now.Add(2*time.Second).Equal(*got.CompletedAt))

	batch, err := leads.ListBySearch(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, batch, 3)
	for _, l := range batch {
		assert.Equal(t, s.ID, l.SearchID)
		assert.Equal(t, "u1", l.Owner)
		assert.Equal(t, entity.LeadNew, l.Status)
	}

	list, err := searches.ListByOwner(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteLeadConstraints(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	searches := NewSearchRepository(db, SQLite)
	leads := NewLeadRepository(db, SQLite)

	orphan, err := entity.NewLead("missing", "u1", entity.LeadPayload{CompanyName: "Acme"}, time.Now())
	require.NoError(t, err)
	assert.ErrorIs(t, leads.Create(ctx, orphan), entity.ErrSearchNotFound)

	s, _ := entity.NewSearch("u1", "", entity.SearchParams{Location: "Austin, TX"}, time.Now())
	require.NoError(t, searches.Create(ctx, s))

	lead, _ := entity.NewLead(s.ID, "u1", entity.LeadPayload{CompanyName: "Acme"}, time.Now())
	require.NoError(t, leads.Create(ctx, lead))
	assert.ErrorIs(t, leads.Create(ctx, lead), entity.ErrLeadAlreadyExists)

	_, err = leads.FindByID(ctx, "nope")
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}

func TestSQLiteFailStale(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	searches := NewSearchRepository(db, SQLite)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old, _ := entity.NewSearch("u1", "old", entity.SearchParams{Industry: "Retail"}, base)
	fresh, _ := entity.NewSearch("u1", "fresh", entity.SearchParams{Industry: "Retail"}, base)
	require.NoError(t, searches.Create(ctx, old))
	require.NoError(t, searches.Create(ctx, fresh))
	require.NoError(t, searches.MarkRunning(ctx, old.ID, base))
	require.NoError(t, searches.MarkRunning(ctx, fresh.ID, base.Add(time.Hour)))

	ids, err := searches.FailStale(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []string{old.ID}, ids)

	got, _ := searches.FindByID(ctx, fresh.ID)
	assert.Equal(t, entity.SearchRunning, got.Status)

	// Uma execução atrasada não tira a busca varrida de failed.
	assert.ErrorIs(t, searches.MarkCompleted(ctx, old.ID, 3, base.Add(time.Hour)), entity.ErrInvalidTransition)
	assert.ErrorIs(t, searches.MarkFailed(ctx, old.ID), entity.ErrInvalidTransition)

	got, _ = searches.FindByID(ctx, old.ID)
	assert.Equal(t, entity.SearchFailed, got.Status)
	assert.Equal(t, 0, got.TotalFound)
	assert.Nil(t, got.CompletedAt)
}

func TestSQLiteTemplates(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	templates := NewTemplateRepository(db, SQLite)

	tpl, err := entity.NewSearchTemplate("u1", "Fintech", "", entity.SearchParams{Industry: "Finance"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, templates.Create(ctx, tpl))

	used := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, templates.RecordUsage(ctx, tpl.ID, used))
	require.NoError(t, templates.RecordUsage(ctx, tpl.ID, used))

	list, err := templates.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].UsageCount)
	require.NotNil(t, list[0].LastUsed)
	assert.True(t, used.Equal(*list[0].LastUsed))

	assert.ErrorIs(t, templates.RecordUsage(ctx, "nope", used), entity.ErrTemplateNotFound)
}
