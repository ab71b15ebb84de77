package memstore

import (
	"context"
	"time"

	"github.com/xavierca1/leadscout/internal/entity"
)

type searchRepo struct{ *Store }

func (r searchRepo) Create(ctx context.Context, s *entity.Search) error {
	return r.CreateSearch(ctx, s)
}

func (r searchRepo) FindByID(ctx context.Context, id string) (*entity.Search, error) {
	return r.FindSearch(ctx, id)
}

func (r searchRepo) ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.Search, error) {
	return r.ListSearches(ctx, owner, limit)
}

func (r searchRepo) Delete(ctx context.Context, id string) error {
	return r.DeleteSearch(ctx, id)
}

type leadRepo struct{ *Store }

func (r leadRepo) Create(ctx context.Context, l *entity.Lead) error {
	return r.CreateLead(ctx, l)
}

func (r leadRepo) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	return r.FindLead(ctx, id)
}

func (r leadRepo) ListBySearch(ctx context.Context, searchID string) ([]*entity.Lead, error) {
	return r.ListLeadsBySearch(ctx, searchID)
}

func (r leadRepo) ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.Lead, error) {
	return r.ListLeadsByOwner(ctx, owner, limit)
}

type templateRepo struct{ *Store }

func (r templateRepo) Create(ctx context.Context, t *entity.SearchTemplate) error {
	return r.CreateTemplate(ctx, t)
}

func (r templateRepo) FindByID(ctx context.Context, id string) (*entity.SearchTemplate, error) {
	return r.FindTemplate(ctx, id)
}

func (r templateRepo) ListByOwner(ctx context.Context, owner string) ([]*entity.SearchTemplate, error) {
	return r.ListTemplates(ctx, owner)
}

func (r templateRepo) RecordUsage(ctx context.Context, id string, usedAt time.Time) error {
	return r.Store.RecordUsage(ctx, id, usedAt)
}
