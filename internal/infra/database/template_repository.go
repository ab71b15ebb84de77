package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/xavierca1/leadscout/internal/entity"
)

type TemplateRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewTemplateRepository(db *sql.DB, dialect Dialect) *TemplateRepository {
	return &TemplateRepository{DB: db, Dialect: dialect}
}

const templateColumns = `id, template_name, description, industry, location, company_size,
	keywords, usage_count, last_used, owner, created_at, updated_at`

func (r *TemplateRepository) Create(ctx context.Context, t *entity.SearchTemplate) error {
	query := `
		INSERT INTO search_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.DB.ExecContext(ctx, r.Dialect.rebind(query),
		t.ID,
		t.Name,
		t.Description,
		t.Industry,
		t.Location,
		t.CompanySize,
		encodeList(t.Keywords),
		t.UsageCount,
		utcPtr(t.LastUsed),
		t.Owner,
		utc(t.CreatedAt),
		utc(t.UpdatedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "insert template %s", t.ID)
	}
	return nil
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (*entity.SearchTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM search_templates WHERE id = $1`

	t, err := scanTemplate(r.DB.QueryRowContext(ctx, r.Dialect.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTemplateNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find template %s", id)
	}
	return t, nil
}

func (r *TemplateRepository) ListByOwner(ctx context.Context, owner string) ([]*entity.SearchTemplate, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM search_templates
		WHERE owner = $1
		ORDER BY usage_count DESC, template_name
	`

	rows, err := r.DB.QueryContext(ctx, r.Dialect.rebind(query), owner)
	if err != nil {
		return nil, errors.Wrap(err, "list templates")
	}
	defer rows.Close()

	var out []*entity.SearchTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan template")
		}
		out = append(out, t)
	}
	return out, errors.Wrap(rows.Err(), "iterate templates")
}

func (r *TemplateRepository) RecordUsage(ctx context.Context, id string, usedAt time.Time) error {
	query := `
		UPDATE search_templates
		SET usage_count = usage_count + 1, last_used = $1, updated_at = $1
		WHERE id = $2
	`

	res, err := r.DB.ExecContext(ctx, r.Dialect.rebind(query), utc(usedAt), id)
	if err != nil {
		return errors.Wrapf(err, "record usage of template %s", id)
	}
	return expectOneRow(res, entity.ErrTemplateNotFound)
}

func scanTemplate(row scanner) (*entity.SearchTemplate, error) {
	var (
		t        entity.SearchTemplate
		keywords string
		lastUsed sql.NullTime
	)

	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Description,
		&t.Industry,
		&t.Location,
		&t.CompanySize,
		&keywords,
		&t.UsageCount,
		&lastUsed,
		&t.Owner,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if t.Keywords, err = decodeList(keywords); err != nil {
		return nil, err
	}
	t.LastUsed = nullTimePtr(lastUsed)
	return &t, nil
}
