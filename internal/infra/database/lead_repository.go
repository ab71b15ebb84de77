package database

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"

	"github.com/xavierca1/leadscout/internal/entity"
)

type LeadRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewLeadRepository(db *sql.DB, dialect Dialect) *LeadRepository {
	return &LeadRepository{DB: db, Dialect: dialect}
}

const leadColumns = `id, search_id, company_name, website, email, phone,
	industry, company_size, location, city, state, country,
	contact_name, contact_title, contact_email, contact_phone, linkedin_url,
	description, founded, revenue, employees, score, tags, notes,
	source, source_url, scraped_at, status, owner, created_at, updated_at`

// Create grava o lead como veio do worker. Não há deduplicação.
func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31)
	`

	p := lead.LeadPayload
	_, err := r.DB.ExecContext(ctx, r.Dialect.rebind(query),
		lead.ID,
		lead.SearchID,
		p.CompanyName,
		p.Website,
		p.Email,
		p.Phone,
		p.Industry,
		p.CompanySize,
		p.Location,
		p.City,
		p.State,
		p.Country,
		p.ContactName,
		p.ContactTitle,
		p.ContactEmail,
		p.ContactPhone,
		p.LinkedinURL,
		p.Description,
		p.Founded,
		p.Revenue,
		p.Employees,
		p.Score,
		encodeList(p.Tags),
		p.Notes,
		p.Source,
		p.SourceURL,
		utcPtr(p.ScrapedAt),
		string(lead.Status),
		lead.Owner,
		utc(lead.CreatedAt),
		utc(lead.UpdatedAt),
	)

	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return errors.Wrapf(entity.ErrSearchNotFound, "lead %s references search %s", lead.ID, lead.SearchID)
	case isUniqueViolation(err):
		return errors.Wrapf(entity.ErrLeadAlreadyExists, "lead %s", lead.ID)
	default:
		return errors.Wrapf(err, "insert lead %s", lead.ID)
	}
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.DB.QueryRowContext(ctx, r.Dialect.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find lead %s", id)
	}
	return lead, nil
}

func (r *LeadRepository) ListBySearch(ctx context.Context, searchID string) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE search_id = $1 ORDER BY created_at, id`
	return r.list(ctx, query, searchID)
}

func (r *LeadRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE owner = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, owner, limitOrDefault(limit))
}

func (r *LeadRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Lead, error) {
	rows, err := r.DB.QueryContext(ctx, r.Dialect.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "list leads")
	}
	defer rows.Close()

	var out []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan lead")
		}
		out = append(out, lead)
	}
	return out, errors.Wrap(rows.Err(), "iterate leads")
}

func scanLead(row scanner) (*entity.Lead, error) {
	var (
		lead      entity.Lead
		tags      string
		status    string
		scrapedAt sql.NullTime
	)
	p := &lead.LeadPayload

	err := row.Scan(
		&lead.ID,
		&lead.SearchID,
		&p.CompanyName,
		&p.Website,
		&p.Email,
		&p.Phone,
		&p.Industry,
		&p.CompanySize,
		&p.Location,
		&p.City,
		&p.State,
		&p.Country,
		&p.ContactName,
		&p.ContactTitle,
		&p.ContactEmail,
		&p.ContactPhone,
		&p.LinkedinURL,
		&p.Description,
		&p.Founded,
		&p.Revenue,
		&p.Employees,
		&p.Score,
		&tags,
		&p.Notes,
		&p.Source,
		&p.SourceURL,
		&scrapedAt,
		&status,
		&lead.Owner,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if p.Tags, err = decodeList(tags); err != nil {
		return nil, err
	}
	p.ScrapedAt = nullTimePtr(scrapedAt)
	lead.Status = entity.LeadStatus(status)
	return &lead, nil
}
