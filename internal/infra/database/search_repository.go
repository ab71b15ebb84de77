package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/xavierca1/leadscout/internal/entity"
)

type SearchRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

func NewSearchRepository(db *sql.DB, dialect Dialect) *SearchRepository {
	return &SearchRepository{DB: db, Dialect: dialect}
}

const searchColumns = `id, search_name, industry, location, company_size, keywords,
	max_results, include_emails, include_phones, include_social,
	status, total_found, processed_count, started_at, completed_at,
	owner, created_at, updated_at`

func (r *SearchRepository) Create(ctx context.Context, s *entity.Search) error {
	query := `
		INSERT INTO searches (` + searchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.DB.ExecContext(ctx, r.Dialect.rebind(query),
		s.ID,
		s.Name,
		s.Industry,
		s.Location,
		s.CompanySize,
		encodeList(s.Keywords),
		s.MaxResults,
		s.IncludeEmails,
		s.IncludePhones,
		s.IncludeSocial,
		string(s.Status),
		s.TotalFound,
		s.ProcessedCount,
		utcPtr(s.StartedAt),
		utcPtr(s.CompletedAt),
		s.Owner,
		utc(s.CreatedAt),
		utc(s.UpdatedAt),
	)
	if err != nil {
		return errors.Wrapf(err, "insert search %s", s.ID)
	}
	return nil
}

func (r *SearchRepository) FindByID(ctx context.Context, id string) (*entity.Search, error) {
	query := `SELECT ` + searchColumns + ` FROM searches WHERE id = $1`

	s, err := scanSearch(r.DB.QueryRowContext(ctx, r.Dialect.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrSearchNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find search %s", id)
	}
	return s, nil
}

func (r *SearchRepository) ListByOwner(ctx context.Context, owner string, limit int) ([]*entity.Search, error) {
	query := `
		SELECT ` + searchColumns + `
		FROM searches
		WHERE owner = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.DB.QueryContext(ctx, r.Dialect.rebind(query), owner, limitOrDefault(limit))
	if err != nil {
		return nil, errors.Wrap(err, "list searches")
	}
	defer rows.Close()

	var out []*entity.Search
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan search")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "iterate searches")
}

// MarkRunning só confere se a busca existe: rodar de novo a mesma busca é permitido.
func (r *SearchRepository) MarkRunning(ctx context.Context, id string, startedAt time.Time) error {
	query := `UPDATE searches SET status = $1, started_at = $2, updated_at = $2 WHERE id = $3`

	res, err := r.DB.ExecContext(ctx, r.Dialect.rebind(query), string(entity.SearchRunning), utc(startedAt), id)
	if err != nil {
		return errors.Wrapf(err, "mark search %s running", id)
	}
	return expectOneRow(res, entity.ErrSearchNotFound)
}

// MarkCompleted e MarkFailed só saem de running; um estado terminal nunca é sobrescrito.
func (r *SearchRepository) MarkCompleted(ctx context.Context, id string, leadCount int, completedAt time.Time) error {
	query := `
		UPDATE searches
		SET status = $1, completed_at = $2, total_found = $3, processed_count = $3, updated_at = $2
		WHERE id = $4 AND status = $5
	`

	res, err := r.DB.ExecContext(ctx, r.Dialect.rebind(query),
		string(entity.SearchCompleted), utc(completedAt), leadCount, id, string(entity.SearchRunning))
	if err != nil {
		return errors.Wrapf(err, "mark search %s completed", id)
	}
	return r.expectTransition(ctx, res, id)
}

func (r *SearchRepository) MarkFailed(ctx context.Context, id string) error {
	query := `UPDATE searches SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	res, err := r.DB.ExecContext(ctx, r.Dialect.rebind(query),
		string(entity.SearchFailed), utc(time.Now()), id, string(entity.SearchRunning))
	if err != nil {
		return errors.Wrapf(err, "mark search %s failed", id)
	}
	return r.expectTransition(ctx, res, id)
}

// expectTransition distingue busca inexistente de busca fora de running.
func (r *SearchRepository) expectTransition(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n > 0 {
		return nil
	}

	var one int
	err = r.DB.QueryRowContext(ctx, r.Dialect.rebind(`SELECT 1 FROM searches WHERE id = $1`), id).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return entity.ErrSearchNotFound
	case err != nil:
		return errors.Wrapf(err, "check search %s", id)
	}
	return errors.Wrapf(entity.ErrInvalidTransition, "search %s", id)
}

func (r *SearchRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, r.Dialect.rebind(`DELETE FROM searches WHERE id = $1`), id)
	if err != nil {
		return errors.Wrapf(err, "delete search %s", id)
	}
	return expectOneRow(res, entity.ErrSearchNotFound)
}

// FailStale marca como failed as buscas em running desde antes de startedBefore.
func (r *SearchRepository) FailStale(ctx context.Context, startedBefore time.Time) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin stale sweep")
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		r.Dialect.rebind(`SELECT id FROM searches WHERE status = $1 AND started_at < $2`),
		string(entity.SearchRunning), utc(startedBefore),
	)
	if err != nil {
		return nil, errors.Wrap(err, "select stale searches")
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "scan stale search")
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate stale searches")
	}

	now := utc(time.Now())
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			r.Dialect.rebind(`UPDATE searches SET status = $1, updated_at = $2 WHERE id = $3`),
			string(entity.SearchFailed), now, id,
		); err != nil {
			return nil, errors.Wrapf(err, "fail stale search %s", id)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit stale sweep")
	}
	return ids, nil
}

func scanSearch(row scanner) (*entity.Search, error) {
	var (
		s           entity.Search
		status      string
		keywords    string
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)

	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Industry,
		&s.Location,
		&s.CompanySize,
		&keywords,
		&s.MaxResults,
		&s.IncludeEmails,
		&s.IncludePhones,
		&s.IncludeSocial,
		&status,
		&s.TotalFound,
		&s.ProcessedCount,
		&startedAt,
		&completedAt,
		&s.Owner,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if s.Keywords, err = decodeList(keywords); err != nil {
		return nil, err
	}
	s.Status = entity.SearchStatus(status)
	s.StartedAt = nullTimePtr(startedAt)
	s.CompletedAt = nullTimePtr(completedAt)
	return &s, nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 || limit > 500 {
		return 50
	}
	return limit
}
