package entity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SearchStatus string

const (
	SearchPending   SearchStatus = "pending"
	SearchRunning   SearchStatus = "running"
	SearchCompleted SearchStatus = "completed"
	SearchFailed    SearchStatus = "failed"
)

const DefaultMaxResults = 100

func (s SearchStatus) Valid() bool {
	switch s {
	case SearchPending, SearchRunning, SearchCompleted, SearchFailed:
		return true
	}
	return false
}

func (s SearchStatus) IsTerminal() bool {
	return s == SearchCompleted || s == SearchFailed
}

// CanTransitionTo diz se next é um sucessor válido de s:
// pending -> running -> completed | failed.
func (s SearchStatus) CanTransitionTo(next SearchStatus) bool {
	switch s {
	case SearchPending:
		return next == SearchRunning
	case SearchRunning:
		return next == SearchCompleted || next == SearchFailed
	}
	return false
}

// SearchParams são os filtros enviados ao Fulfillment Worker.
type SearchParams struct {
	Industry    string   `json:"industry,omitempty"`
	Location    string   `json:"location,omitempty"`
	CompanySize string   `json:"companySize,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	MaxResults  int      `json:"maxResults,omitempty"`
}

func (p SearchParams) IsEmpty() bool {
	return strings.TrimSpace(p.Industry) == "" &&
		strings.TrimSpace(p.Location) == "" &&
		strings.TrimSpace(p.CompanySize) == "" &&
		len(cleanKeywords(p.Keywords)) == 0
}

func (p SearchParams) Normalize() SearchParams {
	return SearchParams{
		Industry:    strings.TrimSpace(p.Industry),
		Location:    strings.TrimSpace(p.Location),
		CompanySize: strings.TrimSpace(p.CompanySize),
		Keywords:    cleanKeywords(p.Keywords),
		MaxResults:  p.MaxResults,
	}
}

// ParseKeywords separa keywords por vírgula, descartando as vazias.
func ParseKeywords(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	return cleanKeywords(strings.Split(csv, ","))
}

func cleanKeywords(in []string) []string {
	var out []string
	for _, k := range in {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

type Search struct {
	ID          string   `json:"id"`
	Name        string   `json:"search_name"`
	Industry    string   `json:"industry,omitempty"`
	Location    string   `json:"location,omitempty"`
	CompanySize string   `json:"company_size,omitempty"`
	Keywords    []string `json:"keywords"`

	MaxResults    int  `json:"max_results"`
	IncludeEmails bool `json:"include_emails"`
	IncludePhones bool `json:"include_phones"`
	IncludeSocial bool `json:"include_social"`

	Status         SearchStatus `json:"status"`
	TotalFound     int          `json:"total_found"`
	ProcessedCount int          `json:"processed_count"`
	StartedAt      *time.Time   `json:"started_at,omitempty"`
	CompletedAt    *time.Time   `json:"completed_at,omitempty"`

	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSearch monta uma busca em pending. Nome vazio vira "<industry|All> - <data>".
func NewSearch(owner, name string, params SearchParams, now time.Time) (*Search, error) {
	params = params.Normalize()
	if params.IsEmpty() {
		return nil, ErrEmptyCriteria
	}

	if strings.TrimSpace(name) == "" {
		industry := params.Industry
		if industry == "" {
			industry = "All"
		}
		name = industry + " - " + now.Format("2006-01-02")
	}

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	return &Search{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(name),
		Industry:      params.Industry,
		Location:      params.Location,
		CompanySize:   params.CompanySize,
		Keywords:      params.Keywords,
		MaxResults:    maxResults,
		IncludeEmails: true,
		IncludePhones: true,
		IncludeSocial: true,
		Status:        SearchPending,
		Owner:         owner,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *Search) Params() SearchParams {
	return SearchParams{
		Industry:    s.Industry,
		Location:    s.Location,
		CompanySize: s.CompanySize,
		Keywords:    s.Keywords,
		MaxResults:  s.MaxResults,
	}
}

type SearchRepository interface {
	Create(ctx context.Context, s *Search) error
	FindByID(ctx context.Context, id string) (*Search, error)
	ListByOwner(ctx context.Context, owner string, limit int) ([]*Search, error)
	MarkRunning(ctx context.Context, id string, startedAt time.Time) error
	MarkCompleted(ctx context.Context, id string, leadCount int, completedAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	FailStale(ctx context.Context, startedBefore time.Time) ([]string, error)
}
