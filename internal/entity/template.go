package entity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SearchTemplate guarda critérios que o usuário roda com frequência.
type SearchTemplate struct {
	ID          string     `json:"id"`
	Name        string     `json:"template_name"`
	Description string     `json:"description,omitempty"`
	Industry    string     `json:"industry,omitempty"`
	Location    string     `json:"location,omitempty"`
	CompanySize string     `json:"company_size,omitempty"`
	Keywords    []string   `json:"keywords"`
	UsageCount  int        `json:"usage_count"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	Owner       string     `json:"owner"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewSearchTemplate(owner, name, description string, params SearchParams, now time.Time) (*SearchTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrTemplateNameRequired
	}
	params = params.Normalize()
	if params.IsEmpty() {
		return nil, ErrEmptyCriteria
	}

	return &SearchTemplate{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Industry:    params.Industry,
		Location:    params.Location,
		CompanySize: params.CompanySize,
		Keywords:    params.Keywords,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (t *SearchTemplate) Params() SearchParams {
	return SearchParams{
		Industry:    t.Industry,
		Location:    t.Location,
		CompanySize: t.CompanySize,
		Keywords:    t.Keywords,
	}
}

type TemplateRepository interface {
	Create(ctx context.Context, t *SearchTemplate) error
	FindByID(ctx context.Context, id string) (*SearchTemplate, error)
	ListByOwner(ctx context.Context, owner string) ([]*SearchTemplate, error)
	RecordUsage(ctx context.Context, id string, usedAt time.Time) error
}
