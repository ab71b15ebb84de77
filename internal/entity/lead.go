package entity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type LeadStatus string

const (
	LeadNew       LeadStatus = "new"
	LeadContacted LeadStatus = "contacted"
	LeadQualified LeadStatus = "qualified"
	LeadConverted LeadStatus = "converted"
	LeadLost      LeadStatus = "lost"
)

// SystemOwner marca leads criados sem identidade de quem pediu.
const SystemOwner = "system"

// LeadPayload é o registro bruto devolvido pelo Fulfillment Worker.
type LeadPayload struct {
	CompanyName string `json:"company_name"`
	Website     string `json:"website,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`

	Industry    string `json:"industry,omitempty"`
	CompanySize string `json:"company_size,omitempty"`
	Location    string `json:"location,omitempty"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country,omitempty"`

	ContactName  string `json:"contact_name,omitempty"`
	ContactTitle string `json:"contact_title,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	LinkedinURL  string `json:"linkedin_url,omitempty"`

	Description string `json:"description,omitempty"`
	Founded     string `json:"founded,omitempty"`
	Revenue     string `json:"revenue,omitempty"`
	Employees   int    `json:"employees,omitempty"`

	Score int      `json:"score"`
	Tags  []string `json:"tags"`
	Notes string   `json:"notes,omitempty"`

	Source    string     `json:"source,omitempty"`
	SourceURL string     `json:"source_url,omitempty"`
	ScrapedAt *time.Time `json:"scraped_at,omitempty"`
}

type Lead struct {
	ID       string `json:"id"`
	SearchID string `json:"search_id"`
	LeadPayload
	Status    LeadStatus `json:"status"`
	Owner     string     `json:"owner"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewLead copia o payload como veio para um lead novo com status "new".
func NewLead(searchID, owner string, payload LeadPayload, now time.Time) (*Lead, error) {
	if strings.TrimSpace(searchID) == "" {
		return nil, ErrMissingSearchID
	}
	if strings.TrimSpace(payload.CompanyName) == "" {
		return nil, ErrCompanyNameRequired
	}
	if strings.TrimSpace(owner) == "" {
		owner = SystemOwner
	}

	return &Lead{
		ID:          uuid.NewString(),
		SearchID:    searchID,
		LeadPayload: payload,
		Status:      LeadNew,
		Owner:       owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

type LeadRepository interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	ListBySearch(ctx context.Context, searchID string) ([]*Lead, error)
	ListByOwner(ctx context.Context, owner string, limit int) ([]*Lead, error)
}
