package fulfillment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/xavierca1/leadscout/internal/entity"
)

const (
	DefaultDelay    = 2 * time.Second
	DefaultMinLeads = 10
	DefaultMaxLeads = 29
)

var (
	companySizes  = []string{"1-10", "11-50", "51-200", "201-500", "500+"}
	contactTitles = []string{"CEO", "CTO", "VP Sales", "Marketing Director"}
)

// MockScraper gera payloads de lead sintéticos depois de um atraso simulado,
// no lugar de um backend de scraping de verdade.
type MockScraper struct {
	Delay    time.Duration
	MinLeads int
	MaxLeads int
	Now      func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewMockScraper(delay time.Duration, minLeads, maxLeads int) *MockScraper {
	if minLeads <= 0 {
		minLeads = DefaultMinLeads
	}
	if maxLeads <= 0 {
		maxLeads = DefaultMaxLeads
	}
	if maxLeads < minLeads {
		maxLeads = minLeads
	}
	return &MockScraper{
		Delay:    delay,
		MinLeads: minLeads,
		MaxLeads: maxLeads,
		Now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6c656164)),
	}
}

// WithSeed torna o lote gerado reproduzível.
func (s *MockScraper) WithSeed(seed uint64) *MockScraper {
	s.mu.Lock()
	s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s.mu.Unlock()
	return s
}

func (s *MockScraper) Fulfill(ctx context.Context, params entity.SearchParams) ([]entity.LeadPayload, error) {
	if s.Delay > 0 {
		timer := time.NewTimer(s.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.MinLeads + s.rng.IntN(s.MaxLeads-s.MinLeads+1)
	if params.MaxResults > 0 && n > params.MaxResults {
		n = params.MaxResults
	}

	scrapedAt := s.Now().UTC()
	leads := make([]entity.LeadPayload, 0, n)
	for i := 1; i <= n; i++ {
		leads = append(leads, s.fabricate(i, params, scrapedAt))
	}
	return leads, nil
}

func (s *MockScraper) fabricate(i int, params entity.SearchParams, scrapedAt time.Time) entity.LeadPayload {
	industry := orDefault(params.Industry, "Technology")
	location := orDefault(params.Location, "San Francisco, CA")
	city, state := splitLocation(params.Location)
	domain := fmt.Sprintf("company%d.com", i)

	tags := append([]string{}, params.Keywords...)
	query := "companies"
	if len(params.Keywords) > 0 {
		query = strings.Join(params.Keywords, "+")
	}

	return entity.LeadPayload{
		CompanyName:  fmt.Sprintf("%s Company %d", orDefault(params.Industry, "Tech"), i),
		Website:      "https://" + domain,
		Email:        "contact@" + domain,
		Phone:        fmt.Sprintf("+1-555-%03d-%04d", 100+s.rng.IntN(900), 1000+s.rng.IntN(9000)),
		Industry:     industry,
		CompanySize:  companySizes[s.rng.IntN(len(companySizes))],
		Location:     location,
		City:         city,
		State:        state,
		Country:      "USA",
		ContactName:  fmt.Sprintf("John Doe %d", i),
		ContactTitle: contactTitles[s.rng.IntN(len(contactTitles))],
		ContactEmail: fmt.Sprintf("john.doe%d@%s", i, domain),
		LinkedinURL:  fmt.Sprintf("https://linkedin.com/company/company%d", i),
		Description:  fmt.Sprintf("Leading %s company specializing in innovative solutions.", orDefault(params.Industry, "technology")),
		Founded:      fmt.Sprintf("%d", 2010+s.rng.IntN(14)),
		Employees:    10 + s.rng.IntN(500),
		Score:        s.rng.IntN(100),
		Tags:         tags,
		Source:       "Web Scraping",
		SourceURL:    "https://google.com/search?q=" + url.QueryEscape(query),
		ScrapedAt:    &scrapedAt,
	}
}

func splitLocation(location string) (city, state string) {
	city, state = "San Francisco", "CA"
	if strings.TrimSpace(location) == "" {
		return city, state
	}
	parts := strings.SplitN(location, ",", 3)
	if c := strings.TrimSpace(parts[0]); c != "" {
		city = c
	}
	if len(parts) > 1 {
		if st := strings.TrimSpace(parts[1]); st != "" {
			state = st
		}
	}
	return city, state
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
