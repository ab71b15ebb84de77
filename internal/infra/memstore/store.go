// Package memstore implementa em memória os repositórios de buscas, leads e
// templates. Seguro para uso concorrente; toda leitura devolve uma cópia.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xavierca1/leadscout/internal/entity"
)

var (
	_ entity.SearchRepository   = searchRepo{}
	_ entity.LeadRepository     = leadRepo{}
	_ entity.TemplateRepository = templateRepo{}
)

type Store struct {
	mu sync.RWMutex

	searches  map[string]*entity.Search
	leads     map[string]*entity.Lead
	leadOrder []string
	templates map[string]*entity.SearchTemplate

	// history guarda, em ordem, todo status gravado em cada busca.
	history map[string][]entity.SearchStatus
}

func New() *Store {
	return &Store{
		searches:  make(map[string]*entity.Search),
		leads:     make(map[string]*entity.Lead),
		templates: make(map[string]*entity.SearchTemplate),
		history:   make(map[string][]entity.SearchStatus),
	}
}

// Searches, Leads e Templates expõem o store por repositório; os três
// compartilham os mesmos maps para a chave estrangeira dos leads funcionar.
func (m *Store) Searches() entity.SearchRepository    { return searchRepo{m} }
func (m *Store) Leads() entity.LeadRepository         { return leadRepo{m} }
func (m *Store) Templates() entity.TemplateRepository { return templateRepo{m} }

func (m *Store) PingContext(_ context.Context) error { return nil }

// buscas

func (m *Store) CreateSearch(_ context.Context, s *entity.Search) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := copySearch(s)
	m.searches[s.ID] = cp
	m.history[s.ID] = append(m.history[s.ID], s.Status)
	return nil
}

func (m *Store) FindSearch(_ context.Context, id string) (*entity.Search, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.searches[id]
	if !ok {
		return nil, entity.ErrSearchNotFound
	}
	return copySearch(s), nil
}

func (m *Store) ListSearches(_ context.Context, owner string, limit int) ([]*entity.Search, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*entity.Search, 0)
	for _, s := range m.searches {
		if s.Owner == owner {
			out = append(out, copySearch(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Store) MarkRunning(_ context.Context, id string, startedAt time.Time) error {
	return m.updateSearch(id, func(s *entity.Search) {
		s.Status = entity.SearchRunning
		s.StartedAt = &startedAt
		s.UpdatedAt = startedAt
	})
}

// MarkCompleted e MarkFailed só saem de running; estado terminal nunca é sobrescrito.
func (m *Store) MarkCompleted(_ context.Context, id string, leadCount int, completedAt time.Time) error {
	return m.updateRunning(id, func(s *entity.Search) {
		s.Status = entity.SearchCompleted
		s.TotalFound = leadCount
		s.ProcessedCount = leadCount
		s.CompletedAt = &completedAt
		s.UpdatedAt = completedAt
	})
}

func (m *Store) MarkFailed(_ context.Context, id string) error {
	return m.updateRunning(id, func(s *entity.Search) {
		s.Status = entity.SearchFailed
		s.UpdatedAt = time.Now()
	})
}

func (m *Store) DeleteSearch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.searches[id]; !ok {
		return entity.ErrSearchNotFound
	}
	delete(m.searches, id)
	delete(m.history, id)
	return nil
}

func (m *Store) FailStale(_ context.Context, startedBefore time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ids []string
	for id, s := range m.searches {
		if s.Status != entity.SearchRunning || s.StartedAt == nil || !s.StartedAt.Before(startedBefore) {
			continue
		}
		s.Status = entity.SearchFailed
		s.UpdatedAt = time.Now()
		m.history[id] = append(m.history[id], entity.SearchFailed)
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// StatusHistory devolve todos os status gravados na busca, a partir do inicial.
func (m *Store) StatusHistory(id string) []entity.SearchStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]entity.SearchStatus(nil), m.history[id]...)
}

func (m *Store) updateSearch(id string, fn func(*entity.Search)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.searches[id]
	if !ok {
		return entity.ErrSearchNotFound
	}
	fn(s)
	m.history[id] = append(m.history[id], s.Status)
	return nil
}

func (m *Store) updateRunning(id string, fn func(*entity.Search)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.searches[id]
	if !ok {
		return entity.ErrSearchNotFound
	}
	if s.Status != entity.SearchRunning {
		return entity.ErrInvalidTransition
	}
	fn(s)
	m.history[id] = append(m.history[id], s.Status)
	return nil
}

// leads

func (m *Store) CreateLead(_ context.Context, l *entity.Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.searches[l.SearchID]; !ok {
		return entity.ErrSearchNotFound
	}
	if _, ok := m.leads[l.ID]; ok {
		return entity.ErrLeadAlreadyExists
	}
	m.leads[l.ID] = copyLead(l)
	m.leadOrder = append(m.leadOrder, l.ID)
	return nil
}

func (m *Store) FindLead(_ context.Context, id string) (*entity.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	return copyLead(l), nil
}

func (m *Store) ListLeadsBySearch(_ context.Context, searchID string) ([]*entity.Lead, error) {
	return m.filterLeads(func(l *entity.Lead) bool { return l.SearchID == searchID }, 0), nil
}

func (m *Store) ListLeadsByOwner(_ context.Context, owner string, limit int) ([]*entity.Lead, error) {
	return m.filterLeads(func(l *entity.Lead) bool { return l.Owner == owner }, limit), nil
}

func (m *Store) filterLeads(keep func(*entity.Lead) bool, limit int) []*entity.Lead {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*entity.Lead, 0)
	for _, id := range m.leadOrder {
		l := m.leads[id]
		if !keep(l) {
			continue
		}
		out = append(out, copyLead(l))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// templates

func (m *Store) CreateTemplate(_ context.Context, t *entity.SearchTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	cp.Keywords = append([]string(nil), t.Keywords...)
	m.templates[t.ID] = &cp
	return nil
}

func (m *Store) FindTemplate(_ context.Context, id string) (*entity.SearchTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.templates[id]
	if !ok {
		return nil, entity.ErrTemplateNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Store) ListTemplates(_ context.Context, owner string) ([]*entity.SearchTemplate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*entity.SearchTemplate, 0)
	for _, t := range m.templates {
		if t.Owner == owner {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) RecordUsage(_ context.Context, id string, usedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.templates[id]
	if !ok {
		return entity.ErrTemplateNotFound
	}
	t.UsageCount++
	t.LastUsed = &usedAt
	t.UpdatedAt = usedAt
	return nil
}

func copySearch(s *entity.Search) *entity.Search {
	cp := *s
	cp.Keywords = append([]string(nil), s.Keywords...)
	if s.StartedAt != nil {
		t := *s.StartedAt
		cp.StartedAt = &t
	}
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

func copyLead(l *entity.Lead) *entity.Lead {
	cp := *l
	cp.Tags = append([]string(nil), l.Tags...)
	return &cp
}
