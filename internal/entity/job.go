package entity

import "strings"

// SearchJob é o payload de invocação do ciclo de vida, na fila e em /lifecycle/invoke.
type SearchJob struct {
	SearchID string       `json:"searchId"`
	Params   SearchParams `json:"searchParams"`
	Owner    string       `json:"owner,omitempty"`
}

func NewSearchJob(s *Search) SearchJob {
	return SearchJob{
		SearchID: s.ID,
		Params:   s.Params(),
		Owner:    s.Owner,
	}
}

func (j SearchJob) Validate() error {
	if strings.TrimSpace(j.SearchID) == "" {
		return ErrMissingSearchID
	}
	return nil
}

// EffectiveOwner cai para SystemOwner quando não há dono.
func (j SearchJob) EffectiveOwner() string {
	if strings.TrimSpace(j.Owner) == "" {
		return SystemOwner
	}
	return j.Owner
}
