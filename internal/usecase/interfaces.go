package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/leadscout/internal/entity"
)

// SearchStatusWriter é a parte do repositório que o ciclo de vida altera.
type SearchStatusWriter interface {
	MarkRunning(ctx context.Context, id string, startedAt time.Time) error
	MarkCompleted(ctx context.Context, id string, leadCount int, completedAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
}

type LeadWriter interface {
	Create(ctx context.Context, lead *entity.Lead) error
}

// LeadFulfiller transforma critérios de busca em payloads de lead (o Fulfillment Worker).
type LeadFulfiller interface {
	Fulfill(ctx context.Context, params entity.SearchParams) ([]entity.LeadPayload, error)
}

type SearchCreator interface {
	Create(ctx context.Context, s *entity.Search) error
	Delete(ctx context.Context, id string) error
}

// SearchDispatcher entrega o job a quem roda o ciclo de vida: a fila ou o próprio processo.
type SearchDispatcher interface {
	Dispatch(ctx context.Context, job entity.SearchJob) error
}

type SearchSubmitter interface {
	Execute(ctx context.Context, input SubmitSearchInput) (*SubmitSearchOutput, error)
}

// SearchFinishedFunc é chamada ao fim de cada execução (métricas, notificações).
type SearchFinishedFunc func(ctx context.Context, job entity.SearchJob, out *RunSearchOutput)

// SearchRunner roda uma invocação do ciclo de vida. Implementado por RunSearchUseCase.
type SearchRunner interface {
	Execute(ctx context.Context, job entity.SearchJob) (*RunSearchOutput, error)
}

// ObserveAll encadeia os observadores em ordem, ignorando os nil.
func ObserveAll(fns ...SearchFinishedFunc) SearchFinishedFunc {
	return func(ctx context.Context, job entity.SearchJob, out *RunSearchOutput) {
		for _, fn := range fns {
			if fn != nil {
				fn(ctx, job, out)
			}
		}
	}
}
