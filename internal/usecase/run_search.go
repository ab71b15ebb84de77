package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

var ErrNoLeads = errors.New("fulfillment returned no leads")

// RunSearchUseCase é o ciclo de vida da busca:
// pending -> running -> completed | failed.
// Não guarda estado entre execuções; todo efeito passa por Searches e Leads.
type RunSearchUseCase struct {
	Searches  SearchStatusWriter
	Leads     LeadWriter
	Fulfiller LeadFulfiller
	Now       func() time.Time
	Logger    *zap.Logger
}

func NewRunSearchUseCase(
	searches SearchStatusWriter,
	leads LeadWriter,
	fulfiller LeadFulfiller,
	logger *zap.Logger,
) *RunSearchUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunSearchUseCase{
		Searches:  searches,
		Leads:     leads,
		Fulfiller: fulfiller,
		Now:       time.Now,
		Logger:    logger,
	}
}

// Execute sempre devolve um output com statusCode; err vem preenchido
// sempre que o código é 500.
func (uc *RunSearchUseCase) Execute(ctx context.Context, job entity.SearchJob) (*RunSearchOutput, error) {
	log := uc.logger().With(zap.String("search_id", job.SearchID))
	log.Info("lead search started", zap.String("owner", job.EffectiveOwner()))

	count, err := uc.run(ctx, job, log)
	if err != nil {
		log.Error("lead search failed", zap.String("code", ErrorCode(err)), zap.Error(err))
		return &RunSearchOutput{
			StatusCode: http.StatusInternalServerError,
			Error:      "Lead scraping failed",
			Message:    err.Error(),
		}, err
	}

	log.Info("lead search completed", zap.Int("leads_found", count))
	return &RunSearchOutput{
		StatusCode: http.StatusOK,
		LeadsFound: count,
		Message:    "Lead scraping completed",
	}, nil
}

func (uc *RunSearchUseCase) run(ctx context.Context, job entity.SearchJob, log *zap.Logger) (int, error) {
	if err := job.Validate(); err != nil {
		return 0, &DomainError{Code: CodeInvalidJob, Message: "invalid search job: " + err.Error(), Err: err}
	}
	if uc.Searches == nil || uc.Leads == nil || uc.Fulfiller == nil {
		return 0, &DomainError{Code: CodeInvalidJob, Message: "invalid search job: store is not configured"}
	}

	// 1. pending -> running. Se essa escrita falhar, nada mais acontece.
	if err := uc.Searches.MarkRunning(ctx, job.SearchID, uc.now()); err != nil {
		if errors.Is(err, entity.ErrSearchNotFound) {
			return 0, &DomainError{Code: CodeNotFound, Message: "search " + job.SearchID + " not found", Err: err}
		}
		return 0, technical(CodePersistence, err, "failed to mark search running")
	}

	count, err := uc.fulfill(ctx, job, log)
	if err != nil {
		uc.markFailed(ctx, job.SearchID, log)
		return count, err
	}
	return count, nil
}

func (uc *RunSearchUseCase) fulfill(ctx context.Context, job entity.SearchJob, log *zap.Logger) (int, error) {
	// 2. Fulfillment: sem timeout aqui, quem chama limita o ctx.
	payloads, err := uc.Fulfiller.Fulfill(ctx, job.Params)
	if err != nil {
		return 0, technical(CodeFulfillmentFailed, err, "fulfillment failed")
	}
	if len(payloads) == 0 {
		return 0, technical(CodeFulfillmentFailed, ErrNoLeads, "fulfillment failed")
	}
	log.Debug("fulfillment returned payloads", zap.Int("count", len(payloads)))

	// 3. Um lead por payload. Leads já gravados ficam gravados se algo falhar.
	owner := job.EffectiveOwner()
	written := 0
	for i, payload := range payloads {
		lead, err := entity.NewLead(job.SearchID, owner, payload, uc.now())
		if err != nil {
			return written, &DomainError{
				Code:    CodeValidation,
				Message: errors.Wrapf(err, "lead payload %d rejected", i).Error(),
				Err:     err,
			}
		}
		if err := uc.Leads.Create(ctx, lead); err != nil {
			return written, technical(CodePersistence, err, "failed to save lead")
		}
		written++
	}

	// 4. running -> completed.
	if err := uc.Searches.MarkCompleted(ctx, job.SearchID, written, uc.now()); err != nil {
		return written, technical(CodePersistence, err, "failed to mark search completed")
	}
	return written, nil
}

// markFailed é best effort: erro aqui só vai para o log.
func (uc *RunSearchUseCase) markFailed(ctx context.Context, searchID string, log *zap.Logger) {
	if err := uc.Searches.MarkFailed(context.WithoutCancel(ctx), searchID); err != nil {
		log.Warn("could not mark search failed", zap.Error(err))
	}
}

func (uc *RunSearchUseCase) now() time.Time {
	if uc.Now == nil {
		return time.Now()
	}
	return uc.Now()
}

func (uc *RunSearchUseCase) logger() *zap.Logger {
	if uc.Logger == nil {
		return zap.NewNop()
	}
	return uc.Logger
}
