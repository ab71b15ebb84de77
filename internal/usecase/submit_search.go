package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

// SubmitSearchUseCase grava a busca em pending e a entrega ao dispatcher.
type SubmitSearchUseCase struct {
	Searches   SearchCreator
	Dispatcher SearchDispatcher
	Now        func() time.Time
	Logger     *zap.Logger
}

func NewSubmitSearchUseCase(searches SearchCreator, dispatcher SearchDispatcher, logger *zap.Logger) *SubmitSearchUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmitSearchUseCase{
		Searches:   searches,
		Dispatcher: dispatcher,
		Now:        time.Now,
		Logger:     logger,
	}
}

func (uc *SubmitSearchUseCase) Execute(ctx context.Context, input SubmitSearchInput) (*SubmitSearchOutput, error) {
	if errs := ValidateSubmitSearchInput(input); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	search, err := entity.NewSearch(input.Owner, input.Name, input.Params(), uc.Now())
	if err != nil {
		return nil, &DomainError{Code: CodeValidation, Message: err.Error(), Err: err}
	}

	txn := NewTransaction(uc.Logger)

	txn.AddOperation("create_search", func(ctx context.Context) error {
		return uc.Searches.Create(ctx, search)
	})
	txn.AddCompensation("delete_search", func(ctx context.Context) error {
		return uc.Searches.Delete(ctx, search.ID)
	})

	txn.AddOperation("dispatch_search", func(ctx context.Context) error {
		return uc.Dispatcher.Dispatch(ctx, entity.NewSearchJob(search))
	})

	if err := txn.Execute(ctx); err != nil {
		return nil, technical(CodeDispatchFailed, err, "failed to submit search")
	}

	uc.Logger.Info("search submitted",
		zap.String("search_id", search.ID),
		zap.String("owner", search.Owner),
		zap.String("name", search.Name))

	return &SubmitSearchOutput{
		ID:     search.ID,
		Name:   search.Name,
		Status: search.Status,
		Msg:    "Search queued",
	}, nil
}
