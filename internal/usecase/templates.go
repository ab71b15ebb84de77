package usecase

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/xavierca1/leadscout/internal/entity"
)

type CreateTemplateUseCase struct {
	Templates entity.TemplateRepository
	Now       func() time.Time
}

func NewCreateTemplateUseCase(templates entity.TemplateRepository) *CreateTemplateUseCase {
	return &CreateTemplateUseCase{Templates: templates, Now: time.Now}
}

func (uc *CreateTemplateUseCase) Execute(ctx context.Context, input CreateTemplateInput) (*entity.SearchTemplate, error) {
	if errs := ValidateCreateTemplateInput(input); len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	tpl, err := entity.NewSearchTemplate(input.Owner, input.Name, input.Description, input.Params(), uc.Now())
	if err != nil {
		return nil, &DomainError{Code: CodeValidation, Message: err.Error(), Err: err}
	}

	if err := uc.Templates.Create(ctx, tpl); err != nil {
		return nil, technical(CodePersistence, err, "failed to save template")
	}
	return tpl, nil
}

// RunTemplateUseCase registra o uso do template e submete uma busca com os critérios dele.
type RunTemplateUseCase struct {
	Templates entity.TemplateRepository
	Submitter SearchSubmitter
	Now       func() time.Time
	Logger    *zap.Logger
}

func NewRunTemplateUseCase(templates entity.TemplateRepository, submitter SearchSubmitter, logger *zap.Logger) *RunTemplateUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunTemplateUseCase{
		Templates: templates,
		Submitter: submitter,
		Now:       time.Now,
		Logger:    logger,
	}
}

func (uc *RunTemplateUseCase) Execute(ctx context.Context, input RunTemplateInput) (*SubmitSearchOutput, error) {
	tpl, err := uc.Templates.FindByID(ctx, input.TemplateID)
	if err != nil {
		if errors.Is(err, entity.ErrTemplateNotFound) {
			return nil, &DomainError{Code: CodeNotFound, Message: "template not found", Err: err}
		}
		return nil, technical(CodePersistence, err, "failed to load template")
	}
	if tpl.Owner != input.Owner {
		return nil, &DomainError{Code: CodeNotFound, Message: "template not found", Err: entity.ErrTemplateNotFound}
	}

	out, err := uc.Submitter.Execute(ctx, SubmitSearchInput{
		Name:        tpl.Name + " - " + uc.Now().Format("2006-01-02"),
		Industry:    tpl.Industry,
		Location:    tpl.Location,
		CompanySize: tpl.CompanySize,
		Keywords:    tpl.Keywords,
		MaxResults:  input.MaxResults,
		Owner:       input.Owner,
	})
	if err != nil {
		return nil, err
	}

	// Só conta uso de buscas efetivamente submetidas.
	if err := uc.Templates.RecordUsage(ctx, tpl.ID, uc.Now()); err != nil {
		uc.Logger.Warn("could not record template usage", zap.String("template_id", tpl.ID), zap.Error(err))
	}
	return out, nil
}
