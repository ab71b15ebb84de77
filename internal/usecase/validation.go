package usecase

import (
	"fmt"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func ValidateSubmitSearchInput(input SubmitSearchInput) []ValidationError {
	var errors []ValidationError

	if input.Params().IsEmpty() {
		errors = append(errors, ValidationError{"search_params", "at least one of industry, location, company_size or keywords is required"})
	}

	return errors
}

func ValidateCreateTemplateInput(input CreateTemplateInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.Name) == "" {
		errors = append(errors, ValidationError{"template_name", "is required"})
	}
	if input.Params().IsEmpty() {
		errors = append(errors, ValidationError{"search_params", "at least one of industry, location, company_size or keywords is required"})
	}

	return errors
}

func validationFailed(errs []ValidationError) *DomainError {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Field+" ("+e.Message+")")
	}
	return &DomainError{
		Code:    CodeValidation,
		Message: "validation failed: " + strings.Join(parts, ", "),
	}
}
