package entity

import "github.com/cockroachdb/errors"

var (
	ErrSearchNotFound    = errors.New("search not found")
	ErrLeadNotFound      = errors.New("lead not found")
	ErrTemplateNotFound  = errors.New("search template not found")
	ErrLeadAlreadyExists = errors.New("lead id already exists")
	ErrInvalidTransition = errors.New("search is not running")

	ErrMissingSearchID      = errors.New("search id is required")
	ErrEmptyCriteria        = errors.New("at least one search parameter is required")
	ErrCompanyNameRequired  = errors.New("company name is required")
	ErrTemplateNameRequired = errors.New("template name is required")
)
