package usecase

import "github.com/cockroachdb/errors"

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidJob        = "INVALID_JOB"
	CodeNotFound          = "NOT_FOUND"
	CodeFulfillmentFailed = "FULFILLMENT_FAILED"
	CodePersistence       = "DATABASE_ERROR"
	CodeDispatchFailed    = "DISPATCH_FAILED"
)

// DomainError vem da própria requisição (entrada inválida, id desconhecido).
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError vem da infraestrutura.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode devolve o código de um DomainError ou TechnicalError, ou "".
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

func technical(code string, err error, msg string) *TechnicalError {
	return &TechnicalError{Code: code, Message: msg + ": " + err.Error(), Err: err}
}
