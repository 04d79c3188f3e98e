package app

import "fmt"

// Stable machine-parseable error codes returned to callers.
const (
	CodeValidation    = "VALIDATION"
	CodeItemsNotFound = "ITEMS_NOT_FOUND"
	CodeInexistent    = "INEXISTENT"
	CodeUniqueAdmin   = "RESIGN_UNIQUE_ADMIN"
	CodeNotMember     = "NOT_MEMBER"
	CodeCascade       = "CASCADE_REMOVAL_PROBLEM"
	CodeIDCollision   = "ID_COLLISION"
	CodeConflict      = "WRITE_CONFLICT"
)

type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func validationError(message string) *DomainError {
	return domainError(400, CodeValidation, message, nil)
}
