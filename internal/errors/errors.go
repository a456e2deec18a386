package errors

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

const (
	ErrCodeSystemError      = "system_error"
	ErrCodeNotFound         = "not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeValidation       = "validation_error"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeDatabase         = "database_error"
	ErrCodeCache            = "cache_error"
)

// Error classes. Domain errors are marked with one of these so services and
// the HTTP layer can classify them without knowing the domain sentinel.
var (
	ErrNotFound         = newClass(ErrCodeNotFound, "resource not found", http.StatusNotFound)
	ErrAlreadyExists    = newClass(ErrCodeAlreadyExists, "resource already exists", http.StatusConflict)
	ErrValidation       = newClass(ErrCodeValidation, "validation error", http.StatusBadRequest)
	ErrInvalidOperation = newClass(ErrCodeInvalidOperation, "invalid operation", http.StatusBadRequest)
	ErrDatabase         = newClass(ErrCodeDatabase, "database error", http.StatusInternalServerError)
	ErrCache            = newClass(ErrCodeCache, "cache error", http.StatusInternalServerError)
	ErrSystem           = newClass(ErrCodeSystemError, "system error", http.StatusInternalServerError)

	// classes in match order, client errors first
	classes = []*InternalError{
		ErrNotFound,
		ErrAlreadyExists,
		ErrValidation,
		ErrInvalidOperation,
		ErrDatabase,
		ErrCache,
		ErrSystem,
	}
)

// InternalError is an error class
type InternalError struct {
	Code    string
	Message string
	Status  int
}

func newClass(code, message string, status int) *InternalError {
	return &InternalError{Code: code, Message: message, Status: status}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches classes by code
func (e *InternalError) Is(target error) bool {
	t, ok := target.(*InternalError)
	return ok && e.Code == t.Code
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// classOf returns the first class err is marked with, nil when unmarked
func classOf(err error) *InternalError {
	for _, c := range classes {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}

// HTTPStatusFromErr maps an error to a status, 500 for unclassified errors
func HTTPStatusFromErr(err error) int {
	if c := classOf(err); c != nil {
		return c.Status
	}
	return http.StatusInternalServerError
}

// CodeFromErr returns the machine readable code of err's class
func CodeFromErr(err error) string {
	if c := classOf(err); c != nil {
		return c.Code
	}
	return ErrCodeSystemError
}
