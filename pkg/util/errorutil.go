package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// Error codes surfaced by the queue engine. The transport layer maps these
// to HTTP statuses via DomainError.HTTPStatus.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeAlreadyInQueue    = "ALREADY_IN_QUEUE"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeOutsideWindow     = "OUTSIDE_WINDOW"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeInternalError     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

// NewAlreadyInQueue signals a duplicate join for an (institute, participant)
// pair that already holds an active entry.
func NewAlreadyInQueue(instituteID string) error {
	return NewDomainError(CodeAlreadyInQueue, "already in the queue", http.StatusConflict,
		map[string]any{"institute_id": instituteID})
}

// NewInvalidTransition signals an illegal lifecycle move, e.g. leaving twice.
func NewInvalidTransition(message string) error {
	return NewDomainError(CodeInvalidTransition, message, http.StatusConflict, nil)
}

// NewOutsideWindow signals a join attempted outside the institute's daily
// service window.
func NewOutsideWindow(opens, closes string) error {
	return NewDomainError(CodeOutsideWindow, "institute is not accepting joins right now", http.StatusForbidden,
		map[string]any{"opens_at": opens, "closes_at": closes})
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}

// CodeOf extracts the domain error code, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) string {
	return ToDomainError(err).Code
}
