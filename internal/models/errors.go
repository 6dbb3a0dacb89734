package models

import (
	"fmt"
)

// Error codes handed to the transport layer.
const (
	CodeUnknownField         = "UNKNOWN_FIELD"
	CodeInvalidFilterValue   = "INVALID_FILTER_VALUE"
	CodeInvalidSortDirection = "INVALID_SORT_DIRECTION"
	CodeInvalidPagination    = "INVALID_PAGINATION"
	CodeNotFound             = "NOT_FOUND"
	CodeAlreadyLiked         = "ALREADY_LIKED"
	CodeNotLiked             = "NOT_LIKED"
	CodeValidation           = "VALIDATION_ERROR"
	CodeForbidden            = "FORBIDDEN"
	CodeInternal             = "INTERNAL_ERROR"
)

// AppError represents a caller-facing application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so errors.Is works
// against the sentinels below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrUnknownField         = &AppError{Code: CodeUnknownField, Message: "unknown field"}
	ErrInvalidFilterValue   = &AppError{Code: CodeInvalidFilterValue, Message: "invalid filter value"}
	ErrInvalidSortDirection = &AppError{Code: CodeInvalidSortDirection, Message: "invalid sort direction"}
	ErrInvalidPagination    = &AppError{Code: CodeInvalidPagination, Message: "invalid pagination"}
	ErrNotFound             = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrAlreadyLiked         = &AppError{Code: CodeAlreadyLiked, Message: "already liked"}
	ErrNotLiked             = &AppError{Code: CodeNotLiked, Message: "not liked"}
	ErrForbidden            = &AppError{Code: CodeForbidden, Message: "forbidden"}
)

func NewUnknownFieldError(table, field string) *AppError {
	return &AppError{
		Code:    CodeUnknownField,
		Message: fmt.Sprintf("%s has no field %q", table, field),
	}
}

func NewInvalidFilterValueError(field, operation, reason string) *AppError {
	return &AppError{
		Code:    CodeInvalidFilterValue,
		Message: fmt.Sprintf("invalid filter %s %s: %s", field, operation, reason),
	}
}

func NewInvalidSortDirectionError(field, order string) *AppError {
	return &AppError{
		Code:    CodeInvalidSortDirection,
		Message: fmt.Sprintf("invalid sort order %q for field %s", order, field),
	}
}

func NewInvalidPaginationError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidPagination,
		Message: message,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewAlreadyLikedError(postID uint) *AppError {
	return &AppError{
		Code:    CodeAlreadyLiked,
		Message: fmt.Sprintf("post %d is already liked", postID),
	}
}

func NewNotLikedError(postID uint) *AppError {
	return &AppError{
		Code:    CodeNotLiked,
		Message: fmt.Sprintf("post %d is not liked yet", postID),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}
