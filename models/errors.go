package models

import (
	"errors"
	"fmt"
)

// ErrorCode classifies every failure a mutating operation can return.
// Handlers translate codes into HTTP statuses and user-facing messages;
// raw driver/transport errors are never passed upward uninterpreted.
type ErrorCode string

const (
	CodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"
	CodeForbidden        ErrorCode = "FORBIDDEN"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeDuplicatePending ErrorCode = "DUPLICATE_PENDING"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
)

type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NotAuthenticated() *AppError {
	return &AppError{Code: CodeNotAuthenticated, Message: "not signed in"}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: CodeForbidden, Message: msg}
}

func NotFound(what string) *AppError {
	return &AppError{Code: CodeNotFound, Message: what + " not found"}
}

func DuplicatePending() *AppError {
	return &AppError{Code: CodeDuplicatePending, Message: "an invitation is already pending for this user"}
}

func ValidationFailed(msg string) *AppError {
	return &AppError{Code: CodeValidationFailed, Message: msg}
}

func StoreUnavailable(err error) *AppError {
	return &AppError{Code: CodeStoreUnavailable, Message: "storage backend unavailable", Err: err}
}

// CodeOf extracts the error code, defaulting to StoreUnavailable for
// anything unclassified that reached the boundary.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeStoreUnavailable
}

// MessageOf returns the human-readable message for an error.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "something went wrong"
}
