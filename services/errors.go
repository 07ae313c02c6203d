package services

import (
	"errors"
	"fmt"
	"log"
)

// Workflow error codes. Controllers translate these to HTTP statuses;
// services never import gin or net/http.
const (
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeNotFound            = "not_found"
	CodeValidation          = "validation_error"
	CodeCapacityExceeded    = "capacity_exceeded"
	CodeDuplicateAssignment = "duplicate_assignment"
	CodeInvalidTransition   = "invalid_transition"
	CodeDependencyFailure   = "dependency_failure"
)

// WorkflowError is the error type surfaced by every engine operation.
type WorkflowError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code, format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func forbiddenError(format string, args ...interface{}) *WorkflowError {
	return newError(CodeForbidden, format, args...)
}

func notFoundError(format string, args ...interface{}) *WorkflowError {
	return newError(CodeNotFound, format, args...)
}

func validationError(format string, args ...interface{}) *WorkflowError {
	return newError(CodeValidation, format, args...)
}

func invalidTransitionError(format string, args ...interface{}) *WorkflowError {
	return newError(CodeInvalidTransition, format, args...)
}

// logDependencyFailure records a best-effort collaborator failure. The
// primary operation has already succeeded; nothing propagates to the caller.
func logDependencyFailure(what string, err error) {
	log.Printf("%s: %s failed: %v", CodeDependencyFailure, what, err)
}

// ErrorCode extracts the workflow error code, or empty string for plain errors.
func ErrorCode(err error) string {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Code
	}
	return ""
}
