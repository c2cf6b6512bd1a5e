// Package apperr defines the error kinds shared by the monitoring core.
//
// Every error returned across a package boundary either wraps one of the
// sentinels below or is one of the typed errors, so callers (the HTTP adapter
// in particular) classify failures with errors.Is / errors.As only.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds.
var (
	// ErrValidation marks malformed input from the caller.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a uniqueness or referential conflict that survived
	// the bounded retry budget.
	ErrConflict = errors.New("conflict")

	// ErrConfig marks malformed stored configuration. Readers log it and
	// carry on with resolved defaults; it is never returned to callers.
	ErrConfig = errors.New("invalid configuration")
)

// FieldError is a single rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates field errors.
type ValidationError struct {
	Fields []FieldError
}

// Invalid returns a ValidationError for a single field.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field errors were collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is reports ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
	Err    error
}

// NotFound wraps cause as a NotFoundError for entity/id.
func NotFound(entity, id string, cause error) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id, Err: cause}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// Is reports ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// ConflictError names the resource whose uniqueness could not be satisfied.
type ConflictError struct {
	Resource string
	Err      error
}

// Conflict wraps cause as a ConflictError on resource.
func Conflict(resource string, cause error) *ConflictError {
	return &ConflictError{Resource: resource, Err: cause}
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return "conflict on " + e.Resource
	}
	return fmt.Sprintf("conflict on %s: %v", e.Resource, e.Err)
}

// Is reports ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}
