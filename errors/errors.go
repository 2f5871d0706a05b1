/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when a point lookup finds no record
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when attempting to create an entity that already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrAmbiguous is returned when a lookup expected at most one record and found more
	ErrAmbiguous = errors.New("ambiguous entity lookup")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration is returned when a mapping dimension, query kind or codec is missing
	ErrConfiguration = errors.New("metadata configuration error")

	// ErrBackend is returned when the underlying storage call failed
	ErrBackend = errors.New("metadata backend error")

	// ErrDataIntegrity is returned when stored data cannot be decoded consistently
	ErrDataIntegrity = errors.New("metadata data integrity error")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// AmbiguousError represents a lookup that matched more than one record
type AmbiguousError struct {
	Type  string
	Key   string
	Count int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s with key %q matched %d records, expected at most one", e.Type, e.Key, e.Count)
}

func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguous
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConfigurationError represents a missing or inconsistent mapping for an entity type
type ConfigurationError struct {
	Type      string
	Dimension string
	Message   string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Type != "" {
		fmt.Fprintf(&b, " for %s", e.Type)
	}
	if e.Dimension != "" {
		fmt.Fprintf(&b, " (%s)", e.Dimension)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// BackendError wraps a failed storage call with the context needed to diagnose it
type BackendError struct {
	Type      string
	Operation string
	Backend   string
	Err       error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend %s on %s failed: %v", e.Backend, e.Operation, e.Type, e.Err)
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// DataIntegrityError represents stored data that cannot be decoded without loss
type DataIntegrityError struct {
	Type    string
	Field   string
	Message string
}

func (e *DataIntegrityError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("data integrity error in %s field %q: %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("data integrity error in field %q: %s", e.Field, e.Message)
}

func (e *DataIntegrityError) Is(target error) bool {
	return target == ErrDataIntegrity
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewAmbiguousError creates a new AmbiguousError
func NewAmbiguousError(entityType, key string, count int) error {
	return &AmbiguousError{Type: entityType, Key: key, Count: count}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(entityType, dimension, format string, args ...any) error {
	return &ConfigurationError{Type: entityType, Dimension: dimension, Message: fmt.Sprintf(format, args...)}
}

// NewBackendError wraps err as a BackendError. Errors that already belong to the
// taxonomy are returned unchanged so NotFound and friends survive the adapter boundary.
func NewBackendError(backend, operation, entityType string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsAlreadyExists(err) || IsAmbiguous(err) ||
		IsConfigurationError(err) || IsDataIntegrityError(err) || IsBackendError(err) {
		return err
	}
	return &BackendError{Type: entityType, Operation: operation, Backend: backend, Err: err}
}

// NewDataIntegrityError creates a new DataIntegrityError
func NewDataIntegrityError(entityType, field, message string) error {
	return &DataIntegrityError{Type: entityType, Field: field, Message: message}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsAmbiguous checks if an error is an ambiguous lookup error
func IsAmbiguous(err error) bool {
	return errors.Is(err, ErrAmbiguous)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsBackendError checks if an error is a backend error
func IsBackendError(err error) bool {
	return errors.Is(err, ErrBackend)
}

// IsDataIntegrityError checks if an error is a data integrity error
func IsDataIntegrityError(err error) bool {
	return errors.Is(err, ErrDataIntegrity)
}

// StatusCode maps an error to the HTTP status a web collaborator should surface.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err), IsAmbiguous(err):
		return http.StatusConflict
	case IsValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
