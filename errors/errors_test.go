/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("repositorymetadata", "123")
	
	// Test error message
	expected := `repositorymetadata with key "123" not found`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	
	// Test Is method
	if !errors.Is(err, ErrNotFound) {
		t.Error("NotFoundError should match ErrNotFound")
	}
	
	// Test helper function
	if !IsNotFound(err) {
		t.Error("IsNotFound should return true for NotFoundError")
	}
}

func TestAlreadyExistsError(t *testing.T) {
	err := NewAlreadyExistsError("accesstoken", "ABC")
	
	// Test error message
	expected := `accesstoken with key "ABC" already exists`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}
	
	// Test Is method
	if !errors.Is(err, ErrAlreadyExists) {
		t.Error("AlreadyExistsError should match ErrAlreadyExists")
	}
	
	// Test helper function
	if !IsAlreadyExists(err) {
		t.Error("IsAlreadyExists should return true for AlreadyExistsError")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		message  string
		expected string
	}{
		{
			name:     "with field",
			field:    "organizationId",
			message:  "invalid format",
			expected: `validation failed for field "organizationId": invalid format`,
		},
		{
			name:     "without field",
			field:    "",
			message:  "missing required fields",
			expected: "validation failed: missing required fields",
		},
	}
	
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValidationError(tt.field, tt.message)
			
			if err.Error() != tt.expected {
				t.Errorf("Expected error message %q, got %q", tt.expected, err.Error())
			}
			
			if !errors.Is(err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}
			
			if !IsValidationError(err) {
				t.Error("IsValidationError should return true for ValidationError")
			}
		})
	}
}

func TestAmbiguousError(t *testing.T) {
	err := NewAmbiguousError("teamjoinrequest", "a-1", 2)

	expected := `teamjoinrequest with key "a-1" matched 2 records, expected at most one`
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !errors.Is(err, ErrAmbiguous) {
		t.Error("AmbiguousError should match ErrAmbiguous")
	}

	if !IsAmbiguous(err) {
		t.Error("IsAmbiguous should return true for AmbiguousError")
	}
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("auditlogrecord", "table.columns", "missing columns for %v", []string{"teamId"})

	expected := "configuration error for auditlogrecord (table.columns): missing columns for [teamId]"
	if err.Error() != expected {
		t.Errorf("Expected error message %q, got %q", expected, err.Error())
	}

	if !IsConfigurationError(err) {
		t.Error("IsConfigurationError should return true for ConfigurationError")
	}
}

func TestBackendError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewBackendError("relational", "get", "accesstoken", cause)

	if !IsBackendError(err) {
		t.Error("IsBackendError should return true for BackendError")
	}
	if !errors.Is(err, cause) {
		t.Error("BackendError should unwrap to its cause")
	}

	// Taxonomy errors pass through unchanged
	notFound := NewNotFoundError("accesstoken", "k")
	if got := NewBackendError("relational", "get", "accesstoken", notFound); got != notFound {
		t.Errorf("Expected NotFoundError to pass through, got %v", got)
	}

	if NewBackendError("relational", "get", "accesstoken", nil) != nil {
		t.Error("Expected nil for nil cause")
	}
}

func TestDataIntegrityError(t *testing.T) {
	err := NewDataIntegrityError("repositorymetadata", "teamid3", "missing indexed column")

	if !IsDataIntegrityError(err) {
		t.Error("IsDataIntegrityError should return true for DataIntegrityError")
	}
	if IsConfigurationError(err) {
		t.Error("DataIntegrityError must be distinguishable from ConfigurationError")
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 200},
		{"not found", NewNotFoundError("t", "k"), 404},
		{"wrapped not found", fmt.Errorf("get: %w", NewNotFoundError("t", "k")), 404},
		{"ambiguous", NewAmbiguousError("t", "k", 3), 409},
		{"already exists", NewAlreadyExistsError("t", "k"), 409},
		{"validation", NewValidationError("f", "bad"), 400},
		{"configuration", NewConfigurationError("t", "d", "missing"), 500},
		{"backend", NewBackendError("table", "put", "t", fmt.Errorf("boom")), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusCode(tt.err); got != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, got)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	// Test that wrapped errors still match
	original := NewNotFoundError("repositorymetadata", "123")
	wrapped := fmt.Errorf("database operation failed: %w", original)
	
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("Wrapped NotFoundError should still match ErrNotFound")
	}
	
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should work with wrapped errors")
	}
}

func TestSentinelErrors(t *testing.T) {
	// Ensure sentinel errors are distinct
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyExists,
		ErrInvalidInput,
		ErrAmbiguous,
		ErrConfiguration,
		ErrBackend,
		ErrDataIntegrity,
	}
	
	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Sentinel errors should be distinct: %v matches %v", err1, err2)
			}
		}
	}
}