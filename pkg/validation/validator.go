// Package validation checks inbound token and change requests before they
// reach the registry. The registry itself only rejects duplicates, unknown
// names, and cycles; surface-level constraints on names, categories, and
// request sizes live here.
package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxNameLength     = 64
	MaxValueLength    = 256
	MaxCategoryLength = 50
	MaxRuleLength     = 512
	MaxDependencies   = 32
	MaxBatchSize      = 1000
	MinBatchSize      = 1

	// Regular expressions
	namePattern     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]*([-_.][a-zA-Z0-9]+)*$`)
	categoryPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)
)

func init() {
	validate = validator.New()
}

// TokenRequest represents a request to create or replace a design token
type TokenRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=64"`
	Value        string   `json:"value" validate:"required,max=256"`
	Category     string   `json:"category" validate:"omitempty,max=50"`
	Rule         string   `json:"rule" validate:"omitempty,max=512"`
	Dependencies []string `json:"dependencies" validate:"omitempty,max=32,dive,min=1,max=64"`
}

// ChangeRequest represents one proposed change in a validation batch. Value
// may be empty when the change only attaches a rule.
type ChangeRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=64"`
	Value        string   `json:"value" validate:"omitempty,max=256"`
	Category     string   `json:"category" validate:"omitempty,max=50"`
	Rule         string   `json:"rule" validate:"omitempty,max=512"`
	Dependencies []string `json:"dependencies" validate:"omitempty,max=32,dive,min=1,max=64"`
}

// ValidateTokenRequest validates a token creation/replacement request
func ValidateTokenRequest(req *TokenRequest) error {
	if req == nil {
		return errors.New("token request cannot be nil")
	}

	// Validate using struct tags
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	if err := ValidateTokenName(req.Name); err != nil {
		return fmt.Errorf("Name: %w", err)
	}
	if err := validateCategory(req.Category); err != nil {
		return fmt.Errorf("Category: %w", err)
	}
	return validateDependencies(req.Dependencies)
}

// ValidateChangeRequest validates one entry of a proposed change batch
func ValidateChangeRequest(req *ChangeRequest) error {
	if req == nil {
		return errors.New("change request cannot be nil")
	}

	// Validate using struct tags
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	if err := ValidateTokenName(req.Name); err != nil {
		return fmt.Errorf("Name: %w", err)
	}
	if err := validateCategory(req.Category); err != nil {
		return fmt.Errorf("Category: %w", err)
	}
	return validateDependencies(req.Dependencies)
}

// ValidateBatchSize validates the size of a change batch
func ValidateBatchSize(size int) error {
	if size < MinBatchSize {
		return fmt.Errorf("batch size must be at least %d, got %d", MinBatchSize, size)
	}
	if size > MaxBatchSize {
		return fmt.Errorf("batch size must not exceed %d, got %d", MaxBatchSize, size)
	}
	return nil
}

// ValidateTokenName validates a token name
func ValidateTokenName(name string) error {
	if name == "" {
		return errors.New("token name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("token name '%s' exceeds maximum length of %d characters", name, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("token name '%s' is invalid (must start with a letter; segments of letters and digits joined by '-', '_' or '.')", name)
	}
	return nil
}

func validateCategory(category string) error {
	if category == "" {
		return nil
	}
	if !categoryPattern.MatchString(category) {
		return fmt.Errorf("category '%s' contains invalid characters (only alphanumeric, underscore and hyphen allowed)", category)
	}
	return nil
}

func validateDependencies(deps []string) error {
	if len(deps) > MaxDependencies {
		return fmt.Errorf("Dependencies: maximum %d dependencies allowed, got %d", MaxDependencies, len(deps))
	}
	for _, dep := range deps {
		if err := ValidateTokenName(dep); err != nil {
			return fmt.Errorf("Dependencies: %w", err)
		}
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		tag := e.Tag()
		param := e.Param()

		switch tag {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "min":
			return fmt.Errorf("%s: must be at least %s", field, param)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, tag)
		}
	}

	return err
}
