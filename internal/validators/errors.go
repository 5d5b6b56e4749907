// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"errors"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")

	// ErrValidation is matched by every [ValidationError].
	ErrValidation = errors.New("validation failed")

	ErrNonPositivePrice  = errors.New("price must be greater than zero")
	ErrNegativeRate      = errors.New("hourly rate must not be negative")
	ErrTooPrecise        = errors.New("amount must have at most two decimal places")
	ErrEmptyTourDate     = errors.New("tour_date is required")
	ErrTourDateInPast    = errors.New("tour_date must be today or later")
	ErrInvalidRange      = errors.New("minimum must not exceed maximum")
	ErrInvalidSort       = errors.New("unknown sort order")
	ErrInvalidStatus     = errors.New("unknown status")
	ErrNoFieldsToUpdate  = errors.New("at least one field must be provided for update")
	ErrInvalidRole       = errors.New("unknown role")
	ErrInvalidMonthRange = errors.New("from must not be after to")
)

// FieldError describes a single failed constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a value violates one or more constraints.
// It matches [ErrValidation] with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ruleError wraps a business rule violation so that it matches both the rule
// sentinel and ErrValidation.
type ruleError struct {
	rule error
}

func (e ruleError) Error() string {
	return e.rule.Error()
}

func (e ruleError) Unwrap() []error {
	return []error{e.rule, ErrValidation}
}

func rule(err error) error {
	return ruleError{rule: err}
}
