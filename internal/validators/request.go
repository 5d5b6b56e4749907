// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// RequestValidator checks API inputs. It first applies the `validate`
// struct tags of the model and then the business rules that tags cannot
// express (decimal amounts, dates relative to today, ranges).
//
// When field names are given, only those fields are checked against their
// tags (Go field names, e.g. "Title") and business rules are skipped.
type RequestValidator struct {
	validate *validator.Validate
	now      func() time.Time
}

// NewRequestValidator constructs a RequestValidator. now supplies the current
// time for date rules; time.Now is used when nil.
func NewRequestValidator(now func() time.Time) Validator {
	if now == nil {
		now = time.Now
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt hashes at most 72 bytes; max=72 counts runes
	_ = v.RegisterValidation("bcryptmax", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= MaxPasswordBytes
	})

	return &RequestValidator{validate: v, now: now}
}

func (v *RequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	if obj == nil {
		return ErrUnsupportedType
	}

	var err error
	if len(fields) > 0 {
		err = v.validate.StructPartialCtx(ctx, obj, fields...)
	} else {
		err = v.validate.StructCtx(ctx, obj)
	}
	if err != nil {
		return v.translate(err)
	}

	if len(fields) > 0 {
		return nil
	}

	switch value := obj.(type) {
	case models.TourRequest:
		return v.validateTourRequest(value)
	case *models.TourRequest:
		return v.validateTourRequest(*value)

	case models.TourUpdate:
		return v.validateTourUpdate(value)
	case *models.TourUpdate:
		return v.validateTourUpdate(*value)

	case models.GuideProfileUpdate:
		return v.validateGuideProfileUpdate(value)
	case *models.GuideProfileUpdate:
		return v.validateGuideProfileUpdate(*value)

	case models.UserUpdate:
		return v.validateUserUpdate(value)
	case *models.UserUpdate:
		return v.validateUserUpdate(*value)

	case models.BookingRequest:
		return v.validateBookingRequest(value)
	case *models.BookingRequest:
		return v.validateBookingRequest(*value)

	case models.GuideFilter:
		return v.validateGuideFilter(value)
	case *models.GuideFilter:
		return v.validateGuideFilter(*value)

	case models.TourFilter:
		return v.validateTourFilter(value)
	case *models.TourFilter:
		return v.validateTourFilter(*value)

	case models.BookingFilter:
		return v.validateBookingFilter(value)
	case *models.BookingFilter:
		return v.validateBookingFilter(*value)

	case models.UserFilter:
		return v.validateUserFilter(value)
	case *models.UserFilter:
		return v.validateUserFilter(*value)

	case models.RevenueRange:
		return v.validateRevenueRange(value)
	case *models.RevenueRange:
		return v.validateRevenueRange(*value)
	}

	return nil
}

func (v *RequestValidator) translate(err error) error {
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("%w: %T", ErrUnsupportedType, invalid.Type)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid":
		return "must be a valid id"
	case "url":
		return "must be a valid URL"
	case "numeric":
		return "must contain digits only"
	case "alpha":
		return "must contain letters only"
	case "hexadecimal":
		return "must be a hex string"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return "must have at least " + fe.Param() + " characters or items"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String || fe.Kind() == reflect.Slice {
			return "must have at most " + fe.Param() + " characters or items"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "nefield":
		return "must differ from " + strings.ToLower(fe.Param())
	case "bcryptmax":
		return "must be at most " + strconv.Itoa(MaxPasswordBytes) + " bytes long"
	}
	return "is invalid"
}

func validatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return rule(ErrNonPositivePrice)
	}
	if !price.Equal(price.Round(2)) {
		return rule(ErrTooPrecise)
	}
	return nil
}

func (v *RequestValidator) validateTourRequest(req models.TourRequest) error {
	return validatePrice(req.Price)
}

func (v *RequestValidator) validateTourUpdate(upd models.TourUpdate) error {
	if upd.IsEmpty() {
		return rule(ErrNoFieldsToUpdate)
	}
	if upd.Price != nil {
		return validatePrice(*upd.Price)
	}
	return nil
}

func (v *RequestValidator) validateGuideProfileUpdate(upd models.GuideProfileUpdate) error {
	if upd.IsEmpty() {
		return rule(ErrNoFieldsToUpdate)
	}
	if upd.HourlyRate != nil {
		if upd.HourlyRate.IsNegative() {
			return rule(ErrNegativeRate)
		}
		if !upd.HourlyRate.Equal(upd.HourlyRate.Round(2)) {
			return rule(ErrTooPrecise)
		}
	}
	return nil
}

func (v *RequestValidator) validateUserUpdate(upd models.UserUpdate) error {
	if upd.IsEmpty() {
		return rule(ErrNoFieldsToUpdate)
	}
	return nil
}

func (v *RequestValidator) validateBookingRequest(req models.BookingRequest) error {
	if req.TourDate.IsZero() {
		return rule(ErrEmptyTourDate)
	}
	if req.TourDate.Before(models.NewDate(v.now())) {
		return rule(ErrTourDateInPast)
	}
	return nil
}

func validateRange(minValue, maxValue *decimal.Decimal) error {
	if minValue != nil && maxValue != nil && minValue.GreaterThan(*maxValue) {
		return rule(ErrInvalidRange)
	}
	return nil
}

func (v *RequestValidator) validateGuideFilter(f models.GuideFilter) error {
	if !f.Sort.Valid() {
		return rule(ErrInvalidSort)
	}
	return validateRange(f.MinRate, f.MaxRate)
}

func (v *RequestValidator) validateTourFilter(f models.TourFilter) error {
	if !f.Sort.Valid() {
		return rule(ErrInvalidSort)
	}
	return validateRange(f.MinPrice, f.MaxPrice)
}

func (v *RequestValidator) validateBookingFilter(f models.BookingFilter) error {
	if f.Status != "" && !f.Status.Valid() {
		return rule(ErrInvalidStatus)
	}
	return nil
}

func (v *RequestValidator) validateUserFilter(f models.UserFilter) error {
	if f.Role != "" && !f.Role.Valid() {
		return rule(ErrInvalidRole)
	}
	return nil
}

func (v *RequestValidator) validateRevenueRange(r models.RevenueRange) error {
	if !r.From.Before(r.To) {
		return rule(ErrInvalidMonthRange)
	}
	return nil
}
