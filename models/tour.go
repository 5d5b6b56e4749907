// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxTourDurationHours caps the length of a single tour to two weeks.
const MaxTourDurationHours = 24 * 14

// DefaultCurrency is used when a tour is created without a currency.
const DefaultCurrency = "INR"

// Tour is an offering authored by a guide. MaxGroupSize is the capacity of
// the tour for a single date.
type Tour struct {
	ID            string          `json:"id" bson:"_id"`
	GuideID       string          `json:"guide_id" bson:"guide_id"`
	Title         string          `json:"title" bson:"title"`
	Description   string          `json:"description" bson:"description"`
	City          string          `json:"city" bson:"city"`
	Country       string          `json:"country" bson:"country"`
	Price         decimal.Decimal `json:"price" bson:"price"`
	Currency      string          `json:"currency" bson:"currency"`
	DurationHours float64         `json:"duration_hours" bson:"duration_hours"`
	MaxGroupSize  int             `json:"max_group_size" bson:"max_group_size"`
	Tags          StringList      `json:"tags" bson:"tags"`
	Images        StringList      `json:"images" bson:"images"`
	Active        bool            `json:"active" bson:"active"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

// TableName returns the name of the database table
// associated with the Tour model.
func (t Tour) TableName() string {
	return "tours"
}

// TourRequest is the body of POST /api/tours.
type TourRequest struct {
	Title         string          `json:"title" validate:"required,min=3,max=200"`
	Description   string          `json:"description" validate:"max=10000"`
	City          string          `json:"city" validate:"required,max=100"`
	Country       string          `json:"country" validate:"max=100"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency" validate:"omitempty,len=3,alpha"`
	DurationHours float64         `json:"duration_hours" validate:"gt=0,lte=336"`
	MaxGroupSize  int             `json:"max_group_size" validate:"min=1,max=100"`
	Tags          []string        `json:"tags" validate:"max=20,dive,min=1,max=40"`
}

// TourUpdate is a partial update of a tour. Only non-nil fields are applied.
type TourUpdate struct {
	Title         *string          `json:"title,omitempty" validate:"omitempty,min=3,max=200"`
	Description   *string          `json:"description,omitempty" validate:"omitempty,max=10000"`
	City          *string          `json:"city,omitempty" validate:"omitempty,min=1,max=100"`
	Country       *string          `json:"country,omitempty" validate:"omitempty,max=100"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Currency      *string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	DurationHours *float64         `json:"duration_hours,omitempty" validate:"omitempty,gt=0,lte=336"`
	MaxGroupSize  *int             `json:"max_group_size,omitempty" validate:"omitempty,min=1,max=100"`
	Tags          *[]string        `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=40"`
	Active        *bool            `json:"active,omitempty"`
}

// IsEmpty reports whether the update carries no fields.
func (u TourUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.City == nil &&
		u.Country == nil && u.Price == nil && u.Currency == nil &&
		u.DurationHours == nil && u.MaxGroupSize == nil && u.Tags == nil &&
		u.Active == nil
}

// Apply copies the set fields of u onto t.
func (u TourUpdate) Apply(t *Tour) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.City != nil {
		t.City = *u.City
	}
	if u.Country != nil {
		t.Country = *u.Country
	}
	if u.Price != nil {
		t.Price = *u.Price
	}
	if u.Currency != nil {
		t.Currency = *u.Currency
	}
	if u.DurationHours != nil {
		t.DurationHours = *u.DurationHours
	}
	if u.MaxGroupSize != nil {
		t.MaxGroupSize = *u.MaxGroupSize
	}
	if u.Tags != nil {
		t.Tags = StringList(*u.Tags)
	}
	if u.Active != nil {
		t.Active = *u.Active
	}
}

// TourSort is the ordering of a tour search.
type TourSort string

const (
	TourSortNewest    TourSort = "newest"
	TourSortPriceAsc  TourSort = "price_asc"
	TourSortPriceDesc TourSort = "price_desc"
)

// Valid reports whether s is a known ordering. The empty value means the
// default ordering.
func (s TourSort) Valid() bool {
	switch s {
	case "", TourSortNewest, TourSortPriceAsc, TourSortPriceDesc:
		return true
	}
	return false
}

// TourFilter holds the search criteria of GET /api/tours.
type TourFilter struct {
	Query       string
	City        string
	GuideID     string
	Tag         string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MaxDuration *float64

	// IncludeInactive lists deactivated tours too. Set for a guide listing
	// its own tours.
	IncludeInactive bool

	Sort TourSort
	Pagination
}
