// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GuideProfile holds the marketplace profile of a user with the guide role.
// Rating and ReviewCount are denormalized and recomputed whenever a review
// of one of the guide's bookings is added or removed.
type GuideProfile struct {
	UserID          string          `json:"user_id" bson:"_id"`
	Bio             string          `json:"bio" bson:"bio"`
	Languages       StringList      `json:"languages" bson:"languages"`
	City            string          `json:"city" bson:"city"`
	Country         string          `json:"country" bson:"country"`
	ExperienceYears int             `json:"experience_years" bson:"experience_years"`
	HourlyRate      decimal.Decimal `json:"hourly_rate" bson:"hourly_rate"`
	Verified        bool            `json:"verified" bson:"verified"`
	Rating          float64         `json:"rating" bson:"rating"`
	ReviewCount     int             `json:"review_count" bson:"review_count"`
	CreatedAt       time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" bson:"updated_at"`
}

// TableName returns the name of the database table
// associated with the GuideProfile model.
func (g GuideProfile) TableName() string {
	return "guide_profiles"
}

// NewGuideProfile returns an empty profile for a freshly registered guide.
func NewGuideProfile(userID string, now time.Time) GuideProfile {
	return GuideProfile{
		UserID:    userID,
		Languages: StringList{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Guide is the public read model of a guide: the account joined with its
// guide profile.
type Guide struct {
	User
	Profile GuideProfile `json:"profile"`
}

// GuideProfileUpdate is a partial update of the caller's guide profile.
type GuideProfileUpdate struct {
	Bio             *string          `json:"bio,omitempty" validate:"omitempty,max=5000"`
	Languages       *[]string        `json:"languages,omitempty" validate:"omitempty,max=20,dive,min=2,max=40"`
	City            *string          `json:"city,omitempty" validate:"omitempty,max=100"`
	Country         *string          `json:"country,omitempty" validate:"omitempty,max=100"`
	ExperienceYears *int             `json:"experience_years,omitempty" validate:"omitempty,min=0,max=80"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate,omitempty"`
}

// IsEmpty reports whether the update carries no fields.
func (u GuideProfileUpdate) IsEmpty() bool {
	return u.Bio == nil && u.Languages == nil && u.City == nil &&
		u.Country == nil && u.ExperienceYears == nil && u.HourlyRate == nil
}

// Apply copies the set fields of u onto p.
func (u GuideProfileUpdate) Apply(p *GuideProfile) {
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Languages != nil {
		p.Languages = StringList(*u.Languages)
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.Country != nil {
		p.Country = *u.Country
	}
	if u.ExperienceYears != nil {
		p.ExperienceYears = *u.ExperienceYears
	}
	if u.HourlyRate != nil {
		p.HourlyRate = *u.HourlyRate
	}
}

// GuideSort is the ordering of a guide search.
type GuideSort string

const (
	GuideSortRating   GuideSort = "rating"
	GuideSortRateAsc  GuideSort = "rate_asc"
	GuideSortRateDesc GuideSort = "rate_desc"
	GuideSortNewest   GuideSort = "newest"
)

// Valid reports whether s is a known ordering. The empty value means the
// default ordering.
func (s GuideSort) Valid() bool {
	switch s {
	case "", GuideSortRating, GuideSortRateAsc, GuideSortRateDesc, GuideSortNewest:
		return true
	}
	return false
}

// GuideFilter holds the search criteria of GET /api/guides.
type GuideFilter struct {
	Query    string
	City     string
	Language string
	MinRate  *decimal.Decimal
	MaxRate  *decimal.Decimal
	Verified *bool
	Sort     GuideSort
	Pagination
}

// GuideStats summarises the business of a single guide.
type GuideStats struct {
	GuideID          string                  `json:"guide_id"`
	BookingsByStatus map[BookingStatus]int64 `json:"bookings_by_status"`
	Earnings         decimal.Decimal         `json:"earnings"`
	Rating           float64                 `json:"rating"`
	ReviewCount      int                     `json:"review_count"`
}

// GuideVerifyRequest is the body of PATCH /api/admin/guides/{id}/verify.
type GuideVerifyRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}
