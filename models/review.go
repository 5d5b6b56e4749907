// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Review is a traveler's rating of a completed booking. There is at most one
// review per booking.
type Review struct {
	ID         string    `json:"id" bson:"_id"`
	BookingID  string    `json:"booking_id" bson:"booking_id"`
	TourID     string    `json:"tour_id" bson:"tour_id"`
	GuideID    string    `json:"guide_id" bson:"guide_id"`
	TravelerID string    `json:"traveler_id" bson:"traveler_id"`
	Rating     int       `json:"rating" bson:"rating"`
	Comment    string    `json:"comment" bson:"comment"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// TableName returns the name of the database table
// associated with the Review model.
func (r Review) TableName() string {
	return "reviews"
}

// ReviewRequest is the body of POST /api/bookings/{id}/review.
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewFilter narrows a review listing to a tour or a guide.
type ReviewFilter struct {
	TourID  string
	GuideID string
	Pagination
}

// RatingSummary is the aggregated rating of a guide.
type RatingSummary struct {
	Average float64
	Count   int
}
