// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"database/sql"
	"fmt"

	"github.com/MKhiriev/go-tour-guide/models"
)

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func userFields(u *models.User) []any {
	return []any{
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.AvatarURL,
		&u.Active, &u.TOTPSecret, &u.TOTPEnabled, &u.CreatedAt, &u.UpdatedAt,
	}
}

func profileFields(p *models.GuideProfile) []any {
	return []any{
		&p.UserID, &p.Bio, &p.Languages, &p.City, &p.Country, &p.ExperienceYears, &p.HourlyRate,
		&p.Verified, &p.Rating, &p.ReviewCount, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(userFields(&u)...)
	return u, err
}

func scanProfile(row rowScanner) (models.GuideProfile, error) {
	var p models.GuideProfile
	err := row.Scan(profileFields(&p)...)
	return p, err
}

func scanGuide(row rowScanner) (models.Guide, error) {
	var g models.Guide
	err := row.Scan(append(userFields(&g.User), profileFields(&g.Profile)...)...)
	return g, err
}

func scanTour(row rowScanner) (models.Tour, error) {
	var t models.Tour
	err := row.Scan(
		&t.ID, &t.GuideID, &t.Title, &t.Description, &t.City, &t.Country, &t.Price, &t.Currency,
		&t.DurationHours, &t.MaxGroupSize, &t.Tags, &t.Images, &t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.TravelerID, &b.GuideID, &b.TourID, &b.TourDate, &b.GroupSize, &b.TotalPrice,
		&b.Currency, &b.Status, &b.PaymentStatus, &b.Notes, &b.CancellationReason, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(
		&t.ID, &t.BookingID, &t.UserID, &t.OrderID, &t.PaymentID, &t.Signature, &t.Amount,
		&t.Currency, &t.Status, &t.FailureReason, &t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

func scanReview(row rowScanner) (models.Review, error) {
	var r models.Review
	err := row.Scan(&r.ID, &r.BookingID, &r.TourID, &r.GuideID, &r.TravelerID, &r.Rating, &r.Comment, &r.CreatedAt)
	return r, err
}

// scanAll drains rows with scan. The result is never nil.
func scanAll[T any](rows *sql.Rows, scan func(rowScanner) (T, error)) ([]T, error) {
	defer rows.Close()

	items := make([]T, 0, 16)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return items, nil
}
