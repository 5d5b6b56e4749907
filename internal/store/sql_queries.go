// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	sq "github.com/Masterminds/squirrel"
)

// psql builds PostgreSQL statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	userColumns = `id, name, email, password_hash, role, phone, avatar_url, active, totp_secret, totp_enabled, created_at, updated_at`

	createUser = `INSERT INTO users (id, name, email, password_hash, role, phone, avatar_url, active, totp_secret, totp_enabled, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    RETURNING ` + userColumns + `;`

	findUserByID = `SELECT ` + userColumns + `
    FROM users
    WHERE id = $1;`

	findUserByEmail = `SELECT ` + userColumns + `
    FROM users
    WHERE email = $1;`
)

const (
	profileColumns = `user_id, bio, languages, city, country, experience_years, hourly_rate, verified, rating, review_count, created_at, updated_at`

	createGuideProfile = `INSERT INTO guide_profiles (user_id, bio, languages, city, country, experience_years, hourly_rate, verified, rating, review_count, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	updateGuideProfile = `UPDATE guide_profiles
    SET bio = $2, languages = $3, city = $4, country = $5, experience_years = $6, hourly_rate = $7, updated_at = $8
    WHERE user_id = $1
    RETURNING ` + profileColumns + `;`

	setGuideVerified = `UPDATE guide_profiles
    SET verified = $2, updated_at = NOW()
    WHERE user_id = $1;`

	setGuideRating = `UPDATE guide_profiles
    SET rating = $2, review_count = $3
    WHERE user_id = $1;`
)

// guideSelectColumns are the columns of the users + guide_profiles join in
// the order scanGuide expects them.
var guideSelectColumns = []string{
	"u.id", "u.name", "u.email", "u.password_hash", "u.role", "u.phone", "u.avatar_url", "u.active",
	"u.totp_secret", "u.totp_enabled", "u.created_at", "u.updated_at",
	"p.user_id", "p.bio", "p.languages", "p.city", "p.country", "p.experience_years", "p.hourly_rate",
	"p.verified", "p.rating", "p.review_count", "p.created_at", "p.updated_at",
}

const (
	tourColumns = `id, guide_id, title, description, city, country, price, currency, duration_hours, max_group_size, tags, images, active, created_at, updated_at`

	createTour = `INSERT INTO tours (id, guide_id, title, description, city, country, price, currency, duration_hours, max_group_size, tags, images, active, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    RETURNING ` + tourColumns + `;`

	findTourByID = `SELECT ` + tourColumns + `
    FROM tours
    WHERE id = $1;`

	updateTour = `UPDATE tours
    SET title = $2, description = $3, city = $4, country = $5, price = $6, currency = $7, duration_hours = $8,
        max_group_size = $9, tags = $10, active = $11, updated_at = $12
    WHERE id = $1
    RETURNING ` + tourColumns + `;`

	appendTourImage = `UPDATE tours
    SET images = images || jsonb_build_array($2::text), updated_at = $3
    WHERE id = $1
    RETURNING ` + tourColumns + `;`
)

const (
	bookingColumns = `id, traveler_id, guide_id, tour_id, tour_date, group_size, total_price, currency, status, payment_status, notes, cancellation_reason, created_at, updated_at`

	// lockTourForBooking serialises bookings of the same tour.
	lockTourForBooking = `SELECT max_group_size, active
    FROM tours
    WHERE id = $1
    FOR UPDATE;`

	bookedSeats = `SELECT COALESCE(SUM(group_size), 0)
    FROM bookings
    WHERE tour_id = $1 AND tour_date = $2 AND status IN ('pending', 'confirmed');`

	createBooking = `INSERT INTO bookings (id, traveler_id, guide_id, tour_id, tour_date, group_size, total_price, currency, status, payment_status, notes, cancellation_reason, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
    RETURNING ` + bookingColumns + `;`

	findBookingByID = `SELECT ` + bookingColumns + `
    FROM bookings
    WHERE id = $1;`

	updatePaymentStatus = `UPDATE bookings
    SET payment_status = $3, updated_at = NOW()
    WHERE id = $1 AND payment_status = $2
    RETURNING ` + bookingColumns + `;`

	findExpiredPending = `SELECT ` + bookingColumns + `
    FROM bookings
    WHERE status = 'pending' AND payment_status = 'unpaid' AND created_at < $1
    ORDER BY created_at
    LIMIT $2;`

	findPastConfirmed = `SELECT ` + bookingColumns + `
    FROM bookings
    WHERE status = 'confirmed' AND tour_date < $1
    ORDER BY tour_date
    LIMIT $2;`

	guideBookingsByStatus = `SELECT status, COUNT(*),
        COALESCE(SUM(total_price) FILTER (WHERE status = 'completed' AND payment_status = 'paid'), 0)
    FROM bookings
    WHERE guide_id = $1
    GROUP BY status;`

	guideRating = `SELECT rating, review_count
    FROM guide_profiles
    WHERE user_id = $1;`
)

const (
	transactionColumns = `id, booking_id, user_id, order_id, payment_id, signature, amount, currency, status, failure_reason, created_at, updated_at`

	createTransaction = `INSERT INTO transactions (id, booking_id, user_id, order_id, payment_id, signature, amount, currency, status, failure_reason, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    RETURNING ` + transactionColumns + `;`

	findTransactionByOrderID = `SELECT ` + transactionColumns + `
    FROM transactions
    WHERE order_id = $1;`

	findTransactionByPaymentID = `SELECT ` + transactionColumns + `
    FROM transactions
    WHERE payment_id = $1
    ORDER BY updated_at DESC
    LIMIT 1;`

	findCapturedTransaction = `SELECT ` + transactionColumns + `
    FROM transactions
    WHERE booking_id = $1 AND status = 'captured';`

	updateTransaction = `UPDATE transactions
    SET status = $3, payment_id = $4, signature = $5, failure_reason = $6, updated_at = $7
    WHERE order_id = $1 AND status = $2
    RETURNING ` + transactionColumns + `;`
)

const (
	reviewColumns = `id, booking_id, tour_id, guide_id, traveler_id, rating, comment, created_at`

	createReview = `INSERT INTO reviews (id, booking_id, tour_id, guide_id, traveler_id, rating, comment, created_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING ` + reviewColumns + `;`

	findReviewByID = `SELECT ` + reviewColumns + `
    FROM reviews
    WHERE id = $1;`

	deleteReview = `DELETE FROM reviews
    WHERE id = $1;`

	guideRatingSummary = `SELECT COALESCE(AVG(rating), 0)::float8, COUNT(*)
    FROM reviews
    WHERE guide_id = $1;`
)

const (
	countUsersByRole = `SELECT role, COUNT(*)
    FROM users
    GROUP BY role;`

	countBookingsByStatus = `SELECT status, COUNT(*)
    FROM bookings
    GROUP BY status;`

	totalRevenue = `SELECT COALESCE(SUM(total_price), 0)
    FROM bookings
    WHERE payment_status = 'paid';`

	countActiveTours = `SELECT COUNT(*)
    FROM tours
    WHERE active;`

	revenueByMonth = `SELECT to_char(date_trunc('month', created_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month,
        SUM(total_price), COUNT(*)
    FROM bookings
    WHERE payment_status = 'paid' AND created_at >= $1 AND created_at < $2
    GROUP BY month
    ORDER BY month;`

	topGuides = `SELECT b.guide_id, u.name, SUM(b.total_price) AS revenue, COUNT(*)
    FROM bookings b
    JOIN users u ON u.id = b.guide_id
    WHERE b.payment_status = 'paid'
    GROUP BY b.guide_id, u.name
    ORDER BY revenue DESC, b.guide_id
    LIMIT $1;`
)

// likePattern turns free text into an ILIKE substring pattern, escaping the
// wildcard characters of the input.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(q)) + "%"
}

// page applies the limit and offset of p to b.
func page(b sq.SelectBuilder, p models.Pagination) sq.SelectBuilder {
	p = p.Normalize()
	return b.Limit(uint64(p.Limit)).Offset(uint64(p.Offset()))
}

// toSQL renders b and logs a failure with the name of the calling builder.
func toSQL(ctx context.Context, name string, b sq.Sqlizer) (string, []any, error) {
	query, args, err := b.ToSql()
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", name).Msg("failed to build query")
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	return query, args, nil
}

func userFilterWhere(filter models.UserFilter) sq.And {
	where := sq.And{}
	if filter.Role != "" {
		where = append(where, sq.Eq{"role": filter.Role})
	}
	if filter.Active != nil {
		where = append(where, sq.Eq{"active": *filter.Active})
	}
	if strings.TrimSpace(filter.Query) != "" {
		pattern := likePattern(filter.Query)
		where = append(where, sq.Or{sq.ILike{"name": pattern}, sq.ILike{"email": pattern}})
	}
	return where
}

// buildListUsersQuery builds the page query of the administrator's user
// listing, newest accounts first.
func buildUpdateUserQuery(ctx context.Context, id string, changes models.UserChanges) (string, []any, error) {
	b := psql.Update("users")
	if changes.Name != nil {
		b = b.Set("name", *changes.Name)
	}
	if changes.Phone != nil {
		b = b.Set("phone", *changes.Phone)
	}
	if changes.AvatarURL != nil {
		b = b.Set("avatar_url", *changes.AvatarURL)
	}
	if changes.PasswordHash != nil {
		b = b.Set("password_hash", *changes.PasswordHash)
	}
	if changes.TOTPSecret != nil {
		b = b.Set("totp_secret", *changes.TOTPSecret)
	}
	if changes.TOTPEnabled != nil {
		b = b.Set("totp_enabled", *changes.TOTPEnabled)
	}
	if changes.Active != nil {
		b = b.Set("active", *changes.Active)
	}

	where := sq.Eq{"id": id}
	if changes.IfPasswordHash != nil {
		where["password_hash"] = *changes.IfPasswordHash
	}
	if changes.IfTOTPSecret != nil {
		where["totp_secret"] = *changes.IfTOTPSecret
	}
	if changes.IfTOTPEnabled != nil {
		where["totp_enabled"] = *changes.IfTOTPEnabled
	}

	b = b.Set("updated_at", changes.UpdatedAt).
		Where(where).
		Suffix("RETURNING " + userColumns)
	return toSQL(ctx, "buildUpdateUserQuery", b)
}

func buildListUsersQuery(ctx context.Context, filter models.UserFilter) (string, []any, error) {
	b := psql.Select(strings.Split(userColumns, ", ")...).
		From("users").
		Where(userFilterWhere(filter)).
		OrderBy("created_at DESC", "id")
	return toSQL(ctx, "buildListUsersQuery", page(b, filter.Pagination))
}

func buildCountUsersQuery(ctx context.Context, filter models.UserFilter) (string, []any, error) {
	b := psql.Select("COUNT(*)").From("users").Where(userFilterWhere(filter))
	return toSQL(ctx, "buildCountUsersQuery", b)
}

func guideFilterWhere(filter models.GuideFilter) sq.And {
	where := sq.And{
		sq.Eq{"u.role": models.RoleGuide},
		sq.Eq{"u.active": true},
	}
	if strings.TrimSpace(filter.Query) != "" {
		pattern := likePattern(filter.Query)
		where = append(where, sq.Or{
			sq.ILike{"u.name": pattern},
			sq.ILike{"p.bio": pattern},
			sq.ILike{"p.city": pattern},
		})
	}
	if filter.City != "" {
		where = append(where, sq.Expr("lower(p.city) = lower(?)", filter.City))
	}
	if filter.Language != "" {
		where = append(where, sq.Expr("p.languages @> jsonb_build_array(?::text)", filter.Language))
	}
	if filter.MinRate != nil {
		where = append(where, sq.GtOrEq{"p.hourly_rate": *filter.MinRate})
	}
	if filter.MaxRate != nil {
		where = append(where, sq.LtOrEq{"p.hourly_rate": *filter.MaxRate})
	}
	if filter.Verified != nil {
		where = append(where, sq.Eq{"p.verified": *filter.Verified})
	}
	return where
}

func guideOrder(s models.GuideSort) []string {
	switch s {
	case models.GuideSortRateAsc:
		return []string{"p.hourly_rate ASC", "u.id"}
	case models.GuideSortRateDesc:
		return []string{"p.hourly_rate DESC", "u.id"}
	case models.GuideSortNewest:
		return []string{"u.created_at DESC", "u.id"}
	default:
		return []string{"p.rating DESC", "p.review_count DESC", "u.id"}
	}
}

// buildSearchGuidesQuery builds the page query of the guide search.
func buildSearchGuidesQuery(ctx context.Context, filter models.GuideFilter) (string, []any, error) {
	b := psql.Select(guideSelectColumns...).
		From("users u").
		Join("guide_profiles p ON p.user_id = u.id").
		Where(guideFilterWhere(filter)).
		OrderBy(guideOrder(filter.Sort)...)
	return toSQL(ctx, "buildSearchGuidesQuery", page(b, filter.Pagination))
}

func buildCountGuidesQuery(ctx context.Context, filter models.GuideFilter) (string, []any, error) {
	b := psql.Select("COUNT(*)").
		From("users u").
		Join("guide_profiles p ON p.user_id = u.id").
		Where(guideFilterWhere(filter))
	return toSQL(ctx, "buildCountGuidesQuery", b)
}

func buildGetGuideQuery(ctx context.Context, userID string) (string, []any, error) {
	b := psql.Select(guideSelectColumns...).
		From("users u").
		Join("guide_profiles p ON p.user_id = u.id").
		Where(sq.Eq{"u.id": userID})
	return toSQL(ctx, "buildGetGuideQuery", b)
}

func tourFilterWhere(filter models.TourFilter) sq.And {
	where := sq.And{}
	if !filter.IncludeInactive {
		where = append(where, sq.Eq{"active": true})
	}
	if strings.TrimSpace(filter.Query) != "" {
		pattern := likePattern(filter.Query)
		where = append(where, sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
			sq.ILike{"city": pattern},
		})
	}
	if filter.City != "" {
		where = append(where, sq.Expr("lower(city) = lower(?)", filter.City))
	}
	if filter.GuideID != "" {
		where = append(where, sq.Eq{"guide_id": filter.GuideID})
	}
	if filter.Tag != "" {
		where = append(where, sq.Expr("tags @> jsonb_build_array(?::text)", filter.Tag))
	}
	if filter.MinPrice != nil {
		where = append(where, sq.GtOrEq{"price": *filter.MinPrice})
	}
	if filter.MaxPrice != nil {
		where = append(where, sq.LtOrEq{"price": *filter.MaxPrice})
	}
	if filter.MaxDuration != nil {
		where = append(where, sq.LtOrEq{"duration_hours": *filter.MaxDuration})
	}
	return where
}

func tourOrder(s models.TourSort) []string {
	switch s {
	case models.TourSortPriceAsc:
		return []string{"price ASC", "id"}
	case models.TourSortPriceDesc:
		return []string{"price DESC", "id"}
	default:
		return []string{"created_at DESC", "id"}
	}
}

// buildSearchToursQuery builds the page query of the tour search.
func buildSearchToursQuery(ctx context.Context, filter models.TourFilter) (string, []any, error) {
	b := psql.Select(strings.Split(tourColumns, ", ")...).
		From("tours").
		Where(tourFilterWhere(filter)).
		OrderBy(tourOrder(filter.Sort)...)
	return toSQL(ctx, "buildSearchToursQuery", page(b, filter.Pagination))
}

func buildCountToursQuery(ctx context.Context, filter models.TourFilter) (string, []any, error) {
	b := psql.Select("COUNT(*)").From("tours").Where(tourFilterWhere(filter))
	return toSQL(ctx, "buildCountToursQuery", b)
}

func bookingFilterWhere(filter models.BookingFilter) sq.Eq {
	where := sq.Eq{}
	if filter.TravelerID != "" {
		where["traveler_id"] = filter.TravelerID
	}
	if filter.GuideID != "" {
		where["guide_id"] = filter.GuideID
	}
	if filter.TourID != "" {
		where["tour_id"] = filter.TourID
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	return where
}

// buildListBookingsQuery builds the page query of a booking listing, newest
// bookings first.
func buildListBookingsQuery(ctx context.Context, filter models.BookingFilter) (string, []any, error) {
	b := psql.Select(strings.Split(bookingColumns, ", ")...).
		From("bookings").
		Where(bookingFilterWhere(filter)).
		OrderBy("created_at DESC", "id")
	return toSQL(ctx, "buildListBookingsQuery", page(b, filter.Pagination))
}

func buildCountBookingsQuery(ctx context.Context, filter models.BookingFilter) (string, []any, error) {
	b := psql.Select("COUNT(*)").From("bookings").Where(bookingFilterWhere(filter))
	return toSQL(ctx, "buildCountBookingsQuery", b)
}

// buildUpdateStatusQuery builds the conditional status update of a booking.
// The cancellation reason is only written when the booking gets cancelled.
func buildUpdateStatusQuery(ctx context.Context, change models.StatusChange) (string, []any, error) {
	b := psql.Update("bookings").
		Set("status", change.To).
		Set("updated_at", change.At)
	if change.To == models.BookingCancelled {
		b = b.Set("cancellation_reason", change.Reason)
	}
	b = b.Where(sq.Eq{"id": change.BookingID, "status": change.From}).
		Suffix("RETURNING " + bookingColumns)
	return toSQL(ctx, "buildUpdateStatusQuery", b)
}

func transactionFilterWhere(filter models.TransactionFilter) sq.Eq {
	where := sq.Eq{}
	if filter.UserID != "" {
		where["user_id"] = filter.UserID
	}
	if filter.BookingID != "" {
		where["booking_id"] = filter.BookingID
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	return where
}

func buildListTransactionsQuery(ctx context.Context, filter models.TransactionFilter) (string, []any, error) {
	b := psql.Select(strings.Split(transactionColumns, ", ")...).
		From("transactions").
		Where(transactionFilterWhere(filter)).
		OrderBy("created_at DESC", "id")
	return toSQL(ctx, "buildListTransactionsQuery", page(b, filter.Pagination))
}

func buildCountTransactionsQuery(ctx context.Context, filter models.TransactionFilter) (string, []any, error) {
	b := psql.Select("COUNT(*)").From("transactions").Where(transactionFilterWhere(filter))
	return toSQL(ctx, "buildCountTransactionsQuery", b)
}

func reviewFilterWhere(filter models.ReviewFilter) sq.Eq {
	where := sq.Eq{}
	if filter.TourID != "" {
		where["tour_id"] = filter.TourID
	}
	if filter.GuideID != "" {
		where["guide_id"] = filter.GuideID
	}
	return where
}

func buildListReviewsQuery(ctx context.Context, filter models.ReviewFilter) (string, []any, error) {
	b := psql.Select(strings.Split(reviewColumns, ", ")...).
		From("reviews").
		Where(reviewFilterWhere(filter)).
		OrderBy("created_at DESC", "id")
	return toSQL(ctx, "buildListReviewsQuery", page(b, filter.Pagination))
}

func buildCountReviewsQuery(ctx context.Context, filter models.ReviewFilter) (string, []any, error) {
	b := psql.Select("COUNT(*)").From("reviews").Where(reviewFilterWhere(filter))
	return toSQL(ctx, "buildCountReviewsQuery", b)
}
