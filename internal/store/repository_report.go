// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
)

// reportRepository is the PostgreSQL-backed implementation of
// [ReportRepository]. Every method is a single aggregate query, so the
// dashboard can run them in parallel.
type reportRepository struct {
	*DB
	logger *logger.Logger
}

// NewReportRepository constructs a [ReportRepository] backed by db.
func NewReportRepository(db *DB, logger *logger.Logger) ReportRepository {
	return &reportRepository{
		DB:     db,
		logger: logger,
	}
}

// CountUsersByRole counts accounts per role. Roles without accounts are
// reported as zero.
func (r *reportRepository) CountUsersByRole(ctx context.Context) (map[models.Role]int64, error) {
	counts := map[models.Role]int64{
		models.RoleTraveler: 0,
		models.RoleGuide:    0,
		models.RoleAdmin:    0,
	}
	if err := groupCount(ctx, r.DB, countUsersByRole, counts); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*reportRepository.CountUsersByRole").Msg("failed to count users")
		return nil, err
	}
	return counts, nil
}

// CountBookingsByStatus counts bookings per status.
func (r *reportRepository) CountBookingsByStatus(ctx context.Context) (map[models.BookingStatus]int64, error) {
	counts := make(map[models.BookingStatus]int64, len(models.BookingStatuses))
	for _, s := range models.BookingStatuses {
		counts[s] = 0
	}
	if err := groupCount(ctx, r.DB, countBookingsByStatus, counts); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*reportRepository.CountBookingsByStatus").Msg("failed to count bookings")
		return nil, err
	}
	return counts, nil
}

// groupCount scans (key, count) rows into counts.
func groupCount[K ~string](ctx context.Context, db *DB, query string, counts map[K]int64) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key   K
			count int64
		)
		if err = rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		counts[key] = count
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return nil
}

// TotalRevenue sums the totals of paid bookings. Refunded bookings are not
// counted.
func (r *reportRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.QueryRowContext(ctx, totalRevenue).Scan(&total); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*reportRepository.TotalRevenue").Msg("failed to sum revenue")
		return decimal.Zero, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return total, nil
}

// CountActiveTours counts the tours open for booking.
func (r *reportRepository) CountActiveTours(ctx context.Context) (int64, error) {
	total, err := r.count(ctx, countActiveTours, nil)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*reportRepository.CountActiveTours").Msg("failed to count tours")
		return 0, err
	}
	return total, nil
}

// RevenueByMonth sums paid bookings created within rng per calendar month.
// Months without revenue are not listed.
func (r *reportRepository) RevenueByMonth(ctx context.Context, rng models.RevenueRange) ([]models.MonthlyRevenue, error) {
	months, err := queryList(ctx, r.DB, revenueByMonth, []any{rng.From, rng.To}, func(row rowScanner) (models.MonthlyRevenue, error) {
		var m models.MonthlyRevenue
		err := row.Scan(&m.Month, &m.Revenue, &m.Bookings)
		return m, err
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*reportRepository.RevenueByMonth").Msg("failed to aggregate revenue")
		return nil, err
	}
	return months, nil
}

// TopGuides ranks guides by the revenue of their paid bookings.
func (r *reportRepository) TopGuides(ctx context.Context, limit int) ([]models.GuideRevenue, error) {
	guides, err := queryList(ctx, r.DB, topGuides, []any{limit}, func(row rowScanner) (models.GuideRevenue, error) {
		var g models.GuideRevenue
		err := row.Scan(&g.GuideID, &g.Name, &g.Revenue, &g.Bookings)
		return g, err
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*reportRepository.TopGuides").Msg("failed to rank guides")
		return nil, err
	}
	return guides, nil
}
