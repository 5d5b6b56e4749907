// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRevenueMonths is the report length when no range is given.
	DefaultRevenueMonths = 12

	DefaultTopGuides = 10
	MaxTopGuides     = 50
)

type adminService struct {
	reportRepository store.ReportRepository
	now              func() time.Time

	logger *logger.Logger
}

func NewAdminService(reports store.ReportRepository, logger *logger.Logger) AdminService {
	return &adminService{
		reportRepository: reports,
		now:              time.Now,
		logger:           logger,
	}
}

// Dashboard runs the overview aggregations concurrently. The first failing
// query cancels the others.
func (s *adminService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := s.reportRepository.CountUsersByRole(gctx)
		if err != nil {
			return fmt.Errorf("counting users: %w", err)
		}
		stats.UsersByRole = users
		return nil
	})
	g.Go(func() error {
		bookings, err := s.reportRepository.CountBookingsByStatus(gctx)
		if err != nil {
			return fmt.Errorf("counting bookings: %w", err)
		}
		stats.BookingsByStatus = bookings
		return nil
	})
	g.Go(func() error {
		revenue, err := s.reportRepository.TotalRevenue(gctx)
		if err != nil {
			return fmt.Errorf("summing revenue: %w", err)
		}
		stats.TotalRevenue = revenue
		return nil
	})
	g.Go(func() error {
		tours, err := s.reportRepository.CountActiveTours(gctx)
		if err != nil {
			return fmt.Errorf("counting tours: %w", err)
		}
		stats.ActiveTours = tours
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*adminService.Dashboard").Msg("dashboard aggregation failed")
		return models.DashboardStats{}, err
	}
	return stats, nil
}

// Revenue reports paid revenue per month of r, listing months without
// revenue as zero. A zero range means the last twelve months.
func (s *adminService) Revenue(ctx context.Context, r models.RevenueRange) ([]models.MonthlyRevenue, error) {
	if r.From.IsZero() || r.To.IsZero() {
		r = models.LastMonths(s.now().UTC(), DefaultRevenueMonths)
	}

	months, err := s.reportRepository.RevenueByMonth(ctx, r)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]models.MonthlyRevenue, len(months))
	for _, m := range months {
		byMonth[m.Month] = m
	}

	out := make([]models.MonthlyRevenue, 0, len(months))
	for month := r.From; month.Before(r.To); month = month.AddDate(0, 1, 0) {
		key := month.Format(models.MonthLayout)
		m, ok := byMonth[key]
		if !ok {
			m = models.MonthlyRevenue{Month: key, Revenue: decimal.Zero}
		}
		out = append(out, m)
	}
	return out, nil
}

func (s *adminService) TopGuides(ctx context.Context, limit int) ([]models.GuideRevenue, error) {
	switch {
	case limit <= 0:
		limit = DefaultTopGuides
	case limit > MaxTopGuides:
		limit = MaxTopGuides
	}

	guides, err := s.reportRepository.TopGuides(ctx, limit)
	if err != nil {
		return nil, err
	}
	if guides == nil {
		guides = []models.GuideRevenue{}
	}
	return guides, nil
}
