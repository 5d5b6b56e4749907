// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthLayout is the layout of the month parameters of revenue reports.
const MonthLayout = "2006-01"

// DashboardStats is the administrator's overview of the platform.
type DashboardStats struct {
	UsersByRole      map[Role]int64          `json:"users_by_role"`
	BookingsByStatus map[BookingStatus]int64 `json:"bookings_by_status"`
	TotalRevenue     decimal.Decimal         `json:"total_revenue"`
	ActiveTours      int64                   `json:"active_tours"`
}

// MonthlyRevenue is the paid booking revenue of a calendar month.
type MonthlyRevenue struct {
	Month    string          `json:"month" bson:"_id"`
	Revenue  decimal.Decimal `json:"revenue" bson:"revenue"`
	Bookings int64           `json:"bookings" bson:"bookings"`
}

// GuideRevenue is the paid booking revenue of a single guide.
type GuideRevenue struct {
	GuideID  string          `json:"guide_id" bson:"_id"`
	Name     string          `json:"name" bson:"name"`
	Revenue  decimal.Decimal `json:"revenue" bson:"revenue"`
	Bookings int64           `json:"bookings" bson:"bookings"`
}

// RevenueRange is a half-open interval [From, To) of booking creation times.
type RevenueRange struct {
	From time.Time
	To   time.Time
}

// MonthRange returns the range covering the months from..to inclusive.
func MonthRange(from, to time.Time) RevenueRange {
	from = time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return RevenueRange{From: from, To: to}
}

// LastMonths returns the range of the n calendar months ending with the
// month of now.
func LastMonths(now time.Time, n int) RevenueRange {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return MonthRange(first.AddDate(0, -(n-1), 0), first)
}
