// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoReportRepository is the MongoDB implementation of
// [ReportRepository], built on aggregation pipelines.
type mongoReportRepository struct {
	users    *mongo.Collection
	tours    *mongo.Collection
	bookings *mongo.Collection
	logger   *logger.Logger
}

// NewMongoReportRepository constructs a [ReportRepository] over the
// collections of db.
func NewMongoReportRepository(db *mongo.Database, logger *logger.Logger) ReportRepository {
	return &mongoReportRepository{
		users:    db.Collection(usersCollection),
		tours:    db.Collection(toursCollection),
		bookings: db.Collection(bookingsCollection),
		logger:   logger,
	}
}

var paidBookings = bson.M{"payment_status": models.PaymentPaid}

// groupCount is one row of a {_id: key, count: n} aggregation.
type groupCountRow[K ~string] struct {
	Key   K     `bson:"_id"`
	Count int64 `bson:"count"`
}

func countBy[K ~string](ctx context.Context, coll *mongo.Collection, field string, counts map[K]int64) error {
	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	rows, err := findAll[groupCountRow[K]](ctx, cursor)
	if err != nil {
		return err
	}
	for _, row := range rows {
		counts[row.Key] = row.Count
	}
	return nil
}

// CountUsersByRole counts accounts per role.
func (r *mongoReportRepository) CountUsersByRole(ctx context.Context) (map[models.Role]int64, error) {
	counts := map[models.Role]int64{
		models.RoleTraveler: 0,
		models.RoleGuide:    0,
		models.RoleAdmin:    0,
	}
	if err := countBy(ctx, r.users, "role", counts); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoReportRepository.CountUsersByRole").Msg("failed to count users")
		return nil, err
	}
	return counts, nil
}

// CountBookingsByStatus counts bookings per status.
func (r *mongoReportRepository) CountBookingsByStatus(ctx context.Context) (map[models.BookingStatus]int64, error) {
	counts := make(map[models.BookingStatus]int64, len(models.BookingStatuses))
	for _, s := range models.BookingStatuses {
		counts[s] = 0
	}
	if err := countBy(ctx, r.bookings, "status", counts); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoReportRepository.CountBookingsByStatus").Msg("failed to count bookings")
		return nil, err
	}
	return counts, nil
}

// TotalRevenue sums the totals of paid bookings.
func (r *mongoReportRepository) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	cursor, err := r.bookings.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: paidBookings}},
		{{Key: "$group", Value: bson.M{"_id": nil, "revenue": bson.M{"$sum": "$total_price"}}}},
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoReportRepository.TotalRevenue").Msg("failed to sum revenue")
		return decimal.Zero, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	rows, err := findAll[struct {
		Revenue decimal.Decimal `bson:"revenue"`
	}](ctx, cursor)
	if err != nil {
		return decimal.Zero, err
	}
	if len(rows) == 0 {
		return decimal.Zero, nil
	}
	return rows[0].Revenue, nil
}

// CountActiveTours counts the tours open for booking.
func (r *mongoReportRepository) CountActiveTours(ctx context.Context) (int64, error) {
	n, err := r.tours.CountDocuments(ctx, bson.M{"active": true})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoReportRepository.CountActiveTours").Msg("failed to count tours")
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return n, nil
}

// RevenueByMonth sums paid bookings created within rng per calendar month.
func (r *mongoReportRepository) RevenueByMonth(ctx context.Context, rng models.RevenueRange) ([]models.MonthlyRevenue, error) {
	cursor, err := r.bookings.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"payment_status": models.PaymentPaid,
			"created_at":     bson.M{"$gte": rng.From, "$lt": rng.To},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$created_at"}},
			"revenue":  bson.M{"$sum": "$total_price"},
			"bookings": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoReportRepository.RevenueByMonth").Msg("failed to aggregate revenue")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return findAll[models.MonthlyRevenue](ctx, cursor)
}

// TopGuides ranks guides by the revenue of their paid bookings.
func (r *mongoReportRepository) TopGuides(ctx context.Context, limit int) ([]models.GuideRevenue, error) {
	cursor, err := r.bookings.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: paidBookings}},
		{{Key: "$group", Value: bson.M{
			"_id":      "$guide_id",
			"revenue":  bson.M{"$sum": "$total_price"},
			"bookings": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "guide",
		}}},
		{{Key: "$set", Value: bson.M{"name": bson.M{"$first": "$guide.name"}}}},
		{{Key: "$unset", Value: "guide"}},
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoReportRepository.TopGuides").Msg("failed to rank guides")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return findAll[models.GuideRevenue](ctx, cursor)
}
