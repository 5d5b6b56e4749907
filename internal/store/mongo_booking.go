// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoBookingRepository is the MongoDB implementation of
// [BookingRepository].
//
// Capacity is tracked in the "tour_slots" collection: one counter document
// per tour and date holding the number of seats taken by pending and
// confirmed bookings. A seat reservation is a conditional upsert that only
// matches while enough seats are left; when the counter exists but is too
// high the upsert collides with it on _id and fails with a duplicate key
// error, which means the tour date is full.
type mongoBookingRepository struct {
	bookings *mongo.Collection
	tours    *mongo.Collection
	slots    *mongo.Collection
	profiles *mongo.Collection
	logger   *logger.Logger
}

// NewMongoBookingRepository constructs a [BookingRepository] over the
// "bookings", "tours" and "tour_slots" collections of db.
func NewMongoBookingRepository(db *mongo.Database, logger *logger.Logger) BookingRepository {
	return &mongoBookingRepository{
		bookings: db.Collection(bookingsCollection),
		tours:    db.Collection(toursCollection),
		slots:    db.Collection(slotsCollection),
		profiles: db.Collection(profilesCollection),
		logger:   logger,
	}
}

func slotID(tourID string, date models.Date) string {
	return tourID + "|" + date.String()
}

// reserveSeats takes size seats of the tour date, or fails with
// [ErrCapacityExceeded].
func (b *mongoBookingRepository) reserveSeats(ctx context.Context, tourID string, date models.Date, size, capacity int) error {
	if size > capacity {
		return ErrCapacityExceeded
	}

	filter := bson.M{
		"_id":    slotID(tourID, date),
		"booked": bson.M{"$lte": capacity - size},
	}
	update := bson.M{
		"$inc":         bson.M{"booked": size},
		"$setOnInsert": bson.M{"tour_id": tourID, "tour_date": date},
	}

	_, err := b.slots.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return ErrCapacityExceeded
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// releaseSeats gives size seats of the tour date back.
func (b *mongoBookingRepository) releaseSeats(ctx context.Context, tourID string, date models.Date, size int) error {
	_, err := b.slots.UpdateOne(ctx, bson.M{"_id": slotID(tourID, date)}, bson.M{"$inc": bson.M{"booked": -size}})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// CreateBooking reserves the seats of the booking and stores it. When the
// insert fails the seats are released again.
func (b *mongoBookingRepository) CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	log := logger.FromContext(ctx)

	var tour models.Tour
	if err := b.tours.FindOne(ctx, bson.M{"_id": booking.TourID, "active": true}).Decode(&tour); err != nil {
		return models.Booking{}, notFound(err, ErrTourNotFound)
	}

	if err := b.reserveSeats(ctx, booking.TourID, booking.TourDate, booking.GroupSize, tour.MaxGroupSize); err != nil {
		return models.Booking{}, err
	}

	if _, err := b.bookings.InsertOne(ctx, booking); err != nil {
		log.Err(err).Str("func", "*mongoBookingRepository.CreateBooking").Str("tour_id", booking.TourID).Msg("failed to create booking")
		if relErr := b.releaseSeats(ctx, booking.TourID, booking.TourDate, booking.GroupSize); relErr != nil {
			log.Err(relErr).Str("func", "*mongoBookingRepository.CreateBooking").Msg("failed to release seats")
		}
		return models.Booking{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return booking, nil
}

// GetBooking returns a booking by id.
func (b *mongoBookingRepository) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	var booking models.Booking
	if err := b.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		return models.Booking{}, notFound(err, ErrBookingNotFound)
	}
	return booking, nil
}

func bookingQuery(filter models.BookingFilter) bson.M {
	query := bson.M{}
	if filter.TravelerID != "" {
		query["traveler_id"] = filter.TravelerID
	}
	if filter.GuideID != "" {
		query["guide_id"] = filter.GuideID
	}
	if filter.TourID != "" {
		query["tour_id"] = filter.TourID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	return query
}

// ListBookings returns one page of bookings matching filter and the total
// number of matches.
func (b *mongoBookingRepository) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error) {
	log := logger.FromContext(ctx)
	query := bookingQuery(filter)

	total, err := b.bookings.CountDocuments(ctx, query)
	if err != nil {
		log.Err(err).Str("func", "*mongoBookingRepository.ListBookings").Msg("failed to count bookings")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	cursor, err := b.bookings.Find(ctx, query, findPage(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}, filter.Pagination))
	if err != nil {
		log.Err(err).Str("func", "*mongoBookingRepository.ListBookings").Msg("failed to list bookings")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	bookings, err := findAll[models.Booking](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}

// UpdateStatus moves a booking from change.From to change.To with a
// conditional update. Leaving a seat-holding status releases the seats.
func (b *mongoBookingRepository) UpdateStatus(ctx context.Context, change models.StatusChange) (models.Booking, error) {
	log := logger.FromContext(ctx)

	set := bson.M{"status": change.To, "updated_at": change.At}
	if change.To == models.BookingCancelled {
		set["cancellation_reason"] = change.Reason
	}

	var updated models.Booking
	err := b.bookings.FindOneAndUpdate(ctx,
		bson.M{"_id": change.BookingID, "status": change.From},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Booking{}, b.missOrConflict(ctx, change.BookingID)
	}
	if err != nil {
		log.Err(err).Str("func", "*mongoBookingRepository.UpdateStatus").Str("booking_id", change.BookingID).Msg("failed to update booking status")
		return models.Booking{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if change.From.HoldsCapacity() && !change.To.HoldsCapacity() {
		if err = b.releaseSeats(ctx, updated.TourID, updated.TourDate, updated.GroupSize); err != nil {
			log.Err(err).Str("func", "*mongoBookingRepository.UpdateStatus").Str("booking_id", change.BookingID).Msg("failed to release seats")
		}
	}

	return updated, nil
}

// UpdatePaymentStatus moves the payment status of a booking from one value to
// another with a conditional update.
func (b *mongoBookingRepository) UpdatePaymentStatus(ctx context.Context, bookingID string, from, to models.PaymentStatus) (models.Booking, error) {
	var updated models.Booking
	err := b.bookings.FindOneAndUpdate(ctx,
		bson.M{"_id": bookingID, "payment_status": from},
		bson.M{"$set": bson.M{"payment_status": to, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Booking{}, b.missOrConflict(ctx, bookingID)
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoBookingRepository.UpdatePaymentStatus").Str("booking_id", bookingID).Msg("failed to update payment status")
		return models.Booking{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return updated, nil
}

func (b *mongoBookingRepository) missOrConflict(ctx context.Context, bookingID string) error {
	if _, err := b.GetBooking(ctx, bookingID); err != nil {
		return err
	}
	return ErrStatusConflict
}

// ListExpiredPending returns the oldest unpaid pending bookings created
// before createdBefore.
func (b *mongoBookingRepository) ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error) {
	return b.findLimited(ctx, bson.M{
		"status":         models.BookingPending,
		"payment_status": models.PaymentUnpaid,
		"created_at":     bson.M{"$lt": createdBefore},
	}, bson.D{{Key: "created_at", Value: 1}}, limit)
}

// ListPastConfirmed returns confirmed bookings whose tour date is before the
// given date.
func (b *mongoBookingRepository) ListPastConfirmed(ctx context.Context, before models.Date, limit int) ([]models.Booking, error) {
	return b.findLimited(ctx, bson.M{
		"status":    models.BookingConfirmed,
		"tour_date": bson.M{"$lt": before},
	}, bson.D{{Key: "tour_date", Value: 1}}, limit)
}

func (b *mongoBookingRepository) findLimited(ctx context.Context, query bson.M, sort bson.D, limit int) ([]models.Booking, error) {
	cursor, err := b.bookings.Find(ctx, query, options.Find().SetSort(sort).SetLimit(int64(limit)))
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoBookingRepository.findLimited").Msg("failed to list bookings")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return findAll[models.Booking](ctx, cursor)
}

// statusGroup is one row of the per-status booking aggregation.
type statusGroup struct {
	Status   models.BookingStatus `bson:"_id"`
	Count    int64                `bson:"count"`
	Earnings decimal.Decimal      `bson:"earnings"`
}

// GuideStats counts the bookings of a guide by status and sums the earnings
// of completed, paid bookings.
func (b *mongoBookingRepository) GuideStats(ctx context.Context, guideID string) (models.GuideStats, error) {
	log := logger.FromContext(ctx)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"guide_id": guideID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
			"earnings": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$status", models.BookingCompleted}},
					bson.M{"$eq": bson.A{"$payment_status", models.PaymentPaid}},
				}},
				"$total_price",
				0,
			}}},
		}}},
	}

	cursor, err := b.bookings.Aggregate(ctx, pipeline)
	if err != nil {
		log.Err(err).Str("func", "*mongoBookingRepository.GuideStats").Str("guide_id", guideID).Msg("failed to aggregate bookings")
		return models.GuideStats{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	groups, err := findAll[statusGroup](ctx, cursor)
	if err != nil {
		return models.GuideStats{}, err
	}

	stats := models.GuideStats{
		GuideID:          guideID,
		BookingsByStatus: make(map[models.BookingStatus]int64, len(models.BookingStatuses)),
		Earnings:         decimal.Zero,
	}
	for _, s := range models.BookingStatuses {
		stats.BookingsByStatus[s] = 0
	}
	for _, g := range groups {
		stats.BookingsByStatus[g.Status] = g.Count
		stats.Earnings = stats.Earnings.Add(g.Earnings)
	}

	var profile models.GuideProfile
	if err = b.profiles.FindOne(ctx, bson.M{"_id": guideID}).Decode(&profile); err != nil {
		return models.GuideStats{}, notFound(err, ErrGuideNotFound)
	}
	stats.Rating = profile.Rating
	stats.ReviewCount = profile.ReviewCount

	return stats, nil
}
