// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Storages bundles every repository of one database backend together with
// the auxiliary stores.
type Storages struct {
	Users       UserRepository
	Guides      GuideRepository
	Tours       TourStorage
	Bookings    BookingRepository
	Payments    PaymentRepository
	Reviews     ReviewRepository
	Reports     ReportRepository
	Revocations TokenRevocationStore

	DB    Database
	redis *redis.Client
}

// NewStorages connects to the database selected by the DSN scheme and, when
// configured, to Redis.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	var (
		s     *Storages
		media MediaStorage
		err   error
	)

	if cfg.Files.MediaDir != "" {
		if media, err = NewMediaFileStorage(cfg.Files.MediaDir); err != nil {
			return nil, err
		}
	}

	switch cfg.DB.Backend() {
	case config.BackendPostgres:
		var db *DB
		if db, err = NewConnectPostgres(ctx, cfg.DB, log); err != nil {
			return nil, err
		}
		s = NewPostgresStorages(db, media, log)
	case config.BackendMongo:
		var db *MongoDB
		if db, err = NewConnectMongo(ctx, cfg.DB, log); err != nil {
			return nil, err
		}
		s = NewMongoStorages(db, media, log)
	default:
		return nil, ErrUnsupportedBackend
	}

	s.Revocations = NewMemoryRevocationStore()
	if cfg.Redis.Enabled() {
		if s.redis, err = NewRedisClient(ctx, cfg.Redis, log); err != nil {
			_ = s.DB.Close(ctx)
			return nil, fmt.Errorf("connecting redis: %w", err)
		}
		s.Revocations = NewRedisRevocationStore(s.redis)
	}

	return s, nil
}

// NewPostgresStorages builds the PostgreSQL repositories over db. media may
// be nil.
func NewPostgresStorages(db *DB, media MediaStorage, log *logger.Logger) *Storages {
	log.Debug().Msg("creating postgres storages")

	return &Storages{
		Users:       NewUserRepository(db, log),
		Guides:      NewGuideRepository(db, log),
		Tours:       NewTourStorage(NewTourRepository(db, log), media, log),
		Bookings:    NewBookingRepository(db, log),
		Payments:    NewPaymentRepository(db, log),
		Reviews:     NewReviewRepository(db, log),
		Reports:     NewReportRepository(db, log),
		Revocations: NewMemoryRevocationStore(),
		DB:          db,
	}
}

// NewMongoStorages builds the MongoDB repositories over db. media may be
// nil.
func NewMongoStorages(db *MongoDB, media MediaStorage, log *logger.Logger) *Storages {
	log.Debug().Msg("creating mongo storages")

	return newMongoStorages(db, db.db, media, log)
}

func newMongoStorages(conn Database, db *mongo.Database, media MediaStorage, log *logger.Logger) *Storages {
	return &Storages{
		Users:       NewMongoUserRepository(db, log),
		Guides:      NewMongoGuideRepository(db, log),
		Tours:       NewTourStorage(NewMongoTourRepository(db, log), media, log),
		Bookings:    NewMongoBookingRepository(db, log),
		Payments:    NewMongoPaymentRepository(db, log),
		Reviews:     NewMongoReviewRepository(db, log),
		Reports:     NewMongoReportRepository(db, log),
		Revocations: NewMemoryRevocationStore(),
		DB:          conn,
	}
}

// Ping checks the primary database.
func (s *Storages) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

// Close releases the database and Redis connections.
func (s *Storages) Close(ctx context.Context) error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, s.DB.Close(ctx))
	return errors.Join(errs...)
}
