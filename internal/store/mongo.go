// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names of the MongoDB backend.
const (
	usersCollection        = "users"
	profilesCollection     = "guide_profiles"
	toursCollection        = "tours"
	bookingsCollection     = "bookings"
	slotsCollection        = "tour_slots"
	transactionsCollection = "transactions"
	reviewsCollection      = "reviews"
)

// MongoDB is the MongoDB implementation of [Database].
type MongoDB struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logger.Logger
}

// NewConnectMongo connects to the MongoDB deployment of cfg.DSN and checks
// it with a ping.
func NewConnectMongo(ctx context.Context, cfg config.DB, log *logger.Logger) (*MongoDB, error) {
	opts := options.Client().
		ApplyURI(cfg.DSN).
		SetRegistry(mongoRegistry()).
		SetBSONOptions(&options.BSONOptions{NilSliceAsEmpty: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Err(err).Str("func", "NewConnectMongo").Msg("error occurred during database connection")
		return nil, fmt.Errorf("error occurred during database connection: %w", err)
	}

	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		log.Err(err).Str("func", "NewConnectMongo").Msg("error connecting database (ping)")
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("func", "NewConnectMongo").Str("database", cfg.Name).Msg("connected to database successfully")

	return &MongoDB{
		client: client,
		db:     mongoDatabase(client, cfg.Name),
		logger: log,
	}, nil
}

// mongoDatabase opens a database handle that encodes decimals and dates the
// way the repositories expect.
func mongoDatabase(client *mongo.Client, name string) *mongo.Database {
	return client.Database(name, options.Database().
		SetRegistry(mongoRegistry()).
		SetBSONOptions(&options.BSONOptions{NilSliceAsEmpty: true}))
}

// Ping checks that the primary is reachable.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Migrate creates the indexes the repositories rely on. Unique indexes
// enforce one account per email, one review per booking and one
// transaction per gateway order.
func (m *MongoDB) Migrate(ctx context.Context) error {
	return ensureIndexes(ctx, m.db)
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		toursCollection: {
			{Keys: bson.D{{Key: "guide_id", Value: 1}}},
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "tags", Value: 1}}},
		},
		bookingsCollection: {
			{Keys: bson.D{{Key: "traveler_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "guide_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		transactionsCollection: {
			{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "payment_id", Value: 1}}},
			{
				Keys: bson.D{{Key: "booking_id", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"status": models.TransactionCaptured}),
			},
		},
		reviewsCollection: {
			{Keys: bson.D{{Key: "booking_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "guide_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "tour_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for _, name := range []string{usersCollection, toursCollection, bookingsCollection, transactionsCollection, reviewsCollection} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes[name]); err != nil {
			return fmt.Errorf("creating indexes of %s: %w", name, err)
		}
	}

	return nil
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	dateType    = reflect.TypeOf(models.Date{})
)

// mongoRegistry stores decimals as Decimal128 and calendar dates as UTC
// midnight datetimes, so that both sort and aggregate natively.
func mongoRegistry() *bsoncodec.Registry {
	reg := bson.NewRegistry()
	reg.RegisterTypeEncoder(decimalType, bsoncodec.ValueEncoderFunc(encodeDecimal))
	reg.RegisterTypeDecoder(decimalType, bsoncodec.ValueDecoderFunc(decodeDecimal))
	reg.RegisterTypeEncoder(dateType, bsoncodec.ValueEncoderFunc(encodeDate))
	reg.RegisterTypeDecoder(dateType, bsoncodec.ValueDecoderFunc(decodeDate))
	return reg
}

func encodeDecimal(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	d, ok := val.Interface().(decimal.Decimal)
	if !ok {
		return bsoncodec.ValueEncoderError{Name: "encodeDecimal", Types: []reflect.Type{decimalType}, Received: val}
	}

	d128, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return err
	}
	return vw.WriteDecimal128(d128)
}

func decodeDecimal(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != decimalType {
		return bsoncodec.ValueDecoderError{Name: "decodeDecimal", Types: []reflect.Type{decimalType}, Received: val}
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch vr.Type() {
	case bsontype.Decimal128:
		var d128 primitive.Decimal128
		if d128, err = vr.ReadDecimal128(); err != nil {
			return err
		}
		d, err = decimal.NewFromString(d128.String())
	case bsontype.Double:
		var f float64
		if f, err = vr.ReadDouble(); err != nil {
			return err
		}
		d = decimal.NewFromFloat(f)
	case bsontype.Int32:
		var i int32
		if i, err = vr.ReadInt32(); err != nil {
			return err
		}
		d = decimal.NewFromInt32(i)
	case bsontype.Int64:
		var i int64
		if i, err = vr.ReadInt64(); err != nil {
			return err
		}
		d = decimal.NewFromInt(i)
	case bsontype.String:
		var s string
		if s, err = vr.ReadString(); err != nil {
			return err
		}
		d, err = decimal.NewFromString(s)
	case bsontype.Null:
		err = vr.ReadNull()
	default:
		return fmt.Errorf("cannot decode %v into a decimal", vr.Type())
	}
	if err != nil {
		return err
	}

	val.Set(reflect.ValueOf(d))
	return nil
}

func encodeDate(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	d, ok := val.Interface().(models.Date)
	if !ok {
		return bsoncodec.ValueEncoderError{Name: "encodeDate", Types: []reflect.Type{dateType}, Received: val}
	}
	if d.IsZero() {
		return vw.WriteNull()
	}
	return vw.WriteDateTime(d.UnixMilli())
}

func decodeDate(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != dateType {
		return bsoncodec.ValueDecoderError{Name: "decodeDate", Types: []reflect.Type{dateType}, Received: val}
	}

	var d models.Date
	switch vr.Type() {
	case bsontype.DateTime:
		ms, err := vr.ReadDateTime()
		if err != nil {
			return err
		}
		d = models.NewDate(time.UnixMilli(ms))
	case bsontype.String:
		s, err := vr.ReadString()
		if err != nil {
			return err
		}
		if d, err = models.ParseDate(s); err != nil {
			return err
		}
	case bsontype.Null:
		if err := vr.ReadNull(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("cannot decode %v into a date", vr.Type())
	}

	val.Set(reflect.ValueOf(d))
	return nil
}

// regexFilter matches q as a case-insensitive substring.
func regexFilter(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(strings.TrimSpace(q)), "$options": "i"}
}

// equalFoldFilter matches s case-insensitively as a whole.
func equalFoldFilter(s string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(strings.TrimSpace(s)) + "$", "$options": "i"}
}

// findPage applies sort, skip and limit of a page to find options.
func findPage(sort bson.D, p models.Pagination) *options.FindOptions {
	p = p.Normalize()
	return options.Find().
		SetSort(sort).
		SetSkip(int64(p.Offset())).
		SetLimit(int64(p.Limit))
}

// findAll decodes every document of a cursor. The result is never nil.
func findAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)

	items := make([]T, 0, 16)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return items, nil
}

// notFound maps mongo.ErrNoDocuments to target.
func notFound(err, target error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return target
	}
	return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
}
