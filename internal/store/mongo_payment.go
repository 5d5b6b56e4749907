// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoPaymentRepository is the MongoDB implementation of
// [PaymentRepository].
type mongoPaymentRepository struct {
	transactions *mongo.Collection
	logger       *logger.Logger
}

// NewMongoPaymentRepository constructs a [PaymentRepository] over the
// "transactions" collection of db.
func NewMongoPaymentRepository(db *mongo.Database, logger *logger.Logger) PaymentRepository {
	return &mongoPaymentRepository{
		transactions: db.Collection(transactionsCollection),
		logger:       logger,
	}
}

// CreateTransaction stores a transaction for a freshly created gateway
// order.
func (p *mongoPaymentRepository) CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if _, err := p.transactions.InsertOne(ctx, tx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Transaction{}, ErrOrderAlreadyExists
		}
		logger.FromContext(ctx).Err(err).Str("func", "*mongoPaymentRepository.CreateTransaction").Str("order_id", tx.OrderID).Msg("failed to create transaction")
		return models.Transaction{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return tx, nil
}

// GetTransactionByOrderID returns the transaction of a gateway order.
func (p *mongoPaymentRepository) GetTransactionByOrderID(ctx context.Context, orderID string) (models.Transaction, error) {
	return p.findOne(ctx, bson.M{"order_id": orderID}, nil)
}

// GetTransactionByPaymentID returns the transaction a gateway payment was
// recorded on.
func (p *mongoPaymentRepository) GetTransactionByPaymentID(ctx context.Context, paymentID string) (models.Transaction, error) {
	return p.findOne(ctx, bson.M{"payment_id": paymentID}, options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
}

// GetCapturedTransaction returns the transaction that captured the payment
// of a booking.
func (p *mongoPaymentRepository) GetCapturedTransaction(ctx context.Context, bookingID string) (models.Transaction, error) {
	return p.findOne(ctx, bson.M{"booking_id": bookingID, "status": models.TransactionCaptured}, nil)
}

func (p *mongoPaymentRepository) findOne(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (models.Transaction, error) {
	var tx models.Transaction
	findOpts := []*options.FindOneOptions{}
	if opts != nil {
		findOpts = append(findOpts, opts)
	}
	if err := p.transactions.FindOne(ctx, filter, findOpts...).Decode(&tx); err != nil {
		return models.Transaction{}, notFound(err, ErrTransactionNotFound)
	}
	return tx, nil
}

// UpdateTransaction moves a transaction out of status from.
func (p *mongoPaymentRepository) UpdateTransaction(ctx context.Context, tx models.Transaction, from models.TransactionStatus) (models.Transaction, error) {
	update := bson.M{"$set": bson.M{
		"status":         tx.Status,
		"payment_id":     tx.PaymentID,
		"signature":      tx.Signature,
		"failure_reason": tx.FailureReason,
		"updated_at":     tx.UpdatedAt,
	}}

	var updated models.Transaction
	err := p.transactions.FindOneAndUpdate(ctx, bson.M{"order_id": tx.OrderID, "status": from}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	switch {
	case err == nil:
		return updated, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		if _, err = p.GetTransactionByOrderID(ctx, tx.OrderID); err != nil {
			return models.Transaction{}, err
		}
		return models.Transaction{}, ErrStatusConflict
	case mongo.IsDuplicateKeyError(err):
		return models.Transaction{}, ErrStatusConflict
	default:
		logger.FromContext(ctx).Err(err).Str("func", "*mongoPaymentRepository.UpdateTransaction").Str("order_id", tx.OrderID).Msg("failed to update transaction")
		return models.Transaction{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
}

// ListTransactions returns one page of transactions matching filter and the
// total number of matches.
func (p *mongoPaymentRepository) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int64, error) {
	log := logger.FromContext(ctx)

	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.BookingID != "" {
		query["booking_id"] = filter.BookingID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := p.transactions.CountDocuments(ctx, query)
	if err != nil {
		log.Err(err).Str("func", "*mongoPaymentRepository.ListTransactions").Msg("failed to count transactions")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	cursor, err := p.transactions.Find(ctx, query, findPage(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}, filter.Pagination))
	if err != nil {
		log.Err(err).Str("func", "*mongoPaymentRepository.ListTransactions").Msg("failed to list transactions")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	txs, err := findAll[models.Transaction](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return txs, total, nil
}
