// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/jackc/pgerrcode"
)

// paymentRepository is the PostgreSQL-backed implementation of
// [PaymentRepository] over the "transactions" table.
type paymentRepository struct {
	*DB
	logger *logger.Logger
}

// NewPaymentRepository constructs a [PaymentRepository] backed by db.
func NewPaymentRepository(db *DB, logger *logger.Logger) PaymentRepository {
	return &paymentRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateTransaction stores a transaction for a freshly created gateway
// order.
func (p *paymentRepository) CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	row := p.QueryRowContext(ctx, createTransaction,
		tx.ID, tx.BookingID, tx.UserID, tx.OrderID, tx.PaymentID, tx.Signature, tx.Amount, tx.Currency,
		tx.Status, tx.FailureReason, tx.CreatedAt, tx.UpdatedAt,
	)

	created, err := scanTransaction(row)
	if err != nil {
		log.Err(err).Str("func", "*paymentRepository.CreateTransaction").Str("order_id", tx.OrderID).Msg("failed to create transaction")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.Transaction{}, ErrOrderAlreadyExists
		case pgerrcode.ForeignKeyViolation:
			return models.Transaction{}, ErrBookingNotFound
		default:
			return models.Transaction{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return created, nil
}

// GetTransactionByOrderID returns the transaction of a gateway order.
func (p *paymentRepository) GetTransactionByOrderID(ctx context.Context, orderID string) (models.Transaction, error) {
	return p.findOne(ctx, "*paymentRepository.GetTransactionByOrderID", findTransactionByOrderID, orderID)
}

// GetTransactionByPaymentID returns the transaction a gateway payment was
// recorded on.
func (p *paymentRepository) GetTransactionByPaymentID(ctx context.Context, paymentID string) (models.Transaction, error) {
	return p.findOne(ctx, "*paymentRepository.GetTransactionByPaymentID", findTransactionByPaymentID, paymentID)
}

// GetCapturedTransaction returns the transaction that captured the payment
// of a booking.
func (p *paymentRepository) GetCapturedTransaction(ctx context.Context, bookingID string) (models.Transaction, error) {
	return p.findOne(ctx, "*paymentRepository.GetCapturedTransaction", findCapturedTransaction, bookingID)
}

func (p *paymentRepository) findOne(ctx context.Context, name, query, arg string) (models.Transaction, error) {
	tx, err := scanTransaction(p.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, ErrTransactionNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", name).Msg("failed to get transaction")
		return models.Transaction{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return tx, nil
}

// UpdateTransaction moves a transaction out of status from. A second capture
// of the same booking violates a partial unique index and is reported as
// [ErrStatusConflict].
func (p *paymentRepository) UpdateTransaction(ctx context.Context, tx models.Transaction, from models.TransactionStatus) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	row := p.QueryRowContext(ctx, updateTransaction,
		tx.OrderID, from, tx.Status, tx.PaymentID, tx.Signature, tx.FailureReason, tx.UpdatedAt,
	)

	updated, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err = p.GetTransactionByOrderID(ctx, tx.OrderID); err != nil {
			return models.Transaction{}, err
		}
		return models.Transaction{}, ErrStatusConflict
	}
	if err != nil {
		log.Err(err).Str("func", "*paymentRepository.UpdateTransaction").Str("order_id", tx.OrderID).Msg("failed to update transaction")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.Transaction{}, ErrStatusConflict
		default:
			return models.Transaction{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return updated, nil
}

// ListTransactions returns one page of transactions matching filter and the
// total number of matches.
func (p *paymentRepository) ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int64, error) {
	log := logger.FromContext(ctx)

	countQuery, countArgs, err := buildCountTransactionsQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := p.count(ctx, countQuery, countArgs)
	if err != nil {
		log.Err(err).Str("func", "*paymentRepository.ListTransactions").Msg("failed to count transactions")
		return nil, 0, err
	}

	query, args, err := buildListTransactionsQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	txs, err := queryList(ctx, p.DB, query, args, scanTransaction)
	if err != nil {
		log.Err(err).Str("func", "*paymentRepository.ListTransactions").Msg("failed to list transactions")
		return nil, 0, err
	}

	return txs, total, nil
}
