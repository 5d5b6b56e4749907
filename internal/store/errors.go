// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrEmailAlreadyExists is returned when a user is created with an email
	// that is already registered.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrUserNotFound is returned when no user matches the lookup.
	ErrUserNotFound = errors.New("user was not found")

	// ErrGuideNotFound is returned when the user does not exist or has no
	// guide profile.
	ErrGuideNotFound = errors.New("guide was not found")

	// ErrTourNotFound is returned when no tour matches the lookup. Booking
	// creation also returns it for a deactivated tour.
	ErrTourNotFound = errors.New("tour was not found")

	// ErrBookingNotFound is returned when no booking matches the lookup.
	ErrBookingNotFound = errors.New("booking was not found")

	// ErrCapacityExceeded is returned when a new booking would push the
	// number of booked seats of a tour date over the tour capacity.
	ErrCapacityExceeded = errors.New("tour capacity exceeded")

	// ErrStatusConflict is returned by conditional updates when the record is
	// no longer in the expected state, i.e. another request changed it first.
	ErrStatusConflict = errors.New("record status changed concurrently")

	// ErrTransactionNotFound is returned when no payment transaction matches
	// the lookup.
	ErrTransactionNotFound = errors.New("transaction was not found")

	// ErrOrderAlreadyExists is returned when a transaction is stored twice for
	// the same gateway order.
	ErrOrderAlreadyExists = errors.New("order already exists")

	// ErrReviewExists is returned when a second review is created for the
	// same booking.
	ErrReviewExists = errors.New("booking already reviewed")

	// ErrReviewNotFound is returned when no review matches the lookup.
	ErrReviewNotFound = errors.New("review was not found")

	// ErrMediaNotFound is returned when a stored media file does not exist.
	ErrMediaNotFound = errors.New("media file was not found")

	// ErrUnsupportedBackend is returned when the DSN selects no known
	// database backend.
	ErrUnsupportedBackend = errors.New("unsupported database backend")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a database operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML statement
	// (INSERT, UPDATE, DELETE) fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when iterating a multi-row result fails,
	// typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrRetriesExhausted is returned when a retryable operation kept failing
	// with transient errors.
	ErrRetriesExhausted = errors.New("retries exhausted")
)
