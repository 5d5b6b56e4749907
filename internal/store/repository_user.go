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

// userRepository is the PostgreSQL-backed implementation of [UserRepository].
// It handles account creation and lookup against the "users" table.
//
// All methods obtain a context-scoped logger via [logger.FromContext] for
// structured, request-level tracing of database interactions.
type userRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewUserRepository constructs a [UserRepository] backed by the provided
// database connection and logger.
func NewUserRepository(db *DB, logger *logger.Logger) UserRepository {
	logger.Debug().Msg("creating user repository")
	return &userRepository{
		db:     db,
		logger: logger,
	}
}

// CreateUser persists a new user record and, for guides, the empty guide
// profile in the same transaction.
//
// Error handling:
//   - PostgreSQL unique_violation (23505) → [ErrEmailAlreadyExists].
//   - Any other driver-level error → wrapped as "unexpected DB error".
func (r *userRepository) CreateUser(ctx context.Context, user models.User, profile *models.GuideProfile) (models.User, error) {
	log := logger.FromContext(ctx)

	var created models.User
	err := r.db.inTx(ctx, nil, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, createUser,
			user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Phone, user.AvatarURL,
			user.Active, user.TOTPSecret, user.TOTPEnabled, user.CreatedAt, user.UpdatedAt,
		)

		var err error
		if created, err = scanUser(row); err != nil {
			return err
		}

		if profile == nil {
			return nil
		}

		_, err = tx.ExecContext(ctx, createGuideProfile,
			profile.UserID, profile.Bio, profile.Languages, profile.City, profile.Country, profile.ExperienceYears,
			profile.HourlyRate, profile.Verified, profile.Rating, profile.ReviewCount, profile.CreatedAt, profile.UpdatedAt,
		)
		return err
	})
	if err != nil {
		log.Err(err).Str("func", "*userRepository.CreateUser").Str("email", user.Email).Msg("error creating user")

		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.User{}, ErrEmailAlreadyExists
		default:
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return created, nil
}

// GetUserByID retrieves a user by its identifier.
func (r *userRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "*userRepository.GetUserByID", findUserByID, id)
}

// GetUserByEmail retrieves a user by its normalized email.
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "*userRepository.GetUserByEmail", findUserByEmail, email)
}

func (r *userRepository) findOne(ctx context.Context, name, query string, arg string) (models.User, error) {
	log := logger.FromContext(ctx)

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		log.Err(err).Str("func", name).Msg("error finding user")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return user, nil
}

// UpdateUser writes the columns set in changes and returns the stored row.
// A guarded update that matches no row is told apart from a missing user
// by a second lookup.
func (r *userRepository) UpdateUser(ctx context.Context, id string, changes models.UserChanges) (models.User, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildUpdateUserQuery(ctx, id, changes)
	if err != nil {
		return models.User{}, err
	}

	updated, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		if !changes.Guarded() {
			return models.User{}, ErrUserNotFound
		}
		if _, err := r.GetUserByID(ctx, id); err != nil {
			return models.User{}, err
		}
		return models.User{}, ErrStatusConflict
	}
	if err != nil {
		log.Err(err).Str("func", "*userRepository.UpdateUser").Str("user_id", id).Msg("error updating user")
		return models.User{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return updated, nil
}

// ListUsers returns one page of the users matching filter and the total
// number of matches.
func (r *userRepository) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	log := logger.FromContext(ctx)

	countQuery, countArgs, err := buildCountUsersQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.db.count(ctx, countQuery, countArgs)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ListUsers").Msg("failed to count users")
		return nil, 0, err
	}

	query, args, err := buildListUsersQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	users, err := queryList(ctx, r.db, query, args, scanUser)
	if err != nil {
		log.Err(err).Str("func", "*userRepository.ListUsers").Msg("failed to list users")
		return nil, 0, err
	}

	return users, total, nil
}
