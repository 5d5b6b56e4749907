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

// mongoUserRepository is the MongoDB implementation of [UserRepository].
type mongoUserRepository struct {
	users    *mongo.Collection
	profiles *mongo.Collection
	logger   *logger.Logger
}

// NewMongoUserRepository constructs a [UserRepository] over the "users" and
// "guide_profiles" collections of db.
func NewMongoUserRepository(db *mongo.Database, logger *logger.Logger) UserRepository {
	return &mongoUserRepository{
		users:    db.Collection(usersCollection),
		profiles: db.Collection(profilesCollection),
		logger:   logger,
	}
}

// CreateUser inserts the account and then the guide profile. Standalone
// deployments have no multi-document transactions, so a failed profile
// insert removes the account again.
func (r *mongoUserRepository) CreateUser(ctx context.Context, user models.User, profile *models.GuideProfile) (models.User, error) {
	log := logger.FromContext(ctx)

	if _, err := r.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrEmailAlreadyExists
		}
		log.Err(err).Str("func", "*mongoUserRepository.CreateUser").Str("email", user.Email).Msg("error creating user")
		return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if profile != nil {
		if _, err := r.profiles.InsertOne(ctx, profile); err != nil {
			log.Err(err).Str("func", "*mongoUserRepository.CreateUser").Str("user_id", user.ID).Msg("error creating guide profile")
			if _, delErr := r.users.DeleteOne(ctx, bson.M{"_id": user.ID}); delErr != nil {
				log.Err(delErr).Str("func", "*mongoUserRepository.CreateUser").Str("user_id", user.ID).Msg("error removing orphan user")
			}
			return models.User{}, fmt.Errorf("unexpected DB error: %w", err)
		}
	}

	return user, nil
}

// GetUserByID retrieves a user by its identifier.
func (r *mongoUserRepository) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by its normalized email.
func (r *mongoUserRepository) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := r.users.FindOne(ctx, filter).Decode(&user); err != nil {
		return models.User{}, notFound(err, ErrUserNotFound)
	}
	return user, nil
}

// UpdateUser sets only the fields present in changes. Preconditions become
// part of the filter, so a guarded write that lost a race matches nothing.
func (r *mongoUserRepository) UpdateUser(ctx context.Context, id string, changes models.UserChanges) (models.User, error) {
	set := bson.M{"updated_at": changes.UpdatedAt}
	if changes.Name != nil {
		set["name"] = *changes.Name
	}
	if changes.Phone != nil {
		set["phone"] = *changes.Phone
	}
	if changes.AvatarURL != nil {
		set["avatar_url"] = *changes.AvatarURL
	}
	if changes.PasswordHash != nil {
		set["password_hash"] = *changes.PasswordHash
	}
	if changes.TOTPSecret != nil {
		set["totp_secret"] = *changes.TOTPSecret
	}
	if changes.TOTPEnabled != nil {
		set["totp_enabled"] = *changes.TOTPEnabled
	}
	if changes.Active != nil {
		set["active"] = *changes.Active
	}

	filter := bson.M{"_id": id}
	if changes.IfPasswordHash != nil {
		filter["password_hash"] = *changes.IfPasswordHash
	}
	if changes.IfTOTPSecret != nil {
		filter["totp_secret"] = optionalString(*changes.IfTOTPSecret)
	}
	if changes.IfTOTPEnabled != nil {
		filter["totp_enabled"] = *changes.IfTOTPEnabled
	}

	var updated models.User
	err := r.users.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) && changes.Guarded() {
		if _, err := r.GetUserByID(ctx, id); err != nil {
			return models.User{}, err
		}
		return models.User{}, ErrStatusConflict
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoUserRepository.UpdateUser").Str("user_id", id).Msg("error updating user")
		return models.User{}, notFound(err, ErrUserNotFound)
	}

	return updated, nil
}

// optionalString matches a string field stored with omitempty: an empty
// value also matches a missing field.
func optionalString(v string) any {
	if v == "" {
		return bson.M{"$in": bson.A{"", nil}}
	}
	return v
}

// ListUsers returns one page of the users matching filter and the total
// number of matches.
func (r *mongoUserRepository) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error) {
	log := logger.FromContext(ctx)

	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Active != nil {
		query["active"] = *filter.Active
	}
	if filter.Query != "" {
		query["$or"] = bson.A{
			bson.M{"name": regexFilter(filter.Query)},
			bson.M{"email": regexFilter(filter.Query)},
		}
	}

	total, err := r.users.CountDocuments(ctx, query)
	if err != nil {
		log.Err(err).Str("func", "*mongoUserRepository.ListUsers").Msg("failed to count users")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	cursor, err := r.users.Find(ctx, query, findPage(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}, filter.Pagination))
	if err != nil {
		log.Err(err).Str("func", "*mongoUserRepository.ListUsers").Msg("failed to list users")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	users, err := findAll[models.User](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
