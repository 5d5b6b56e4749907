// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/MKhiriev/go-tour-guide/models"
)

type userService struct {
	userRepository store.UserRepository
	sanitizer      validators.TextSanitizer
	now            func() time.Time

	logger *logger.Logger
}

func NewUserService(userRepository store.UserRepository, sanitizer validators.TextSanitizer, logger *logger.Logger) UserService {
	return &userService{
		userRepository: userRepository,
		sanitizer:      sanitizer,
		now:            time.Now,
		logger:         logger,
	}
}

func (s *userService) GetUser(ctx context.Context, userID string) (models.User, error) {
	return s.userRepository.GetUserByID(ctx, userID)
}

// UpdateProfile writes the set fields of upd and nothing else. The name is
// stripped of markup.
func (s *userService) UpdateProfile(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error) {
	changes := models.UserChanges{
		Phone:     upd.Phone,
		AvatarURL: upd.AvatarURL,
		UpdatedAt: s.now().UTC(),
	}
	if upd.Name != nil {
		name := s.sanitizer.Text(*upd.Name)
		changes.Name = &name
	}

	updated, err := s.userRepository.UpdateUser(ctx, userID, changes)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return models.User{}, err
		}
		logger.FromContext(ctx).Err(err).Str("user_id", userID).Msg("profile update failed")
		return models.User{}, fmt.Errorf("profile update failed: %w", err)
	}
	return updated, nil
}

func (s *userService) ListUsers(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error) {
	filter.Pagination = filter.Pagination.Normalize()

	users, total, err := s.userRepository.ListUsers(ctx, filter)
	if err != nil {
		return models.Page[models.User]{}, err
	}
	return models.NewPage(users, total, filter.Pagination), nil
}

// SetActive blocks or unblocks an account. Administrators cannot block
// themselves.
func (s *userService) SetActive(ctx context.Context, actor models.Principal, userID string, active bool) (models.User, error) {
	if !actor.IsAdmin() {
		return models.User{}, ErrForbidden
	}
	if actor.UserID == userID && !active {
		return models.User{}, ErrCannotBlockSelf
	}

	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}
	if user.Active == active {
		return user, nil
	}

	updated, err := s.userRepository.UpdateUser(ctx, userID, models.UserChanges{
		Active:    &active,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return models.User{}, fmt.Errorf("status update failed: %w", err)
	}

	s.logger.Info().
		Str("admin_id", actor.UserID).
		Str("user_id", userID).
		Bool("active", active).
		Msg("user status changed")
	return updated, nil
}
