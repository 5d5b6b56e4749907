// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/mock"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ─────────────────────────────────────────────
// UserService
// ─────────────────────────────────────────────

func newTestUserService(t *testing.T) (*userService, *mock.MockUserRepository) {
	t.Helper()
	users := mock.NewMockUserRepository(gomock.NewController(t))
	svc := NewUserService(users, validators.NewSanitizer(), logger.Nop()).(*userService)
	svc.now = fixedNow
	return svc, users
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc, users := newTestUserService(t)
	ctx := context.Background()

	name := `<b>Asha</b> <script>alert(1)</script>`
	phone := "+91 98765 43210"
	current := models.User{ID: "user-1", Name: "old", Phone: "old", Active: false, TOTPEnabled: true}

	users.EXPECT().UpdateUser(ctx, "user-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, c models.UserChanges) (models.User, error) {
			assert.Nil(t, c.Active)
			assert.Nil(t, c.PasswordHash)
			assert.Nil(t, c.TOTPSecret)
			assert.Nil(t, c.TOTPEnabled)
			assert.Nil(t, c.AvatarURL)
			assert.False(t, c.Guarded())
			return applyChanges(current, c)
		})

	got, err := svc.UpdateProfile(ctx, "user-1", models.UserUpdate{Name: &name, Phone: &phone})

	require.NoError(t, err)
	assert.Equal(t, "Asha", got.Name)
	assert.Equal(t, phone, got.Phone)
	assert.Equal(t, testNow, got.UpdatedAt)
	assert.False(t, got.Active)
	assert.True(t, got.TOTPEnabled)
}

func TestUserService_UpdateProfile_NotFound(t *testing.T) {
	svc, users := newTestUserService(t)
	ctx := context.Background()
	phone := "+91 98765 43210"

	users.EXPECT().UpdateUser(ctx, "ghost", gomock.Any()).Return(models.User{}, store.ErrUserNotFound)

	_, err := svc.UpdateProfile(ctx, "ghost", models.UserUpdate{Phone: &phone})

	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserService_SetActive(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Principal
		target  string
		active  bool
		current bool
		update  bool
		wantErr error
	}{
		{name: "admin blocks user", actor: admin, target: "user-1", active: false, current: true, update: true},
		{name: "admin unblocks user", actor: admin, target: "user-1", active: true, current: false, update: true},
		{name: "already blocked", actor: admin, target: "user-1", active: false, current: false},
		{name: "admin cannot block self", actor: admin, target: admin.UserID, active: false, wantErr: ErrCannotBlockSelf},
		{name: "non admin", actor: guide, target: "user-1", active: false, wantErr: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users := newTestUserService(t)
			ctx := context.Background()

			if tt.wantErr == nil {
				users.EXPECT().GetUserByID(ctx, tt.target).Return(models.User{ID: tt.target, Active: tt.current}, nil)
			}
			if tt.update {
				users.EXPECT().UpdateUser(ctx, tt.target, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, c models.UserChanges) (models.User, error) {
						assert.Nil(t, c.Name)
						assert.Nil(t, c.PasswordHash)
						assert.Nil(t, c.TOTPEnabled)
						return applyChanges(models.User{ID: tt.target, Active: tt.current}, c)
					})
			}

			got, err := svc.SetActive(ctx, tt.actor, tt.target, tt.active)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.active, got.Active)
		})
	}
}

func TestUserService_ListUsers(t *testing.T) {
	svc, users := newTestUserService(t)
	ctx := context.Background()

	users.EXPECT().ListUsers(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, f models.UserFilter) ([]models.User, int64, error) {
			assert.Equal(t, 1, f.Page)
			assert.Equal(t, models.MaxPageLimit, f.Limit)
			return []models.User{{ID: "user-1"}}, 101, nil
		})

	page, err := svc.ListUsers(ctx, models.UserFilter{Pagination: models.Pagination{Limit: 1000}})

	require.NoError(t, err)
	assert.EqualValues(t, 101, page.Total)
	assert.Equal(t, (101+models.MaxPageLimit-1)/models.MaxPageLimit, page.TotalPages)
}

// ─────────────────────────────────────────────
// GuideService
// ─────────────────────────────────────────────

func TestGuideService_GetGuide_HidesBlocked(t *testing.T) {
	ctrl := gomock.NewController(t)
	guides := mock.NewMockGuideRepository(ctrl)
	svc := NewGuideService(guides, mock.NewMockBookingRepository(ctrl), validators.NewSanitizer(), logger.Nop())
	ctx := context.Background()

	guides.EXPECT().GetGuide(ctx, "guide-1").Return(models.Guide{User: models.User{ID: "guide-1", Active: false}}, nil)

	_, err := svc.GetGuide(ctx, "guide-1")

	assert.ErrorIs(t, err, store.ErrGuideNotFound)
}

func TestGuideService_UpdateProfile(t *testing.T) {
	ctrl := gomock.NewController(t)
	guides := mock.NewMockGuideRepository(ctrl)
	svc := NewGuideService(guides, mock.NewMockBookingRepository(ctrl), validators.NewSanitizer(), logger.Nop())
	ctx := context.Background()

	bio := `I know <a href="x">every</a> lane`
	languages := []string{"en", "hi", "en"}
	rate := decimal.RequireFromString("750")

	current := models.Guide{
		User:    models.User{ID: "guide-1", Active: true},
		Profile: models.GuideProfile{UserID: "guide-1", City: "Delhi", Languages: models.StringList{"en"}},
	}
	guides.EXPECT().GetGuide(ctx, "guide-1").Return(current, nil)
	guides.EXPECT().UpdateProfile(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, p models.GuideProfile) (models.GuideProfile, error) { return p, nil })

	got, err := svc.UpdateProfile(ctx, "guide-1", models.GuideProfileUpdate{Bio: &bio, Languages: &languages, HourlyRate: &rate})

	require.NoError(t, err)
	assert.Equal(t, "I know every lane", got.Profile.Bio)
	assert.Equal(t, models.StringList{"en", "hi"}, got.Profile.Languages)
	assert.Equal(t, "Delhi", got.Profile.City)
	assert.True(t, rate.Equal(got.Profile.HourlyRate))
}

func TestGuideService_SetVerifiedAndStats(t *testing.T) {
	ctrl := gomock.NewController(t)
	guides := mock.NewMockGuideRepository(ctrl)
	bookings := mock.NewMockBookingRepository(ctrl)
	svc := NewGuideService(guides, bookings, validators.NewSanitizer(), logger.Nop())
	ctx := context.Background()

	guides.EXPECT().SetVerified(ctx, "guide-1", true).Return(nil)
	guides.EXPECT().GetGuide(ctx, "guide-1").Return(models.Guide{Profile: models.GuideProfile{Verified: true}}, nil)

	got, err := svc.SetVerified(ctx, "guide-1", true)
	require.NoError(t, err)
	assert.True(t, got.Profile.Verified)

	stats := models.GuideStats{GuideID: "guide-1", Rating: 4.5, ReviewCount: 2}
	bookings.EXPECT().GuideStats(ctx, "guide-1").Return(stats, nil)

	gotStats, err := svc.Stats(ctx, "guide-1")
	require.NoError(t, err)
	assert.Equal(t, stats, gotStats)
}

// ─────────────────────────────────────────────
// TourService
// ─────────────────────────────────────────────

func newTestTourService(t *testing.T) (*tourService, *mock.MockTourStorage) {
	t.Helper()
	tours := mock.NewMockTourStorage(gomock.NewController(t))
	svc := NewTourService(tours, validators.NewSanitizer(), &sequenceIDs{}, "inr", logger.Nop()).(*tourService)
	svc.now = fixedNow
	return svc, tours
}

func TestTourService_CreateTour(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	tours.EXPECT().CreateTour(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tour models.Tour) (models.Tour, error) { return tour, nil })

	got, err := svc.CreateTour(ctx, guide, models.TourRequest{
		Title:         "<i>Old</i> Delhi walk",
		City:          "Delhi",
		Price:         decimal.RequireFromString("1500"),
		DurationHours: 3,
		MaxGroupSize:  6,
		Tags:          []string{"Food", "food", " ", "History"},
	})

	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.Equal(t, guide.UserID, got.GuideID)
	assert.Equal(t, "Old Delhi walk", got.Title)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, models.StringList{"food", "history"}, got.Tags)
	assert.True(t, got.Active)
	assert.NotNil(t, got.Images)
}

func TestTourService_CreateTour_NotGuide(t *testing.T) {
	svc, _ := newTestTourService(t)

	_, err := svc.CreateTour(context.Background(), traveler, models.TourRequest{Title: "x"})

	assert.ErrorIs(t, err, ErrNotGuide)
}

func TestTourService_GetTour_Visibility(t *testing.T) {
	inactive := testTour()
	inactive.Active = false

	tests := []struct {
		name    string
		viewer  models.Principal
		wantErr error
	}{
		{name: "anonymous", viewer: models.Principal{}, wantErr: store.ErrTourNotFound},
		{name: "traveler", viewer: traveler, wantErr: store.ErrTourNotFound},
		{name: "owner", viewer: guide},
		{name: "admin", viewer: admin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tours := newTestTourService(t)
			ctx := context.Background()

			tours.EXPECT().GetTour(ctx, inactive.ID).Return(inactive, nil)

			_, err := svc.GetTour(ctx, tt.viewer, inactive.ID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTourService_SearchTours_OnlyActive(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	tours.EXPECT().SearchTours(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, f models.TourFilter) ([]models.Tour, int64, error) {
			assert.False(t, f.IncludeInactive)
			return []models.Tour{testTour()}, 1, nil
		})

	page, err := svc.SearchTours(ctx, models.TourFilter{IncludeInactive: true})

	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestTourService_GuideTours_OwnerSeesInactive(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	gomock.InOrder(
		tours.EXPECT().SearchTours(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, f models.TourFilter) ([]models.Tour, int64, error) {
				assert.True(t, f.IncludeInactive)
				assert.Equal(t, guide.UserID, f.GuideID)
				return nil, 0, nil
			}),
		tours.EXPECT().SearchTours(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, f models.TourFilter) ([]models.Tour, int64, error) {
				assert.False(t, f.IncludeInactive)
				return nil, 0, nil
			}),
	)

	_, err := svc.GuideTours(ctx, guide, guide.UserID, models.Pagination{})
	require.NoError(t, err)
	_, err = svc.GuideTours(ctx, traveler, guide.UserID, models.Pagination{})
	require.NoError(t, err)
}

func TestTourService_UpdateTour(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	title := "<b>Night</b> walk"
	price := decimal.RequireFromString("999")

	tours.EXPECT().GetTour(ctx, "tour-1").Return(testTour(), nil)
	tours.EXPECT().UpdateTour(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tour models.Tour) (models.Tour, error) { return tour, nil })

	got, err := svc.UpdateTour(ctx, guide, "tour-1", models.TourUpdate{Title: &title, Price: &price})

	require.NoError(t, err)
	assert.Equal(t, "Night walk", got.Title)
	assert.True(t, price.Equal(got.Price))
	assert.Equal(t, testNow, got.UpdatedAt)
}

func TestTourService_UpdateTour_NotOwner(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	tours.EXPECT().GetTour(ctx, "tour-1").Return(testTour(), nil)

	title := "Hijacked"
	_, err := svc.UpdateTour(ctx, models.Principal{UserID: "guide-2", Role: models.RoleGuide}, "tour-1", models.TourUpdate{Title: &title})

	assert.ErrorIs(t, err, ErrForbidden)
}

func TestTourService_DeactivateTour(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	tours.EXPECT().GetTour(ctx, "tour-1").Return(testTour(), nil)
	tours.EXPECT().UpdateTour(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, tour models.Tour) (models.Tour, error) {
			assert.False(t, tour.Active)
			return tour, nil
		})

	got, err := svc.DeactivateTour(ctx, admin, "tour-1")

	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestTourService_DeactivateTour_Forbidden(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	tours.EXPECT().GetTour(ctx, "tour-1").Return(testTour(), nil)

	_, err := svc.DeactivateTour(ctx, traveler, "tour-1")

	assert.ErrorIs(t, err, ErrForbidden)
}

// pngHeader is the signature http.DetectContentType recognises as image/png.
var pngHeader = []byte("\x89PNG\x0D\x0A\x1A\x0A")

func TestTourService_AddImage(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 2048)...)

	tours.EXPECT().GetTour(ctx, "tour-1").Return(testTour(), nil)
	tours.EXPECT().AddImage(ctx, "tour-1", "id-1.png", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, name string, r io.Reader) (models.Tour, error) {
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, content, data)

			tour := testTour()
			tour.Images = models.StringList{"tours/" + name}
			return tour, nil
		})

	got, err := svc.AddImage(ctx, guide, "tour-1", "photo.png", bytes.NewReader(content))

	require.NoError(t, err)
	assert.Equal(t, models.StringList{"tours/id-1.png"}, got.Images)
}

func TestTourService_AddImage_RejectsNonImage(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	tours.EXPECT().GetTour(ctx, "tour-1").Return(testTour(), nil)

	_, err := svc.AddImage(ctx, guide, "tour-1", "evil.png", bytes.NewReader([]byte("<html><script>")))

	assert.ErrorIs(t, err, ErrUnsupportedImageType)
}

func TestTourService_AddImage_TooLarge(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	content := append(append([]byte{}, pngHeader...), make([]byte, MaxImageSize)...)

	tours.EXPECT().GetTour(ctx, "tour-1").Return(testTour(), nil)
	tours.EXPECT().AddImage(ctx, "tour-1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ string, r io.Reader) (models.Tour, error) {
			_, err := io.ReadAll(r)
			return models.Tour{}, err
		})

	_, err := svc.AddImage(ctx, guide, "tour-1", "huge.png", bytes.NewReader(content))

	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestTourService_AddImage_NotOwner(t *testing.T) {
	svc, tours := newTestTourService(t)
	ctx := context.Background()

	tours.EXPECT().GetTour(ctx, "tour-1").Return(testTour(), nil)

	_, err := svc.AddImage(ctx, admin, "tour-1", "photo.png", bytes.NewReader(pngHeader))

	assert.ErrorIs(t, err, ErrForbidden)
}
