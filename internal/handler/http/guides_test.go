// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ─────────────────────────────────────────────
// guides
// ─────────────────────────────────────────────

func TestSearchGuides_PassesFilter(t *testing.T) {
	h, m := newTestHandler(t)

	m.guides.EXPECT().SearchGuides(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, f models.GuideFilter) (models.Page[models.Guide], error) {
			assert.Equal(t, "Udaipur", f.City)
			assert.Equal(t, "hindi", f.Language)
			require.NotNil(t, f.Verified)
			assert.True(t, *f.Verified)
			require.NotNil(t, f.MaxRate)
			assert.True(t, f.MaxRate.Equal(decimal.NewFromInt(800)))
			assert.Equal(t, models.GuideSortRating, f.Sort)
			return models.NewPage([]models.Guide{{User: guideUser}}, 1, f.Pagination), nil
		})

	rec := serve(h, nil, http.MethodGet, "/api/guides?city=Udaipur&language=hindi&verified=true&max_rate=800&sort=rating", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), guideUser.ID)
}

func TestSearchGuides_Rejected(t *testing.T) {
	for _, query := range []string{"min_rate=10&max_rate=5", "sort=cheapest", "verified=sure"} {
		t.Run(query, func(t *testing.T) {
			h, _ := newTestHandler(t)

			rec := serve(h, nil, http.MethodGet, "/api/guides?"+query, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetGuide_NotFound(t *testing.T) {
	h, m := newTestHandler(t)
	m.guides.EXPECT().GetGuide(gomock.Any(), "nobody").Return(models.Guide{}, store.ErrGuideNotFound)

	rec := serve(h, nil, http.MethodGet, "/api/guides/nobody", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuideTours_ViewerIsOptional(t *testing.T) {
	h, m := newTestHandler(t)
	m.tours.EXPECT().GuideTours(gomock.Any(), models.Principal{}, guideUser.ID, models.Pagination{Limit: 4}).
		Return(models.Page[models.Tour]{Items: []models.Tour{}}, nil)

	rec := serve(h, nil, http.MethodGet, "/api/guides/"+guideUser.ID+"/tours?limit=4", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuideMe_Routes(t *testing.T) {
	t.Run("profile update", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.expectAuth(guideUser)

		m.guides.EXPECT().UpdateProfile(gomock.Any(), guideUser.ID, gomock.Any()).
			DoAndReturn(func(_ any, _ string, upd models.GuideProfileUpdate) (models.Guide, error) {
				require.NotNil(t, upd.Bio)
				assert.Equal(t, "Born in the old city.", *upd.Bio)
				return models.Guide{User: guideUser}, nil
			})

		rec := serve(h, &guideUser, http.MethodPut, "/api/guides/me", strings.NewReader(`{"bio":"Born in the old city."}`))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("negative hourly rate", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.expectAuth(guideUser)

		rec := serve(h, &guideUser, http.MethodPut, "/api/guides/me", strings.NewReader(`{"hourly_rate":"-1"}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.expectAuth(guideUser)
		m.guides.EXPECT().Stats(gomock.Any(), guideUser.ID).Return(models.GuideStats{
			GuideID:  guideUser.ID,
			Earnings: decimal.NewFromInt(4500),
		}, nil)

		rec := serve(h, &guideUser, http.MethodGet, "/api/guides/me/stats", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.GuideStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.True(t, got.Earnings.Equal(decimal.NewFromInt(4500)))
	})

	t.Run("travelers are rejected", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.expectAuth(travelerUser)

		rec := serve(h, &travelerUser, http.MethodGet, "/api/guides/me/stats", nil)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

// ─────────────────────────────────────────────
// users
// ─────────────────────────────────────────────

func TestUserProfile(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.expectAuth(travelerUser)
		m.users.EXPECT().GetUser(gomock.Any(), travelerUser.ID).Return(travelerUser, nil)

		rec := serve(h, &travelerUser, http.MethodGet, "/api/users/me", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), travelerUser.Email)
	})

	t.Run("update", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.expectAuth(travelerUser)

		name := "Asha K"
		m.users.EXPECT().UpdateProfile(gomock.Any(), travelerUser.ID, models.UserUpdate{Name: &name}).Return(travelerUser, nil)

		rec := serve(h, &travelerUser, http.MethodPut, "/api/users/me", strings.NewReader(`{"name":"Asha K"}`))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("empty update", func(t *testing.T) {
		h, m := newTestHandler(t)
		m.expectAuth(travelerUser)

		rec := serve(h, &travelerUser, http.MethodPut, "/api/users/me", strings.NewReader(`{}`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// ─────────────────────────────────────────────
// reviews
// ─────────────────────────────────────────────

func TestCreateReview(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "created", body: `{"rating":5,"comment":"Wonderful morning"}`, wantStatus: http.StatusCreated},
		{name: "rating out of range", body: `{"rating":6}`, wantStatus: http.StatusBadRequest},
		{name: "booking not completed", body: `{"rating":4}`, err: service.ErrBookingNotCompleted, wantStatus: http.StatusConflict},
		{name: "second review", body: `{"rating":4}`, err: store.ErrReviewExists, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestHandler(t)
			m.expectAuth(travelerUser)

			if tt.wantStatus != http.StatusBadRequest {
				review := models.Review{ID: "review-1", BookingID: "booking-1", Rating: 5}
				if tt.err != nil {
					review = models.Review{}
				}
				m.reviews.EXPECT().CreateReview(gomock.Any(), principalOf(travelerUser), "booking-1", gomock.Any()).Return(review, tt.err)
			}

			rec := serve(h, &travelerUser, http.MethodPost, "/api/bookings/booking-1/review", strings.NewReader(tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestListReviews_ScopedByRoute(t *testing.T) {
	tests := []struct {
		name string
		path string
		want models.ReviewFilter
	}{
		{name: "tour", path: "/api/tours/" + testTourID + "/reviews?page=2", want: models.ReviewFilter{TourID: testTourID, Pagination: models.Pagination{Page: 2}}},
		{name: "guide", path: "/api/guides/" + guideUser.ID + "/reviews", want: models.ReviewFilter{GuideID: guideUser.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestHandler(t)
			m.reviews.EXPECT().ListReviews(gomock.Any(), tt.want).Return(models.Page[models.Review]{Items: []models.Review{}}, nil)

			rec := serve(h, nil, http.MethodGet, tt.path, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}
