// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var revocationNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// ─────────────────────────────────────────────
// Redis
// ─────────────────────────────────────────────

func TestRedisRevocationStore_Revoke(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &redisRevocationStore{client: client, now: func() time.Time { return revocationNow }}

	mock.ExpectSet("revoked:jti-1", 1, 15*time.Minute).SetVal("OK")

	err := store.Revoke(context.Background(), "jti-1", revocationNow.Add(15*time.Minute))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRevocationStore_RevokeExpiredToken(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &redisRevocationStore{client: client, now: func() time.Time { return revocationNow }}

	err := store.Revoke(context.Background(), "jti-1", revocationNow.Add(-time.Second))
	require.NoError(t, err)

	// nothing must reach redis
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisRevocationStore_RevokeError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := &redisRevocationStore{client: client, now: func() time.Time { return revocationNow }}

	mock.ExpectSet("revoked:jti-1", 1, time.Minute).SetErr(errors.New("connection refused"))

	err := store.Revoke(context.Background(), "jti-1", revocationNow.Add(time.Minute))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revoking token")
}

func TestRedisRevocationStore_IsRevoked(t *testing.T) {
	tests := []struct {
		name   string
		exists int64
		want   bool
	}{
		{name: "revoked", exists: 1, want: true},
		{name: "not revoked", exists: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := redismock.NewClientMock()
			store := NewRedisRevocationStore(client)

			mock.ExpectExists("revoked:jti-1").SetVal(tt.exists)

			got, err := store.IsRevoked(context.Background(), "jti-1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedisRevocationStore_IsRevokedError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisRevocationStore(client)

	mock.ExpectExists("revoked:jti-1").SetErr(errors.New("timeout"))

	_, err := store.IsRevoked(context.Background(), "jti-1")
	require.Error(t, err)
}

// ─────────────────────────────────────────────
// Memory
// ─────────────────────────────────────────────

func TestMemoryRevocationStore(t *testing.T) {
	now := revocationNow
	store := &memoryRevocationStore{
		revoked: make(map[string]time.Time),
		now:     func() time.Time { return now },
	}
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "short", now.Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "long", now.Add(time.Hour)))
	require.NoError(t, store.Revoke(ctx, "past", now.Add(-time.Minute)))

	revoked, err := store.IsRevoked(ctx, "short")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = store.IsRevoked(ctx, "past")
	assert.False(t, revoked)

	revoked, _ = store.IsRevoked(ctx, "unknown")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)

	revoked, _ = store.IsRevoked(ctx, "short")
	assert.False(t, revoked, "revocation must end with the token lifetime")

	revoked, _ = store.IsRevoked(ctx, "long")
	assert.True(t, revoked)

	// the next revocation prunes expired entries
	require.NoError(t, store.Revoke(ctx, "other", now.Add(time.Hour)))
	assert.Len(t, store.revoked, 2)
}
