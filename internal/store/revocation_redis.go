// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// redisRevocationStore is the Redis implementation of
// [TokenRevocationStore]. Every revoked token id is a key that expires
// together with the token.
type redisRevocationStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisClient connects to the Redis instance of cfg and checks it with a
// ping.
func NewRedisClient(ctx context.Context, cfg config.Redis, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		log.Err(err).Str("func", "NewRedisClient").Msg("error connecting redis (ping)")
		_ = client.Close()
		return nil, err
	}
	log.Info().Str("func", "NewRedisClient").Msg("connected to redis successfully")

	return client, nil
}

// NewRedisRevocationStore constructs a [TokenRevocationStore] over client.
func NewRedisRevocationStore(client redis.Cmdable) TokenRevocationStore {
	return &redisRevocationStore{client: client, now: time.Now}
}

// Revoke marks tokenID as revoked until the given time. Tokens that are
// already expired are not stored.
func (s *redisRevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	if err := s.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked.
func (s *redisRevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("checking token revocation: %w", err)
	}
	return n > 0, nil
}
