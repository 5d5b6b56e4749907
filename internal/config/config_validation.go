// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before the server starts.
func (cfg *StructuredConfig) validate() error {
	if err := cfg.validateStorage(); err != nil {
		return err
	}

	if cfg.App.TokenSignKey == "" {
		return fmt.Errorf("%w: token sign key is required", ErrInvalidAppConfigs)
	}
	if cfg.App.TokenDuration <= 0 {
		return fmt.Errorf("%w: token duration must be positive", ErrInvalidAppConfigs)
	}
	if cfg.App.BcryptCost < bcrypt.MinCost || cfg.App.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("%w: bcrypt cost must be within [%d, %d]", ErrInvalidAppConfigs, bcrypt.MinCost, bcrypt.MaxCost)
	}

	if cfg.Server.HTTPAddress == "" {
		return fmt.Errorf("%w: http address is required", ErrInvalidServerConfigs)
	}
	if cfg.Server.RateLimitRPS <= 0 || cfg.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("%w: rate limit must be positive", ErrInvalidServerConfigs)
	}
	if _, err := cfg.Server.TrustedProxyPrefixes(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidServerConfigs, err)
	}

	if cfg.Adapter.Payment.Enabled() && cfg.Adapter.Payment.BaseURL == "" {
		return fmt.Errorf("%w: payment base url is required", ErrInvalidAdapterConfigs)
	}
	if cfg.Adapter.Kafka.Enabled() && cfg.Adapter.Kafka.Topic == "" {
		return fmt.Errorf("%w: kafka topic is required", ErrInvalidAdapterConfigs)
	}

	if cfg.Workers.LifecycleInterval <= 0 || cfg.Workers.HealthInterval <= 0 {
		return fmt.Errorf("%w: worker intervals must be positive", ErrInvalidWorkerConfigs)
	}
	if cfg.Workers.NotificationWorkers < 1 {
		return fmt.Errorf("%w: at least one notification worker is required", ErrInvalidWorkerConfigs)
	}

	return nil
}

// validateStorage checks the storage group only. It is all operator
// commands need.
func (cfg *StructuredConfig) validateStorage() error {
	if cfg.Storage.DB.DSN == "" {
		return fmt.Errorf("%w: database DSN is required", ErrInvalidStorageConfigs)
	}
	switch cfg.Storage.DB.Backend() {
	case BackendPostgres:
	case BackendMongo:
		if cfg.Storage.DB.Name == "" {
			return fmt.Errorf("%w: database name is required for MongoDB", ErrInvalidStorageConfigs)
		}
	default:
		return fmt.Errorf("%w: unsupported DSN scheme", ErrInvalidStorageConfigs)
	}

	return nil
}
