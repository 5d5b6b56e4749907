// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StructuredConfig)
		wantErr error
	}{
		{name: "valid", mutate: func(*StructuredConfig) {}},
		{name: "valid mongo", mutate: func(c *StructuredConfig) { c.Storage.DB.DSN = "mongodb+srv://cluster.example" }},
		{name: "missing dsn", mutate: func(c *StructuredConfig) { c.Storage.DB.DSN = "" }, wantErr: ErrInvalidStorageConfigs},
		{name: "unknown scheme", mutate: func(c *StructuredConfig) { c.Storage.DB.DSN = "mysql://localhost" }, wantErr: ErrInvalidStorageConfigs},
		{name: "mongo without name", mutate: func(c *StructuredConfig) {
			c.Storage.DB.DSN = "mongodb://localhost"
			c.Storage.DB.Name = ""
		}, wantErr: ErrInvalidStorageConfigs},
		{name: "missing sign key", mutate: func(c *StructuredConfig) { c.App.TokenSignKey = "" }, wantErr: ErrInvalidAppConfigs},
		{name: "bcrypt cost too low", mutate: func(c *StructuredConfig) { c.App.BcryptCost = 1 }, wantErr: ErrInvalidAppConfigs},
		{name: "missing address", mutate: func(c *StructuredConfig) { c.Server.HTTPAddress = "" }, wantErr: ErrInvalidServerConfigs},
		{name: "kafka without topic", mutate: func(c *StructuredConfig) {
			c.Adapter.Kafka.Brokers = []string{"k:9092"}
			c.Adapter.Kafka.Topic = ""
		}, wantErr: ErrInvalidAdapterConfigs},
		{name: "trusted proxies", mutate: func(c *StructuredConfig) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "192.0.2.1"} }},
		{name: "bad trusted proxy", mutate: func(c *StructuredConfig) { c.Server.TrustedProxies = []string{"proxy.local"} }, wantErr: ErrInvalidServerConfigs},
		{name: "no workers", mutate: func(c *StructuredConfig) { c.Workers.NotificationWorkers = 0 }, wantErr: ErrInvalidWorkerConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDB_Backend(t *testing.T) {
	assert.Equal(t, BackendPostgres, DB{DSN: "postgres://x"}.Backend())
	assert.Equal(t, BackendPostgres, DB{DSN: "postgresql://x"}.Backend())
	assert.Equal(t, BackendMongo, DB{DSN: "mongodb://x"}.Backend())
	assert.Equal(t, Backend(""), DB{DSN: "sqlite://x"}.Backend())
}

func TestServer_TrustedProxyPrefixes(t *testing.T) {
	prefixes, err := Server{TrustedProxies: []string{" 10.1.2.3/8", "192.0.2.1", "", "::ffff:198.51.100.4"}}.TrustedProxyPrefixes()
	require.NoError(t, err)

	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.1/32"),
		netip.MustParsePrefix("198.51.100.4/32"),
	}, prefixes)

	_, err = Server{TrustedProxies: []string{"10.0.0.0/99"}}.TrustedProxyPrefixes()
	assert.Error(t, err)
}
