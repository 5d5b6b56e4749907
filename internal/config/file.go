// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedConfigFile is returned for a config file with an unknown
// extension.
var ErrUnsupportedConfigFile = errors.New("unsupported config file extension")

// fileConfig mirrors [StructuredConfig] with the key names used in JSON and
// YAML config files.
type fileConfig struct {
	App struct {
		TokenSignKey   string   `json:"token_sign_key" yaml:"token_sign_key"`
		TokenIssuer    string   `json:"token_issuer" yaml:"token_issuer"`
		TokenDuration  Duration `json:"token_duration" yaml:"token_duration"`
		CookieName     string   `json:"cookie_name" yaml:"cookie_name"`
		CookieDomain   string   `json:"cookie_domain" yaml:"cookie_domain"`
		CookieSecure   bool     `json:"cookie_secure" yaml:"cookie_secure"`
		BcryptCost     int      `json:"bcrypt_cost" yaml:"bcrypt_cost"`
		Version        string   `json:"version" yaml:"version"`
		AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`
	} `json:"app" yaml:"app"`

	Storage struct {
		DB struct {
			DSN  string `json:"dsn" yaml:"dsn"`
			Name string `json:"name" yaml:"name"`
		} `json:"db" yaml:"db"`

		Files struct {
			MediaDir string `json:"media_dir" yaml:"media_dir"`
		} `json:"files" yaml:"files"`

		Redis struct {
			Address  string `json:"address" yaml:"address"`
			Password string `json:"password" yaml:"password"`
			DB       int    `json:"db" yaml:"db"`
		} `json:"redis" yaml:"redis"`
	} `json:"storage" yaml:"storage"`

	Server struct {
		HTTPAddress     string   `json:"http_address" yaml:"http_address"`
		GRPCAddress     string   `json:"grpc_address" yaml:"grpc_address"`
		RequestTimeout  Duration `json:"request_timeout" yaml:"request_timeout"`
		ShutdownTimeout Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
		RateLimitRPS    float64  `json:"rate_limit_rps" yaml:"rate_limit_rps"`
		RateLimitBurst  int      `json:"rate_limit_burst" yaml:"rate_limit_burst"`
		TrustedProxies  []string `json:"trusted_proxies" yaml:"trusted_proxies"`
	} `json:"server" yaml:"server"`

	Adapter struct {
		Payment struct {
			BaseURL        string   `json:"base_url" yaml:"base_url"`
			KeyID          string   `json:"key_id" yaml:"key_id"`
			KeySecret      string   `json:"key_secret" yaml:"key_secret"`
			WebhookSecret  string   `json:"webhook_secret" yaml:"webhook_secret"`
			Currency       string   `json:"currency" yaml:"currency"`
			RequestTimeout Duration `json:"request_timeout" yaml:"request_timeout"`
		} `json:"payment" yaml:"payment"`

		Mail struct {
			SMTPHost string `json:"smtp_host" yaml:"smtp_host"`
			SMTPPort int    `json:"smtp_port" yaml:"smtp_port"`
			Username string `json:"username" yaml:"username"`
			Password string `json:"password" yaml:"password"`
			From     string `json:"from" yaml:"from"`
		} `json:"mail" yaml:"mail"`

		Kafka struct {
			Brokers []string `json:"brokers" yaml:"brokers"`
			Topic   string   `json:"topic" yaml:"topic"`
			GroupID string   `json:"group_id" yaml:"group_id"`
		} `json:"kafka" yaml:"kafka"`
	} `json:"adapter" yaml:"adapter"`

	Workers struct {
		LifecycleInterval   Duration `json:"lifecycle_interval" yaml:"lifecycle_interval"`
		PendingBookingTTL   Duration `json:"pending_booking_ttl" yaml:"pending_booking_ttl"`
		NotificationWorkers int      `json:"notification_workers" yaml:"notification_workers"`
		HealthInterval      Duration `json:"health_interval" yaml:"health_interval"`
	} `json:"workers" yaml:"workers"`
}

// parseFile reads a config file, choosing the decoder by the file extension.
func parseFile(path string) (*StructuredConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading a config file: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err = json.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error decoding json configs: %w", err)
		}
	case ".yaml", ".yml":
		if err = yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("error decoding yaml configs: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFile, path)
	}

	return fc.structured(), nil
}

func (fc fileConfig) structured() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenSignKey:   fc.App.TokenSignKey,
			TokenIssuer:    fc.App.TokenIssuer,
			TokenDuration:  time.Duration(fc.App.TokenDuration),
			CookieName:     fc.App.CookieName,
			CookieDomain:   fc.App.CookieDomain,
			CookieSecure:   fc.App.CookieSecure,
			BcryptCost:     fc.App.BcryptCost,
			Version:        fc.App.Version,
			AllowedOrigins: fc.App.AllowedOrigins,
		},
		Storage: Storage{
			DB:    DB{DSN: fc.Storage.DB.DSN, Name: fc.Storage.DB.Name},
			Files: Files{MediaDir: fc.Storage.Files.MediaDir},
			Redis: Redis{
				Address:  fc.Storage.Redis.Address,
				Password: fc.Storage.Redis.Password,
				DB:       fc.Storage.Redis.DB,
			},
		},
		Server: Server{
			HTTPAddress:     fc.Server.HTTPAddress,
			GRPCAddress:     fc.Server.GRPCAddress,
			RequestTimeout:  time.Duration(fc.Server.RequestTimeout),
			ShutdownTimeout: time.Duration(fc.Server.ShutdownTimeout),
			RateLimitRPS:    fc.Server.RateLimitRPS,
			RateLimitBurst:  fc.Server.RateLimitBurst,
			TrustedProxies:  fc.Server.TrustedProxies,
		},
		Adapter: Adapter{
			Payment: Payment{
				BaseURL:        fc.Adapter.Payment.BaseURL,
				KeyID:          fc.Adapter.Payment.KeyID,
				KeySecret:      fc.Adapter.Payment.KeySecret,
				WebhookSecret:  fc.Adapter.Payment.WebhookSecret,
				Currency:       fc.Adapter.Payment.Currency,
				RequestTimeout: time.Duration(fc.Adapter.Payment.RequestTimeout),
			},
			Mail: Mail{
				SMTPHost: fc.Adapter.Mail.SMTPHost,
				SMTPPort: fc.Adapter.Mail.SMTPPort,
				Username: fc.Adapter.Mail.Username,
				Password: fc.Adapter.Mail.Password,
				From:     fc.Adapter.Mail.From,
			},
			Kafka: Kafka{
				Brokers: fc.Adapter.Kafka.Brokers,
				Topic:   fc.Adapter.Kafka.Topic,
				GroupID: fc.Adapter.Kafka.GroupID,
			},
		},
		Workers: Workers{
			LifecycleInterval:   time.Duration(fc.Workers.LifecycleInterval),
			PendingBookingTTL:   time.Duration(fc.Workers.PendingBookingTTL),
			NotificationWorkers: fc.Workers.NotificationWorkers,
			HealthInterval:      time.Duration(fc.Workers.HealthInterval),
		},
	}
}

// Duration is a wrapper around time.Duration that supports JSON and YAML
// unmarshaling from strings like "1h", "30s".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	tmp, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(tmp)
	return nil
}
