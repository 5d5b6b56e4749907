// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// defaultConfig returns the values used when no other source sets a field.
func defaultConfig() *StructuredConfig {
	return &StructuredConfig{
		App: App{
			TokenIssuer:   "go-tour-guide",
			TokenDuration: 24 * time.Hour,
			CookieName:    "token",
			BcryptCost:    bcrypt.DefaultCost,
			Version:       "dev",
		},
		Storage: Storage{
			DB:    DB{Name: "tour_guide"},
			Files: Files{MediaDir: "./media"},
		},
		Server: Server{
			HTTPAddress:     "localhost:8080",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimitRPS:    5,
			RateLimitBurst:  10,
		},
		Adapter: Adapter{
			Payment: Payment{
				BaseURL:        "https://api.razorpay.com/v1",
				Currency:       "INR",
				RequestTimeout: 10 * time.Second,
			},
			Mail: Mail{
				SMTPPort: 587,
				From:     "no-reply@tour-guide.local",
			},
			Kafka: Kafka{
				Topic:   "booking-events",
				GroupID: "tour-guide-notifications",
			},
		},
		Workers: Workers{
			LifecycleInterval:   time.Minute,
			PendingBookingTTL:   24 * time.Hour,
			NotificationWorkers: 4,
			HealthInterval:      15 * time.Second,
		},
	}
}
