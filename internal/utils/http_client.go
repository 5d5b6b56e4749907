// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client used by the
// outbound adapters. It embeds *resty.Client to expose all of its methods
// directly.
//
// Example usage:
//
//	client := utils.NewHTTPClient("https://api.razorpay.com/v1", 10*time.Second)
//	resp, err := client.R().SetBody(order).Post("/orders")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates a client with the given base URL and per-request
// timeout. Requests answered with 429 or a 5xx status are retried twice
// with backoff.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("User-Agent", "go-tour-guide").
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil || resp == nil {
				return false
			}
			return resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
		})
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &HTTPClient{Client: client}
}
