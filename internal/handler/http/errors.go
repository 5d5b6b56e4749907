// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import "errors"

// Sentinel errors produced by the transport layer itself. Callers can match
// against them with [errors.Is].
var (
	// ErrMissingToken is returned by the auth middleware when the request
	// carries neither the token cookie nor an "Authorization" header.
	ErrMissingToken = errors.New("missing access token")

	// ErrInvalidAuthorizationHeader is returned when the "Authorization"
	// header is not of the form "Bearer <token>".
	ErrInvalidAuthorizationHeader = errors.New("invalid `Authorization` header")

	// ErrEmptyToken is returned when the token cookie is present but empty.
	ErrEmptyToken = errors.New("empty token")

	// ErrNotAuthenticated is returned when a protected handler runs without
	// a principal in the request context.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidQuery is returned for a malformed query parameter.
	ErrInvalidQuery = errors.New("invalid query parameter")

	// ErrMissingImage is returned when an upload has no "image" part.
	ErrMissingImage = errors.New("multipart field `image` is required")

	// ErrTooManyRequests is returned by the rate limiter.
	ErrTooManyRequests = errors.New("too many requests")

	// ErrMethodNotAllowed is written for a known path with an unknown method.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrRouteNotFound is written for an unknown path.
	ErrRouteNotFound = errors.New("route not found")
)
