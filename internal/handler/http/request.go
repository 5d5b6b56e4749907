// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
)

// decodeBody decodes the JSON body into dst and validates it.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := utils.DecodeJSON(w, r, dst); err != nil {
		return err
	}
	return h.validator.Validate(r.Context(), dst)
}

// requirePrincipal returns the authenticated caller of a route behind auth.
func requirePrincipal(r *http.Request) (models.Principal, error) {
	p, ok := utils.GetPrincipalFromContext(r.Context())
	if !ok {
		return models.Principal{}, ErrNotAuthenticated
	}
	return p, nil
}

func queryPagination(q url.Values) (models.Pagination, error) {
	page, err := queryInt(q, "page")
	if err != nil {
		return models.Pagination{}, err
	}
	limit, err := queryInt(q, "limit")
	if err != nil {
		return models.Pagination{}, err
	}
	return models.Pagination{Page: page, Limit: limit}, nil
}

func queryInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidQuery, key)
	}
	return v, nil
}

func queryDecimal(q url.Values, key string) (*decimal.Decimal, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidQuery, key)
	}
	return &v, nil
}

func queryFloat(q url.Values, key string) (*float64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", ErrInvalidQuery, key)
	}
	return &v, nil
}

func queryBool(q url.Values, key string) (*bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be true or false", ErrInvalidQuery, key)
	}
	return &v, nil
}

// queryMonth parses a YYYY-MM parameter. The zero time is returned when the
// parameter is absent.
func queryMonth(q url.Values, key string) (time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return time.Time{}, nil
	}
	v, err := time.Parse(models.MonthLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM", ErrInvalidQuery, key)
	}
	return v, nil
}
