// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

const (
	// DefaultPageLimit is used when a listing is requested without a limit.
	DefaultPageLimit = 10

	// MaxPageLimit caps the number of items of a single page.
	MaxPageLimit = 100

	// MaxPage caps page numbers so that Offset stays far from overflowing
	// and within what the databases accept as OFFSET / $skip.
	MaxPage = 1_000_000
)

// Pagination selects a page of a listing. Page numbers start at 1.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Normalize replaces out-of-range values with defaults.
func (p Pagination) Normalize() Pagination {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset returns the number of items preceding the page.
func (p Pagination) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}
