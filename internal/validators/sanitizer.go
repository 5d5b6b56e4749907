// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips every HTML element from free text while keeping the
// text itself readable (entities are decoded back).
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text returns in without markup and surrounding whitespace. Encoded markup
// is decoded and stripped again so that "&lt;script&gt;" cannot survive as
// a tag.
func (s *Sanitizer) Text(in string) string {
	out := in
	for range 3 {
		out = html.UnescapeString(s.policy.Sanitize(out))
		if !strings.ContainsRune(out, '<') {
			break
		}
	}
	return strings.TrimSpace(out)
}
