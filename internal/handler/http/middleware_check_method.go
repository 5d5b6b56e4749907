// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-tour-guide/internal/utils"
)

// methodNotAllowed is registered as the router's MethodNotAllowed handler.
// chi has already set the Allow header; only the body is replaced with the
// JSON error shape used by every other endpoint.
func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, ErrMethodNotAllowed.Error(), http.StatusMethodNotAllowed)
}

// notFound is registered as the router's NotFound handler.
func notFound(w http.ResponseWriter, r *http.Request) {
	utils.WriteError(w, ErrRouteNotFound.Error(), http.StatusNotFound)
}
