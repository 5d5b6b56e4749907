// Package http implements the HTTP transport layer of the application.
//
// It exposes route wiring, request handlers, and middleware used by the REST
// API of the marketplace. Cross-cutting concerns such as authentication,
// request tracing, access logging, rate limiting, CORS and metrics are handled
// in this package before requests are delegated to the service layer.
package http
