// Package http contains the HTTP handlers for the REST API. Handlers
// depend on service interfaces, render JSON via go-chi/render and
// report failures as RFC 7807 problem documents through the shared
// error handler.
package http
