// Package middleware contains the HTTP middleware of the task tracker API:
// trace IDs with request-scoped loggers, and bearer token authentication.
package middleware
