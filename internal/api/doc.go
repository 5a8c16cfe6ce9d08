// Package api handles incoming HTTP requests, request validation and
// response formatting for the task tracker. It acts as an adapter between
// clients and the services in internal/service, and maps their errors to
// status codes and safe messages in one place (errors.go).
package api
