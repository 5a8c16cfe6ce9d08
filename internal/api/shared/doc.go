// Package shared holds the request decoding, response envelope and context
// helpers used by both the API handlers and the API middleware.
package shared
