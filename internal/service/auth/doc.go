// Package auth issues and validates the JWT bearer tokens used by the API and
// hashes user passwords with bcrypt.
package auth
