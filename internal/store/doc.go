// Package store defines the persistence contracts for users and tasks.
// Implementations live in store/memory and platform/postgres; callers depend
// only on these interfaces and the sentinel errors declared here.
package store
