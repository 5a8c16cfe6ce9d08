// Package memory provides in-process implementations of the store
// interfaces. They are used when no database URL is configured and by tests
// across the module.
package memory
