// Package domain contains the core business entities of the task tracker:
// users, tasks, and the task lifecycle state machine. It is independent of
// any storage engine or delivery mechanism.
package domain
