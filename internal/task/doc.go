// Package task runs task executions in the background and tracks them.
//
// The Dispatcher moves tasks from waiting to running and hands them to a
// bounded WorkerPool. Workers run the configured Executor for one task at a
// time and record exactly one terminal status per task, so a task never
// stays running once its execution is over.
package task
