// Package events carries task status changes from the execution core to
// interested handlers.
//
// The primary components are:
// - TaskStatusEvent: a task entered a new status
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that publish events
// - NATSPublisher: an EventHandler that forwards events to NATS subjects
package events
