// Package service contains the application-specific use cases of the task
// tracker. It orchestrates the domain, the stores (defined in internal/store)
// and the task dispatcher to fulfill the features exposed by the API.
//
// Key components:
//
// 1. StatusService:
//   - Read-only, ownership-checked views of a user's tasks
//
// 2. TaskService:
//   - Creates and deletes tasks, singly and in batches
//   - Delegates every start and cancel to the Dispatcher
//
// 3. UserService:
//   - Registers users with bcrypt-hashed passwords
//   - Authenticates credentials and issues JWT bearer tokens
//
// Services receive their dependencies through constructor injection and
// return sentinel errors from domain, store and task so the API layer can map
// them to HTTP responses in one place.
package service
