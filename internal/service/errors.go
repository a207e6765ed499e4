// Package service implements the direct-messaging operations, composing
// payload validation, the access policy, and the data store.
package service

// ValidationError reports a malformed or inconsistent payload. Handlers
// map it to 400.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// PermissionError reports that an authenticated principal is not
// authorized for the specific resource. Handlers map it to 403.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

// NotFoundError reports that the target resource does not exist. Handlers
// map it to 404.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }
