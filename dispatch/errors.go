package dispatch

import "fmt"

// InvalidTargetType is returned when the request names a target kind outside
// the closed set of client, chat and contact.
type InvalidTargetType struct {
	Type string
}

func (e *InvalidTargetType) Error() string {
	return fmt.Sprintf("dispatch: invalid type %q, use client, chat, or contact", e.Type)
}

// TargetNotFound is returned when a chat or contact identifier cannot be
// resolved through the underlying client.
type TargetNotFound struct {
	Kind  Kind
	ID    string
	Cause error
}

func (e *TargetNotFound) Error() string {
	return fmt.Sprintf("dispatch: %s %q not found: %v", e.Kind, e.ID, e.Cause)
}

func (e *TargetNotFound) Unwrap() error { return e.Cause }

// MethodNotFound is returned when the resolved target has no operation with
// the requested name.
type MethodNotFound struct {
	Kind   Kind
	Method string
}

func (e *MethodNotFound) Error() string {
	return fmt.Sprintf("dispatch: method %q not found on %s", e.Method, e.Kind)
}
