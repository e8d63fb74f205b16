package registry

import "fmt"

// NotFoundError reports a lookup or invocation of an unregistered name, or
// a resource read whose URI matches neither a literal nor a template.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// DuplicateError reports a registration rejected under RejectDuplicates.
type DuplicateError struct {
	Kind string
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s already registered: %s", e.Kind, e.Name)
}

// InternalError wraps an unexpected fault raised (or panicked) by a
// handler. The wrapped cause is for the implementer's observability hooks
// only; dispatch layers surface a generic message to the peer.
type InternalError struct {
	Kind string
	Name string
	Err  error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s %q handler failed: %v", e.Kind, e.Name, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
