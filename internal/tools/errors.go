package tools

import "fmt"

// NotFoundError means the requested resource does not exist: an
// unrecognized ticker, a city with no canned report, or a provider
// response with no data.
type NotFoundError struct {
	Resource string
	Message  string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// ValidationError means the caller's input was malformed or empty.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ExternalServiceError wraps a failure of an outbound call, carrying
// the subject (ticker or company name) the call was made for.
type ExternalServiceError struct {
	Service string
	Subject string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: unable to process %q: %v", e.Service, e.Subject, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// notFound builds a NotFoundError with a preformatted message.
func notFound(resource, format string, args ...any) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: fmt.Sprintf(format, args...)}
}
