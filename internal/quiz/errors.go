package quiz

import "errors"

// ErrorKind classifies controller failures so the HTTP layer can map them
// to status codes and localized messages.
type ErrorKind string

const (
	// ErrorNotReady: advance was attempted with an empty value, or before
	// session resumption resolved. The transition is a no-op.
	ErrorNotReady ErrorKind = "not_ready"
	// ErrorTooManySelections: a choice past the max_selections cap. The
	// stored value is left unchanged; the message is transient, not fatal.
	ErrorTooManySelections ErrorKind = "too_many_selections"
	ErrorInvalidValue      ErrorKind = "invalid_value"
	ErrorInvalidEmail      ErrorKind = "invalid_email"
	ErrorNameRequired      ErrorKind = "name_required"
	ErrorUnknownSession    ErrorKind = "unknown_session"
	ErrorBadTransition     ErrorKind = "bad_transition"
)

// FlowError is the controller's error type.
type FlowError struct {
	Kind    ErrorKind
	Message string
	// Max carries the selection cap for too_many_selections.
	Max int
}

func (e *FlowError) Error() string { return e.Message }

func notReady(msg string) error      { return &FlowError{Kind: ErrorNotReady, Message: msg} }
func invalidValue(msg string) error  { return &FlowError{Kind: ErrorInvalidValue, Message: msg} }
func badTransition(msg string) error { return &FlowError{Kind: ErrorBadTransition, Message: msg} }

func tooManySelections(max int) error {
	return &FlowError{Kind: ErrorTooManySelections, Message: "selection limit reached", Max: max}
}

// AsFlowError unwraps a FlowError if err carries one.
func AsFlowError(err error) (*FlowError, bool) {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
