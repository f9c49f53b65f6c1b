package errors

import (
	"errors"
	"fmt"
)

// ArgusError is the structured error type for Argus.
// It carries what logging and the CLI need to present a failure.
type ArgusError struct {
	// Code is the unique error code (e.g., "ERR_406_INVALID_PATH").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *ArgusError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ArgusError) Unwrap() error {
	return e.Cause
}

// Is matches another *ArgusError by code.
func (e *ArgusError) Is(target error) bool {
	if t, ok := target.(*ArgusError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *ArgusError) WithDetail(key, value string) *ArgusError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *ArgusError) WithSuggestion(suggestion string) *ArgusError {
	e.Suggestion = suggestion
	return e
}

// New creates an ArgusError. Category and severity are derived from the code.
func New(code string, message string, cause error) *ArgusError {
	return &ArgusError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates an ArgusError whose message is err's message.
func Wrap(code string, err error) *ArgusError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *ArgusError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *ArgusError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *ArgusError {
	return New(ErrCodeInternal, message, cause)
}

// As returns the first *ArgusError in err's chain.
func As(err error) (*ArgusError, bool) {
	var ae *ArgusError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	ae, ok := As(err)
	return ok && ae.Severity == SeverityFatal
}

// GetCode extracts the error code, or "" when err is not an ArgusError.
func GetCode(err error) string {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category, or "" when err is not an ArgusError.
func GetCategory(err error) Category {
	if ae, ok := As(err); ok {
		return ae.Category
	}
	return ""
}
